// Package rents holds the market-rent lookup table and the resolution
// logic that decides what rent a unit commands during an analysis pass.
package rents

import (
	"fmt"
	"strings"

	"dealfolio/server/internal/models"
)

// Mode selects which rent estimate a resolution pass uses. A single mode is
// threaded through every lookup of one analysis; modes are never mixed
// within a pass.
type Mode string

const (
	// ModeBelow is the conservative, low estimate.
	ModeBelow Mode = "below"
	// ModeAvg is the table's point estimate.
	ModeAvg Mode = "avg"
	// ModeAgg is the aggressive, high estimate.
	ModeAgg Mode = "agg"
)

// ParseMode validates a mode string from an API parameter.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeBelow:
		return ModeBelow, nil
	case ModeAvg, Mode(""):
		return ModeAvg, nil
	case ModeAgg:
		return ModeAgg, nil
	}
	return "", fmt.Errorf("unknown valuation mode: %q", s)
}

// Cell holds the three rent estimates for one (postal code, bedrooms) pair.
type Cell struct {
	Below float64 `json:"below"`
	Avg   float64 `json:"avg"`
	Agg   float64 `json:"agg"`
}

// Rent returns the estimate for the given mode.
func (c Cell) Rent(mode Mode) float64 {
	switch mode {
	case ModeBelow:
		return c.Below
	case ModeAgg:
		return c.Agg
	default:
		return c.Avg
	}
}

// Table maps postal code to bedroom count (0..6) to monthly rent
// estimates. It is treated as an immutable snapshot for the duration of
// one analysis pass.
type Table map[string]map[int]Cell

// Lookup returns the rent for one unit under the given mode, or zero when
// the table carries no entry for the postal code or bedroom count.
func (t Table) Lookup(postalCode string, bedrooms int, mode Mode) float64 {
	byBedrooms, ok := t[postalCode]
	if !ok {
		return 0
	}
	cell, ok := byBedrooms[bedrooms]
	if !ok {
		return 0
	}
	return cell.Rent(mode)
}

// Resolver determines the rent for one unit. The table is injected at
// construction so tests can substitute fixed data.
type Resolver struct {
	table Table
}

// NewResolver creates a resolver over a table snapshot.
func NewResolver(table Table) *Resolver {
	return &Resolver{table: table}
}

// Resolve returns the monthly rent for a unit with the given bedroom count
// in the given postal code. A non-zero per-bedroom rent in the override
// unit mix wins regardless of mode; otherwise the table is consulted under
// the selected mode; missing data resolves to zero, never an error. Zero
// rent is a visible condition for the caller, not a fatal one.
func (r *Resolver) Resolve(overrideMix models.UnitMix, postalCode string, bedrooms int, mode Mode) float64 {
	for _, e := range overrideMix {
		if e.Bedrooms == bedrooms && e.Rent > 0 {
			return e.Rent
		}
	}
	return r.table.Lookup(postalCode, bedrooms, mode)
}
