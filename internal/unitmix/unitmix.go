// Package unitmix derives and repairs per-bedroom unit distributions for
// multi-unit properties that are listed without an explicit breakdown.
package unitmix

import (
	"fmt"

	"dealfolio/server/internal/models"
)

// Allocate produces a default unit mix for a property with the given unit
// and bedroom totals. Bedrooms are spread as evenly as possible: every unit
// gets floor(bedrooms/units) bedrooms and the remainder is assigned one
// extra bedroom each. A non-positive bedroom total is treated as unknown
// and assumed to be two bedrooms per unit.
func Allocate(units, bedrooms int) models.UnitMix {
	if units <= 0 {
		return models.UnitMix{{Bedrooms: 2, Units: 0}}
	}
	if bedrooms <= 0 {
		bedrooms = 2 * units
	}

	base := bedrooms / units
	remainder := bedrooms - base*units

	var mix models.UnitMix
	if units-remainder > 0 {
		mix = append(mix, models.UnitMixEntry{Bedrooms: base, Units: units - remainder})
	}
	if remainder > 0 {
		mix = append(mix, models.UnitMixEntry{Bedrooms: base + 1, Units: remainder})
	}
	if len(mix) == 0 {
		return models.UnitMix{{Bedrooms: 2, Units: units}}
	}
	return mix
}

// Resync scales an existing mix so its entries sum to newTotal, preserving
// the relative proportions. Each entry is rounded and the rounding residual
// is folded into the first entry so the sum comes out exact. A mix that
// sums to zero cannot be scaled proportionally; it is replaced by a single
// one-bedroom entry holding the whole total.
func Resync(mix models.UnitMix, newTotal int) models.UnitMix {
	if newTotal < 0 {
		newTotal = 0
	}
	current := mix.TotalUnits()
	if current == 0 || len(mix) == 0 {
		return models.UnitMix{{Bedrooms: 1, Units: newTotal}}
	}

	out := mix.Clone()
	assigned := 0
	for i := range out {
		scaled := int(float64(out[i].Units)*float64(newTotal)/float64(current) + 0.5)
		out[i].Units = scaled
		assigned += scaled
	}
	// Fold the rounding residual into the first entry. If that would push
	// it negative, carry the deficit into the following entries.
	residual := newTotal - assigned
	for i := 0; i < len(out) && residual != 0; i++ {
		out[i].Units += residual
		residual = 0
		if out[i].Units < 0 {
			residual = out[i].Units
			out[i].Units = 0
		}
	}
	return out
}

// CheckTotals reports whether a property's unit mix disagrees with its
// stated unit count. The mismatch is surfaced as a warning value for the
// caller to display; the mix is never corrected here.
func CheckTotals(p models.Property) (ok bool, warning string) {
	if len(p.UnitMix) == 0 {
		return true, ""
	}
	total := p.UnitMix.TotalUnits()
	if total == p.Units {
		return true, ""
	}
	return false, fmt.Sprintf("unit mix sums to %d units but property lists %d", total, p.Units)
}
