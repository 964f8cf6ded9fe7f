package models

import "time"

type Property struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	Street      string    `json:"street"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	PostalCode  string    `json:"postal_code"`
	ListPrice   float64   `json:"list_price"`
	AnnualTaxes float64   `json:"annual_taxes"`
	Units       int       `json:"units"`
	Bedrooms    int       `json:"bedrooms"`
	UnitMix     UnitMix   `json:"unit_mix,omitempty"`
	Status      string    `json:"status"`
	ListingDate time.Time `json:"listing_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// UnitMixEntry describes one group of identical units in a property.
type UnitMixEntry struct {
	Bedrooms int `json:"bedrooms"`
	Units    int `json:"units"`
	// Rent is a per-unit monthly rent override. Zero means "look it up
	// in the rent table".
	Rent float64 `json:"rent,omitempty"`
}

// UnitMix is the distribution of a property's units by bedroom count.
type UnitMix []UnitMixEntry

// TotalUnits returns the number of units across all entries.
func (m UnitMix) TotalUnits() int {
	total := 0
	for _, e := range m {
		total += e.Units
	}
	return total
}

// TotalBedrooms returns the number of bedrooms across all entries.
func (m UnitMix) TotalBedrooms() int {
	total := 0
	for _, e := range m {
		total += e.Bedrooms * e.Units
	}
	return total
}

// Clone returns a deep copy so history snapshots never alias a live mix.
func (m UnitMix) Clone() UnitMix {
	if m == nil {
		return nil
	}
	out := make(UnitMix, len(m))
	copy(out, m)
	return out
}
