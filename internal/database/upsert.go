package database

import (
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"dealfolio/server/internal/models"
)

// UpsertProperties writes a batch of imported properties inside a gorm
// transaction. Matching is by listing URL so re-imports update in place.
func UpsertProperties(tx *gorm.DB, batch []*models.Property) error {
	for _, p := range batch {
		unitMixJSON := ""
		if len(p.UnitMix) > 0 {
			data, err := json.Marshal(p.UnitMix)
			if err != nil {
				return fmt.Errorf("failed to marshal unit mix: %w", err)
			}
			unitMixJSON = string(data)
		}

		err := tx.Exec(`
			INSERT INTO properties (
				url, street, city, state, postal_code,
				list_price, annual_taxes, units, bedrooms,
				unit_mix, status, listing_date
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(url) DO UPDATE SET
				street = excluded.street,
				city = excluded.city,
				state = excluded.state,
				postal_code = excluded.postal_code,
				list_price = excluded.list_price,
				annual_taxes = excluded.annual_taxes,
				units = excluded.units,
				bedrooms = excluded.bedrooms,
				unit_mix = excluded.unit_mix,
				status = excluded.status,
				listing_date = excluded.listing_date
		`,
			p.URL, p.Street, p.City, p.State, p.PostalCode,
			p.ListPrice, p.AnnualTaxes, p.Units, p.Bedrooms,
			unitMixJSON, p.Status, p.ListingDate,
		).Error
		if err != nil {
			return fmt.Errorf("failed to upsert property %s: %w", p.URL, err)
		}
	}
	return nil
}
