package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"dealfolio/server/internal/models"
)

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

func (d *Database) GetDB() *sql.DB {
	return d.db
}

func (d *Database) Close() error {
	return d.db.Close()
}

// GetAllProperties lists properties, optionally filtered by city and
// postal code.
func (d *Database) GetAllProperties(city, postalCode string) ([]models.Property, error) {
	query := `
        SELECT
            id,
            url,
            street,
            city,
            state,
            postal_code,
            list_price,
            annual_taxes,
            units,
            bedrooms,
            COALESCE(unit_mix, '') as unit_mix,
            status,
            COALESCE(listing_date, '') as listing_date,
            COALESCE(created_at, CURRENT_TIMESTAMP) as created_at
        FROM properties
        WHERE (? = '' OR LOWER(city) = LOWER(?))
        AND (? = '' OR postal_code = ?)
        ORDER BY id
    `
	rows, err := d.db.Query(query, city, city, postalCode, postalCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var properties []models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, p)
	}
	return properties, rows.Err()
}

// GetProperty fetches one property by id.
func (d *Database) GetProperty(id int64) (*models.Property, error) {
	row := d.db.QueryRow(`
        SELECT
            id,
            url,
            street,
            city,
            state,
            postal_code,
            list_price,
            annual_taxes,
            units,
            bedrooms,
            COALESCE(unit_mix, '') as unit_mix,
            status,
            COALESCE(listing_date, '') as listing_date,
            COALESCE(created_at, CURRENT_TIMESTAMP) as created_at
        FROM properties
        WHERE id = ?
    `, id)

	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProperty(row scanner) (models.Property, error) {
	var p models.Property
	var street, city, state, postalCode, status sql.NullString
	var unitMixJSON, listingDate, createdAt sql.NullString
	var listPrice, annualTaxes sql.NullFloat64
	var units, bedrooms sql.NullInt64

	err := row.Scan(
		&p.ID,
		&p.URL,
		&street,
		&city,
		&state,
		&postalCode,
		&listPrice,
		&annualTaxes,
		&units,
		&bedrooms,
		&unitMixJSON,
		&status,
		&listingDate,
		&createdAt,
	)
	if err != nil {
		return p, err
	}

	p.Street = street.String
	p.City = city.String
	p.State = state.String
	p.PostalCode = postalCode.String
	p.Status = status.String
	p.ListPrice = listPrice.Float64
	p.AnnualTaxes = annualTaxes.Float64
	p.Units = int(units.Int64)
	p.Bedrooms = int(bedrooms.Int64)

	if unitMixJSON.String != "" {
		if err := json.Unmarshal([]byte(unitMixJSON.String), &p.UnitMix); err != nil {
			return p, fmt.Errorf("failed to parse unit mix for property %d: %w", p.ID, err)
		}
	}
	if listingDate.String != "" {
		if t, err := time.Parse(time.RFC3339, listingDate.String); err == nil {
			p.ListingDate = t
		}
	}
	if createdAt.String != "" {
		if t, err := time.Parse(time.RFC3339, createdAt.String); err == nil {
			p.CreatedAt = t
		}
	}
	return p, nil
}

// SaveOverrides upserts the persisted overrides record for a property.
// The record round-trips as an opaque JSON blob; the analysis engine
// itself never touches storage.
func (d *Database) SaveOverrides(propertyID int64, o *models.PropertyOverrides) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal overrides: %w", err)
	}

	_, err = d.db.Exec(`
        INSERT INTO property_overrides (property_id, overrides, updated_at)
        VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(property_id) DO UPDATE SET
            overrides = excluded.overrides,
            updated_at = CURRENT_TIMESTAMP
    `, propertyID, string(data))
	if err != nil {
		return fmt.Errorf("failed to save overrides: %w", err)
	}
	return nil
}

// GetOverrides fetches the persisted overrides for a property, or nil when
// none have been saved.
func (d *Database) GetOverrides(propertyID int64) (*models.PropertyOverrides, error) {
	var data string
	err := d.db.QueryRow(`
        SELECT overrides FROM property_overrides WHERE property_id = ?
    `, propertyID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var o models.PropertyOverrides
	if err := json.Unmarshal([]byte(data), &o); err != nil {
		return nil, fmt.Errorf("failed to parse overrides for property %d: %w", propertyID, err)
	}
	return &o, nil
}
