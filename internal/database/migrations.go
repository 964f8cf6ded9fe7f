package database

func (d *Database) RunMigrations() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS properties (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			url TEXT,
			street TEXT,
			city TEXT,
			state TEXT,
			postal_code TEXT,
			list_price REAL,
			annual_taxes REAL,
			units INTEGER,
			bedrooms INTEGER,
			unit_mix TEXT,
			status TEXT,
			listing_date TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		CREATE TABLE IF NOT EXISTS property_overrides (
			property_id INTEGER PRIMARY KEY,
			overrides TEXT NOT NULL,
			updated_at TEXT DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (property_id) REFERENCES properties(id)
		);
	`)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_postal_code
		ON properties(postal_code);
	`)
	if err != nil {
		return err
	}

	// Imports match on listing URL
	_, err = d.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_properties_url
		ON properties(url);
	`)
	if err != nil {
		return err
	}

	return nil
}
