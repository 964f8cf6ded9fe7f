package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// Port the HTTP API listens on
	Port string `env:"PORT" envDefault:"5250"`

	// DatabasePath is the sqlite file holding properties and overrides
	DatabasePath string `env:"DATABASE_PATH" envDefault:"database/dealfolio.db"`

	Rents struct {
		// SnapshotPath is the JSON rent table written by the ingestion script
		SnapshotPath string `env:"RENT_SNAPSHOT_PATH" envDefault:"data/rent_table.json"`

		// ScriptPath is the external payment-standards ingestion script
		ScriptPath string `env:"RENT_SCRIPT_PATH" envDefault:"scripts/bha_payment_standards.py"`

		// RefreshHours is how often the scheduler re-runs ingestion (0 disables it)
		RefreshHours int `env:"RENT_REFRESH_HOURS" envDefault:"24"`

		// DefaultMode is the valuation mode used when a client does not pick one
		DefaultMode string `env:"RENT_DEFAULT_MODE" envDefault:"avg"`
	}

	Session struct {
		// MaxHistory bounds the undo/redo history per session
		MaxHistory int `env:"SESSION_MAX_HISTORY" envDefault:"50"`

		// DebounceMillis is the window within which rapid edits coalesce
		DebounceMillis int `env:"SESSION_DEBOUNCE_MS" envDefault:"400"`

		// TTLMinutes is how long an idle session survives
		TTLMinutes int `env:"SESSION_TTL_MINUTES" envDefault:"60"`
	}

	// BatchProcessing configuration
	BatchProcessing struct {
		// Maximum number of properties to accumulate before processing
		MaxBatchSize int `env:"BATCH_MAX_SIZE" envDefault:"100"`

		// Queue buffer size in batches
		QueueSize int `env:"BATCH_QUEUE_SIZE" envDefault:"10"`

		// Number of concurrent batch processors
		ProcessorCount int `env:"BATCH_PROCESSOR_COUNT" envDefault:"2"`

		// Maximum number of retries for failed batches
		MaxRetries int `env:"BATCH_MAX_RETRIES" envDefault:"3"`

		// Delay between retries in seconds
		RetryDelay int `env:"BATCH_RETRY_DELAY" envDefault:"5"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
