package rents

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// snapshotFile is the on-disk shape written by the payment-standards
// ingestion collaborator. JSON object keys are strings, so bedroom counts
// arrive as strings and are converted on load.
type snapshotFile struct {
	UpdatedAt time.Time                  `json:"updated_at"`
	Rents     map[string]map[string]Cell `json:"rents"`
}

// Snapshot holds the current rent table and swaps it atomically on
// refresh. In-flight analyses keep the table they started with; a caller
// that wants the refreshed data re-triggers analysis.
type Snapshot struct {
	mu        sync.RWMutex
	table     Table
	updatedAt time.Time
	logger    *logrus.Logger
}

// NewSnapshot creates an empty snapshot holder.
func NewSnapshot(logger *logrus.Logger) *Snapshot {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Snapshot{table: Table{}, logger: logger}
}

// Table returns the current table. The returned map is never mutated after
// installation, so holding it across an analysis pass is safe.
func (s *Snapshot) Table() Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// UpdatedAt reports when the current table was produced.
func (s *Snapshot) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Install replaces the current table wholesale.
func (s *Snapshot) Install(table Table, updatedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = table
	s.updatedAt = updatedAt
	s.logger.WithFields(logrus.Fields{
		"postal_codes": len(table),
		"updated_at":   updatedAt,
	}).Info("Installed rent table snapshot")
}

// LoadFile reads a snapshot file produced by the ingestion collaborator
// and installs it.
func (s *Snapshot) LoadFile(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("failed to read rent snapshot: %w", err)
	}

	table, updatedAt, err := ParseSnapshot(data)
	if err != nil {
		return err
	}

	s.Install(table, updatedAt)
	return nil
}

// ParseSnapshot decodes the collaborator's JSON payload into a Table.
// Bedroom counts outside 0..6 are skipped.
func ParseSnapshot(data []byte) (Table, time.Time, error) {
	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse rent snapshot: %w", err)
	}

	table := make(Table, len(file.Rents))
	for postalCode, byBedrooms := range file.Rents {
		cells := make(map[int]Cell, len(byBedrooms))
		for key, cell := range byBedrooms {
			bedrooms, err := strconv.Atoi(key)
			if err != nil || bedrooms < 0 || bedrooms > 6 {
				continue
			}
			cells[bedrooms] = cell
		}
		table[postalCode] = cells
	}

	updatedAt := file.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	return table, updatedAt, nil
}
