// Package ingest is the interface to the external payment-standards
// ingestion collaborator, a Python script that fetches the housing
// authority's published rent tables and emits a JSON snapshot.
package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"dealfolio/server/internal/rents"
)

// Manager runs the ingestion script and installs refreshed rent tables.
type Manager struct {
	logger       *logrus.Logger
	scriptPath   string
	snapshotPath string
	snapshot     *rents.Snapshot
}

// message is one line of the script's stdout protocol.
type message struct {
	Type string          `json:"type"` // "progress", "complete", or "error"
	Data json.RawMessage `json:"data"`
}

// NewManager creates an ingest manager around a snapshot holder.
func NewManager(snapshot *rents.Snapshot, scriptPath, snapshotPath string, logger *logrus.Logger) *Manager {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	absScript, err := filepath.Abs(scriptPath)
	if err != nil {
		logger.WithError(err).Error("Failed to get absolute path to ingestion script")
		absScript = scriptPath
	}

	return &Manager{
		logger:       logger,
		scriptPath:   absScript,
		snapshotPath: snapshotPath,
		snapshot:     snapshot,
	}
}

// LoadSnapshot installs the most recent snapshot file without running the
// script. Used at startup so the server comes up with whatever data the
// collaborator last produced.
func (m *Manager) LoadSnapshot() error {
	return m.snapshot.LoadFile(m.snapshotPath)
}

// Refresh runs the ingestion script and, on success, loads the snapshot
// file it wrote. The script reports progress as JSON lines on stdout.
func (m *Manager) Refresh() error {
	m.logger.WithField("script", m.scriptPath).Info("Starting rent data ingestion")

	cmd := exec.Command("python3", m.scriptPath, "--output", m.snapshotPath)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ingestion script: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		var msg message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			m.logger.WithField("line", scanner.Text()).Debug("Ignoring non-JSON script output")
			continue
		}
		switch msg.Type {
		case "progress":
			m.logger.WithField("data", string(msg.Data)).Debug("Ingestion progress")
		case "error":
			m.logger.WithField("data", string(msg.Data)).Error("Ingestion script reported an error")
		case "complete":
			m.logger.Info("Ingestion script finished")
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ingestion script failed: %w", err)
	}

	if err := m.snapshot.LoadFile(m.snapshotPath); err != nil {
		return fmt.Errorf("failed to load refreshed snapshot: %w", err)
	}
	return nil
}
