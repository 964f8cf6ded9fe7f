// Package session keeps interactive analysis state: each store wraps the
// analysis engine with an edit history so assumption changes can be undone
// and redone while the computed metrics stay consistent.
package session

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dealfolio/server/internal/analysis"
	"dealfolio/server/internal/models"
	"dealfolio/server/internal/rents"
)

// Snapshot is one committed state: the property, the overrides active at
// commit time and the metrics computed from them.
type Snapshot struct {
	Property  models.Property          `json:"property"`
	Overrides models.PropertyOverrides `json:"overrides"`
	Result    models.AnalysisResult    `json:"result"`
}

// Options tune a store's history and debounce behavior.
type Options struct {
	// MaxHistory bounds the number of retained snapshots; the oldest is
	// evicted first. Zero means DefaultMaxHistory.
	MaxHistory int
	// Debounce is the window within which staged edits coalesce into a
	// single committed snapshot. Zero means DefaultDebounce.
	Debounce time.Duration
}

const (
	DefaultMaxHistory = 50
	DefaultDebounce   = 400 * time.Millisecond
)

// Store holds the edit history for one property under analysis. All
// recomputation is synchronous inside commit; the only timing-sensitive
// behavior is the debounce window for staged edits.
type Store struct {
	mu       sync.Mutex
	property models.Property
	resolver *rents.Resolver
	mode     rents.Mode

	history []Snapshot
	cursor  int

	maxHistory int
	debounce   time.Duration

	pending *models.PropertyOverrides
	timer   *time.Timer

	logger *logrus.Logger
}

// NewStore creates a store seeded with the property's no-override state.
func NewStore(property models.Property, resolver *rents.Resolver, mode rents.Mode, opts Options, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	if opts.MaxHistory <= 0 {
		opts.MaxHistory = DefaultMaxHistory
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}

	s := &Store{
		property:   property,
		resolver:   resolver,
		mode:       mode,
		maxHistory: opts.MaxHistory,
		debounce:   opts.Debounce,
		logger:     logger,
	}
	s.history = []Snapshot{s.compute(models.PropertyOverrides{})}
	return s
}

// compute runs the merge and the engine for one overrides record.
func (s *Store) compute(o models.PropertyOverrides) Snapshot {
	a := analysis.Merge(s.property, o)
	result := analysis.Analyze(a, func(bedrooms int) float64 {
		return s.resolver.Resolve(a.UnitMix, s.property.PostalCode, bedrooms, s.mode)
	})
	return Snapshot{Property: s.property, Overrides: o.Clone(), Result: result}
}

// Apply commits an edit immediately, discarding any pending staged edit
// and any redo tail beyond the cursor.
func (s *Store) Apply(o models.PropertyOverrides) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropPendingLocked()
	return s.commitLocked(o)
}

// Stage records an edit to be committed after the debounce window. A newer
// staged edit replaces the pending one and restarts the window, so rapid
// edits coalesce into a single history entry.
func (s *Store) Stage(o models.PropertyOverrides) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := o.Clone()
	s.pending = &clone
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.flushPending)
}

func (s *Store) flushPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return
	}
	o := *s.pending
	s.pending = nil
	s.timer = nil
	s.commitLocked(o)
}

// commitLocked truncates the redo tail, appends the new snapshot, advances
// the cursor and evicts the oldest snapshot past the history bound.
func (s *Store) commitLocked(o models.PropertyOverrides) Snapshot {
	snap := s.compute(o)

	s.history = append(s.history[:s.cursor+1], snap)
	s.cursor = len(s.history) - 1

	if len(s.history) > s.maxHistory {
		over := len(s.history) - s.maxHistory
		s.history = append([]Snapshot(nil), s.history[over:]...)
		s.cursor -= over
		if s.cursor < 0 {
			s.cursor = 0
		}
	}

	s.logger.WithFields(logrus.Fields{
		"property_id": s.property.ID,
		"history_len": len(s.history),
		"cursor":      s.cursor,
	}).Debug("Committed edit")
	return snap
}

// dropPendingLocked cancels a staged edit that has not committed yet.
func (s *Store) dropPendingLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = nil
}

// Flush commits any staged edit immediately. Undo, Redo and Current call
// it so history reflects everything the user has typed.
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

func (s *Store) flushLocked() {
	if s.pending == nil {
		return
	}
	o := *s.pending
	s.dropPendingLocked()
	s.commitLocked(o)
}

// Undo steps the cursor back one snapshot. At the oldest snapshot it is a
// no-op and returns the current state unchanged.
func (s *Store) Undo() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
	if s.cursor > 0 {
		s.cursor--
	}
	return s.history[s.cursor]
}

// Redo steps the cursor forward one snapshot. At the newest snapshot it is
// a no-op and returns the current state unchanged.
func (s *Store) Redo() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
	if s.cursor < len(s.history)-1 {
		s.cursor++
	}
	return s.history[s.cursor]
}

// Current returns the active snapshot, committing any staged edit first.
func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
	return s.history[s.cursor]
}

// Peek returns the active snapshot without committing a staged edit, so a
// read does not cut a debounce window short.
func (s *Store) Peek() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history[s.cursor]
}

// CanUndo reports whether a backward step would change state.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor > 0
}

// CanRedo reports whether a forward step would change state.
func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor < len(s.history)-1
}

// HistoryLen returns the number of retained snapshots.
func (s *Store) HistoryLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}
