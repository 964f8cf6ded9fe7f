// Package scheduler drives the periodic refresh of the rent-table
// snapshot. Analyses already in flight keep the table they started with;
// clients re-trigger analysis to pick up refreshed data.
package scheduler

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"dealfolio/server/internal/ingest"
)

// Scheduler re-runs rent ingestion on a fixed interval.
type Scheduler struct {
	ingest   *ingest.Manager
	logger   *logrus.Logger
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
	jobMutex sync.Mutex // Ensures sequential refresh execution
}

// NewScheduler creates a scheduler. A non-positive interval disables it.
func NewScheduler(ingest *ingest.Manager, interval time.Duration, logger *logrus.Logger) *Scheduler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Scheduler{
		ingest:   ingest,
		logger:   logger,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the scheduled refresh loop.
func (s *Scheduler) Start() {
	if s.interval <= 0 {
		s.logger.Info("Rent refresh scheduling disabled")
		return
	}
	s.wg.Add(1)
	go s.run()
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.runRefresh()
		}
	}
}

// RunNow triggers a refresh outside the schedule, e.g. from the API.
func (s *Scheduler) RunNow() error {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()
	return s.ingest.Refresh()
}

func (s *Scheduler) runRefresh() {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	start := time.Now()
	if err := s.ingest.Refresh(); err != nil {
		s.logger.WithError(err).Error("Scheduled rent refresh failed")
		return
	}
	s.logger.WithField("duration", time.Since(start).String()).Info("Scheduled rent refresh finished")
}

// Stop halts the refresh loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	close(s.stopChan)
	s.wg.Wait()
}
