package session

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"stonk-news/observability"
)

// Sweeper periodically evicts idle sessions on a cron schedule
type Sweeper struct {
	cron  *cron.Cron
	store *Store
}

// NewSweeper registers the sweep job; schedule uses standard cron syntax or descriptors like "@every 5m"
func NewSweeper(store *Store, schedule string) (*Sweeper, error) {
	s := &Sweeper{
		cron:  cron.New(),
		store: store,
	}
	if _, err := s.cron.AddFunc(schedule, s.Run); err != nil {
		return nil, fmt.Errorf("register session sweep: %w", err)
	}
	return s, nil
}

// Start starts the cron scheduler
func (s *Sweeper) Start() {
	s.cron.Start()
	observability.Info("session sweeper started")
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
	observability.Info("session sweeper stopped")
}

// Run performs one sweep and refreshes the active session gauge
func (s *Sweeper) Run() {
	removed := s.store.Sweep()
	active := s.store.Len()
	observability.GetMetrics().SetActiveSessions(active)
	if removed > 0 {
		observability.Debug("expired sessions evicted", "removed", removed, "active", active)
	}
}
