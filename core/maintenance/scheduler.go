package maintenance

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"securereport/config"
	"securereport/core/store"
	"securereport/core/utils"

	"github.com/robfig/cron/v3"
)

type Stats struct {
	TicksTotal      uint64     `json:"ticks_total"`
	TickErrorsTotal uint64     `json:"tick_errors_total"`
	PurgedTotal     uint64     `json:"purged_total"`
	LastTickAtUTC   *time.Time `json:"last_tick_at_utc,omitempty"`
}

type schedulerObs struct {
	ticks      atomic.Uint64
	tickErrors atomic.Uint64
	purged     atomic.Uint64
	lastTickNs atomic.Int64
}

func (o *schedulerObs) recordTick(now time.Time, purged int64, err error) {
	o.ticks.Add(1)
	if err != nil {
		o.tickErrors.Add(1)
	}
	if purged > 0 {
		o.purged.Add(uint64(purged))
	}
	o.lastTickNs.Store(now.UTC().UnixNano())
}

// Scheduler purges dead sessions on a cron schedule. Sessions are removed
// once they have been expired or revoked for longer than the retention.
type Scheduler struct {
	cfg      config.MaintenanceConfig
	sessions store.SessionStore
	logger   *utils.Logger
	now      func() time.Time
	obs      schedulerObs

	mu   sync.Mutex
	cron *cron.Cron
}

func NewScheduler(cfg config.MaintenanceConfig, sessions store.SessionStore, logger *utils.Logger) *Scheduler {
	return &Scheduler{cfg: cfg, sessions: sessions, logger: logger, now: time.Now}
}

func (s *Scheduler) StartWithContext(ctx context.Context) error {
	if s == nil || !s.cfg.Enabled {
		return nil
	}
	schedule, err := config.ParseSchedule(s.cfg.Schedule)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.cron != nil {
		s.mu.Unlock()
		return nil
	}
	c := cron.New(cron.WithLocation(time.UTC))
	c.Schedule(schedule, cron.FuncJob(func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Errorf("maintenance tick: %v", err)
		}
	}))
	s.cron = c
	s.mu.Unlock()
	c.Start()
	s.logger.Printf("maintenance scheduler started schedule=%q retention=%s", s.cfg.Schedule, s.cfg.SessionRetention)
	return nil
}

// StopWithContext stops scheduling and waits for a running tick, or for ctx.
func (s *Scheduler) StopWithContext(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs a single purge and returns the number of removed sessions.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	cutoff := now.Add(-s.cfg.SessionRetention)
	n, err := s.sessions.PurgeExpired(ctx, cutoff)
	s.obs.recordTick(now, n, err)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Printf("maintenance purged %d sessions older than %s", n, cutoff.Format(time.RFC3339))
	}
	return n, nil
}

func (s *Scheduler) StatsSnapshot() Stats {
	if s == nil {
		return Stats{}
	}
	ns := s.obs.lastTickNs.Load()
	var last *time.Time
	if ns > 0 {
		t := time.Unix(0, ns).UTC()
		last = &t
	}
	return Stats{
		TicksTotal:      s.obs.ticks.Load(),
		TickErrorsTotal: s.obs.tickErrors.Load(),
		PurgedTotal:     s.obs.purged.Load(),
		LastTickAtUTC:   last,
	}
}
