// Package maintenance runs background jobs that keep cached server settings fresh.
package maintenance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/charlesng35/chatgate/internal/settings"
	"github.com/charlesng35/chatgate/pkg/logger"
)

const (
	defaultRefreshSchedule = "@every 15m"
	defaultRefreshTimeout  = 2 * time.Minute
)

// Refresher re-fetches one server's public settings.
type Refresher interface {
	Refresh(ctx context.Context, serverURL string) (settings.Snapshot, error)
}

// Scheduler periodically refreshes every server known to the settings store,
// plus any servers it was seeded with.
type Scheduler struct {
	store     settings.Store
	refresher Refresher
	cron      *cron.Cron
	log       *zap.Logger
	schedule  string
	timeout   time.Duration
	servers   []string
	now       func() time.Time

	mu     sync.Mutex
	status RunStatus
}

// RunStatus summarises completed refresh passes.
type RunStatus struct {
	Runs                int       `json:"runs"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastRunAt           time.Time `json:"last_run_at"`
	LastError           string    `json:"last_error,omitempty"`
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithSchedule overrides the cron expression for the refresh job.
func WithSchedule(expr string) Option {
	return func(s *Scheduler) {
		if expr != "" {
			s.schedule = expr
		}
	}
}

// WithServers seeds servers that are refreshed even before they have been probed.
func WithServers(servers ...string) Option {
	return func(s *Scheduler) {
		s.servers = append(s.servers, servers...)
	}
}

// WithTimeout bounds a single refresh pass.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithNow overrides the clock used to stamp refresh passes.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger overrides the module logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// NewScheduler constructs a Scheduler. A nil store or refresher disables the job.
func NewScheduler(store settings.Store, refresher Refresher, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:     store,
		refresher: refresher,
		schedule:  defaultRefreshSchedule,
		timeout:   defaultRefreshTimeout,
		now:       time.Now,
		log:       logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return s
}

func (s *Scheduler) enabled() bool {
	return s.store != nil && s.refresher != nil
}

// Start registers the refresh job and launches the scheduler.
func (s *Scheduler) Start() error {
	if !s.enabled() {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("settings refresh failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running jobs to complete.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce refreshes every target sequentially and returns the combined failures.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if !s.enabled() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	targets, err := s.targets(ctx)
	if err != nil {
		s.record(err)
		return err
	}

	var errs error
	for _, server := range targets {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		if _, err := s.refresher.Refresh(ctx, server); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	s.record(errs)
	s.log.Debug("settings refresh pass complete",
		zap.Int("servers", len(targets)),
		zap.Int("failures", len(multierr.Errors(errs))))
	return errs
}

// Interval returns the time between two consecutive scheduled passes, or 0 when
// the schedule cannot be parsed.
func (s *Scheduler) Interval() time.Duration {
	sched, err := cron.ParseStandard(s.schedule)
	if err != nil {
		return 0
	}
	first := sched.Next(s.now())
	return sched.Next(first).Sub(first)
}

// Status returns the outcome of the latest refresh passes.
func (s *Scheduler) Status() RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Scheduler) record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.Runs++
	s.status.LastRunAt = s.now()
	if err != nil {
		s.status.ConsecutiveFailures++
		s.status.LastError = err.Error()
		return
	}
	s.status.ConsecutiveFailures = 0
	s.status.LastError = ""
}

func (s *Scheduler) targets(ctx context.Context) ([]string, error) {
	known, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(known)+len(s.servers))
	out := make([]string, 0, len(known)+len(s.servers))
	for _, list := range [][]string{known, s.servers} {
		for _, server := range list {
			if _, dup := seen[server]; dup || server == "" {
				continue
			}
			seen[server] = struct{}{}
			out = append(out, server)
		}
	}
	sort.Strings(out)
	return out, nil
}
