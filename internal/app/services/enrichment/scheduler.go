package enrichment

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/R3E-Network/data_harmony/internal/app/system"
	"github.com/R3E-Network/data_harmony/pkg/logger"
)

var _ system.Service = (*Scheduler)(nil)

// DefaultRunTimeout bounds a single scheduled load.
const DefaultRunTimeout = 2 * time.Minute

// Scheduler runs the loader on a cron schedule such as "@every 1h" or
// "0 */6 * * *".
type Scheduler struct {
	loader     *Loader
	log        *logger.Logger
	spec       string
	runTimeout time.Duration

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

// NewScheduler validates spec and returns a stopped scheduler.
func NewScheduler(loader *Loader, spec string, log *logger.Logger) (*Scheduler, error) {
	if log == nil {
		log = logger.NewDefault("load-scheduler")
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, errors.Wrapf(err, "parse load schedule %q", spec)
	}
	return &Scheduler{
		loader:     loader,
		log:        log,
		spec:       spec,
		runTimeout: DefaultRunTimeout,
	}, nil
}

func (s *Scheduler) Name() string { return "load-scheduler" }

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.spec, func() { s.run(runCtx) }); err != nil {
		cancel()
		return errors.Wrap(err, "schedule load")
	}
	c.Start()

	s.cron = c
	s.cancel = cancel
	s.running = true
	s.log.WithField("schedule", s.spec).Info("load scheduler started")
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel, s.running = nil, nil, false
	s.mu.Unlock()

	cancel()
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	s.log.Info("load scheduler stopped")
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()
	ctx = logger.WithTraceID(ctx, logger.NewTraceID())

	if _, err := s.loader.Load(ctx); err != nil {
		s.log.WithContext(ctx).WithError(err).Warn("scheduled load failed")
	}
}
