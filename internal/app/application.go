package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/R3E-Network/data_harmony/internal/app/services/enrichment"
	"github.com/R3E-Network/data_harmony/internal/app/services/users"
	"github.com/R3E-Network/data_harmony/internal/app/storage"
	"github.com/R3E-Network/data_harmony/internal/app/storage/memory"
	"github.com/R3E-Network/data_harmony/internal/app/system"
	"github.com/R3E-Network/data_harmony/pkg/logger"
)

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger
	stores  storage.Stores

	Users  *users.Service
	Loader *enrichment.Loader
}

// Option customizes New.
type Option func(*options)

type options struct {
	loadSchedule string
}

// WithLoadSchedule runs the loader on a cron schedule. Empty disables it.
func WithLoadSchedule(spec string) Option {
	return func(o *options) { o.loadSchedule = strings.TrimSpace(spec) }
}

// New builds the application over stores. Nil collections default to empty
// in-memory ones.
func New(stores storage.Stores, source enrichment.Source, log *logger.Logger, opts ...Option) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	if source == nil {
		return nil, fmt.Errorf("data source is required")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem.Users
	}
	if stores.Posts == nil {
		stores.Posts = mem.Posts
	}
	if stores.Comments == nil {
		stores.Comments = mem.Comments
	}

	manager := system.NewManager()
	userService := users.New(stores.Users, log.Named("users"))
	loader := enrichment.NewLoader(source, stores, log.Named("loader"))

	if o.loadSchedule != "" {
		sched, err := enrichment.NewScheduler(loader, o.loadSchedule, log.Named("load-scheduler"))
		if err != nil {
			return nil, err
		}
		if err := manager.Register(sched); err != nil {
			return nil, fmt.Errorf("register %s: %w", sched.Name(), err)
		}
	}

	return &Application{
		manager: manager,
		log:     log,
		stores:  stores,
		Users:   userService,
		Loader:  loader,
	}, nil
}

// Stores returns the collections the application was built with.
func (a *Application) Stores() storage.Stores {
	return a.stores
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
