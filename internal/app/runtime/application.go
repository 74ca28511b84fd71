package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	app "github.com/R3E-Network/data_harmony/internal/app"
	"github.com/R3E-Network/data_harmony/internal/app/httpapi"
	"github.com/R3E-Network/data_harmony/internal/app/metrics"
	"github.com/R3E-Network/data_harmony/internal/app/services/enrichment"
	"github.com/R3E-Network/data_harmony/internal/app/storage"
	"github.com/R3E-Network/data_harmony/internal/app/storage/memory"
	"github.com/R3E-Network/data_harmony/internal/app/storage/redisstore"
	"github.com/R3E-Network/data_harmony/internal/app/storage/sqlstore"
	"github.com/R3E-Network/data_harmony/internal/config"
	"github.com/R3E-Network/data_harmony/internal/httputil"
	"github.com/R3E-Network/data_harmony/internal/middleware"
	"github.com/R3E-Network/data_harmony/pkg/logger"
)

const (
	limiterCleanupInterval = time.Minute
	defaultShutdownTimeout = 10 * time.Second
)

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg     *config.Config
	log     *logger.Logger
	app     *app.Application
	handler http.Handler
	limiter *middleware.RateLimiter
	closer  storage.Closer
	primary bool

	server        *http.Server
	metricsServer *http.Server
}

// NewApplication loads configuration from the environment and builds the
// application.
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return New(ctx, cfg)
}

// New builds the application from cfg. An unreachable primary store is not
// fatal: the seeded in-memory store takes its place.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.New(logger.LoggingConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	stores, closer, primary := openStores(ctx, cfg, log)

	client := httputil.NewClient(httputil.ClientConfig{
		BaseURL: cfg.Upstream.BaseURL,
		Timeout: cfg.Upstream.Timeout,
	})
	application, err := app.New(stores, enrichment.NewHTTPSource(client), log.Named("app"),
		app.WithLoadSchedule(cfg.Loader.Schedule))
	if err != nil {
		closeStore(closer, log)
		return nil, fmt.Errorf("build application: %w", err)
	}

	var limiter *middleware.RateLimiter
	if cfg.Server.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, log.Named("ratelimit"))
	}

	handler := httpapi.NewRouter(application, httpapi.RouterConfig{
		AssetRoot:        cfg.Server.AssetRoot,
		FallbackDocument: cfg.Server.FallbackDocument,
		AllowedOrigins:   cfg.AllowedOrigins(),
		RateLimiter:      limiter,
	}, log.Named("http"))

	return &Application{
		cfg:     cfg,
		log:     log,
		app:     application,
		handler: handler,
		limiter: limiter,
		closer:  closer,
		primary: primary,
	}, nil
}

// Handler returns the fully wrapped HTTP handler.
func (a *Application) Handler() http.Handler { return a.handler }

// UsingPrimaryStore reports whether the configured store is in use rather
// than the in-memory fallback.
func (a *Application) UsingPrimaryStore() bool { return a.primary }

// Run starts the services and HTTP listeners and blocks until ctx is
// cancelled or a listener fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return fmt.Errorf("start services: %w", err)
	}
	if a.limiter != nil {
		a.limiter.StartCleanup(ctx, limiterCleanupInterval)
	}

	errCh := make(chan error, 2)

	ln, err := net.Listen("tcp", a.cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.cfg.ListenAddr(), err)
	}
	a.server = &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		a.log.Infof("HTTP server listening on %s", ln.Addr())
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if addr := a.cfg.Metrics.Addr; addr != "" && addr != "off" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		a.metricsServer = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			a.log.Infof("metrics listening on %s", addr)
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the listeners, the services and the store.
func (a *Application) Shutdown(ctx context.Context) error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var firstErr error
	if a.server != nil {
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			firstErr = err
		}
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.log.WithError(err).Warn("error shutting down metrics server")
		}
	}
	if err := a.app.Stop(shutdownCtx); err != nil && firstErr == nil {
		firstErr = err
	}
	closeStore(a.closer, a.log)
	return firstErr
}

// openStores connects the configured backend. The bool reports whether the
// primary store is in use.
func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (storage.Stores, storage.Closer, bool) {
	var (
		stores storage.Stores
		closer storage.Closer
		err    error
	)

	switch cfg.Store.Driver {
	case config.DriverMemory:
		if cfg.Store.SeedSample {
			return memory.NewSeeded(), nil, true
		}
		return memory.New(), nil, true
	case config.DriverPostgres, config.DriverSQLite:
		var db *sqlstore.DB
		if db, err = sqlstore.Open(ctx, cfg.Store.Driver, cfg.Store.DSN, cfg.Store.ConnectTimeout); err == nil {
			stores, closer = db.Stores(), db
		}
	case config.DriverRedis:
		var client *redisstore.Client
		if client, err = redisstore.Open(ctx, cfg.Store.DSN, cfg.Store.ConnectTimeout); err == nil {
			stores, closer = client.Stores(), client
		}
	default:
		err = fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if err != nil {
		log.WithError(err).WithField("driver", cfg.Store.Driver).
			Warn("primary store unavailable, using in-memory sample data")
		return memory.NewSeeded(), nil, false
	}

	log.WithField("driver", cfg.Store.Driver).Info("connected to store")
	if cfg.Store.SeedSample {
		seeded, err := memory.Seed(ctx, stores)
		switch {
		case err != nil:
			log.WithError(err).Warn("seeding sample data failed")
		case seeded:
			log.Info("seeded sample user into empty store")
		}
	}
	return stores, closer, true
}

func closeStore(closer storage.Closer, log *logger.Logger) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		log.WithError(err).Warn("error closing store")
	}
}
