package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	app "github.com/R3E-Network/data_harmony/internal/app"
	"github.com/R3E-Network/data_harmony/internal/middleware"
	"github.com/R3E-Network/data_harmony/pkg/logger"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	AssetRoot        string
	FallbackDocument string
	AllowedOrigins   []string
	// RateLimiter, when set, guards the API namespace.
	RateLimiter *middleware.RateLimiter
}

// NewRouter builds the complete HTTP handler: API dispatcher under /api/,
// single-page static assets for other GETs and a 404 envelope for the rest,
// wrapped in the middleware chain.
func NewRouter(application *app.Application, cfg RouterConfig, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("http")
	}
	if cfg.FallbackDocument == "" {
		cfg.FallbackDocument = "index.html"
	}

	var api http.Handler = NewHandler(application, log.Named("api"))
	if cfg.RateLimiter != nil {
		api = cfg.RateLimiter.Handler(api)
	}

	r := mux.NewRouter().SkipClean(true)
	r.PathPrefix(APIPrefix).Handler(api)
	r.PathPrefix("/").Methods(http.MethodGet).Handler(NewStaticHandler(cfg.AssetRoot, cfg.FallbackDocument, log.Named("static")))
	r.NotFoundHandler = http.HandlerFunc(NotFound)
	r.MethodNotAllowedHandler = http.HandlerFunc(NotFound)

	var h http.Handler = r
	h = middleware.NewCORSMiddleware(cfg.AllowedOrigins).Handler(h)
	h = middleware.MetricsMiddleware()(h)
	h = middleware.NewTracingMiddleware(log).Handler(h)
	h = middleware.Recover(log)(h)
	return h
}
