package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/tuikaDLC/Kincord/relay"
)

// MaxBodyBytes caps inbound webhook bodies.
const MaxBodyBytes = 1 << 20

type options struct {
	metrics       http.Handler
	notifications http.Handler
	logLevel      string
	logJSON       bool
}

type Option func(*options)

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(o *options) { o.metrics = h }
}

// WithNotifications mounts h at GET /ws/notifications.
func WithNotifications(h http.Handler) Option {
	return func(o *options) { o.notifications = h }
}

// WithLogging sets the request log level and format ("json" or "console").
// httplog configures zerolog globally, so this must match the root logger.
func WithLogging(level, format string) Option {
	return func(o *options) {
		o.logLevel = level
		o.logJSON = format != "console"
	}
}

// Handlers sets up the relay API routes
func Handlers(svc relay.UseCase, opts ...Option) *chi.Mux {
	o := options{logLevel: "info", logJSON: true}
	for _, opt := range opts {
		opt(&o)
	}

	logger := httplog.NewLogger("kincord", httplog.Options{
		JSON:     o.logJSON,
		LogLevel: o.logLevel,
	})

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Route("/webhook", func(r chi.Router) {
		r.Post("/kintone", postKintone(svc).ServeHTTP)
		r.Get("/health", getHealth(svc).ServeHTTP)
	})

	if o.metrics != nil {
		r.Method(http.MethodGet, "/metrics", o.metrics)
	}
	if o.notifications != nil {
		r.Method(http.MethodGet, "/ws/notifications", o.notifications)
	}

	return r
}
