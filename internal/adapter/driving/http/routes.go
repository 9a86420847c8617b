package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/credentialhub/internal/application"
)

// Options carries the dependencies shared by both services' routers.
type Options struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	// Registry receives the service collectors and backs GET /metrics. A fresh
	// registry is created when nil.
	Registry *prometheus.Registry
	// Pinger backs GET /health/ready. Optional.
	Pinger Pinger
}

// NewIssuanceMux creates the issuance service router with all routes
// registered and wrapped with the standard middleware chain.
func NewIssuanceMux(svc *application.IssuanceService, opts Options) http.Handler {
	opts = opts.withDefaults()
	metrics := NewMetrics(opts.Registry)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /issue", NewIssuanceHandler(svc, metrics, opts.Logger).Issue)
	registerCommon(mux, NewHealthHandler(svc.WorkerID(), opts.Pinger), opts.Registry)

	return wrap(mux, metrics, opts)
}

// NewVerificationMux creates the verification service router with all routes
// registered and wrapped with the standard middleware chain.
func NewVerificationMux(svc *application.VerificationService, opts Options) http.Handler {
	opts = opts.withDefaults()
	metrics := NewMetrics(opts.Registry)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /verify", NewVerificationHandler(svc, metrics, opts.Logger).Verify)
	registerCommon(mux, NewHealthHandler(svc.WorkerID(), opts.Pinger), opts.Registry)

	return wrap(mux, metrics, opts)
}

func registerCommon(mux *http.ServeMux, health *HealthHandler, reg *prometheus.Registry) {
	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /health/ready", health.Ready)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/", notFound)
}

func wrap(mux *http.ServeMux, metrics *Metrics, opts Options) http.Handler {
	// Recovery innermost so panics are caught before logging.
	var wrapped http.Handler = recoveryMiddleware(opts.Logger, mux)
	wrapped = loggingMiddleware(opts.Logger, metrics, wrapped)
	wrapped = requestIDMiddleware(wrapped)
	wrapped = corsMiddleware(opts.AllowedOrigins, wrapped)

	return wrapped
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Registry == nil {
		o.Registry = prometheus.NewRegistry()
	}
	return o
}
