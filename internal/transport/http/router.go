// Package httptransport assembles the HTTP surface: middleware chain,
// versioned API routes, and the operational endpoints. Handlers stay thin;
// all business rules live in the component services.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aidgate/internal/platform/sequence"
	"aidgate/pkg/platform/middleware/auth"
	"aidgate/pkg/platform/middleware/clock"
	"aidgate/pkg/platform/middleware/request"
)

// Registrar is implemented by every component handler.
type Registrar interface {
	Register(r chi.Router)
}

// Deps carries everything the router needs from main.
type Deps struct {
	Logger    *slog.Logger
	Validator auth.TokenValidator
	Clock     *sequence.Counter
	Registry  *prometheus.Registry

	// Handlers self-register under /v1.
	Handlers []Registrar
}

// NewRouter builds the full HTTP handler. /healthz and /metrics sit outside
// the authenticated chain; everything under /v1 requires a bearer token and
// carries a request ID and a logical clock stamp.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(request.Middleware)

	r.Get("/healthz", handleHealth)
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(clock.Middleware(deps.Clock))
		v1.Use(auth.RequireAuth(deps.Validator, deps.Logger))
		for _, h := range deps.Handlers {
			h.Register(v1)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
