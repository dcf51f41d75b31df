package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/adstack/adboard-bff-go/internal/dialog"
	"github.com/adstack/adboard-bff-go/internal/domain"
	"github.com/adstack/adboard-bff-go/internal/infra/notify"
	"github.com/adstack/adboard-bff-go/internal/infra/observability"
	"github.com/adstack/adboard-bff-go/internal/port"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Pinger checks platform API reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) (int64, error)
}

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract for the adboard dashboard frontend.
func NewRouter(sessions *Sessions, queries port.Queries, searcher port.UserSearcher, notices *notify.Ring, health Pinger, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(health, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// Deposit request dialog
		r.Route("/dialogs/deposit", func(r chi.Router) {
			r.Post("/", openDepositHandler(sessions, logger))
			r.Get("/{sessionId}", getDepositHandler(sessions, logger))
			r.Patch("/{sessionId}", patchDepositHandler(sessions, logger))
			r.Post("/{sessionId}/submit", submitDepositHandler(sessions, logger))
			r.Delete("/{sessionId}", closeDepositHandler(sessions, logger))
		})

		// Manual account provisioning dialog
		r.Route("/dialogs/provisioning", func(r chi.Router) {
			r.Post("/", openProvisioningHandler(sessions, logger))
			r.Get("/{sessionId}", getProvisioningHandler(sessions, logger))
			r.Patch("/{sessionId}", patchProvisioningHandler(sessions, logger))
			r.Post("/{sessionId}/submit", submitProvisioningHandler(sessions, logger))
			r.Delete("/{sessionId}", closeProvisioningHandler(sessions, logger))
			r.Patch("/{sessionId}/search", searchProvisioningHandler(sessions, logger))
			r.Get("/{sessionId}/search", getSearchStateHandler(sessions, logger))
			r.Post("/{sessionId}/user", selectUserHandler(sessions, logger))
		})

		// Cached list views backing the dashboard tables
		r.Get("/deposits", cachedListHandler(queries, dialog.QueryDeposits, logger))
		r.Get("/accounts", cachedListHandler(queries, dialog.QueryAccounts, logger))
		r.Get("/accounts/provisioned", cachedListHandler(queries, dialog.QueryAllGoogleAccts, logger))

		// Directory proxy (no dialog session needed)
		r.Get("/users/search", searchUsersHandler(searcher, logger))

		// Notices for the dashboard toast surface
		r.Get("/notifications", notificationsHandler(notices, logger))

		// Metrics snapshot
		r.Get("/metrics/dialogs", dialogMetricsHandler(metrics, logger))
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

func healthzHandler(health Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := &domain.HealthStatus{Status: "healthy"}

		if health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()

			latency, err := health.Ping(ctx)
			svc := domain.ServiceHealth{
				Name:        "platform-api",
				Status:      "healthy",
				LatencyMs:   latency,
				LastChecked: time.Now().UTC().Format(time.RFC3339),
			}
			if err != nil {
				logger.Warn("healthz: platform API unreachable", zap.Error(err))
				svc.Status = "unhealthy"
				status.Status = "degraded"
			}
			status.Services = append(status.Services, svc)
		}

		writeJSON(w, http.StatusOK, status)
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func notificationsHandler(notices *notify.Ring, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if notices == nil {
			writeJSON(w, http.StatusOK, []domain.Notice{})
			return
		}
		writeJSON(w, http.StatusOK, notices.Recent())
	}
}

func dialogMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	cacheKeys := []string{
		dialog.QueryWallet,
		dialog.QueryActiveAccounts,
		dialog.QueryDeposits,
		dialog.QueryAccounts,
		dialog.QueryAllGoogleAccts,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetDialogSnapshot(cacheKeys))
	}
}

// ============================================================
// Cached list views
// ============================================================

// cachedListHandler serves a query key through the cached-query facility.
func cachedListHandler(queries port.Queries, key string, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET cached:"+key)
		defer span.End()

		if queries == nil {
			writeError(w, http.StatusServiceUnavailable, "query cache unavailable")
			return
		}

		value, err := queries.Read(ctx, key)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, value)
	}
}

// ============================================================
// Directory proxy
// ============================================================

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

func searchUsersHandler(searcher port.UserSearcher, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/search")
		defer span.End()

		if searcher == nil {
			writeError(w, http.StatusServiceUnavailable, "directory unavailable")
			return
		}

		search := r.URL.Query().Get("search")
		if search == "" {
			writeError(w, http.StatusBadRequest, "search query is required")
			return
		}

		limit := defaultSearchLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := parsePositiveInt(v); err == nil && n <= maxSearchLimit {
				limit = n
			}
		}

		users, err := searcher.SearchUsers(ctx, search, limit)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}
