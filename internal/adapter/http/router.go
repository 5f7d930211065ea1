package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/YelzhanWeb/menuapp/internal/adapter/logger"
	"github.com/YelzhanWeb/menuapp/internal/app/connectivity"
	"github.com/YelzhanWeb/menuapp/internal/interfaces"
)

type RouterConfig struct {
	Catalog    *CatalogHandler
	Orders     *OrderHandler
	Dashboards *DashboardHandler
	// Audit is nil when no audit store is configured.
	Audit   interfaces.AuditReader
	Store   connectivity.Pinger
	Metrics http.Handler
	Logger  logger.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(RecoveryMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg.Store))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Logger))

		cfg.Catalog.Routes(r)
		cfg.Orders.Routes(r)
		cfg.Dashboards.Routes(r)
		r.Get("/audit/{id}", auditHandler(cfg.Audit))
	})
	return r
}

func healthHandler(store connectivity.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func auditHandler(audit interfaces.AuditReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if audit == nil {
			respondError(w, http.StatusNotFound, "audit trail is not enabled", "")
			return
		}
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 500 {
				respondError(w, http.StatusBadRequest, "limit must be between 1 and 500", "")
				return
			}
			limit = n
		}
		records, err := audit.ListByEntity(r.Context(), id.String(), limit)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, records)
	}
}
