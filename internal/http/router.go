package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"dbpool/internal/dbpool"
	"dbpool/internal/repo"
)

type Deps struct {
	DB      repo.Borrower
	Stats   dbpool.StatsSource
	Metrics prometheus.Gatherer
	Log     logrus.FieldLogger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// middleware (keep it sane)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(d.Log))

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := repo.Ping(ctx, d.DB); err != nil {
			WriteError(w, http.StatusServiceUnavailable, "db not ready")
			return
		}

		WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		h := &PoolHandler{DB: d.DB, Stats: d.Stats, Log: d.Log}
		r.Get("/pool/stats", h.PoolStats)
		r.Get("/db/info", h.DBInfo)
	})
	return r
}
