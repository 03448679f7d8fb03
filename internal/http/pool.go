package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"dbpool/internal/dbpool"
	"dbpool/internal/repo"
)

type PoolHandler struct {
	DB    repo.Borrower
	Stats dbpool.StatsSource
	Log   logrus.FieldLogger
}

func (h *PoolHandler) PoolStats(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Stats.Stats())
}

func (h *PoolHandler) DBInfo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	si, err := repo.GetServerInfo(ctx, h.DB)
	switch {
	case err == nil:
	case errors.Is(err, dbpool.ErrAcquireTimeout), errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusServiceUnavailable, "no database connection available")
		return
	case errors.Is(err, dbpool.ErrConnectionCreation), errors.Is(err, dbpool.ErrPoolClosed):
		h.Log.WithError(err).Warn("db info: borrow failed")
		WriteError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	default:
		h.Log.WithError(err).Error("db info: query failed")
		WriteError(w, http.StatusInternalServerError, "query failed")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"now":      si.Now,
		"version":  si.Version,
		"database": si.Database,
		"user":     si.User,
		"pid":      si.PID,
	})
}
