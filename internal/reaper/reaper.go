package reaper

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Retirer closes idle connections that outlived their TTL.
// *dbpool.Pool implements it.
type Retirer interface {
	RetireExpired() int
}

// Reaper periodically retires expired idle connections so they are closed
// even when nothing borrows from the pool.
type Reaper struct {
	Pool Retirer
	Log  logrus.FieldLogger

	Interval time.Duration
}

func New(pool Retirer, log logrus.FieldLogger) *Reaper {
	return &Reaper{
		Pool:     pool,
		Log:      log.WithField("component", "reaper"),
		Interval: 30 * time.Second,
	}
}

// Run blocks until ctx is done. A non-positive Interval disables reaping.
func (r *Reaper) Run(ctx context.Context) {
	if r.Interval <= 0 {
		r.Log.Info("reaper disabled")
		return
	}

	t := time.NewTicker(r.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.RunOnce()
		}
	}
}

func (r *Reaper) RunOnce() int {
	n := r.Pool.RetireExpired()
	if n > 0 {
		r.Log.WithField("retired", n).Info("retired expired connections")
	}
	return n
}
