package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"dbpool/internal/config"
	"dbpool/internal/dbpool"
	httpx "dbpool/internal/http"
	"dbpool/internal/postgres"
	"dbpool/internal/reaper"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config load failed")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	} else {
		log.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
	}

	open, err := postgres.NewOpener(cfg.PostgresDSN())
	if err != nil {
		log.WithError(err).Fatal("db config invalid")
	}

	pool, err := dbpool.New[*pgx.Conn](open, cfg.Pool(), dbpool.WithLogger(log))
	if err != nil {
		log.WithError(err).Fatal("pool setup failed")
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		dbpool.NewCollector(pool, nil),
	)

	// retire idle connections past their ttl
	r := reaper.New(pool, log)
	r.Interval = cfg.PoolReapInterval
	go r.Run(ctx)

	router := httpx.NewRouter(httpx.Deps{
		DB:      pool,
		Stats:   pool,
		Metrics: reg,
		Log:     log,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":          cfg.Addr(),
			"pool_max_size": cfg.PoolMaxSize,
			"pool_ttl":      cfg.PoolTTL,
		}).Info("dbpoold starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("listen error")
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("graceful shutdown failed")
	}

	log.Info("dbpoold stopped")
}
