package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/carebook/appointment-scheduling/internal/config"
	"github.com/carebook/appointment-scheduling/internal/db"
	"github.com/carebook/appointment-scheduling/internal/directory"
	"github.com/carebook/appointment-scheduling/internal/redisclient"
	"github.com/carebook/appointment-scheduling/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("config load error")
	}

	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "report-worker").Logger()
	log.Info().Str("env", cfg.Env).Dur("interval", cfg.ReportInterval).Msg("starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg)
	cancelPg()
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	log.Info().Msg("connected to Postgres")

	rdb, err := redisclient.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Warn().Err(err).Msg("error closing redis")
		}
	}()
	log.Info().Msg("connected to Redis")

	svc, err := report.NewService(report.NewPgRepository(pgPool), directory.NewRedisDirectory(rdb), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("report service init error")
	}

	// Run once at startup
	runOnce(rootCtx, svc, log)

	ticker := time.NewTicker(cfg.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Info().Msg("shutdown signal received, stopping report worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc, log)
		}
	}
}

func runOnce(ctx context.Context, svc *report.Service, log zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	start := time.Now()
	if err := svc.GenerateCurrentMonth(runCtx); err != nil {
		log.Error().Err(err).Msg("report run error")
		return
	}
	log.Info().Dur("took", time.Since(start)).Msg("report run complete")
}
