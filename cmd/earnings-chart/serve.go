package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"EarningsChart/internal/scheduler"
	"EarningsChart/internal/server"
)

var warmOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background jobs",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&warmOnStart, "warm", os.Getenv("RUN_ON_START") == "true",
		"Refresh the watchlist cache immediately on start")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.NewScheduler(ctx, a.collector, a.recorder, a.metrics,
		cfg.Schedule.Watchlist, cfg.Database.Retention)
	if err := sched.RegisterAll(cfg.Schedule.WarmCron, cfg.Schedule.PruneCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if warmOnStart {
		go sched.RunWarmNow()
	}

	srv := server.New(server.Options{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
		StaticDir:      cfg.Server.StaticDir,
	}, a.service, a.collector, a.metrics)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return errors.New("http server stopped unexpectedly")
	case <-ctx.Done():
	}

	log.Info().Msg("shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	log.Info().Msg("earnings-chart stopped")
	return nil
}
