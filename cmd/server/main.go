// Command server runs the fraud monitor: the periodic transaction generator
// and the HTTP API, sharing one dataset file.
//
// Usage:
//
//	go run ./cmd/server [flags]
//
// Flags:
//
//	-c  JSON config file
//	-a  HTTP listen address (default: :8080; PORT env var wins)
//	-d  dataset file (default: public/dataset.json)
//	-r  fraud report file (default: public/fraudDetails.json)
//	-i  generator interval (default: 15s)
//	-n  group the same-day rule by calendar date
//	-s  generator random seed (default: time-based)
//	-l  log level (default: info)
//	-f  log format, text or json (default: text)
//	-w  webhook URL to register at startup, repeatable
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"sentinel/fraud-monitor/internal/alerts"
	"sentinel/fraud-monitor/internal/api"
	"sentinel/fraud-monitor/internal/config"
	"sentinel/fraud-monitor/internal/generator"
	"sentinel/fraud-monitor/internal/logging"
	"sentinel/fraud-monitor/internal/metrics"
	"sentinel/fraud-monitor/internal/report"
	"sentinel/fraud-monitor/internal/store"
	"sentinel/fraud-monitor/internal/webhook"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fraud-monitor: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:], os.Getenv)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		return err
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	rec := metrics.NewPrometheus("fraud_monitor", reg)

	// ── Wire dependencies ─────────────────────────────────────────────────────
	dataset := store.NewDataset(cfg.DatasetPath)
	reportFile := store.NewReportFile(cfg.ReportPath)

	hooks := webhook.NewRegistry()
	for _, wh := range cfg.Webhooks {
		if _, err := hooks.Register(wh.URL, wh.MinAccounts); err != nil {
			logger.Warn("startup webhook ignored", "url", wh.URL, "error", err)
		}
	}
	notifier := webhook.New(hooks, logger, rec, webhook.Options{})

	reports := report.NewService(reportFile, cfg.Thresholds, logger, notifier)

	engine := alerts.New(cfg.Thresholds, rec)
	engine.NormalizeFrequencyDates = cfg.NormalizeFrequencyDates

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gen := generator.New(dataset, reports, cfg.Thresholds, generator.Options{
		Interval: cfg.Interval,
		Rand:     rand.New(rand.NewSource(seed)),
		Logger:   logger,
		Metrics:  rec,
	})

	handler := api.NewHandler(api.Deps{
		Dataset:  dataset,
		Reports:  reportFile,
		Builder:  reports,
		Engine:   engine,
		Webhooks: hooks,
		Logger:   logger,
	})
	router := api.NewRouter(handler, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server listening",
			"addr", cfg.Addr,
			"dataset", dataset.Path(),
			"report", reportFile.Path(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return gen.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	notifier.Wait()
	if err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
