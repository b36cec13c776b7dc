package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"freshservice-items-exporter/internal/config"
	"freshservice-items-exporter/internal/freshservice"
	"freshservice-items-exporter/internal/job"
	"freshservice-items-exporter/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		envFile    string
		viewID     string
		output     string
		once       bool
	)
	flagSet := pflag.NewFlagSet("freshservice-items-exporter", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config file")
	flagSet.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flagSet.StringVar(&viewID, "view", "", "Freshservice view id (overrides config and environment)")
	flagSet.StringVarP(&output, "output", "o", "", "CSV file to write (overrides config)")
	flagSet.BoolVar(&once, "once", false, "run a single export even if schedule.interval is set")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	// Load config
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}
	cfg, err := config.Load(configPath, flagSet.Changed("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	config.ApplyEnv(&cfg, os.LookupEnv)
	if viewID != "" {
		cfg.Freshservice.ViewID = viewID
	}
	if output != "" {
		cfg.Export.Output = output
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	timeout, err := cfg.Timeout()
	if err != nil {
		return err
	}
	interval, err := cfg.Interval()
	if err != nil {
		return err
	}

	reg, collectors := metrics.NewRegistry()

	client := freshservice.NewClient(cfg.Freshservice.TicketsURL, cfg.Freshservice.Token, timeout)
	client.Logger = logger
	client.Observer = collectors

	j := &job.Job{
		Enricher: freshservice.NewEnricher(client, cfg.Freshservice.Concurrency, cfg.Freshservice.MaxPages, logger),
		ViewID:   cfg.Freshservice.ViewID,
		Policy:   cfg.EmptyPolicy(),
		Output:   cfg.Export.Output,
		Recorder: collectors,
		Logger:   logger,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if once || interval == 0 {
		n, err := j.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Println(n)
		if cfg.Metrics.Textfile != "" {
			if err := metrics.WriteTextfile(cfg.Metrics.Textfile, reg); err != nil {
				return fmt.Errorf("write metrics: %w", err)
			}
		}
		return nil
	}

	return serve(ctx, j, interval, cfg.Metrics.Listen, reg, logger)
}

// serve runs the export every interval and exposes /metrics until ctx ends.
// A failed run is logged and retried on the next tick.
func serve(ctx context.Context, j *job.Job, interval time.Duration, listen string, g prometheus.Gatherer, logger *logrus.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(g))
	srv := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() {
		logger.WithField("addr", listen).Info("Exporter serving /metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// Periodic fetcher
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := j.Run(ctx); err != nil {
			logger.WithError(err).Error("Export failed")
		}
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errc:
			return fmt.Errorf("metrics server: %w", err)
		case <-ticker.C:
		}
	}
}

func newLogger(level, format string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	logger.SetLevel(lvl)
	switch strings.ToLower(format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("log.format: unknown format %q", format)
	}
	return logger, nil
}
