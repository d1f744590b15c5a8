// Package main is the entry point for the zbworker example binary: a
// standalone host process that dials a gateway, registers one
// demonstration task, and serves Prometheus metrics until signalled to
// stop.
//
// Startup sequence:
//  1. Parse CLI flags / environment variables / optional YAML config file
//  2. Build logger
//  3. Dial the gateway
//  4. Build the metrics sink and serve /metrics
//  5. Build the worker, register tasks
//  6. Call Work and block until SIGINT/SIGTERM
//  7. Graceful shutdown, falling back to a forced stop past the grace period
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arkflow-dev/gozeebe/gateway"
	"github.com/arkflow-dev/gozeebe/job"
	"github.com/arkflow-dev/gozeebe/metrics"
	"github.com/arkflow-dev/gozeebe/worker"
)

var (
	version = "dev"
	commit  = "none"
)

type config struct {
	gatewayAddr    string
	workerName     string
	logLevel       string
	metricsAddr    string
	configPath     string
	requestTimeout time.Duration
	tenantIDs      []string
	shutdownGrace  time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config{}

	root := &cobra.Command{
		Use:   "zbworker",
		Short: "zbworker — example job-worker host for a workflow gateway",
		Long: `zbworker dials a workflow gateway, registers a demonstration task,
and serves Prometheus metrics until SIGINT/SIGTERM triggers a graceful
shutdown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, cfg)
		},
	}

	root.AddCommand(newVersionCmd())

	root.PersistentFlags().StringVar(&cfg.gatewayAddr, "gateway-addr", envOrDefault("ZBWORKER_GATEWAY_ADDR", "localhost:26500"), "Gateway gRPC address (host:port)")
	root.PersistentFlags().StringVar(&cfg.workerName, "worker-name", envOrDefault("ZBWORKER_NAME", "zbworker"), "Worker name reported on every activation request")
	root.PersistentFlags().StringVar(&cfg.logLevel, "log-level", envOrDefault("ZBWORKER_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&cfg.metricsAddr, "metrics-addr", envOrDefault("ZBWORKER_METRICS_ADDR", ":9091"), "Address to serve Prometheus metrics on (empty disables)")
	root.PersistentFlags().StringVar(&cfg.configPath, "config", envOrDefault("ZBWORKER_CONFIG", ""), "Optional YAML config file; flags and env vars still take precedence")
	root.PersistentFlags().DurationVar(&cfg.requestTimeout, "request-timeout", worker.DefaultRequestTimeout, "Long-poll request timeout per activation round")
	root.PersistentFlags().StringSliceVar(&cfg.tenantIDs, "tenant-id", nil, "Tenant id to scope activation requests to (repeatable)")
	root.PersistentFlags().DurationVar(&cfg.shutdownGrace, "shutdown-grace", 30*time.Second, "How long to wait for in-flight jobs to finish before forcing shutdown")

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("zbworker %s (commit: %s)\n", version, commit)
		},
	}
}

func run(ctx context.Context, cmd *cobra.Command, cfg *config) error {
	fc, err := loadFileConfig(cfg.configPath)
	if err != nil {
		return err
	}
	applyFileConfig(cmd, cfg, fc)

	logger, err := buildLogger(cfg.logLevel)
	if err != nil {
		return fmt.Errorf("zbworker: build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting zbworker",
		zap.String("version", version),
		zap.String("gateway_addr", cfg.gatewayAddr),
		zap.String("worker_name", cfg.workerName),
	)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	gw, err := gateway.Dial(gateway.Config{Address: cfg.gatewayAddr, MaxConnectionRetries: -1}, logger)
	if err != nil {
		return fmt.Errorf("zbworker: dial gateway: %w", err)
	}
	defer gw.Close()

	registry := prometheus.NewRegistry()
	sink := metrics.NewPrometheusSink(registry)
	stopMetrics := serveMetrics(cfg.metricsAddr, registry, logger)
	defer stopMetrics()

	w := worker.New(gw, cfg.workerName, logger,
		worker.WithRequestTimeout(cfg.requestTimeout),
		worker.WithTenantIDs(cfg.tenantIDs...),
		worker.WithMetrics(sink),
	)

	if err := registerDemoTask(w); err != nil {
		return fmt.Errorf("zbworker: register task: %w", err)
	}

	workErr := make(chan error, 1)
	go func() { workErr <- w.Work(ctx) }()

	<-ctx.Done()
	logger.Info("shutdown signal received, draining in-flight jobs",
		zap.Duration("grace_period", cfg.shutdownGrace),
	)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.shutdownGrace)
	defer stopCancel()
	if err := w.Stop(stopCtx); err != nil {
		logger.Error("worker stop reported errors", zap.Error(err))
	}

	if err := <-workErr; err != nil {
		logger.Error("worker exited with error", zap.Error(err))
		return err
	}
	logger.Info("zbworker stopped")
	return nil
}

// greetInput is the demonstration task's handler input: every exported
// field becomes an entry in variables_to_fetch via reflection.
type greetInput struct {
	Name string `json:"name"`
}

type greetOutput struct {
	Greeting string `json:"greeting"`
}

func registerDemoTask(w *worker.Worker) error {
	_, err := worker.Task(w, "say-hello", func(ctx context.Context, j *job.Job, v greetInput) (greetOutput, error) {
		return greetOutput{Greeting: "hello, " + v.Name}, nil
	})
	return err
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) func() {
	if addr == "" {
		return func() {}
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped unexpectedly", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// applyFileConfig overlays fc onto cfg, but only for flags the user
// didn't explicitly set on the command line or via its environment
// variable default — an explicit --gateway-addr (or ZBWORKER_GATEWAY_ADDR)
// always wins over the config file.
func applyFileConfig(cmd *cobra.Command, cfg *config, fc fileConfig) {
	envFor := map[string]string{
		"gateway-addr": "ZBWORKER_GATEWAY_ADDR",
		"worker-name":  "ZBWORKER_NAME",
		"log-level":    "ZBWORKER_LOG_LEVEL",
		"metrics-addr": "ZBWORKER_METRICS_ADDR",
	}
	changed := func(name string) bool {
		return cmd.Flags().Changed(name) || (envFor[name] != "" && os.Getenv(envFor[name]) != "")
	}

	if fc.GatewayAddr != "" && !changed("gateway-addr") {
		cfg.gatewayAddr = fc.GatewayAddr
	}
	if fc.WorkerName != "" && !changed("worker-name") {
		cfg.workerName = fc.WorkerName
	}
	if fc.LogLevel != "" && !changed("log-level") {
		cfg.logLevel = fc.LogLevel
	}
	if fc.MetricsAddr != "" && !changed("metrics-addr") {
		cfg.metricsAddr = fc.MetricsAddr
	}
	if fc.RequestTimeout != 0 && !changed("request-timeout") {
		cfg.requestTimeout = fc.RequestTimeout
	}
	if len(fc.TenantIDs) > 0 && !changed("tenant-id") {
		cfg.tenantIDs = fc.TenantIDs
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	var zcfg zap.Config

	switch level {
	case "debug":
		zcfg = zap.NewDevelopmentConfig()
	default:
		zcfg = zap.NewProductionConfig()
	}

	switch level {
	case "debug":
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		zcfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zcfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return zcfg.Build()
}
