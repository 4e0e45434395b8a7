package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finance/internal/admission"
	"finance/internal/api"
	"finance/internal/config"
	"finance/internal/finance"
	"finance/internal/logger"
	"finance/internal/models"
	"finance/internal/observability"
	"finance/internal/resilience"
	"finance/internal/storage"
	"finance/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file")
	showVersion = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	ver := version.GetInfo()
	if *showVersion {
		fmt.Println(ver.String())
		return
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logging
	log, closer, err := logger.Setup(cfg.Logging, ver)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(log)

	// Initialize observability (OpenTelemetry)
	otelProvider, err := observability.Setup(cfg.Metrics, cfg.Observability, ver)
	if err != nil {
		slog.Error("Failed to initialize observability", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := otelProvider.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown observability", "error", err)
		}
	}()

	// Initialize storage
	storageInstance, err := storage.NewFactory().Create(cfg.Storage)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer storageInstance.Close()

	// Wrap storage with instrumentation if metrics are enabled
	activeStorage := storageInstance
	if cfg.Metrics.Enabled {
		instrumented, err := observability.NewInstrumentedStorage(storageInstance)
		if err != nil {
			slog.Error("Failed to create instrumented storage", "error", err)
			os.Exit(1)
		}
		activeStorage = instrumented
	}

	// Resilience executor protecting all storage access
	executor, err := resilience.NewExecutor(resilienceConfig(cfg.Resilience))
	if err != nil {
		slog.Error("Failed to create resilience executor", "error", err)
		os.Exit(1)
	}

	// Finance service and HTTP handlers
	service := finance.NewService(activeStorage, executor)
	probe := resilience.NewHealthProbe(activeStorage, executor.Breaker(), time.Second)
	handlers := api.NewHandlers(service, probe)

	// Setup routes with middleware
	routeOpts := []api.RouteOption{}
	if cfg.Observability.Tracing.Enabled {
		routeOpts = append(routeOpts, api.WithOTelMiddleware(cfg.Observability.ServiceName))
	}

	// Admission gate for per-client rate limiting
	if cfg.Security.RateLimit.Enabled {
		gate := admission.NewGate(admission.Config{
			Enabled:         true,
			Limit:           cfg.Security.RateLimit.RequestsPerWindow,
			Window:          cfg.Security.RateLimit.Window,
			CleanupInterval: cfg.Security.RateLimit.CleanupInterval,
		})
		defer gate.Close()

		routeOpts = append(routeOpts, api.WithRateLimiter(admission.Middleware(gate)))
	}

	router := api.SetupRoutes(handlers, routeOpts...)

	// Start metrics server if enabled
	var metricsServer *observability.MetricsServer
	if cfg.Metrics.Enabled {
		metricsServer = observability.NewMetricsServer(cfg.Metrics.Port, cfg.Metrics.Path, otelProvider)
		go func() {
			if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "addr", server.Addr)

		var err error
		if cfg.Server.TLSEnabled {
			if cfg.Server.TLSCertFile == "" || cfg.Server.TLSKeyFile == "" {
				slog.Error("TLS is enabled but cert file or key file is not specified")
				os.Exit(1)
			}
			slog.Info("Starting HTTPS server with TLS")
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			slog.Info("Starting HTTP server")
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")

	// Create a deadline to wait for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown metrics server
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			slog.Error("Metrics server forced to shutdown", "error", err)
		}
	}

	// Attempt graceful shutdown
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server shutdown complete")
}

// resilienceConfig maps the service configuration onto the executor's policy.
func resilienceConfig(rc models.ResilienceConfig) resilience.Config {
	return resilience.Config{
		FailureRateThreshold:      rc.FailureRateThreshold,
		SlidingWindowSize:         rc.SlidingWindowSize,
		MinimumNumberOfCalls:      rc.MinimumNumberOfCalls,
		WaitDurationInOpenState:   rc.WaitDurationInOpenState,
		PermittedCallsInHalfOpen:  rc.PermittedCallsInHalfOpen,
		SlowCallDurationThreshold: rc.SlowCallDurationThreshold,
		SlowCallRateThreshold:     rc.SlowCallRateThreshold,
		MaxRetryAttempts:          rc.MaxRetryAttempts,
		RetryBackoff:              rc.RetryBackoff,
		OperationTimeout:          rc.OperationTimeout,
		MaxConcurrentCalls:        rc.MaxConcurrentCalls,
	}
}
