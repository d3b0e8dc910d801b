package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/forecast-averages-service/internal/config"
	httphandler "github.com/kjstillabower/forecast-averages-service/internal/http"
	"github.com/kjstillabower/forecast-averages-service/internal/lifecycle"
	"github.com/kjstillabower/forecast-averages-service/internal/observability"
	"github.com/kjstillabower/forecast-averages-service/internal/service"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	forecastService := service.NewForecastService(cfg.RequestMaxEntries, time.Now)

	handler := httphandler.NewHandler(forecastService, healthConfigFrom(cfg, time.Now()), logger)

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	observability.RegisterTrafficGauges(cfg.OverloadWindow)

	if cfg.TestingMode {
		logger.Warn("Testing mode enabled; /test endpoint exposed")
	}
	router := httphandler.NewRouter(handler, httphandler.RouterOptions{
		Logger:       logger,
		RateLimiter:  limiter,
		MaxBodyBytes: cfg.RequestMaxBodyBytes,
		TestingMode:  cfg.TestingMode,
	})

	srv := newServer(cfg, router)

	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.Int("max_entries", cfg.RequestMaxEntries),
			zap.Int("rate_limit_rps", cfg.RateLimitRPS))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()
	readyTimer := lifecycle.MarkReadyAfter(cfg.ReadyDelay)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	if readyTimer != nil {
		readyTimer.Stop()
	}
	lifecycle.SetShuttingDown(true)

	inFlight := httphandler.InFlightCount()
	observability.RecordShutdownInFlight(inFlight)
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	logger.Info("shutdown complete")
	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry flush: %v\n", err)
	}
}

// healthConfigFrom maps lifecycle thresholds from cfg for the health handler.
func healthConfigFrom(cfg *config.Config, start time.Time) *httphandler.HealthConfig {
	return &httphandler.HealthConfig{
		OverloadWindow:         cfg.OverloadWindow,
		OverloadThresholdPct:   cfg.OverloadThresholdPct,
		RateLimitRPS:           cfg.RateLimitRPS,
		RateLimitBurst:         cfg.RateLimitBurst,
		DegradedWindow:         cfg.DegradedWindow,
		DegradedErrorPct:       cfg.DegradedErrorPct,
		IdleWindow:             cfg.IdleWindow,
		IdleThresholdReqPerMin: cfg.IdleThresholdReqPerMin,
		MinimumLifespan:        cfg.MinimumLifespan,
		StartTime:              start,
	}
}

func newServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: cfg.RequestTimeout,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout,
	}
}
