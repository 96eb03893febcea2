package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"bilancio/internal/amqp"
	"bilancio/internal/backend"
	"bilancio/internal/config"
	apphttp "bilancio/internal/http"
	"bilancio/internal/ledger"
	"bilancio/internal/llm/gemini"
	applog "bilancio/internal/log"
	"bilancio/internal/orchestrator"
	"bilancio/internal/services"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", applog.FieldError, err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The estimation service credential is process-wide; a missing key
	// already failed config validation above.
	estimator, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel,
		logger.WithComponent(applog.ComponentLLM))
	if err != nil {
		logger.Error("Failed to initialize estimation client", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := estimator.Close(); err != nil {
			logger.Error("Failed to close estimation client", applog.FieldError, err.Error())
		}
	}()
	logger.Info("Initialized estimation client", applog.FieldModel, estimator.Model())

	factory := backend.NewFactory(logger.Logger)
	result, err := factory.Create(backend.Config{
		Type:         backend.Type(cfg.HistoryBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
	})
	if err != nil {
		logger.Error("Failed to initialize history backend", applog.FieldError, err.Error())
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("History backend cleanup failed", applog.FieldError, err.Error())
			}
		}()
	}

	// AMQP is optional; the service runs without event publishing.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events",
				applog.FieldError, err.Error())
		} else {
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	l := ledger.New()
	orch := orchestrator.New(estimator, l, logger.WithComponent(applog.ComponentOrchestrator))
	service := services.NewEstimateService(orch, result.Store, amqpClient)

	srv := apphttp.NewServer(":"+cfg.Port, service, l, apphttp.Options{
		RequestTimeout:  cfg.RequestTimeout,
		HistoryCacheTTL: cfg.HistoryCacheTTL,
		HistoryLimit:    cfg.HistoryLimit,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.RequestTimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting bilancio server",
			"port", cfg.Port,
			"history_backend", cfg.HistoryBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		srv.Stop()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err.Error())
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
