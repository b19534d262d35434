package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/benvon/smart-reminders/internal/config"
	"github.com/benvon/smart-reminders/internal/database"
	"github.com/benvon/smart-reminders/internal/logger"
	"github.com/benvon/smart-reminders/internal/queue"
	"github.com/benvon/smart-reminders/internal/services/notify"
	"github.com/benvon/smart-reminders/internal/telemetry"
	"github.com/benvon/smart-reminders/internal/timeutil"
	"github.com/benvon/smart-reminders/internal/workers"
)

const serviceName = "smart-reminders-worker"

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ValidateWorker(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	debugMode := cfg.DebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(serviceName, debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync(zapLogger) }()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("store_driver", cfg.StoreDriver),
		zap.String("timezone", cfg.Timezone),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Bool("queue_enabled", cfg.QueueEnabled()),
		zap.Bool("webhook_enabled", cfg.WebhookURL != ""),
	)

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Fatal("worker_failed", zap.Error(err))
	}
	zapLogger.Info("worker_exited")
}

func run(cfg *config.Config, zapLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Options{
		Enabled:     cfg.OTELEnabled,
		ServiceName: serviceName,
		Endpoint:    cfg.OTELEndpoint,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			zapLogger.Error("failed_to_shutdown_otel_tracer", zap.Error(err))
		}
	}()

	clock, err := timeutil.Load(cfg.Timezone)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.StoreOptions(), clock)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("failed_to_close_store", zap.Error(err))
		}
	}()
	reminders := database.NewReminderRepository(db)

	notifier, err := notify.New(cfg.WebhookURL, cfg.WebhookRatePerSecond, zapLogger)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	var dispatcher workers.Dispatcher
	if cfg.QueueEnabled() {
		jobQueue, err := queue.Connect(ctx, cfg.RabbitMQURL, zapLogger)
		if err != nil {
			return err
		}
		defer func() {
			if err := jobQueue.Close(); err != nil {
				zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
			}
		}()
		// consumers must drain before the connection closes
		defer wg.Wait()
		zapLogger.Info("connected_to_rabbitmq", zap.Int("prefetch", cfg.RabbitMQPrefetch))

		dispatcher = workers.NewQueueDispatcher(reminders, jobQueue, clock, zapLogger)
		consumer := workers.NewDeliveryConsumer(jobQueue, notifier, cfg.RabbitMQPrefetch, cfg.RetryBackoff, zapLogger)
		gc := queue.NewGarbageCollector(jobQueue, cfg.DLQGCInterval, cfg.DLQRetention, zapLogger)

		wg.Add(2)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("delivery_consumer_stopped", zap.Error(err))
				stop()
			}
		}()
		go func() {
			defer wg.Done()
			if err := gc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("dlq_garbage_collector_stopped_with_error", zap.Error(err))
			}
		}()
		zapLogger.Info("started_dlq_garbage_collector",
			zap.Duration("interval", cfg.DLQGCInterval),
			zap.Duration("retention", cfg.DLQRetention),
		)
	} else {
		dispatcher = workers.NewDirectDispatcher(reminders, notifier, clock, zapLogger)
	}

	scheduler := workers.NewScheduler(reminders, clock, dispatcher, cfg.PollInterval, zapLogger)
	if err := scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	zapLogger.Info("worker_shutting_down")
	return nil
}
