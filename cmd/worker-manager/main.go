// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"leadauction-workers/internal/common/camunda"
	"leadauction-workers/internal/common/config"
	"leadauction-workers/internal/common/database"
	"leadauction-workers/internal/common/logger"
	"leadauction-workers/internal/common/metrics"
	"leadauction-workers/internal/common/observability"
	"leadauction-workers/internal/engine"
	"leadauction-workers/internal/engine/storage/postgres"
	"leadauction-workers/pkg/registry"

	// Application Workers (4)
	ea "leadauction-workers/internal/workers/application/expire-auctions"
	ga "leadauction-workers/internal/workers/application/get-application"
	rv "leadauction-workers/internal/workers/application/record-view"
	sa "leadauction-workers/internal/workers/application/submit-application"

	// Offer Workers (4)
	do "leadauction-workers/internal/workers/offer/decline-offer"
	rl "leadauction-workers/internal/workers/offer/reject-lead"
	se "leadauction-workers/internal/workers/offer/select-offer"
	so "leadauction-workers/internal/workers/offer/submit-offer"

	// Analytics Workers (1)
	la "leadauction-workers/internal/workers/analytics/lead-analytics"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zeebeClient := camundaClient.GetClient()
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		// Test the connection with context
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if err := database.RunMigrations(pg.DB, cfg.Database.Postgres.Database, cfg.Database.Postgres.MigrationsPath); err != nil {
		zapLog.Fatal("migrations failed", zap.Error(err))
	}
	zapLog.Info("Database schema up to date")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		// Test the connection
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		// Test the connection with context
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Build Auction Engine ---
	store := postgres.New(pg.DB)
	eng := engine.New(
		engine.Config{
			WindowDuration: cfg.Auction.WindowDuration(),
			OfferTTL:       cfg.Auction.OfferTTL(),
			ViewCacheTTL:   cfg.Auction.ViewCacheTTL(),
		},
		engine.Stores{
			Applications: store,
			Offers:       store,
			Views:        store,
			Rejections:   store,
			Audit:        store,
		},
		esClient.Client, redis.Client, log,
	)
	zapLog.Info("Auction engine initialized",
		zap.Duration("windowDuration", cfg.Auction.WindowDuration()),
	)

	// --- Activity Registry ---
	if reg, err := registry.LoadRegistry(cfg.Registry.Path); err != nil {
		zapLog.Warn("activity registry unavailable", zap.Error(err), zap.String("path", cfg.Registry.Path))
	} else {
		zapLog.Info("activity registry loaded",
			zap.String("version", reg.Version),
			zap.Int("activities", len(reg.Activities)),
		)
	}

	// --- START: Register ALL 9 Workers ---

	// --- 1. Application Workers (4) ---
	if wcfg := config.GetWorkerConfig(cfg, sa.TaskType); wcfg.Enabled {
		handler := sa.NewHandler(
			&sa.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			eng, log,
		)
		startWorker(zeebeClient, sa.TaskType, wcfg, handler.Handle, zapLog)
	}

	if wcfg := config.GetWorkerConfig(cfg, rv.TaskType); wcfg.Enabled {
		handler := rv.NewHandler(
			&rv.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			eng, log,
		)
		startWorker(zeebeClient, rv.TaskType, wcfg, handler.Handle, zapLog)
	}

	if wcfg := config.GetWorkerConfig(cfg, ga.TaskType); wcfg.Enabled {
		handler := ga.NewHandler(
			&ga.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			eng, log,
		)
		startWorker(zeebeClient, ga.TaskType, wcfg, handler.Handle, zapLog)
	}

	if wcfg := config.GetWorkerConfig(cfg, ea.TaskType); wcfg.Enabled {
		handler := ea.NewHandler(
			&ea.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			eng, log,
		)
		startWorker(zeebeClient, ea.TaskType, wcfg, handler.Handle, zapLog)
	}

	// --- 2. Offer Workers (4) ---
	if wcfg := config.GetWorkerConfig(cfg, so.TaskType); wcfg.Enabled {
		handler := so.NewHandler(
			&so.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			eng, log,
		)
		startWorker(zeebeClient, so.TaskType, wcfg, handler.Handle, zapLog)
	}

	if wcfg := config.GetWorkerConfig(cfg, se.TaskType); wcfg.Enabled {
		handler := se.NewHandler(
			&se.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			eng, log,
		)
		startWorker(zeebeClient, se.TaskType, wcfg, handler.Handle, zapLog)
	}

	if wcfg := config.GetWorkerConfig(cfg, do.TaskType); wcfg.Enabled {
		handler := do.NewHandler(
			&do.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			eng, log,
		)
		startWorker(zeebeClient, do.TaskType, wcfg, handler.Handle, zapLog)
	}

	if wcfg := config.GetWorkerConfig(cfg, rl.TaskType); wcfg.Enabled {
		handler := rl.NewHandler(
			&rl.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			eng, log,
		)
		startWorker(zeebeClient, rl.TaskType, wcfg, handler.Handle, zapLog)
	}

	// --- 3. Analytics Workers (1) ---
	if wcfg := config.GetWorkerConfig(cfg, la.TaskType); wcfg.Enabled {
		handler := la.NewHandler(
			&la.Config{Timeout: config.GetDuration(wcfg.Timeout)},
			eng, log,
		)
		startWorker(zeebeClient, la.TaskType, wcfg, handler.Handle, zapLog)
	}

	zapLog.Info("All 9 workers registered successfully")

	// --- Expiry Sweep Schedule ---
	sweeper := cron.New()
	_, err = sweeper.AddFunc(cfg.Auction.SweepSchedule, func() {
		expired, err := eng.SweepExpired(context.Background())
		if err != nil {
			zapLog.Error("expiry sweep failed", zap.Error(err))
			return
		}
		if expired > 0 {
			metrics.AuctionsExpiredBySweep.Add(float64(expired))
			zapLog.Info("expiry sweep", zap.Int("expired", expired))
		}
	})
	if err != nil {
		zapLog.Fatal("invalid sweep schedule", zap.Error(err), zap.String("schedule", cfg.Auction.SweepSchedule))
	}
	sweeper.Start()
	defer sweeper.Stop()
	zapLog.Info("Expiry sweep scheduled", zap.String("schedule", cfg.Auction.SweepSchedule))

	// --- Health & Metrics Server ---
	if cfg.Metrics.Enabled {
		go func() {
			http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "healthy",
					"time":   time.Now().Format(time.RFC3339),
				})
			})
			http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				if err := pg.Ping(r.Context()); err != nil {
					w.WriteHeader(http.StatusServiceUnavailable)
					json.NewEncoder(w).Encode(map[string]string{
						"status": "not ready",
						"error":  err.Error(),
					})
					return
				}
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "ready",
					"time":   time.Now().Format(time.RFC3339),
				})
			})
			http.Handle("/metrics", promhttp.Handler())
			zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
			if err := http.ListenAndServe(cfg.Metrics.Address, nil); err != nil {
				zapLog.Error("Health/Metrics server failed", zap.Error(err))
			}
		}()
	}

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func startWorker(client zbc.Client, taskType string, wcfg config.WorkerConfig, handlerFunc func(worker.JobClient, entities.Job), log *zap.Logger) {
	client.NewJobWorker().
		JobType(taskType).
		Handler(handlerFunc).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}
