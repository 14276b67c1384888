// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pathfinder-workers/internal/api"
	"pathfinder-workers/internal/common/aws"
	"pathfinder-workers/internal/common/camunda"
	"pathfinder-workers/internal/common/config"
	"pathfinder-workers/internal/common/database"
	"pathfinder-workers/internal/common/logger"
	"pathfinder-workers/internal/common/observability"
	"pathfinder-workers/internal/service/planner"
	"pathfinder-workers/internal/store"

	// Matching Workers (2)
	cfs "pathfinder-workers/internal/workers/matching/calculate-fit-score"
	ru "pathfinder-workers/internal/workers/matching/rank-universities"

	// Planning Workers (3)
	bap "pathfinder-workers/internal/workers/planning/build-application-plan"
	su "pathfinder-workers/internal/workers/planning/shortlist-university"
	uap "pathfinder-workers/internal/workers/planning/update-application-progress"

	// Notification Workers (1)
	sdr "pathfinder-workers/internal/workers/notifications/send-deadline-reminder"
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
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
			RetryConfig:            camunda.DefaultRetryConfig,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.Migrate(ctx); err != nil {
		zapLog.Fatal("postgres migration failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	universityIndex := cfg.Database.Elasticsearch.UniversityIndex
	if err := esClient.EnsureIndex(ctx, universityIndex, database.UniversityMapping); err != nil {
		zapLog.Fatal("elasticsearch index setup failed", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully", zap.String("index", universityIndex))

	// --- Init Redis with retry ---
	redis := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Stores and planning service ---
	students := store.NewStudentStore(pg.DB, redis.Client, cfg.Planner.ProfileCacheDuration(), log)
	universities := store.NewUniversityStore(esClient.Client, universityIndex)
	progress := store.NewProgressStore(pg.DB, log)
	accounts := store.NewAccountStore(pg.DB)
	plans := planner.New(cfg.Planner, students, universities, progress, accounts, log)

	// Disabled channels must stay untyped nil so the reminder worker sees them as absent.
	var mailer sdr.Mailer
	var texter sdr.Texter
	if cfg.Notifications.Email.Enabled {
		m, err := aws.NewSESMailer(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.Email.FromEmail)
		if err != nil {
			zapLog.Fatal("ses mailer init failed", zap.Error(err))
		}
		mailer = m
	}
	if cfg.Notifications.SMS.Enabled {
		t, err := aws.NewSNSTexter(ctx, cfg.Notifications.AWS.Region, cfg.Notifications.SMS.SenderID)
		if err != nil {
			zapLog.Fatal("sns texter init failed", zap.Error(err))
		}
		texter = t
	}

	zapLog.Info("All external service clients initialized")

	// --- Workers ---
	registry := camunda.NewRegistry(zeebe.GetClient(), obs, log)

	registry.Register(cfs.TaskType, config.GetWorkerConfig(cfg, cfs.TaskType),
		cfs.NewHandler(cfs.LoadConfig(config.GetWorkerConfig(cfg, cfs.TaskType)), plans, log))

	registry.Register(ru.TaskType, config.GetWorkerConfig(cfg, ru.TaskType),
		ru.NewHandler(ru.LoadConfig(config.GetWorkerConfig(cfg, ru.TaskType)), plans, log))

	registry.Register(bap.TaskType, config.GetWorkerConfig(cfg, bap.TaskType),
		bap.NewHandler(bap.LoadConfig(config.GetWorkerConfig(cfg, bap.TaskType)), plans, log))

	registry.Register(su.TaskType, config.GetWorkerConfig(cfg, su.TaskType),
		su.NewHandler(su.LoadConfig(config.GetWorkerConfig(cfg, su.TaskType)), plans, log))

	registry.Register(uap.TaskType, config.GetWorkerConfig(cfg, uap.TaskType),
		uap.NewHandler(uap.LoadConfig(config.GetWorkerConfig(cfg, uap.TaskType)), plans, log))

	registry.Register(sdr.TaskType, config.GetWorkerConfig(cfg, sdr.TaskType),
		sdr.NewHandler(
			sdr.LoadConfig(config.GetWorkerConfig(cfg, sdr.TaskType), cfg.Notifications),
			plans, students, mailer, texter, log,
		))

	zapLog.Info("Workers registered", zap.Int("count", registry.Count()))

	// --- HTTP API ---
	apiServer := api.NewServer(cfg.HTTP, plans, log)
	go func() {
		if err := apiServer.Listen(cfg.HTTP.Address); err != nil {
			zapLog.Error("API server failed", zap.Error(err))
		}
	}()

	// --- Health/Metrics server ---
	ops := &http.Server{
		Addr:              cfg.HTTP.OpsAddress,
		Handler:           opsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", ops.Addr))
		if err := ops.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	registry.Close()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping API server", zap.Error(err))
	}
	if err := ops.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func opsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
