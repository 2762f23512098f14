// cmd/assistant/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"taskboard-assistant/internal/api"
	"taskboard-assistant/internal/assistant/convctx"
	"taskboard-assistant/internal/assistant/extract"
	"taskboard-assistant/internal/assistant/intent"
	"taskboard-assistant/internal/assistant/orchestrator"
	"taskboard-assistant/internal/assistant/queryplan"
	"taskboard-assistant/internal/assistant/respond"
	"taskboard-assistant/internal/assistant/semantic"
	"taskboard-assistant/internal/common/config"
	"taskboard-assistant/internal/common/database"
	"taskboard-assistant/internal/common/logger"
	"taskboard-assistant/internal/common/observability"
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
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting taskboard assistant...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

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
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Load known employee names ---
	extractor := extract.New(nil, nil)
	names, err := loadEmployeeNames(ctx, pg)
	if err != nil {
		zapLog.Warn("employee name load failed, extraction starts without names", zap.Error(err))
	} else {
		extractor.SetKnownNames(names)
		zapLog.Info("employee names loaded", zap.Int("count", len(names)))
	}

	// --- Build semantic index (non-fatal: the retriever fails closed) ---
	embedder := semantic.NewHTTPEmbedder(
		cfg.APIs.Embedding.BaseURL,
		cfg.APIs.Embedding.Model,
		time.Duration(cfg.APIs.Embedding.Timeout)*time.Millisecond,
	)
	index := semantic.NewIndex()
	loader := semantic.NewLoader(pg.DB, embedder, index, log)
	if err := loader.Build(ctx); err != nil {
		zapLog.Warn("semantic index build failed, fallback disabled until rebuild", zap.Error(err))
	}

	// --- Assemble the pipeline ---
	classifier := intent.NewClassifier(&intent.Config{
		GenAIBaseURL: cfg.APIs.GenAI.BaseURL,
		APIKey:       cfg.APIs.GenAI.APIKey,
		Timeout:      time.Duration(cfg.APIs.GenAI.Timeout) * time.Millisecond,
		MaxRetries:   cfg.APIs.GenAI.MaxRetries,
	}, log)

	ctxStore := convctx.NewStore(
		rdb.Client,
		time.Duration(cfg.Assistant.ContextTTL)*time.Second,
		cfg.Assistant.MaxContextIDs,
		log,
	)

	builder := queryplan.NewBuilder(nil)
	executor := queryplan.NewExecutor(
		pg.DB,
		time.Duration(cfg.Assistant.QueryTimeout)*time.Millisecond,
		log,
	)

	retriever := semantic.NewRetriever(
		embedder, index,
		cfg.Assistant.TopK,
		cfg.Assistant.SimilarityThreshold,
		log,
	)

	formatter := respond.NewFormatter(cfg.Assistant.DisplayCap, nil)
	audit := orchestrator.NewElasticsearchAudit(esClient.Client, cfg.Database.Elasticsearch.AuditIndex, log)

	pipeline := orchestrator.New(
		extractor, classifier, ctxStore,
		builder, executor, retriever,
		formatter, audit, log,
	)

	// --- HTTP server ---
	server := api.NewServer(pipeline, log)
	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Millisecond,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}

	zapLog.Info("Assistant stopped gracefully")
}

func loadEmployeeNames(ctx context.Context, pg *database.PostgresClient) ([]string, error) {
	rows, err := pg.DB.QueryContext(ctx, "SELECT name FROM employees ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
