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

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/yourusername/fabriq-ai-query/config"
	"github.com/yourusername/fabriq-ai-query/internal/app"
	"github.com/yourusername/fabriq-ai-query/internal/classifier"
	"github.com/yourusername/fabriq-ai-query/internal/executor"
	"github.com/yourusername/fabriq-ai-query/internal/llm"
	"github.com/yourusername/fabriq-ai-query/internal/logger"
	"github.com/yourusername/fabriq-ai-query/internal/planner"
	"github.com/yourusername/fabriq-ai-query/internal/querylang"
	"github.com/yourusername/fabriq-ai-query/internal/roleclass"
	"github.com/yourusername/fabriq-ai-query/internal/schema"
	"github.com/yourusername/fabriq-ai-query/internal/synthesizer"
)

var version = "1.0.0"

func main() {
	// .env carries OPENAI_API_KEY and MONGO_CONNECTION_STRING in development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		color.Red("❌ Failed to load configuration: %v", err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.EnableLog, cfg.Logging.LogDir)
	if err != nil {
		color.Red("❌ Failed to initialize logger: %v", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	fmt.Printf("🤖 %s v%s\n", cfg.App.Name, version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, closeMongo, err := connectMongo(ctx, cfg, zapLogger)
	if err != nil {
		color.Red("❌ Failed to connect to MongoDB: %v", err)
		os.Exit(1)
	}
	defer closeMongo()

	pipeline := buildPipeline(cfg, db, zapLogger)

	requestTimeout := config.Duration(cfg.Server.RequestTimeout, 90*time.Second)
	router := app.NewRouter(pipeline, requestTimeout, zapLogger)
	server := &http.Server{Addr: cfg.Server.Addr, Handler: router}

	go func() {
		zapLogger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()
	color.Green("✅ Ready on %s", cfg.Server.Addr)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	<-signalCh

	fmt.Println("\n👋 Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		config.Duration(cfg.Server.ShutdownTimeout, 10*time.Second))
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("shutdown was not clean", zap.Error(err))
	}
}

// connectMongo opens the read-only store connection the executor borrows.
// Lifecycle stays here; the pipeline never opens or closes it.
func connectMongo(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) (*mongo.Database, func(), error) {
	if cfg.Mongo.URI == "" {
		return nil, nil, fmt.Errorf("MONGO_CONNECTION_STRING is not set")
	}

	connectCtx, cancel := context.WithTimeout(ctx, config.Duration(cfg.Mongo.Timeout, 15*time.Second))
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	zapLogger.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			zapLogger.Warn("mongo disconnect failed", zap.Error(err))
		}
	}
	return client.Database(cfg.Mongo.Database), closeFn, nil
}

// buildPipeline wires every stage. A missing API key leaves the LLM client
// nil: planning falls back to heuristics and the enrichment passes are
// skipped, but the service still works.
func buildPipeline(cfg *config.Config, db *mongo.Database, zapLogger *zap.Logger) *app.Pipeline {
	descriptor := schema.Default()

	var client llm.Client
	openaiClient, err := llm.NewOpenAIClient(llm.OpenAIConfig{
		APIKey:    cfg.AI.APIKey,
		MaxTokens: cfg.AI.MaxTokens,
	})
	if err != nil {
		zapLogger.Warn("LLM backend not configured, heuristic planning only", zap.Error(err))
	} else {
		client = openaiClient
	}

	callOptions := llm.CallOptions{
		Models:         cfg.AI.Models,
		Attempts:       cfg.AI.RetryAttempts,
		InitialBackoff: config.Duration(cfg.AI.InitialBackoff, 250*time.Millisecond),
		Timeout:        config.Duration(cfg.AI.CallTimeout, 30*time.Second),
	}

	enrichClient := client
	if !cfg.AI.EnrichAnswers {
		enrichClient = nil
	}

	return app.NewPipeline(
		classifier.New(),
		planner.New(client, descriptor, callOptions, zapLogger),
		querylang.NewParser(descriptor),
		executor.New(db, zapLogger),
		synthesizer.New(enrichClient, callOptions, zapLogger),
		roleclass.New(enrichClient, callOptions, descriptor, zapLogger),
		zapLogger,
	)
}
