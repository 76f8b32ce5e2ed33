package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/KuperOK/Translate-AI-helper/api"
	"github.com/KuperOK/Translate-AI-helper/api/handler"
	"github.com/KuperOK/Translate-AI-helper/api/middleware"
	appconfig "github.com/KuperOK/Translate-AI-helper/config"
	"github.com/KuperOK/Translate-AI-helper/internal/cache"
	"github.com/KuperOK/Translate-AI-helper/internal/database"
	"github.com/KuperOK/Translate-AI-helper/internal/llm"
	"github.com/KuperOK/Translate-AI-helper/internal/prompt"
	"github.com/KuperOK/Translate-AI-helper/internal/repository"
	"github.com/KuperOK/Translate-AI-helper/internal/services"
	"github.com/KuperOK/Translate-AI-helper/pkg/storage"
	"github.com/KuperOK/Translate-AI-helper/pkg/taskqueue"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to config file")
		mode       = flag.String("mode", "release", "Run mode (debug/release)")
	)
	flag.Parse()

	// local development secrets live in .env
	_ = godotenv.Load()

	cfg, err := appconfig.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	gin.SetMode(*mode)

	middleware.ConfigureLogger(cfg.Log.Level, cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays)
	logger := middleware.GetLogger()
	logger.Info("Starting translation service...")

	dbConfig := database.DefaultConfig()
	dbConfig.Type = cfg.Database.Type
	dbConfig.DSN = cfg.Database.DSN
	if err := database.Setup(dbConfig, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	fileStorage, err := setupStorage(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	llmClient, err := setupLLM(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize completion client: %v", err)
	}

	resultCache, err := setupCache(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize cache: %v", err)
	}

	builder, err := prompt.NewBuilder(prompt.WithRulesFile(cfg.Translator.RulesFile))
	if err != nil {
		logger.Fatalf("Failed to load translation prompt: %v", err)
	}

	translationService := services.NewTranslationService(
		fileStorage,
		repository.NewJobRepository(),
		resultCache,
		llmClient,
		builder,
		services.WithMaxParts(cfg.Translator.MaxParts),
		services.WithCacheTTL(time.Duration(cfg.Cache.TTL)*time.Second),
		services.WithLogger(logger),
	)

	// A rejected key blocks the whole session before any upload is accepted.
	checkCtx, checkCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := translationService.CheckCredential(checkCtx); err != nil {
		checkCancel()
		logger.Fatalf("Credential check failed: %v", err)
	}
	checkCancel()
	logger.Info("Completion provider credential verified")

	var queue taskqueue.Queue
	if cfg.Queue.Enable {
		redisQueue, err := taskqueue.NewRedisQueue(&taskqueue.Config{
			RedisAddr:     cfg.Queue.RedisAddr,
			RedisPassword: cfg.Queue.RedisPassword,
			RedisDB:       cfg.Queue.RedisDB,
			Concurrency:   cfg.Queue.Concurrency,
			RetryLimit:    cfg.Queue.RetryLimit,
			RetryDelay:    time.Minute,
		})
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer redisQueue.Close()
		queue = redisQueue

		worker := taskqueue.NewRedisWorker(redisQueue)
		worker.RegisterHandler(taskqueue.NewTranslateHandler(translationService, logger))
		if err := worker.Start(); err != nil {
			logger.Fatalf("Failed to start task worker: %v", err)
		}
		defer worker.Stop()
		logger.Info("Task queue worker started")
	}

	translationHandler := handler.NewTranslationHandler(translationService, queue)
	router := api.SetupRouter(translationHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // long enough to stream large outputs
	}

	go func() {
		logger.Infof("Server is running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// setupStorage creates the configured file store.
func setupStorage(cfg *appconfig.Config) (storage.Storage, error) {
	switch cfg.Storage.Type {
	case "minio":
		return storage.NewMinioStorage(storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
	case "local", "":
		if err := os.MkdirAll(cfg.Storage.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %v", err)
		}
		return storage.NewLocalStorage(storage.LocalConfig{Path: cfg.Storage.Path})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}

// setupLLM creates the completion client.
func setupLLM(cfg *appconfig.Config) (llm.Client, error) {
	if cfg.LLM.APIKey == "" || cfg.LLM.APIKey == "${OPENAI_API_KEY}" {
		return nil, fmt.Errorf("completion API key is required, set OPENAI_API_KEY or llm.api_key")
	}

	opts := []llm.Option{
		llm.WithAPIKey(cfg.LLM.APIKey),
		llm.WithModel(cfg.LLM.Model),
		llm.WithBaseURL(cfg.LLM.Endpoint),
		llm.WithTimeout(cfg.LLM.Timeout),
		llm.WithMaxRetries(cfg.LLM.MaxRetries),
		llm.WithTemperature(cfg.LLM.Temperature),
	}
	if cfg.LLM.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(cfg.LLM.MaxTokens))
	}

	return llm.NewClient(cfg.LLM.Provider, opts...)
}

// setupCache creates the result cache.
func setupCache(cfg *appconfig.Config) (cache.Cache, error) {
	cacheConfig := cache.DefaultConfig()
	cacheConfig.Type = cfg.Cache.Type
	cacheConfig.DefaultTTL = time.Duration(cfg.Cache.TTL) * time.Second

	if cfg.Cache.Type == "redis" {
		cacheConfig.RedisAddr = cfg.Cache.Address
		cacheConfig.RedisPassword = cfg.Cache.Password
		cacheConfig.RedisDB = cfg.Cache.DB
	}

	return cache.NewCache(cacheConfig)
}
