package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"

	"nexus-backend/internal/api"
	"nexus-backend/internal/config"
	"nexus-backend/internal/handlers"
	"nexus-backend/internal/integrations/openai"
	"nexus-backend/internal/integrations/paramstore"
	"nexus-backend/internal/services"
	"nexus-backend/internal/store"
	"nexus-backend/internal/store/cache"
	"nexus-backend/internal/store/postgres"
	"nexus-backend/internal/store/sqlite"
)

func main() {
	log.Println("Starting Nexus Backend...")

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	// 2. Initialize the Store
	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second) // Timeout for initial connections
	defer initCancel()

	st, closeStore := openStore(initCtx, cfg)
	defer closeStore()

	// 3. Optional Redis catalog cache
	var catalog store.CatalogStore = st
	catalogCached := false
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("FATAL: Invalid REDIS_URL: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(initCtx).Err(); err != nil {
			log.Printf("WARN: Redis unreachable, catalog cache disabled: %v", err)
		} else {
			catalog = cache.NewCatalogCache(st, rdb, cfg.CatalogCacheTTL)
			catalogCached = true
			log.Println("Redis catalog cache initialized.")
		}
	}

	// 4. Completion client
	clientOpts := []openai.Option{
		openai.WithBaseURL(cfg.OpenAIBaseURL),
		openai.WithModel(cfg.OpenAIModel),
		openai.WithTimeout(cfg.OpenAITimeout),
		openai.WithAPIKey(cfg.OpenAIAPIKey),
	}
	if cfg.OpenAIAPIKey == "" && cfg.OpenAIAPIKeyParam != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(initCtx)
		if err != nil {
			log.Fatalf("FATAL: Unable to load AWS configuration: %v", err)
		}
		params, err := paramstore.New(ssm.NewFromConfig(awsCfg))
		if err != nil {
			log.Fatalf("FATAL: Unable to create parameter store client: %v", err)
		}
		clientOpts = append(clientOpts, openai.WithKeyParameter(params, cfg.OpenAIAPIKeyParam))
		log.Printf("OpenAI key will be read from parameter %s.", cfg.OpenAIAPIKeyParam)
	}
	completer := openai.NewClient(clientOpts...)
	if !completer.Configured() {
		log.Println("WARN: No OpenAI key configured, completion endpoints will fail.")
	}
	log.Printf("OpenAI client initialized (model %s).", completer.Model())

	// --- Initialize Services ---
	chatService := services.NewChatService(st, catalog, completer)
	projectService := services.NewProjectService(st)
	userService := services.NewUserService(st)
	catalogService := services.NewCatalogService(catalog)
	questionnaireService := services.NewQuestionnaireService(st, completer)
	historyService := services.NewHistoryService(st)
	log.Println("Services initialized.")

	// 5. Setup Router & Inject Dependencies
	routerDeps := api.RouterDependencies{
		ChatHandler:          handlers.NewChatHandlers(chatService, cfg.Status(catalogCached)),
		ProjectHandler:       handlers.NewProjectHandlers(projectService),
		UserHandler:          handlers.NewUserHandlers(userService),
		CatalogHandler:       handlers.NewCatalogHandlers(catalogService),
		QuestionnaireHandler: handlers.NewQuestionnaireHandlers(questionnaireService),
		HistoryHandler:       handlers.NewHistoryHandlers(historyService),
		Config:               cfg,
	}
	router := api.NewRouter(routerDeps)
	log.Println("HTTP router configured.")

	// 6. Configure and Start HTTP Server
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
		// Completions can take most of the request timeout.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel to listen for OS signals for graceful shutdown
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting and listening on port %s", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: Could not listen on %s: %v\n", cfg.HTTPPort, err)
		}
		log.Println("Server listener routine stopped.")
	}()

	<-stopChan
	log.Println("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("WARN: Server graceful shutdown failed: %v", err)
	}

	log.Println("Server shutdown complete.")
}

// openStore connects the store selected by DATABASE_URL and returns its closer.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func()) {
	driver, err := cfg.DatabaseDriver()
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	if driver == config.DriverSQLite {
		sqliteStore, err := sqlite.NewSQLiteStore(cfg.SQLiteDSN())
		if err != nil {
			log.Fatalf("FATAL: Unable to open SQLite database: %v", err)
		}
		if cfg.CatalogSeedFile != "" {
			if err := sqliteStore.LoadFixturesFile(ctx, cfg.CatalogSeedFile); err != nil {
				log.Fatalf("FATAL: Unable to load catalog fixtures from %s: %v", cfg.CatalogSeedFile, err)
			}
			log.Printf("Catalog fixtures loaded from %s.", cfg.CatalogSeedFile)
		}
		log.Println("SQLite store initialized.")
		return sqliteStore, func() { _ = sqliteStore.Close() }
	}

	dbpool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Unable to create database connection pool: %v\n", err)
	}
	if err := dbpool.Ping(ctx); err != nil {
		log.Fatalf("FATAL: Unable to ping database: %v\n", err)
	}
	log.Println("Database connection pool established and pinged successfully.")
	if cfg.CatalogSeedFile != "" {
		log.Println("WARN: CATALOG_SEED_FILE only applies to SQLite databases, ignoring.")
	}
	return postgres.NewPostgresStore(dbpool), dbpool.Close
}
