// Package main is the entry point for the staffdesk API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"staffdesk/internal/config"
	"staffdesk/internal/domain"
	"staffdesk/internal/domain/auth"
	"staffdesk/internal/domain/preferences"
	v1 "staffdesk/internal/infrastructure/http/v1"
	"staffdesk/internal/infrastructure/http/v1/handlers"
	"staffdesk/internal/infrastructure/http/v1/middleware"
	"staffdesk/internal/infrastructure/metrics"
	"staffdesk/internal/infrastructure/numerator"
	"staffdesk/internal/infrastructure/search/elastic"
	"staffdesk/internal/infrastructure/storage/postgres"
	"staffdesk/internal/infrastructure/storage/postgres/record_repo"
	"staffdesk/internal/infrastructure/storage/redisstore"
	"staffdesk/internal/metadata"
	"staffdesk/pkg/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.App.IsDevelopment(),
		Service:     cfg.App.Name,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting staffdesk server", "version", version, "env", cfg.App.Env)

	// --- Database ---
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		ApplicationName: cfg.App.Name,
		ConnectWait:     cfg.Database.ConnectWait,
	})
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")
	metrics.RegisterPool(prometheus.DefaultRegisterer, func() metrics.PoolStats { return pool.Stat() })

	txManager := postgres.NewTxManager(pool)

	// Audit and numbering use the transaction of the request
	auditStore, err := postgres.NewAuditStore(nil)
	if err != nil {
		log.Fatalw("failed to create audit store", "error", err)
	}

	checks := map[string]handlers.Check{
		"postgres": func(ctx context.Context) error { return pool.Ping(ctx) },
	}

	// --- Metadata Registry ---
	registry := setupMetadataRegistry()
	log.Infow("metadata registry initialized", "entities", len(registry.List()))

	// --- Full-text index (optional) ---
	var (
		fullText v1.FullTextSearchers
		indexer  domain.Indexer
	)
	if cfg.Elastic.Enabled() {
		fullText, indexer, err = setupElastic(ctx, cfg.Elastic, registry, checks)
		if err != nil {
			log.Fatalw("failed to set up elasticsearch", "error", err)
		}
		log.Infow("full-text search enabled", "addresses", cfg.Elastic.AddressList())
	}

	// --- Preferences ---
	prefs, closePrefs, err := setupPreferences(ctx, cfg, txManager, checks)
	if err != nil {
		log.Fatalw("failed to set up preference store", "error", err)
	}
	defer closePrefs()
	log.Infow("preference store ready", "store", cfg.Preferences.Store)

	// --- Tokens ---
	tokenCfg := auth.NewTokenConfig(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	tokenCfg.Leeway = cfg.Auth.ClockSkew

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		TxManager:    txManager,
		Tokens:       auth.NewTokens(tokenCfg),
		Numerator:    numerator.NewFromContext(),
		Repositories: v1.Repositories{
			Departments: record_repo.NewDepartmentRepo(),
			Employees:   record_repo.NewEmployeeRepo(),
			Visitors:    record_repo.NewVisitorRepo(),
		},
		Audit:            auditStore,
		Preferences:      prefs,
		FullText:         fullText,
		Indexer:          indexer,
		MetadataRegistry: registry,
		HealthChecks:     checks,
		Version:          version,
		ExportMaxRows:    cfg.Search.ExportMaxRows,
		CORS: middleware.CORSOptions{
			AllowedOrigins:   config.SplitList(cfg.CORS.AllowedOrigins),
			AllowedMethods:   config.SplitList(cfg.CORS.AllowedMethods),
			AllowedHeaders:   config.SplitList(cfg.CORS.AllowedHeaders),
			AllowCredentials: cfg.CORS.AllowCredentials,
			MaxAge:           cfg.CORS.MaxAge,
		},
	})

	// --- HTTP Server ---
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Infow("server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// setupElastic connects to the cluster and builds one searcher per entity.
func setupElastic(ctx context.Context, cfg config.ElasticConfig, registry *metadata.Registry, checks map[string]handlers.Check) (v1.FullTextSearchers, domain.Indexer, error) {
	esCfg := elasticConfig(cfg)
	client, err := elastic.NewClient(esCfg)
	if err != nil {
		return nil, nil, err
	}
	if err := elastic.Ping(ctx, client); err != nil {
		return nil, nil, err
	}

	searchers := make(map[string]domain.FullTextSearcher)
	for _, def := range registry.List() {
		searchers[def.Name] = elastic.NewSearcher(client, esCfg, def)
	}
	checks["elasticsearch"] = func(ctx context.Context) error { return elastic.Ping(ctx, client) }

	lookup := func(entity string) domain.FullTextSearcher {
		if s, ok := searchers[entity]; ok {
			return s
		}
		return nil
	}
	return lookup, elastic.NewIndexer(client, esCfg), nil
}

func elasticConfig(cfg config.ElasticConfig) elastic.Config {
	return elastic.Config{
		Addresses:   cfg.AddressList(),
		Username:    cfg.Username,
		Password:    cfg.Password,
		IndexPrefix: cfg.IndexPrefix,
		Timeout:     cfg.Timeout,
	}
}

// setupPreferences returns the configured preference store and its closer.
func setupPreferences(ctx context.Context, cfg *config.Config, txManager *postgres.TxManager, checks map[string]handlers.Check) (preferences.Store, func(), error) {
	if cfg.Preferences.Store != config.PreferencesRedis {
		return postgres.NewPreferenceStore(txManager), func() {}, nil
	}

	store := redisstore.New(redisstore.NewClient(redisstore.Config{
		Address:  cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}), cfg.Redis.KeyPrefix, cfg.Preferences.TTL)
	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	checks["redis"] = store.Ping
	return store, func() { _ = store.Close() }, nil
}
