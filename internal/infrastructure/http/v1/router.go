// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appctx "staffdesk/internal/core/context"
	"staffdesk/internal/core/numerator"
	"staffdesk/internal/core/tx"
	"staffdesk/internal/domain"
	"staffdesk/internal/domain/audit"
	"staffdesk/internal/domain/hr/department"
	"staffdesk/internal/domain/hr/employee"
	"staffdesk/internal/domain/preferences"
	"staffdesk/internal/domain/visitor"
	"staffdesk/internal/infrastructure/http/v1/handlers"
	"staffdesk/internal/infrastructure/http/v1/middleware"
	"staffdesk/internal/metadata"
	"staffdesk/pkg/logger"
)

// FullTextSearchers returns the index searcher of an entity, or nil when
// the entity is answered by the database alone.
type FullTextSearchers func(entity string) domain.FullTextSearcher

// Repositories holds the persistence of every record type.
type Repositories struct {
	Departments department.Repository
	Employees   employee.Repository
	Visitors    visitor.Repository
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	Logger *logger.Logger

	// TxManager is put into every request context
	TxManager tx.Manager

	Tokens       middleware.TokenVerifier
	Numerator    numerator.Generator
	Repositories Repositories
	Audit        audit.Recorder
	Preferences  preferences.Store

	// FullText and Indexer are optional
	FullText FullTextSearchers
	Indexer  domain.Indexer

	MetadataRegistry *metadata.Registry
	HealthChecks     map[string]handlers.Check
	Version          string
	ExportMaxRows    int
	CORS             middleware.CORSOptions
}

// NewRouter creates the Gin router wrapped in CORS handling.
func NewRouter(cfg RouterConfig) http.Handler {
	return middleware.CORS(cfg.CORS, NewEngine(cfg))
}

// NewEngine creates and configures the Gin engine.
func NewEngine(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Metrics())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Version, cfg.HealthChecks)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.Database(cfg.TxManager))
	api.Use(middleware.Auth(cfg.Tokens))
	{
		registerRecordRoutes(api, cfg)
		registerPreferenceRoutes(api, cfg)
		registerMetaRoutes(api, cfg)
	}

	return router
}

func (cfg RouterConfig) fullText(entity string) domain.FullTextSearcher {
	if cfg.FullText == nil {
		return nil
	}
	return cfg.FullText(entity)
}

// registerRecordRoutes registers department, employee and visitor endpoints.
// Services are created once; the TxManager comes from the request context.
func registerRecordRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	base := handlers.NewBaseHandler()
	opts := handlers.RecordOptions{History: cfg.Audit, ExportMaxRows: cfg.ExportMaxRows}
	repos := cfg.Repositories

	// --- DEPARTMENTS ---
	{
		service := department.NewService(repos.Departments, cfg.Numerator, department.ServiceDeps{
			Audit:    cfg.Audit,
			FullText: cfg.fullText(department.EntityName),
			Indexer:  cfg.Indexer,
		})
		handler := handlers.NewDepartmentHandler(base, service, opts)
		RegisterRecordRoutes(rg.Group("/departments"), handler, department.EntityName)
	}

	// --- EMPLOYEES ---
	{
		service := employee.NewService(repos.Employees, cfg.Numerator, employee.ServiceDeps{
			Departments: repos.Departments,
			Audit:       cfg.Audit,
			FullText:    cfg.fullText(employee.EntityName),
			Indexer:     cfg.Indexer,
		})
		handler := handlers.NewEmployeeHandler(base, service, opts)
		group := rg.Group("/employees")
		RegisterRecordRoutes(group, handler, employee.EntityName)
		group.POST("/:id/terminate", middleware.Allow(employee.EntityName, appctx.ActionUpdate), handler.Terminate)
	}

	// --- VISITORS ---
	{
		service := visitor.NewService(repos.Visitors, cfg.Numerator, visitor.ServiceDeps{
			Hosts:    repos.Employees,
			Audit:    cfg.Audit,
			FullText: cfg.fullText(visitor.EntityName),
			Indexer:  cfg.Indexer,
		})
		handler := handlers.NewVisitorHandler(base, service, opts)
		group := rg.Group("/visitors")
		RegisterRecordRoutes(group, handler, visitor.EntityName)
		group.POST("/:id/check-in", middleware.Allow(visitor.EntityName, appctx.ActionCheckIn), handler.CheckIn)
		group.POST("/:id/check-out", middleware.Allow(visitor.EntityName, appctx.ActionCheckIn), handler.CheckOut)
		group.POST("/:id/cancel", middleware.Allow(visitor.EntityName, appctx.ActionUpdate), handler.Cancel)
	}
}

// registerPreferenceRoutes registers the per-user preference endpoints.
// Every authenticated user may manage their own preferences.
func registerPreferenceRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Preferences == nil {
		return
	}
	handler := handlers.NewPreferencesHandler(handlers.NewBaseHandler(), cfg.Preferences, cfg.MetadataRegistry)
	prefs := rg.Group("/preferences")
	{
		prefs.GET("/views/:entity", handler.View)
		prefs.GET("/:key", handler.Get)
		prefs.PUT("/:key", handler.Put)
	}
}

// registerMetaRoutes registers metadata/schema endpoints.
func registerMetaRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.MetadataRegistry == nil {
		return
	}
	handler := handlers.NewMetadataHandler(cfg.MetadataRegistry)
	meta := rg.Group("/meta")
	{
		meta.GET("", handler.ListEntities)
		meta.GET("/:name", handler.GetEntity)
	}
}
