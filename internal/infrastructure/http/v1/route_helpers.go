package v1

import (
	"github.com/gin-gonic/gin"

	appctx "staffdesk/internal/core/context"
	"staffdesk/internal/infrastructure/http/v1/middleware"
)

// RecordRouteHandler defines the routes every record type serves.
type RecordRouteHandler interface {
	List(c *gin.Context)
	Search(c *gin.Context)
	Export(c *gin.Context)
	BulkDeletionMark(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
	History(c *gin.Context)
}

// RegisterRecordRoutes registers the standard routes of a record type.
// Each route requires the matching "<entity>:<action>" permission.
//
// Usage:
//
//	repo := record_repo.NewEmployeeRepo()
//	service := employee.NewService(repo, numerator, deps)
//	handler := handlers.NewEmployeeHandler(base, service, opts)
//	RegisterRecordRoutes(api.Group("/employees"), handler, "employee")
func RegisterRecordRoutes(group *gin.RouterGroup, handler RecordRouteHandler, entity string) {
	group.GET("", middleware.Allow(entity, appctx.ActionRead), handler.List)
	group.POST("", middleware.Allow(entity, appctx.ActionCreate), handler.Create)
	group.POST("/search", middleware.Allow(entity, appctx.ActionRead), handler.Search)
	group.POST("/export", middleware.Allow(entity, appctx.ActionExport), handler.Export)
	group.POST("/deletion-mark", middleware.Allow(entity, appctx.ActionDelete), handler.BulkDeletionMark)
	group.GET("/:id", middleware.Allow(entity, appctx.ActionRead), handler.Get)
	group.PUT("/:id", middleware.Allow(entity, appctx.ActionUpdate), handler.Update)
	group.DELETE("/:id", middleware.Allow(entity, appctx.ActionDelete), handler.Delete)
	group.POST("/:id/deletion-mark", middleware.Allow(entity, appctx.ActionDelete), handler.SetDeletionMark)
	group.GET("/:id/history", middleware.Allow(entity, appctx.ActionRead), handler.History)
}
