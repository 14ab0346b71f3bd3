package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "lawnorm/docs" // registers the OpenAPI description
	"lawnorm/internal/auth"
	"lawnorm/internal/handler"
	"lawnorm/internal/middleware"
)

// Deps are the collaborators the router mounts.
type Deps struct {
	Tokens      middleware.TokenValidator
	Stats       *handler.StatsHandler
	Documents   *handler.DocumentHandler
	Health      *handler.HealthHandler
	Metrics     http.Handler
	CORSOrigins []string
	Logger      *zap.Logger
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(d Deps) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.CORS(d.CORSOrigins))

	// Health checks
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)

	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Protected routes - require valid JWT
	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(d.Tokens))

	stats := v1.Group("/stats")
	stats.GET("", d.Stats.GetStats)
	stats.GET("/states", d.Stats.GetStateCoverage)
	stats.GET("/types", d.Stats.GetTypeCounts)
	stats.GET("/schemas", d.Stats.GetSchemaStats)

	v1.GET("/runs", d.Stats.ListRuns)
	v1.GET("/reports/coverage.xlsx", d.Stats.CoverageWorkbook)
	v1.GET("/failures", d.Documents.ListFailures)

	docs := v1.Group("/documents")
	docs.GET("", d.Documents.List)
	docs.GET("/:id", d.Documents.GetByID)
	docs.GET("/:id/state", d.Documents.GetState)
	docs.POST("/:id/reprocess", middleware.RequireRole(auth.RoleAdmin), d.Documents.Reprocess)

	return r
}
