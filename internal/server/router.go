package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/complyline/compliance-backend/internal/handlers"
)

type RouterConfig struct {
	SyncHandler       *handlers.SyncHandler
	SyncLockHandler   *handlers.SyncLockHandler
	ComplianceHandler *handlers.ComplianceHandler
	CaptureHandler    *handlers.CaptureHandler
	AllowOrigins      []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("compliance-backend"))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5174"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Capture intake
		api.POST("/captures", cfg.CaptureHandler.PutCapture)
		api.GET("/captures", cfg.CaptureHandler.ListCaptures)

		// Ingestion triggers
		sync := api.Group("/sync")
		{
			sync.POST("/trustcloud/sections", cfg.SyncHandler.TrustCloudSections)
			sync.POST("/trustcloud/policy-controls", cfg.SyncHandler.TrustCloudPolicyControls)
			sync.POST("/trustcloud/standards", cfg.SyncHandler.TrustCloudStandards)
			sync.POST("/eramba/frameworks", cfg.SyncHandler.ErambaFrameworks)
			sync.POST("/eramba/clauses", cfg.SyncHandler.ErambaClauses)
			sync.POST("/eramba/controls", cfg.SyncHandler.ErambaControls)
			sync.POST("/eramba/policies", cfg.SyncHandler.ErambaPolicies)
			sync.POST("/clause-parents", cfg.ComplianceHandler.AssignClauseParents)

			sync.GET("/locks/:source", cfg.SyncLockHandler.GetLock)
			sync.POST("/locks/:source", cfg.SyncLockHandler.AcquireLock)
			sync.DELETE("/locks/:source", cfg.SyncLockHandler.ReleaseLock)
		}

		// Graph reads
		api.GET("/status", cfg.ComplianceHandler.GraphStatus)
		api.GET("/certifications", cfg.ComplianceHandler.ListCertifications)
		api.GET("/certifications/:id/clauses", cfg.ComplianceHandler.ListCertificationClauses)
		api.GET("/clauses/:id", cfg.ComplianceHandler.GetClause)
		api.GET("/controls/:short_name", cfg.ComplianceHandler.GetControl)
		api.GET("/policies/:reference", cfg.ComplianceHandler.GetPolicy)
	}

	return router
}
