package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/invoice-pipeline/internal/api/handler"
	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		if deps.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
			defer cancel()
			if err := deps.Health.HealthCheck(ctx); err != nil {
				deps.Logger.Warn("Health check failed", slog.String("error", err.Error()))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unhealthy",
					"service": "invoice-api-service",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "invoice-api-service",
		})
	})

	jobHandler := handler.NewJobHandler(deps)
	synonymHandler := handler.NewSynonymHandler(deps)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs - Submit a batch of invoices
			jobs.POST("", jobHandler.SubmitJob)

			// GET /api/v1/jobs - List jobs with filtering and pagination
			jobs.GET("", jobHandler.ListJobs)

			// GET /api/v1/jobs/:job_id - Poll job status
			jobs.GET("/:job_id", jobHandler.GetJob)

			jobs.GET("/:job_id/documents", jobHandler.ListDocuments)
			jobs.GET("/:job_id/results", jobHandler.GetResults)

			// GET /api/v1/jobs/:job_id/export?format=csv|xlsx
			jobs.GET("/:job_id/export", jobHandler.ExportResults)
		}

		synonyms := v1.Group("/synonyms")
		{
			synonyms.GET("", synonymHandler.ListSynonyms)
			synonyms.POST("", synonymHandler.CreateSynonym)
			synonyms.PUT("/:id", synonymHandler.UpdateSynonym)
			synonyms.DELETE("/:id", synonymHandler.DeleteSynonym)
		}
	}

	return r
}
