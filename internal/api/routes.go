package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-media-platform/internal/api/handlers"
	"go-media-platform/internal/api/middleware"
)

// SetupRoutes registers all application routes.
func SetupRoutes(router *gin.Engine, h *handlers.Handler, jwtSecret string) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))

	media := v1.Group("/media")
	{
		media.POST("/upload", h.UploadMedia)
		media.GET("/list", h.ListMedia)
		media.GET("/search", h.SearchMedia)
		media.POST("/batch", h.HandleBatchOperation)
		media.GET("/:id", h.GetMedia)
		media.PUT("/:id", h.UpdateMedia)
		media.DELETE("/:id", h.DeleteMedia)
	}

	folders := v1.Group("/folders")
	{
		folders.POST("", h.CreateFolder)
		folders.GET("", h.ListFolders)
		folders.GET("/:id", h.GetFolder)
		folders.PUT("/:id", h.UpdateFolder)
		folders.DELETE("/:id", h.DeleteFolder)
	}

	export := v1.Group("/export")
	{
		export.GET("/csv", h.ExportCSV)
		export.GET("/json", h.ExportJSON)
	}
}
