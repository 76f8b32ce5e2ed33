package api

import (
	"github.com/gin-gonic/gin"

	"github.com/KuperOK/Translate-AI-helper/api/handler"
	"github.com/KuperOK/Translate-AI-helper/api/middleware"
)

// SetupRouter wires the API endpoints and global middleware.
func SetupRouter(translationHandler *handler.TranslationHandler) *gin.Engine {
	router := gin.New()

	router.Use(middleware.SetTraceID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	api := router.Group("/api")
	{
		translations := api.Group("/translations")
		{
			// Upload a file and start a translation - POST /api/translations
			translations.POST("", translationHandler.Upload)

			// Job status and progress - GET /api/translations/:id
			translations.GET("/:id", translationHandler.Status)

			// Download the translated output - GET /api/translations/:id/download
			translations.GET("/:id/download", translationHandler.Download)

			// List jobs - GET /api/translations
			translations.GET("", translationHandler.List)

			// Delete a job and its files - DELETE /api/translations/:id
			translations.DELETE("/:id", translationHandler.Delete)
		}

		// Selectable completion models - GET /api/models
		api.GET("/models", translationHandler.Models)

		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})
	}

	return router
}

// Cors allows cross-origin requests when the API is served behind a
// separately hosted frontend.
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
