package api

import (
	"net/http"

	"github.com/magpress/media-center/internal/api/handlers"
	"github.com/magpress/media-center/internal/api/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers every endpoint on the router.
func SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public file serving; private files still require a valid presigned URL.
	router.GET("/media/files/*filename", handlers.ServeMediaFile)

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
	}

	protected := v1.Group("")
	protected.Use(middleware.JWTAuth())
	{
		protected.GET("/ws", handlers.UploadProgressSocket)

		media := protected.Group("/media")
		{
			media.GET("", handlers.ListMedia)
			media.GET("/search", handlers.SearchMedia)
			media.GET("/stats", handlers.GetMediaStats)
			media.GET("/recent", handlers.GetRecentMedia)
			media.GET("/type/:type", handlers.GetMediaByType)
			media.POST("/upload", handlers.UploadMedia)
			media.POST("/upload-from-url", handlers.UploadMediaFromURL)

			media.GET("/upload/:id/progress", handlers.GetUploadProgress)
			media.DELETE("/upload/:id", handlers.CancelUpload)

			media.PUT("/bulk", handlers.BulkUpdateMedia)
			media.DELETE("/bulk", handlers.BulkDeleteMedia)
			media.PUT("/bulk/move", handlers.BulkMoveMedia)
			media.POST("/bulk/download", handlers.BulkDownloadMedia)

			folders := media.Group("/folders")
			{
				folders.POST("", handlers.CreateFolder)
				folders.GET("", handlers.ListFolders)
				folders.GET("/tree", handlers.GetFolderTree)
				folders.GET("/:id", handlers.GetFolder)
				folders.PUT("/:id", handlers.UpdateFolder)
				folders.DELETE("/:id", handlers.DeleteFolder)
			}

			media.GET("/:id", handlers.GetMedia)
			media.PUT("/:id", handlers.UpdateMedia)
			media.DELETE("/:id", handlers.DeleteMedia)
			media.PUT("/:id/move", handlers.MoveMedia)
			media.POST("/:id/copy", handlers.CopyMedia)
			media.POST("/:id/duplicate", handlers.DuplicateMedia)
			media.PUT("/:id/replace", handlers.ReplaceMedia)
			media.POST("/:id/optimize", handlers.OptimizeMedia)
			media.POST("/:id/thumbnail", handlers.GenerateThumbnail)
			media.GET("/:id/variants", handlers.GetMediaVariants)
			media.POST("/:id/variants", handlers.CreateMediaVariant)
			media.GET("/:id/embed", handlers.GetEmbedCode)
			media.POST("/:id/track", handlers.TrackMediaAccess)
			media.GET("/:id/access-logs", handlers.GetMediaAccessLogs)
			media.GET("/:id/usage", handlers.GetMediaUsage)
			media.GET("/:id/history", handlers.GetMediaHistory)
		}

		export := protected.Group("/export")
		{
			export.GET("/:format", handlers.ExportMedia)
		}

		settings := protected.Group("/settings")
		{
			settings.GET("", handlers.GetSettings)
			settings.PUT("", handlers.UpdateSettings)
			settings.GET("/:key", handlers.GetSetting)
			settings.PUT("/:key", handlers.UpdateSetting)
		}
	}
}
