package main

import (
	"log"

	"github.com/magpress/media-center/internal/api"
	"github.com/magpress/media-center/internal/api/handlers"
	"github.com/magpress/media-center/internal/config"
	"github.com/magpress/media-center/internal/database"
	"github.com/magpress/media-center/internal/models"
	"github.com/magpress/media-center/internal/settings"
	"github.com/magpress/media-center/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := database.Initialize(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.Migrate(database.GetDB()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if err := storage.Initialize(cfg); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	store, err := settings.NewStore(&settings.GormBackend{DB: database.GetDB()})
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	handlers.SetSettingsStore(store)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.MaxMultipartMemory = cfg.Storage.MaxUploadSize

	api.SetupRoutes(router)

	log.Printf("Starting server on port %s (storage: %s)", cfg.Server.Port, cfg.Storage.Provider)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}
