package main

import (
	"log"

	"github.com/Munene001/bigosbackend/internal/blobstore/local"
	"github.com/Munene001/bigosbackend/internal/config"
	"github.com/Munene001/bigosbackend/internal/db"
	"github.com/Munene001/bigosbackend/internal/logging"
	"github.com/Munene001/bigosbackend/internal/service"
	"github.com/Munene001/bigosbackend/internal/store"
	"github.com/Munene001/bigosbackend/internal/web"
)

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	propertyStore := store.NewPropertyStore(database)
	imageStore := store.NewImageStore(database)

	blobs, err := local.NewLocalBlobStore(cfg.ImagePath, cfg.ImageBaseURL)
	if err != nil {
		logger.Error("failed to initialize image store", "error", err)
		return
	}

	propertyService := service.NewPropertyService(propertyStore, imageStore, blobs, logger)
	server := web.NewServer(propertyService, blobs, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}
