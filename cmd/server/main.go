package main

import (
	"context"
	"log"
	"time"

	"go-pos-backoffice/internal/auth"
	"go-pos-backoffice/internal/config"
	"go-pos-backoffice/internal/database"
	"go-pos-backoffice/internal/handlers"
	"go-pos-backoffice/internal/middleware"
	"go-pos-backoffice/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	config.SetLogLevel(cfg.LogLevel)
	logger := config.GetLogger()
	auth.SetSecret(cfg.JWTSecret)

	ctx := context.Background()
	db := database.Connect(cfg)
	cache := database.ConnectRedis(ctx, cfg)
	defer cache.Close()

	uploader, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal("Storage init failed:", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	// --- The Bridge Configuration (React dev server and deployed origins) ---
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = storage.MaxUploadSize

	handlers.RegisterRoutes(r, handlers.New(cfg, db, cache, uploader, logger))

	// --- DEPLOYMENT: Serve React Frontend ---
	r.Static("/assets", "./web/assets")
	r.StaticFile("/vite.svg", "./web/vite.svg")

	// SPA Catch-All: If the user refreshes on "/dashboard",
	// serve index.html so React can handle the routing.
	r.NoRoute(func(c *gin.Context) {
		c.File("./web/index.html")
	})

	logger.WithField("base_url", cfg.BaseURL).Info("Server starting")
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
