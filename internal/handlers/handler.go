package handlers

import (
	"strconv"

	"go-pos-backoffice/internal/ai"
	"go-pos-backoffice/internal/config"
	"go-pos-backoffice/internal/database"
	"go-pos-backoffice/internal/sales"
	"go-pos-backoffice/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Handler carries the dependencies every endpoint needs.
type Handler struct {
	DB       *gorm.DB
	Cache    *database.Cache
	Sales    *sales.Service
	Agent    *ai.Agent
	Uploader storage.Uploader
	Config   *config.Config
	Logger   *logrus.Logger
}

func New(cfg *config.Config, db *gorm.DB, cache *database.Cache, uploader storage.Uploader, logger *logrus.Logger) *Handler {
	return &Handler{
		DB:       db,
		Cache:    cache,
		Sales:    sales.NewService(db, cache, logger),
		Agent:    ai.NewAgent(db, cfg.GeminiAPIKey, cfg.Location, logger),
		Uploader: uploader,
		Config:   cfg,
		Logger:   logger,
	}
}

// paramID reads a positive numeric :id style path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
