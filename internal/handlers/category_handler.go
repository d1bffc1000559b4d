package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go-pos-backoffice/internal/catalog"
	"go-pos-backoffice/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CategoryInput struct {
	Name        string `json:"name" binding:"required,max=256"`
	Description string `json:"description" binding:"max=256"`
	Status      string `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
	Prefix      string `json:"prefix" binding:"required"`
}

func (h *Handler) ListCategories(c *gin.Context) {
	q := h.DB.WithContext(c.Request.Context()).Order("name ASC")
	if c.Query("active") == "true" {
		q = q.Where("status = ?", models.StatusActive)
	}
	var categories []models.Category
	if err := q.Find(&categories).Error; err != nil {
		h.respondError(c, "ListCategories", err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) GetCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "GetCategory", errInvalidID)
		return
	}
	var category models.Category
	if err := h.DB.WithContext(c.Request.Context()).First(&category, id).Error; err != nil {
		h.respondError(c, "GetCategory", err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// bindCategory validates input and rejects a name already used by another category.
func (h *Handler) bindCategory(c *gin.Context, exceptID uint) (*models.Category, bool) {
	var input CategoryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return nil, false
	}
	prefix, err := catalog.NormalizePrefix(input.Prefix)
	if err != nil {
		h.respondError(c, "bindCategory", err)
		return nil, false
	}
	name := strings.TrimSpace(input.Name)

	var count int64
	if err := h.DB.WithContext(c.Request.Context()).Model(&models.Category{}).
		Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), exceptID).
		Count(&count).Error; err != nil {
		h.respondError(c, "bindCategory", err)
		return nil, false
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "A category with this name already exists"})
		return nil, false
	}

	status := input.Status
	if status == "" {
		status = models.StatusActive
	}
	return &models.Category{Name: name, Description: input.Description, Status: status, Prefix: prefix}, true
}

func (h *Handler) CreateCategory(c *gin.Context) {
	category, ok := h.bindCategory(c, 0)
	if !ok {
		return
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(category).Error; err != nil {
		h.respondError(c, "CreateCategory", err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "UpdateCategory", errInvalidID)
		return
	}
	db := h.DB.WithContext(c.Request.Context())
	var existing models.Category
	if err := db.First(&existing, id).Error; err != nil {
		h.respondError(c, "UpdateCategory", err)
		return
	}
	category, ok := h.bindCategory(c, id)
	if !ok {
		return
	}
	category.ID = existing.ID
	if err := db.Model(category).Select("name", "description", "status", "prefix").Updates(category).Error; err != nil {
		h.respondError(c, "UpdateCategory", err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "DeleteCategory", errInvalidID)
		return
	}
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var products int64
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
			return err
		}
		if products > 0 {
			return gorm.ErrForeignKeyViolated
		}
		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return catalog.ErrCategoryNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		c.JSON(http.StatusConflict, gin.H{"error": "Category has products and cannot be deleted"})
		return
	}
	if err != nil {
		h.respondError(c, "DeleteCategory", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}
