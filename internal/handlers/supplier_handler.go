package handlers

import (
	"net/http"
	"strings"

	"go-pos-backoffice/internal/models"
	"go-pos-backoffice/internal/utils"

	"github.com/gin-gonic/gin"
)

type SupplierInput struct {
	Name    string `json:"name" binding:"required,max=256"`
	TaxID   string `json:"tax_id" binding:"required,max=20"`
	Phone   string `json:"phone"`
	Email   string `json:"email" binding:"omitempty,email"`
	Address string `json:"address"`
}

func (in SupplierInput) model() (models.Supplier, error) {
	s := models.Supplier{
		Name:    strings.TrimSpace(in.Name),
		TaxID:   strings.ToUpper(strings.TrimSpace(in.TaxID)),
		Email:   in.Email,
		Address: in.Address,
	}
	if in.Phone != "" {
		phone, err := utils.NormalizePhone(in.Phone)
		if err != nil {
			return s, err
		}
		s.Phone = phone
	}
	return s, nil
}

func (h *Handler) ListSuppliers(c *gin.Context) {
	var suppliers []models.Supplier
	if err := h.DB.WithContext(c.Request.Context()).Order("name ASC").Find(&suppliers).Error; err != nil {
		h.respondError(c, "ListSuppliers", err)
		return
	}
	c.JSON(http.StatusOK, suppliers)
}

func (h *Handler) GetSupplier(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "GetSupplier", errInvalidID)
		return
	}
	var supplier models.Supplier
	if err := h.DB.WithContext(c.Request.Context()).First(&supplier, id).Error; err != nil {
		h.respondError(c, "GetSupplier", err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *Handler) CreateSupplier(c *gin.Context) {
	var input SupplierInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	supplier, err := input.model()
	if err != nil {
		h.respondError(c, "CreateSupplier", err)
		return
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&supplier).Error; err != nil {
		h.respondError(c, "CreateSupplier", err)
		return
	}
	c.JSON(http.StatusCreated, supplier)
}

func (h *Handler) UpdateSupplier(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "UpdateSupplier", errInvalidID)
		return
	}
	var input SupplierInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	supplier, err := input.model()
	if err != nil {
		h.respondError(c, "UpdateSupplier", err)
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	var existing models.Supplier
	if err := db.First(&existing, id).Error; err != nil {
		h.respondError(c, "UpdateSupplier", err)
		return
	}
	supplier.ID = existing.ID
	if err := db.Model(&supplier).Select("name", "tax_id", "phone", "email", "address").Updates(&supplier).Error; err != nil {
		h.respondError(c, "UpdateSupplier", err)
		return
	}
	c.JSON(http.StatusOK, supplier)
}

func (h *Handler) DeleteSupplier(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "DeleteSupplier", errInvalidID)
		return
	}
	res := h.DB.WithContext(c.Request.Context()).Delete(&models.Supplier{}, id)
	if res.Error != nil {
		h.respondError(c, "DeleteSupplier", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		h.respondError(c, "DeleteSupplier", errNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Supplier deleted successfully"})
}
