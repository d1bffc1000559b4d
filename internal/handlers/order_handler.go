package handlers

import (
	"net/http"

	"go-pos-backoffice/internal/middleware"
	"go-pos-backoffice/internal/models"
	"go-pos-backoffice/internal/sales"
	"go-pos-backoffice/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderLineInput struct {
	ProductID       uint            `json:"product_id" binding:"required"`
	Quantity        int             `json:"quantity" binding:"required,gt=0"`
	PriceUSD        decimal.Decimal `json:"price_usd"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type OrderInput struct {
	CustomerID *uint            `json:"customer_id"`
	Lines      []OrderLineInput `json:"lines" binding:"dive"`
}

// --- POST: /api/orders (save a cart for later) ---
func (h *Handler) SaveOrder(c *gin.Context) {
	var input OrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	if len(input.Lines) == 0 {
		h.respondError(c, "SaveOrder", sales.ErrEmptyCart)
		return
	}

	order := models.Order{CustomerID: input.CustomerID, UserID: middleware.CurrentUserID(c)}
	hundred := decimal.NewFromInt(100)
	for _, line := range input.Lines {
		if line.PriceUSD.IsNegative() || line.DiscountPercent.IsNegative() || line.DiscountPercent.GreaterThan(hundred) {
			h.respondError(c, "SaveOrder", sales.ErrInvalidAmount)
			return
		}
		order.Details = append(order.Details, models.OrderDetail{
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			PriceUSD:        line.PriceUSD.Round(2),
			DiscountPercent: line.DiscountPercent.Round(2),
		})
	}

	// Header and lines land together
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&order).Error
	})
	if err != nil {
		h.respondError(c, "SaveOrder", err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) ListOrders(c *gin.Context) {
	page := utils.GetPage(c)
	q := h.DB.WithContext(c.Request.Context()).Model(&models.Order{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		h.respondError(c, "ListOrders", err)
		return
	}
	var orders []models.Order
	if err := q.Scopes(page.Scope).Preload("Customer").Preload("Details").
		Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		h.respondError(c, "ListOrders", err)
		return
	}
	c.JSON(http.StatusOK, utils.NewPageResult(orders, total, page))
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "GetOrder", errInvalidID)
		return
	}
	var order models.Order
	if err := h.DB.WithContext(c.Request.Context()).
		Preload("Customer").Preload("Details.Product").
		First(&order, id).Error; err != nil {
		h.respondError(c, "GetOrder", err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) DeleteOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "DeleteOrder", errInvalidID)
		return
	}
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderDetail{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return sales.ErrOrderNotFound
		}
		return nil
	})
	if err != nil {
		h.respondError(c, "DeleteOrder", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}
