package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go-pos-backoffice/internal/database"
	"go-pos-backoffice/internal/middleware"
	"go-pos-backoffice/internal/models"
	"go-pos-backoffice/internal/receipt"
	"go-pos-backoffice/internal/sales"
	"go-pos-backoffice/internal/utils"

	"github.com/gin-gonic/gin"
)

const idempotencyHeader = "Idempotency-Key"

// --- POST: /api/checkout ---
func (h *Handler) Checkout(c *gin.Context) {
	var req sales.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	req.UserID = middleware.CurrentUserID(c)
	req.IdempotencyKey = strings.TrimSpace(c.GetHeader(idempotencyHeader))

	sale, err := h.Sales.Finalize(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "Checkout", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Sale successful!",
		"sale_id": sale.ID,
		"sale":    sale,
	})
}

// --- POST: /api/sales/:id/payments (credit settlement) ---
func (h *Handler) PayCredit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "PayCredit", errInvalidID)
		return
	}
	var req sales.PayCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	req.SaleID = id
	req.UserID = middleware.CurrentUserID(c)
	req.IdempotencyKey = strings.TrimSpace(c.GetHeader(idempotencyHeader))

	result, err := h.Sales.PayCredit(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, "PayCredit", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- GET: /api/sales?status=&customer_id=&page= ---
func (h *Handler) ListSales(c *gin.Context) {
	page := utils.GetPage(c)
	q := h.DB.WithContext(c.Request.Context()).Model(&models.Sale{})
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		q = q.Where("customer_id = ?", customerID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		h.respondError(c, "ListSales", err)
		return
	}
	var list []models.Sale
	if err := q.Scopes(page.Scope).Preload("Customer").Order("date_added DESC, id DESC").Find(&list).Error; err != nil {
		h.respondError(c, "ListSales", err)
		return
	}
	c.JSON(http.StatusOK, utils.NewPageResult(list, total, page))
}

func (h *Handler) GetSale(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "GetSale", errInvalidID)
		return
	}
	sale, err := h.Sales.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "GetSale", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sale": sale, "balance": sale.Balance()})
}

func (h *Handler) PendingCreditSales(c *gin.Context) {
	list, err := database.PendingCreditSales(c.Request.Context(), h.DB)
	if err != nil {
		h.respondError(c, "PendingCreditSales", err)
		return
	}
	if list == nil {
		list = []models.Sale{}
	}
	c.JSON(http.StatusOK, list)
}

// --- GET: /api/sales/:id/payments ---
func (h *Handler) ListCreditPayments(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "ListCreditPayments", errInvalidID)
		return
	}
	sale, err := h.Sales.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "ListCreditPayments", err)
		return
	}
	payments := sale.CreditPayments
	if payments == nil {
		payments = []models.CreditPayment{}
	}
	c.JSON(http.StatusOK, gin.H{
		"sale_id":         sale.ID,
		"status":          sale.Status,
		"balance":         sale.Balance(),
		"credit_payments": payments,
	})
}

// --- GET: /api/sales/:id/receipt (PDF) ---
func (h *Handler) SaleReceipt(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "SaleReceipt", errInvalidID)
		return
	}
	ctx := c.Request.Context()
	sale, err := h.Sales.Get(ctx, id)
	if err != nil {
		h.respondError(c, "SaleReceipt", err)
		return
	}
	company, err := database.GetCompany(ctx, h.DB)
	if err != nil {
		h.respondError(c, "SaleReceipt", err)
		return
	}

	var buf bytes.Buffer
	if err := receipt.Write(&buf, sale, company); err != nil {
		h.respondError(c, "SaleReceipt", err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="receipt-%d.pdf"`, sale.ID))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// --- GET: /api/sales/close?date=YYYY-MM-DD ---
func (h *Handler) DailyClose(c *gin.Context) {
	loc := h.Config.Location
	day := time.Now().In(loc)
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			badRequest(c, "date must be in YYYY-MM-DD format")
			return
		}
		day = parsed
	}

	report, err := database.DailyCashClose(c.Request.Context(), h.DB, day, loc)
	if err != nil {
		h.respondError(c, "DailyClose", err)
		return
	}
	c.JSON(http.StatusOK, report)
}
