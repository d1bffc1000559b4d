package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go-pos-backoffice/internal/database"
	"go-pos-backoffice/internal/middleware"
	"go-pos-backoffice/internal/models"
	"go-pos-backoffice/internal/storage"
	"go-pos-backoffice/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// --- PAYMENT METHODS ---

type PaymentMethodInput struct {
	Name              string `json:"name" binding:"required,max=100"`
	IsForeignCurrency bool   `json:"is_foreign_currency"`
	RequiresReference bool   `json:"requires_reference"`
}

func (h *Handler) ListPaymentMethods(c *gin.Context) {
	var methods []models.PaymentMethod
	if err := h.DB.WithContext(c.Request.Context()).Order("name ASC").Find(&methods).Error; err != nil {
		h.respondError(c, "ListPaymentMethods", err)
		return
	}
	c.JSON(http.StatusOK, methods)
}

func (h *Handler) CreatePaymentMethod(c *gin.Context) {
	var input PaymentMethodInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	method := models.PaymentMethod{
		Name:              strings.TrimSpace(input.Name),
		IsForeignCurrency: input.IsForeignCurrency,
		RequiresReference: input.RequiresReference,
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&method).Error; err != nil {
		h.respondError(c, "CreatePaymentMethod", err)
		return
	}
	c.JSON(http.StatusCreated, method)
}

func (h *Handler) UpdatePaymentMethod(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "UpdatePaymentMethod", errInvalidID)
		return
	}
	var input PaymentMethodInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	db := h.DB.WithContext(c.Request.Context())
	var method models.PaymentMethod
	if err := db.First(&method, id).Error; err != nil {
		h.respondError(c, "UpdatePaymentMethod", err)
		return
	}
	method.Name = strings.TrimSpace(input.Name)
	method.IsForeignCurrency = input.IsForeignCurrency
	method.RequiresReference = input.RequiresReference
	if err := db.Save(&method).Error; err != nil {
		h.respondError(c, "UpdatePaymentMethod", err)
		return
	}
	c.JSON(http.StatusOK, method)
}

func (h *Handler) DeletePaymentMethod(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "DeletePaymentMethod", errInvalidID)
		return
	}
	res := h.DB.WithContext(c.Request.Context()).Delete(&models.PaymentMethod{}, id)
	if res.Error != nil {
		h.respondError(c, "DeletePaymentMethod", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		h.respondError(c, "DeletePaymentMethod", errNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment method deleted successfully"})
}

// --- EXCHANGE RATES ---

type ExchangeRateInput struct {
	Date       string          `json:"date"`
	RateUSDVES decimal.Decimal `json:"rate_usd_ves"`
}

// --- POST: /api/exchange-rates (date defaults to today) ---
func (h *Handler) CreateExchangeRate(c *gin.Context) {
	var input ExchangeRateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !input.RateUSDVES.IsPositive() {
		badRequest(c, "rate_usd_ves must be greater than zero")
		return
	}

	now := time.Now().In(h.Config.Location)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if input.Date != "" {
		parsed, err := time.Parse(dateLayout, input.Date)
		if err != nil {
			badRequest(c, "date must be in YYYY-MM-DD format")
			return
		}
		day = parsed
	}

	rate := models.ExchangeRate{Date: day, RateUSDVES: input.RateUSDVES.Round(4)}
	if uid := middleware.CurrentUserID(c); uid != 0 {
		rate.UserID = &uid
	}
	ctx := c.Request.Context()
	if err := h.DB.WithContext(ctx).Create(&rate).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "An exchange rate for this date already exists"})
			return
		}
		h.respondError(c, "CreateExchangeRate", err)
		return
	}
	if err := database.InvalidateLatestRate(ctx, h.Cache); err != nil {
		h.Logger.WithField("module", moduleName).Warn("could not invalidate cached rate: " + err.Error())
	}
	c.JSON(http.StatusCreated, rate)
}

func (h *Handler) ListExchangeRates(c *gin.Context) {
	page := utils.GetPage(c)
	q := h.DB.WithContext(c.Request.Context()).Model(&models.ExchangeRate{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		h.respondError(c, "ListExchangeRates", err)
		return
	}
	var rates []models.ExchangeRate
	if err := q.Scopes(page.Scope).Order("date DESC, id DESC").Find(&rates).Error; err != nil {
		h.respondError(c, "ListExchangeRates", err)
		return
	}
	c.JSON(http.StatusOK, utils.NewPageResult(rates, total, page))
}

func (h *Handler) LatestExchangeRate(c *gin.Context) {
	rate, err := database.LatestExchangeRate(c.Request.Context(), h.DB, h.Cache)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No exchange rate has been registered"})
		return
	}
	if err != nil {
		h.respondError(c, "LatestExchangeRate", err)
		return
	}
	c.JSON(http.StatusOK, rate)
}

// --- COMPANY ---

type CompanyInput struct {
	Name           string          `json:"name" binding:"required,max=256"`
	TaxID          string          `json:"tax_id" binding:"max=20"`
	Address        string          `json:"address"`
	IGTFPercentage decimal.Decimal `json:"igtf_percentage"`
}

func (h *Handler) GetCompany(c *gin.Context) {
	company, err := database.GetCompany(c.Request.Context(), h.DB)
	if err != nil {
		h.respondError(c, "GetCompany", err)
		return
	}
	if company == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company data has not been configured"})
		return
	}
	c.JSON(http.StatusOK, company)
}

// --- PUT: /api/company (creates the single row the first time) ---
func (h *Handler) SaveCompany(c *gin.Context) {
	var input CompanyInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	if input.IGTFPercentage.IsNegative() || input.IGTFPercentage.GreaterThan(decimal.NewFromInt(100)) {
		badRequest(c, "igtf_percentage must be between 0 and 100")
		return
	}

	ctx := c.Request.Context()
	company, err := database.GetCompany(ctx, h.DB)
	if err != nil {
		h.respondError(c, "SaveCompany", err)
		return
	}
	if company == nil {
		company = &models.Company{}
	}
	company.Name = strings.TrimSpace(input.Name)
	company.TaxID = strings.TrimSpace(input.TaxID)
	company.Address = input.Address
	company.IGTFPercentage = input.IGTFPercentage.Round(2)
	if err := h.DB.WithContext(ctx).Save(company).Error; err != nil {
		h.respondError(c, "SaveCompany", err)
		return
	}
	c.JSON(http.StatusOK, company)
}

// --- UPLOAD: /api/company/logo ---
func (h *Handler) UploadCompanyLogo(c *gin.Context) {
	ctx := c.Request.Context()
	company, err := database.GetCompany(ctx, h.DB)
	if err != nil {
		h.respondError(c, "UploadCompanyLogo", err)
		return
	}
	if company == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Company data has not been configured"})
		return
	}

	data, err := readImage(c)
	if err != nil {
		h.respondError(c, "UploadCompanyLogo", err)
		return
	}
	url, err := h.Uploader.Save(ctx, storage.ObjectName("company"), data, "image/jpeg")
	if err != nil {
		h.respondError(c, "UploadCompanyLogo", err)
		return
	}
	if err := h.DB.WithContext(ctx).Model(company).Update("logo_url", url).Error; err != nil {
		h.respondError(c, "UploadCompanyLogo", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logo uploaded successfully", "url": url})
}
