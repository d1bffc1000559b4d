package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go-pos-backoffice/internal/models"
	"go-pos-backoffice/internal/sales"
	"go-pos-backoffice/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const customerSearchLimit = 10

type CustomerInput struct {
	FirstName   string          `json:"first_name" binding:"required,max=256"`
	LastName    string          `json:"last_name" binding:"max=256"`
	Address     string          `json:"address" binding:"max=256"`
	Email       string          `json:"email" binding:"omitempty,email"`
	Phone       string          `json:"phone"`
	TaxID       string          `json:"tax_id" binding:"max=20"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
}

func (in CustomerInput) apply(cu *models.Customer) error {
	if in.CreditLimit.IsNegative() {
		return &sales.ValidationError{Err: sales.ErrInvalidAmount, Details: "credit_limit cannot be negative"}
	}
	phone, err := utils.NormalizePhone(in.Phone)
	if err != nil {
		return err
	}
	cu.FirstName = strings.TrimSpace(in.FirstName)
	cu.LastName = strings.TrimSpace(in.LastName)
	cu.Address = in.Address
	cu.Email = in.Email
	cu.Phone = phone
	cu.CreditLimit = in.CreditLimit.Round(2)
	cu.TaxID = nil
	if taxID := strings.ToUpper(strings.TrimSpace(in.TaxID)); taxID != "" {
		cu.TaxID = &taxID
	}
	return nil
}

func (h *Handler) ListCustomers(c *gin.Context) {
	page := utils.GetPage(c)
	q := h.DB.WithContext(c.Request.Context()).Model(&models.Customer{})
	if term := strings.TrimSpace(c.Query("term")); term != "" {
		q = customerTerm(q, term)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		h.respondError(c, "ListCustomers", err)
		return
	}
	var customers []models.Customer
	if err := q.Scopes(page.Scope).Order("first_name ASC, last_name ASC").Find(&customers).Error; err != nil {
		h.respondError(c, "ListCustomers", err)
		return
	}
	c.JSON(http.StatusOK, utils.NewPageResult(customers, total, page))
}

func customerTerm(q *gorm.DB, term string) *gorm.DB {
	like := "%" + strings.ToLower(term) + "%"
	return q.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(tax_id) LIKE ?", like, like, like)
}

type SearchItem struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

// --- GET: /api/customers/search?term= (typeahead) ---
func (h *Handler) SearchCustomers(c *gin.Context) {
	term := strings.TrimSpace(c.Query("term"))
	items := []SearchItem{}
	if term == "" {
		c.JSON(http.StatusOK, items)
		return
	}

	var customers []models.Customer
	if err := customerTerm(h.DB.WithContext(c.Request.Context()), term).
		Order("first_name ASC").
		Limit(customerSearchLimit).
		Find(&customers).Error; err != nil {
		h.respondError(c, "SearchCustomers", err)
		return
	}
	for _, cu := range customers {
		text := cu.FullName()
		if cu.TaxID != nil {
			text = fmt.Sprintf("%s (%s)", text, *cu.TaxID)
		}
		items = append(items, SearchItem{ID: cu.ID, Text: text})
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetCustomer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "GetCustomer", errInvalidID)
		return
	}
	var customer models.Customer
	if err := h.DB.WithContext(c.Request.Context()).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = sales.ErrCustomerNotFound
		}
		h.respondError(c, "GetCustomer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) CreateCustomer(c *gin.Context) {
	var input CustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	var customer models.Customer
	if err := input.apply(&customer); err != nil {
		h.respondError(c, "CreateCustomer", err)
		return
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "A customer with this tax ID already exists"})
			return
		}
		h.respondError(c, "CreateCustomer", err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// UpdateCustomer edits contact data. The outstanding balance only moves
// through sales and credit payments.
func (h *Handler) UpdateCustomer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "UpdateCustomer", errInvalidID)
		return
	}
	var input CustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	var customer models.Customer
	if err := db.First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = sales.ErrCustomerNotFound
		}
		h.respondError(c, "UpdateCustomer", err)
		return
	}
	if err := input.apply(&customer); err != nil {
		h.respondError(c, "UpdateCustomer", err)
		return
	}
	if err := db.Model(&customer).
		Select("first_name", "last_name", "address", "email", "phone", "tax_id", "credit_limit").
		Updates(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "A customer with this tax ID already exists"})
			return
		}
		h.respondError(c, "UpdateCustomer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *Handler) DeleteCustomer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "DeleteCustomer", errInvalidID)
		return
	}
	db := h.DB.WithContext(c.Request.Context())

	var count int64
	if err := db.Model(&models.Sale{}).Where("customer_id = ?", id).Count(&count).Error; err != nil {
		h.respondError(c, "DeleteCustomer", err)
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Customer has sales and cannot be deleted"})
		return
	}

	res := db.Delete(&models.Customer{}, id)
	if res.Error != nil {
		h.respondError(c, "DeleteCustomer", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		h.respondError(c, "DeleteCustomer", sales.ErrCustomerNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}

// --- GET: /api/customers/:id/sales (purchase history) ---
func (h *Handler) CustomerHistory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "CustomerHistory", errInvalidID)
		return
	}
	page := utils.GetPage(c)
	q := h.DB.WithContext(c.Request.Context()).Model(&models.Sale{}).Where("customer_id = ?", id)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		h.respondError(c, "CustomerHistory", err)
		return
	}
	var history []models.Sale
	if err := q.Scopes(page.Scope).Order("date_added DESC, id DESC").Find(&history).Error; err != nil {
		h.respondError(c, "CustomerHistory", err)
		return
	}
	c.JSON(http.StatusOK, utils.NewPageResult(history, total, page))
}
