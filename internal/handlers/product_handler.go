package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"go-pos-backoffice/internal/catalog"
	"go-pos-backoffice/internal/middleware"
	"go-pos-backoffice/internal/models"
	"go-pos-backoffice/internal/storage"
	"go-pos-backoffice/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductInput struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name" binding:"required,max=256"`
	Description string          `json:"description" binding:"max=256"`
	Status      string          `json:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
	CategoryID  uint            `json:"category_id" binding:"required"`
	SupplierID  *uint           `json:"supplier_id"`
	PriceUSD    decimal.Decimal `json:"price_usd"`
	StockMin    int             `json:"stock_min" binding:"min=0"`
	AppliesIVA  bool            `json:"applies_iva"`
}

func (in ProductInput) apply(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	if in.Status != "" {
		p.Status = in.Status
	}
	p.CategoryID = in.CategoryID
	p.SupplierID = in.SupplierID
	p.PriceUSD = in.PriceUSD.Round(2)
	p.StockMin = in.StockMin
	p.AppliesIVA = in.AppliesIVA
}

// --- GET: /api/products?term=&category_id=&page=&page_size= ---
func (h *Handler) ListProducts(c *gin.Context) {
	page := utils.GetPage(c)
	q := h.DB.WithContext(c.Request.Context()).Model(&models.Product{})
	if term := strings.TrimSpace(c.Query("term")); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		q = q.Where("category_id = ?", categoryID)
	}
	if c.Query("active") == "true" {
		q = q.Where("status = ?", models.StatusActive)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		h.respondError(c, "ListProducts", err)
		return
	}
	var products []models.Product
	if err := q.Scopes(page.Scope).Preload("Category").Order("name ASC").Find(&products).Error; err != nil {
		h.respondError(c, "ListProducts", err)
		return
	}
	c.JSON(http.StatusOK, utils.NewPageResult(products, total, page))
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "GetProduct", errInvalidID)
		return
	}
	var product models.Product
	if err := h.DB.WithContext(c.Request.Context()).Preload("Category").Preload("Supplier").First(&product, id).Error; err != nil {
		h.respondError(c, "GetProduct", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- POST: Add a new product ---
func (h *Handler) CreateProduct(c *gin.Context) {
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	if input.PriceUSD.IsNegative() {
		badRequest(c, "price_usd cannot be negative")
		return
	}

	product := models.Product{SKU: strings.ToUpper(strings.TrimSpace(input.SKU))}
	input.apply(&product)
	if err := catalog.CreateProduct(c.Request.Context(), h.DB, &product); err != nil {
		h.respondError(c, "CreateProduct", err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// --- PUT: Update product data (stock moves through /stock) ---
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "UpdateProduct", errInvalidID)
		return
	}
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}
	if input.PriceUSD.IsNegative() {
		badRequest(c, "price_usd cannot be negative")
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		h.respondError(c, "UpdateProduct", err)
		return
	}
	input.apply(&product)
	if err := db.Model(&product).
		Select("name", "description", "status", "category_id", "supplier_id", "price_usd", "stock_min", "applies_iva").
		Updates(&product).Error; err != nil {
		h.respondError(c, "UpdateProduct", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- DELETE: Remove a product ---
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "DeleteProduct", errInvalidID)
		return
	}
	res := h.DB.WithContext(c.Request.Context()).Delete(&models.Product{}, id)
	if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
		c.JSON(http.StatusConflict, gin.H{"error": "Could not delete product. It is linked to past sales or stock movements."})
		return
	}
	if res.Error != nil {
		h.respondError(c, "DeleteProduct", res.Error)
		return
	}
	if res.RowsAffected == 0 {
		h.respondError(c, "DeleteProduct", catalog.ErrProductNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

type StockInput struct {
	Type     models.MovementType `json:"movement_type" binding:"required,oneof=in out adjustment"`
	Quantity int                 `json:"quantity"`
	Reason   string              `json:"reason" binding:"max=255"`
}

// --- POST: /api/products/:id/stock ---
func (h *Handler) AdjustStock(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "AdjustStock", errInvalidID)
		return
	}
	var input StockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err.Error())
		return
	}

	var userID *uint
	if uid := middleware.CurrentUserID(c); uid != 0 {
		userID = &uid
	}
	var movement *models.InventoryMovement
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var err error
		movement, err = catalog.AdjustStock(c.Request.Context(), tx, catalog.StockAdjustment{
			ProductID: id,
			Type:      input.Type,
			Quantity:  input.Quantity,
			Reason:    input.Reason,
			UserID:    userID,
		})
		return err
	})
	if err != nil {
		h.respondError(c, "AdjustStock", err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

// --- GET: /api/products/:id/movements ---
func (h *Handler) ListMovements(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "ListMovements", errInvalidID)
		return
	}
	page := utils.GetPage(c)
	q := h.DB.WithContext(c.Request.Context()).Model(&models.InventoryMovement{}).Where("product_id = ?", id)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		h.respondError(c, "ListMovements", err)
		return
	}
	var movements []models.InventoryMovement
	if err := q.Scopes(page.Scope).Order("created_at DESC, id DESC").Find(&movements).Error; err != nil {
		h.respondError(c, "ListMovements", err)
		return
	}
	c.JSON(http.StatusOK, utils.NewPageResult(movements, total, page))
}

// readImage pulls the "file" form field and turns it into a bounded JPEG.
func readImage(c *gin.Context) ([]byte, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, storage.ErrNotAnImage
	}
	if file.Size > storage.MaxUploadSize {
		return nil, storage.ErrTooLarge
	}
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, storage.MaxUploadSize+1))
	if err != nil {
		return nil, err
	}
	return storage.PrepareImage(data)
}

// --- UPLOAD: /api/products/:id/photo ---
func (h *Handler) UploadProductPhoto(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		h.respondError(c, "UploadProductPhoto", errInvalidID)
		return
	}
	ctx := c.Request.Context()
	var product models.Product
	if err := h.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		h.respondError(c, "UploadProductPhoto", err)
		return
	}

	data, err := readImage(c)
	if err != nil {
		h.respondError(c, "UploadProductPhoto", err)
		return
	}
	url, err := h.Uploader.Save(ctx, storage.ObjectName("products"), data, "image/jpeg")
	if err != nil {
		h.respondError(c, "UploadProductPhoto", err)
		return
	}
	if err := h.DB.WithContext(ctx).Model(&product).Update("photo_url", url).Error; err != nil {
		h.respondError(c, "UploadProductPhoto", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"url":     url,
	})
}
