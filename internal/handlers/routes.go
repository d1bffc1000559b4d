package handlers

import (
	"net/http"

	"go-pos-backoffice/internal/config"
	"go-pos-backoffice/internal/middleware"
	"go-pos-backoffice/internal/models"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the public endpoints and the JWT protected /api group.
func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	r.POST("/login", h.Login)
	if h.Config.StorageProvider != config.StorageProviderGCS {
		r.Static("/uploads", h.Config.UploadDir)
	}

	// --- FEATURE FLAG: first-admin registration ---
	if h.Config.AllowRegistration {
		r.POST("/register", h.Register)
		h.Logger.Warn("Registration route is OPEN. Disable this in production!")
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		// STAFF & ADMIN
		staff := api.Group("")
		staff.Use(middleware.RequireRole(models.RoleAdmin, models.RoleCashier))
		{
			staff.GET("/me", h.Me)

			staff.GET("/products", h.ListProducts)
			staff.GET("/products/:id", h.GetProduct)
			staff.GET("/categories", h.ListCategories)
			staff.GET("/categories/:id", h.GetCategory)

			staff.GET("/customers", h.ListCustomers)
			staff.GET("/customers/search", h.SearchCustomers)
			staff.GET("/customers/:id", h.GetCustomer)
			staff.GET("/customers/:id/sales", h.CustomerHistory)
			staff.POST("/customers", h.CreateCustomer)
			staff.PUT("/customers/:id", h.UpdateCustomer)

			staff.GET("/payment-methods", h.ListPaymentMethods)
			staff.GET("/exchange-rates/latest", h.LatestExchangeRate)
			staff.GET("/company", h.GetCompany)

			staff.POST("/checkout", h.Checkout)
			staff.GET("/sales", h.ListSales)
			staff.GET("/sales/pending", h.PendingCreditSales)
			staff.GET("/sales/close", h.DailyClose)
			staff.GET("/sales/:id", h.GetSale)
			staff.GET("/sales/:id/receipt", h.SaleReceipt)
			staff.GET("/sales/:id/payments", h.ListCreditPayments)
			staff.POST("/sales/:id/payments", h.PayCredit)

			staff.POST("/orders", h.SaveOrder)
			staff.GET("/orders", h.ListOrders)
			staff.GET("/orders/:id", h.GetOrder)
			staff.DELETE("/orders/:id", h.DeleteOrder)
		}

		// ADMIN ONLY
		admin := api.Group("")
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/ask", h.AskAI)

			admin.GET("/users", h.ListUsers)
			admin.POST("/users", h.Register)

			admin.POST("/products", h.CreateProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)
			admin.POST("/products/:id/photo", h.UploadProductPhoto)
			admin.POST("/products/:id/stock", h.AdjustStock)
			admin.GET("/products/:id/movements", h.ListMovements)

			admin.POST("/categories", h.CreateCategory)
			admin.PUT("/categories/:id", h.UpdateCategory)
			admin.DELETE("/categories/:id", h.DeleteCategory)

			admin.GET("/suppliers", h.ListSuppliers)
			admin.GET("/suppliers/:id", h.GetSupplier)
			admin.POST("/suppliers", h.CreateSupplier)
			admin.PUT("/suppliers/:id", h.UpdateSupplier)
			admin.DELETE("/suppliers/:id", h.DeleteSupplier)

			admin.DELETE("/customers/:id", h.DeleteCustomer)

			admin.POST("/payment-methods", h.CreatePaymentMethod)
			admin.PUT("/payment-methods/:id", h.UpdatePaymentMethod)
			admin.DELETE("/payment-methods/:id", h.DeletePaymentMethod)

			admin.GET("/exchange-rates", h.ListExchangeRates)
			admin.POST("/exchange-rates", h.CreateExchangeRate)

			admin.PUT("/company", h.SaveCompany)
			admin.POST("/company/logo", h.UploadCompanyLogo)

			admin.GET("/reports/dashboard", h.Dashboard)
			admin.GET("/reports/sales", h.SalesReport)
			admin.GET("/reports/inventory", h.InventoryReport)
			admin.GET("/reports/inventory/export", h.ExportInventory)
			admin.GET("/reports/low-stock", h.LowStock)
		}
	}
}
