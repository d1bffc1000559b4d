package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go-pos-backoffice/internal/database"
	"go-pos-backoffice/internal/models"
	"go-pos-backoffice/internal/reports"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/reports/dashboard?year= ---
func (h *Handler) Dashboard(c *gin.Context) {
	year := time.Now().In(h.Config.Location).Year()
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 2000 || y > 9999 {
			badRequest(c, "year is not valid")
			return
		}
		year = y
	}

	data, err := database.Dashboard(c.Request.Context(), h.DB, year, h.Config.Location)
	if err != nil {
		h.respondError(c, "Dashboard", err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// --- GET: /api/reports/sales?start=&end= (inclusive dates) ---
func (h *Handler) SalesReport(c *gin.Context) {
	loc := h.Config.Location
	start, err1 := time.ParseInLocation(dateLayout, c.Query("start"), loc)
	end, err2 := time.ParseInLocation(dateLayout, c.Query("end"), loc)
	if err1 != nil || err2 != nil || end.Before(start) {
		badRequest(c, "start and end must be dates in YYYY-MM-DD format, start first")
		return
	}

	report, err := database.GetSalesReport(c.Request.Context(), h.DB, start, end.AddDate(0, 0, 1))
	if err != nil {
		h.respondError(c, "SalesReport", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// --- GET: /api/reports/inventory ---
// Values every product's stock, grouped by category.
func (h *Handler) InventoryReport(c *gin.Context) {
	report, err := database.BuildInventoryReport(c.Request.Context(), h.DB)
	if err != nil {
		h.respondError(c, "InventoryReport", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// --- GET: /api/reports/inventory/export ---
func (h *Handler) ExportInventory(c *gin.Context) {
	report, err := database.BuildInventoryReport(c.Request.Context(), h.DB)
	if err != nil {
		h.respondError(c, "ExportInventory", err)
		return
	}

	var buf bytes.Buffer
	if err := reports.WriteInventoryExcel(&buf, report); err != nil {
		h.respondError(c, "ExportInventory", err)
		return
	}
	filename := fmt.Sprintf("inventory-%s.xlsx", time.Now().In(h.Config.Location).Format(dateLayout))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, reports.ContentTypeXLSX, buf.Bytes())
}

func (h *Handler) LowStock(c *gin.Context) {
	products, err := database.LowStockProducts(c.Request.Context(), h.DB)
	if err != nil {
		h.respondError(c, "LowStock", err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, products)
}
