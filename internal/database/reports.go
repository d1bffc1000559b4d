package database

import (
	"context"
	"sort"
	"time"

	"go-pos-backoffice/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesReportResult holds revenue and sale count for a period
type SalesReportResult struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalIGTF    decimal.Decimal `json:"total_igtf"`
	TotalCount   int64           `json:"total_count"`
}

type totalRow struct {
	Total decimal.Decimal
}

// GetSalesReport calculates sales within [start, end)
func GetSalesReport(ctx context.Context, db *gorm.DB, start, end time.Time) (*SalesReportResult, error) {
	var row struct {
		Revenue decimal.Decimal
		IGTF    decimal.Decimal
		Count   int64
	}

	// COALESCE ensures we get 0 instead of NULL if no sales exist
	err := db.WithContext(ctx).Model(&models.Sale{}).
		Where("date_added >= ? AND date_added < ?", start, end).
		Select("COALESCE(SUM(grand_total), 0) AS revenue, COALESCE(SUM(igtf_amount), 0) AS igtf, COUNT(*) AS count").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &SalesReportResult{TotalRevenue: row.Revenue, TotalIGTF: row.IGTF, TotalCount: row.Count}, nil
}

type TopProduct struct {
	ProductID    uint            `json:"product_id"`
	ProductName  string          `json:"product_name"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

type DashboardData struct {
	Year           int               `json:"year"`
	MonthlyRevenue []decimal.Decimal `json:"monthly_revenue"`
	AnnualRevenue  decimal.Decimal   `json:"annual_revenue"`
	AverageMonthly decimal.Decimal   `json:"average_monthly"`
	ProductCount   int64             `json:"product_count"`
	CategoryCount  int64             `json:"category_count"`
	TopProducts    []TopProduct      `json:"top_products"`
	RecentSales    []models.Sale     `json:"recent_sales"`
}

// Dashboard aggregates revenue per month of year (in loc), catalog sizes,
// the three best sellers by quantity and the ten most recent sales.
func Dashboard(ctx context.Context, db *gorm.DB, year int, loc *time.Location) (*DashboardData, error) {
	if loc == nil {
		loc = time.UTC
	}
	db = db.WithContext(ctx)
	data := &DashboardData{Year: year, MonthlyRevenue: make([]decimal.Decimal, 12)}

	// 1. Revenue per month
	for m := 0; m < 12; m++ {
		start := time.Date(year, time.Month(m+1), 1, 0, 0, 0, 0, loc)
		end := start.AddDate(0, 1, 0)
		var row totalRow
		if err := db.Model(&models.Sale{}).
			Where("date_added >= ? AND date_added < ?", start, end).
			Select("COALESCE(SUM(grand_total), 0) AS total").
			Scan(&row).Error; err != nil {
			return nil, err
		}
		data.MonthlyRevenue[m] = row.Total
		data.AnnualRevenue = data.AnnualRevenue.Add(row.Total)
	}
	data.AverageMonthly = data.AnnualRevenue.DivRound(decimal.NewFromInt(12), 2)

	// 2. Catalog size
	if err := db.Model(&models.Product{}).Count(&data.ProductCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Category{}).Count(&data.CategoryCount).Error; err != nil {
		return nil, err
	}

	// 3. Top 3 best sellers
	if err := db.Table("sale_details").
		Select("products.id AS product_id, products.name AS product_name, SUM(sale_details.quantity) AS quantity_sold, COALESCE(SUM(sale_details.total_detail), 0) AS revenue").
		Joins("JOIN products ON sale_details.product_id = products.id").
		Group("products.id, products.name").
		Order("quantity_sold DESC").
		Limit(3).
		Scan(&data.TopProducts).Error; err != nil {
		return nil, err
	}

	// 4. Recent transactions
	if err := db.Preload("Customer").
		Order("date_added DESC, id DESC").
		Limit(10).
		Find(&data.RecentSales).Error; err != nil {
		return nil, err
	}

	return data, nil
}

// PendingCreditSales lists credit sales with money still owed, oldest first.
func PendingCreditSales(ctx context.Context, db *gorm.DB) ([]models.Sale, error) {
	var sales []models.Sale
	err := db.WithContext(ctx).
		Preload("Customer").
		Where("is_credit = ? AND status <> ?", true, models.SaleStatusCompleted).
		Order("date_added ASC, id ASC").
		Find(&sales).Error
	return sales, err
}

type MethodTotal struct {
	PaymentMethodID   uint            `json:"payment_method_id"`
	Name              string          `json:"name"`
	IsForeignCurrency bool            `json:"is_foreign_currency"`
	Count             int64           `json:"count"`
	Amount            decimal.Decimal `json:"amount"`
}

type CreditMethodTotal struct {
	PaymentMethodID uint            `json:"payment_method_id"`
	Name            string          `json:"name"`
	Count           int64           `json:"count"`
	AmountUSD       decimal.Decimal `json:"amount_usd"`
	AmountVES       decimal.Decimal `json:"amount_ves"`
	IGTFAmount      decimal.Decimal `json:"igtf_amount"`
}

type CashClose struct {
	Date             string              `json:"date"`
	SalesCount       int64               `json:"sales_count"`
	GrandTotal       decimal.Decimal     `json:"grand_total"`
	IGTFTotal        decimal.Decimal     `json:"igtf_total"`
	CreditSalesTotal decimal.Decimal     `json:"credit_sales_total"`
	Payments         []MethodTotal       `json:"payments"`
	CreditPayments   []CreditMethodTotal `json:"credit_payments"`
}

// DailyCashClose summarizes one calendar day (in loc) for the register.
func DailyCashClose(ctx context.Context, db *gorm.DB, day time.Time, loc *time.Location) (*CashClose, error) {
	if loc == nil {
		loc = time.UTC
	}
	db = db.WithContext(ctx)
	day = day.In(loc)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	out := &CashClose{Date: start.Format("2006-01-02")}

	report, err := GetSalesReport(ctx, db, start, end)
	if err != nil {
		return nil, err
	}
	out.SalesCount = report.TotalCount
	out.GrandTotal = report.TotalRevenue
	out.IGTFTotal = report.TotalIGTF

	var credit totalRow
	if err := db.Model(&models.Sale{}).
		Where("date_added >= ? AND date_added < ? AND is_credit = ?", start, end, true).
		Select("COALESCE(SUM(grand_total), 0) AS total").
		Scan(&credit).Error; err != nil {
		return nil, err
	}
	out.CreditSalesTotal = credit.Total

	if err := db.Table("payments").
		Select("payment_methods.id AS payment_method_id, payment_methods.name AS name, payment_methods.is_foreign_currency AS is_foreign_currency, COUNT(*) AS count, COALESCE(SUM(payments.amount), 0) AS amount").
		Joins("JOIN payment_methods ON payments.payment_method_id = payment_methods.id").
		Joins("JOIN sales ON payments.sale_id = sales.id").
		Where("sales.date_added >= ? AND sales.date_added < ?", start, end).
		Group("payment_methods.id, payment_methods.name, payment_methods.is_foreign_currency").
		Order("payment_methods.name").
		Scan(&out.Payments).Error; err != nil {
		return nil, err
	}

	if err := db.Table("credit_payments").
		Select("payment_methods.id AS payment_method_id, payment_methods.name AS name, COUNT(*) AS count, COALESCE(SUM(credit_payments.amount_usd), 0) AS amount_usd, COALESCE(SUM(credit_payments.amount_ves), 0) AS amount_ves, COALESCE(SUM(credit_payments.igtf_amount), 0) AS igtf_amount").
		Joins("JOIN payment_methods ON credit_payments.payment_method_id = payment_methods.id").
		Where("credit_payments.payment_date >= ? AND credit_payments.payment_date < ?", start, end).
		Group("payment_methods.id, payment_methods.name").
		Order("payment_methods.name").
		Scan(&out.CreditPayments).Error; err != nil {
		return nil, err
	}

	return out, nil
}

// InventoryItem represents a single product row of the inventory report
type InventoryItem struct {
	ProductID  uint            `json:"product_id"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	Stock      int             `json:"stock"`
	StockMin   int             `json:"stock_min"`
	LowStock   bool            `json:"low_stock"`
	PriceUSD   decimal.Decimal `json:"price_usd"`
	StockValue decimal.Decimal `json:"stock_value"`
}

// CategoryGroup is one category section of the report
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []InventoryItem `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type InventoryReport struct {
	Categories    []CategoryGroup `json:"categories"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
	LowStockCount int             `json:"low_stock_count"`
}

// BuildInventoryReport values every product's stock at its USD price,
// grouped by category name.
func BuildInventoryReport(ctx context.Context, db *gorm.DB) (*InventoryReport, error) {
	var products []models.Product
	if err := db.WithContext(ctx).Preload("Category").Order("name ASC").Find(&products).Error; err != nil {
		return nil, err
	}

	report := &InventoryReport{}
	grouped := make(map[string]*CategoryGroup)
	for _, p := range products {
		catName := "Uncategorized"
		if p.Category != nil {
			catName = p.Category.Name
		}
		group, ok := grouped[catName]
		if !ok {
			group = &CategoryGroup{CategoryName: catName, Items: []InventoryItem{}}
			grouped[catName] = group
		}

		value := p.PriceUSD.Mul(decimal.NewFromInt(int64(p.Stock))).Round(2)
		group.Items = append(group.Items, InventoryItem{
			ProductID:  p.ID,
			SKU:        p.SKU,
			Name:       p.Name,
			Stock:      p.Stock,
			StockMin:   p.StockMin,
			LowStock:   p.IsLowStock(),
			PriceUSD:   p.PriceUSD,
			StockValue: value,
		})
		group.Subtotal = group.Subtotal.Add(value)
		report.GrandTotal = report.GrandTotal.Add(value)
		if p.IsLowStock() {
			report.LowStockCount++
		}
	}

	for _, group := range grouped {
		report.Categories = append(report.Categories, *group)
	}
	sort.Slice(report.Categories, func(i, j int) bool {
		return report.Categories[i].CategoryName < report.Categories[j].CategoryName
	})
	return report, nil
}

// LowStockProducts lists products at or under their minimum.
func LowStockProducts(ctx context.Context, db *gorm.DB) ([]models.Product, error) {
	var products []models.Product
	err := db.WithContext(ctx).
		Preload("Category").
		Where("stock <= stock_min").
		Order("stock ASC, name ASC").
		Find(&products).Error
	return products, err
}
