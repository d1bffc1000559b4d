package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:256;not null" json:"name"`
	Description string `gorm:"size:256" json:"description"`
	Status      string `gorm:"size:20;not null;default:ACTIVE" json:"status"`
	// Prefix is the 3-letter code SKUs in this category start with.
	Prefix string `gorm:"size:3;uniqueIndex;not null" json:"prefix"`
}

type Supplier struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:256;not null" json:"name"`
	TaxID   string `gorm:"size:20;uniqueIndex;not null" json:"tax_id"`
	Phone   string `gorm:"size:20" json:"phone"`
	Email   string `gorm:"size:256" json:"email"`
	Address string `gorm:"type:text" json:"address"`
}

// Product - The Inventory
type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SKU         string          `gorm:"size:20;uniqueIndex" json:"sku"`
	Name        string          `gorm:"size:256;not null" json:"name"`
	Description string          `gorm:"size:256" json:"description"`
	Status      string          `gorm:"size:20;not null;default:ACTIVE" json:"status"`
	CategoryID  uint            `gorm:"not null;index" json:"category_id"`
	Category    *Category       `gorm:"constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	SupplierID  *uint           `gorm:"index" json:"supplier_id"`
	Supplier    *Supplier       `gorm:"constraint:OnDelete:RESTRICT" json:"supplier,omitempty"`
	PriceUSD    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"price_usd"`
	Stock       int             `gorm:"not null;default:0" json:"stock"`
	StockMin    int             `gorm:"not null;default:0" json:"stock_min"`
	PhotoURL    string          `gorm:"size:512" json:"photo_url"`
	AppliesIVA  bool            `gorm:"not null;default:false" json:"applies_iva"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p Product) IsLowStock() bool {
	return p.Stock <= p.StockMin
}

// InventoryMovement is an append-only record of one stock change.
type InventoryMovement struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	ProductID    uint         `gorm:"not null;index" json:"product_id"`
	Product      *Product     `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	MovementType MovementType `gorm:"size:10;not null" json:"movement_type"`
	Quantity     int          `gorm:"not null" json:"quantity"`
	StockBefore  int          `gorm:"not null" json:"stock_before"`
	StockAfter   int          `gorm:"not null" json:"stock_after"`
	UserID       *uint        `gorm:"index" json:"user_id"`
	SaleID       *uint        `gorm:"index" json:"sale_id"`
	Reason       string       `gorm:"size:255" json:"reason"`
	CreatedAt    time.Time    `gorm:"index" json:"created_at"`
}
