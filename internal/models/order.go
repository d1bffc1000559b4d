package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is a saved cart that has not been checked out yet.
type Order struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	CustomerID *uint         `gorm:"index" json:"customer_id"`
	Customer   *Customer     `gorm:"constraint:OnDelete:SET NULL" json:"customer,omitempty"`
	UserID     uint          `gorm:"not null;index" json:"user_id"`
	Details    []OrderDetail `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"details"`
	CreatedAt  time.Time     `json:"created_at"`
}

type OrderDetail struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         uint            `gorm:"not null;index" json:"order_id"`
	ProductID       uint            `gorm:"not null" json:"product_id"`
	Product         *Product        `json:"product,omitempty"`
	Quantity        int             `gorm:"not null" json:"quantity"`
	PriceUSD        decimal.Decimal `gorm:"column:price_usd;type:decimal(12,2);not null" json:"price_usd"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount_percent"`
}
