package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleStatus string

const (
	SaleStatusCompleted     SaleStatus = "completed"
	SaleStatusPendingCredit SaleStatus = "pending_credit"
	SaleStatusPartiallyPaid SaleStatus = "partially_paid"
)

// Sale - The Transaction Header
type Sale struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	DateAdded      time.Time       `gorm:"not null;index" json:"date_added"`
	CustomerID     uint            `gorm:"not null;index" json:"customer_id"`
	Customer       *Customer       `gorm:"constraint:OnDelete:RESTRICT" json:"customer,omitempty"`
	UserID         uint            `gorm:"index" json:"user_id"` // Who processed it
	ExchangeRateID *uint           `json:"exchange_rate_id"`
	ExchangeRate   *ExchangeRate   `json:"exchange_rate,omitempty"`
	SubTotal       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"sub_total"`
	GrandTotal     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"grand_total"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax_amount"`
	TaxPercentage  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"tax_percentage"`
	IGTFAmount     decimal.Decimal `gorm:"column:igtf_amount;type:decimal(12,2);not null;default:0" json:"igtf_amount"`
	TotalVES       decimal.Decimal `gorm:"column:total_ves;type:decimal(14,2);not null;default:0" json:"total_ves"`
	IsCredit       bool            `gorm:"not null;default:false;index" json:"is_credit"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount_paid"`
	AmountChange   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"amount_change"`
	Status         SaleStatus      `gorm:"size:20;not null;index" json:"status"`
	Details        []SaleDetail    `gorm:"foreignKey:SaleID" json:"details,omitempty"`
	Payments       []Payment       `gorm:"foreignKey:SaleID" json:"payments,omitempty"`
	CreditPayments []CreditPayment `gorm:"foreignKey:SaleID" json:"credit_payments,omitempty"`
}

// Balance is what is still owed: grand total plus IGTF minus what was paid.
func (s Sale) Balance() decimal.Decimal {
	return s.GrandTotal.Add(s.IGTFAmount).Sub(s.AmountPaid)
}

// IsPayable reports whether credit payments can still be applied.
func (s Sale) IsPayable() bool {
	return s.IsCredit && (s.Status == SaleStatusPendingCredit || s.Status == SaleStatusPartiallyPaid)
}

func (s Sale) ItemCount() int {
	n := 0
	for _, d := range s.Details {
		n += d.Quantity
	}
	return n
}

// SaleDetail - one line of a finalized sale
type SaleDetail struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	SaleID      uint            `gorm:"not null;index" json:"sale_id"`
	ProductID   uint            `gorm:"not null;index" json:"product_id"`
	Product     *Product        `gorm:"constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"` // Snapshot of price at time of sale
	Quantity    int             `gorm:"not null" json:"quantity"`
	TotalDetail decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_detail"`
}

// Payment - tendered when a non-credit sale is finalized
type Payment struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	SaleID          uint            `gorm:"not null;index" json:"sale_id"`
	PaymentMethodID uint            `gorm:"not null;index" json:"payment_method_id"`
	PaymentMethod   *PaymentMethod  `gorm:"constraint:OnDelete:RESTRICT" json:"payment_method,omitempty"`
	Amount          decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Reference       string          `gorm:"size:100" json:"reference"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
}

// CreditPayment - one installment applied later against a credit sale
type CreditPayment struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	SaleID          uint            `gorm:"not null;index" json:"sale_id"`
	PaymentDate     time.Time       `gorm:"not null;index" json:"payment_date"`
	AmountUSD       decimal.Decimal `gorm:"column:amount_usd;type:decimal(12,2);not null" json:"amount_usd"`
	AmountVES       decimal.Decimal `gorm:"column:amount_ves;type:decimal(14,2);not null" json:"amount_ves"`
	IGTFAmount      decimal.Decimal `gorm:"column:igtf_amount;type:decimal(12,2);not null;default:0" json:"igtf_amount"`
	ExchangeRateID  uint            `gorm:"not null" json:"exchange_rate_id"`
	ExchangeRate    *ExchangeRate   `json:"exchange_rate,omitempty"`
	PaymentMethodID uint            `gorm:"not null;index" json:"payment_method_id"`
	PaymentMethod   *PaymentMethod  `gorm:"constraint:OnDelete:RESTRICT" json:"payment_method,omitempty"`
	Reference       string          `gorm:"size:100" json:"reference"`
	UserID          uint            `json:"user_id"`
}
