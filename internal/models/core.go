package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	Name              string `gorm:"size:100;not null" json:"name"`
	IsForeignCurrency bool   `gorm:"not null;default:false" json:"is_foreign_currency"`
	RequiresReference bool   `gorm:"not null;default:false" json:"requires_reference"`
}

// ExchangeRate is the USD→VES rate for one calendar date.
type ExchangeRate struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Date       time.Time       `gorm:"type:date;uniqueIndex;not null" json:"date"`
	RateUSDVES decimal.Decimal `gorm:"column:rate_usd_ves;type:decimal(12,4);not null" json:"rate_usd_ves"`
	UserID     *uint           `json:"user_id"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Company is a singleton holding the business identity and the IGTF rate.
type Company struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"size:256;not null" json:"name"`
	TaxID          string          `gorm:"size:20" json:"tax_id"`
	Address        string          `gorm:"type:text" json:"address"`
	LogoURL        string          `gorm:"size:512" json:"logo_url"`
	IGTFPercentage decimal.Decimal `gorm:"column:igtf_percentage;type:decimal(5,2);not null;default:0" json:"igtf_percentage"`
}
