package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	FirstName string `gorm:"size:256;not null" json:"first_name"`
	LastName  string `gorm:"size:256" json:"last_name"`
	Address   string `gorm:"size:256" json:"address"`
	Email     string `gorm:"size:256" json:"email"`
	Phone     string `gorm:"size:30" json:"phone"`
	// TaxID is NULL when empty so the unique index only covers real values.
	TaxID              *string         `gorm:"size:20;uniqueIndex" json:"tax_id"`
	CreditLimit        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"credit_limit"`
	OutstandingBalance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"outstanding_balance"`
}

func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// CanTakeCredit reports whether amount fits in the credit limit.
// A zero limit means no limit has been configured.
func (c Customer) CanTakeCredit(amount decimal.Decimal) bool {
	if !c.CreditLimit.IsPositive() {
		return true
	}
	return c.OutstandingBalance.Add(amount).LessThanOrEqual(c.CreditLimit)
}
