package models

import (
	"time"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

// User - The person operating the back office
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"` // Never return this in JSON
	Role         string    `gorm:"size:10;not null;default:cashier" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// IdempotencyKey makes a write replay-safe. Unique on (scope, key).
type IdempotencyKey struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Scope      string    `gorm:"size:50;not null;uniqueIndex:uniq_idem" json:"scope"`
	Key        string    `gorm:"size:255;not null;uniqueIndex:uniq_idem" json:"key"`
	ResourceID uint      `json:"resource_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// All lists every table in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Company{},
		&PaymentMethod{},
		&ExchangeRate{},
		&Category{},
		&Supplier{},
		&Product{},
		&Customer{},
		&Sale{},
		&SaleDetail{},
		&Payment{},
		&CreditPayment{},
		&InventoryMovement{},
		&Order{},
		&OrderDetail{},
		&IdempotencyKey{},
	}
}
