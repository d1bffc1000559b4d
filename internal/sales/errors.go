package sales

import (
	"errors"
	"fmt"

	"go-pos-backoffice/internal/catalog"
)

var (
	ErrEmptyCart             = errors.New("cart is empty")
	ErrInvalidInput          = errors.New("invalid input")
	ErrTotalsMismatch        = errors.New("sale totals do not add up")
	ErrPaymentRequired       = errors.New("a non-credit sale needs at least one payment")
	ErrReferenceRequired     = errors.New("payment method requires a reference")
	ErrCreditLimitExceeded   = errors.New("customer credit limit exceeded")
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrSaleNotFound          = errors.New("sale not found")
	ErrSaleNotPayable        = errors.New("sale is not a pending credit sale")
	ErrNoExchangeRate        = errors.New("no exchange rate has been registered")
	ErrNoPayments            = errors.New("no payments were provided")
	ErrInvalidAmount         = errors.New("amount must be greater than zero")

	ErrInsufficientStock = catalog.ErrInsufficientStock
	ErrProductNotFound   = catalog.ErrProductNotFound

	// errDuplicateRequest rolls back a transaction that lost an idempotency race.
	errDuplicateRequest = errors.New("duplicate request")
)

// ValidationError carries the offending detail alongside a sentinel.
type ValidationError struct {
	Err     error
	Details string
}

func (e *ValidationError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Details)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
