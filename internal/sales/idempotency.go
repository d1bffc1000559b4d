package sales

import (
	"context"
	"errors"
	"fmt"

	"go-pos-backoffice/internal/models"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const (
	scopeCheckout      = "checkout"
	scopeCreditPayment = "credit_payment"
)

// creditPaymentScope keys installments per sale, so a key reused on
// another sale is a new request.
func creditPaymentScope(saleID uint) string {
	return fmt.Sprintf("%s:%d", scopeCreditPayment, saleID)
}

// claimKey reserves (scope, key) inside tx. A key that is already taken
// aborts the transaction with errDuplicateRequest.
func claimKey(tx *gorm.DB, scope, key string) (*models.IdempotencyKey, error) {
	if key == "" {
		return nil, nil
	}
	rec := &models.IdempotencyKey{Scope: scope, Key: key}
	if err := tx.Create(rec).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, errDuplicateRequest
		}
		return nil, err
	}
	return rec, nil
}

func bindKey(tx *gorm.DB, rec *models.IdempotencyKey, resourceID uint) error {
	if rec == nil {
		return nil
	}
	return tx.Model(rec).Update("resource_id", resourceID).Error
}

// replayedResource returns the resource created by an earlier request with the same key.
func (s *Service) replayedResource(ctx context.Context, scope, key string) (uint, bool, error) {
	if key == "" {
		return 0, false, nil
	}
	var rec models.IdempotencyKey
	err := s.db.WithContext(ctx).Where(&models.IdempotencyKey{Scope: scope, Key: key}).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rec.ResourceID, rec.ResourceID != 0, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
