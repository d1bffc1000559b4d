package catalog

import (
	"context"
	"errors"

	"go-pos-backoffice/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockAdjustment struct {
	ProductID uint
	Type      models.MovementType
	// Quantity is positive for in/out and a signed delta for adjustment.
	Quantity int
	Reason   string
	UserID   *uint
	SaleID   *uint
}

func (a StockAdjustment) delta() (int, error) {
	switch a.Type {
	case models.MovementIn:
		if a.Quantity <= 0 {
			return 0, ErrInvalidQuantity
		}
		return a.Quantity, nil
	case models.MovementOut:
		if a.Quantity <= 0 {
			return 0, ErrInvalidQuantity
		}
		return -a.Quantity, nil
	case models.MovementAdjustment:
		if a.Quantity == 0 {
			return 0, ErrInvalidQuantity
		}
		return a.Quantity, nil
	default:
		return 0, ErrInvalidMovementType
	}
}

// AdjustStock applies one stock change and records it as an
// InventoryMovement. It must run inside the caller's transaction.
// Stock never goes below zero.
func AdjustStock(ctx context.Context, tx *gorm.DB, in StockAdjustment) (*models.InventoryMovement, error) {
	delta, err := in.delta()
	if err != nil {
		return nil, err
	}

	// 1. Lock the row
	var product models.Product
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, in.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if product.Stock+delta < 0 {
		return nil, ErrInsufficientStock
	}

	// 2. Apply atomically, guarded against concurrent writers
	res := tx.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock + ? >= 0", product.ID, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInsufficientStock
	}

	// 3. Record the movement
	movement := models.InventoryMovement{
		ProductID:    product.ID,
		MovementType: in.Type,
		Quantity:     in.Quantity,
		StockBefore:  product.Stock,
		StockAfter:   product.Stock + delta,
		UserID:       in.UserID,
		SaleID:       in.SaleID,
		Reason:       in.Reason,
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}
