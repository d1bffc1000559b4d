package catalog

import (
	"context"
	"errors"
	"testing"

	"go-pos-backoffice/internal/database/testdb"
	"go-pos-backoffice/internal/models"

	"gorm.io/gorm"
)

func seedProduct(t *testing.T, db *gorm.DB, stock int) models.Product {
	t.Helper()
	cat := models.Category{Name: "General", Prefix: "GEN"}
	if err := db.Create(&cat).Error; err != nil {
		t.Fatal(err)
	}
	p := models.Product{Name: "Widget", SKU: "GEN0001", CategoryID: cat.ID, Stock: stock}
	if err := db.Create(&p).Error; err != nil {
		t.Fatal(err)
	}
	return p
}

func TestAdjustStock(t *testing.T) {
	tests := []struct {
		name      string
		in        StockAdjustment
		wantStock int
		wantErr   error
	}{
		{name: "in", in: StockAdjustment{Type: models.MovementIn, Quantity: 5}, wantStock: 15},
		{name: "out", in: StockAdjustment{Type: models.MovementOut, Quantity: 4}, wantStock: 6},
		{name: "out all", in: StockAdjustment{Type: models.MovementOut, Quantity: 10}, wantStock: 0},
		{name: "out too many", in: StockAdjustment{Type: models.MovementOut, Quantity: 11}, wantStock: 10, wantErr: ErrInsufficientStock},
		{name: "adjust down", in: StockAdjustment{Type: models.MovementAdjustment, Quantity: -3}, wantStock: 7},
		{name: "adjust up", in: StockAdjustment{Type: models.MovementAdjustment, Quantity: 2}, wantStock: 12},
		{name: "adjust below zero", in: StockAdjustment{Type: models.MovementAdjustment, Quantity: -20}, wantStock: 10, wantErr: ErrInsufficientStock},
		{name: "zero in", in: StockAdjustment{Type: models.MovementIn, Quantity: 0}, wantStock: 10, wantErr: ErrInvalidQuantity},
		{name: "bad type", in: StockAdjustment{Type: "gift", Quantity: 1}, wantStock: 10, wantErr: ErrInvalidMovementType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db := testdb.Open(t)
			p := seedProduct(t, db, 10)

			tt.in.ProductID = p.ID
			tt.in.Reason = "count"
			var mv *models.InventoryMovement
			err := db.Transaction(func(tx *gorm.DB) error {
				var err error
				mv, err = AdjustStock(ctx, tx, tt.in)
				return err
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}

			var got models.Product
			db.First(&got, p.ID)
			if got.Stock != tt.wantStock {
				t.Errorf("stock = %d, want %d", got.Stock, tt.wantStock)
			}

			var count int64
			db.Model(&models.InventoryMovement{}).Count(&count)
			if tt.wantErr != nil {
				if count != 0 {
					t.Errorf("movements = %d, want 0", count)
				}
				return
			}
			if count != 1 {
				t.Fatalf("movements = %d, want 1", count)
			}
			if mv.StockBefore != 10 || mv.StockAfter != tt.wantStock {
				t.Errorf("movement before/after = %d/%d, want 10/%d", mv.StockBefore, mv.StockAfter, tt.wantStock)
			}
		})
	}
}

func TestAdjustStockUnknownProduct(t *testing.T) {
	db := testdb.Open(t)
	_, err := AdjustStock(context.Background(), db, StockAdjustment{ProductID: 42, Type: models.MovementIn, Quantity: 1})
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("err = %v, want ErrProductNotFound", err)
	}
}
