package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go-pos-backoffice/internal/models"

	"gorm.io/gorm"
)

// NormalizePrefix upper-cases and validates a 3-letter category SKU prefix.
func NormalizePrefix(prefix string) (string, error) {
	p := strings.ToUpper(strings.TrimSpace(prefix))
	if len(p) != 3 {
		return "", ErrInvalidPrefix
	}
	for _, r := range p {
		if r < 'A' || r > 'Z' {
			return "", ErrInvalidPrefix
		}
	}
	return p, nil
}

// NextSKU returns the next free SKU in the category: prefix followed by a
// 4-digit sequence one above the highest existing one.
func NextSKU(ctx context.Context, tx *gorm.DB, category models.Category) (string, error) {
	var last models.Product
	err := tx.WithContext(ctx).
		Select("sku").
		Where("category_id = ? AND sku LIKE ?", category.ID, category.Prefix+"%").
		Order("LENGTH(sku) DESC, sku DESC").
		First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return formatSKU(category.Prefix, 1), nil
	}
	if err != nil {
		return "", err
	}

	n, err := strconv.Atoi(strings.TrimPrefix(last.SKU, category.Prefix))
	if err != nil {
		// Hand-edited SKU; fall back to the product count.
		var count int64
		if err := tx.WithContext(ctx).Model(&models.Product{}).
			Where("category_id = ?", category.ID).
			Count(&count).Error; err != nil {
			return "", err
		}
		return formatSKU(category.Prefix, int(count)+1), nil
	}
	return formatSKU(category.Prefix, n+1), nil
}

func formatSKU(prefix string, n int) string {
	return fmt.Sprintf("%s%04d", prefix, n)
}

// CreateProduct saves p, generating its SKU when none was given.
func CreateProduct(ctx context.Context, db *gorm.DB, p *models.Product) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, p.CategoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}

		if strings.TrimSpace(p.SKU) == "" {
			sku, err := NextSKU(ctx, tx, category)
			if err != nil {
				return fmt.Errorf("generate sku: %w", err)
			}
			p.SKU = sku
		}
		if p.Status == "" {
			p.Status = models.StatusActive
		}
		p.PriceUSD = p.PriceUSD.Round(2)
		return tx.Create(p).Error
	})
}
