package database

import (
	"context"
	"errors"
	"time"

	"go-pos-backoffice/internal/models"

	"gorm.io/gorm"
)

const (
	latestRateKey = "exchange_rate:latest"
	latestRateTTL = 10 * time.Minute
)

// LatestExchangeRate returns the most recent rate by date, using the cache
// when one is configured. gorm.ErrRecordNotFound when no rate exists.
func LatestExchangeRate(ctx context.Context, db *gorm.DB, cache *Cache) (*models.ExchangeRate, error) {
	var rate models.ExchangeRate
	if found, err := cache.GetObject(ctx, latestRateKey, &rate); err == nil && found {
		return &rate, nil
	}

	if err := db.WithContext(ctx).Order("date DESC, id DESC").First(&rate).Error; err != nil {
		return nil, err
	}
	_ = cache.SetObject(ctx, latestRateKey, rate, latestRateTTL)
	return &rate, nil
}

func InvalidateLatestRate(ctx context.Context, cache *Cache) error {
	return cache.Delete(ctx, latestRateKey)
}

// GetCompany returns the singleton company row, or nil when it has not
// been configured yet.
func GetCompany(ctx context.Context, db *gorm.DB) (*models.Company, error) {
	var company models.Company
	err := db.WithContext(ctx).Order("id ASC").First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &company, nil
}
