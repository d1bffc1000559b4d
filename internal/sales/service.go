package sales

import (
	"context"
	"errors"
	"time"

	"go-pos-backoffice/internal/config"
	"go-pos-backoffice/internal/database"
	"go-pos-backoffice/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const moduleName = "sales"

// Service turns carts into sales and applies credit payments to them.
type Service struct {
	db       *gorm.DB
	cache    *database.Cache
	logger   *logrus.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService builds the service. cache may be nil.
func NewService(db *gorm.DB, cache *database.Cache, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = config.GetLogger()
	}
	return &Service{
		db:       db,
		cache:    cache,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Get loads a sale with its lines and payments.
func (s *Service) Get(ctx context.Context, id uint) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("ExchangeRate").
		Preload("Details.Product").
		Preload("Payments.PaymentMethod").
		Preload("CreditPayments", func(db *gorm.DB) *gorm.DB { return db.Order("payment_date ASC, id ASC") }).
		Preload("CreditPayments.PaymentMethod").
		First(&sale, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Service) validateInput(v interface{}) error {
	if err := s.validate.Struct(v); err != nil {
		return &ValidationError{Err: ErrInvalidInput, Details: err.Error()}
	}
	return nil
}

// logUnexpected records errors that are not part of the domain vocabulary.
func (s *Service) logUnexpected(funcName, msg string, data any, err error) {
	var vErr *ValidationError
	switch {
	case err == nil, errors.As(err, &vErr), isDomainError(err):
		return
	}
	config.LogError(s.logger, moduleName, funcName, msg, data, err)
}

func isDomainError(err error) bool {
	for _, target := range []error{
		ErrEmptyCart, ErrInvalidInput, ErrTotalsMismatch, ErrPaymentRequired,
		ErrReferenceRequired, ErrCreditLimitExceeded, ErrCustomerNotFound,
		ErrPaymentMethodNotFound, ErrOrderNotFound, ErrSaleNotFound,
		ErrSaleNotPayable, ErrNoExchangeRate, ErrNoPayments, ErrInvalidAmount,
		ErrInsufficientStock, ErrProductNotFound, database.ErrLockNotObtained,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
