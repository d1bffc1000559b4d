package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-pos-backoffice/internal/database"
	"go-pos-backoffice/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const settlementLockTTL = 30 * time.Second

type PayCreditRequest struct {
	SaleID         uint              `json:"-" validate:"required"`
	UserID         uint              `json:"-"`
	Payments       []TenderedPayment `json:"payments" validate:"dive"`
	IdempotencyKey string            `json:"-" validate:"max=255"`
}

type SettlementResult struct {
	Sale           *models.Sale           `json:"sale"`
	CreditPayments []models.CreditPayment `json:"credit_payments"`
	PaidUSD        decimal.Decimal        `json:"paid_usd"`
	PaidIGTF       decimal.Decimal        `json:"paid_igtf"`
	Balance        decimal.Decimal        `json:"balance"`
}

// PayCredit applies one or more tendered payments to a pending credit
// sale at the latest exchange rate. Sale status and customer balance
// change together or not at all.
func (s *Service) PayCredit(ctx context.Context, req PayCreditRequest) (*SettlementResult, error) {
	if len(req.Payments) == 0 {
		return nil, ErrNoPayments
	}
	for _, p := range req.Payments {
		if !p.Amount.IsPositive() {
			return nil, ErrInvalidAmount
		}
	}
	if err := s.validateInput(req); err != nil {
		return nil, err
	}

	// 1. Same key, same answer
	if _, ok, err := s.replayedResource(ctx, creditPaymentScope(req.SaleID), req.IdempotencyKey); err != nil {
		return nil, err
	} else if ok {
		return s.currentSettlement(ctx, req.SaleID)
	}

	// 2. One settlement per sale at a time across instances
	release, err := s.cache.Lock(ctx, fmt.Sprintf("settlement:sale:%d", req.SaleID), settlementLockTTL)
	if err != nil {
		s.logUnexpected("PayCredit", "could not obtain settlement lock", req.SaleID, err)
		return nil, err
	}
	defer release()

	result := &SettlementResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		key, err := claimKey(tx, creditPaymentScope(req.SaleID), req.IdempotencyKey)
		if err != nil {
			return err
		}
		if err := s.settle(ctx, tx, req, result); err != nil {
			return err
		}
		return bindKey(tx, key, req.SaleID)
	})
	if errors.Is(err, errDuplicateRequest) {
		return s.currentSettlement(ctx, req.SaleID)
	}
	if err != nil {
		s.logUnexpected("PayCredit", "settlement transaction", req.SaleID, err)
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"module":   moduleName,
		"sale_id":  req.SaleID,
		"paid_usd": result.PaidUSD.StringFixed(2),
		"status":   result.Sale.Status,
	}).Info("credit payment applied")

	sale, err := s.Get(ctx, req.SaleID)
	if err != nil {
		return nil, err
	}
	result.Sale = sale
	return result, nil
}

func (s *Service) settle(ctx context.Context, tx *gorm.DB, req PayCreditRequest, result *SettlementResult) error {
	// 1. Lock the sale
	var sale models.Sale
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sale, req.SaleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSaleNotFound
		}
		return err
	}
	if !sale.IsPayable() {
		return ErrSaleNotPayable
	}

	// 2. Rate and surcharge in force today
	rate, err := database.LatestExchangeRate(ctx, tx, s.cache)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNoExchangeRate
	}
	if err != nil {
		return err
	}
	if !rate.RateUSDVES.IsPositive() {
		return ErrNoExchangeRate
	}
	igtfPercentage := decimal.Zero
	company, err := database.GetCompany(ctx, tx)
	if err != nil {
		return err
	}
	if company != nil {
		igtfPercentage = company.IGTFPercentage
	}

	// 3. Lock the customer
	var customer models.Customer
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&customer, sale.CustomerID).Error; err != nil {
		return err
	}

	// 4. Record each installment
	now := s.now()
	paidUSD, paidIGTF := decimal.Zero, decimal.Zero
	for _, p := range req.Payments {
		var method models.PaymentMethod
		if err := tx.First(&method, p.PaymentMethodID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &ValidationError{Err: ErrPaymentMethodNotFound, Details: fmt.Sprintf("id %d", p.PaymentMethodID)}
			}
			return err
		}
		if method.RequiresReference && p.Reference == "" {
			return &ValidationError{Err: ErrReferenceRequired, Details: method.Name}
		}

		conv := ConvertPayment(p.Amount, method.IsForeignCurrency, rate.RateUSDVES, igtfPercentage)
		cp := models.CreditPayment{
			SaleID:          sale.ID,
			PaymentDate:     now,
			AmountUSD:       conv.USD,
			AmountVES:       conv.VES,
			IGTFAmount:      conv.IGTF,
			ExchangeRateID:  rate.ID,
			PaymentMethodID: method.ID,
			Reference:       p.Reference,
			UserID:          req.UserID,
		}
		if err := tx.Create(&cp).Error; err != nil {
			return err
		}
		result.CreditPayments = append(result.CreditPayments, cp)
		paidUSD = paidUSD.Add(conv.USD)
		paidIGTF = paidIGTF.Add(conv.IGTF)
	}

	// 5. Move the sale forward
	ApplySettlement(&sale, paidUSD, paidIGTF)
	if err := tx.Model(&sale).Select("amount_paid", "igtf_amount", "status").Updates(&sale).Error; err != nil {
		return err
	}

	// 6. Customer owes less
	balance := ReduceBalance(customer.OutstandingBalance, paidUSD.Add(paidIGTF))
	if err := tx.Model(&customer).Update("outstanding_balance", balance).Error; err != nil {
		return err
	}

	result.Sale = &sale
	result.PaidUSD = paidUSD
	result.PaidIGTF = paidIGTF
	result.Balance = sale.Balance()
	return nil
}

func (s *Service) currentSettlement(ctx context.Context, saleID uint) (*SettlementResult, error) {
	sale, err := s.Get(ctx, saleID)
	if err != nil {
		return nil, err
	}
	return &SettlementResult{
		Sale:           sale,
		CreditPayments: sale.CreditPayments,
		PaidUSD:        decimal.Zero,
		PaidIGTF:       decimal.Zero,
		Balance:        sale.Balance(),
	}, nil
}
