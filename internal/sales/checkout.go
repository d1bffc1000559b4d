package sales

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go-pos-backoffice/internal/catalog"
	"go-pos-backoffice/internal/database"
	"go-pos-backoffice/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartLine struct {
	ProductID   uint            `json:"product_id" validate:"required"`
	Quantity    int             `json:"quantity" validate:"gt=0"`
	Price       decimal.Decimal `json:"price"`
	TotalDetail decimal.Decimal `json:"total_detail"`
}

type TenderedPayment struct {
	PaymentMethodID uint            `json:"payment_method_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount"`
	Reference       string          `json:"reference" validate:"max=100"`
}

// CheckoutRequest is a cart being turned into a sale. Totals are computed
// by the register and checked for consistency here.
type CheckoutRequest struct {
	CustomerID     uint              `json:"customer_id" validate:"required"`
	UserID         uint              `json:"-"`
	Lines          []CartLine        `json:"lines" validate:"dive"`
	SubTotal       decimal.Decimal   `json:"sub_total"`
	GrandTotal     decimal.Decimal   `json:"grand_total"`
	TaxAmount      decimal.Decimal   `json:"tax_amount"`
	TaxPercentage  decimal.Decimal   `json:"tax_percentage"`
	IGTFAmount     decimal.Decimal   `json:"igtf_amount"`
	TotalVES       decimal.Decimal   `json:"total_ves"`
	AmountChange   decimal.Decimal   `json:"amount_change"`
	IsCredit       bool              `json:"is_credit"`
	Payments       []TenderedPayment `json:"payments" validate:"dive"`
	OrderID        *uint             `json:"order_id"`
	IdempotencyKey string            `json:"-" validate:"max=255"`
}

func (r CheckoutRequest) check() error {
	if len(r.Lines) == 0 {
		return ErrEmptyCart
	}

	sum := decimal.Zero
	for i, line := range r.Lines {
		if line.Price.IsNegative() || line.TotalDetail.IsNegative() {
			return &ValidationError{Err: ErrInvalidAmount, Details: fmt.Sprintf("line %d has a negative amount", i+1)}
		}
		expected := line.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		if !withinTolerance(expected, line.TotalDetail) {
			return &ValidationError{
				Err:     ErrTotalsMismatch,
				Details: fmt.Sprintf("line %d total %s, expected %s", i+1, line.TotalDetail.StringFixed(2), expected.StringFixed(2)),
			}
		}
		sum = sum.Add(line.TotalDetail)
	}

	if !withinTolerance(sum, r.SubTotal) {
		return &ValidationError{
			Err:     ErrTotalsMismatch,
			Details: fmt.Sprintf("sub total %s, lines add up to %s", r.SubTotal.StringFixed(2), sum.StringFixed(2)),
		}
	}
	if !withinTolerance(r.SubTotal.Add(r.TaxAmount), r.GrandTotal) {
		return &ValidationError{
			Err:     ErrTotalsMismatch,
			Details: fmt.Sprintf("grand total %s, expected sub total plus tax %s", r.GrandTotal.StringFixed(2), r.SubTotal.Add(r.TaxAmount).StringFixed(2)),
		}
	}
	for _, d := range []decimal.Decimal{r.TaxAmount, r.TaxPercentage, r.IGTFAmount, r.TotalVES, r.AmountChange} {
		if d.IsNegative() {
			return &ValidationError{Err: ErrInvalidAmount, Details: "totals cannot be negative"}
		}
	}

	if !r.IsCredit {
		if len(r.Payments) == 0 {
			return ErrPaymentRequired
		}
		for _, p := range r.Payments {
			if !p.Amount.IsPositive() {
				return ErrInvalidAmount
			}
		}
	}
	return nil
}

// Finalize persists the cart as a sale in one transaction: header, lines,
// immediate payments, stock decrements with their movements and, for
// credit sales, the customer balance increase. A repeated idempotency key
// returns the sale created the first time.
func (s *Service) Finalize(ctx context.Context, req CheckoutRequest) (*models.Sale, error) {
	if err := req.check(); err != nil {
		return nil, err
	}
	if err := s.validateInput(req); err != nil {
		return nil, err
	}

	if id, ok, err := s.replayedResource(ctx, scopeCheckout, req.IdempotencyKey); err != nil {
		return nil, err
	} else if ok {
		return s.Get(ctx, id)
	}

	var saleID uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		key, err := claimKey(tx, scopeCheckout, req.IdempotencyKey)
		if err != nil {
			return err
		}

		sale, err := s.finalize(ctx, tx, req)
		if err != nil {
			return err
		}
		saleID = sale.ID
		return bindKey(tx, key, sale.ID)
	})
	if errors.Is(err, errDuplicateRequest) {
		id, ok, rerr := s.replayedResource(ctx, scopeCheckout, req.IdempotencyKey)
		if rerr != nil {
			return nil, rerr
		}
		if !ok {
			return nil, &ValidationError{Err: ErrInvalidInput, Details: "request with this idempotency key is still in progress"}
		}
		return s.Get(ctx, id)
	}
	if err != nil {
		s.logUnexpected("Finalize", "checkout transaction", req.CustomerID, err)
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"module":  moduleName,
		"sale_id": saleID,
		"credit":  req.IsCredit,
	}).Info("sale finalized")
	return s.Get(ctx, saleID)
}

func (s *Service) finalize(ctx context.Context, tx *gorm.DB, req CheckoutRequest) (*models.Sale, error) {
	// 1. Customer (locked when the balance will change)
	var customer models.Customer
	q := tx
	if req.IsCredit {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&customer, req.CustomerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}

	grand := round2(req.GrandTotal)
	igtf := round2(req.IGTFAmount)
	if req.IsCredit && !customer.CanTakeCredit(grand) {
		return nil, &ValidationError{
			Err: ErrCreditLimitExceeded,
			Details: fmt.Sprintf("outstanding %s + %s exceeds limit %s",
				customer.OutstandingBalance.StringFixed(2), grand.StringFixed(2), customer.CreditLimit.StringFixed(2)),
		}
	}

	// 2. Payment methods
	if !req.IsCredit {
		for _, p := range req.Payments {
			if err := checkMethod(tx, p); err != nil {
				return nil, err
			}
		}
	}

	// 3. Exchange rate in force
	sale := &models.Sale{
		DateAdded:     s.now(),
		CustomerID:    customer.ID,
		UserID:        req.UserID,
		SubTotal:      round2(req.SubTotal),
		GrandTotal:    grand,
		TaxAmount:     round2(req.TaxAmount),
		TaxPercentage: round2(req.TaxPercentage),
		IGTFAmount:    igtf,
		TotalVES:      round2(req.TotalVES),
		AmountChange:  round2(req.AmountChange),
		IsCredit:      req.IsCredit,
	}
	rate, err := database.LatestExchangeRate(ctx, tx, s.cache)
	switch {
	case err == nil:
		sale.ExchangeRateID = &rate.ID
		if sale.TotalVES.IsZero() {
			sale.TotalVES = round2(grand.Mul(rate.RateUSDVES))
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return nil, err
	}

	if req.IsCredit {
		sale.Status = models.SaleStatusPendingCredit
		sale.AmountPaid = decimal.Zero
		sale.AmountChange = decimal.Zero
	} else {
		sale.Status = models.SaleStatusCompleted
		sale.AmountPaid = grand.Add(igtf)
	}

	// 4. Header
	if err := tx.Create(sale).Error; err != nil {
		return nil, err
	}

	// 5. Lines and stock, locked in product order
	lines := make([]CartLine, len(req.Lines))
	copy(lines, req.Lines)
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	userID := &req.UserID
	if req.UserID == 0 {
		userID = nil
	}
	for _, line := range lines {
		if _, err := catalog.AdjustStock(ctx, tx, catalog.StockAdjustment{
			ProductID: line.ProductID,
			Type:      models.MovementOut,
			Quantity:  line.Quantity,
			Reason:    fmt.Sprintf("Sale #%d", sale.ID),
			UserID:    userID,
			SaleID:    &sale.ID,
		}); err != nil {
			if errors.Is(err, catalog.ErrInsufficientStock) {
				return nil, &ValidationError{Err: ErrInsufficientStock, Details: fmt.Sprintf("product %d", line.ProductID)}
			}
			return nil, err
		}

		detail := models.SaleDetail{
			SaleID:      sale.ID,
			ProductID:   line.ProductID,
			Price:       round2(line.Price),
			Quantity:    line.Quantity,
			TotalDetail: round2(line.TotalDetail),
		}
		if err := tx.Create(&detail).Error; err != nil {
			return nil, err
		}
	}

	// 6. Payments or credit
	if req.IsCredit {
		if err := tx.Model(&models.Customer{}).
			Where("id = ?", customer.ID).
			Update("outstanding_balance", gorm.Expr("outstanding_balance + ?", grand)).Error; err != nil {
			return nil, err
		}
	} else {
		for _, p := range req.Payments {
			payment := models.Payment{
				SaleID:          sale.ID,
				PaymentMethodID: p.PaymentMethodID,
				Amount:          round2(p.Amount),
				Reference:       p.Reference,
			}
			if err := tx.Create(&payment).Error; err != nil {
				return nil, err
			}
		}
	}

	// 7. The draft this sale came from is done
	if req.OrderID != nil {
		if err := tx.Where("order_id = ?", *req.OrderID).Delete(&models.OrderDetail{}).Error; err != nil {
			return nil, err
		}
		res := tx.Where("id = ?", *req.OrderID).Delete(&models.Order{})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, ErrOrderNotFound
		}
	}

	return sale, nil
}

func checkMethod(tx *gorm.DB, p TenderedPayment) error {
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
	return nil
}
