package sales

import (
	"testing"
	"time"

	"go-pos-backoffice/internal/database/testdb"
	"go-pos-backoffice/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	svc      *Service
	customer models.Customer
	product  models.Product
	usdCash  models.PaymentMethod
	mobile   models.PaymentMethod
	rate     models.ExchangeRate
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newFixture(t *testing.T, stock int, price string) *fixture {
	t.Helper()
	db := testdb.Open(t)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	svc := NewService(db, nil, logger)
	svc.now = func() time.Time { return testNow }

	f := &fixture{db: db, svc: svc}
	cat := models.Category{Name: "General", Prefix: "GEN"}
	mustCreate(t, db, &cat)
	f.product = models.Product{Name: "Widget", SKU: "GEN0001", CategoryID: cat.ID, PriceUSD: dec(price), Stock: stock}
	mustCreate(t, db, &f.product)
	f.customer = models.Customer{FirstName: "Ana", LastName: "Pérez"}
	mustCreate(t, db, &f.customer)
	f.usdCash = models.PaymentMethod{Name: "Cash USD", IsForeignCurrency: true}
	mustCreate(t, db, &f.usdCash)
	f.mobile = models.PaymentMethod{Name: "Mobile payment", RequiresReference: true}
	mustCreate(t, db, &f.mobile)
	f.rate = models.ExchangeRate{Date: testNow.Truncate(24 * time.Hour), RateUSDVES: dec("38.5")}
	mustCreate(t, db, &f.rate)
	mustCreate(t, db, &models.Company{Name: "Bodega", IGTFPercentage: dec("3")})
	return f
}

func mustCreate(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

// cart builds a single-line request for qty units of the fixture product.
func (f *fixture) cart(qty int, credit bool) CheckoutRequest {
	total := f.product.PriceUSD.Mul(decimal.NewFromInt(int64(qty)))
	req := CheckoutRequest{
		CustomerID: f.customer.ID,
		UserID:     1,
		Lines: []CartLine{
			{ProductID: f.product.ID, Quantity: qty, Price: f.product.PriceUSD, TotalDetail: total},
		},
		SubTotal:   total,
		GrandTotal: total,
		IsCredit:   credit,
	}
	if !credit {
		req.Payments = []TenderedPayment{{PaymentMethodID: f.usdCash.ID, Amount: total}}
	}
	return req
}

func (f *fixture) reload(t *testing.T, v interface{}, id uint) {
	t.Helper()
	if err := f.db.First(v, id).Error; err != nil {
		t.Fatalf("reload %T %d: %v", v, id, err)
	}
}

func assertDec(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("%s = %s, want %s", name, got.String(), want)
	}
}
