package sales

import (
	"context"
	"errors"
	"testing"

	"go-pos-backoffice/internal/models"
)

func creditSale(t *testing.T, f *fixture) *models.Sale {
	t.Helper()
	sale, err := f.svc.Finalize(context.Background(), f.cart(2, true))
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return sale
}

func TestPayCreditPartialForeign(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10, "100")
	sale := creditSale(t, f)

	res, err := f.svc.PayCredit(ctx, PayCreditRequest{
		SaleID:   sale.ID,
		UserID:   1,
		Payments: []TenderedPayment{{PaymentMethodID: f.usdCash.ID, Amount: dec("100")}},
	})
	if err != nil {
		t.Fatalf("PayCredit: %v", err)
	}

	assertDec(t, "amount_paid", res.Sale.AmountPaid, "100")
	assertDec(t, "igtf_amount", res.Sale.IGTFAmount, "3")
	assertDec(t, "balance", res.Sale.Balance(), "103")
	if res.Sale.Status != models.SaleStatusPartiallyPaid {
		t.Errorf("status = %s, want partially_paid", res.Sale.Status)
	}

	if len(res.CreditPayments) != 1 {
		t.Fatalf("credit payments = %d, want 1", len(res.CreditPayments))
	}
	cp := res.CreditPayments[0]
	assertDec(t, "amount_usd", cp.AmountUSD, "100")
	assertDec(t, "amount_ves", cp.AmountVES, "3850")
	assertDec(t, "igtf", cp.IGTFAmount, "3")
	if cp.ExchangeRateID != f.rate.ID {
		t.Errorf("rate = %d, want %d", cp.ExchangeRateID, f.rate.ID)
	}

	var customer models.Customer
	f.reload(t, &customer, f.customer.ID)
	assertDec(t, "outstanding_balance", customer.OutstandingBalance, "97")
}

func TestPayCreditLocalThenComplete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10, "100")
	sale := creditSale(t, f)

	// 3850 VES at 38.5 is 100 USD without surcharge.
	res, err := f.svc.PayCredit(ctx, PayCreditRequest{
		SaleID:   sale.ID,
		Payments: []TenderedPayment{{PaymentMethodID: f.mobile.ID, Amount: dec("3850"), Reference: "0102-555"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	assertDec(t, "amount_paid", res.Sale.AmountPaid, "100")
	assertDec(t, "igtf_amount", res.Sale.IGTFAmount, "0")
	if res.Sale.Status != models.SaleStatusPartiallyPaid {
		t.Errorf("status = %s, want partially_paid", res.Sale.Status)
	}

	res, err = f.svc.PayCredit(ctx, PayCreditRequest{
		SaleID:   sale.ID,
		Payments: []TenderedPayment{{PaymentMethodID: f.mobile.ID, Amount: dec("3850"), Reference: "0102-556"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Sale.Status != models.SaleStatusCompleted {
		t.Errorf("status = %s, want completed", res.Sale.Status)
	}
	assertDec(t, "balance", res.Sale.Balance(), "0")
	if len(res.Sale.CreditPayments) != 2 {
		t.Errorf("history = %d payments, want 2", len(res.Sale.CreditPayments))
	}

	var customer models.Customer
	f.reload(t, &customer, f.customer.ID)
	assertDec(t, "outstanding_balance", customer.OutstandingBalance, "0")

	_, err = f.svc.PayCredit(ctx, PayCreditRequest{
		SaleID:   sale.ID,
		Payments: []TenderedPayment{{PaymentMethodID: f.usdCash.ID, Amount: dec("1")}},
	})
	if !errors.Is(err, ErrSaleNotPayable) {
		t.Errorf("paying a completed sale: err = %v, want ErrSaleNotPayable", err)
	}
}

func TestPayCreditOverpaymentClampsBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10, "100")
	sale := creditSale(t, f)

	res, err := f.svc.PayCredit(ctx, PayCreditRequest{
		SaleID: sale.ID,
		Payments: []TenderedPayment{
			{PaymentMethodID: f.usdCash.ID, Amount: dec("150")},
			{PaymentMethodID: f.usdCash.ID, Amount: dec("150")},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.Sale.Status != models.SaleStatusCompleted {
		t.Errorf("status = %s, want completed", res.Sale.Status)
	}
	assertDec(t, "igtf_amount", res.Sale.IGTFAmount, "9")
	assertDec(t, "amount_paid", res.Sale.AmountPaid, "209")
	assertDec(t, "balance", res.Sale.Balance(), "0")

	var customer models.Customer
	f.reload(t, &customer, f.customer.ID)
	assertDec(t, "outstanding_balance", customer.OutstandingBalance, "0")
}

func TestPayCreditIdempotentReplay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10, "100")
	sale := creditSale(t, f)

	req := PayCreditRequest{
		SaleID:         sale.ID,
		Payments:       []TenderedPayment{{PaymentMethodID: f.usdCash.ID, Amount: dec("50")}},
		IdempotencyKey: "abono-7",
	}
	if _, err := f.svc.PayCredit(ctx, req); err != nil {
		t.Fatal(err)
	}
	res, err := f.svc.PayCredit(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	assertDec(t, "amount_paid", res.Sale.AmountPaid, "50")

	var count int64
	f.db.Model(&models.CreditPayment{}).Count(&count)
	if count != 1 {
		t.Errorf("credit payments = %d, want 1", count)
	}
}

func TestPayCreditSameKeyOnAnotherSale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10, "100")
	first := creditSale(t, f)
	second := creditSale(t, f)

	pay := func(saleID uint, amount string) *SettlementResult {
		t.Helper()
		res, err := f.svc.PayCredit(ctx, PayCreditRequest{
			SaleID:         saleID,
			Payments:       []TenderedPayment{{PaymentMethodID: f.usdCash.ID, Amount: dec(amount)}},
			IdempotencyKey: "k1",
		})
		if err != nil {
			t.Fatalf("pay sale %d: %v", saleID, err)
		}
		return res
	}

	pay(first.ID, "50")
	res := pay(second.ID, "80")
	if res.Sale.ID != second.ID {
		t.Fatalf("result for sale %d, want %d", res.Sale.ID, second.ID)
	}
	assertDec(t, "amount_paid", res.Sale.AmountPaid, "80")
	if res.Sale.Status != models.SaleStatusPartiallyPaid {
		t.Errorf("status = %s, want partially_paid", res.Sale.Status)
	}

	var count int64
	f.db.Model(&models.CreditPayment{}).Where("sale_id = ?", second.ID).Count(&count)
	if count != 1 {
		t.Errorf("credit payments on second sale = %d, want 1", count)
	}

	// The key still replays on the sale it was first used for.
	again := pay(first.ID, "50")
	assertDec(t, "first sale amount_paid", again.Sale.AmountPaid, "50")
}

func TestPayCreditRejects(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture, saleID uint) PayCreditRequest
		wantErr error
	}{
		{
			name: "no payments",
			setup: func(f *fixture, saleID uint) PayCreditRequest {
				return PayCreditRequest{SaleID: saleID}
			},
			wantErr: ErrNoPayments,
		},
		{
			name: "zero amount",
			setup: func(f *fixture, saleID uint) PayCreditRequest {
				return PayCreditRequest{SaleID: saleID, Payments: []TenderedPayment{{PaymentMethodID: f.usdCash.ID, Amount: dec("0")}}}
			},
			wantErr: ErrInvalidAmount,
		},
		{
			name: "unknown sale",
			setup: func(f *fixture, saleID uint) PayCreditRequest {
				return PayCreditRequest{SaleID: 999, Payments: []TenderedPayment{{PaymentMethodID: f.usdCash.ID, Amount: dec("10")}}}
			},
			wantErr: ErrSaleNotFound,
		},
		{
			name: "missing reference",
			setup: func(f *fixture, saleID uint) PayCreditRequest {
				return PayCreditRequest{SaleID: saleID, Payments: []TenderedPayment{{PaymentMethodID: f.mobile.ID, Amount: dec("10")}}}
			},
			wantErr: ErrReferenceRequired,
		},
		{
			name: "unknown method",
			setup: func(f *fixture, saleID uint) PayCreditRequest {
				return PayCreditRequest{SaleID: saleID, Payments: []TenderedPayment{{PaymentMethodID: 999, Amount: dec("10")}}}
			},
			wantErr: ErrPaymentMethodNotFound,
		},
		{
			name: "no exchange rate",
			setup: func(f *fixture, saleID uint) PayCreditRequest {
				f.db.Model(&models.Sale{}).Where("id = ?", saleID).Update("exchange_rate_id", nil)
				f.db.Where("1 = 1").Delete(&models.ExchangeRate{})
				return PayCreditRequest{SaleID: saleID, Payments: []TenderedPayment{{PaymentMethodID: f.usdCash.ID, Amount: dec("10")}}}
			},
			wantErr: ErrNoExchangeRate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 10, "100")
			sale := creditSale(t, f)

			_, err := f.svc.PayCredit(context.Background(), tt.setup(f, sale.ID))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}

			var got models.Sale
			f.reload(t, &got, sale.ID)
			if got.Status != models.SaleStatusPendingCredit {
				t.Errorf("status = %s, want pending_credit", got.Status)
			}
			var count int64
			f.db.Model(&models.CreditPayment{}).Count(&count)
			if count != 0 {
				t.Errorf("credit payments = %d, want 0", count)
			}
		})
	}
}

func TestPayCreditRejectsCashSale(t *testing.T) {
	f := newFixture(t, 10, "10")
	sale, err := f.svc.Finalize(context.Background(), f.cart(1, false))
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.svc.PayCredit(context.Background(), PayCreditRequest{
		SaleID:   sale.ID,
		Payments: []TenderedPayment{{PaymentMethodID: f.usdCash.ID, Amount: dec("1")}},
	})
	if !errors.Is(err, ErrSaleNotPayable) {
		t.Errorf("err = %v, want ErrSaleNotPayable", err)
	}
}
