package sales

import (
	"go-pos-backoffice/internal/models"

	"github.com/shopspring/decimal"
)

var (
	hundred   = decimal.NewFromInt(100)
	tolerance = decimal.RequireFromString("0.01")
)

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Conversion is one tendered amount expressed in both currencies.
type Conversion struct {
	USD  decimal.Decimal
	VES  decimal.Decimal
	IGTF decimal.Decimal
}

// ConvertPayment converts a tendered amount at rate (VES per USD).
// Foreign-currency amounts are USD and carry the IGTF surcharge at
// igtfPercentage; local amounts are VES and carry none.
func ConvertPayment(amount decimal.Decimal, foreign bool, rate, igtfPercentage decimal.Decimal) Conversion {
	if foreign {
		return Conversion{
			USD:  round2(amount),
			VES:  round2(amount.Mul(rate)),
			IGTF: round2(amount.Mul(igtfPercentage).Div(hundred)),
		}
	}
	return Conversion{
		USD:  amount.DivRound(rate, 2),
		VES:  round2(amount),
		IGTF: decimal.Zero,
	}
}

// ApplySettlement adds a batch of credit payments to the sale and moves
// it forward: completed once nothing is owed, partially paid otherwise.
// Overpayment is absorbed so the stored balance never goes negative.
func ApplySettlement(sale *models.Sale, paidUSD, igtf decimal.Decimal) {
	sale.AmountPaid = round2(sale.AmountPaid.Add(paidUSD))
	sale.IGTFAmount = round2(sale.IGTFAmount.Add(igtf))

	if !sale.Balance().IsPositive() {
		sale.AmountPaid = sale.GrandTotal.Add(sale.IGTFAmount)
		sale.Status = models.SaleStatusCompleted
		return
	}
	sale.Status = models.SaleStatusPartiallyPaid
}

// ReduceBalance subtracts paid from a customer balance, never below zero.
func ReduceBalance(outstanding, paid decimal.Decimal) decimal.Decimal {
	next := round2(outstanding.Sub(paid))
	if next.IsNegative() {
		return decimal.Zero
	}
	return next
}

func withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
