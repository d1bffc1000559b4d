// Package receipt renders a finalized sale as a printable PDF.
package receipt

import (
	"fmt"
	"io"

	"go-pos-backoffice/internal/models"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// 80mm thermal roll
const (
	pageWidth  = 80.0
	margin     = 4.0
	lineHeight = 4.5
)

// Write renders sale (loaded with details, payments and credit payments)
// to w. company may be nil.
func Write(w io.Writer, sale *models.Sale, company *models.Company) error {
	height := 90.0 + lineHeight*float64(len(sale.Details)*2+len(sale.Payments)+len(sale.CreditPayments))
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "mm",
		Size:    fpdf.SizeType{Wd: pageWidth, Ht: height},
	})
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, margin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	width := pageWidth - 2*margin

	// Header
	pdf.SetFont("Helvetica", "B", 11)
	name := "Receipt"
	if company != nil {
		name = company.Name
	}
	pdf.CellFormat(width, 6, tr(name), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	if company != nil {
		if company.TaxID != "" {
			pdf.CellFormat(width, lineHeight, tr("RIF: "+company.TaxID), "", 1, "C", false, 0, "")
		}
		if company.Address != "" {
			pdf.MultiCell(width, lineHeight, tr(company.Address), "", "C", false)
		}
	}
	pdf.Ln(2)
	pdf.CellFormat(width, lineHeight, fmt.Sprintf("Sale #%06d", sale.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(width, lineHeight, sale.DateAdded.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	if sale.Customer != nil {
		customer := sale.Customer.FullName()
		if sale.Customer.TaxID != nil {
			customer += " (" + *sale.Customer.TaxID + ")"
		}
		pdf.CellFormat(width, lineHeight, tr("Customer: "+customer), "", 1, "L", false, 0, "")
	}
	rule(pdf, width)

	// Lines
	for _, d := range sale.Details {
		label := fmt.Sprintf("Product %d", d.ProductID)
		if d.Product != nil {
			label = d.Product.Name
		}
		pdf.CellFormat(width, lineHeight, tr(label), "", 1, "L", false, 0, "")
		pdf.CellFormat(width*0.6, lineHeight, fmt.Sprintf("  %d x %s", d.Quantity, d.Price.StringFixed(2)), "", 0, "L", false, 0, "")
		pdf.CellFormat(width*0.4, lineHeight, d.TotalDetail.StringFixed(2), "", 1, "R", false, 0, "")
	}
	rule(pdf, width)

	// Totals
	amountRow(pdf, width, "Subtotal USD", sale.SubTotal)
	amountRow(pdf, width, fmt.Sprintf("Tax %s%%", sale.TaxPercentage.StringFixed(0)), sale.TaxAmount)
	if sale.IGTFAmount.IsPositive() {
		amountRow(pdf, width, "IGTF", sale.IGTFAmount)
	}
	pdf.SetFont("Helvetica", "B", 9)
	amountRow(pdf, width, "Total USD", sale.GrandTotal)
	pdf.SetFont("Helvetica", "", 8)
	if sale.TotalVES.IsPositive() {
		amountRow(pdf, width, "Total VES", sale.TotalVES)
	}
	if sale.ExchangeRate != nil {
		pdf.CellFormat(width, lineHeight, "Rate: "+sale.ExchangeRate.RateUSDVES.StringFixed(4)+" VES/USD", "", 1, "L", false, 0, "")
	}
	rule(pdf, width)

	// Payments
	for _, p := range sale.Payments {
		amountRow(pdf, width, methodName(p.PaymentMethod), p.Amount)
	}
	for _, cp := range sale.CreditPayments {
		label := cp.PaymentDate.Format("2006-01-02") + " " + methodName(cp.PaymentMethod)
		amountRow(pdf, width, label, cp.AmountUSD)
	}
	if sale.AmountChange.IsPositive() {
		amountRow(pdf, width, "Change", sale.AmountChange)
	}
	if sale.IsCredit {
		pdf.SetFont("Helvetica", "B", 9)
		amountRow(pdf, width, "Balance due", sale.Balance())
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(width, lineHeight, "Status: "+string(sale.Status), "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}

func rule(pdf *fpdf.Fpdf, width float64) {
	y := pdf.GetY() + 1
	pdf.Line(margin, y, margin+width, y)
	pdf.SetY(y + 1)
}

func amountRow(pdf *fpdf.Fpdf, width float64, label string, amount decimal.Decimal) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.CellFormat(width*0.6, lineHeight, tr(label), "", 0, "L", false, 0, "")
	pdf.CellFormat(width*0.4, lineHeight, amount.StringFixed(2), "", 1, "R", false, 0, "")
}

func methodName(m *models.PaymentMethod) string {
	if m == nil {
		return "Payment"
	}
	return m.Name
}
