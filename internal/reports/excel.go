// Package reports exports report data as spreadsheets.
package reports

import (
	"io"
	"strconv"

	"go-pos-backoffice/internal/database"

	"github.com/xuri/excelize/v2"
)

const (
	inventorySheet  = "Inventory"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var inventoryHeadings = []string{"Category", "SKU", "Product", "Stock", "Min stock", "Low stock", "Price USD", "Stock value USD"}

// WriteInventoryExcel writes one row per product followed by a
// subtotal row per category and a grand total.
func WriteInventoryExcel(w io.Writer, report *database.InventoryReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", inventorySheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return err
	}

	// Add headers
	for i, h := range inventoryHeadings {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(inventorySheet, cell, h); err != nil {
			return err
		}
	}
	if err := f.SetRowStyle(inventorySheet, 1, 1, bold); err != nil {
		return err
	}

	// Add data
	row := 2
	for _, group := range report.Categories {
		for _, item := range group.Items {
			lowStock := ""
			if item.LowStock {
				lowStock = "YES"
			}
			values := []interface{}{
				group.CategoryName,
				item.SKU,
				item.Name,
				item.Stock,
				item.StockMin,
				lowStock,
				item.PriceUSD.InexactFloat64(),
				item.StockValue.InexactFloat64(),
			}
			if err := setRow(f, row, values); err != nil {
				return err
			}
			row++
		}
		if err := setRow(f, row, []interface{}{group.CategoryName + " subtotal", "", "", "", "", "", "", group.Subtotal.InexactFloat64()}); err != nil {
			return err
		}
		if err := f.SetRowStyle(inventorySheet, row, row, bold); err != nil {
			return err
		}
		row++
	}
	if err := setRow(f, row, []interface{}{"Total", "", "", "", "", "", "", report.GrandTotal.InexactFloat64()}); err != nil {
		return err
	}
	if err := f.SetRowStyle(inventorySheet, row, row, bold); err != nil {
		return err
	}

	if err := f.SetCellStyle(inventorySheet, "G2", "H"+strconv.Itoa(row), money); err != nil {
		return err
	}
	if err := f.SetColWidth(inventorySheet, "A", "C", 22); err != nil {
		return err
	}

	return f.Write(w)
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(inventorySheet, cell, &values)
}
