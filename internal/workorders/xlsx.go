package workorders

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const pickSheetName = "Pick Sheet"

var pickSheetHeader = []any{"Product", "SKU", "Unit", "Store", "Ordered", "Allocated", "Shortage", "Picked"}

// PickSheet renders a work order as a single-sheet workbook: one row per
// store line and a bold subtotal row after each product.
func PickSheet(wo *WorkOrder) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), pickSheetName); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	shortStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Color: "C00000", Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(pickSheetName, "A1", &[]any{"Work order " + wo.Week}); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(pickSheetName, "A3", &pickSheetHeader); err != nil {
		return nil, err
	}
	if err := f.SetRowStyle(pickSheetName, 3, 3, bold); err != nil {
		return nil, err
	}

	row := 4
	for _, p := range wo.Products {
		for _, s := range p.Stores {
			picked := ""
			if s.Picked {
				picked = "yes"
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			values := []any{p.ProductName, p.SKU, p.Unit, s.StoreName, s.Ordered, s.Allocated, s.Shortage, picked}
			if err := f.SetSheetRow(pickSheetName, cell, &values); err != nil {
				return nil, err
			}
			if s.Shortage > 0 {
				short, _ := excelize.CoordinatesToCellName(7, row)
				if err := f.SetCellStyle(pickSheetName, short, short, shortStyle); err != nil {
					return nil, err
				}
			}
			row++
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		subtotal := []any{p.ProductName + " total", "", "", fmt.Sprintf("available %d", p.Available), p.Totals.Ordered, p.Totals.Allocated, p.Totals.Shortage, fmt.Sprintf("%d/%d", p.Totals.Picked, p.Totals.Rows)}
		if err := f.SetSheetRow(pickSheetName, cell, &subtotal); err != nil {
			return nil, err
		}
		if err := f.SetRowStyle(pickSheetName, row, row, bold); err != nil {
			return nil, err
		}
		row += 2
	}
	if err := f.SetColWidth(pickSheetName, "A", "A", 28); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(pickSheetName, "D", "D", 28); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
