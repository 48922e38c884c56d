package billing

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Invoices"

var exportHeader = []string{
	"Invoice", "Issued", "Clinic", "Patient", "Appointment", "Services", "Status", "Currency", "Total",
}

// ExportXLSX renders invoices as a single-sheet workbook.
func ExportXLSX(invoices []Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("billing: create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("billing: drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("billing: header style: %w", err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, fmt.Errorf("billing: money style: %w", err)
	}

	if err := f.SetSheetRow(exportSheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("billing: write header: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(exportHeader), 1)
	if err := f.SetCellStyle(exportSheet, "A1", last, headerStyle); err != nil {
		return nil, fmt.Errorf("billing: style header: %w", err)
	}

	var grand int64
	for i, inv := range invoices {
		row := i + 2
		services := make([]string, len(inv.Items))
		for j, it := range inv.Items {
			services[j] = it.Service
		}
		issued := ""
		if !inv.IssuedAt.IsZero() {
			issued = inv.IssuedAt.Format("2006-01-02")
		}
		values := []any{
			inv.ID, issued, inv.ClinicName, inv.PatientName, inv.AppointmentID,
			strings.Join(services, ", "), inv.Status, inv.Currency, float64(inv.TotalCents) / 100,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("billing: write row %d: %w", row, err)
		}
		grand += inv.TotalCents
	}

	totalRow := len(invoices) + 2
	labelCell, _ := excelize.CoordinatesToCellName(len(exportHeader)-1, totalRow)
	totalCell, _ := excelize.CoordinatesToCellName(len(exportHeader), totalRow)
	if err := f.SetCellValue(exportSheet, labelCell, "Total"); err != nil {
		return nil, fmt.Errorf("billing: write total label: %w", err)
	}
	if err := f.SetCellValue(exportSheet, totalCell, float64(grand)/100); err != nil {
		return nil, fmt.Errorf("billing: write total: %w", err)
	}
	firstMoney, _ := excelize.CoordinatesToCellName(len(exportHeader), 2)
	if err := f.SetCellStyle(exportSheet, firstMoney, totalCell, moneyStyle); err != nil {
		return nil, fmt.Errorf("billing: style totals: %w", err)
	}
	if err := f.SetColWidth(exportSheet, "C", "D", 24); err != nil {
		return nil, fmt.Errorf("billing: column width: %w", err)
	}
	if err := f.SetColWidth(exportSheet, "F", "F", 40); err != nil {
		return nil, fmt.Errorf("billing: column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("billing: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
