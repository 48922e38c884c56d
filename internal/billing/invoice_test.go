package billing

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestComputeTotal(t *testing.T) {
	assert.Equal(t, int64(0), ComputeTotal(nil))
	assert.Equal(t, int64(12550), ComputeTotal([]LineItem{
		{Service: "Consultation", PriceCents: 8000},
		{Service: "ECG", PriceCents: 4550},
	}))
}

func TestInvoiceValidate(t *testing.T) {
	valid := Invoice{AppointmentID: 1, PatientID: 2, Items: []LineItem{{Service: "Consultation", PriceCents: 100}}}
	require.NoError(t, valid.Validate())

	cases := map[string]func(*Invoice){
		"no appointment": func(i *Invoice) { i.AppointmentID = 0 },
		"no patient":     func(i *Invoice) { i.PatientID = 0 },
		"no items":       func(i *Invoice) { i.Items = nil },
		"blank service":  func(i *Invoice) { i.Items = []LineItem{{Service: "  ", PriceCents: 1}} },
		"negative price": func(i *Invoice) { i.Items = []LineItem{{Service: "x", PriceCents: -1}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			inv := valid
			inv.Items = append([]LineItem(nil), valid.Items...)
			mutate(&inv)
			assert.Error(t, inv.Validate())
		})
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "125.50", FormatCents(12550))
	assert.Equal(t, "-1.00", FormatCents(-100))
}

func TestExportXLSX(t *testing.T) {
	invoices := []Invoice{
		{ID: 7, ClinicName: "North", PatientName: "Lee", AppointmentID: 40, Status: StatusIssued, Currency: "EUR",
			IssuedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC),
			Items:    []LineItem{{Service: "Consultation", PriceCents: 8000}, {Service: "ECG", PriceCents: 4550}}, TotalCents: 12550},
		{ID: 8, ClinicName: "North", PatientName: "Kim", AppointmentID: 41, Status: StatusDraft, Currency: "EUR",
			Items: []LineItem{{Service: "Follow-up", PriceCents: 3000}}, TotalCents: 3000},
	}

	data, err := ExportXLSX(invoices)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Invoices"}, f.GetSheetList())
	rows, err := f.GetRows("Invoices")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Invoice", rows[0][0])
	assert.Equal(t, "7", rows[1][0])
	assert.Equal(t, "2026-03-02", rows[1][1])
	assert.Equal(t, "Consultation, ECG", rows[1][5])
	assert.Equal(t, "Total", rows[3][7])

	total, err := f.GetCellValue("Invoices", "I4", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "155.5", total)
}
