// Package billing creates, lists and exports invoices.
package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/clinicdesk/internal/apierror"
)

// Invoice status values as the backend reports them.
const (
	StatusDraft  = "draft"
	StatusIssued = "issued"
	StatusPaid   = "paid"
)

// LineItem is one billed service. Prices are in minor currency units.
type LineItem struct {
	Service    string `json:"service"`
	PriceCents int64  `json:"price_cents"`
}

// Invoice bills one appointment.
type Invoice struct {
	ID            int64      `json:"id,omitempty"`
	ClinicID      int64      `json:"clinic_id"`
	AppointmentID int64      `json:"appointment_id"`
	PatientID     int64      `json:"patient_id"`
	DoctorID      int64      `json:"doctor_id,omitempty"`
	PatientName   string     `json:"patient_name,omitempty"`
	ClinicName    string     `json:"clinic_name,omitempty"`
	Items         []LineItem `json:"items"`
	TotalCents    int64      `json:"total_cents"`
	Currency      string     `json:"currency,omitempty"`
	Status        string     `json:"status,omitempty"`
	IssuedAt      time.Time  `json:"issued_at,omitempty"`
}

// ComputeTotal sums the line items.
func ComputeTotal(items []LineItem) int64 {
	var total int64
	for _, it := range items {
		total += it.PriceCents
	}
	return total
}

// Validate checks the invoice can be sent upstream.
func (inv *Invoice) Validate() error {
	if inv.AppointmentID <= 0 {
		return apierror.Invalid("an invoice must belong to an appointment")
	}
	if inv.PatientID <= 0 {
		return apierror.Invalid("an invoice must name the patient")
	}
	if len(inv.Items) == 0 {
		return apierror.Invalid("add at least one service")
	}
	for i, it := range inv.Items {
		if strings.TrimSpace(it.Service) == "" {
			return apierror.Invalid(fmt.Sprintf("line %d needs a service name", i+1))
		}
		if it.PriceCents < 0 {
			return apierror.Invalid(fmt.Sprintf("line %d has a negative price", i+1))
		}
	}
	return nil
}

// FormatCents renders a minor-unit amount as "123.45".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
