package services

import (
	"fmt"
	"lexdesk/models"
	"log"
	"time"

	"gorm.io/gorm"
)

// GenerateInvoiceNumber generates a unique invoice number for a firm
// Format: INV-{YEAR}-{SEQUENCE}
func GenerateInvoiceNumber(db *gorm.DB, firmID string) (string, error) {
	currentYear := time.Now().Year()
	prefix := fmt.Sprintf("INV-%d-", currentYear)

	// Soft-deleted invoices still occupy the unique index, so scan them too
	var maxInvoice models.Invoice
	err := db.Unscoped().Where("firm_id = ? AND invoice_number LIKE ?", firmID, prefix+"%").
		Order("invoice_number DESC").
		First(&maxInvoice).Error

	sequence := 1
	if err == nil {
		var parsedSeq int
		_, scanErr := fmt.Sscanf(maxInvoice.InvoiceNumber, prefix+"%d", &parsedSeq)
		if scanErr == nil {
			sequence = parsedSeq + 1
		}
	} else if err != gorm.ErrRecordNotFound {
		return "", fmt.Errorf("failed to query max invoice number: %w", err)
	}

	return fmt.Sprintf("%s%05d", prefix, sequence), nil
}

// SumLineItems returns the invoice amount derived from its line items.
// Line amounts default to hours * rate when not given explicitly.
func SumLineItems(items []models.InvoiceLineItem) float64 {
	var total float64
	for _, item := range items {
		amount := item.Amount
		if amount == 0 && item.Hours > 0 && item.Rate > 0 {
			amount = item.Hours * item.Rate
		}
		total += amount
	}
	return total
}

// MarkInvoicePaid transitions an invoice to paid after payment-proof review
func MarkInvoicePaid(db *gorm.DB, invoice *models.Invoice, reviewerID string) error {
	now := time.Now()
	invoice.Status = models.InvoiceStatusPaid
	invoice.PaidAt = &now
	invoice.ReviewedByID = &reviewerID

	if err := db.Save(invoice).Error; err != nil {
		return fmt.Errorf("failed to mark invoice paid: %w", err)
	}
	return nil
}

// SweepOverdueInvoices marks pending invoices past their due date as overdue.
// Called from the hourly background job.
func SweepOverdueInvoices(db *gorm.DB) error {
	result := db.Model(&models.Invoice{}).
		Where("status = ? AND due_date < ?", models.InvoiceStatusPending, time.Now()).
		Update("status", models.InvoiceStatusOverdue)
	if result.Error != nil {
		return fmt.Errorf("failed to sweep overdue invoices: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("Marked %d invoices overdue", result.RowsAffected)
	}
	return nil
}
