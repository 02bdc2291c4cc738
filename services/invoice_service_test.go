package services

import (
	"fmt"
	"lexdesk/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupInvoiceTestDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	db.AutoMigrate(&models.Firm{}, &models.User{}, &models.Invoice{}, &models.InvoiceLineItem{})
	return db
}

func TestGenerateInvoiceNumber(t *testing.T) {
	db := setupInvoiceTestDB()
	year := time.Now().Year()

	t.Run("First invoice", func(t *testing.T) {
		number, err := GenerateInvoiceNumber(db, "firm-1")
		assert.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("INV-%d-00001", year), number)
	})

	t.Run("Continues from the highest number", func(t *testing.T) {
		db.Create(&models.Invoice{ID: "inv-1", FirmID: "firm-1", ClientID: "client-1", InvoiceNumber: fmt.Sprintf("INV-%d-00041", year), Amount: 10, Status: models.InvoiceStatusPending, DueDate: time.Now()})

		number, err := GenerateInvoiceNumber(db, "firm-1")
		assert.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("INV-%d-00042", year), number)
	})

	t.Run("Sequences are per firm", func(t *testing.T) {
		number, err := GenerateInvoiceNumber(db, "firm-2")
		assert.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("INV-%d-00001", year), number)
	})
}

func TestSumLineItems(t *testing.T) {
	items := []models.InvoiceLineItem{
		{Description: "Research", Hours: 2, Rate: 150, Amount: 300},
		{Description: "Drafting", Hours: 1.5, Rate: 200}, // amount derived
	}
	assert.Equal(t, 600.0, SumLineItems(items))
	assert.Equal(t, 0.0, SumLineItems(nil))
}

func TestMarkInvoicePaid(t *testing.T) {
	db := setupInvoiceTestDB()

	invoice := &models.Invoice{ID: "inv-paid", FirmID: "firm-1", ClientID: "client-1", InvoiceNumber: "INV-2026-00001", Amount: 100, Status: models.InvoiceStatusPending, DueDate: time.Now()}
	db.Create(invoice)

	assert.NoError(t, MarkInvoicePaid(db, invoice, "reviewer-1"))

	var stored models.Invoice
	db.First(&stored, "id = ?", "inv-paid")
	assert.Equal(t, models.InvoiceStatusPaid, stored.Status)
	assert.NotNil(t, stored.PaidAt)
	assert.Equal(t, "reviewer-1", *stored.ReviewedByID)
}

func TestSweepOverdueInvoices(t *testing.T) {
	db := setupInvoiceTestDB()

	db.Create(&models.Invoice{ID: "inv-due", FirmID: "f1", ClientID: "c1", InvoiceNumber: "INV-2026-00001", Amount: 10, Status: models.InvoiceStatusPending, DueDate: time.Now().Add(-24 * time.Hour)})
	db.Create(&models.Invoice{ID: "inv-future", FirmID: "f1", ClientID: "c1", InvoiceNumber: "INV-2026-00002", Amount: 10, Status: models.InvoiceStatusPending, DueDate: time.Now().Add(24 * time.Hour)})
	paidAt := time.Now()
	db.Create(&models.Invoice{ID: "inv-settled", FirmID: "f1", ClientID: "c1", InvoiceNumber: "INV-2026-00003", Amount: 10, Status: models.InvoiceStatusPaid, PaidAt: &paidAt, DueDate: time.Now().Add(-48 * time.Hour)})

	assert.NoError(t, SweepOverdueInvoices(db))

	var statuses = map[string]string{}
	var invoices []models.Invoice
	db.Find(&invoices)
	for _, inv := range invoices {
		statuses[inv.ID] = inv.Status
	}
	assert.Equal(t, models.InvoiceStatusOverdue, statuses["inv-due"])
	assert.Equal(t, models.InvoiceStatusPending, statuses["inv-future"])
	assert.Equal(t, models.InvoiceStatusPaid, statuses["inv-settled"])
}
