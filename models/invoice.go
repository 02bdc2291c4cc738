package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Invoice status constants
const (
	InvoiceStatusPending = "pending"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

// Invoice bills a client for work on a case. Status changes are driven by
// manual payment-proof upload and review, not automated reconciliation.
type Invoice struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Scoping
	FirmID string `gorm:"type:uuid;not null;index;uniqueIndex:idx_firm_invoice_number" json:"law_firm_id"`
	Firm   Firm   `gorm:"foreignKey:FirmID" json:"firm,omitempty"`

	ClientID string `gorm:"type:uuid;not null;index" json:"client_id"`
	Client   User   `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	CaseID *string `gorm:"type:uuid;index" json:"case_id,omitempty"`
	Case   *Case   `gorm:"foreignKey:CaseID" json:"case,omitempty"`

	InvoiceNumber string    `gorm:"not null;uniqueIndex:idx_firm_invoice_number" json:"invoice_number"`
	Amount        float64   `gorm:"not null" json:"amount"`
	Currency      string    `gorm:"not null;default:USD" json:"currency"`
	Status        string    `gorm:"not null;default:pending;index" json:"status"`
	DueDate       time.Time `gorm:"not null;index" json:"due_date"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`

	// Manual payment review flow
	PaymentProofDocumentID *string   `gorm:"type:uuid" json:"payment_proof_document_id,omitempty"`
	PaymentProofDocument   *Document `gorm:"foreignKey:PaymentProofDocumentID" json:"payment_proof_document,omitempty"`
	ReviewedByID           *string   `gorm:"type:uuid" json:"reviewed_by_id,omitempty"`
	ReviewedBy             *User     `gorm:"foreignKey:ReviewedByID" json:"reviewed_by,omitempty"`

	// Relationships
	LineItems []InvoiceLineItem `gorm:"foreignKey:InvoiceID" json:"line_items,omitempty"`
}

// InvoiceLineItem is a single billed entry on an invoice
type InvoiceLineItem struct {
	ID        string    `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	InvoiceID string `gorm:"type:uuid;not null;index" json:"invoice_id"`

	Description string  `gorm:"not null" json:"description"`
	Hours       float64 `gorm:"not null" json:"hours"`
	Rate        float64 `gorm:"not null" json:"rate"`
	Amount      float64 `gorm:"not null" json:"amount"`
}

// BeforeCreate hook to generate UUID
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

// BeforeCreate hook to generate UUID and derive the line amount
func (li *InvoiceLineItem) BeforeCreate(tx *gorm.DB) error {
	if li.ID == "" {
		li.ID = uuid.New().String()
	}
	if li.Amount == 0 && li.Hours > 0 && li.Rate > 0 {
		li.Amount = li.Hours * li.Rate
	}
	return nil
}

// IsPaid checks if the invoice has been settled
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// IsOverdue checks if the invoice is past due and unpaid
func (i *Invoice) IsOverdue() bool {
	return i.Status == InvoiceStatusOverdue
}

// IsValidInvoiceStatus checks if the status is valid
func IsValidInvoiceStatus(status string) bool {
	return status == InvoiceStatusPending || status == InvoiceStatusPaid || status == InvoiceStatusOverdue
}

// TableName specifies the table name for Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// TableName specifies the table name for InvoiceLineItem model
func (InvoiceLineItem) TableName() string {
	return "invoice_line_items"
}
