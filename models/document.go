package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document status constants
const (
	DocumentStatusDraft       = "Draft"
	DocumentStatusUnderReview = "Under Review"
	DocumentStatusApproved    = "Approved"
	DocumentStatusRejected    = "Rejected"
	DocumentStatusReference   = "Reference"
)

// Document represents an uploaded file attached to a case (or firm-level when
// CaseID is nil). The blob itself lives in the storage provider; only the
// storage key and metadata are persisted here.
type Document struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"uploaded_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Firm relationship (for scoping)
	FirmID string `gorm:"type:uuid;not null;index" json:"law_firm_id"`
	Firm   Firm   `gorm:"foreignKey:FirmID" json:"firm,omitempty"`

	// Optional case relationship ("no case" documents are allowed)
	CaseID *string `gorm:"type:uuid;index" json:"case_id,omitempty"`
	Case   *Case   `gorm:"foreignKey:CaseID" json:"case,omitempty"`

	// Document metadata
	Name         string  `gorm:"not null" json:"name"`
	DocumentType string  `json:"document_type,omitempty"`
	Status       string  `gorm:"not null;default:Draft" json:"status"`
	Version      int     `gorm:"not null;default:1" json:"version"`
	Description  *string `gorm:"type:text" json:"description,omitempty"`

	// File metadata
	FileOriginalName string `gorm:"not null" json:"file_name"`
	StorageKey       string `gorm:"not null" json:"-"` // Not exposed in JSON for security
	FileSize         int64  `gorm:"not null" json:"file_size"`
	MimeType         string `json:"mime_type,omitempty"`

	// Upload tracking
	UploadedByID *string `gorm:"type:uuid" json:"uploaded_by_user_id,omitempty"`
	UploadedBy   *User   `gorm:"foreignKey:UploadedByID" json:"uploaded_by,omitempty"`
}

// BeforeCreate hook to generate UUID
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}

// GetDownloadURL returns a safe download URL for this document
func (d *Document) GetDownloadURL() string {
	return "/api/documents/" + d.ID + "/download"
}

// IsValidDocumentStatus checks if the status is valid
func IsValidDocumentStatus(status string) bool {
	validStatuses := []string{
		DocumentStatusDraft,
		DocumentStatusUnderReview,
		DocumentStatusApproved,
		DocumentStatusRejected,
		DocumentStatusReference,
	}
	for _, s := range validStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// TableName specifies the table name for Document model
func (Document) TableName() string {
	return "documents"
}
