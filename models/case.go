package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Case status constants. Transitions are free-form: any status may follow any
// other, so validators only reject unknown values.
const (
	CaseStatusActive   = "Active"
	CaseStatusOnHold   = "On Hold"
	CaseStatusClosed   = "Closed"
	CaseStatusArchived = "Archived"
)

// Case priority constants
const (
	CasePriorityLow    = "low"
	CasePriorityMedium = "medium"
	CasePriorityHigh   = "high"
)

// Case represents a legal case
type Case struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Firm relationship
	FirmID string `gorm:"type:uuid;not null;index:idx_case_firm_opened;index:idx_case_firm_status;uniqueIndex:idx_firm_case_number;uniqueIndex:idx_firm_file_number" json:"law_firm_id"`
	Firm   Firm   `gorm:"foreignKey:FirmID" json:"firm,omitempty"`

	// Client relationship (User with role 'client')
	ClientID string `gorm:"type:uuid;not null;index" json:"client_id"`
	Client   User   `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	// Case identification. CaseNumber is the public-facing identifier,
	// FileNumber the firm-internal one; both unique within a firm.
	CaseNumber string  `gorm:"not null;uniqueIndex:idx_firm_case_number" json:"case_number"`
	FileNumber *string `gorm:"size:100;uniqueIndex:idx_firm_file_number" json:"file_number,omitempty"`
	Title      string  `gorm:"not null" json:"title"`
	CaseType   string  `gorm:"not null" json:"case_type"`
	Description string `gorm:"type:text" json:"description"`

	// Status and lifecycle
	Status          string     `gorm:"not null;default:Active;index:idx_case_firm_status" json:"status"`
	Priority        string     `gorm:"not null;default:medium" json:"priority"`
	DateOpened      time.Time  `gorm:"not null;index:idx_case_firm_opened" json:"date_opened"`
	Deadline        *time.Time `json:"deadline,omitempty"`
	ClosedAt        *time.Time `json:"closed_at,omitempty"`
	StatusChangedAt *time.Time `json:"status_changed_at,omitempty"`
	StatusChangedBy *string    `gorm:"type:uuid" json:"status_changed_by,omitempty"`

	// Assignment
	AssignedToID *string `gorm:"type:uuid;index" json:"assigned_to_user_id,omitempty"`
	AssignedTo   *User   `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`

	// Relationships
	StatusChanger *User      `gorm:"foreignKey:StatusChangedBy" json:"status_changer,omitempty"`
	Documents     []Document `gorm:"foreignKey:CaseID" json:"documents,omitempty"`
}

// BeforeCreate hook to generate UUID and set DateOpened
func (c *Case) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.DateOpened.IsZero() {
		c.DateOpened = time.Now()
	}
	return nil
}

// TableName specifies the table name for Case model
func (Case) TableName() string {
	return "cases"
}

// IsActive checks if the case is active
func (c *Case) IsActive() bool {
	return c.Status == CaseStatusActive
}

// IsClosed checks if the case is closed
func (c *Case) IsClosed() bool {
	return c.Status == CaseStatusClosed
}

// IsValidCaseStatus checks if the status is valid
func IsValidCaseStatus(status string) bool {
	validStatuses := []string{
		CaseStatusActive,
		CaseStatusOnHold,
		CaseStatusClosed,
		CaseStatusArchived,
	}
	for _, s := range validStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsValidCasePriority checks if the priority is valid
func IsValidCasePriority(priority string) bool {
	return priority == CasePriorityLow || priority == CasePriorityMedium || priority == CasePriorityHigh
}
