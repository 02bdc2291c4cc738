package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event type constants
const (
	EventTypeMeeting      = "meeting"
	EventTypeDeadline     = "deadline"
	EventTypeHearing      = "hearing"
	EventTypeCourtDate    = "court_date"
	EventTypeFiling       = "filing"
	EventTypeConsultation = "consultation"
	EventTypeOther        = "other"
)

// Event status constants
const (
	EventStatusScheduled = "scheduled"
	EventStatusConfirmed = "confirmed"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"
	EventStatusPostponed = "postponed"
)

// Event is a calendar entry: a meeting, hearing, filing or deadline,
// optionally linked to a case and assigned to a staff member.
type Event struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Firm relationship
	FirmID string `gorm:"type:uuid;not null;index" json:"law_firm_id"`
	Firm   Firm   `gorm:"foreignKey:FirmID" json:"firm,omitempty"`

	Title     string `gorm:"not null" json:"title"`
	EventType string `gorm:"not null;default:other" json:"event_type"`

	// Schedule (UTC)
	StartTime time.Time `gorm:"not null;index" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	Status   string `gorm:"size:20;not null;default:scheduled;index" json:"status"`
	Priority string `gorm:"not null;default:medium" json:"priority"`

	// Optional links
	CaseID *string `gorm:"type:uuid;index" json:"case_id,omitempty"`
	Case   *Case   `gorm:"foreignKey:CaseID" json:"case,omitempty"`

	AssignedToID *string `gorm:"type:uuid;index" json:"assigned_to,omitempty"`
	AssignedTo   *User   `gorm:"foreignKey:AssignedToID" json:"assigned_to_user,omitempty"`

	// Client participation flags
	ClientID        *string `gorm:"type:uuid;index" json:"client_id,omitempty"`
	Client          *User   `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	ClientInvited   bool    `gorm:"not null;default:false" json:"client_invited"`
	ClientConfirmed bool    `gorm:"not null;default:false" json:"client_confirmed"`

	Description *string `gorm:"type:text" json:"description,omitempty"`
	Location    *string `json:"location,omitempty"`
}

// BeforeCreate hook to generate UUID
func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// TableName specifies the table name for Event model
func (Event) TableName() string {
	return "events"
}

// IsUpcoming checks if the event starts in the future
func (e *Event) IsUpcoming() bool {
	return e.StartTime.After(time.Now())
}

// IsValidEventType checks if the event type is valid
func IsValidEventType(eventType string) bool {
	validTypes := []string{
		EventTypeMeeting,
		EventTypeDeadline,
		EventTypeHearing,
		EventTypeCourtDate,
		EventTypeFiling,
		EventTypeConsultation,
		EventTypeOther,
	}
	for _, t := range validTypes {
		if t == eventType {
			return true
		}
	}
	return false
}

// IsValidEventStatus checks if the status is valid
func IsValidEventStatus(status string) bool {
	validStatuses := []string{
		EventStatusScheduled,
		EventStatusConfirmed,
		EventStatusCompleted,
		EventStatusCancelled,
		EventStatusPostponed,
	}
	for _, s := range validStatuses {
		if s == status {
			return true
		}
	}
	return false
}
