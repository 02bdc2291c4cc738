package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultNoteCategory is assigned when a note is created without a category
const DefaultNoteCategory = "Uncategorized"

// Note is a user-owned free-form note, optionally linked to a case.
// Only the owning user may read or mutate it.
type Note struct {
	ID        string         `gorm:"type:uuid;primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Scoping
	FirmID string `gorm:"type:uuid;not null;index" json:"law_firm_id"`
	Firm   Firm   `gorm:"foreignKey:FirmID" json:"firm,omitempty"`
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"-"`

	// Optional case link
	CaseID *string `gorm:"type:uuid;index" json:"case_id,omitempty"`
	Case   *Case   `gorm:"foreignKey:CaseID" json:"case,omitempty"`

	Title    string   `gorm:"not null" json:"title"`
	Content  string   `gorm:"type:text" json:"content"`
	Category string   `gorm:"not null;default:Uncategorized" json:"category"`
	Tags     []string `gorm:"serializer:json" json:"tags"`

	// Independent boolean toggles
	IsPinned   bool `gorm:"not null;default:false" json:"is_pinned"`
	IsArchived bool `gorm:"not null;default:false" json:"is_archived"`
	// Advisory metadata; display hint only
	IsPrivate bool `gorm:"not null;default:false" json:"is_private"`

	// Derived counts, recomputed on every content write
	WordCount      int `gorm:"not null;default:0" json:"word_count"`
	CharacterCount int `gorm:"not null;default:0" json:"character_count"`
}

// BeforeCreate hook to generate UUID and default category
func (n *Note) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Category == "" {
		n.Category = DefaultNoteCategory
	}
	return nil
}

// TableName specifies the table name for Note model
func (Note) TableName() string {
	return "notes"
}
