package services

import (
	"fmt"
	"lexdesk/models"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
)

// notePolicy strips unsafe markup from note content while keeping basic
// user-generated formatting
var notePolicy = bluemonday.UGCPolicy()

// SanitizeNoteContent removes unsafe HTML from note content
func SanitizeNoteContent(content string) string {
	return notePolicy.Sanitize(content)
}

// ComputeNoteCounts derives word and character counts from note content.
// Counts are computed over the sanitized plain content.
func ComputeNoteCounts(content string) (words int, characters int) {
	characters = utf8.RuneCountInString(content)
	words = len(strings.Fields(content))
	return words, characters
}

// NoteFilter narrows a note listing. Zero values mean "no filter".
type NoteFilter struct {
	CaseID   string
	Category string
	Tag      string
	// Archived notes are excluded unless requested
	IncludeArchived bool
}

// ListUserNotes returns the notes owned by a user, pinned first
func ListUserNotes(db *gorm.DB, userID string, filter NoteFilter) ([]models.Note, error) {
	query := db.Where("user_id = ?", userID)

	if filter.CaseID != "" {
		query = query.Where("case_id = ?", filter.CaseID)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if !filter.IncludeArchived {
		query = query.Where("is_archived = ?", false)
	}

	var notes []models.Note
	if err := query.Order("is_pinned DESC, updated_at DESC").Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch notes: %w", err)
	}

	// Tags are serialized JSON, so tag filtering happens after the fetch
	if filter.Tag != "" {
		filtered := notes[:0]
		for _, n := range notes {
			for _, t := range n.Tags {
				if t == filter.Tag {
					filtered = append(filtered, n)
					break
				}
			}
		}
		notes = filtered
	}

	return notes, nil
}
