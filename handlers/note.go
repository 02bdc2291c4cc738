package handlers

import (
	"lexdesk/db"
	"lexdesk/middleware"
	"lexdesk/models"
	"lexdesk/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetNotesHandler returns the caller's notes, pinned first. Filters:
// case_id, category, tag, include_archived.
func GetNotesHandler(c echo.Context) error {
	currentUser := middleware.GetCurrentUser(c)

	filter := services.NoteFilter{
		CaseID:          c.QueryParam("case_id"),
		Category:        c.QueryParam("category"),
		Tag:             c.QueryParam("tag"),
		IncludeArchived: c.QueryParam("include_archived") == "true",
	}

	notes, err := services.ListUserNotes(db.DB, currentUser.ID, filter)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch notes")
	}

	return c.JSON(http.StatusOK, notes)
}

// GetNoteHandler returns a single note owned by the caller
func GetNoteHandler(c echo.Context) error {
	note, err := findOwnNote(c, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, note)
}

// CreateNoteRequest is the payload for creating a note
type CreateNoteRequest struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
	CaseID    *string  `json:"case_id"`
	IsPinned  bool     `json:"is_pinned"`
	IsPrivate bool     `json:"is_private"`
}

// CreateNoteHandler creates a note for the current user
func CreateNoteHandler(c echo.Context) error {
	currentUser := middleware.GetCurrentUser(c)
	currentFirm := middleware.GetCurrentFirm(c)

	var req CreateNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Title is required",
		})
	}

	if req.Category == "" {
		req.Category = models.DefaultNoteCategory
	}

	if req.CaseID != nil && *req.CaseID != "" {
		var caseRecord models.Case
		if err := db.DB.Where("id = ? AND firm_id = ?", *req.CaseID, currentFirm.ID).
			First(&caseRecord).Error; err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Case not found in this firm",
			})
		}
	} else {
		req.CaseID = nil
	}

	content := services.SanitizeNoteContent(req.Content)
	words, characters := services.ComputeNoteCounts(content)

	note := &models.Note{
		FirmID:         currentFirm.ID,
		UserID:         currentUser.ID,
		CaseID:         req.CaseID,
		Title:          req.Title,
		Content:        content,
		Category:       req.Category,
		Tags:           req.Tags,
		IsPinned:       req.IsPinned,
		IsPrivate:      req.IsPrivate,
		WordCount:      words,
		CharacterCount: characters,
	}

	if err := db.DB.Create(note).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create note")
	}

	return c.JSON(http.StatusCreated, note)
}

// UpdateNoteRequest is a partial-merge update payload. Toggling the pin or
// archive flags alone leaves title, content, and tags untouched.
type UpdateNoteRequest struct {
	Title      *string   `json:"title"`
	Content    *string   `json:"content"`
	Category   *string   `json:"category"`
	Tags       *[]string `json:"tags"`
	CaseID     *string   `json:"case_id"`
	IsPinned   *bool     `json:"is_pinned"`
	IsArchived *bool     `json:"is_archived"`
	IsPrivate  *bool     `json:"is_private"`
}

// UpdateNoteHandler updates an existing note owned by the caller
func UpdateNoteHandler(c echo.Context) error {
	note, err := findOwnNote(c, c.Param("id"))
	if err != nil {
		return err
	}

	var req UpdateNoteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if req.Title != nil && *req.Title != "" {
		note.Title = *req.Title
	}
	if req.Content != nil {
		note.Content = services.SanitizeNoteContent(*req.Content)
		note.WordCount, note.CharacterCount = services.ComputeNoteCounts(note.Content)
	}
	if req.Category != nil && *req.Category != "" {
		note.Category = *req.Category
	}
	if req.Tags != nil {
		note.Tags = *req.Tags
	}
	if req.CaseID != nil {
		if *req.CaseID == "" {
			note.CaseID = nil
		} else {
			currentFirm := middleware.GetCurrentFirm(c)
			var caseRecord models.Case
			if err := db.DB.Where("id = ? AND firm_id = ?", *req.CaseID, currentFirm.ID).
				First(&caseRecord).Error; err != nil {
				return c.JSON(http.StatusBadRequest, map[string]string{
					"error": "Case not found in this firm",
				})
			}
			note.CaseID = req.CaseID
		}
	}
	if req.IsPinned != nil {
		note.IsPinned = *req.IsPinned
	}
	if req.IsArchived != nil {
		note.IsArchived = *req.IsArchived
	}
	if req.IsPrivate != nil {
		note.IsPrivate = *req.IsPrivate
	}

	if err := db.DB.Save(note).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update note")
	}

	return c.JSON(http.StatusOK, note)
}

// DeleteNoteHandler removes a note owned by the caller
func DeleteNoteHandler(c echo.Context) error {
	note, err := findOwnNote(c, c.Param("id"))
	if err != nil {
		return err
	}

	if err := db.DB.Delete(note).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete note")
	}

	return c.NoContent(http.StatusNoContent)
}

// findOwnNote loads a note the caller owns. Notes are personal: other
// users' notes are not visible even within the same firm.
func findOwnNote(c echo.Context, id string) (*models.Note, error) {
	currentUser := middleware.GetCurrentUser(c)

	var note models.Note
	if err := db.DB.Where("id = ? AND user_id = ?", id, currentUser.ID).
		First(&note).Error; err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Note not found")
	}
	return &note, nil
}
