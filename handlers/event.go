package handlers

import (
	"lexdesk/db"
	"lexdesk/middleware"
	"lexdesk/models"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// GetEventsHandler returns the firm's calendar events ordered by start
// time. Clients only see events they are invited to. Filters: event_type,
// status, case_id, date_from, date_to.
func GetEventsHandler(c echo.Context) error {
	currentUser := middleware.GetCurrentUser(c)

	query := middleware.GetFirmScopedQuery(c, db.DB)

	if currentUser.IsClient() {
		query = query.Where("client_id = ? AND client_invited = ?", currentUser.ID, true)
	}

	if eventType := c.QueryParam("event_type"); eventType != "" {
		if !models.IsValidEventType(eventType) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid event type filter"})
		}
		query = query.Where("event_type = ?", eventType)
	}
	if status := c.QueryParam("status"); status != "" {
		if !models.IsValidEventStatus(status) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid status filter"})
		}
		query = query.Where("status = ?", status)
	}
	if caseID := c.QueryParam("case_id"); caseID != "" {
		query = query.Where("case_id = ?", caseID)
	}
	if dateFrom := c.QueryParam("date_from"); dateFrom != "" {
		if parsed, err := time.Parse("2006-01-02", dateFrom); err == nil {
			query = query.Where("start_time >= ?", parsed)
		}
	}
	if dateTo := c.QueryParam("date_to"); dateTo != "" {
		if parsed, err := time.Parse("2006-01-02", dateTo); err == nil {
			query = query.Where("start_time < ?", parsed.Add(24*time.Hour))
		}
	}

	var events []models.Event
	if err := query.
		Preload("AssignedTo").
		Preload("Client").
		Order("start_time ASC").
		Find(&events).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch events")
	}

	return c.JSON(http.StatusOK, events)
}

// GetEventHandler returns a single event
func GetEventHandler(c echo.Context) error {
	event, err := findEvent(c, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, event)
}

// CreateEventRequest is the payload for scheduling an event
type CreateEventRequest struct {
	Title         string    `json:"title"`
	EventType     string    `json:"event_type"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Priority      string    `json:"priority"`
	CaseID        *string   `json:"case_id"`
	AssignedToID  *string   `json:"assigned_to"`
	ClientID      *string   `json:"client_id"`
	ClientInvited bool      `json:"client_invited"`
	Description   *string   `json:"description"`
	Location      *string   `json:"location"`
}

// CreateEventHandler schedules a new event in the firm's calendar
func CreateEventHandler(c echo.Context) error {
	currentFirm := middleware.GetCurrentFirm(c)

	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if req.Title == "" || req.StartTime.IsZero() || req.EndTime.IsZero() {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Title, start time, and end time are required",
		})
	}
	if !req.EndTime.After(req.StartTime) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "End time must be after start time",
		})
	}

	if req.EventType == "" {
		req.EventType = models.EventTypeOther
	} else if !models.IsValidEventType(req.EventType) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid event type",
		})
	}

	if req.Priority == "" {
		req.Priority = models.CasePriorityMedium
	} else if !models.IsValidCasePriority(req.Priority) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid priority. Must be one of: low, medium, high",
		})
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

	if req.ClientID != nil && *req.ClientID != "" {
		var client models.User
		if err := db.DB.Where("id = ? AND firm_id = ? AND role = ?",
			*req.ClientID, currentFirm.ID, models.RoleClient).First(&client).Error; err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Client not found in this firm",
			})
		}
	} else {
		req.ClientID = nil
		req.ClientInvited = false
	}

	event := &models.Event{
		FirmID:        currentFirm.ID,
		Title:         req.Title,
		EventType:     req.EventType,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Status:        models.EventStatusScheduled,
		Priority:      req.Priority,
		CaseID:        req.CaseID,
		AssignedToID:  req.AssignedToID,
		ClientID:      req.ClientID,
		ClientInvited: req.ClientInvited,
		Description:   req.Description,
		Location:      req.Location,
	}

	if err := db.DB.Create(event).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create event")
	}

	return c.JSON(http.StatusCreated, event)
}

// UpdateEventRequest is a partial-merge update payload for events
type UpdateEventRequest struct {
	Title           *string    `json:"title"`
	EventType       *string    `json:"event_type"`
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	Status          *string    `json:"status"`
	Priority        *string    `json:"priority"`
	AssignedToID    *string    `json:"assigned_to"`
	ClientInvited   *bool      `json:"client_invited"`
	ClientConfirmed *bool      `json:"client_confirmed"`
	Description     *string    `json:"description"`
	Location        *string    `json:"location"`
}

// UpdateEventHandler updates an event. Clients may only confirm or decline
// their own participation; all other fields require staff.
func UpdateEventHandler(c echo.Context) error {
	currentUser := middleware.GetCurrentUser(c)

	event, err := findEvent(c, c.Param("id"))
	if err != nil {
		return err
	}

	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if currentUser.IsClient() {
		if req.ClientConfirmed == nil {
			return echo.NewHTTPError(http.StatusForbidden, "Clients can only confirm attendance")
		}
		event.ClientConfirmed = *req.ClientConfirmed
		if err := db.DB.Save(event).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update event")
		}
		return c.JSON(http.StatusOK, event)
	}

	if req.Title != nil && *req.Title != "" {
		event.Title = *req.Title
	}
	if req.EventType != nil {
		if !models.IsValidEventType(*req.EventType) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Invalid event type",
			})
		}
		event.EventType = *req.EventType
	}
	if req.StartTime != nil {
		event.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		event.EndTime = *req.EndTime
	}
	if !event.EndTime.After(event.StartTime) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "End time must be after start time",
		})
	}
	if req.Status != nil {
		if !models.IsValidEventStatus(*req.Status) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Invalid status. Must be one of: scheduled, confirmed, completed, cancelled, postponed",
			})
		}
		event.Status = *req.Status
	}
	if req.Priority != nil {
		if !models.IsValidCasePriority(*req.Priority) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Invalid priority. Must be one of: low, medium, high",
			})
		}
		event.Priority = *req.Priority
	}
	if req.AssignedToID != nil {
		event.AssignedToID = req.AssignedToID
	}
	if req.ClientInvited != nil {
		event.ClientInvited = *req.ClientInvited
		if !event.ClientInvited {
			event.ClientConfirmed = false
		}
	}
	if req.ClientConfirmed != nil {
		event.ClientConfirmed = *req.ClientConfirmed
	}
	if req.Description != nil {
		event.Description = req.Description
	}
	if req.Location != nil {
		event.Location = req.Location
	}

	if err := db.DB.Save(event).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update event")
	}

	return c.JSON(http.StatusOK, event)
}

// DeleteEventHandler removes an event from the calendar
func DeleteEventHandler(c echo.Context) error {
	event, err := findEvent(c, c.Param("id"))
	if err != nil {
		return err
	}

	if err := db.DB.Delete(event).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete event")
	}

	return c.NoContent(http.StatusNoContent)
}

// findEvent loads a firm-scoped event, applying client visibility rules
func findEvent(c echo.Context, id string) (*models.Event, error) {
	currentUser := middleware.GetCurrentUser(c)

	query := middleware.GetFirmScopedQuery(c, db.DB)
	if currentUser.IsClient() {
		query = query.Where("client_id = ? AND client_invited = ?", currentUser.ID, true)
	}

	var event models.Event
	if err := query.First(&event, "id = ?", id).Error; err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Event not found")
	}
	return &event, nil
}
