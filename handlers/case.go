package handlers

import (
	"lexdesk/db"
	"lexdesk/middleware"
	"lexdesk/models"
	"lexdesk/services"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// GetCasesHandler returns a list of cases with filtering and pagination
func GetCasesHandler(c echo.Context) error {
	currentUser := middleware.GetCurrentUser(c)

	// Get query parameters for filtering
	status := c.QueryParam("status")
	priority := c.QueryParam("priority")
	assignedTo := c.QueryParam("assigned_to")
	clientID := c.QueryParam("client_id")
	dateFrom := c.QueryParam("date_from")
	dateTo := c.QueryParam("date_to")
	keyword := c.QueryParam("keyword")

	// Get pagination parameters
	page := 1
	limit := 20
	if pageParam := c.QueryParam("page"); pageParam != "" {
		if p, err := strconv.Atoi(pageParam); err == nil && p > 0 {
			page = p
		}
	}
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		if l, err := strconv.Atoi(limitParam); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	// Build firm-scoped query
	query := middleware.GetFirmScopedQuery(c, db.DB)

	// Clients only see their own cases
	if currentUser.IsClient() {
		query = query.Where("client_id = ?", currentUser.ID)
	}

	// Apply status filter
	if status != "" && models.IsValidCaseStatus(status) {
		query = query.Where("status = ?", status)
	}

	// Apply priority filter
	if priority != "" && models.IsValidCasePriority(priority) {
		query = query.Where("priority = ?", priority)
	}

	// Apply assigned_to filter (staff only)
	if assignedTo != "" && !currentUser.IsClient() {
		query = query.Where("assigned_to_id = ?", assignedTo)
	}

	// Apply client filter (staff only)
	if clientID != "" && !currentUser.IsClient() {
		query = query.Where("client_id = ?", clientID)
	}

	// Apply date range filters
	if dateFrom != "" {
		if parsedDate, err := time.Parse("2006-01-02", dateFrom); err == nil {
			query = query.Where("date_opened >= ?", parsedDate)
		}
	}
	if dateTo != "" {
		if parsedDate, err := time.Parse("2006-01-02", dateTo); err == nil {
			// Add 24 hours to include the entire day
			endOfDay := parsedDate.Add(24 * time.Hour)
			query = query.Where("date_opened < ?", endOfDay)
		}
	}

	// Apply keyword search
	if keyword != "" {
		keyword = "%" + keyword + "%"
		query = query.Where(
			db.DB.Where("case_number LIKE ?", keyword).
				Or("file_number LIKE ?", keyword).
				Or("title LIKE ?", keyword).
				Or("description LIKE ?", keyword).
				Or("EXISTS (SELECT 1 FROM users WHERE users.id = cases.client_id AND users.name LIKE ?)", keyword),
		)
	}

	// Get total count
	var total int64
	if err := query.Model(&models.Case{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count cases")
	}

	// Calculate pagination
	offset := (page - 1) * limit
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	// Fetch paginated cases with preloading
	var cases []models.Case
	if err := query.
		Preload("Client").
		Preload("AssignedTo").
		Preload("Documents").
		Order("date_opened DESC").
		Limit(limit).
		Offset(offset).
		Find(&cases).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch cases")
	}

	// Return JSON with pagination metadata
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data": cases,
		"pagination": map[string]interface{}{
			"page":        page,
			"limit":       limit,
			"total":       total,
			"total_pages": totalPages,
		},
	})
}

// GetCaseHandler returns a single case with its relationships
func GetCaseHandler(c echo.Context) error {
	id := c.Param("id")
	currentUser := middleware.GetCurrentUser(c)

	query := middleware.GetFirmScopedQuery(c, db.DB)
	if currentUser.IsClient() {
		query = query.Where("client_id = ?", currentUser.ID)
	}

	var caseRecord models.Case
	if err := query.
		Preload("Client").
		Preload("AssignedTo").
		Preload("Documents").
		First(&caseRecord, "id = ?", id).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "Case not found",
		})
	}

	return c.JSON(http.StatusOK, caseRecord)
}

// CreateCaseRequest is the payload for opening a new case
type CreateCaseRequest struct {
	Title        string     `json:"title"`
	CaseType     string     `json:"case_type"`
	Description  string     `json:"description"`
	ClientID     string     `json:"client_id"`
	FileNumber   string     `json:"file_number"`
	CaseNumber   string     `json:"case_number"`
	Priority     string     `json:"priority"`
	Deadline     *time.Time `json:"deadline"`
	AssignedToID *string    `json:"assigned_to_user_id"`
	DateOpened   *time.Time `json:"date_opened"`
}

// CreateCaseHandler opens a new case in the caller's firm
func CreateCaseHandler(c echo.Context) error {
	currentFirm := middleware.GetCurrentFirm(c)

	var req CreateCaseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if req.Title == "" || req.ClientID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Title and client are required",
		})
	}

	if req.Priority == "" {
		req.Priority = models.CasePriorityMedium
	} else if !models.IsValidCasePriority(req.Priority) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid priority. Must be one of: low, medium, high",
		})
	}

	// The client must belong to the same firm
	var client models.User
	if err := db.DB.Where("id = ? AND firm_id = ? AND role = ?",
		req.ClientID, currentFirm.ID, models.RoleClient).First(&client).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Client not found in this firm",
		})
	}

	// Case number: use the provided one or generate the next in sequence
	caseNumber := req.CaseNumber
	if caseNumber == "" {
		generated, err := services.EnsureUniqueCaseNumber(db.DB, currentFirm.ID)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate case number")
		}
		caseNumber = generated
	} else {
		taken, err := services.IsCaseNumberTaken(db.DB, currentFirm.ID, caseNumber, "")
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to validate case number")
		}
		if taken {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": "A case with this case number already exists",
			})
		}
	}

	var fileNumber *string
	if req.FileNumber != "" {
		taken, err := services.IsFileNumberTaken(db.DB, currentFirm.ID, req.FileNumber, "")
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Failed to validate file number")
		}
		if taken {
			return c.JSON(http.StatusConflict, map[string]string{
				"error": "A case with this file number already exists",
			})
		}
		fileNumber = &req.FileNumber
	}

	dateOpened := time.Now()
	if req.DateOpened != nil {
		dateOpened = *req.DateOpened
	}

	caseRecord := &models.Case{
		FirmID:       currentFirm.ID,
		ClientID:     req.ClientID,
		CaseNumber:   caseNumber,
		FileNumber:   fileNumber,
		Title:        req.Title,
		CaseType:     req.CaseType,
		Description:  req.Description,
		Status:       models.CaseStatusActive,
		Priority:     req.Priority,
		DateOpened:   dateOpened,
		Deadline:     req.Deadline,
		AssignedToID: req.AssignedToID,
	}

	if err := db.DB.Create(caseRecord).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create case")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionCreate, "case", caseRecord.ID, caseRecord.Title,
		"Opened case "+caseRecord.CaseNumber, nil, caseRecord)

	return c.JSON(http.StatusCreated, caseRecord)
}

// UpdateCaseRequest is a partial-merge update payload for cases
type UpdateCaseRequest struct {
	Title        *string    `json:"title"`
	CaseType     *string    `json:"case_type"`
	Description  *string    `json:"description"`
	Status       *string    `json:"status"`
	Priority     *string    `json:"priority"`
	FileNumber   *string    `json:"file_number"`
	Deadline     *time.Time `json:"deadline"`
	AssignedToID *string    `json:"assigned_to_user_id"`
}

// UpdateCaseHandler updates an existing case. Status changes record who
// changed it and when; closing a case stamps closed_at.
func UpdateCaseHandler(c echo.Context) error {
	id := c.Param("id")
	currentUser := middleware.GetCurrentUser(c)
	currentFirm := middleware.GetCurrentFirm(c)

	query := middleware.GetFirmScopedQuery(c, db.DB)

	var caseRecord models.Case
	if err := query.First(&caseRecord, "id = ?", id).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "Case not found",
		})
	}

	oldValues := caseRecord

	var req UpdateCaseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if req.Title != nil && *req.Title != "" {
		caseRecord.Title = *req.Title
	}
	if req.CaseType != nil {
		caseRecord.CaseType = *req.CaseType
	}
	if req.Description != nil {
		caseRecord.Description = *req.Description
	}
	if req.Priority != nil {
		if !models.IsValidCasePriority(*req.Priority) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Invalid priority. Must be one of: low, medium, high",
			})
		}
		caseRecord.Priority = *req.Priority
	}
	if req.FileNumber != nil {
		if *req.FileNumber == "" {
			caseRecord.FileNumber = nil
		} else if caseRecord.FileNumber == nil || *req.FileNumber != *caseRecord.FileNumber {
			taken, err := services.IsFileNumberTaken(db.DB, currentFirm.ID, *req.FileNumber, caseRecord.ID)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to validate file number")
			}
			if taken {
				return c.JSON(http.StatusConflict, map[string]string{
					"error": "A case with this file number already exists",
				})
			}
			caseRecord.FileNumber = req.FileNumber
		}
	}
	if req.Deadline != nil {
		caseRecord.Deadline = req.Deadline
	}
	if req.AssignedToID != nil {
		caseRecord.AssignedToID = req.AssignedToID
	}
	if req.Status != nil && *req.Status != caseRecord.Status {
		if !models.IsValidCaseStatus(*req.Status) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Invalid status. Must be one of: Active, On Hold, Closed, Archived",
			})
		}
		now := time.Now()
		caseRecord.Status = *req.Status
		caseRecord.StatusChangedAt = &now
		caseRecord.StatusChangedBy = &currentUser.ID
		if *req.Status == models.CaseStatusClosed {
			caseRecord.ClosedAt = &now
		}
	}

	if err := db.DB.Save(&caseRecord).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update case")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionUpdate, "case", caseRecord.ID, caseRecord.Title,
		"Updated case "+caseRecord.CaseNumber, oldValues, caseRecord)

	return c.JSON(http.StatusOK, caseRecord)
}

// DeleteCaseHandler removes a case (admin, full access only). Documents and
// notes keep their rows and blobs; they become firm-level with a nil case_id.
func DeleteCaseHandler(c echo.Context) error {
	id := c.Param("id")

	query := middleware.GetFirmScopedQuery(c, db.DB)

	var caseRecord models.Case
	if err := query.First(&caseRecord, "id = ?", id).Error; err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": "Case not found",
		})
	}

	if err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Document{}).Where("case_id = ?", caseRecord.ID).Update("case_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Note{}).Where("case_id = ?", caseRecord.ID).Update("case_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&caseRecord).Error
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete case")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionDelete, "case", caseRecord.ID, caseRecord.Title,
		"Deleted case "+caseRecord.CaseNumber, caseRecord, nil)

	return c.NoContent(http.StatusNoContent)
}
