package handlers

import (
	"lexdesk/db"
	"lexdesk/middleware"
	"lexdesk/models"
	"lexdesk/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

// GetDocumentsHandler returns the firm's documents, optionally filtered by
// case, status, or document type. Clients only see documents attached to
// their own cases.
func GetDocumentsHandler(c echo.Context) error {
	currentUser := middleware.GetCurrentUser(c)

	query := middleware.GetFirmScopedQuery(c, db.DB)

	if currentUser.IsClient() {
		query = query.Where(
			"case_id IN (SELECT id FROM cases WHERE client_id = ?)", currentUser.ID,
		)
	}

	if caseID := c.QueryParam("case_id"); caseID != "" {
		query = query.Where("case_id = ?", caseID)
	}
	if status := c.QueryParam("status"); status != "" {
		if !models.IsValidDocumentStatus(status) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid status filter"})
		}
		query = query.Where("status = ?", status)
	}
	if docType := c.QueryParam("document_type"); docType != "" {
		query = query.Where("document_type = ?", docType)
	}

	var documents []models.Document
	if err := query.
		Preload("UploadedBy").
		Order("created_at DESC").
		Find(&documents).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch documents")
	}

	return c.JSON(http.StatusOK, documents)
}

// GetDocumentHandler returns a single document's metadata
func GetDocumentHandler(c echo.Context) error {
	doc, err := findDocument(c, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

// UploadDocumentRequest carries the file as a base64 data URL in file_data
type UploadDocumentRequest struct {
	Name         string  `json:"name"`
	DocumentType string  `json:"document_type"`
	Description  *string `json:"description"`
	CaseID       *string `json:"case_id"`
	FileName     string  `json:"file_name"`
	FileData     string  `json:"file_data"`
}

// UploadDocumentHandler stores a new document. The same name within a case
// gets the next version number instead of a duplicate.
func UploadDocumentHandler(c echo.Context) error {
	currentUser := middleware.GetCurrentUser(c)
	currentFirm := middleware.GetCurrentFirm(c)

	var req UploadDocumentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if req.Name == "" || req.FileName == "" || req.FileData == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Name, file name, and file data are required",
		})
	}

	// A case reference must resolve inside the firm
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

	upload, err := services.DecodeDataURL(req.FileData)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid file data",
		})
	}

	if err := services.ValidateDocumentUpload(upload.Data, req.FileName); err != nil {
		status := http.StatusBadRequest
		if int64(len(upload.Data)) > services.MaxDocumentUploadSize {
			status = http.StatusRequestEntityTooLarge
		}
		return c.JSON(status, map[string]string{"error": err.Error()})
	}

	version, err := services.NextDocumentVersion(db.DB, currentFirm.ID, req.CaseID, req.Name)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to determine document version")
	}

	doc := &models.Document{
		FirmID:           currentFirm.ID,
		CaseID:           req.CaseID,
		Name:             req.Name,
		DocumentType:     req.DocumentType,
		Status:           models.DocumentStatusDraft,
		Version:          version,
		Description:      req.Description,
		FileOriginalName: req.FileName,
		UploadedByID:     &currentUser.ID,
	}

	if err := services.StoreDocument(db.DB, doc, upload); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store document")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionCreate, "document", doc.ID, doc.Name,
		"Uploaded document "+doc.FileOriginalName, nil, doc)

	return c.JSON(http.StatusCreated, doc)
}

// DownloadDocumentHandler streams the stored file with its original name
func DownloadDocumentHandler(c echo.Context) error {
	doc, err := findDocument(c, c.Param("id"))
	if err != nil {
		return err
	}

	reader, contentType, err := services.Storage.Get(c.Request().Context(), doc.StorageKey)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve file")
	}
	defer reader.Close()

	if contentType == "" {
		contentType = doc.MimeType
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionDownload, "document", doc.ID, doc.Name,
		"Downloaded document "+doc.FileOriginalName, nil, nil)

	c.Response().Header().Set("Content-Type", contentType)
	c.Response().Header().Set("Content-Disposition", "attachment; filename=\""+doc.FileOriginalName+"\"")
	return c.Stream(http.StatusOK, contentType, reader)
}

// UpdateDocumentRequest is a partial-merge update for document metadata.
// The stored file itself is immutable; replacements are new versions.
type UpdateDocumentRequest struct {
	Name         *string `json:"name"`
	DocumentType *string `json:"document_type"`
	Status       *string `json:"status"`
	Description  *string `json:"description"`
}

// UpdateDocumentHandler updates document metadata
func UpdateDocumentHandler(c echo.Context) error {
	doc, err := findDocument(c, c.Param("id"))
	if err != nil {
		return err
	}

	oldValues := *doc

	var req UpdateDocumentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if req.Name != nil && *req.Name != "" {
		doc.Name = *req.Name
	}
	if req.DocumentType != nil {
		doc.DocumentType = *req.DocumentType
	}
	if req.Status != nil {
		if !models.IsValidDocumentStatus(*req.Status) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Invalid status. Must be one of: Draft, Under Review, Approved, Rejected, Reference",
			})
		}
		doc.Status = *req.Status
	}
	if req.Description != nil {
		doc.Description = req.Description
	}

	if err := db.DB.Save(doc).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update document")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionUpdate, "document", doc.ID, doc.Name,
		"Updated document metadata", oldValues, doc)

	return c.JSON(http.StatusOK, doc)
}

// DeleteDocumentHandler removes a document and its stored file
func DeleteDocumentHandler(c echo.Context) error {
	currentUser := middleware.GetCurrentUser(c)
	currentFirm := middleware.GetCurrentFirm(c)

	doc, err := findDocument(c, c.Param("id"))
	if err != nil {
		return err
	}

	if err := services.DeleteDocument(db.DB, doc.ID, currentUser.ID, currentFirm.ID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete document")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionDelete, "document", doc.ID, doc.Name,
		"Deleted document "+doc.FileOriginalName, doc, nil)

	return c.NoContent(http.StatusNoContent)
}

// findDocument loads a firm-scoped document, applying client visibility rules
func findDocument(c echo.Context, id string) (*models.Document, error) {
	currentUser := middleware.GetCurrentUser(c)

	query := middleware.GetFirmScopedQuery(c, db.DB)
	if currentUser.IsClient() {
		query = query.Where(
			"case_id IN (SELECT id FROM cases WHERE client_id = ?)", currentUser.ID,
		)
	}

	var doc models.Document
	if err := query.First(&doc, "id = ?", id).Error; err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Document not found")
	}
	return &doc, nil
}
