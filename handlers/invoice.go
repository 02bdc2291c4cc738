package handlers

import (
	"lexdesk/config"
	"lexdesk/db"
	"lexdesk/middleware"
	"lexdesk/models"
	"lexdesk/services"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// GetInvoicesHandler returns the firm's invoices, newest first. Clients
// only see invoices billed to them. Filters: status, client_id, case_id.
func GetInvoicesHandler(c echo.Context) error {
	currentUser := middleware.GetCurrentUser(c)

	query := middleware.GetFirmScopedQuery(c, db.DB)

	if currentUser.IsClient() {
		query = query.Where("client_id = ?", currentUser.ID)
	}

	if status := c.QueryParam("status"); status != "" {
		if !models.IsValidInvoiceStatus(status) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid status filter"})
		}
		query = query.Where("status = ?", status)
	}
	if clientID := c.QueryParam("client_id"); clientID != "" && !currentUser.IsClient() {
		query = query.Where("client_id = ?", clientID)
	}
	if caseID := c.QueryParam("case_id"); caseID != "" {
		query = query.Where("case_id = ?", caseID)
	}

	var invoices []models.Invoice
	if err := query.
		Preload("Client").
		Preload("LineItems").
		Order("created_at DESC").
		Find(&invoices).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch invoices")
	}

	return c.JSON(http.StatusOK, invoices)
}

// GetInvoiceHandler returns a single invoice with line items
func GetInvoiceHandler(c echo.Context) error {
	invoice, err := findInvoice(c, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, invoice)
}

// InvoiceLineItemRequest is a single billed entry in a create request
type InvoiceLineItemRequest struct {
	Description string  `json:"description"`
	Hours       float64 `json:"hours"`
	Rate        float64 `json:"rate"`
}

// CreateInvoiceRequest is the payload for issuing an invoice
type CreateInvoiceRequest struct {
	ClientID  string                   `json:"client_id"`
	CaseID    *string                  `json:"case_id"`
	Currency  string                   `json:"currency"`
	DueDate   time.Time                `json:"due_date"`
	LineItems []InvoiceLineItemRequest `json:"line_items"`
}

// CreateInvoiceHandler issues a new invoice. The total is derived from the
// line items, never taken from the request.
func CreateInvoiceHandler(c echo.Context) error {
	currentFirm := middleware.GetCurrentFirm(c)

	var req CreateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if req.ClientID == "" || len(req.LineItems) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Client and at least one line item are required",
		})
	}
	if req.DueDate.IsZero() {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Due date is required",
		})
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}

	var client models.User
	if err := db.DB.Where("id = ? AND firm_id = ? AND role = ?",
		req.ClientID, currentFirm.ID, models.RoleClient).First(&client).Error; err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Client not found in this firm",
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

	lineItems := make([]models.InvoiceLineItem, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		if item.Description == "" || item.Hours <= 0 || item.Rate < 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Each line item needs a description, positive hours, and a non-negative rate",
			})
		}
		lineItems = append(lineItems, models.InvoiceLineItem{
			Description: item.Description,
			Hours:       item.Hours,
			Rate:        item.Rate,
			Amount:      item.Hours * item.Rate,
		})
	}

	invoiceNumber, err := services.GenerateInvoiceNumber(db.DB, currentFirm.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate invoice number")
	}

	invoice := &models.Invoice{
		FirmID:        currentFirm.ID,
		ClientID:      req.ClientID,
		CaseID:        req.CaseID,
		InvoiceNumber: invoiceNumber,
		Amount:        services.SumLineItems(lineItems),
		Currency:      req.Currency,
		Status:        models.InvoiceStatusPending,
		DueDate:       req.DueDate,
		LineItems:     lineItems,
	}

	if err := db.DB.Create(invoice).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create invoice")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionCreate, "invoice", invoice.ID, invoice.InvoiceNumber,
		"Issued invoice "+invoice.InvoiceNumber, nil, invoice)

	// Notify the client asynchronously
	cfg := c.Get("config").(*config.Config)
	email := services.BuildInvoiceIssuedEmail(client.Email, client.Name,
		invoice.InvoiceNumber, invoice.Amount, invoice.Currency, cfg.AppURL)
	services.SendEmailAsync(cfg, email)

	return c.JSON(http.StatusCreated, invoice)
}

// UpdateInvoiceRequest is a partial-merge update payload. Marking an
// invoice paid stamps paid_at and records the reviewer.
type UpdateInvoiceRequest struct {
	Status  *string    `json:"status"`
	DueDate *time.Time `json:"due_date"`
}

// UpdateInvoiceHandler updates invoice status or due date (staff only via routing)
func UpdateInvoiceHandler(c echo.Context) error {
	currentUser := middleware.GetCurrentUser(c)

	invoice, err := findInvoice(c, c.Param("id"))
	if err != nil {
		return err
	}

	oldValues := *invoice

	var req UpdateInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if req.DueDate != nil {
		invoice.DueDate = *req.DueDate
	}
	if req.Status != nil && *req.Status != invoice.Status {
		if !models.IsValidInvoiceStatus(*req.Status) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "Invalid status. Must be one of: pending, paid, overdue",
			})
		}
		if *req.Status == models.InvoiceStatusPaid {
			if err := services.MarkInvoicePaid(db.DB, invoice, currentUser.ID); err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to mark invoice paid")
			}
		} else {
			invoice.Status = *req.Status
			invoice.PaidAt = nil
		}
	}

	if err := db.DB.Save(invoice).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update invoice")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionUpdate, "invoice", invoice.ID, invoice.InvoiceNumber,
		"Updated invoice "+invoice.InvoiceNumber, oldValues, invoice)

	return c.JSON(http.StatusOK, invoice)
}

// DeleteInvoiceHandler removes an invoice and its line items (admin only)
func DeleteInvoiceHandler(c echo.Context) error {
	invoice, err := findInvoice(c, c.Param("id"))
	if err != nil {
		return err
	}

	if err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceLineItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(invoice).Error
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete invoice")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionDelete, "invoice", invoice.ID, invoice.InvoiceNumber,
		"Deleted invoice "+invoice.InvoiceNumber, invoice, nil)

	return c.NoContent(http.StatusNoContent)
}

// DownloadInvoicePDFHandler renders the invoice as a PDF and streams it
func DownloadInvoicePDFHandler(c echo.Context) error {
	currentFirm := middleware.GetCurrentFirm(c)

	invoice, err := findInvoice(c, c.Param("id"))
	if err != nil {
		return err
	}

	pdfBytes, err := services.GenerateInvoicePDF(invoice, currentFirm.Name)
	if err != nil {
		c.Logger().Errorf("invoice PDF generation failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate PDF")
	}

	c.Response().Header().Set("Content-Disposition",
		"attachment; filename=\""+invoice.InvoiceNumber+".pdf\"")
	return c.Blob(http.StatusOK, "application/pdf", pdfBytes)
}

// UploadPaymentProofRequest carries the proof file as a base64 data URL
type UploadPaymentProofRequest struct {
	FileName string `json:"file_name"`
	FileData string `json:"file_data"`
}

// UploadPaymentProofHandler attaches a payment proof to an invoice. Clients
// may upload proof for their own invoices; review stays with the firm.
func UploadPaymentProofHandler(c echo.Context) error {
	currentUser := middleware.GetCurrentUser(c)
	currentFirm := middleware.GetCurrentFirm(c)

	invoice, err := findInvoice(c, c.Param("id"))
	if err != nil {
		return err
	}

	if invoice.IsPaid() {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invoice is already paid",
		})
	}

	var req UploadPaymentProofRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if req.FileName == "" || req.FileData == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "File name and file data are required",
		})
	}

	upload, err := services.DecodeDataURL(req.FileData)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid file data",
		})
	}

	if err := services.ValidatePaymentProofUpload(upload.Data, req.FileName); err != nil {
		status := http.StatusBadRequest
		if int64(len(upload.Data)) > services.MaxPaymentProofSize {
			status = http.StatusRequestEntityTooLarge
		}
		return c.JSON(status, map[string]string{"error": err.Error()})
	}

	doc := &models.Document{
		FirmID:           currentFirm.ID,
		Name:             "Payment proof " + invoice.InvoiceNumber,
		DocumentType:     "payment_proof",
		Status:           models.DocumentStatusUnderReview,
		FileOriginalName: req.FileName,
		UploadedByID:     &currentUser.ID,
	}

	if err := services.StoreDocument(db.DB, doc, upload); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store payment proof")
	}

	invoice.PaymentProofDocumentID = &doc.ID
	if err := db.DB.Save(invoice).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to attach payment proof")
	}

	services.LogAuditEvent(db.DB, middleware.GetAuditContext(c),
		models.AuditActionUpdate, "invoice", invoice.ID, invoice.InvoiceNumber,
		"Payment proof uploaded for "+invoice.InvoiceNumber, nil, invoice)

	return c.JSON(http.StatusOK, invoice)
}

// findInvoice loads a firm-scoped invoice, applying client visibility rules
func findInvoice(c echo.Context, id string) (*models.Invoice, error) {
	currentUser := middleware.GetCurrentUser(c)

	query := middleware.GetFirmScopedQuery(c, db.DB)
	if currentUser.IsClient() {
		query = query.Where("client_id = ?", currentUser.ID)
	}

	var invoice models.Invoice
	if err := query.
		Preload("Client").
		Preload("LineItems").
		First(&invoice, "id = ?", id).Error; err != nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "Invoice not found")
	}
	return &invoice, nil
}
