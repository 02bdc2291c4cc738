package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"lexdesk/models"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func seedInvoiceFixtures(t *testing.T) (*gorm.DB, *models.Firm, *models.User, *models.User) {
	t.Helper()
	database := setupTestDB(t)

	firm := &models.Firm{ID: "firm-i1", Name: "Invoice Firm", Slug: "invoice-firm"}
	database.Create(firm)

	admin := &models.User{ID: "admin-i1", Name: "Billing Admin", Email: "admin-i1@test.com", FirmID: stringToPtr(firm.ID), Role: models.RoleAdmin, Permissions: models.PermissionFull}
	database.Create(admin)

	client := &models.User{ID: "client-i1", Name: "Paying Client", Email: "client-i1@test.com", FirmID: stringToPtr(firm.ID), Role: models.RoleClient}
	database.Create(client)

	return database, firm, admin, client
}

func TestCreateInvoiceHandler(t *testing.T) {
	_, firm, admin, client := seedInvoiceFixtures(t)

	t.Run("Amount derived from line items", func(t *testing.T) {
		due := time.Now().Add(30 * 24 * time.Hour).Format(time.RFC3339)
		body := fmt.Sprintf(`{"client_id":%q,"due_date":%q,"line_items":[{"description":"Research","hours":2,"rate":150},{"description":"Drafting","hours":1.5,"rate":200}]}`, client.ID, due)
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/invoices", strings.NewReader(body))
		c.Set("user", admin)
		c.Set("firm", firm)

		assert.NoError(t, CreateInvoiceHandler(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var created models.Invoice
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, 600.0, created.Amount)
		assert.Equal(t, models.InvoiceStatusPending, created.Status)
		expected := fmt.Sprintf("INV-%d-00001", time.Now().Year())
		assert.Equal(t, expected, created.InvoiceNumber)
		assert.Len(t, created.LineItems, 2)
	})

	t.Run("Invoice numbers increment per firm", func(t *testing.T) {
		due := time.Now().Add(24 * time.Hour).Format(time.RFC3339)
		body := fmt.Sprintf(`{"client_id":%q,"due_date":%q,"line_items":[{"description":"Call","hours":1,"rate":100}]}`, client.ID, due)
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/invoices", strings.NewReader(body))
		c.Set("user", admin)
		c.Set("firm", firm)

		assert.NoError(t, CreateInvoiceHandler(c))

		var created models.Invoice
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, fmt.Sprintf("INV-%d-00002", time.Now().Year()), created.InvoiceNumber)
	})

	t.Run("Line items required", func(t *testing.T) {
		due := time.Now().Add(24 * time.Hour).Format(time.RFC3339)
		body := fmt.Sprintf(`{"client_id":%q,"due_date":%q,"line_items":[]}`, client.ID, due)
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/invoices", strings.NewReader(body))
		c.Set("user", admin)
		c.Set("firm", firm)

		assert.NoError(t, CreateInvoiceHandler(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetInvoicesHandler(t *testing.T) {
	database, firm, admin, client := seedInvoiceFixtures(t)

	database.Create(&models.Invoice{ID: "inv-1", FirmID: firm.ID, ClientID: client.ID, InvoiceNumber: "INV-2026-00001", Amount: 100, Status: models.InvoiceStatusPending, DueDate: time.Now().Add(time.Hour)})
	database.Create(&models.Invoice{ID: "inv-2", FirmID: firm.ID, ClientID: "other-client", InvoiceNumber: "INV-2026-00002", Amount: 200, Status: models.InvoiceStatusPaid, DueDate: time.Now().Add(time.Hour)})

	t.Run("Staff see all", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodGet, "/api/invoices", nil)
		c.Set("user", admin)
		c.Set("firm", firm)

		assert.NoError(t, GetInvoicesHandler(c))

		var invoices []models.Invoice
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invoices))
		assert.Len(t, invoices, 2)
	})

	t.Run("Clients see only their own", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodGet, "/api/invoices", nil)
		c.Set("user", client)
		c.Set("firm", firm)

		assert.NoError(t, GetInvoicesHandler(c))

		var invoices []models.Invoice
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invoices))
		assert.Len(t, invoices, 1)
		assert.Equal(t, "inv-1", invoices[0].ID)
	})

	t.Run("Status filter", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodGet, "/api/invoices?status=paid", nil)
		c.Set("user", admin)
		c.Set("firm", firm)

		assert.NoError(t, GetInvoicesHandler(c))

		var invoices []models.Invoice
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invoices))
		assert.Len(t, invoices, 1)
		assert.Equal(t, "inv-2", invoices[0].ID)
	})
}

func TestUpdateInvoiceHandler(t *testing.T) {
	database, firm, admin, client := seedInvoiceFixtures(t)

	database.Create(&models.Invoice{ID: "inv-up1", FirmID: firm.ID, ClientID: client.ID, InvoiceNumber: "INV-2026-00010", Amount: 500, Status: models.InvoiceStatusPending, DueDate: time.Now().Add(time.Hour)})

	t.Run("Marking paid stamps paid_at and reviewer", func(t *testing.T) {
		body := `{"status":"paid"}`
		_, c, rec := setupEchoJSON(http.MethodPut, "/api/invoices/inv-up1", strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues("inv-up1")
		c.Set("user", admin)
		c.Set("firm", firm)

		assert.NoError(t, UpdateInvoiceHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var updated models.Invoice
		database.First(&updated, "id = ?", "inv-up1")
		assert.Equal(t, models.InvoiceStatusPaid, updated.Status)
		assert.NotNil(t, updated.PaidAt)
		assert.Equal(t, admin.ID, *updated.ReviewedByID)
	})

	t.Run("Reopening clears paid_at", func(t *testing.T) {
		body := `{"status":"pending"}`
		_, c, rec := setupEchoJSON(http.MethodPut, "/api/invoices/inv-up1", strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues("inv-up1")
		c.Set("user", admin)
		c.Set("firm", firm)

		assert.NoError(t, UpdateInvoiceHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var updated models.Invoice
		database.First(&updated, "id = ?", "inv-up1")
		assert.Equal(t, models.InvoiceStatusPending, updated.Status)
		assert.Nil(t, updated.PaidAt)
	})
}

func TestUploadPaymentProofHandler(t *testing.T) {
	database, firm, _, client := seedInvoiceFixtures(t)

	database.Create(&models.Invoice{ID: "inv-pp1", FirmID: firm.ID, ClientID: client.ID, InvoiceNumber: "INV-2026-00020", Amount: 300, Status: models.InvoiceStatusPending, DueDate: time.Now().Add(time.Hour)})

	proof := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("fake png bytes"))

	t.Run("Client attaches proof", func(t *testing.T) {
		body := fmt.Sprintf(`{"file_name":"receipt.png","file_data":%q}`, proof)
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/invoices/inv-pp1/payment-proof", strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues("inv-pp1")
		c.Set("user", client)
		c.Set("firm", firm)

		assert.NoError(t, UploadPaymentProofHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var updated models.Invoice
		database.First(&updated, "id = ?", "inv-pp1")
		assert.NotNil(t, updated.PaymentProofDocumentID)
		// Proof upload alone does not settle the invoice
		assert.Equal(t, models.InvoiceStatusPending, updated.Status)

		var doc models.Document
		assert.NoError(t, database.First(&doc, "id = ?", *updated.PaymentProofDocumentID).Error)
		assert.Equal(t, models.DocumentStatusUnderReview, doc.Status)
	})

	t.Run("Wrong file type", func(t *testing.T) {
		body := fmt.Sprintf(`{"file_name":"receipt.exe","file_data":%q}`, proof)
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/invoices/inv-pp1/payment-proof", strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues("inv-pp1")
		c.Set("user", client)
		c.Set("firm", firm)

		assert.NoError(t, UploadPaymentProofHandler(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Paid invoice refuses proof", func(t *testing.T) {
		now := time.Now()
		database.Create(&models.Invoice{ID: "inv-pp2", FirmID: firm.ID, ClientID: client.ID, InvoiceNumber: "INV-2026-00021", Amount: 300, Status: models.InvoiceStatusPaid, PaidAt: &now, DueDate: now})

		body := fmt.Sprintf(`{"file_name":"receipt.png","file_data":%q}`, proof)
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/invoices/inv-pp2/payment-proof", strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues("inv-pp2")
		c.Set("user", client)
		c.Set("firm", firm)

		assert.NoError(t, UploadPaymentProofHandler(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteInvoiceHandler(t *testing.T) {
	database, firm, admin, client := seedInvoiceFixtures(t)

	database.Create(&models.Invoice{ID: "inv-del1", FirmID: firm.ID, ClientID: client.ID, InvoiceNumber: "INV-2026-00030", Amount: 10, Status: models.InvoiceStatusPending, DueDate: time.Now()})
	database.Create(&models.InvoiceLineItem{ID: "li-del1", InvoiceID: "inv-del1", Description: "Work", Hours: 1, Rate: 10, Amount: 10})

	_, c, rec := setupEcho(http.MethodDelete, "/api/invoices/inv-del1", nil)
	c.SetParamNames("id")
	c.SetParamValues("inv-del1")
	c.Set("user", admin)
	c.Set("firm", firm)

	assert.NoError(t, DeleteInvoiceHandler(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	database.Model(&models.Invoice{}).Where("id = ?", "inv-del1").Count(&count)
	assert.Equal(t, int64(0), count)
	database.Model(&models.InvoiceLineItem{}).Where("invoice_id = ?", "inv-del1").Count(&count)
	assert.Equal(t, int64(0), count)
}
