package handlers

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"lexdesk/models"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func seedDocumentFixtures(t *testing.T) (database *gorm.DB, firm *models.Firm, admin, client *models.User, caseRecord *models.Case) {
	t.Helper()
	database = setupTestDB(t)

	firm = &models.Firm{ID: "firm-d1", Name: "Doc Firm", Slug: "doc-firm"}
	database.Create(firm)

	admin = &models.User{ID: "admin-d1", Name: "Doc Admin", Email: "admin-d1@test.com", FirmID: stringToPtr(firm.ID), Role: models.RoleAdmin, Permissions: models.PermissionFull}
	database.Create(admin)

	client = &models.User{ID: "client-d1", Name: "Doc Client", Email: "client-d1@test.com", FirmID: stringToPtr(firm.ID), Role: models.RoleClient}
	database.Create(client)

	caseRecord = &models.Case{ID: "case-d1", FirmID: firm.ID, ClientID: client.ID, CaseNumber: "doc-firm-2026-00001", Title: "Doc Case"}
	database.Create(caseRecord)

	return database, firm, admin, client, caseRecord
}

func TestUploadDocumentHandler(t *testing.T) {
	_, firm, admin, _, caseRecord := seedDocumentFixtures(t)

	content := []byte("hello legal world")
	encoded := "data:text/plain;base64," + base64.StdEncoding.EncodeToString(content)

	t.Run("Round trip preserves bytes and size", func(t *testing.T) {
		body := fmt.Sprintf(`{"name":"Engagement Letter","document_type":"letter","case_id":%q,"file_name":"letter.txt","file_data":%q}`, caseRecord.ID, encoded)
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/documents", strings.NewReader(body))
		c.Set("user", admin)
		c.Set("firm", firm)

		assert.NoError(t, UploadDocumentHandler(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var created models.Document
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, int64(len(content)), created.FileSize)
		assert.Equal(t, 1, created.Version)
		assert.Equal(t, "text/plain", created.MimeType)

		// Download returns the original bytes with the original name
		_, c2, rec2 := setupEcho(http.MethodGet, "/api/documents/"+created.ID+"/download", nil)
		c2.SetParamNames("id")
		c2.SetParamValues(created.ID)
		c2.Set("user", admin)
		c2.Set("firm", firm)

		assert.NoError(t, DownloadDocumentHandler(c2))
		assert.Equal(t, http.StatusOK, rec2.Code)
		assert.Equal(t, content, rec2.Body.Bytes())
		assert.Contains(t, rec2.Header().Get("Content-Disposition"), `letter.txt`)
	})

	t.Run("Re-upload bumps version", func(t *testing.T) {
		body := fmt.Sprintf(`{"name":"Engagement Letter","document_type":"letter","case_id":%q,"file_name":"letter-v2.txt","file_data":%q}`, caseRecord.ID, encoded)
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/documents", strings.NewReader(body))
		c.Set("user", admin)
		c.Set("firm", firm)

		assert.NoError(t, UploadDocumentHandler(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var created models.Document
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, 2, created.Version)
	})

	t.Run("Disallowed extension", func(t *testing.T) {
		body := fmt.Sprintf(`{"name":"Binary","file_name":"tool.exe","file_data":%q}`, encoded)
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/documents", strings.NewReader(body))
		c.Set("user", admin)
		c.Set("firm", firm)

		assert.NoError(t, UploadDocumentHandler(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Garbage payload", func(t *testing.T) {
		body := `{"name":"Bad","file_name":"bad.txt","file_data":"data:text/plain;base64,!!!not-base64!!!"}`
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/documents", strings.NewReader(body))
		c.Set("user", admin)
		c.Set("firm", firm)

		assert.NoError(t, UploadDocumentHandler(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Unknown case rejected", func(t *testing.T) {
		body := fmt.Sprintf(`{"name":"Orphan","case_id":"missing-case","file_name":"o.txt","file_data":%q}`, encoded)
		_, c, rec := setupEchoJSON(http.MethodPost, "/api/documents", strings.NewReader(body))
		c.Set("user", admin)
		c.Set("firm", firm)

		assert.NoError(t, UploadDocumentHandler(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetDocumentsHandler(t *testing.T) {
	database, firm, admin, client, caseRecord := seedDocumentFixtures(t)

	database.Create(&models.Document{ID: "doc-l1", FirmID: firm.ID, CaseID: &caseRecord.ID, Name: "On Client Case", Status: models.DocumentStatusDraft, FileOriginalName: "a.pdf", StorageKey: "k1"})
	database.Create(&models.Document{ID: "doc-l2", FirmID: firm.ID, Name: "Firm Wide", Status: models.DocumentStatusApproved, FileOriginalName: "b.pdf", StorageKey: "k2"})

	t.Run("Staff see everything in the firm", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodGet, "/api/documents", nil)
		c.Set("user", admin)
		c.Set("firm", firm)

		assert.NoError(t, GetDocumentsHandler(c))

		var docs []models.Document
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
		assert.Len(t, docs, 2)
	})

	t.Run("Clients only see documents on their cases", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodGet, "/api/documents", nil)
		c.Set("user", client)
		c.Set("firm", firm)

		assert.NoError(t, GetDocumentsHandler(c))

		var docs []models.Document
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
		assert.Len(t, docs, 1)
		assert.Equal(t, "doc-l1", docs[0].ID)
	})

	t.Run("Status filter", func(t *testing.T) {
		_, c, rec := setupEcho(http.MethodGet, "/api/documents?status=Approved", nil)
		c.Set("user", admin)
		c.Set("firm", firm)

		assert.NoError(t, GetDocumentsHandler(c))

		var docs []models.Document
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
		assert.Len(t, docs, 1)
		assert.Equal(t, "doc-l2", docs[0].ID)
	})
}

func TestUpdateDocumentHandler(t *testing.T) {
	database, firm, admin, _, caseRecord := seedDocumentFixtures(t)

	database.Create(&models.Document{ID: "doc-up1", FirmID: firm.ID, CaseID: &caseRecord.ID, Name: "Draft Doc", Status: models.DocumentStatusDraft, FileOriginalName: "d.pdf", StorageKey: "k3", FileSize: 42})

	t.Run("Metadata merge keeps file fields", func(t *testing.T) {
		body := `{"status":"Approved"}`
		_, c, rec := setupEchoJSON(http.MethodPut, "/api/documents/doc-up1", strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues("doc-up1")
		c.Set("user", admin)
		c.Set("firm", firm)

		assert.NoError(t, UpdateDocumentHandler(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var updated models.Document
		database.First(&updated, "id = ?", "doc-up1")
		assert.Equal(t, models.DocumentStatusApproved, updated.Status)
		assert.Equal(t, "Draft Doc", updated.Name)
		assert.Equal(t, int64(42), updated.FileSize)
		assert.Equal(t, "k3", updated.StorageKey)
	})

	t.Run("Invalid status", func(t *testing.T) {
		body := `{"status":"Filed"}`
		_, c, rec := setupEchoJSON(http.MethodPut, "/api/documents/doc-up1", strings.NewReader(body))
		c.SetParamNames("id")
		c.SetParamValues("doc-up1")
		c.Set("user", admin)
		c.Set("firm", firm)

		assert.NoError(t, UpdateDocumentHandler(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteDocumentHandler(t *testing.T) {
	database, firm, admin, _, caseRecord := seedDocumentFixtures(t)

	database.Create(&models.Document{ID: "doc-del1", FirmID: firm.ID, CaseID: &caseRecord.ID, Name: "Doomed Doc", FileOriginalName: "x.pdf"})

	_, c, rec := setupEcho(http.MethodDelete, "/api/documents/doc-del1", nil)
	c.SetParamNames("id")
	c.SetParamValues("doc-del1")
	c.Set("user", admin)
	c.Set("firm", firm)

	assert.NoError(t, DeleteDocumentHandler(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	var count int64
	database.Model(&models.Document{}).Where("id = ?", "doc-del1").Count(&count)
	assert.Equal(t, int64(0), count)
}
