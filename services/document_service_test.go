package services

import (
	"context"
	"encoding/base64"
	"io"
	"lexdesk/models"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDocumentTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}
	db.AutoMigrate(&models.Firm{}, &models.User{}, &models.Case{}, &models.Document{})

	tempDir, err := os.MkdirTemp("", "doc_service_test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })
	Storage = NewLocalStorage(tempDir)

	return db
}

func TestStoreDocument(t *testing.T) {
	db := setupDocumentTestDB(t)

	content := []byte("signed retainer agreement")
	upload, err := DecodeDataURL("data:text/plain;base64," + base64.StdEncoding.EncodeToString(content))
	assert.NoError(t, err)

	caseID := "case-1"
	doc := &models.Document{
		FirmID:           "firm-1",
		CaseID:           &caseID,
		Name:             "Retainer",
		Status:           models.DocumentStatusDraft,
		Version:          1,
		FileOriginalName: "retainer.txt",
	}

	assert.NoError(t, StoreDocument(db, doc, upload))
	assert.NotEmpty(t, doc.ID)
	assert.NotEmpty(t, doc.StorageKey)
	// Decoded byte length, not the base64 length
	assert.Equal(t, int64(len(content)), doc.FileSize)
	assert.Equal(t, "text/plain", doc.MimeType)

	reader, _, err := Storage.Get(context.Background(), doc.StorageKey)
	assert.NoError(t, err)
	defer reader.Close()
	got, _ := io.ReadAll(reader)
	assert.Equal(t, content, got)
}

func TestStoreDocumentEmptyPayload(t *testing.T) {
	db := setupDocumentTestDB(t)

	doc := &models.Document{FirmID: "firm-1", Name: "Empty", FileOriginalName: "empty.txt"}
	assert.Error(t, StoreDocument(db, doc, nil))
	assert.Error(t, StoreDocument(db, doc, &DecodedUpload{}))
}

func TestNextDocumentVersion(t *testing.T) {
	db := setupDocumentTestDB(t)

	caseID := "case-v"
	db.Create(&models.Document{ID: "d1", FirmID: "firm-1", CaseID: &caseID, Name: "Brief", Status: models.DocumentStatusDraft, Version: 1, FileOriginalName: "brief.pdf", StorageKey: "k1", FileSize: 1})
	db.Create(&models.Document{ID: "d2", FirmID: "firm-1", CaseID: &caseID, Name: "Brief", Status: models.DocumentStatusDraft, Version: 2, FileOriginalName: "brief.pdf", StorageKey: "k2", FileSize: 1})

	t.Run("Bumps past the highest version", func(t *testing.T) {
		version, err := NextDocumentVersion(db, "firm-1", &caseID, "Brief")
		assert.NoError(t, err)
		assert.Equal(t, 3, version)
	})

	t.Run("Case-level and firm-level scopes are separate", func(t *testing.T) {
		version, err := NextDocumentVersion(db, "firm-1", nil, "Brief")
		assert.NoError(t, err)
		assert.Equal(t, 1, version)
	})

	t.Run("Different name starts fresh", func(t *testing.T) {
		version, err := NextDocumentVersion(db, "firm-1", &caseID, "Motion")
		assert.NoError(t, err)
		assert.Equal(t, 1, version)
	})
}

func TestDeleteDocument(t *testing.T) {
	db := setupDocumentTestDB(t)

	upload, _ := DecodeDataURL(base64.StdEncoding.EncodeToString([]byte("to be removed")))
	doc := &models.Document{FirmID: "firm-1", Name: "Doomed", Status: models.DocumentStatusDraft, Version: 1, FileOriginalName: "doomed.txt"}
	assert.NoError(t, StoreDocument(db, doc, upload))

	assert.NoError(t, DeleteDocument(db, doc.ID, "user-1", "firm-1"))

	var count int64
	db.Model(&models.Document{}).Where("id = ?", doc.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	_, _, err := Storage.Get(context.Background(), doc.StorageKey)
	assert.Error(t, err)
}

func TestDeleteDocumentWrongFirm(t *testing.T) {
	db := setupDocumentTestDB(t)

	db.Create(&models.Document{ID: "d-foreign", FirmID: "firm-1", Name: "Foreign", Status: models.DocumentStatusDraft, Version: 1, FileOriginalName: "f.txt", StorageKey: "k", FileSize: 1})

	err := DeleteDocument(db, "d-foreign", "user-1", "firm-2")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "document not found")
}
