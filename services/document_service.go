package services

import (
	"bytes"
	"context"
	"fmt"
	"lexdesk/models"
	"log"

	"gorm.io/gorm"
)

// StoreDocument decodes the upload payload, writes the blob to the storage
// provider and persists the document row. FileSize is always the decoded byte
// length, never the inflated base64 length.
func StoreDocument(db *gorm.DB, doc *models.Document, upload *DecodedUpload) error {
	if upload == nil || len(upload.Data) == 0 {
		return fmt.Errorf("no file data to store")
	}

	var key string
	if doc.CaseID != nil {
		key = GenerateCaseDocumentKey(doc.FirmID, *doc.CaseID, doc.FileOriginalName)
	} else {
		key = GenerateFirmDocumentKey(doc.FirmID, doc.FileOriginalName)
	}

	mimeType := SniffMimeType(upload.MimeType, doc.FileOriginalName)

	result, err := Storage.UploadReader(context.Background(), bytes.NewReader(upload.Data), key, mimeType, int64(len(upload.Data)))
	if err != nil {
		return fmt.Errorf("failed to store document blob: %w", err)
	}

	doc.StorageKey = result.Key
	doc.FileSize = result.FileSize
	doc.MimeType = mimeType

	if err := db.Create(doc).Error; err != nil {
		// Roll back the blob on database error
		if delErr := Storage.Delete(context.Background(), result.Key); delErr != nil {
			log.Printf("Warning: failed to clean up orphaned blob %s: %v", result.Key, delErr)
		}
		return fmt.Errorf("failed to create document: %w", err)
	}

	return nil
}

// GetCaseDocuments retrieves all documents for a case
func GetCaseDocuments(db *gorm.DB, caseID string) ([]models.Document, error) {
	var documents []models.Document
	if err := db.Where("case_id = ?", caseID).
		Preload("UploadedBy").
		Order("created_at DESC").
		Find(&documents).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch case documents: %w", err)
	}
	return documents, nil
}

// NextDocumentVersion returns the version number a re-upload of the named
// document should carry within the given case scope
func NextDocumentVersion(db *gorm.DB, firmID string, caseID *string, name string) (int, error) {
	query := db.Model(&models.Document{}).Where("firm_id = ? AND name = ?", firmID, name)
	if caseID != nil {
		query = query.Where("case_id = ?", *caseID)
	} else {
		query = query.Where("case_id IS NULL")
	}

	var maxVersion int
	if err := query.Select("COALESCE(MAX(version), 0)").Scan(&maxVersion).Error; err != nil {
		return 0, fmt.Errorf("failed to query document versions: %w", err)
	}
	return maxVersion + 1, nil
}

// DeleteDocument soft deletes a document and removes the blob from storage
func DeleteDocument(db *gorm.DB, documentID string, userID string, firmID string) error {
	// First find the document to get the storage key
	var document models.Document
	if err := db.Where("id = ? AND firm_id = ?", documentID, firmID).First(&document).Error; err != nil {
		return fmt.Errorf("document not found: %w", err)
	}

	// Delete blob from storage
	if document.StorageKey != "" {
		// Use background context for deletion as this is a cleanup task
		if err := Storage.Delete(context.Background(), document.StorageKey); err != nil {
			log.Printf("Warning: failed to delete blob %s: %v", document.StorageKey, err)
			// Continue with DB deletion even if blob deletion fails
		}
	}

	result := db.Delete(&document)
	if result.Error != nil {
		return fmt.Errorf("failed to delete document: %w", result.Error)
	}

	log.Printf("Document %s deleted by user %s", documentID, userID)
	return nil
}
