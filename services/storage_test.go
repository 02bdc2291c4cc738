package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocalStorage(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "storage_test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	storage := NewLocalStorage(tempDir)
	ctx := context.Background()
	content := "hello storage"
	key := "test/file.txt"
	size := int64(len(content))

	t.Run("UploadReader creates file", func(t *testing.T) {
		reader := strings.NewReader(content)
		result, err := storage.UploadReader(ctx, reader, key, "text/plain", size)
		assert.NoError(t, err)
		assert.Equal(t, key, result.Key)
		assert.Equal(t, size, result.FileSize)

		_, err = os.Stat(filepath.Join(tempDir, key))
		assert.NoError(t, err)
	})

	t.Run("Get retrieves file content", func(t *testing.T) {
		reader, retrievedType, err := storage.Get(ctx, key)
		assert.NoError(t, err)
		defer reader.Close()

		got, _ := io.ReadAll(reader)
		assert.Equal(t, content, string(got))
		assert.Equal(t, "text/plain", retrievedType)
	})

	t.Run("Get detects MIME types from extension", func(t *testing.T) {
		pdfKey := "test/doc.pdf"
		storage.UploadReader(ctx, strings.NewReader("%PDF-1.4"), pdfKey, "application/pdf", 8)

		_, retrievedType, err := storage.Get(ctx, pdfKey)
		assert.NoError(t, err)
		assert.Equal(t, "application/pdf", retrievedType)

		binKey := "test/blob.bin"
		storage.UploadReader(ctx, strings.NewReader("data"), binKey, "", 4)
		_, retrievedType, err = storage.Get(ctx, binKey)
		assert.NoError(t, err)
		assert.Equal(t, "application/octet-stream", retrievedType)
	})

	t.Run("Delete removes file", func(t *testing.T) {
		err := storage.Delete(ctx, key)
		assert.NoError(t, err)

		_, err = os.Stat(filepath.Join(tempDir, key))
		assert.True(t, os.IsNotExist(err))

		// Deleting a missing key is not an error
		assert.NoError(t, storage.Delete(ctx, "does/not/exist"))
	})

	t.Run("URLs and paths", func(t *testing.T) {
		expected := "/" + filepath.Join(tempDir, "some/key")
		assert.Equal(t, expected, storage.GetPublicURL("some/key"))

		signed, err := storage.GetSignedURL(ctx, "some/key", time.Hour)
		assert.NoError(t, err)
		assert.Equal(t, expected, signed)
	})
}

func TestKeyGeneration(t *testing.T) {
	firmID := "f1"
	caseID := "c1"
	filename := "contract.pdf"

	t.Run("GenerateStorageKey", func(t *testing.T) {
		key := GenerateStorageKey("prefix", filename)
		assert.True(t, strings.HasPrefix(key, "prefix/"))
		assert.True(t, strings.HasSuffix(key, ".pdf"))
		// uuid_timestamp pair in the basename
		parts := strings.Split(filepath.Base(key), "_")
		assert.Len(t, parts, 2)
	})

	t.Run("GenerateCaseDocumentKey", func(t *testing.T) {
		key := GenerateCaseDocumentKey(firmID, caseID, filename)
		assert.True(t, strings.HasPrefix(key, "firms/f1/cases/c1/"))
	})

	t.Run("GenerateFirmDocumentKey", func(t *testing.T) {
		key := GenerateFirmDocumentKey(firmID, filename)
		assert.True(t, strings.HasPrefix(key, "firms/f1/documents/"))
	})

	t.Run("GeneratePaymentProofKey", func(t *testing.T) {
		key := GeneratePaymentProofKey(firmID, "inv1", "receipt.png")
		assert.True(t, strings.HasPrefix(key, "firms/f1/invoices/inv1/"))
		assert.True(t, strings.HasSuffix(key, ".png"))
	})
}
