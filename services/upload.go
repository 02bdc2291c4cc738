package services

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	// MaxDocumentUploadSize is the ceiling for case/firm documents
	MaxDocumentUploadSize = 25 * 1024 * 1024 // 25MB
	// MaxPaymentProofSize is the ceiling for invoice payment proofs
	MaxPaymentProofSize = 5 * 1024 * 1024 // 5MB
)

// allowedDocumentExtensions lists the accepted upload formats
var allowedDocumentExtensions = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".txt", ".jpg", ".jpeg", ".png", ".gif",
}

// DecodedUpload holds a decoded base64 upload payload
type DecodedUpload struct {
	Data     []byte
	MimeType string
}

// DecodeDataURL decodes a base64 data-URL upload field. The client sends
// either "data:<mime>;base64,<payload>" or a bare base64 string.
func DecodeDataURL(fileData string) (*DecodedUpload, error) {
	mimeType := ""
	payload := fileData

	if strings.HasPrefix(fileData, "data:") {
		parts := strings.SplitN(fileData, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed data URL")
		}
		header := strings.TrimPrefix(parts[0], "data:")
		header = strings.TrimSuffix(header, ";base64")
		mimeType = header
		payload = parts[1]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode file data: %w", err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("file data is empty")
	}

	return &DecodedUpload{Data: data, MimeType: mimeType}, nil
}

// ValidateDocumentUpload checks size and extension for a decoded document upload
func ValidateDocumentUpload(data []byte, fileName string) error {
	if int64(len(data)) > MaxDocumentUploadSize {
		return fmt.Errorf("File size must be under 25MB")
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	for _, allowed := range allowedDocumentExtensions {
		if ext == allowed {
			return nil
		}
	}

	return fmt.Errorf("file type not allowed. Accepted formats: PDF, DOC, DOCX, XLS, XLSX, TXT, JPG, PNG, GIF")
}

// ValidatePaymentProofUpload checks size and extension for a payment proof upload
func ValidatePaymentProofUpload(data []byte, fileName string) error {
	if int64(len(data)) > MaxPaymentProofSize {
		return fmt.Errorf("File size must be under 5MB")
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	allowed := []string{".pdf", ".jpg", ".jpeg", ".png"}
	for _, a := range allowed {
		if ext == a {
			return nil
		}
	}

	return fmt.Errorf("file type not allowed. Accepted formats: PDF, JPG, PNG")
}

// SniffMimeType returns a MIME type for the upload, preferring the data-URL
// header and falling back to the file extension
func SniffMimeType(declared string, fileName string) string {
	if declared != "" {
		return declared
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xls":
		return "application/vnd.ms-excel"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
