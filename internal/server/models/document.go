package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/docvault/internal/common"
)

// DocumentStatus is the lifecycle state of a catalogued document.
type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

// ParseDocumentStatus validates s against the known statuses.
func ParseDocumentStatus(s string) (DocumentStatus, error) {
	switch st := DocumentStatus(s); st {
	case StatusUploaded, StatusProcessing, StatusReady, StatusFailed:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrInvalidStatus, s)
	}
}

// Document is one catalog row. A row is written exactly once per successful
// upload, after its blob is durable, and is never deleted by the uploader.
type Document struct {
	DocumentID    uuid.UUID
	UserID        string
	FileName      string
	FileExtension string
	FileSize      uint64
	// MimeType is nil when no type could be resolved.
	MimeType   *string
	StorageURL string
	StorageKey StorageKey
	UploadedAt time.Time
	Status     DocumentStatus
}
