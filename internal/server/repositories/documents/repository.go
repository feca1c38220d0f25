// Package documents persists catalog rows for uploaded documents.
package documents

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/docvault/internal/server/models"
)

// Repository is the documents table. Implementations run on a dbx.DBTX, so
// the caller decides whether a call runs inside a transaction.
type Repository interface {
	// Insert writes d and returns the document_id reported by the database.
	Insert(ctx context.Context, d *models.Document) (string, error)
	// Get returns common.ErrDocumentNotFound when no row matches.
	Get(ctx context.Context, id string) (*models.Document, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Document, error)
	// UpdateStatus returns common.ErrDocumentNotFound when no row matches.
	UpdateStatus(ctx context.Context, id string, status models.DocumentStatus) error
}

const selectColumns = `document_id, user_id, file_name, file_extension, file_size,
	mime_type, storage_url, storage_key, upload_timestamp, status`

type scanner interface {
	Scan(dest ...any) error
}

// record holds the driver-independent columns of one row.
type record struct {
	id     string
	userID string
	name   string
	ext    string
	size   int64
	mime   sql.NullString
	url    string
	key    string
	status string
}

// fields returns scan targets in selectColumns order with ts in the
// upload_timestamp slot.
func (r *record) fields(ts any) []any {
	return []any{&r.id, &r.userID, &r.name, &r.ext, &r.size, &r.mime, &r.url, &r.key, ts, &r.status}
}

func (r *record) document(uploadedAt time.Time) (*models.Document, error) {
	id, err := uuid.Parse(r.id)
	if err != nil {
		return nil, fmt.Errorf("bad document_id %q: %w", r.id, err)
	}
	if r.size < 0 {
		return nil, fmt.Errorf("bad file_size %d for %s", r.size, r.id)
	}
	status, err := models.ParseDocumentStatus(r.status)
	if err != nil {
		return nil, err
	}

	d := &models.Document{
		DocumentID:    id,
		UserID:        r.userID,
		FileName:      r.name,
		FileExtension: r.ext,
		FileSize:      uint64(r.size),
		StorageURL:    r.url,
		StorageKey:    models.StorageKey(r.key),
		UploadedAt:    uploadedAt.UTC(),
		Status:        status,
	}
	if r.mime.Valid {
		m := r.mime.String
		d.MimeType = &m
	}
	return d, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func collect(rows *sql.Rows, scan func(scanner) (*models.Document, error)) ([]*models.Document, error) {
	defer rows.Close()

	result := make([]*models.Document, 0)
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
