package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/docvault/internal/common"
	"github.com/dmitrijs2005/docvault/internal/dbx"
	"github.com/dmitrijs2005/docvault/internal/server/models"
)

// SQLiteRepository stores upload_timestamp as RFC 3339 text in UTC so that
// lexical order matches time order.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func (r *SQLiteRepository) Insert(ctx context.Context, d *models.Document) (string, error) {
	query := `INSERT INTO documents (document_id, user_id, file_name, file_extension, file_size,
			mime_type, storage_url, storage_key, upload_timestamp, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING document_id`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		d.DocumentID.String(), d.UserID, d.FileName, d.FileExtension, int64(d.FileSize),
		nullString(d.MimeType), d.StorageURL, d.StorageKey.String(),
		d.UploadedAt.UTC().Format(sqliteTimeLayout), string(d.Status),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) scan(s scanner) (*models.Document, error) {
	var rec record
	var ts string
	if err := s.Scan(rec.fields(&ts)...); err != nil {
		return nil, err
	}
	t, err := time.Parse(sqliteTimeLayout, ts)
	if err != nil {
		return nil, fmt.Errorf("bad upload_timestamp %q: %w", ts, err)
	}
	return rec.document(t)
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + selectColumns + ` FROM documents WHERE document_id = ?`

	d, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", common.ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select document: %w", err)
	}
	return d, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]*models.Document, error) {
	query := `SELECT ` + selectColumns + ` FROM documents WHERE user_id = ?
		ORDER BY upload_timestamp DESC, document_id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("select documents: %w", err)
	}
	result, err := collect(rows, r.scan)
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) UpdateStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	query := `UPDATE documents SET status = ? WHERE document_id = ?`

	res, err := r.db.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return checkOneRow(res, id)
}
