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

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, d *models.Document) (string, error) {
	query := `INSERT INTO documents (document_id, user_id, file_name, file_extension, file_size,
			mime_type, storage_url, storage_key, upload_timestamp, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING document_id`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		d.DocumentID.String(), d.UserID, d.FileName, d.FileExtension, int64(d.FileSize),
		nullString(d.MimeType), d.StorageURL, d.StorageKey.String(), d.UploadedAt.UTC(), string(d.Status),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

func (r *PostgresRepository) scan(s scanner) (*models.Document, error) {
	var rec record
	var ts time.Time
	if err := s.Scan(rec.fields(&ts)...); err != nil {
		return nil, err
	}
	return rec.document(ts)
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + selectColumns + ` FROM documents WHERE document_id = $1`

	d, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", common.ErrDocumentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select document: %w", err)
	}
	return d, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Document, error) {
	query := `SELECT ` + selectColumns + ` FROM documents WHERE user_id = $1
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

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	query := `UPDATE documents SET status = $1 WHERE document_id = $2`

	res, err := r.db.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return checkOneRow(res, id)
}

func checkOneRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return fmt.Errorf("%w: %s", common.ErrDocumentNotFound, id)
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
