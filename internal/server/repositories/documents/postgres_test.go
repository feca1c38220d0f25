package documents

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/docvault/internal/common"
	"github.com/dmitrijs2005/docvault/internal/server/models"
)

var columns = []string{"document_id", "user_id", "file_name", "file_extension", "file_size",
	"mime_type", "storage_url", "storage_key", "upload_timestamp", "status"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func sampleDocument() *models.Document {
	mime := "application/pdf"
	return &models.Document{
		DocumentID:    uuid.MustParse("7f3c2a3e-5d5e-4b8e-9a51-1f0c2e9d8b10"),
		UserID:        "user123",
		FileName:      "syllabus.pdf",
		FileExtension: ".pdf",
		FileSize:      1024,
		MimeType:      &mime,
		StorageURL:    "https://syllabus-documents.s3.us-east-1.amazonaws.com/k.pdf",
		StorageKey:    "k.pdf",
		UploadedAt:    time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Status:        models.StatusUploaded,
	}
}

func TestInsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	d := sampleDocument()
	q := `(?s)^INSERT\s+INTO\s+documents\b.*VALUES\s*\(\$1,.*\$10\)\s*RETURNING\s+document_id$`

	mock.ExpectQuery(q).
		WithArgs(d.DocumentID.String(), "user123", "syllabus.pdf", ".pdf", int64(1024),
			"application/pdf", d.StorageURL, "k.pdf", d.UploadedAt, "uploaded").
		WillReturnRows(sqlmock.NewRows([]string{"document_id"}).AddRow(d.DocumentID.String()))

	id, err := repo.Insert(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, d.DocumentID.String(), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_NullMime(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	d := sampleDocument()
	d.MimeType = nil

	mock.ExpectQuery(`INSERT\s+INTO\s+documents`).
		WithArgs(d.DocumentID.String(), "user123", "syllabus.pdf", ".pdf", int64(1024),
			nil, d.StorageURL, "k.pdf", d.UploadedAt, "uploaded").
		WillReturnRows(sqlmock.NewRows([]string{"document_id"}).AddRow(d.DocumentID.String()))

	_, err := repo.Insert(context.Background(), d)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+documents`).WillReturnError(errors.New("db down"))

	_, err := repo.Insert(context.Background(), sampleDocument())
	if err == nil || !regexp.MustCompile(`insert document: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGet(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	d := sampleDocument()
	q := `(?s)^SELECT\s+document_id,.*FROM\s+documents\s+WHERE\s+document_id\s*=\s*\$1$`

	mock.ExpectQuery(q).WithArgs(d.DocumentID.String()).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			d.DocumentID.String(), "user123", "syllabus.pdf", ".pdf", int64(1024),
			"application/pdf", d.StorageURL, "k.pdf", d.UploadedAt, "uploaded"))

	got, err := repo.Get(context.Background(), d.DocumentID.String())
	require.NoError(t, err)
	assert.Equal(t, d, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WithArgs("missing").WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, common.ErrDocumentNotFound)
}

func TestGet_BadStatus(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	d := sampleDocument()
	mock.ExpectQuery(`SELECT`).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			d.DocumentID.String(), "u", "f.pdf", ".pdf", int64(1), nil, "url", "k", d.UploadedAt, "archived"))

	_, err := repo.Get(context.Background(), d.DocumentID.String())
	require.ErrorIs(t, err, common.ErrInvalidStatus)
}

func TestListByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	d := sampleDocument()
	other := uuid.MustParse("00000000-0000-4000-8000-000000000001")
	q := `(?s)^SELECT\s+.*FROM\s+documents\s+WHERE\s+user_id\s*=\s*\$1\s+ORDER\s+BY\s+upload_timestamp\s+DESC`

	mock.ExpectQuery(q).WithArgs("user123").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(d.DocumentID.String(), "user123", "syllabus.pdf", ".pdf", int64(1024),
				"application/pdf", d.StorageURL, "k.pdf", d.UploadedAt, "uploaded").
			AddRow(other.String(), "user123", "notes.doc", ".doc", int64(10),
				nil, "url2", "k2.doc", d.UploadedAt.Add(-time.Hour), "ready"))

	got, err := repo.ListByUser(context.Background(), "user123")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, d, got[0])
	assert.Equal(t, other, got[1].DocumentID)
	assert.Nil(t, got[1].MimeType)
	assert.Equal(t, models.StatusReady, got[1].Status)
}

func TestListByUser_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WithArgs("nobody").WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.ListByUser(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListByUser_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT`).WillReturnError(errors.New("timeout"))

	_, err := repo.ListByUser(context.Background(), "u")
	assert.ErrorContains(t, err, "select documents: timeout")
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name    string
		result  sql.Result
		wantErr error
		wantMsg string
	}{
		{name: "one row", result: sqlmock.NewResult(0, 1)},
		{name: "no rows", result: sqlmock.NewResult(0, 0), wantErr: common.ErrDocumentNotFound},
		{name: "many rows", result: sqlmock.NewResult(0, 2), wantMsg: "unexpected rows affected: 2"},
		{name: "rows affected error", result: sqlmock.NewErrorResult(errors.New("rows-err")), wantMsg: "rows affected error: rows-err"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectExec(`^UPDATE\s+documents\s+SET\s+status\s*=\s*\$1\s+WHERE\s+document_id\s*=\s*\$2$`).
				WithArgs("ready", "id1").
				WillReturnResult(tc.result)

			err := repo.UpdateStatus(context.Background(), "id1", models.StatusReady)
			switch {
			case tc.wantErr != nil:
				require.ErrorIs(t, err, tc.wantErr)
			case tc.wantMsg != "":
				require.EqualError(t, err, tc.wantMsg)
			default:
				require.NoError(t, err)
			}
		})
	}
}
