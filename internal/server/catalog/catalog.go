// Package catalog is the metadata repository of the upload pipeline. It
// runs the documents repository over a *sql.DB and reports every failure as
// *common.RepositoryError.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/docvault/internal/common"
	"github.com/dmitrijs2005/docvault/internal/dbx"
	"github.com/dmitrijs2005/docvault/internal/server/config"
	"github.com/dmitrijs2005/docvault/internal/server/models"
	"github.com/dmitrijs2005/docvault/internal/server/repositories/repomanager"
)

// sqlOpen is a seam for tests.
var sqlOpen = sql.Open

// Catalog is safe for concurrent use; inserts for different documents do not
// block each other beyond the connection pool.
type Catalog struct {
	db      *sql.DB
	rm      repomanager.RepositoryManager
	timeout time.Duration
}

// New wraps an open database. timeout bounds each call; zero disables it.
func New(db *sql.DB, rm repomanager.RepositoryManager, timeout time.Duration) *Catalog {
	return &Catalog{db: db, rm: rm, timeout: timeout}
}

// Open connects to the catalog selected by cfg, checks the connection and
// applies migrations.
func Open(ctx context.Context, cfg *config.Config) (*Catalog, error) {
	rm, err := repomanager.New(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sqlOpen(rm.DriverName(), dsn)
	if err != nil {
		return nil, &common.RepositoryError{Op: "open", Cause: err}
	}
	if cfg.DatabaseDriver == config.DriverSQLite {
		// One writer at a time; also keeps :memory: databases on a single connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &common.RepositoryError{Op: "ping", Cause: err}
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, &common.RepositoryError{Op: "migrate", Cause: err}
	}

	return New(db, rm, cfg.DatabaseTimeout), nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Insert commits d in a single transaction and returns its document_id.
// On error no row is visible.
func (c *Catalog) Insert(ctx context.Context, d *models.Document) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	id, err := dbx.InTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) (string, error) {
		return c.rm.Documents(tx).Insert(ctx, d)
	})
	if err != nil {
		return "", &common.RepositoryError{Op: "insert", Cause: err}
	}
	return id, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (*models.Document, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	d, err := c.rm.Documents(c.db).Get(ctx, id)
	if err != nil {
		return nil, &common.RepositoryError{Op: "select", Cause: err}
	}
	return d, nil
}

func (c *Catalog) ListByUser(ctx context.Context, userID string) ([]*models.Document, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	list, err := c.rm.Documents(c.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, &common.RepositoryError{Op: "select", Cause: err}
	}
	return list, nil
}

// UpdateStatus moves a document to status. It is the entry point for
// downstream processors; the upload pipeline itself only creates rows.
func (c *Catalog) UpdateStatus(ctx context.Context, id, status string) error {
	if err := checkID(id); err != nil {
		return err
	}
	st, err := models.ParseDocumentStatus(status)
	if err != nil {
		return err
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	err = dbx.WithTx(ctx, c.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return c.rm.Documents(tx).UpdateStatus(ctx, id, st)
	})
	if err != nil {
		return &common.RepositoryError{Op: "update", Cause: err}
	}
	return nil
}

func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: invalid document id %q", common.ErrDocumentNotFound, id)
	}
	return nil
}
