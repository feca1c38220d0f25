// Package server wires configuration, storage, catalog and metrics into the
// upload pipeline and exposes the operations behind the uploader CLI.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/docvault/internal/logging"
	"github.com/dmitrijs2005/docvault/internal/server/catalog"
	"github.com/dmitrijs2005/docvault/internal/server/config"
	"github.com/dmitrijs2005/docvault/internal/server/identity"
	"github.com/dmitrijs2005/docvault/internal/server/metrics"
	"github.com/dmitrijs2005/docvault/internal/server/models"
	"github.com/dmitrijs2005/docvault/internal/server/services"
	"github.com/dmitrijs2005/docvault/internal/server/storage"
	"github.com/dmitrijs2005/docvault/internal/server/validator"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	blobs   storage.BlobStore
	catalog *catalog.Catalog
	metrics *metrics.UploadMetrics
	uploads *services.UploadService
}

// NewApp validates c and connects the storage backend and the catalog.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	blobs, err := storage.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	cat, err := catalog.Open(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	return newApp(c, logger, blobs, cat), nil
}

func newApp(c *config.Config, logger logging.Logger, blobs storage.BlobStore, cat *catalog.Catalog) *App {
	m := metrics.New()
	uploads := services.NewUploadService(
		validator.New(c.MaxFileSize, c.SupportedExtensions),
		identity.NewUUIDGenerator(),
		blobs,
		cat,
		services.WithLogger(logger),
		services.WithObserver(m),
		services.WithCompensation(c.CompensateOnCatalogFailure),
	)
	return &App{
		config:  c,
		logger:  logger,
		blobs:   blobs,
		catalog: cat,
		metrics: m,
		uploads: uploads,
	}
}

func (app *App) Close() error {
	return app.catalog.Close()
}

// UploadAll uploads paths for userID, at most UploadConcurrency at a time.
// Results are in the order of paths. Once ctx is cancelled, uploads that
// have not started storing are rejected; the others run to completion.
func (app *App) UploadAll(ctx context.Context, userID string, paths []string) []services.UploadResult {
	results := make([]services.UploadResult, len(paths))

	limit := app.config.UploadConcurrency
	if limit <= 0 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, p := range paths {
		g.Go(func() error {
			results[i] = app.uploads.Upload(ctx, p, userID)
			return nil
		})
	}
	_ = g.Wait()

	app.logBatch(ctx, results)
	if err := app.writeMetrics(); err != nil {
		app.logger.Warn(ctx, "metrics textfile not written", "path", app.config.MetricsTextfile, "error", err)
	}
	return results
}

func (app *App) logBatch(ctx context.Context, results []services.UploadResult) {
	var failed, orphaned int
	for _, r := range results {
		if !r.Success {
			failed++
		}
		if r.OrphanedKey != "" {
			orphaned++
		}
	}
	app.logger.Info(ctx, "batch finished", "total", len(results), "failed", failed, "orphaned", orphaned)
}

func (app *App) writeMetrics() error {
	if app.config.MetricsTextfile == "" {
		return nil
	}
	return app.metrics.WriteTextfile(app.config.MetricsTextfile)
}

// Show returns the catalog record of id and a retrieval URL valid for ttl
// (PresignTTL when ttl is zero). A failed presign leaves the URL empty and
// is returned alongside the document.
func (app *App) Show(ctx context.Context, id string, ttl time.Duration) (*models.Document, string, error) {
	d, err := app.catalog.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if ttl <= 0 {
		ttl = app.config.PresignTTL
	}

	u, err := app.blobs.PresignGet(ctx, d.StorageKey, ttl)
	if err != nil {
		return d, "", err
	}
	return d, u, nil
}

func (app *App) List(ctx context.Context, userID string) ([]*models.Document, error) {
	if userID == "" {
		return nil, errors.New("user id is required")
	}
	return app.catalog.ListByUser(ctx, userID)
}

func (app *App) SetStatus(ctx context.Context, id, status string) error {
	if err := app.catalog.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	app.logger.Info(ctx, "document status changed", "document_id", id, "status", status)
	return nil
}
