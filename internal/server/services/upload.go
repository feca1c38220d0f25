// Package services contains the upload pipeline. UploadService composes the
// validator, identity generator, blob store and catalog into one operation:
//
//	Validating -> Identifying -> Storing -> Persisting -> Done
//
// with terminal failures Rejected, StorageFailed and RepositoryFailed. The
// blob is always durable before its catalog row is written.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/docvault/internal/logging"
	"github.com/dmitrijs2005/docvault/internal/server/identity"
	"github.com/dmitrijs2005/docvault/internal/server/models"
	"github.com/dmitrijs2005/docvault/internal/server/storage"
	"github.com/dmitrijs2005/docvault/internal/server/validator"
)

// State is a pipeline state. The string values double as metric labels.
type State string

const (
	StateValidating  State = "validating"
	StateIdentifying State = "identifying"
	StateStoring     State = "storing"
	StatePersisting  State = "persisting"
	StateDone        State = "done"

	StateRejected         State = "rejected"
	StateStorageFailed    State = "storage_failed"
	StateRepositoryFailed State = "repository_failed"
)

// MetadataRepository records one catalog row per stored document.
type MetadataRepository interface {
	Insert(ctx context.Context, d *models.Document) (string, error)
}

// Observer receives pipeline outcomes, e.g. for metrics.
type Observer interface {
	ObserveUpload(outcome string, elapsed time.Duration, size uint64)
	ObserveCompensation(ok bool)
}

// Receipt describes a catalogued document.
type Receipt struct {
	DocumentID string
	FileName   string
	StorageURL string
	StorageKey models.StorageKey
}

// PipelineError is the error returned by Run. Error() is the message of the
// underlying error unchanged, and errors.Is/As see through it.
type PipelineError struct {
	State State
	Err   error
	// OrphanedKey is set when a stored blob is left without a catalog row.
	OrphanedKey models.StorageKey
}

func (e *PipelineError) Error() string { return e.Err.Error() }

func (e *PipelineError) Unwrap() error { return e.Err }

// UploadResult is the outcome of Upload. Either Success is true and
// DocumentID, FileName and StorageURL are set, or Success is false and Error
// is non-empty.
type UploadResult struct {
	Success    bool
	DocumentID string
	FileName   string
	StorageURL string
	Error      string

	// State is StateDone or the terminal failure state.
	State State
	// Err is the typed error behind Error.
	Err         error
	OrphanedKey models.StorageKey
}

// Option configures an UploadService.
type Option func(*UploadService)

func WithLogger(l logging.Logger) Option {
	return func(s *UploadService) { s.logger = l }
}

func WithObserver(o Observer) Option {
	return func(s *UploadService) { s.observer = o }
}

// WithCompensation controls whether a stored blob is deleted when its
// catalog insert fails. Enabled by default.
func WithCompensation(enabled bool) Option {
	return func(s *UploadService) { s.compensate = enabled }
}

// WithClock overrides the source of UploadedAt.
func WithClock(now func() time.Time) Option {
	return func(s *UploadService) { s.now = now }
}

// UploadService holds only adapter handles and is safe for concurrent use
// when they are.
type UploadService struct {
	validator validator.Validator
	ids       identity.Generator
	blobs     storage.BlobStore
	catalog   MetadataRepository

	logger     logging.Logger
	observer   Observer
	compensate bool
	now        func() time.Time
}

func NewUploadService(v validator.Validator, ids identity.Generator, blobs storage.BlobStore, catalog MetadataRepository, opts ...Option) *UploadService {
	s := &UploadService{
		validator:  v,
		ids:        ids,
		blobs:      blobs,
		catalog:    catalog,
		logger:     logging.Nop(),
		compensate: true,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload runs the pipeline and flattens the outcome into an UploadResult.
func (s *UploadService) Upload(ctx context.Context, path, userID string) UploadResult {
	rcpt, err := s.Run(ctx, path, userID)
	if err != nil {
		res := UploadResult{Error: err.Error(), Err: err, State: StateRejected}
		var pe *PipelineError
		if errors.As(err, &pe) {
			res.State = pe.State
			res.OrphanedKey = pe.OrphanedKey
		}
		return res
	}
	return UploadResult{
		Success:    true,
		DocumentID: rcpt.DocumentID,
		FileName:   rcpt.FileName,
		StorageURL: rcpt.StorageURL,
		State:      StateDone,
	}
}

// Run executes one pipeline. Every error is a *PipelineError.
//
// Cancellation of ctx is honored only until Storing begins; from then on the
// run continues to a terminal state on a context without cancellation, so a
// stored blob always ends either catalogued or compensated.
func (s *UploadService) Run(ctx context.Context, path, userID string) (*Receipt, error) {
	start := time.Now()
	log := s.logger.With("path", path, "user_id", userID)

	var size uint64
	finish := func(state State) {
		if s.observer != nil {
			s.observer.ObserveUpload(string(state), time.Since(start), size)
		}
	}

	log.Debug(ctx, "upload state", "state", StateValidating)
	desc, err := s.validator.Validate(path)
	if err != nil {
		log.Info(ctx, "upload rejected", "error", err)
		finish(StateRejected)
		return nil, &PipelineError{State: StateRejected, Err: err}
	}
	size = desc.SizeBytes

	log.Debug(ctx, "upload state", "state", StateIdentifying)
	key := s.ids.NewStorageKey(desc.Extension)
	log = log.With("storage_key", key.String())

	if err := ctx.Err(); err != nil {
		log.Info(ctx, "upload cancelled before storing", "error", err)
		finish(StateRejected)
		return nil, &PipelineError{State: StateRejected, Err: fmt.Errorf("upload cancelled: %w", err)}
	}
	ctx = context.WithoutCancel(ctx)

	log.Debug(ctx, "upload state", "state", StateStoring)
	loc, err := s.blobs.Put(ctx, path, key)
	if err != nil {
		log.Error(ctx, "blob store failed", "error", err)
		finish(StateStorageFailed)
		return nil, &PipelineError{State: StateStorageFailed, Err: err}
	}

	log.Debug(ctx, "upload state", "state", StatePersisting)
	doc := &models.Document{
		DocumentID:    s.ids.NewDocumentID(),
		UserID:        userID,
		FileName:      desc.OriginalName,
		FileExtension: desc.Extension,
		FileSize:      desc.SizeBytes,
		MimeType:      desc.MimeType,
		StorageURL:    loc.RetrievalURL,
		StorageKey:    key,
		UploadedAt:    s.now().UTC(),
		Status:        models.StatusUploaded,
	}
	id, err := s.catalog.Insert(ctx, doc)
	if err != nil {
		log.Error(ctx, "catalog insert failed", "error", err)
		pe := &PipelineError{State: StateRepositoryFailed, Err: err}
		if !s.compensateBlob(ctx, log, key) {
			pe.OrphanedKey = key
		}
		finish(StateRepositoryFailed)
		return nil, pe
	}

	log.Info(ctx, "document uploaded", "document_id", id, "size", desc.SizeBytes)
	finish(StateDone)
	return &Receipt{
		DocumentID: id,
		FileName:   desc.OriginalName,
		StorageURL: loc.RetrievalURL,
		StorageKey: key,
	}, nil
}

// compensateBlob makes exactly one attempt to delete key. It reports whether
// the blob is gone; a failure never changes the run's outcome.
func (s *UploadService) compensateBlob(ctx context.Context, log logging.Logger, key models.StorageKey) bool {
	if !s.compensate {
		log.Warn(ctx, "compensation disabled, blob left without catalog row")
		return false
	}

	err := s.blobs.Delete(ctx, key)
	if s.observer != nil {
		s.observer.ObserveCompensation(err == nil)
	}
	if err != nil {
		log.Error(ctx, "compensating delete failed, blob orphaned", "error", err)
		return false
	}
	log.Info(ctx, "compensating delete succeeded")
	return true
}
