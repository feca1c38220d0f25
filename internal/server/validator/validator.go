// Package validator inspects candidate files before anything is sent to
// storage.
package validator

import (
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dmitrijs2005/docvault/internal/common"
	"github.com/dmitrijs2005/docvault/internal/filex"
	"github.com/dmitrijs2005/docvault/internal/server/models"
)

const (
	mebibyte    = 1024 * 1024
	genericMIME = "application/octet-stream"
)

// Validator rejects a file or describes it.
type Validator interface {
	Validate(path string) (*models.FileDescriptor, error)
}

// FileValidator checks existence, extension and size. It only reads file
// metadata and the header used for content sniffing.
type FileValidator struct {
	maxSize    int64
	extensions []string
	allowed    map[string]struct{}
}

// New returns a FileValidator. Extensions must already be normalized
// (lowercase, leading dot); their order is kept for error messages.
func New(maxSize int64, extensions []string) *FileValidator {
	allowed := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		allowed[e] = struct{}{}
	}
	return &FileValidator{
		maxSize:    maxSize,
		extensions: append([]string(nil), extensions...),
		allowed:    allowed,
	}
}

// Validate returns a descriptor for the regular file at path or a
// *common.ValidationError.
func (v *FileValidator) Validate(path string) (*models.FileDescriptor, error) {
	fi, err := filex.StatRegular(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &common.ValidationError{
				Kind:    common.KindNotFound,
				Path:    path,
				Message: "file does not exist: " + path,
			}
		}
		return nil, &common.ValidationError{
			Kind:    common.KindNotFound,
			Path:    path,
			Message: fmt.Sprintf("file is not accessible: %s: %v", path, err),
		}
	}

	ext := strings.ToLower(filepath.Ext(fi.Name()))
	if _, ok := v.allowed[ext]; !ok {
		shown := ext
		if shown == "" {
			shown = "(none)"
		}
		return nil, &common.ValidationError{
			Kind: common.KindUnsupportedFormat,
			Path: path,
			Message: fmt.Sprintf("unsupported file format %s, supported formats: %s",
				shown, strings.Join(v.extensions, ", ")),
		}
	}

	size := fi.Size()
	if size > v.maxSize {
		return nil, &common.ValidationError{
			Kind: common.KindTooLarge,
			Path: path,
			Message: fmt.Sprintf("file too large: maximum size %.0fMB (%d bytes), current size %.2fMB (%d bytes)",
				float64(v.maxSize)/mebibyte, v.maxSize, float64(size)/mebibyte, size),
		}
	}

	return &models.FileDescriptor{
		OriginalName: fi.Name(),
		Extension:    ext,
		SizeBytes:    uint64(size),
		MimeType:     detectMIME(path, ext),
	}, nil
}

// detectMIME sniffs content first and falls back to the extension table.
// nil means no specific type could be resolved.
func detectMIME(path, ext string) *string {
	if m, err := mimetype.DetectFile(path); err == nil && !m.Is(genericMIME) {
		s := m.String()
		return &s
	}
	if t := mime.TypeByExtension(ext); t != "" && t != genericMIME {
		return &t
	}
	return nil
}
