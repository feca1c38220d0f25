// Package identity issues storage keys and document identifiers.
package identity

import (
	"github.com/google/uuid"

	"github.com/dmitrijs2005/docvault/internal/server/models"
)

// Generator produces fresh identities for one upload attempt.
type Generator interface {
	NewStorageKey(extension string) models.StorageKey
	NewDocumentID() uuid.UUID
}

// UUIDGenerator draws random (version 4) UUIDs. It is safe for concurrent use.
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator { return &UUIDGenerator{} }

// NewStorageKey returns <uuid><extension>. Only the extension comes from the
// caller; it is expected to be validated already.
func (UUIDGenerator) NewStorageKey(extension string) models.StorageKey {
	return models.StorageKey(uuid.NewString() + extension)
}

func (UUIDGenerator) NewDocumentID() uuid.UUID {
	return uuid.New()
}
