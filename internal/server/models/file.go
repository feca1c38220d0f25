// Package models defines the values that flow through the upload pipeline
// and the rows persisted in the catalog.
package models

// FileDescriptor is the normalized description of a validated local file.
type FileDescriptor struct {
	// OriginalName is the base name of the file as supplied by the user.
	OriginalName string
	// Extension is lowercase and includes the leading dot (".pdf").
	Extension string
	SizeBytes uint64
	// MimeType is best effort; nil when unresolved.
	MimeType *string
}

// StorageKey identifies a blob in the object store. It has the form
// <uuid><extension> and never contains user-supplied name content.
type StorageKey string

func (k StorageKey) String() string { return string(k) }

// BlobLocator is the durable location of stored bytes.
type BlobLocator struct {
	Key          StorageKey
	RetrievalURL string
}
