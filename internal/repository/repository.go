package repository

import (
	"context"
	"time"

	"docstore/internal/model"
)

// Package repository contains data access layer abstractions for the
// metadata store. Implementations live in subpackages (e.g. postgres) and
// contain strictly persistence operations, no business logic.

// DocumentRepository defines data access for stored documents.
type DocumentRepository interface {
	// Create inserts a new document row and returns the stored record.
	Create(ctx context.Context, doc *model.StoredDocument) (*model.StoredDocument, error)

	// FindByID returns a document by its ID, including soft-deleted rows;
	// the caller decides whether a soft-deleted document is visible.
	FindByID(ctx context.Context, id string) (*model.StoredDocument, error)

	// List returns a paginated list of non-deleted documents and the total
	// row count for the filter.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.StoredDocument], error)

	// SoftDelete marks a document deleted with the given timestamp. The row
	// is retained for audit. Idempotent: re-marking keeps the original
	// deletion timestamp.
	SoftDelete(ctx context.Context, id string, at time.Time) error
}

// ContentVersionRepository defines data access for content versions.
//
// The content URI and checksum columns form an atomic pair: they are written
// together on Create and cleared together by ClearContentLocation, never
// individually.
type ContentVersionRepository interface {
	// Create appends a version to a document's history. Appends for the
	// same document are serialized against each other so concurrent
	// re-uploads produce a strictly ordered sequence.
	Create(ctx context.Context, v *model.ContentVersion) (*model.ContentVersion, error)

	// FindByID returns a version by its ID.
	FindByID(ctx context.Context, id string) (*model.ContentVersion, error)

	// FindByDocument returns all versions of a document in insertion order.
	FindByDocument(ctx context.Context, documentID string) ([]model.ContentVersion, error)

	// MostRecent returns the latest version of the document whose binary is
	// still present (content location intact), or sql.ErrNoRows if none.
	MostRecent(ctx context.Context, documentID string) (*model.ContentVersion, error)

	// ClearContentLocation nulls the URI/checksum pair in a single atomic
	// update after the binary has been confirmed removed (or already absent)
	// in the blob store.
	ClearContentLocation(ctx context.Context, versionID string) error
}

// CaseLinkRepository associates documents with external case references.
type CaseLinkRepository interface {
	// Link records that a document belongs to a case. Linking the same pair
	// twice is a no-op.
	Link(ctx context.Context, caseRef, documentID string) error

	// FindDocumentIDs returns the IDs of all documents linked to a case.
	FindDocumentIDs(ctx context.Context, caseRef string) ([]string, error)
}

// AuditEntryRepository records the append-only audit trail.
type AuditEntryRepository interface {
	Record(ctx context.Context, entry *model.AuditEntry) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
