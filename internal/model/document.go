package model

import (
	"io"
	"time"
)

// Classification controls the default visibility of a stored document.
type Classification string

const (
	ClassificationPublic     Classification = "PUBLIC"
	ClassificationPrivate    Classification = "PRIVATE"
	ClassificationRestricted Classification = "RESTRICTED"
)

// Valid reports whether c is one of the known classification values.
func (c Classification) Valid() bool {
	switch c {
	case ClassificationPublic, ClassificationPrivate, ClassificationRestricted:
		return true
	}
	return false
}

// StoredDocument is the aggregate root for an uploaded file and its version
// history. It is a pure domain model with no database-specific dependencies
// or tags, usable across layers without coupling to persistence.
//
// A stored document always has at least one content version once created; the
// current version is the last appended one whose binary has not been deleted.
// Deletion is two-phase: Deleted/DeletedAt mark the metadata soft delete
// (rows are retained for audit), binary removal is tracked per version.
type StoredDocument struct {
	ID             string         `json:"id"`
	CreatorID      string         `json:"created_by"`
	Classification Classification `json:"classification"`
	Roles          []string       `json:"roles"`
	Deleted        bool           `json:"deleted"`
	DeletedAt      *time.Time     `json:"deleted_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// CreatorAware lets the permission evaluator treat StoredDocument as an
// access-controlled resource without reflection.
func (d *StoredDocument) GetCreatorID() string { return d.CreatorID }

// GetAuthorizedRoles returns the role names allowed to act on the document.
func (d *StoredDocument) GetAuthorizedRoles() []string { return d.Roles }

// ContentVersion is one immutable binary payload appended to a document's
// version history, plus its metadata.
//
// ContentURI and ContentChecksum are an atomic pair: both set while the
// binary exists in the blob store, both null once it has been deleted. A row
// with only one of the two set is an inconsistent state and must never be
// written or observed.
type ContentVersion struct {
	ID               string    `json:"id"`
	DocumentID       string    `json:"document_id"`
	Size             int64     `json:"size"`
	MimeType         string    `json:"mime_type"`
	OriginalFilename string    `json:"original_filename"`
	ContentURI       *string   `json:"content_uri,omitempty"`
	ContentChecksum  *string   `json:"content_checksum,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// HasContent reports whether the binary payload is still present in the blob
// store (both halves of the URI/checksum pair set).
func (v *ContentVersion) HasContent() bool {
	return v.ContentURI != nil && v.ContentChecksum != nil
}

// ConsistentContentState reports whether the URI/checksum pair is either
// fully set or fully cleared.
func (v *ContentVersion) ConsistentContentState() bool {
	return (v.ContentURI == nil) == (v.ContentChecksum == nil)
}

// CaseDocumentLink associates a document with an external case reference.
// Many documents may link to the same case.
type CaseDocumentLink struct {
	CaseRef    string    `json:"case_ref"`
	DocumentID string    `json:"document_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// UploadedFile is the command object for a single file in an upload request.
// Content is consumed exactly once while streaming to the blob store.
type UploadedFile struct {
	Content  io.Reader
	Size     int64
	MimeType string
	Filename string
}

// AuditAction identifies the operation recorded in the audit trail.
type AuditAction string

const (
	AuditActionCreated       AuditAction = "CREATED"
	AuditActionRead          AuditAction = "READ"
	AuditActionSoftDeleted   AuditAction = "SOFT_DELETED"
	AuditActionHardDeleted   AuditAction = "HARD_DELETED"
	AuditActionBinaryDeleted AuditAction = "BINARY_DELETED"
)

// AuditEntry is an append-only record of an operation on a document or one
// of its content versions.
type AuditEntry struct {
	ID          string      `json:"id"`
	Action      AuditAction `json:"action"`
	DocumentID  string      `json:"document_id"`
	VersionID   *string     `json:"version_id,omitempty"`
	PerformedBy string      `json:"performed_by"`
	RecordedAt  time.Time   `json:"recorded_at"`
}
