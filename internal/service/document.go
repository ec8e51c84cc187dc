package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"docstore/internal/model"
	"docstore/internal/repository"
	"docstore/internal/security"
)

// UploadDocumentsCommand carries one upload request: a batch of files that
// all share the same classification, role list and creator. An optional case
// reference links every created document to that case.
type UploadDocumentsCommand struct {
	Files          []model.UploadedFile
	Classification model.Classification
	Roles          []string
	CreatorID      string
	CaseRef        string
}

// Validate checks the command before any storage is touched.
func (c UploadDocumentsCommand) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Files, validation.Required),
		validation.Field(&c.CreatorID, validation.Required),
		validation.Field(&c.Classification, validation.Required, validation.By(func(v any) error {
			if cl, ok := v.(model.Classification); !ok || !cl.Valid() {
				return fmt.Errorf("must be one of PUBLIC, PRIVATE, RESTRICTED")
			}
			return nil
		})),
	)
}

// StoredDocumentService mediates creation, reads and deletion of document
// aggregates. Every read/write consults the permission evaluator first and
// records an audit entry; binary operations are delegated to the
// ContentVersionService.
type StoredDocumentService interface {
	// CreateFrom creates one document plus its first content version per
	// uploaded file and returns the documents in input order.
	CreateFrom(ctx context.Context, cmd UploadDocumentsCommand) ([]model.StoredDocument, error)

	// Read returns the document metadata. ErrNotFound when absent or
	// soft-deleted, ErrForbidden when policy denies the caller.
	Read(ctx context.Context, id string, caller security.Caller) (*model.StoredDocument, error)

	// ReadBinary streams the most recent content version of the document,
	// under the same access rules as Read.
	ReadBinary(ctx context.Context, id string, caller security.Caller) (*model.ContentVersion, io.ReadCloser, error)

	// List returns non-deleted documents with limit/offset pagination.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// Delete soft-deletes the document (metadata retained for audit). With
	// permanent set it additionally deletes the binary of every content
	// version through the ContentVersionService.
	Delete(ctx context.Context, id string, caller security.Caller, permanent bool) error
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.StoredDocument `json:"data"`
	Total int                    `json:"total"`
}

// storedDocumentService is a concrete implementation of StoredDocumentService.
type storedDocumentService struct {
	docs      repository.DocumentRepository
	caseLinks repository.CaseLinkRepository
	audit     repository.AuditEntryRepository
	versions  ContentVersionService
	evaluator *security.Evaluator
}

// NewStoredDocumentService constructs a new StoredDocumentService. The
// evaluator is built once at startup with the case-worker allowlist and
// shared by reference.
func NewStoredDocumentService(
	docs repository.DocumentRepository,
	caseLinks repository.CaseLinkRepository,
	audit repository.AuditEntryRepository,
	versions ContentVersionService,
	evaluator *security.Evaluator,
) StoredDocumentService {
	return &storedDocumentService{
		docs:      docs,
		caseLinks: caseLinks,
		audit:     audit,
		versions:  versions,
		evaluator: evaluator,
	}
}

func (s *storedDocumentService) CreateFrom(ctx context.Context, cmd UploadDocumentsCommand) ([]model.StoredDocument, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	created := make([]model.StoredDocument, 0, len(cmd.Files))
	for _, file := range cmd.Files {
		doc := &model.StoredDocument{
			ID:             uuid.New().String(),
			CreatorID:      cmd.CreatorID,
			Classification: cmd.Classification,
			Roles:          cmd.Roles,
			CreatedAt:      time.Now().UTC(),
		}
		stored, err := s.docs.Create(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("create document: %w", err)
		}

		if _, err := s.versions.CreateVersion(ctx, stored.ID, file); err != nil {
			// A document must not remain visible without a content version;
			// retire the fresh row and surface the failure.
			_ = s.docs.SoftDelete(ctx, stored.ID, time.Now().UTC())
			return nil, fmt.Errorf("create first content version: %w", err)
		}

		if cmd.CaseRef != "" {
			if err := s.caseLinks.Link(ctx, cmd.CaseRef, stored.ID); err != nil {
				return nil, fmt.Errorf("link document to case %s: %w", cmd.CaseRef, err)
			}
		}

		if err := s.recordAudit(ctx, model.AuditActionCreated, stored.ID, nil, cmd.CreatorID); err != nil {
			return nil, err
		}
		created = append(created, *stored)
	}
	return created, nil
}

func (s *storedDocumentService) Read(ctx context.Context, id string, caller security.Caller) (*model.StoredDocument, error) {
	doc, err := s.authorize(ctx, id, security.PermissionRead, caller)
	if err != nil {
		return nil, err
	}
	if err := s.recordAudit(ctx, model.AuditActionRead, doc.ID, nil, caller.ID); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *storedDocumentService) ReadBinary(ctx context.Context, id string, caller security.Caller) (*model.ContentVersion, io.ReadCloser, error) {
	doc, err := s.authorize(ctx, id, security.PermissionRead, caller)
	if err != nil {
		return nil, nil, err
	}
	version, err := s.versions.MostRecentVersion(ctx, doc.ID)
	if err != nil {
		return nil, nil, err
	}
	rc, _, err := s.versions.ReadBinary(ctx, version)
	if err != nil {
		return nil, nil, err
	}
	if err := s.recordAudit(ctx, model.AuditActionRead, doc.ID, &version.ID, caller.ID); err != nil {
		rc.Close()
		return nil, nil, err
	}
	return version, rc, nil
}

// List returns paginated documents without exposing repository types.
func (s *storedDocumentService) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.docs.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *storedDocumentService) Delete(ctx context.Context, id string, caller security.Caller, permanent bool) error {
	if !caller.Authenticated() {
		return fmt.Errorf("%w: unauthenticated", ErrForbidden)
	}

	// Unlike Read, an already-soft-deleted document stays addressable here
	// so a permanent delete can still sweep its binaries.
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: document %s", ErrNotFound, id)
		}
		return err
	}
	if s.evaluator.Evaluate(doc, security.PermissionDelete, caller) == security.DecisionDeny {
		return fmt.Errorf("%w: document %s", ErrForbidden, id)
	}

	if err := s.docs.SoftDelete(ctx, doc.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("soft delete document %s: %w", doc.ID, err)
	}
	if err := s.recordAudit(ctx, model.AuditActionSoftDeleted, doc.ID, nil, caller.ID); err != nil {
		return err
	}
	if !permanent {
		return nil
	}

	versions, err := s.versions.VersionsOf(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("list versions of document %s: %w", doc.ID, err)
	}
	var sweepErr error
	for i := range versions {
		if err := s.versions.DeleteBinary(ctx, &versions[i]); err != nil {
			sweepErr = errors.Join(sweepErr, err)
		}
	}
	if sweepErr != nil {
		return sweepErr
	}
	return s.recordAudit(ctx, model.AuditActionHardDeleted, doc.ID, nil, caller.ID)
}

// authorize looks up the document and applies the read/update access rules.
//
// Order matters for enumeration resistance: unauthenticated callers are
// denied before the lookup so they cannot distinguish absent from forbidden,
// while authenticated callers learn absence because the evaluator grants
// access to nonexistent identifiers.
func (s *storedDocumentService) authorize(ctx context.Context, id string, perm security.Permission, caller security.Caller) (*model.StoredDocument, error) {
	if !caller.Authenticated() {
		return nil, fmt.Errorf("%w: unauthenticated", ErrForbidden)
	}

	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: document %s", ErrNotFound, id)
		}
		return nil, err
	}
	if doc.Deleted {
		return nil, fmt.Errorf("%w: document %s", ErrNotFound, id)
	}

	switch s.evaluator.Evaluate(doc, perm, caller) {
	case security.DecisionAllow, security.DecisionNotApplicable:
		// Not-applicable targets fall back to unconditional allow; the
		// aggregate only manages access-controlled documents, so that arm
		// is a safety net.
		return doc, nil
	default:
		return nil, fmt.Errorf("%w: document %s", ErrForbidden, id)
	}
}

func (s *storedDocumentService) recordAudit(ctx context.Context, action model.AuditAction, documentID string, versionID *string, performedBy string) error {
	entry := &model.AuditEntry{
		ID:          uuid.New().String(),
		Action:      action,
		DocumentID:  documentID,
		VersionID:   versionID,
		PerformedBy: performedBy,
		RecordedAt:  time.Now().UTC(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}
