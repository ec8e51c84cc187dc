package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"docstore/internal/model"
	"docstore/internal/repository"
	"docstore/internal/security"
)

// CaseDeletionResult reports the outcome of one bulk deletion run.
// FailedIDs lists documents whose binary deletion did not complete; a later
// re-run picks them up again.
type CaseDeletionResult struct {
	CaseRef      string   `json:"case_ref"`
	DeletedCount int      `json:"deleted_count"`
	FailedIDs    []string `json:"failed_ids"`
}

// CaseDeletionService soft-deletes every document linked to a case and
// clears their binaries, as one auditable, idempotent batch.
type CaseDeletionService interface {
	// DeleteAllForCase processes each linked document independently:
	// soft-delete plus binary deletion of all its content versions. One
	// document's failure never blocks the rest of the batch. Re-invoking
	// with the same case reference only affects documents not yet fully
	// processed, since already-cleared versions report success on retry.
	// Restricted to callers holding a case-worker role.
	DeleteAllForCase(ctx context.Context, caseRef string, caller security.Caller) (*CaseDeletionResult, error)
}

// caseDeletionService is a concrete implementation of CaseDeletionService.
type caseDeletionService struct {
	caseLinks repository.CaseLinkRepository
	docs      repository.DocumentRepository
	audit     repository.AuditEntryRepository
	versions  ContentVersionService
	evaluator *security.Evaluator
}

// NewCaseDeletionService constructs a new CaseDeletionService.
func NewCaseDeletionService(
	caseLinks repository.CaseLinkRepository,
	docs repository.DocumentRepository,
	audit repository.AuditEntryRepository,
	versions ContentVersionService,
	evaluator *security.Evaluator,
) CaseDeletionService {
	return &caseDeletionService{
		caseLinks: caseLinks,
		docs:      docs,
		audit:     audit,
		versions:  versions,
		evaluator: evaluator,
	}
}

func (s *caseDeletionService) DeleteAllForCase(ctx context.Context, caseRef string, caller security.Caller) (*CaseDeletionResult, error) {
	if err := validation.Validate(caseRef, validation.Required); err != nil {
		return nil, fmt.Errorf("case ref: %w", err)
	}
	if !s.evaluator.IsCaseWorker(caller) {
		return nil, fmt.Errorf("%w: case deletion requires a case-worker role", ErrForbidden)
	}

	ids, err := s.caseLinks.FindDocumentIDs(ctx, caseRef)
	if err != nil {
		return nil, fmt.Errorf("find documents for case %s: %w", caseRef, err)
	}

	result := &CaseDeletionResult{CaseRef: caseRef, FailedIDs: make([]string, 0)}
	for _, id := range ids {
		if err := s.deleteDocument(ctx, id, caller); err != nil {
			logCaseDeletionFailure(caseRef, id, err)
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		result.DeletedCount++
	}
	return result, nil
}

// deleteDocument soft-deletes one document and clears all of its binaries.
// Each step is safe to repeat, so a partial failure leaves the document in a
// state a later run completes.
func (s *caseDeletionService) deleteDocument(ctx context.Context, id string, caller security.Caller) error {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: document %s", ErrNotFound, id)
		}
		return err
	}

	if !doc.Deleted {
		if err := s.docs.SoftDelete(ctx, doc.ID, time.Now().UTC()); err != nil {
			return fmt.Errorf("soft delete: %w", err)
		}
		entry := &model.AuditEntry{
			ID:          uuid.New().String(),
			Action:      model.AuditActionSoftDeleted,
			DocumentID:  doc.ID,
			PerformedBy: caller.ID,
			RecordedAt:  time.Now().UTC(),
		}
		if err := s.audit.Record(ctx, entry); err != nil {
			return fmt.Errorf("record audit entry: %w", err)
		}
	}

	versions, err := s.versions.VersionsOf(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}
	var sweepErr error
	for i := range versions {
		if err := s.versions.DeleteBinary(ctx, &versions[i]); err != nil {
			sweepErr = errors.Join(sweepErr, err)
		}
	}
	return sweepErr
}

func logCaseDeletionFailure(caseRef, documentID string, err error) {
	entry := map[string]any{
		"ts":          time.Now().UTC().Format(time.RFC3339Nano),
		"level":       "warn",
		"component":   "case_deletion",
		"event":       "document_delete_failed",
		"case_ref":    caseRef,
		"document_id": documentID,
		"error":       err.Error(),
	}
	if b, mErr := json.Marshal(entry); mErr == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
