package postgres

import (
	"context"
	"database/sql"

	"docstore/internal/model"
	"docstore/internal/repository"
)

// AuditPostgres is a PostgreSQL implementation of repository.AuditEntryRepository.
// The audit trail is append-only; entries are never updated or removed.
type AuditPostgres struct {
	db *sql.DB
}

// NewAuditPostgres creates a new AuditPostgres repository.
func NewAuditPostgres(db *sql.DB) *AuditPostgres {
	return &AuditPostgres{db: db}
}

var _ repository.AuditEntryRepository = (*AuditPostgres)(nil)

// Record appends an audit entry.
func (r *AuditPostgres) Record(ctx context.Context, entry *model.AuditEntry) error {
	const q = `
		INSERT INTO audit_entries (id, action, document_id, version_id, performed_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, q,
		entry.ID,
		string(entry.Action),
		entry.DocumentID,
		entry.VersionID,
		entry.PerformedBy,
		entry.RecordedAt,
	)
	return err
}
