package postgres

import (
	"context"
	"database/sql"

	"docstore/internal/repository"
)

// CaseLinkPostgres is a PostgreSQL implementation of repository.CaseLinkRepository.
type CaseLinkPostgres struct {
	db *sql.DB
}

// NewCaseLinkPostgres creates a new CaseLinkPostgres repository.
func NewCaseLinkPostgres(db *sql.DB) *CaseLinkPostgres {
	return &CaseLinkPostgres{db: db}
}

var _ repository.CaseLinkRepository = (*CaseLinkPostgres)(nil)

// Link records a case/document association. Re-linking the same pair is a no-op.
func (r *CaseLinkPostgres) Link(ctx context.Context, caseRef, documentID string) error {
	const q = `
		INSERT INTO case_document_links (case_ref, document_id)
		VALUES ($1, $2)
		ON CONFLICT (case_ref, document_id) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, q, caseRef, documentID)
	return err
}

// FindDocumentIDs returns the IDs of all documents linked to the case.
func (r *CaseLinkPostgres) FindDocumentIDs(ctx context.Context, caseRef string) ([]string, error) {
	const q = `
		SELECT document_id
		FROM case_document_links
		WHERE case_ref = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, q, caseRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
