package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"docstore/internal/model"
	"docstore/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db *sql.DB
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db *sql.DB) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `id, created_by, classification, roles, deleted, deleted_at, created_at`

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.StoredDocument) (*model.StoredDocument, error) {
	roles, err := json.Marshal(doc.Roles)
	if err != nil {
		return nil, fmt.Errorf("marshal roles: %w", err)
	}

	const q = `
		INSERT INTO stored_documents (id, created_by, classification, roles, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + documentColumns
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.CreatorID,
		string(doc.Classification),
		roles,
		doc.CreatedAt,
	)
	return scanDocument(row)
}

// FindByID fetches a single document by its ID. Soft-deleted rows are
// returned as well; visibility is the caller's decision.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.StoredDocument, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM stored_documents
		WHERE id = $1
	`
	return scanDocument(r.db.QueryRowContext(ctx, q, id))
}

// List returns non-deleted documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.StoredDocument], error) {
	const qCount = `SELECT COUNT(*) FROM stored_documents WHERE NOT deleted`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + documentColumns + `
		FROM stored_documents
		WHERE NOT deleted
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.StoredDocument, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.StoredDocument]{
		Items: items,
		Total: total,
	}, nil
}

// SoftDelete marks a document deleted, keeping the row for audit. The
// deletion timestamp is only written once so retries keep the original.
func (r *DocumentPostgres) SoftDelete(ctx context.Context, id string, at time.Time) error {
	const q = `
		UPDATE stored_documents
		SET deleted = TRUE, deleted_at = COALESCE(deleted_at, $2)
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, q, id, at)
	return err
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*model.StoredDocument, error) {
	var (
		d              model.StoredDocument
		classification string
		roles          []byte
		deletedAt      sql.NullTime
	)
	if err := s.Scan(
		&d.ID,
		&d.CreatorID,
		&classification,
		&roles,
		&d.Deleted,
		&deletedAt,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	d.Classification = model.Classification(classification)
	if deletedAt.Valid {
		t := deletedAt.Time
		d.DeletedAt = &t
	}
	if len(roles) > 0 {
		if err := json.Unmarshal(roles, &d.Roles); err != nil {
			return nil, fmt.Errorf("unmarshal roles: %w", err)
		}
	}
	return &d, nil
}
