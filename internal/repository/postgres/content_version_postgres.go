package postgres

import (
	"context"
	"database/sql"

	"docstore/internal/model"
	"docstore/internal/repository"
)

// ContentVersionPostgres is a PostgreSQL implementation of
// repository.ContentVersionRepository.
type ContentVersionPostgres struct {
	db *sql.DB
}

// NewContentVersionPostgres creates a new ContentVersionPostgres repository.
func NewContentVersionPostgres(db *sql.DB) *ContentVersionPostgres {
	return &ContentVersionPostgres{db: db}
}

var _ repository.ContentVersionRepository = (*ContentVersionPostgres)(nil)

const versionColumns = `id, document_id, size, mime_type, original_filename, content_uri, content_checksum, created_at`

// Create appends a version inside a transaction that locks the owning
// document row, serializing concurrent appends per document so the version
// sequence is strictly ordered with no lost append.
func (r *ContentVersionPostgres) Create(ctx context.Context, v *model.ContentVersion) (*model.ContentVersion, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const qLock = `SELECT id FROM stored_documents WHERE id = $1 FOR UPDATE`
	var lockedID string
	if err := tx.QueryRowContext(ctx, qLock, v.DocumentID).Scan(&lockedID); err != nil {
		return nil, err
	}

	const qInsert = `
		INSERT INTO content_versions
			(id, document_id, size, mime_type, original_filename, content_uri, content_checksum, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + versionColumns
	row := tx.QueryRowContext(ctx, qInsert,
		v.ID,
		v.DocumentID,
		v.Size,
		v.MimeType,
		v.OriginalFilename,
		v.ContentURI,
		v.ContentChecksum,
		v.CreatedAt,
	)
	out, err := scanVersion(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByID fetches a single version by its ID.
func (r *ContentVersionPostgres) FindByID(ctx context.Context, id string) (*model.ContentVersion, error) {
	const q = `
		SELECT ` + versionColumns + `
		FROM content_versions
		WHERE id = $1
	`
	return scanVersion(r.db.QueryRowContext(ctx, q, id))
}

// FindByDocument returns all versions of a document in insertion order
// (oldest first).
func (r *ContentVersionPostgres) FindByDocument(ctx context.Context, documentID string) ([]model.ContentVersion, error) {
	const q = `
		SELECT ` + versionColumns + `
		FROM content_versions
		WHERE document_id = $1
		ORDER BY seq ASC
	`
	rows, err := r.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	versions := make([]model.ContentVersion, 0)
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, *v)
	}
	return versions, rows.Err()
}

// MostRecent returns the newest version whose content location is intact.
func (r *ContentVersionPostgres) MostRecent(ctx context.Context, documentID string) (*model.ContentVersion, error) {
	const q = `
		SELECT ` + versionColumns + `
		FROM content_versions
		WHERE document_id = $1 AND content_uri IS NOT NULL
		ORDER BY seq DESC
		LIMIT 1
	`
	return scanVersion(r.db.QueryRowContext(ctx, q, documentID))
}

// ClearContentLocation nulls URI and checksum in one UPDATE so the pair can
// never be observed half-cleared. Clearing an already-cleared row is a no-op.
func (r *ContentVersionPostgres) ClearContentLocation(ctx context.Context, versionID string) error {
	const q = `
		UPDATE content_versions
		SET content_uri = NULL, content_checksum = NULL
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, q, versionID)
	return err
}

func scanVersion(s scanner) (*model.ContentVersion, error) {
	var (
		v        model.ContentVersion
		uri      sql.NullString
		checksum sql.NullString
	)
	if err := s.Scan(
		&v.ID,
		&v.DocumentID,
		&v.Size,
		&v.MimeType,
		&v.OriginalFilename,
		&uri,
		&checksum,
		&v.CreatedAt,
	); err != nil {
		return nil, err
	}
	if uri.Valid {
		u := uri.String
		v.ContentURI = &u
	}
	if checksum.Valid {
		c := checksum.String
		v.ContentChecksum = &c
	}
	return &v, nil
}
