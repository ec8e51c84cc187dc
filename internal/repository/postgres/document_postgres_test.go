package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"docstore/internal/model"
	"docstore/internal/repository"
)

func documentRows(doc *model.StoredDocument) *sqlmock.Rows {
	var deletedAt any
	if doc.DeletedAt != nil {
		deletedAt = *doc.DeletedAt
	}
	return sqlmock.NewRows([]string{"id", "created_by", "classification", "roles", "deleted", "deleted_at", "created_at"}).
		AddRow(doc.ID, doc.CreatorID, string(doc.Classification), []byte(`["citizen"]`), doc.Deleted, deletedAt, doc.CreatedAt)
}

func TestDocumentPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	doc := &model.StoredDocument{
		ID:             "test-uuid",
		CreatorID:      "user-a",
		Classification: model.ClassificationPublic,
		Roles:          []string{"citizen"},
		CreatedAt:      now,
	}

	mock.ExpectQuery("INSERT INTO stored_documents").
		WithArgs(doc.ID, doc.CreatorID, "PUBLIC", []byte(`["citizen"]`), doc.CreatedAt).
		WillReturnRows(documentRows(doc))

	result, err := repo.Create(ctx, doc)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, doc.ID, result.ID)
	assert.Equal(t, []string{"citizen"}, result.Roles)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		doc := &model.StoredDocument{
			ID:             "test-id",
			CreatorID:      "user-a",
			Classification: model.ClassificationPrivate,
			CreatedAt:      time.Now(),
		}
		mock.ExpectQuery("SELECT (.+) FROM stored_documents WHERE id = ?").
			WithArgs("test-id").
			WillReturnRows(documentRows(doc))

		got, err := repo.FindByID(ctx, "test-id")

		assert.NoError(t, err)
		assert.NotNil(t, got)
		assert.Equal(t, "test-id", got.ID)
		assert.Equal(t, model.ClassificationPrivate, got.Classification)
	})

	t.Run("soft-deleted row still returned", func(t *testing.T) {
		deletedAt := time.Now().UTC()
		doc := &model.StoredDocument{
			ID:             "deleted-id",
			CreatorID:      "user-a",
			Classification: model.ClassificationPublic,
			Deleted:        true,
			DeletedAt:      &deletedAt,
			CreatedAt:      time.Now(),
		}
		mock.ExpectQuery("SELECT (.+) FROM stored_documents WHERE id = ?").
			WithArgs("deleted-id").
			WillReturnRows(documentRows(doc))

		got, err := repo.FindByID(ctx, "deleted-id")

		assert.NoError(t, err)
		assert.True(t, got.Deleted)
		assert.NotNil(t, got.DeletedAt)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM stored_documents WHERE id = ?").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		got, err := repo.FindByID(ctx, "missing")

		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, got)
	})
}

func TestDocumentPostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM stored_documents").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	doc := &model.StoredDocument{
		ID:             "test-id",
		CreatorID:      "user-a",
		Classification: model.ClassificationPublic,
		CreatedAt:      time.Now(),
	}
	mock.ExpectQuery("SELECT (.+) FROM stored_documents WHERE NOT deleted ORDER BY").
		WithArgs(10, 0).
		WillReturnRows(documentRows(doc))

	res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Offset: 0})

	assert.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentPostgres_SoftDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDocumentPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectExec("UPDATE stored_documents SET deleted = TRUE").
		WithArgs("test-id", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.SoftDelete(ctx, "test-id", now)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
