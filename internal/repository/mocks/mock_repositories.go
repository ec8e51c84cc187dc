package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"docstore/internal/model"
	"docstore/internal/repository"
)

type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) Create(ctx context.Context, doc *model.StoredDocument) (*model.StoredDocument, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredDocument), args.Error(1)
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id string) (*model.StoredDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredDocument), args.Error(1)
}

func (m *MockDocumentRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.StoredDocument], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.StoredDocument]), args.Error(1)
}

func (m *MockDocumentRepository) SoftDelete(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type MockContentVersionRepository struct {
	mock.Mock
}

func (m *MockContentVersionRepository) Create(ctx context.Context, v *model.ContentVersion) (*model.ContentVersion, error) {
	args := m.Called(ctx, v)
	if f, ok := args.Get(0).(func(context.Context, *model.ContentVersion) *model.ContentVersion); ok {
		return f(ctx, v), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContentVersion), args.Error(1)
}

func (m *MockContentVersionRepository) FindByID(ctx context.Context, id string) (*model.ContentVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContentVersion), args.Error(1)
}

func (m *MockContentVersionRepository) FindByDocument(ctx context.Context, documentID string) ([]model.ContentVersion, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ContentVersion), args.Error(1)
}

func (m *MockContentVersionRepository) MostRecent(ctx context.Context, documentID string) (*model.ContentVersion, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContentVersion), args.Error(1)
}

func (m *MockContentVersionRepository) ClearContentLocation(ctx context.Context, versionID string) error {
	args := m.Called(ctx, versionID)
	return args.Error(0)
}

type MockCaseLinkRepository struct {
	mock.Mock
}

func (m *MockCaseLinkRepository) Link(ctx context.Context, caseRef, documentID string) error {
	args := m.Called(ctx, caseRef, documentID)
	return args.Error(0)
}

func (m *MockCaseLinkRepository) FindDocumentIDs(ctx context.Context, caseRef string) ([]string, error) {
	args := m.Called(ctx, caseRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockAuditEntryRepository struct {
	mock.Mock
}

func (m *MockAuditEntryRepository) Record(ctx context.Context, entry *model.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
