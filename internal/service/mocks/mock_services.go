package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"docstore/internal/model"
	"docstore/internal/security"
	"docstore/internal/service"
	"docstore/internal/storage"
)

type MockStoredDocumentService struct {
	mock.Mock
}

func (m *MockStoredDocumentService) CreateFrom(ctx context.Context, cmd service.UploadDocumentsCommand) ([]model.StoredDocument, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StoredDocument), args.Error(1)
}

func (m *MockStoredDocumentService) Read(ctx context.Context, id string, caller security.Caller) (*model.StoredDocument, error) {
	args := m.Called(ctx, id, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredDocument), args.Error(1)
}

func (m *MockStoredDocumentService) ReadBinary(ctx context.Context, id string, caller security.Caller) (*model.ContentVersion, io.ReadCloser, error) {
	args := m.Called(ctx, id, caller)
	var v *model.ContentVersion
	if args.Get(0) != nil {
		v = args.Get(0).(*model.ContentVersion)
	}
	rc, _ := args.Get(1).(io.ReadCloser)
	return v, rc, args.Error(2)
}

func (m *MockStoredDocumentService) List(ctx context.Context, limit, offset int) (*service.DocumentListResult, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockStoredDocumentService) Delete(ctx context.Context, id string, caller security.Caller, permanent bool) error {
	args := m.Called(ctx, id, caller, permanent)
	return args.Error(0)
}

type MockContentVersionService struct {
	mock.Mock
}

func (m *MockContentVersionService) CreateVersion(ctx context.Context, documentID string, file model.UploadedFile) (*model.ContentVersion, error) {
	args := m.Called(ctx, documentID, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContentVersion), args.Error(1)
}

func (m *MockContentVersionService) MostRecentVersion(ctx context.Context, documentID string) (*model.ContentVersion, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ContentVersion), args.Error(1)
}

func (m *MockContentVersionService) VersionsOf(ctx context.Context, documentID string) ([]model.ContentVersion, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ContentVersion), args.Error(1)
}

func (m *MockContentVersionService) ReadBinary(ctx context.Context, version *model.ContentVersion) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, version)
	rc, _ := args.Get(0).(io.ReadCloser)
	return rc, args.Get(1).(storage.ObjectInfo), args.Error(2)
}

func (m *MockContentVersionService) DeleteBinary(ctx context.Context, version *model.ContentVersion) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

type MockCaseDeletionService struct {
	mock.Mock
}

func (m *MockCaseDeletionService) DeleteAllForCase(ctx context.Context, caseRef string, caller security.Caller) (*service.CaseDeletionResult, error) {
	args := m.Called(ctx, caseRef, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CaseDeletionResult), args.Error(1)
}
