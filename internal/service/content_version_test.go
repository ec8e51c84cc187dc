package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"docstore/internal/model"
	repoMocks "docstore/internal/repository/mocks"
	"docstore/internal/storage"
	storeMocks "docstore/internal/storage/mocks"
)

func newVersionService(mStore *storeMocks.MockStorage, mVersions *repoMocks.MockContentVersionRepository) ContentVersionService {
	return NewContentVersionService(mStore, mVersions, 5*time.Second)
}

func versionWithContent(id string) *model.ContentVersion {
	uri := "documents/doc-1/" + id
	checksum := "abc123"
	return &model.ContentVersion{
		ID:              id,
		DocumentID:      "doc-1",
		Size:            11,
		MimeType:        "text/plain",
		ContentURI:      &uri,
		ContentChecksum: &checksum,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestContentVersionService_CreateVersion(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path computes checksum while streaming", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mVersions := new(repoMocks.MockContentVersionRepository)
		svc := newVersionService(mStore, mVersions)

		content := "hello world"
		sum := sha256.Sum256([]byte(content))
		wantChecksum := hex.EncodeToString(sum[:])

		mStore.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "documents/doc-1/")
		}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
			return opt.Size == int64(len(content)) && opt.ContentType == "text/plain"
		})).Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
			// The service streams through a TeeReader; the store must drain
			// it for the checksum to cover the full payload.
			n, _ := io.Copy(io.Discard, r)
			return storage.ObjectInfo{Key: key, Size: n}
		}, nil)

		mVersions.On("Create", ctx, mock.MatchedBy(func(v *model.ContentVersion) bool {
			return v.DocumentID == "doc-1" &&
				v.HasContent() &&
				*v.ContentChecksum == wantChecksum &&
				strings.HasSuffix(*v.ContentURI, v.ID)
		})).Return(func(ctx context.Context, v *model.ContentVersion) *model.ContentVersion {
			return v
		}, nil)

		file := model.UploadedFile{
			Content:  strings.NewReader(content),
			Size:     int64(len(content)),
			MimeType: "text/plain",
			Filename: "test.txt",
		}
		v, err := svc.CreateVersion(ctx, "doc-1", file)

		assert.NoError(t, err)
		assert.Equal(t, wantChecksum, *v.ContentChecksum)
		assert.True(t, v.ConsistentContentState())
		mStore.AssertExpectations(t)
		mVersions.AssertExpectations(t)
	})

	t.Run("nil reader", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mVersions := new(repoMocks.MockContentVersionRepository)
		svc := newVersionService(mStore, mVersions)

		_, err := svc.CreateVersion(ctx, "doc-1", model.UploadedFile{})

		assert.ErrorIs(t, err, ErrStorageWrite)
		mVersions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("blob write failure persists no version", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mVersions := new(repoMocks.MockContentVersionRepository)
		svc := newVersionService(mStore, mVersions)

		mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("backend down"))

		_, err := svc.CreateVersion(ctx, "doc-1", model.UploadedFile{
			Content: strings.NewReader("hello"),
			Size:    5,
		})

		assert.ErrorIs(t, err, ErrStorageWrite)
		mVersions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("metadata failure rolls back the blob", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mVersions := new(repoMocks.MockContentVersionRepository)
		svc := newVersionService(mStore, mVersions)

		mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
				io.Copy(io.Discard, r)
				return storage.ObjectInfo{Key: key, Size: 5}
			}, nil)
		mVersions.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
		mStore.On("DeleteIfExists", mock.Anything, mock.Anything).Return(storage.Deleted, nil)

		_, err := svc.CreateVersion(ctx, "doc-1", model.UploadedFile{
			Content: strings.NewReader("hello"),
			Size:    5,
		})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "metadata save failed")
		mStore.AssertExpectations(t)
	})
}

func TestContentVersionService_MostRecentVersion(t *testing.T) {
	ctx := context.Background()

	t.Run("returns latest intact version", func(t *testing.T) {
		mVersions := new(repoMocks.MockContentVersionRepository)
		svc := newVersionService(nil, mVersions)

		want := versionWithContent("v-2")
		mVersions.On("MostRecent", ctx, "doc-1").Return(want, nil)

		got, err := svc.MostRecentVersion(ctx, "doc-1")

		assert.NoError(t, err)
		assert.Equal(t, "v-2", got.ID)
	})

	t.Run("no versions maps to not found", func(t *testing.T) {
		mVersions := new(repoMocks.MockContentVersionRepository)
		svc := newVersionService(nil, mVersions)

		mVersions.On("MostRecent", ctx, "doc-1").Return(nil, sql.ErrNoRows)

		_, err := svc.MostRecentVersion(ctx, "doc-1")

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("half-set pair fails loudly", func(t *testing.T) {
		mVersions := new(repoMocks.MockContentVersionRepository)
		svc := newVersionService(nil, mVersions)

		broken := versionWithContent("v-1")
		broken.ContentChecksum = nil
		mVersions.On("MostRecent", ctx, "doc-1").Return(broken, nil)

		_, err := svc.MostRecentVersion(ctx, "doc-1")

		assert.ErrorIs(t, err, ErrInconsistentState)
	})
}

func TestContentVersionService_ReadBinary(t *testing.T) {
	ctx := context.Background()

	t.Run("streams intact version", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		svc := newVersionService(mStore, nil)

		v := versionWithContent("v-1")
		mStore.On("Get", mock.Anything, *v.ContentURI).
			Return(io.NopCloser(strings.NewReader("hello world")), storage.ObjectInfo{Key: *v.ContentURI, Size: 11}, nil)

		rc, info, err := svc.ReadBinary(ctx, v)

		assert.NoError(t, err)
		assert.Equal(t, int64(11), info.Size)
		data, _ := io.ReadAll(rc)
		assert.Equal(t, "hello world", string(data))
		assert.NoError(t, rc.Close())
	})

	t.Run("binary already deleted", func(t *testing.T) {
		svc := newVersionService(nil, nil)

		v := versionWithContent("v-1")
		v.ContentURI = nil
		v.ContentChecksum = nil

		_, _, err := svc.ReadBinary(ctx, v)

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("backend not-found maps to not found", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		svc := newVersionService(mStore, nil)

		v := versionWithContent("v-1")
		mStore.On("Get", mock.Anything, *v.ContentURI).
			Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound)

		_, _, err := svc.ReadBinary(ctx, v)

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("transient backend failure", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		svc := newVersionService(mStore, nil)

		v := versionWithContent("v-1")
		mStore.On("Get", mock.Anything, *v.ContentURI).
			Return(nil, storage.ObjectInfo{}, errors.New("connection reset"))

		_, _, err := svc.ReadBinary(ctx, v)

		assert.ErrorIs(t, err, ErrStorageRead)
	})
}

func TestContentVersionService_DeleteBinary(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		deleteResult storage.DeleteResult
		deleteErr    error
		wantErr      error
		wantCleared  bool
	}{
		{
			name:         "confirmed delete clears the pair",
			deleteResult: storage.Deleted,
			wantCleared:  true,
		},
		{
			name:         "already absent clears the pair",
			deleteResult: storage.AlreadyAbsent,
			wantCleared:  true,
		},
		{
			name:         "backend failure leaves the row untouched",
			deleteResult: storage.DeleteFailed,
			deleteErr:    errors.New("conflict"),
			wantErr:      ErrStorageWrite,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mVersions := new(repoMocks.MockContentVersionRepository)
			svc := newVersionService(mStore, mVersions)

			v := versionWithContent("v-1")
			key := *v.ContentURI
			mStore.On("DeleteIfExists", mock.Anything, key).Return(tt.deleteResult, tt.deleteErr)
			if tt.wantCleared {
				mVersions.On("ClearContentLocation", ctx, "v-1").Return(nil)
			}

			err := svc.DeleteBinary(ctx, v)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, v.HasContent(), "pair must stay intact on failure")
			} else {
				assert.NoError(t, err)
				assert.Nil(t, v.ContentURI)
				assert.Nil(t, v.ContentChecksum)
				assert.True(t, v.ConsistentContentState())
			}
			mStore.AssertExpectations(t)
			mVersions.AssertExpectations(t)
		})
	}

	t.Run("idempotent on second call", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mVersions := new(repoMocks.MockContentVersionRepository)
		svc := newVersionService(mStore, mVersions)

		v := versionWithContent("v-1")
		key := *v.ContentURI
		mStore.On("DeleteIfExists", mock.Anything, key).Return(storage.AlreadyAbsent, nil).Once()
		mVersions.On("ClearContentLocation", ctx, "v-1").Return(nil).Once()

		assert.NoError(t, svc.DeleteBinary(ctx, v))
		assert.False(t, v.HasContent())

		// Second call: pair already cleared, no backend or metadata calls.
		assert.NoError(t, svc.DeleteBinary(ctx, v))
		mStore.AssertExpectations(t)
		mVersions.AssertExpectations(t)
	})

	t.Run("half-set pair fails loudly", func(t *testing.T) {
		svc := newVersionService(nil, nil)

		v := versionWithContent("v-1")
		v.ContentURI = nil

		assert.ErrorIs(t, svc.DeleteBinary(ctx, v), ErrInconsistentState)
	})

	t.Run("metadata clear failure propagates", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mVersions := new(repoMocks.MockContentVersionRepository)
		svc := newVersionService(mStore, mVersions)

		v := versionWithContent("v-1")
		mStore.On("DeleteIfExists", mock.Anything, mock.Anything).Return(storage.Deleted, nil)
		mVersions.On("ClearContentLocation", ctx, "v-1").Return(errors.New("db fail"))

		err := svc.DeleteBinary(ctx, v)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "clear content location")
	})
}
