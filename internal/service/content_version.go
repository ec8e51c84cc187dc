package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"docstore/internal/model"
	"docstore/internal/repository"
	"docstore/internal/storage"
)

// ContentVersionService owns the lifecycle of binary content versions:
// creation with checksum computation, current-version resolution, streaming
// reads, and idempotent binary deletion.
type ContentVersionService interface {
	// CreateVersion streams the file to the blob store under a fresh
	// content key, computing a SHA-256 checksum on the way, and appends a
	// ContentVersion with the URI/checksum pair set. No version row is
	// persisted when the blob write fails.
	CreateVersion(ctx context.Context, documentID string, file model.UploadedFile) (*model.ContentVersion, error)

	// MostRecentVersion returns the last appended version whose binary is
	// still present, or ErrNotFound when the document has none.
	MostRecentVersion(ctx context.Context, documentID string) (*model.ContentVersion, error)

	// VersionsOf returns the full version history of a document in
	// insertion order, including versions whose binary is gone.
	VersionsOf(ctx context.Context, documentID string) ([]model.ContentVersion, error)

	// ReadBinary streams a version's content. ErrNotFound when the binary
	// has already been deleted, ErrStorageRead on backend failure.
	ReadBinary(ctx context.Context, version *model.ContentVersion) (io.ReadCloser, storage.ObjectInfo, error)

	// DeleteBinary removes a version's binary and clears the URI/checksum
	// pair. Idempotent: a version whose pair is already cleared, or whose
	// key the backend reports as already absent, is a success. A backend
	// failure leaves the row untouched and returns ErrStorageWrite.
	DeleteBinary(ctx context.Context, version *model.ContentVersion) error
}

// contentVersionService is a concrete implementation of ContentVersionService.
type contentVersionService struct {
	store       storage.Storage
	versions    repository.ContentVersionRepository
	blobTimeout time.Duration
}

// NewContentVersionService constructs a new ContentVersionService. Blob
// operations are bounded by blobTimeout; an expiry is treated as a transient
// failure, never as confirmed absence.
func NewContentVersionService(store storage.Storage, versions repository.ContentVersionRepository, blobTimeout time.Duration) ContentVersionService {
	return &contentVersionService{store: store, versions: versions, blobTimeout: blobTimeout}
}

func (s *contentVersionService) CreateVersion(ctx context.Context, documentID string, file model.UploadedFile) (*model.ContentVersion, error) {
	if file.Content == nil {
		return nil, fmt.Errorf("%w: file content reader is nil", ErrStorageWrite)
	}

	versionID := uuid.New().String()
	key := fmt.Sprintf("documents/%s/%s", documentID, versionID)

	hasher := sha256.New()
	tee := io.TeeReader(file.Content, hasher)

	putCtx, cancel := context.WithTimeout(ctx, s.blobTimeout)
	defer cancel()

	info, err := s.store.Put(putCtx, key, tee, storage.PutObjectOptions{
		Size:        file.Size,
		ContentType: file.MimeType,
		Metadata: map[string]string{
			"original-filename": file.Filename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: upload %s: %v", ErrStorageWrite, key, err)
	}

	checksum := hex.EncodeToString(hasher.Sum(nil))
	v := &model.ContentVersion{
		ID:               versionID,
		DocumentID:       documentID,
		Size:             info.Size,
		MimeType:         file.MimeType,
		OriginalFilename: file.Filename,
		ContentURI:       &key,
		ContentChecksum:  &checksum,
		CreatedAt:        time.Now().UTC(),
	}

	stored, err := s.versions.Create(ctx, v)
	if err != nil {
		// Keep the stores consistent: the blob must not outlive a failed
		// metadata write.
		rbCtx, rbCancel := context.WithTimeout(context.WithoutCancel(ctx), s.blobTimeout)
		defer rbCancel()
		if _, delErr := s.store.DeleteIfExists(rbCtx, key); delErr != nil {
			return nil, fmt.Errorf("metadata save failed: %v; rollback delete failed: %w", err, delErr)
		}
		return nil, fmt.Errorf("metadata save failed: %w", err)
	}
	return stored, nil
}

func (s *contentVersionService) MostRecentVersion(ctx context.Context, documentID string) (*model.ContentVersion, error) {
	v, err := s.versions.MostRecent(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: no content version for document %s", ErrNotFound, documentID)
		}
		return nil, err
	}
	if !v.ConsistentContentState() {
		return nil, fmt.Errorf("%w: version %s", ErrInconsistentState, v.ID)
	}
	return v, nil
}

func (s *contentVersionService) VersionsOf(ctx context.Context, documentID string) ([]model.ContentVersion, error) {
	return s.versions.FindByDocument(ctx, documentID)
}

func (s *contentVersionService) ReadBinary(ctx context.Context, version *model.ContentVersion) (io.ReadCloser, storage.ObjectInfo, error) {
	if !version.ConsistentContentState() {
		return nil, storage.ObjectInfo{}, fmt.Errorf("%w: version %s", ErrInconsistentState, version.ID)
	}
	if !version.HasContent() {
		return nil, storage.ObjectInfo{}, fmt.Errorf("%w: binary of version %s already deleted", ErrNotFound, version.ID)
	}

	getCtx, cancel := context.WithTimeout(ctx, s.blobTimeout)
	rc, info, err := s.store.Get(getCtx, *version.ContentURI)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, storage.ObjectInfo{}, fmt.Errorf("%w: version %s", ErrNotFound, version.ID)
		}
		return nil, storage.ObjectInfo{}, fmt.Errorf("%w: %v", ErrStorageRead, err)
	}
	return &cancelOnClose{ReadCloser: rc, cancel: cancel}, info, nil
}

func (s *contentVersionService) DeleteBinary(ctx context.Context, version *model.ContentVersion) error {
	if !version.ConsistentContentState() {
		return fmt.Errorf("%w: version %s", ErrInconsistentState, version.ID)
	}
	if !version.HasContent() {
		// Already cleared on a previous pass; re-delete is a success.
		return nil
	}

	delCtx, cancel := context.WithTimeout(ctx, s.blobTimeout)
	defer cancel()

	result, err := s.store.DeleteIfExists(delCtx, *version.ContentURI)
	switch result {
	case storage.Deleted, storage.AlreadyAbsent:
		// Confirmed gone either way; clear the pair in one atomic update.
		if err := s.versions.ClearContentLocation(ctx, version.ID); err != nil {
			return fmt.Errorf("clear content location of version %s: %w", version.ID, err)
		}
		version.ContentURI = nil
		version.ContentChecksum = nil
		return nil
	default:
		// The row keeps its URI/checksum pair so a later retry can find the
		// blob again. Not retried synchronously.
		logSoftFailure(version, err)
		return fmt.Errorf("%w: delete %s: %v", ErrStorageWrite, *version.ContentURI, err)
	}
}

// cancelOnClose ties the blob-read timeout context to the stream lifetime.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func logSoftFailure(version *model.ContentVersion, err error) {
	entry := map[string]any{
		"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		"level":      "warn",
		"component":  "content_version",
		"event":      "binary_delete_failed",
		"version_id": version.ID,
	}
	if err != nil {
		entry["error"] = err.Error()
	}
	if b, mErr := json.Marshal(entry); mErr == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
