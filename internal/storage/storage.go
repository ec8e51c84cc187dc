package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// Package storage contains the blob content store abstraction for
// S3-compatible object stores. Implementations must rely on streaming I/O
// only, never local disk.

// ErrObjectNotFound is returned by Get when the key does not exist in the
// backend. Transient backend failures are returned as-is and must not be
// confused with confirmed absence.
var ErrObjectNotFound = errors.New("object not found in blob store")

// DeleteResult is the three-way outcome of DeleteIfExists.
type DeleteResult int

const (
	// DeleteFailed means the backend reported a failure other than
	// not-found; the object may or may not still exist.
	DeleteFailed DeleteResult = iota
	// Deleted means the backend confirmed removal of the object.
	Deleted
	// AlreadyAbsent means the backend reported the key as missing, which a
	// re-delete treats as success.
	AlreadyAbsent
)

func (r DeleteResult) String() string {
	switch r {
	case Deleted:
		return "deleted"
	case AlreadyAbsent:
		return "already_absent"
	}
	return "failed"
}

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the blob content store used for document binaries.
//
// All methods take a context; callers bound blob operations with a timeout
// and treat a deadline expiry as a transient failure, never as confirmed
// deletion or absence.
type Storage interface {
	// Put uploads an object under the given key using the provided reader.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its
	// info. Returns ErrObjectNotFound when the key does not exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// DeleteIfExists removes an object by key. A missing key is reported as
	// AlreadyAbsent with a nil error so re-deletes are idempotent; any other
	// backend failure is DeleteFailed with a non-nil error.
	DeleteIfExists(ctx context.Context, key string) (DeleteResult, error)
}
