package service

import "errors"

// Error taxonomy shared by the document services. Backend failures are
// wrapped with these sentinels so callers can branch with errors.Is without
// depending on storage or driver error types.
var (
	// ErrNotFound means the entity is absent (or its binary already deleted).
	ErrNotFound = errors.New("document not found")

	// ErrForbidden means policy denied the caller. Handlers translate it to
	// the same generic response regardless of whether the resource exists.
	ErrForbidden = errors.New("access denied")

	// ErrStorageRead marks a transient blob-store read failure, safe to
	// retry at a higher layer.
	ErrStorageRead = errors.New("storage read failure")

	// ErrStorageWrite marks a transient blob-store write or delete failure.
	ErrStorageWrite = errors.New("storage write failure")

	// ErrInconsistentState means a content URI/checksum pair was observed
	// half-set. This must never occur; it is surfaced loudly instead of
	// silently repaired.
	ErrInconsistentState = errors.New("content uri/checksum pair inconsistent")
)
