package decision

import "fmt"

// IntegrityError indicates an attempt to record a decision for a
// request that already has a different decision on file. The trail is
// append-only; the original record always wins.
type IntegrityError struct {
	RequestID    string
	ExistingHash string
	NewHash      string
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	return fmt.Sprintf("decision for request %q already recorded with different content (existing %s, new %s)",
		e.RequestID, shortHash(e.ExistingHash), shortHash(e.NewHash))
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// NotFoundError indicates that no decision exists for the request.
type NotFoundError struct {
	RequestID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no decision recorded for request %q", e.RequestID)
}

// StorageError represents an error from the storage backend.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("decision storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}
