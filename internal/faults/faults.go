// Package faults defines the error taxonomy shared by the synchronous
// upload path and the asynchronous pipeline workers.
package faults

import (
	"errors"
	"fmt"
)

// ValidationError reports a user-correctable rejection of an uploaded file,
// either an unsupported mime type or a size above the category ceiling.
type ValidationError struct {
	Category string
	Limit    int64
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("%s (category %q, limit %d bytes)", e.Reason, e.Category, e.Limit)
	}
	return e.Reason
}

// NotFoundError reports a missing folder, media record or source file.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// StorageError wraps a failed blob store read or write. It is surfaced to
// the synchronous caller; workers rely on queue redelivery instead of
// retrying in place.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ExternalToolError reports a non-zero exit from an external process such
// as clamdscan or ffmpeg. Output carries the process output for the logs.
type ExternalToolError struct {
	Tool   string
	Output string
	Err    error
}

func (e *ExternalToolError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// PathSecurityError reports a resolved path escaping the allowed upload
// root. Always rejected, never downgraded to a warning.
type PathSecurityError struct {
	Path string
}

func (e *PathSecurityError) Error() string {
	return fmt.Sprintf("invalid file path detected, access forbidden: %s", e.Path)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsStorage(err error) bool {
	var target *StorageError
	return errors.As(err, &target)
}

func IsExternalTool(err error) bool {
	var target *ExternalToolError
	return errors.As(err, &target)
}

func IsPathSecurity(err error) bool {
	var target *PathSecurityError
	return errors.As(err, &target)
}
