package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation indicates required input was missing or malformed.
	ErrValidation = errors.New("required input missing or invalid")
	// ErrAuthentication indicates an operation was attempted without a
	// valid session. The orchestrator checks this before doing any work.
	ErrAuthentication = errors.New("authentication required")
	// ErrInvalidCredentials indicates a failed login attempt.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrExtraction indicates the model call failed or returned data that
	// does not conform to the extraction schema.
	ErrExtraction = errors.New("invoice extraction failed")
	// ErrUpload indicates the object store rejected the file write.
	ErrUpload = errors.New("file upload to storage failed")
	// ErrPersistence indicates a database read or write failed.
	ErrPersistence = errors.New("invoice persistence failed")
	// ErrNotFound indicates the record or file does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden indicates the caller is authenticated but not allowed.
	ErrForbidden = errors.New("forbidden")

	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrDuplicateEmail      = errors.New("email already registered")
)

// OrphanedFileError reports a delete where the database record was removed
// but the backing file object could not be. The record stays deleted; the
// caller must be told which half succeeded.
type OrphanedFileError struct {
	FilePath string
	Err      error
}

func (e *OrphanedFileError) Error() string {
	return fmt.Sprintf("invoice record deleted but stored file %q could not be removed: %v", e.FilePath, e.Err)
}

func (e *OrphanedFileError) Unwrap() error {
	return e.Err
}

// StepError attributes a pipeline failure to the upload step that produced
// it, so the caller can report "upload failed" vs "extraction failed" vs
// "save failed".
type StepError struct {
	Step UploadState
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
