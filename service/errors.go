package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidID         = errors.New("invalid id")
	ErrTaskNotFound      = errors.New("task not found")
	ErrGroupNotFound     = errors.New("group not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("e-mail already registered")
	ErrInvalidLogin      = errors.New("invalid login or password")
	ErrSelfDeletion      = errors.New("users cannot delete their own account")
	ErrEmptySpreadsheet  = errors.New("spreadsheet has no data rows")
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	ErrMappingIncomplete = errors.New("column mapping is incomplete")
	ErrExportDisabled    = errors.New("export target is not configured")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// PartialImportError reports an import that stopped after some batches were committed.
// Committed batches are not rolled back.
type PartialImportError struct {
	ImportID  string
	Committed int
	Batches   int
	Err       error
}

func (e *PartialImportError) Error() string {
	return fmt.Sprintf("import %s stopped after %d rows in %d batches: %v", e.ImportID, e.Committed, e.Batches, e.Err)
}

func (e *PartialImportError) Unwrap() error {
	return e.Err
}
