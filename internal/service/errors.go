package service

import "errors"

// Common service-level errors.
var (
	// ErrAlreadyCompleted is returned when completing a task that is
	// already in the completed state.
	ErrAlreadyCompleted = errors.New("task is already completed")

	// ErrEmptyImport is returned when an uploaded CSV contains no data rows.
	ErrEmptyImport = errors.New("import file contains no data rows")

	// ErrMissingHeader is returned when an uploaded CSV lacks the required
	// title column.
	ErrMissingHeader = errors.New("import file is missing the title column")
)
