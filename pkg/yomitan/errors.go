package yomitan

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArchive is returned for a file that is not a readable
	// dictionary archive.
	ErrInvalidArchive = errors.New("invalid dictionary archive")
	// ErrInvalidRecord is returned for a malformed index, term or tag record.
	ErrInvalidRecord = errors.New("invalid dictionary record")
)

// RecordError locates a malformed record. Index is the row position inside
// File, or -1 for the index file.
type RecordError struct {
	File    string
	Index   int
	Field   string
	Message string
}

func (e *RecordError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Field, e.Message)
	}
	return fmt.Sprintf("%s[%d]: %s: %s", e.File, e.Index, e.Field, e.Message)
}

func (e *RecordError) Unwrap() error { return ErrInvalidRecord }

func recordError(file string, index int, field, format string, args ...any) *RecordError {
	return &RecordError{File: file, Index: index, Field: field, Message: fmt.Sprintf(format, args...)}
}
