package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownReference marks a solver id with no entry in the shared
	// solver table.
	ErrUnknownReference = errors.New("ingest: unknown reference")
	// ErrMissingField marks a required field that is absent.
	ErrMissingField = errors.New("ingest: missing required field")
	// ErrBadDocument marks a description file that cannot be parsed.
	ErrBadDocument = errors.New("ingest: unparseable document")
)

// CompileError locates a compilation failure: which collection, which
// record (by declaration index, -1 for document-level problems) and
// which field.
type CompileError struct {
	Collection string
	Index      int
	Field      string
	Err        error
}

func (e *CompileError) Error() string {
	switch {
	case e.Index < 0 && e.Field == "":
		return fmt.Sprintf("ingest: collection %s: %v", e.Collection, e.Err)
	case e.Index < 0:
		return fmt.Sprintf("ingest: collection %s field %s: %v", e.Collection, e.Field, e.Err)
	case e.Field == "":
		return fmt.Sprintf("ingest: collection %s record %d: %v", e.Collection, e.Index, e.Err)
	}
	return fmt.Sprintf("ingest: collection %s record %d field %s: %v", e.Collection, e.Index, e.Field, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

func compileErr(collection string, index int, field string, err error) *CompileError {
	return &CompileError{Collection: collection, Index: index, Field: field, Err: err}
}
