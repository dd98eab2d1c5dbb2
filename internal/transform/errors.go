package transform

import (
	"errors"
	"fmt"
)

// Field names a transformable event property.
type Field string

const (
	FieldSummary     Field = "summary"
	FieldLocation    Field = "location"
	FieldDescription Field = "description"
)

var (
	// ErrMissingSeparator means a delimiter the export format always
	// produces (space, comma) was not found.
	ErrMissingSeparator = errors.New("missing separator")
	// ErrMalformedClassType means the class type segment is not wrapped in [ ].
	ErrMalformedClassType = errors.New("class type is not bracketed")
	// ErrOddNameTokens means the instructor list does not split into
	// last/first name pairs.
	ErrOddNameTokens = errors.New("instructor names do not pair up")
)

// FieldError is the failure of a single field transform. The field keeps its
// original value when one is returned.
type FieldError struct {
	Field Field
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(f Field, err error) error {
	return &FieldError{Field: f, Err: err}
}
