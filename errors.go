package carpet

import (
	"errors"
	"fmt"
	"strings"
)

// FieldPath is a dotted path from a record's root to the field that
// triggered an error, with a list-element marker "[]" and a map-value
// marker "{}" (spec §7).
type FieldPath []string

// ListElement appends the list-element marker.
func (p FieldPath) ListElement() FieldPath { return append(append(FieldPath(nil), p...), "[]") }

// MapValue appends the map-value marker.
func (p FieldPath) MapValue() FieldPath { return append(append(FieldPath(nil), p...), "{}") }

// Field appends a named field segment.
func (p FieldPath) Field(name string) FieldPath { return append(append(FieldPath(nil), p...), name) }

func (p FieldPath) String() string {
	var b strings.Builder
	for i, seg := range p {
		switch seg {
		case "[]", "{}":
			b.WriteString(seg)
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(seg)
		}
	}
	return b.String()
}

// ModelErrorKind enumerates spec §4.1/§7 ModelError categories.
type ModelErrorKind uint8

const (
	DuplicateFieldName ModelErrorKind = iota
	DuplicateFieldId
	Recursion
	InvalidDecimal
	InvalidEnum
	UnsupportedType
)

func (k ModelErrorKind) String() string {
	switch k {
	case DuplicateFieldName:
		return "DuplicateFieldName"
	case DuplicateFieldId:
		return "DuplicateFieldId"
	case Recursion:
		return "Recursion"
	case InvalidDecimal:
		return "InvalidDecimal"
	case InvalidEnum:
		return "InvalidEnum"
	case UnsupportedType:
		return "UnsupportedType"
	default:
		return "Unknown"
	}
}

// ModelError reports a violated invariant at model construction time
// (spec §4.1); it is unrecoverable, the caller must fix the model.
type ModelError struct {
	Kind   ModelErrorKind
	Record string
	Detail string
}

func (e *ModelError) Error() string {
	if e.Record != "" {
		return fmt.Sprintf("carpet: model error %s in record %q: %s", e.Kind, e.Record, e.Detail)
	}
	return fmt.Sprintf("carpet: model error %s: %s", e.Kind, e.Detail)
}

// SchemaDerivationErrorKind enumerates spec §7 SchemaDerivationError
// categories, raised while computing the write-side schema (C2).
type SchemaDerivationErrorKind uint8

const (
	AmbiguousListLevelOne SchemaDerivationErrorKind = iota
	RecursiveRecord
	MissingDecimalDefault
)

func (k SchemaDerivationErrorKind) String() string {
	switch k {
	case AmbiguousListLevelOne:
		return "AmbiguousListLevelOne"
	case RecursiveRecord:
		return "RecursiveRecord"
	case MissingDecimalDefault:
		return "MissingDecimalDefault"
	default:
		return "Unknown"
	}
}

// SchemaDerivationError is unrecoverable: the caller must change the model
// or configuration.
type SchemaDerivationError struct {
	Kind SchemaDerivationErrorKind
	Path FieldPath
}

func (e *SchemaDerivationError) Error() string {
	return fmt.Sprintf("carpet: schema derivation error %s at %s", e.Kind, e.Path)
}

// Sentinel errors usable with errors.Is, matching each error taxon in
// spec §7.
var (
	ErrMissingColumn       = errors.New("carpet: required field has no bound column")
	ErrIncompatibleType    = errors.New("carpet: incompatible physical/logical type for field")
	ErrNullabilityMismatch = errors.New("carpet: not-null field bound to an optional column")
	ErrUnsupportedPhysical = errors.New("carpet: unsupported physical type")
	ErrRequiredFieldIsNull = errors.New("carpet: required field value is null")
	ErrDecimalOverflow     = errors.New("carpet: decimal value does not fit the field's precision")
)

// ReadError wraps one of the read-path sentinel errors above with the
// field path and, when available, the Parquet schema fragment and user
// kind that triggered it (spec §7).
type ReadError struct {
	Err          error
	Path         FieldPath
	SchemaFrag   string
	ExpectedKind Tag
}

func (e *ReadError) Error() string {
	msg := fmt.Sprintf("carpet: %v at %s", e.Err, e.Path)
	if e.SchemaFrag != "" {
		msg += fmt.Sprintf(" (schema: %s)", e.SchemaFrag)
	}
	return msg
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError wraps one of the write-path sentinel errors above with the
// field path that triggered it.
type WriteError struct {
	Err  error
	Path FieldPath
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("carpet: %v at %s", e.Err, e.Path)
}

func (e *WriteError) Unwrap() error { return e.Err }

// InternalError marks an invariant violation: a programming error in this
// package rather than user input, fail-fast by design.
type InternalError struct {
	Detail string
}

func (e *InternalError) Error() string { return "carpet: internal error: " + e.Detail }
