package carpet

import (
	"fmt"
	"reflect"
)

// RecordBuilder is the explicit builder front-end for composite Record
// kinds (spec §4.1): each call to Field adds (fieldName, kind, accessor).
// The reflection front-end (kind_reflect.go) is a thin layer on top of it.
type RecordBuilder struct {
	name        string
	fieldID     int
	hasID       bool
	fields      []Field
	names       map[string]struct{}
	ids         map[int]struct{}
	err         error
	constructor Constructor
	goType      reflect.Type
}

// WithConstructor attaches the function that assembles a record instance
// from its fields' values, in declared field order. Without one, the read
// materializer (C5) yields a map[string]any keyed by field name; write-only
// models do not need it.
func (b *RecordBuilder) WithConstructor(fn Constructor) *RecordBuilder {
	b.constructor = fn
	return b
}

// WithGoType records the reflected Go type backing this record, purely
// informational (surfaced via Kind.GoType for diagnostics).
func (b *RecordBuilder) WithGoType(t reflect.Type) *RecordBuilder {
	b.goType = t
	return b
}

// NewRecord starts a builder for a Record kind named name.
func NewRecord(name string) *RecordBuilder {
	return &RecordBuilder{
		name:  name,
		names: make(map[string]struct{}),
		ids:   make(map[int]struct{}),
	}
}

// WithFieldID attaches a stable field id to the group produced by Build.
func (b *RecordBuilder) WithFieldID(id int) *RecordBuilder {
	b.fieldID, b.hasID = id, true
	return b
}

// Field appends one named member. Duplicate names or ids within this
// record's direct scope are recorded as a sticky error surfaced by Build.
func (b *RecordBuilder) Field(name string, kind Kind, accessor Accessor) *RecordBuilder {
	return b.field(name, kind, 0, false, accessor)
}

// FieldWithID is Field plus an explicit stable field id for the member.
func (b *RecordBuilder) FieldWithID(name string, kind Kind, id int, accessor Accessor) *RecordBuilder {
	return b.field(name, kind, id, true, accessor)
}

func (b *RecordBuilder) field(name string, kind Kind, id int, hasID bool, accessor Accessor) *RecordBuilder {
	if b.err != nil {
		return b
	}
	if _, dup := b.names[name]; dup {
		b.err = &ModelError{Kind: DuplicateFieldName, Record: b.name, Detail: name}
		return b
	}
	if hasID {
		if _, dup := b.ids[id]; dup {
			b.err = &ModelError{Kind: DuplicateFieldId, Record: b.name, Detail: fmt.Sprintf("%s (id=%d)", name, id)}
			return b
		}
		b.ids[id] = struct{}{}
	}
	b.names[name] = struct{}{}
	b.fields = append(b.fields, Field{Name: name, Kind: kind, FieldID: id, HasFieldID: hasID, Accessor: accessor})
	return b
}

// Build finalizes the record, reporting any sticky construction error
// recorded by Field/FieldWithID. It does not by itself check recursion
// across the full type graph; BuildModel does that once for a root.
func (b *RecordBuilder) Build() (Kind, error) {
	if b.err != nil {
		return Kind{}, b.err
	}
	k := Kind{
		tag:         TagRecord,
		name:        b.name,
		fields:      append([]Field(nil), b.fields...),
		constructor: b.constructor,
		goType:      b.goType,
	}
	if b.hasID {
		k = k.WithFieldID(b.fieldID)
	}
	return k, nil
}

// Model is the read-only, once-built description of a user record type
// (spec §3 Lifecycle). Its lifetime spans every write/read session that
// uses it.
type Model struct {
	Root Kind

	// Aliases collects per-field explicit aliases declared alongside the
	// model (struct tags in the reflection front-end), consulted by the
	// EXPLICIT_ALIAS and BEST_EFFORT matching strategies on read.
	Aliases Aliases
}

// BuildModel validates root's invariants (spec §4.1) and returns the
// immutable Model wrapping it: unique field names/ids per record scope
// (already enforced per-builder by RecordBuilder, re-checked here for
// every record reachable from root), non-empty
// enum value sets, decimal scale/precision bounds, and absence of
// recursive Record references anywhere in the type graph.
func BuildModel(root Kind) (*Model, error) {
	if root.Tag() != TagRecord {
		return nil, &ModelError{Kind: UnsupportedType, Detail: "model root must be a Record kind"}
	}
	if err := validateKind(root, nil); err != nil {
		return nil, err
	}
	return &Model{Root: root}, nil
}

func validateKind(k Kind, recordStack []string) error {
	switch k.Tag() {
	case TagEnum:
		if len(k.EnumValues()) == 0 {
			return &ModelError{Kind: InvalidEnum, Detail: "enum has no named values"}
		}
		seen := make(map[string]struct{}, len(k.EnumValues()))
		for _, v := range k.EnumValues() {
			if _, dup := seen[v]; dup {
				return &ModelError{Kind: InvalidEnum, Detail: "duplicate enum value " + v}
			}
			seen[v] = struct{}{}
		}
		return nil

	case TagDecimal:
		if p, s, ok := k.PrecisionScale(); ok {
			if p < 1 {
				return &ModelError{Kind: InvalidDecimal, Detail: "precision must be >= 1"}
			}
			if s < 0 || s > p {
				return &ModelError{Kind: InvalidDecimal, Detail: "scale must satisfy 0 <= scale <= precision"}
			}
		}
		return nil

	case TagList:
		element, _ := k.Element()
		return validateKind(element, recordStack)

	case TagMap:
		key, value, _ := k.KeyValue()
		if err := validateKind(key, recordStack); err != nil {
			return err
		}
		return validateKind(value, recordStack)

	case TagRecord:
		name := k.Name()
		for _, seen := range recordStack {
			if seen == name {
				return &ModelError{Kind: Recursion, Record: name, Detail: "record type recursively references itself"}
			}
		}
		stack := append(append([]string(nil), recordStack...), name)

		names := make(map[string]struct{}, len(k.Fields()))
		ids := make(map[int]struct{}, len(k.Fields()))
		for _, f := range k.Fields() {
			if _, dup := names[f.Name]; dup {
				return &ModelError{Kind: DuplicateFieldName, Record: name, Detail: f.Name}
			}
			names[f.Name] = struct{}{}
			if f.HasFieldID {
				if _, dup := ids[f.FieldID]; dup {
					return &ModelError{Kind: DuplicateFieldId, Record: name, Detail: f.Name}
				}
				ids[f.FieldID] = struct{}{}
			}
			if err := validateKind(f.Kind, stack); err != nil {
				return err
			}
		}
		return nil

	default:
		return nil
	}
}
