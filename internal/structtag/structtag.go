// Package structtag reads the struct-tag metadata the reflection front-end
// (kind_reflect.go) uses to derive field names, aliases and map key/value
// hints from a Go struct, mirroring the teacher's own schema.TagSource
// abstraction but over this module's own tag vocabulary.
package structtag

import "reflect"

// Tag holds the raw struct tag values consulted by the reflection
// front-end for one struct field.
type Tag struct {
	// Carpet is the value of the `carpet:"..."` tag: "name,option,option".
	Carpet string
	// MapKey is the value of the `carpet-key:"..."` tag, consulted when
	// the field is a Map kind to describe the key's options.
	MapKey string
	// MapValue is the value of the `carpet-value:"..."` tag, consulted
	// when the field is a Map kind to describe the value's options.
	MapValue string
}

// Source supplies struct-tag metadata for a reflected field. The default
// implementation reads Go struct tags directly; a custom Source lets
// callers derive field metadata from another convention entirely (e.g. an
// external schema registry) without touching the reflection walker.
type Source interface {
	Tags(f reflect.StructField) Tag
	isSource()
}

type defaultSource struct{}

var _ Source = defaultSource{}

func (defaultSource) Tags(f reflect.StructField) Tag {
	return Tag{
		Carpet:   f.Tag.Get("carpet"),
		MapKey:   f.Tag.Get("carpet-key"),
		MapValue: f.Tag.Get("carpet-value"),
	}
}

func (defaultSource) isSource() {}

// Options configures the reflection front-end's tag source.
type Options struct {
	source Source
}

// Source returns the configured Source.
func (o *Options) Source() Source { return o.source }

// Apply runs every opt against o and returns o.
func (o *Options) Apply(opts ...Option) *Options {
	for _, f := range opts {
		f(o)
	}
	return o
}

// DefaultOptions returns Options reading the default `carpet:"..."` tags.
func DefaultOptions() *Options {
	return &Options{source: defaultSource{}}
}

// Option configures Options.
type Option func(*Options)

// WithSource overrides the tag source.
func WithSource(source Source) Option {
	return func(o *Options) { o.source = source }
}
