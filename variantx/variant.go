// Package variantx bridges the core's read/write paths to Parquet's
// self-describing VARIANT logical type (spec §4.9), delegating the actual
// value representation to an external, opaque implementation rather than
// defining a canonical binary format itself. The core only needs to move
// two binary blobs ("metadata" and "value") in and out of a record field;
// this package supplies the narrow interfaces that let a caller plug in
// whatever Variant library their records use.
package variantx

// Value is an opaque, self-describing polymorphic value (spec glossary
// "Variant"). The core never inspects its structure directly — on write
// it reads the wire metadata/value byte pair from the Value, and on read
// it asks a Decoder to rebuild a Value from that pair.
type Value interface {
	// Metadata returns the variant metadata buffer (dictionary of field
	// names, version byte) ready for the schema's "metadata" column.
	Metadata() []byte
	// Bytes returns the variant value buffer ready for the schema's
	// "value" column.
	Bytes() []byte
}

// Decoder reconstructs a Value from the metadata/value byte pair the
// Parquet reader produced for a variant group (spec §4.9).
type Decoder interface {
	Decode(metadata, value []byte) (Value, error)
}

// DecoderFunc adapts a function to a Decoder.
type DecoderFunc func(metadata, value []byte) (Value, error)

func (f DecoderFunc) Decode(metadata, value []byte) (Value, error) { return f(metadata, value) }

// rawValue is the minimal Value implementation used when the caller has
// no richer Variant library wired in: it carries the metadata/value pair
// verbatim, with no interpretation of the variant encoding itself. This
// keeps round-tripping (write the bytes a caller supplied, hand back the
// same bytes on read) correct even with no external Variant module
// present, per spec §1's "opaque Variant value interface provided by an
// external module" — here that module degrades to an identity pass-through
// when none is configured.
type rawValue struct {
	metadata []byte
	value    []byte
}

func (r rawValue) Metadata() []byte { return r.metadata }
func (r rawValue) Bytes() []byte    { return r.value }

// Raw wraps a metadata/value byte pair as an opaque Value without
// interpreting the variant encoding.
func Raw(metadata, value []byte) Value { return rawValue{metadata: metadata, value: value} }

// RawDecoder is the identity Decoder backing Raw.
var RawDecoder Decoder = DecoderFunc(func(metadata, value []byte) (Value, error) {
	return Raw(metadata, value), nil
})
