// Package carpet binds a user-declared nominal record type to a Parquet
// logical schema and mediates reading and writing of sequences of records
// against Parquet files built on top of github.com/parquet-go/parquet-go.
package carpet

import (
	"fmt"
	"reflect"
)

// Tag discriminates the variants of Kind. Go has no native sum types, so
// Kind is a single tagged struct rather than an interface with one
// implementation per variant; Tag is the discriminant.
type Tag uint8

const (
	TagBoolean Tag = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagString
	TagEnum
	TagBinary
	TagUUID
	TagDecimal
	TagDate
	TagTime
	TagDateTime
	TagInstant
	TagJSON
	TagBSON
	TagGeometry
	TagGeography
	TagVariant
	TagList
	TagMap
	TagRecord
)

func (t Tag) String() string {
	switch t {
	case TagBoolean:
		return "Boolean"
	case TagByte:
		return "Byte"
	case TagShort:
		return "Short"
	case TagInt:
		return "Int"
	case TagLong:
		return "Long"
	case TagFloat:
		return "Float"
	case TagDouble:
		return "Double"
	case TagString:
		return "String"
	case TagEnum:
		return "Enum"
	case TagBinary:
		return "Binary"
	case TagUUID:
		return "Uuid"
	case TagDecimal:
		return "BigDecimal"
	case TagDate:
		return "LocalDate"
	case TagTime:
		return "LocalTime"
	case TagDateTime:
		return "LocalDateTime"
	case TagInstant:
		return "Instant"
	case TagJSON:
		return "Json"
	case TagBSON:
		return "Bson"
	case TagGeometry:
		return "Geometry"
	case TagGeography:
		return "Geography"
	case TagVariant:
		return "Variant"
	case TagList:
		return "List"
	case TagMap:
		return "Map"
	case TagRecord:
		return "Record"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// TimeUnit is the resolution carried by LocalTime, LocalDateTime and Instant
// kinds, mirroring Parquet's TIME/TIMESTAMP logical type unit parameter.
type TimeUnit uint8

const (
	Millisecond TimeUnit = iota
	Microsecond
	Nanosecond
)

func (u TimeUnit) String() string {
	switch u {
	case Millisecond:
		return "millis"
	case Microsecond:
		return "micros"
	case Nanosecond:
		return "nanos"
	default:
		return "unknown"
	}
}

// CollectionKind selects the builder a ListConverter instantiates on read:
// an ordered sequence, a unique set, or a user-supplied constructor.
type CollectionKind uint8

const (
	CollectionSlice CollectionKind = iota
	CollectionSet
	CollectionCustom
)

// EdgeAlgorithm is the Geography logical type's edge-interpolation
// annotation.
type EdgeAlgorithm uint8

const (
	Spherical EdgeAlgorithm = iota
	Vincenty
	Thomas
	Andoyer
	Karney
)

// DefaultCRS is applied to Geometry/Geography kinds that don't specify one.
const DefaultCRS = "OGC:CRS84"

// Field is one named, ordered member of a Record kind.
type Field struct {
	Name       string
	Kind       Kind
	FieldID    int
	HasFieldID bool
	Accessor   Accessor
}

// Accessor is a pure, total projection from a record instance to one of its
// field values.
type Accessor func(record any) any

// Kind is the sum type describing every leaf or composite a user may
// declare (spec §3). Values are immutable; the With*/Nullable/NotNull
// methods return modified copies.
type Kind struct {
	tag      Tag
	nullable bool
	fieldID  int // 0 means unset
	hasID    bool

	// Enum
	enumValues []string

	// BigDecimal
	precision         int
	scale             int
	hasPrecisionScale bool

	// LocalTime / LocalDateTime / Instant
	unit TimeUnit

	// Json
	jsonUnderlying Tag // TagString or TagBinary

	// Geometry / Geography
	crs              string
	hasCRS           bool
	edgeAlgorithm    EdgeAlgorithm
	hasEdgeAlgorithm bool

	// List
	element         *Kind
	elementNullable bool
	collection      CollectionKind

	// Map
	key           *Kind
	value         *Kind
	valueNullable bool

	// Record
	name        string
	fields      []Field
	constructor Constructor
	goType      reflect.Type
}

// Constructor assembles a record instance from its fields' values, in
// declared field order. The reflection front-end (kind_reflect.go)
// generates one automatically for positional-tuple struct types; the
// builder API accepts a user-supplied one via RecordBuilder.WithConstructor.
type Constructor func(values []any) any

// Tag reports the variant of this Kind.
func (k Kind) Tag() Tag { return k.tag }

// Nullable returns a copy of k marked nullable (Parquet: optional).
func (k Kind) Nullable() Kind { k.nullable = true; return k }

// NotNull returns a copy of k marked not-null (Parquet: required).
func (k Kind) NotNull() Kind { k.nullable = false; return k }

// IsNullable is the nullable predicate; NotNullable is its complement.
func (k Kind) IsNullable() bool { return k.nullable }
func (k Kind) NotNullable() bool { return !k.nullable }

// WithFieldID returns a copy of k carrying the given stable field id. Ids
// must lie in [1, 2^31).
func (k Kind) WithFieldID(id int) Kind {
	k.fieldID = id
	k.hasID = id != 0
	return k
}

// FieldID returns the configured field id and whether one was set.
func (k Kind) FieldID() (int, bool) { return k.fieldID, k.hasID }

func Boolean() Kind { return Kind{tag: TagBoolean} }
func Byte() Kind    { return Kind{tag: TagByte} }
func Short() Kind   { return Kind{tag: TagShort} }
func Int() Kind     { return Kind{tag: TagInt} }
func Long() Kind    { return Kind{tag: TagLong} }
func Float() Kind   { return Kind{tag: TagFloat} }
func Double() Kind  { return Kind{tag: TagDouble} }
func String() Kind  { return Kind{tag: TagString} }
func Binary() Kind  { return Kind{tag: TagBinary} }
func Uuid() Kind    { return Kind{tag: TagUUID} }
func Variant() Kind { return Kind{tag: TagVariant} }

// Enum constructs an Enum kind over a non-empty, ordered, closed set of
// named values (the user's declared enumeration).
func Enum(values []string) Kind {
	cp := append([]string(nil), values...)
	return Kind{tag: TagEnum, enumValues: cp}
}

// EnumValues returns the named value set of an Enum kind.
func (k Kind) EnumValues() []string { return k.enumValues }

// BigDecimal constructs a decimal kind with no precision/scale; callers
// must either chain WithPrecisionScale or rely on a configured global
// decimal default at schema-derivation time (spec §3 invariant).
func BigDecimal() Kind { return Kind{tag: TagDecimal} }

// WithPrecisionScale returns a copy of a BigDecimal kind carrying explicit
// precision (>=1) and scale (0<=scale<=precision).
func (k Kind) WithPrecisionScale(precision, scale int) Kind {
	k.precision, k.scale, k.hasPrecisionScale = precision, scale, true
	return k
}

// PrecisionScale reports the configured precision/scale pair, if any.
func (k Kind) PrecisionScale() (precision, scale int, ok bool) {
	return k.precision, k.scale, k.hasPrecisionScale
}

func LocalDate() Kind                { return Kind{tag: TagDate} }
func LocalTime(unit TimeUnit) Kind   { return Kind{tag: TagTime, unit: unit} }
func LocalDateTime(unit TimeUnit) Kind { return Kind{tag: TagDateTime, unit: unit} }
func Instant(unit TimeUnit) Kind     { return Kind{tag: TagInstant, unit: unit} }

// Unit returns the temporal resolution of a LocalTime/LocalDateTime/Instant
// kind.
func (k Kind) Unit() TimeUnit { return k.unit }

// Json constructs a Json kind carried over the given underlying physical
// representation (String or Binary).
func Json(underlying Tag) Kind {
	if underlying != TagString && underlying != TagBinary {
		panic("carpet: Json underlying must be String or Binary")
	}
	return Kind{tag: TagJSON, jsonUnderlying: underlying}
}

// JsonUnderlying reports the physical representation backing a Json kind.
func (k Kind) JsonUnderlying() Tag { return k.jsonUnderlying }

func Bson() Kind { return Kind{tag: TagBSON, jsonUnderlying: TagBinary} }

// Geometry constructs a Geometry kind; crs defaults to DefaultCRS when
// unset at schema-derivation time.
func Geometry() Kind { return Kind{tag: TagGeometry} }

// Geography constructs a Geography kind; crs defaults to DefaultCRS and
// edgeAlgorithm defaults to Spherical when unset at schema-derivation time.
func Geography() Kind { return Kind{tag: TagGeography} }

// WithCRS returns a copy of a Geometry/Geography kind carrying an explicit
// coordinate reference system identifier.
func (k Kind) WithCRS(crs string) Kind {
	k.crs, k.hasCRS = crs, true
	return k
}

// WithEdgeAlgorithm returns a copy of a Geography kind carrying an explicit
// edge-interpolation algorithm.
func (k Kind) WithEdgeAlgorithm(alg EdgeAlgorithm) Kind {
	k.edgeAlgorithm, k.hasEdgeAlgorithm = alg, true
	return k
}

// CRS reports the configured CRS, applying DefaultCRS when unset.
func (k Kind) CRS() string {
	if k.hasCRS {
		return k.crs
	}
	return DefaultCRS
}

// EdgeAlgorithmOrDefault reports the configured edge algorithm, defaulting
// to Spherical.
func (k Kind) EdgeAlgorithmOrDefault() EdgeAlgorithm {
	if k.hasEdgeAlgorithm {
		return k.edgeAlgorithm
	}
	return Spherical
}

// List constructs an unordered/ordered collection kind. nullableElement
// controls whether individual elements may be null.
func List(element Kind, nullableElement bool) Kind {
	e := element
	return Kind{tag: TagList, element: &e, elementNullable: nullableElement}
}

// ListOf is an alias for List kept for builder-chaining call sites that read
// more naturally as `carpet.ListOf(element)`.
func ListOf(element Kind, nullableElement bool) Kind { return List(element, nullableElement) }

// WithCollection selects the collection builder materialized on read.
func (k Kind) WithCollection(kind CollectionKind) Kind { k.collection = kind; return k }

// Element returns the element kind and its nullability for a List kind.
func (k Kind) Element() (Kind, bool) { return *k.element, k.elementNullable }

// Collection reports the collection builder kind selected for a List.
func (k Kind) Collection() CollectionKind { return k.collection }

// Map constructs a keyed collection kind. Keys are always required
// regardless of any surrounding nullability (spec §3 invariant); nullableValue
// controls whether individual values may be null.
func Map(key, value Kind, nullableValue bool) Kind {
	kk, vv := key.NotNull(), value
	return Kind{tag: TagMap, key: &kk, value: &vv, valueNullable: nullableValue}
}

// MapOf mirrors Map for builder-chaining call sites.
func MapOf(key, value Kind, nullableValue bool) Kind { return Map(key, value, nullableValue) }

// KeyValue returns the key kind, value kind, and value nullability of a Map
// kind.
func (k Kind) KeyValue() (key, value Kind, nullableValue bool) {
	return *k.key, *k.value, k.valueNullable
}

// Name returns the declared name of a Record kind.
func (k Kind) Name() string { return k.name }

// Fields returns the ordered field tuple of a Record kind.
func (k Kind) Fields() []Field { return k.fields }

// RecordConstructor returns the constructor assembling instances of a
// Record kind from field values, if one was set.
func (k Kind) RecordConstructor() Constructor { return k.constructor }

// GoType returns the reflected Go type backing a Record kind, when the
// model was built by the reflection front-end.
func (k Kind) GoType() reflect.Type { return k.goType }
