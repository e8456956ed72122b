package carpet

import (
	"github.com/parquet-go/parquet-go/format"

	"github.com/parquet-go/parquet-go"
)

// annotatedType wraps an existing parquet.Type to override its displayed
// name and LogicalType annotation, following the exact pattern the
// teacher uses for its own decimal logical type (type_decimal.go's
// decimalType: embed Type, override String/LogicalType). Used here for
// the annotations the public parquet-go API doesn't expose a
// constructor for: the two-level list convention's outer LIST group and
// the non-UTC TIMESTAMP leaf.
type annotatedType struct {
	parquet.Type
	name string
	lt   format.LogicalType
}

func (t annotatedType) String() string                { return t.name }
func (t annotatedType) LogicalType() *format.LogicalType { return &t.lt }

// listGroup is a LIST-annotated group with caller-chosen children. The
// public parquet-go API only constructs the three-level form via List();
// this type fills the gap the same way the teacher fills gaps for its
// own custom logical types, by implementing Node directly over an
// underlying Group.
type listGroup struct {
	parquet.Group
}

func (n listGroup) Type() parquet.Type {
	return annotatedType{Type: n.Group.Type(), name: "LIST", lt: format.LogicalType{List: &format.ListType{}}}
}

func newListGroup(children parquet.Group) parquet.Node {
	return listGroup{Group: children}
}

// newTwoLevelList builds Parquet's legacy two-level list convention: a
// LIST-annotated group whose single repeated child is the element
// itself, named "element", with no intermediate wrapper group.
func newTwoLevelList(element parquet.Node) parquet.Node {
	return newListGroup(parquet.Group{"element": element})
}

// timestampNode builds an INT64 TIMESTAMP(unit, utc) leaf. parquet-go's
// Timestamp() constructor always sets isAdjustedToUTC=true (Instant
// semantics); LocalDateTime needs the utc=false variant, built here with
// the same annotatedType wrapper listGroup uses.
func timestampNode(unit parquet.TimeUnit, adjustedToUTC bool) parquet.Node {
	if adjustedToUTC {
		return parquet.Timestamp(unit)
	}
	lt := format.LogicalType{Timestamp: &format.TimestampType{
		IsAdjustedToUTC: false,
		Unit:            unit.TimeUnit(),
	}}
	return parquet.Leaf(annotatedType{Type: parquet.Int64Type, name: lt.Timestamp.String(), lt: lt})
}

// parquetTimeUnit maps our TimeUnit to the teacher's own TimeUnit
// constants (parquet.Millisecond/Microsecond/Nanosecond), confirmed by
// the teacher's own schema_test.go usage.
func parquetTimeUnit(u TimeUnit) parquet.TimeUnit {
	switch u {
	case Millisecond:
		return parquet.Millisecond
	case Microsecond:
		return parquet.Microsecond
	default:
		return parquet.Nanosecond
	}
}

// timeUnitOf maps a file schema node's raw format.TimeUnit union (read
// off TimeType.Unit / TimestampType.Unit, spec §4.3's Table A TIME/
// TIMESTAMP rows) back to our TimeUnit.
func timeUnitOf(u format.TimeUnit) TimeUnit {
	switch {
	case u.Millis != nil:
		return Millisecond
	case u.Micros != nil:
		return Microsecond
	default:
		return Nanosecond
	}
}
