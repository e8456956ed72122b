package carpet

import (
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/parquet-go/parquet-go"

	"github.com/parquet-go/carpet/codec"
	"github.com/parquet-go/carpet/variantx"
)

// rowConsumer implements the Write Dispatch Engine (C4, spec §4.4): it
// walks one record through the model's Accessor functions and shreds it
// into a parquet.Row, matching the column order and indexes BuildSchema
// assigned (columnorder.go's flattenLeaves), and assigning repetition/
// definition levels per the Dremel encoding parquet-go expects.
type rowConsumer struct {
	root      Kind
	cfg       *Config
	leaves    []leafColumn
	pathIndex map[string]int
	numCols   int
}

// NewRowConsumer builds a dispatcher bound to one model and the schema
// BuildSchema derived from it; schema must have been built with the same
// cfg (AnnotatedLevels governs the column paths this dispatcher expects).
func NewRowConsumer(model *Model, schema *parquet.Schema, cfg *Config) *rowConsumer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	leaves := flattenLeaves(schema)
	idx := make(map[string]int, len(leaves))
	for _, l := range leaves {
		idx[strings.Join(l.Path, "/")] = l.Index
	}
	return &rowConsumer{root: model.Root, cfg: cfg, leaves: leaves, pathIndex: idx, numCols: len(leaves)}
}

// Row shreds one record into a parquet.Row ready for (*parquet.Writer).WriteRows.
func (rc *rowConsumer) Row(record any) (parquet.Row, error) {
	var row parquet.Row
	seen := make(map[int]bool, rc.numCols)
	for _, f := range rc.root.Fields() {
		v := f.Accessor(record)
		path := []string{columnName(f.Name, rc.cfg.ColumnNaming)}
		if err := rc.emitValue(f.Kind, v, path, 0, 0, 0, &row, seen, FieldPath{f.Name}); err != nil {
			return nil, err
		}
	}
	// The engine expects rows in column order, the same shape
	// Schema.Deconstruct produces; per-column value order is preserved.
	sort.SliceStable(row, func(i, j int) bool { return row[i].Column() < row[j].Column() })
	return row, nil
}

func (rc *rowConsumer) emitValue(k Kind, value any, path []string, def, rep, depth int, row *parquet.Row, seen map[int]bool, fp FieldPath) error {
	switch k.Tag() {
	case TagRecord:
		return rc.emitRecord(k, value, path, def, rep, depth, row, seen, fp)
	case TagList:
		return rc.emitList(k, value, path, def, rep, depth, row, seen, fp)
	case TagMap:
		return rc.emitMap(k, value, path, def, rep, depth, row, seen, fp)
	case TagVariant:
		return rc.emitVariant(k, value, path, def, rep, depth, row, seen, fp)
	default:
		return rc.emitPrimitive(k, value, path, def, rep, depth, row, seen, fp)
	}
}

func (rc *rowConsumer) emitRecord(k Kind, value any, path []string, def, rep, depth int, row *parquet.Row, seen map[int]bool, fp FieldPath) error {
	if isNilValue(value) {
		if k.NotNullable() {
			return &WriteError{Err: ErrRequiredFieldIsNull, Path: fp}
		}
		return rc.emitAbsent(path, def, rep, row, seen)
	}
	childDef := def
	if k.IsNullable() {
		childDef++
	}
	for _, f := range k.Fields() {
		v := f.Accessor(value)
		p := appendPath(path, columnName(f.Name, rc.cfg.ColumnNaming))
		if err := rc.emitValue(f.Kind, v, p, childDef, rep, depth, row, seen, fp.Field(f.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (rc *rowConsumer) emitList(k Kind, value any, path []string, def, rep, depth int, row *parquet.Row, seen map[int]bool, fp FieldPath) error {
	if isNilValue(value) {
		if k.NotNullable() {
			return &WriteError{Err: ErrRequiredFieldIsNull, Path: fp}
		}
		return rc.emitAbsent(path, def, rep, row, seen)
	}
	rv := reflect.ValueOf(value)
	n := rv.Len()
	element, nullableElement := k.Element()
	if nullableElement {
		element = element.Nullable()
	} else {
		element = element.NotNull()
	}

	switch rc.cfg.AnnotatedLevels {
	case OneLevel:
		// ONE cannot distinguish empty from absent (spec §4.4): zero
		// elements leaves the column with a single below-entry null.
		if n == 0 {
			return rc.emitAbsent(path, def, rep, row, seen)
		}
		entryDef := def + 1 // the repeated node itself adds a level
		entryRep := depth + 1
		for i := 0; i < n; i++ {
			item := rv.Index(i).Interface()
			if isNilValue(item) {
				return &WriteError{Err: ErrUnsupportedPhysical, Path: fp.ListElement()}
			}
			r := rep
			if i > 0 {
				r = entryRep
			}
			if err := rc.emitValue(element.NotNull(), item, path, entryDef, r, entryRep, row, seen, fp.ListElement()); err != nil {
				return err
			}
		}
		return nil

	default: // TwoLevel, ThreeLevel
		listDef := def
		if k.IsNullable() {
			listDef++
		}
		elementPath := listElementPath(path, rc.cfg.AnnotatedLevels)
		if n == 0 {
			return rc.emitAbsent(elementPath, listDef, rep, row, seen)
		}
		entryDef := listDef + 1
		if rc.cfg.AnnotatedLevels == TwoLevel {
			// Repeated elements cannot carry their own null slot.
			element = element.NotNull()
		}
		entryRep := depth + 1
		for i := 0; i < n; i++ {
			item := rv.Index(i).Interface()
			r := rep
			if i > 0 {
				r = entryRep
			}
			if err := rc.emitValue(element, item, elementPath, entryDef, r, entryRep, row, seen, fp.ListElement()); err != nil {
				return err
			}
		}
		return nil
	}
}

func (rc *rowConsumer) emitMap(k Kind, value any, path []string, def, rep, depth int, row *parquet.Row, seen map[int]bool, fp FieldPath) error {
	if isNilValue(value) {
		if k.NotNullable() {
			return &WriteError{Err: ErrRequiredFieldIsNull, Path: fp}
		}
		return rc.emitAbsent(path, def, rep, row, seen)
	}
	rv := reflect.ValueOf(value)
	keyKind, valueKind, nullableValue := k.KeyValue()
	keyKind = keyKind.NotNull()
	if nullableValue {
		valueKind = valueKind.Nullable()
	} else {
		valueKind = valueKind.NotNull()
	}

	mapDef := def
	if k.IsNullable() {
		mapDef++
	}
	kvPath := mapKeyValuePath(path)
	keys := rv.MapKeys()
	if len(keys) == 0 {
		return rc.emitAbsent(kvPath, mapDef, rep, row, seen)
	}
	entryDef := mapDef + 1 // the repeated key_value group adds a level
	entryRep := depth + 1
	for i, mk := range keys {
		mv := rv.MapIndex(mk)
		r := rep
		if i > 0 {
			r = entryRep
		}
		if err := rc.emitValue(keyKind, mk.Interface(), mapKeyPath(path), entryDef, r, entryRep, row, seen, fp.MapValue()); err != nil {
			return err
		}
		if err := rc.emitValue(valueKind, mv.Interface(), mapValuePath(path), entryDef, r, entryRep, row, seen, fp.MapValue()); err != nil {
			return err
		}
	}
	return nil
}

func (rc *rowConsumer) emitVariant(k Kind, value any, path []string, def, rep, depth int, row *parquet.Row, seen map[int]bool, fp FieldPath) error {
	if isNilValue(value) {
		if k.NotNullable() {
			return &WriteError{Err: ErrRequiredFieldIsNull, Path: fp}
		}
		return rc.emitAbsent(path, def, rep, row, seen)
	}
	vv, ok := value.(variantx.Value)
	if !ok {
		return &WriteError{Err: ErrUnsupportedPhysical, Path: fp}
	}
	childDef := def
	if k.IsNullable() {
		childDef++
	}
	if err := rc.emitPrimitiveAt(appendPath(path, "metadata"), parquet.ValueOf(vv.Metadata()), childDef, rep, row, seen); err != nil {
		return err
	}
	return rc.emitPrimitiveAt(appendPath(path, "value"), parquet.ValueOf(vv.Bytes()), childDef, rep, row, seen)
}

func (rc *rowConsumer) emitPrimitive(k Kind, value any, path []string, def, rep, depth int, row *parquet.Row, seen map[int]bool, fp FieldPath) error {
	if isNilValue(value) {
		if k.NotNullable() {
			return &WriteError{Err: ErrRequiredFieldIsNull, Path: fp}
		}
		return rc.emitPrimitiveAt(path, parquet.NullValue(), def, rep, row, seen)
	}
	childDef := def
	if k.IsNullable() {
		childDef++
	}
	pv, err := primitiveValue(k, value, rc.cfg, fp)
	if err != nil {
		return err
	}
	return rc.emitPrimitiveAt(path, pv, childDef, rep, row, seen)
}

func (rc *rowConsumer) emitPrimitiveAt(path []string, val parquet.Value, def, rep int, row *parquet.Row, seen map[int]bool) error {
	col, ok := rc.pathIndex[strings.Join(path, "/")]
	if !ok {
		return &InternalError{Detail: "no column bound for path " + strings.Join(path, "/")}
	}
	rc.appendValue(col, val, def, rep, row, seen)
	return nil
}

func (rc *rowConsumer) emitAbsent(path []string, def, rep int, row *parquet.Row, seen map[int]bool) error {
	for _, leaf := range rc.leaves {
		if pathHasPrefix(leaf.Path, path) {
			rc.appendValue(leaf.Index, parquet.NullValue(), def, rep, row, seen)
		}
	}
	return nil
}

// appendValue enforces that the first value ever written to a column in
// this row always carries repetition level 0, as Parquet's Dremel
// encoding requires; subsequent occurrences use the caller-supplied rep.
func (rc *rowConsumer) appendValue(col int, v parquet.Value, def, rep int, row *parquet.Row, seen map[int]bool) {
	r := rep
	if !seen[col] {
		r = 0
		seen[col] = true
	}
	*row = append(*row, v.Level(r, def, col))
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}

func toCodecUnit(u TimeUnit) codec.TimeUnit {
	switch u {
	case Millisecond:
		return codec.Millisecond
	case Microsecond:
		return codec.Microsecond
	default:
		return codec.Nanosecond
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	default:
		rv := reflect.ValueOf(v)
		if rv.CanInt() {
			return rv.Int()
		}
		if rv.CanUint() {
			return int64(rv.Uint())
		}
		return 0
	}
}

func toFloat64(v any) float64 {
	switch n := v.(type) {
	case float32:
		return float64(n)
	case float64:
		return n
	default:
		rv := reflect.ValueOf(v)
		if rv.CanFloat() {
			return rv.Float()
		}
		return 0
	}
}

// primitiveValue converts a user-supplied leaf value into a parquet.Value
// carrying k's physical representation, applying C7 codec conversions for
// Uuid/BigDecimal/temporal kinds (spec §4.4).
func primitiveValue(k Kind, value any, cfg *Config, fp FieldPath) (parquet.Value, error) {
	switch k.Tag() {
	case TagBoolean:
		b, _ := value.(bool)
		return parquet.ValueOf(b), nil

	case TagByte, TagShort, TagInt:
		return parquet.ValueOf(int32(toInt64(value))), nil

	case TagLong:
		return parquet.ValueOf(toInt64(value)), nil

	case TagFloat:
		return parquet.ValueOf(float32(toFloat64(value))), nil

	case TagDouble:
		return parquet.ValueOf(toFloat64(value)), nil

	case TagString, TagEnum:
		s, _ := value.(string)
		return parquet.ValueOf(s), nil

	case TagBinary, TagGeometry, TagGeography:
		b, _ := value.([]byte)
		return parquet.ValueOf(b), nil

	case TagJSON, TagBSON:
		switch u := value.(type) {
		case []byte:
			return parquet.ValueOf(u), nil
		case string:
			return parquet.ValueOf([]byte(u)), nil
		default:
			return parquet.Value{}, &WriteError{Err: ErrUnsupportedPhysical, Path: fp}
		}

	case TagUUID:
		u, ok := value.(uuid.UUID)
		if !ok {
			return parquet.Value{}, &WriteError{Err: ErrUnsupportedPhysical, Path: fp}
		}
		return parquet.FixedLenByteArrayValue(codec.EncodeUUID(u)), nil

	case TagDecimal:
		d, ok := value.(decimal.Decimal)
		if !ok {
			return parquet.Value{}, &WriteError{Err: ErrUnsupportedPhysical, Path: fp}
		}
		precision, scale, hasPS := k.PrecisionScale()
		if !hasPS {
			if cfg.DecimalDefault == nil {
				return parquet.Value{}, &WriteError{Err: ErrUnsupportedPhysical, Path: fp}
			}
			precision, scale = cfg.DecimalDefault.Precision, cfg.DecimalDefault.Scale
		}
		switch codec.PhysicalForPrecision(precision) {
		case codec.DecimalInt32:
			iv, err := codec.EncodeInt32(d, precision, scale)
			if err != nil {
				return parquet.Value{}, &WriteError{Err: ErrDecimalOverflow, Path: fp}
			}
			return parquet.ValueOf(iv), nil
		case codec.DecimalInt64:
			iv, err := codec.EncodeInt64(d, precision, scale)
			if err != nil {
				return parquet.Value{}, &WriteError{Err: ErrDecimalOverflow, Path: fp}
			}
			return parquet.ValueOf(iv), nil
		default:
			b, err := codec.EncodeBinary(d, precision, scale)
			if err != nil {
				return parquet.Value{}, &WriteError{Err: ErrDecimalOverflow, Path: fp}
			}
			return parquet.ValueOf(b), nil
		}

	case TagDate:
		t, ok := value.(time.Time)
		if !ok {
			return parquet.Value{}, &WriteError{Err: ErrUnsupportedPhysical, Path: fp}
		}
		return parquet.ValueOf(codec.EncodeDate(t.Year(), t.Month(), t.Day())), nil

	case TagTime:
		t, ok := value.(time.Time)
		if !ok {
			return parquet.Value{}, &WriteError{Err: ErrUnsupportedPhysical, Path: fp}
		}
		v := codec.EncodeTimeOfDay(codec.NanosOfDay(t), toCodecUnit(k.Unit()))
		// TIME(millis) is physically INT32; micros/nanos use INT64 (spec
		// §4.2/§4.3 Table A).
		if k.Unit() == Millisecond {
			return parquet.ValueOf(int32(v)), nil
		}
		return parquet.ValueOf(v), nil

	case TagDateTime:
		t, ok := value.(time.Time)
		if !ok {
			return parquet.Value{}, &WriteError{Err: ErrUnsupportedPhysical, Path: fp}
		}
		return parquet.ValueOf(codec.EncodeLocalDateTime(t, toCodecUnit(k.Unit()))), nil

	case TagInstant:
		t, ok := value.(time.Time)
		if !ok {
			return parquet.Value{}, &WriteError{Err: ErrUnsupportedPhysical, Path: fp}
		}
		return parquet.ValueOf(codec.EncodeInstant(t, toCodecUnit(k.Unit()))), nil

	default:
		return parquet.Value{}, &InternalError{Detail: "primitiveValue: unexpected kind " + k.Tag().String()}
	}
}
