package carpet

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/parquet-go/carpet/internal/structtag"
	"github.com/parquet-go/carpet/variantx"
)

// ReflectConfig controls how ModelOf derives a Kind from a Go struct type:
// the struct-tag source, the default decimal precision/scale applied to
// bare decimal.Decimal fields, and the default representation chosen for
// time.Time fields (spec §4.1 "reflecting over an immutable-tuple nominal
// type").
type ReflectConfig struct {
	TagSource      structtag.Source
	DecimalDefault *DecimalDefault
	TimeUnit       TimeUnit
	// TimeAsInstant selects Instant (absolute, UTC) for bare time.Time
	// fields when true (the default); false selects LocalDateTime.
	TimeAsInstant bool
}

// DefaultReflectConfig mirrors DefaultConfig's defaults for the parts that
// also govern reflection.
func DefaultReflectConfig() *ReflectConfig {
	return &ReflectConfig{
		TagSource:     structtag.DefaultOptions().Source(),
		TimeUnit:      Millisecond,
		TimeAsInstant: true,
	}
}

var (
	uuidType    = reflect.TypeOf(uuid.UUID{})
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	byteSlice   = reflect.TypeOf([]byte(nil))
	variantType = reflect.TypeOf((*variantx.Value)(nil)).Elem()
)

// ModelOf reflects over the type of sample (a struct or pointer to struct,
// standing in for the "nominal positional-tuple type" spec §4.1 describes)
// and builds the corresponding Record Kind, then validates it with
// BuildModel. Field order follows Go's declared struct field order;
// unexported fields are skipped, matching a positional tuple's public
// accessor set.
func ModelOf(sample any, cfg *ReflectConfig) (*Model, error) {
	if cfg == nil {
		cfg = DefaultReflectConfig()
	}
	t := reflect.TypeOf(sample)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, &ModelError{Kind: UnsupportedType, Detail: "ModelOf requires a struct or *struct, got " + t.String()}
	}
	aliases := Aliases{}
	root, err := reflectRecord(t, cfg, nil, aliases)
	if err != nil {
		return nil, err
	}
	m, err := BuildModel(root)
	if err != nil {
		return nil, err
	}
	m.Aliases = aliases
	return m, nil
}

type tagOptions struct {
	name      string
	alias     string
	fieldID   int
	hasID     bool
	precision int
	scale     int
	hasPS     bool
	enumVals  []string
	notNull   bool
}

func parseTag(raw, fallbackName string) tagOptions {
	opts := tagOptions{name: fallbackName}
	if raw == "" {
		return opts
	}
	parts := strings.Split(raw, ",")
	switch parts[0] {
	case "":
	case "-":
		opts.name = ""
	default:
		opts.name = parts[0]
	}
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		switch {
		case p == "notnull" || p == "required":
			opts.notNull = true
		case strings.HasPrefix(p, "alias="):
			opts.alias = strings.TrimPrefix(p, "alias=")
		case strings.HasPrefix(p, "id="):
			if n, err := strconv.Atoi(strings.TrimPrefix(p, "id=")); err == nil {
				opts.fieldID, opts.hasID = n, true
			}
		case strings.HasPrefix(p, "precision="):
			if n, err := strconv.Atoi(strings.TrimPrefix(p, "precision=")); err == nil {
				opts.precision, opts.hasPS = n, true
			}
		case strings.HasPrefix(p, "scale="):
			if n, err := strconv.Atoi(strings.TrimPrefix(p, "scale=")); err == nil {
				opts.scale, opts.hasPS = n, true
			}
		case strings.HasPrefix(p, "enum="):
			opts.enumVals = strings.Split(strings.TrimPrefix(p, "enum="), "|")
		}
	}
	return opts
}

func reflectRecord(t reflect.Type, cfg *ReflectConfig, seen []reflect.Type, aliases Aliases) (Kind, error) {
	for _, s := range seen {
		if s == t {
			return Kind{}, &ModelError{Kind: Recursion, Record: t.Name(), Detail: "record type recursively references itself"}
		}
	}
	nextSeen := append(append([]reflect.Type(nil), seen...), t)

	b := NewRecord(t.Name())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" { // unexported
			continue
		}
		tag := cfg.TagSource.Tags(sf)
		opts := parseTag(tag.Carpet, sf.Name)
		if opts.name == "" {
			continue // explicit "-": field excluded from the model
		}
		if opts.alias != "" && aliases != nil {
			aliases[opts.name] = opts.alias
		}

		fieldIndex := i
		kind, err := reflectFieldKind(sf.Type, opts, cfg, nextSeen, tag, aliases)
		if err != nil {
			return Kind{}, err
		}
		if opts.notNull {
			kind = kind.NotNull()
		}

		accessor := func(record any) any {
			v := reflect.ValueOf(record)
			for v.Kind() == reflect.Pointer {
				if v.IsNil() {
					return nil
				}
				v = v.Elem()
			}
			fv := v.Field(fieldIndex)
			if fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					return nil
				}
				fv = fv.Elem()
			}
			return fv.Interface()
		}

		if opts.hasID {
			b = b.FieldWithID(opts.name, kind, opts.fieldID, accessor)
		} else {
			b = b.Field(opts.name, kind, accessor)
		}
	}

	b = b.WithGoType(t)
	b = b.WithConstructor(structConstructor(t, cfg))
	return b.Build()
}

// structConstructor builds a Constructor that allocates a new value of t
// and sets its modeled fields, in declared order, from values. Fields the
// model excludes (unexported, or tagged "-") keep their zero value, so
// the slot positions line up with the model's field tuple.
func structConstructor(t reflect.Type, cfg *ReflectConfig) Constructor {
	included := make([]int, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" {
			continue
		}
		if parseTag(cfg.TagSource.Tags(sf).Carpet, sf.Name).name == "" {
			continue
		}
		included = append(included, i)
	}
	return func(values []any) any {
		out := reflect.New(t).Elem()
		for vi, i := range included {
			if vi >= len(values) {
				break
			}
			setReflectField(out.Field(i), values[vi])
		}
		return out.Interface()
	}
}

// setReflectField assigns a materialized value (which may be a concrete
// record struct, a []any collection, or a map[any]any) into a struct
// field, converting element-wise where the shapes differ.
func setReflectField(dst reflect.Value, value any) {
	if value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return
	}
	v := reflect.ValueOf(value)
	if dst.Kind() == reflect.Pointer {
		p := reflect.New(dst.Type().Elem())
		setReflectField(p.Elem(), value)
		dst.Set(p)
		return
	}
	if v.Type().AssignableTo(dst.Type()) {
		dst.Set(v)
		return
	}
	if v.Type().ConvertibleTo(dst.Type()) && dst.Kind() != reflect.Slice && dst.Kind() != reflect.Map {
		dst.Set(v.Convert(dst.Type()))
		return
	}
	switch dst.Kind() {
	case reflect.Slice:
		if v.Kind() != reflect.Slice {
			return
		}
		out := reflect.MakeSlice(dst.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			e := v.Index(i)
			if e.Kind() == reflect.Interface && e.IsNil() {
				continue
			}
			setReflectField(out.Index(i), e.Interface())
		}
		dst.Set(out)
	case reflect.Map:
		if v.Kind() != reflect.Map {
			return
		}
		out := reflect.MakeMapWithSize(dst.Type(), v.Len())
		for _, mk := range v.MapKeys() {
			key := reflect.New(dst.Type().Key()).Elem()
			setReflectField(key, mk.Interface())
			val := reflect.New(dst.Type().Elem()).Elem()
			if mv := v.MapIndex(mk); !(mv.Kind() == reflect.Interface && mv.IsNil()) {
				setReflectField(val, mv.Interface())
			}
			out.SetMapIndex(key, val)
		}
		dst.Set(out)
	}
}

func reflectFieldKind(t reflect.Type, opts tagOptions, cfg *ReflectConfig, seen []reflect.Type, tag structtag.Tag, aliases Aliases) (Kind, error) {
	nullable := false
	for t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	var k Kind
	var err error

	switch {
	case t == variantType:
		// Interface-typed fields carry opaque variant values; nil is
		// their null.
		k = Variant().Nullable()
	case t == uuidType:
		k = Uuid()
	case t == timeType:
		if cfg.TimeAsInstant {
			k = Instant(cfg.TimeUnit)
		} else {
			k = LocalDateTime(cfg.TimeUnit)
		}
	case t == decimalType:
		k = BigDecimal()
		if opts.hasPS {
			k = k.WithPrecisionScale(opts.precision, opts.scale)
		} else if cfg.DecimalDefault != nil {
			k = k.WithPrecisionScale(cfg.DecimalDefault.Precision, cfg.DecimalDefault.Scale)
		}
	case t == byteSlice:
		k = Binary()
	case len(opts.enumVals) > 0 && t.Kind() == reflect.String:
		k = Enum(opts.enumVals)
	case t.Kind() == reflect.Bool:
		k = Boolean()
	case t.Kind() == reflect.Int8:
		k = Byte()
	case t.Kind() == reflect.Int16:
		k = Short()
	case t.Kind() == reflect.Int32 || t.Kind() == reflect.Int:
		k = Int()
	case t.Kind() == reflect.Int64:
		k = Long()
	case t.Kind() == reflect.Uint8:
		k = Short() // widen to avoid silent truncation; spec has no unsigned byte kind
	case t.Kind() == reflect.Float32:
		k = Float()
	case t.Kind() == reflect.Float64:
		k = Double()
	case t.Kind() == reflect.String:
		k = String()
	case t.Kind() == reflect.Slice:
		elemNullable := t.Elem().Kind() == reflect.Pointer
		elemKind, elemErr := reflectFieldKind(t.Elem(), tagOptions{}, cfg, seen, structtag.Tag{}, aliases)
		if elemErr != nil {
			return Kind{}, elemErr
		}
		// A nil slice is the natural null; notnull tags override.
		k = List(elemKind, elemNullable).Nullable()
	case t.Kind() == reflect.Map:
		keyKind, kerr := reflectFieldKind(t.Key(), parseTag(tag.MapKey, ""), cfg, seen, structtag.Tag{}, aliases)
		if kerr != nil {
			return Kind{}, kerr
		}
		valNullable := t.Elem().Kind() == reflect.Pointer
		valKind, verr := reflectFieldKind(t.Elem(), parseTag(tag.MapValue, ""), cfg, seen, structtag.Tag{}, aliases)
		if verr != nil {
			return Kind{}, verr
		}
		k = Map(keyKind, valKind, valNullable).Nullable()
	case t.Kind() == reflect.Struct:
		k, err = reflectRecord(t, cfg, seen, aliases)
		if err != nil {
			return Kind{}, err
		}
	default:
		return Kind{}, &ModelError{Kind: UnsupportedType, Detail: fmt.Sprintf("unsupported Go type %s", t)}
	}

	if nullable && k.Tag() != TagMap {
		k = k.Nullable()
	}
	return k, nil
}
