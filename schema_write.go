package carpet

import (
	"github.com/parquet-go/parquet-go"

	"github.com/parquet-go/carpet/codec"
)

// BuildSchema is the write-direction half of the Schema Adapter (C2):
// it transforms model's root Record kind into a Parquet MessageType
// (here, a *parquet.Schema wrapping a parquet.Node tree), per spec §4.2.
func BuildSchema(model *Model, cfg *Config) (*parquet.Schema, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	root := model.Root
	group, err := buildGroupFields(root.Fields(), cfg, nil)
	if err != nil {
		return nil, err
	}
	return parquet.NewSchema(root.Name(), group), nil
}

func buildGroupFields(fields []Field, cfg *Config, path FieldPath) (parquet.Group, error) {
	g := make(parquet.Group, len(fields))
	for _, f := range fields {
		fieldPath := path.Field(f.Name)
		bare, err := nodeForKind(f.Kind, cfg, fieldPath)
		if err != nil {
			return nil, err
		}
		node := wrapNode(bare, f.Kind, cfg)
		if _, ownID := f.Kind.FieldID(); !ownID && f.HasFieldID {
			node = parquet.FieldID(node, f.FieldID)
		}
		name := columnName(f.Name, cfg.ColumnNaming)
		g[name] = node
	}
	return g, nil
}

// wrapNode applies k's nullability (Optional/Required) and, if set, its
// own field id to a bare node built by nodeForKind. One-level lists are
// self-contained "repeated" nodes and cannot carry a further
// Optional/Required wrapper (spec §4.2/§4.4): for those, only the field
// id is applied.
func wrapNode(bare parquet.Node, k Kind, cfg *Config) parquet.Node {
	node := bare
	if !(k.Tag() == TagList && cfg.AnnotatedLevels == OneLevel) {
		if k.IsNullable() {
			node = parquet.Optional(node)
		} else {
			node = parquet.Required(node)
		}
	}
	if id, ok := k.FieldID(); ok {
		node = parquet.FieldID(node, id)
	}
	return node
}

// nodeForKind returns the bare (unwrapped) node for k's own shape: no
// Optional/Required repetition, no field id. Composite kinds recurse;
// List additionally branches on cfg.AnnotatedLevels (spec §4.2).
func nodeForKind(k Kind, cfg *Config, path FieldPath) (parquet.Node, error) {
	switch k.Tag() {
	case TagBoolean:
		return parquet.Leaf(parquet.BooleanType), nil
	case TagByte:
		return parquet.Int(8), nil
	case TagShort:
		return parquet.Int(16), nil
	case TagInt:
		return parquet.Leaf(parquet.Int32Type), nil
	case TagLong:
		return parquet.Leaf(parquet.Int64Type), nil
	case TagFloat:
		return parquet.Leaf(parquet.FloatType), nil
	case TagDouble:
		return parquet.Leaf(parquet.DoubleType), nil
	case TagString:
		return parquet.String(), nil
	case TagEnum:
		return parquet.Enum(), nil
	case TagBinary:
		return parquet.Leaf(parquet.ByteArrayType), nil
	case TagUUID:
		return parquet.UUID(), nil
	case TagDecimal:
		return decimalNode(k, cfg, path)
	case TagDate:
		return parquet.Date(), nil
	case TagTime:
		return parquet.Time(parquetTimeUnit(k.Unit())), nil
	case TagDateTime:
		return timestampNode(parquetTimeUnit(k.Unit()), false), nil
	case TagInstant:
		return timestampNode(parquetTimeUnit(k.Unit()), true), nil
	case TagJSON:
		return parquet.JSON(), nil
	case TagBSON:
		return parquet.BSON(), nil
	case TagGeometry, TagGeography:
		// The pinned parquet-go release predates parquet-format's
		// GEOMETRY/GEOGRAPHY logical type additions; fall back to a
		// plain BINARY leaf, same representation Binary kinds get with
		// no annotation (spec §4.2 "Binary -> BINARY, no annotation").
		// CRS/edge-algorithm are carried on the Kind but have nowhere
		// to surface in the emitted schema with this dependency.
		return parquet.Leaf(parquet.ByteArrayType), nil
	case TagVariant:
		return parquet.Variant(), nil
	case TagList:
		return listNode(k, cfg, path)
	case TagMap:
		return mapNode(k, cfg, path)
	case TagRecord:
		return buildGroupFields(k.Fields(), cfg, path)
	default:
		return nil, &ModelError{Kind: UnsupportedType, Detail: "unrecognized field kind " + k.Tag().String()}
	}
}

func decimalNode(k Kind, cfg *Config, path FieldPath) (parquet.Node, error) {
	precision, scale, ok := k.PrecisionScale()
	if !ok {
		if cfg.DecimalDefault == nil {
			return nil, &SchemaDerivationError{Kind: MissingDecimalDefault, Path: path}
		}
		precision, scale = cfg.DecimalDefault.Precision, cfg.DecimalDefault.Scale
	}
	var base parquet.Type
	switch codec.PhysicalForPrecision(precision) {
	case codec.DecimalInt32:
		base = parquet.Int32Type
	case codec.DecimalInt64:
		base = parquet.Int64Type
	default:
		base = parquet.ByteArrayType
	}
	return parquet.Decimal(scale, precision, base), nil
}

func listNode(k Kind, cfg *Config, path FieldPath) (parquet.Node, error) {
	element, nullableElement := k.Element()
	if cfg.AnnotatedLevels == OneLevel && element.Tag() == TagList {
		return nil, &SchemaDerivationError{Kind: AmbiguousListLevelOne, Path: path.ListElement()}
	}
	elementBare, err := nodeForKind(element, cfg, path.ListElement())
	if err != nil {
		return nil, err
	}

	switch cfg.AnnotatedLevels {
	case OneLevel:
		return parquet.Repeated(elementBare), nil
	case TwoLevel:
		// The two-level convention's inner node is the element itself,
		// repeated; element nullability is unrepresentable here.
		return newTwoLevelList(parquet.Repeated(elementBare)), nil
	default: // ThreeLevel
		wrapped := wrapNullability(elementBare, nullableElement)
		return parquet.List(wrapped), nil
	}
}

func wrapNullability(node parquet.Node, nullable bool) parquet.Node {
	if nullable {
		return parquet.Optional(node)
	}
	return parquet.Required(node)
}

func mapNode(k Kind, cfg *Config, path FieldPath) (parquet.Node, error) {
	key, value, nullableValue := k.KeyValue()
	keyBare, err := nodeForKind(key, cfg, path.MapValue())
	if err != nil {
		return nil, err
	}
	valueBare, err := nodeForKind(value, cfg, path.MapValue())
	if err != nil {
		return nil, err
	}
	keyNode := parquet.Required(keyBare)
	valueNode := wrapNullability(valueBare, nullableValue)
	return parquet.Map(keyNode, valueNode), nil
}
