package carpet

import (
	"fmt"

	"github.com/parquet-go/parquet-go"
)

// BindingNode is one node of the per-session binding plan (spec §3
// glossary "Binding plan"): the resolved mapping from one user field to
// either a file column/group or "absent".
type BindingNode struct {
	Kind  Kind
	Name  string
	Bound bool

	// ColumnName is the file column this field was matched to, when Bound.
	ColumnName string

	// ColumnType is populated for primitive leaf bindings, the input to
	// the compatibility oracle (C3).
	ColumnType ColumnType
	// FileNode is the matched file-schema node. The read materializer
	// (C5) does not read it; it walks the same node inside the projected
	// schema to recognize the list-encoding shape (one/two/three level,
	// spec §4.5).
	FileNode parquet.Node

	// Children populates one entry per field of a Record kind, in
	// declared order.
	Children []*BindingNode
}

// BindingPlan is the immutable result of projecting a file schema
// against a Model (spec §4.2 read direction): the binding tree plus the
// projected MessageType containing only bound columns.
type BindingPlan struct {
	Root            *BindingNode
	ProjectedSchema *parquet.Schema
	Leaves          []leafColumn
	Aliases         Aliases
}

// ProjectSchema implements the read direction of the Schema Adapter
// (C2), including field matching (C6) and compatibility validation (C3).
// It returns the binding plan and any accumulated read errors; missing
// required columns and nullability mismatches are included or suppressed
// per cfg.FailOnMissingColumn / cfg.FailOnNullForPrimitives (spec §7).
func ProjectSchema(model *Model, file *parquet.Schema, aliases Aliases, cfg *Config) (*BindingPlan, []error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if aliases == nil {
		aliases = Aliases{}
		for k, v := range model.Aliases {
			aliases[k] = v
		}
		for k, v := range cfg.Aliases {
			aliases[k] = v
		}
	}
	root, proj, errs := bindRecord(model.Root, parquet.Node(file), aliases, cfg, nil)
	projSchema := parquet.NewSchema(model.Root.Name(), proj)
	return &BindingPlan{
		Root:            root,
		ProjectedSchema: projSchema,
		Leaves:          flattenLeaves(projSchema),
		Aliases:         aliases,
	}, errs
}

func bindRecord(rec Kind, fileGroup parquet.Node, aliases Aliases, cfg *Config, path FieldPath) (*BindingNode, parquet.Group, []error) {
	var errs []error

	childByName := make(map[string]parquet.Node)
	var available []string
	for _, f := range fileGroup.Fields() {
		childByName[f.Name()] = f
		available = append(available, f.Name())
	}

	fields := rec.Fields()
	bindings := MatchFields(fields, aliases, available, cfg.ColumnNaming)
	children := make([]*BindingNode, len(fields))
	proj := make(parquet.Group)

	for i, f := range fields {
		b := bindings[i]
		node := &BindingNode{Kind: f.Kind, Name: f.Name}
		fieldPath := path.Field(f.Name)

		if !b.Bound {
			if f.Kind.NotNullable() && cfg.FailOnMissingColumn {
				errs = append(errs, &ReadError{Err: ErrMissingColumn, Path: fieldPath, ExpectedKind: f.Kind.Tag()})
			}
			children[i] = node
			continue
		}

		fileNode := childByName[b.ColumnName]
		node.Bound = true
		node.ColumnName = b.ColumnName
		node.FileNode = fileNode

		switch f.Kind.Tag() {
		case TagRecord:
			sub, subProj, subErrs := bindRecord(f.Kind, fileNode, aliases, cfg, fieldPath)
			node.Children = sub.Children
			errs = append(errs, subErrs...)
			proj[b.ColumnName] = rewrap(fileNode, subProj)

		case TagList, TagMap, TagVariant:
			// Composite annotations dispatch before the primitive
			// fallback. Deep per-element/per-value compatibility
			// validation is not performed here: the materializer (C5)
			// determines the concrete list/map/variant shape from
			// this node, copied whole into the projected schema, and decodes
			// primitives by the file's own annotations, mirroring the
			// "map-as-record shortcut" and single-level-list handling.
			proj[b.ColumnName] = fileNode

		default:
			ct, err := columnTypeOf(fileNode)
			if err != nil {
				errs = append(errs, &ReadError{Err: ErrUnsupportedPhysical, Path: fieldPath, SchemaFrag: fileNode.String(), ExpectedKind: f.Kind.Tag()})
				break
			}
			node.ColumnType = ct
			if ct.Physical == PInt96 {
				errs = append(errs, &ReadError{Err: ErrUnsupportedPhysical, Path: fieldPath, SchemaFrag: fileNode.String(), ExpectedKind: f.Kind.Tag()})
				break
			}
			compat := Compatible(ct, f.Kind.Tag(), cfg)
			if !compat.ok() {
				errs = append(errs, &ReadError{Err: ErrIncompatibleType, Path: fieldPath, SchemaFrag: fileNode.String(), ExpectedKind: f.Kind.Tag()})
			} else if compat == AcceptNarrowing && cfg.FailNarrowingPrimitiveConversion {
				errs = append(errs, &ReadError{Err: ErrIncompatibleType, Path: fieldPath, SchemaFrag: fileNode.String(), ExpectedKind: f.Kind.Tag()})
			}
			if cfg.FailOnNullForPrimitives && f.Kind.NotNullable() && fileNode.Optional() {
				errs = append(errs, &ReadError{Err: ErrNullabilityMismatch, Path: fieldPath, SchemaFrag: fileNode.String(), ExpectedKind: f.Kind.Tag()})
			}
			proj[b.ColumnName] = fileNode
		}

		children[i] = node
	}

	return &BindingNode{Kind: rec, Children: children}, proj, errs
}

// rewrap re-applies original's own repetition and field id to a rebuilt
// group body, so a nested record's optionality survives projection
// pruning down to only its bound fields.
func rewrap(original parquet.Node, body parquet.Group) parquet.Node {
	var node parquet.Node = body
	switch {
	case original.Repeated():
		node = parquet.Repeated(node)
	case original.Optional():
		node = parquet.Optional(node)
	default:
		node = parquet.Required(node)
	}
	if id := original.ID(); id != 0 {
		node = parquet.FieldID(node, id)
	}
	return node
}

// columnTypeOf extracts the (physical, annotation) pair the
// compatibility oracle (C3) consumes from a leaf file schema node (spec
// §4.3).
func columnTypeOf(n parquet.Node) (ColumnType, error) {
	if !n.Leaf() {
		return ColumnType{}, fmt.Errorf("carpet: expected a leaf column, got group %s", n.String())
	}
	typ := n.Type()
	ct := ColumnType{}

	switch typ.Kind() {
	case parquet.Boolean:
		ct.Physical = PBoolean
	case parquet.Int32:
		ct.Physical = PInt32
	case parquet.Int64:
		ct.Physical = PInt64
	case parquet.Int96:
		ct.Physical = PInt96
	case parquet.Float:
		ct.Physical = PFloat
	case parquet.Double:
		ct.Physical = PDouble
	case parquet.ByteArray:
		ct.Physical = PByteArray
	case parquet.FixedLenByteArray:
		ct.Physical = PFixedLenByteArray
		ct.FixedLen = typ.Length()
	default:
		return ColumnType{}, fmt.Errorf("carpet: unrecognized physical type %v", typ.Kind())
	}

	lt := typ.LogicalType()
	if lt == nil {
		return ct, nil
	}
	switch {
	case lt.String != nil:
		ct.Annotation = AnnoString
	case lt.Enum != nil:
		ct.Annotation = AnnoEnum
	case lt.Json != nil:
		ct.Annotation = AnnoJSON
	case lt.Bson != nil:
		ct.Annotation = AnnoBSON
	case lt.UUID != nil:
		ct.Annotation = AnnoUUID
	case lt.Integer != nil:
		ct.Annotation = AnnoInt
		ct.IntBitWidth = int(lt.Integer.BitWidth)
		ct.IntSigned = lt.Integer.IsSigned
	case lt.Decimal != nil:
		ct.Annotation = AnnoDecimal
		ct.DecimalPrecision = int(lt.Decimal.Precision)
		ct.DecimalScale = int(lt.Decimal.Scale)
	case lt.Date != nil:
		ct.Annotation = AnnoDate
	case lt.Time != nil:
		ct.Annotation = AnnoTime
		ct.UTCAdjusted = lt.Time.IsAdjustedToUTC
		ct.TimeUnit = timeUnitOf(lt.Time.Unit)
	case lt.Timestamp != nil:
		ct.Annotation = AnnoTimestamp
		ct.UTCAdjusted = lt.Timestamp.IsAdjustedToUTC
		ct.TimeUnit = timeUnitOf(lt.Timestamp.Unit)
	}
	return ct, nil
}
