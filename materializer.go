package carpet

import (
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/parquet-go/carpet/codec"
	"github.com/parquet-go/carpet/variantx"
)

// Materializer is the Read Materializer (C5, spec §4.5): a tree of
// converter nodes mirroring the projected schema. The underlying engine
// yields one parquet.Row per record; Materialize walks the row's column
// values (tagged with repetition and definition levels) through the
// converter tree and assembles one record instance.
//
// A Materializer is per-session mutable state: its cursors are reset in
// place at each row boundary and must not be shared across goroutines
// (spec §5).
type Materializer struct {
	root  *recordConverter
	state rowState
}

// NewMaterializer builds the converter tree for plan. The variant decoder
// comes from cfg.VariantDecoder, defaulting to the identity pass-through.
func NewMaterializer(plan *BindingPlan, cfg *Config) (*Materializer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	dec := cfg.VariantDecoder
	if dec == nil {
		dec = variantx.RawDecoder
	}
	leafIndex := make(map[string]int, len(plan.Leaves))
	for _, l := range plan.Leaves {
		leafIndex[joinPath(l.Path)] = l.Index
	}
	b := &converterBuilder{cfg: cfg, aliases: plan.Aliases, leafIndex: leafIndex, dec: dec}
	root, err := b.buildRecord(plan.Root.Kind, parquet.Node(plan.ProjectedSchema), nil, 0, 0, nil)
	if err != nil {
		return nil, err
	}
	m := &Materializer{root: root}
	m.state.init(len(plan.Leaves))
	return m, nil
}

// Materialize assembles one record from row. The returned value is a
// fresh instance owned by the caller (spec §3 Ownership); for models with
// a record constructor it is the constructed record type, otherwise a
// map[string]any dictionary keyed by field name.
func (m *Materializer) Materialize(row parquet.Row) (any, error) {
	m.state.reset(row)
	return m.root.convert(&m.state)
}

// rowState holds the per-row column cursors: each column's values in
// arrival order, consumed left to right as the converter tree walks the
// row. Buffers are reset in place at each row boundary (spec §5).
type rowState struct {
	cols [][]parquet.Value
	pos  []int
}

func (s *rowState) init(numCols int) {
	s.cols = make([][]parquet.Value, numCols)
	s.pos = make([]int, numCols)
}

func (s *rowState) reset(row parquet.Row) {
	for i := range s.cols {
		s.cols[i] = s.cols[i][:0]
		s.pos[i] = 0
	}
	for _, v := range row {
		if c := int(v.Column()); c >= 0 && c < len(s.cols) {
			s.cols[c] = append(s.cols[c], v)
		}
	}
}

func (s *rowState) peek(col int) (parquet.Value, bool) {
	if col < 0 || col >= len(s.cols) || s.pos[col] >= len(s.cols[col]) {
		return parquet.Value{}, false
	}
	return s.cols[col][s.pos[col]], true
}

func (s *rowState) next(col int) (parquet.Value, bool) {
	v, ok := s.peek(col)
	if ok {
		s.pos[col]++
	}
	return v, ok
}

func (s *rowState) skipOne(cols []int) {
	for _, c := range cols {
		s.next(c)
	}
}

// skipInstance drains one instance's worth of values from col: the
// leading value plus any continuation values whose repetition level
// marks them as belonging to a repeated structure nested inside the
// instance (rep > the instance's own entry level).
func (s *rowState) skipInstance(col, rep int) {
	if _, ok := s.next(col); !ok {
		return
	}
	for {
		v, ok := s.peek(col)
		if !ok || int(v.RepetitionLevel()) <= rep {
			return
		}
		s.next(col)
	}
}

// converter assembles one value from the current row's column cursors.
// convert consumes exactly the values belonging to one instance of this
// node; skip consumes exactly one value per leaf column beneath it (the
// shape a null or empty ancestor leaves in the columns).
type converter interface {
	convert(s *rowState) (any, error)
	skip(s *rowState)
}

// slot is one record field position: its converter, or nil when the
// field has no bound column and keeps its default (spec §4.2).
type slot struct {
	name string
	conv converter
}

// recordConverter owns a slot array indexed by record field position
// (spec §4.5). On each assembly cycle it fills the slots from the column
// cursors and constructs a fresh record instance.
type recordConverter struct {
	kind        Kind
	presenceDef int
	rep         int
	firstLeaf   int
	leaves      []int
	// unbound lists projected columns beneath this group that no slot
	// consumes (file columns of a nested group the model does not
	// declare); their values are drained instance-wise so the cursors
	// stay aligned with sibling entries.
	unbound     []int
	slots       []slot
	constructor Constructor
}

func (c *recordConverter) convert(s *rowState) (any, error) {
	if c.presenceDef > 0 {
		v, ok := s.peek(c.firstLeaf)
		if !ok || int(v.DefinitionLevel()) < c.presenceDef {
			c.skip(s)
			return nil, nil
		}
	}
	values := make([]any, len(c.slots))
	for i := range c.slots {
		if c.slots[i].conv == nil {
			continue
		}
		v, err := c.slots[i].conv.convert(s)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	for _, col := range c.unbound {
		s.skipInstance(col, c.rep)
	}
	if c.constructor != nil {
		return c.constructor(values), nil
	}
	out := make(map[string]any, len(c.slots))
	for i := range c.slots {
		out[c.slots[i].name] = values[i]
	}
	return out, nil
}

func (c *recordConverter) skip(s *rowState) { s.skipOne(c.leaves) }

// listConverter owns the collection being assembled for one list field.
// Entries repeat while the next value's repetition level reaches the
// list's own level; presence and emptiness are read off the first leaf's
// definition level (spec §4.5).
type listConverter struct {
	kind        Kind
	presenceDef int
	entryDef    int
	rep         int
	entry       converter
	firstLeaf   int
	leaves      []int
	collection  CollectionKind
	// lazyInit marks the legacy single-level encoding: no elements means
	// the collection is never initialized, so the field stays null.
	lazyInit bool
}

func (c *listConverter) convert(s *rowState) (any, error) {
	v, ok := s.peek(c.firstLeaf)
	if !ok {
		return nil, nil
	}
	if int(v.DefinitionLevel()) < c.presenceDef {
		c.skip(s)
		return nil, nil
	}
	if int(v.DefinitionLevel()) < c.entryDef {
		c.skip(s)
		if c.lazyInit {
			return nil, nil
		}
		return buildCollection(c.collection, nil), nil
	}
	var items []any
	for {
		e, err := c.entry.convert(s)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
		nv, more := s.peek(c.firstLeaf)
		if !more || int(nv.RepetitionLevel()) < c.rep {
			break
		}
	}
	return buildCollection(c.collection, items), nil
}

func (c *listConverter) skip(s *rowState) { s.skipOne(c.leaves) }

// listIntermediateConverter is the three-level encoding's repeated
// wrapper group: it holds the current element scratch and hands the
// finished element to the enclosing listConverter (spec §4.5).
type listIntermediateConverter struct {
	elem converter
}

func (c *listIntermediateConverter) convert(s *rowState) (any, error) { return c.elem.convert(s) }
func (c *listIntermediateConverter) skip(s *rowState)                 { c.elem.skip(s) }

// mapConverter mirrors listConverter for the MAP convention's repeated
// key_value entries.
type mapConverter struct {
	presenceDef int
	entryDef    int
	rep         int
	entry       *mapIntermediateConverter
	firstLeaf   int
	leaves      []int
}

func (c *mapConverter) convert(s *rowState) (any, error) {
	v, ok := s.peek(c.firstLeaf)
	if !ok {
		return nil, nil
	}
	if int(v.DefinitionLevel()) < c.presenceDef {
		c.skip(s)
		return nil, nil
	}
	out := make(map[any]any)
	if int(v.DefinitionLevel()) < c.entryDef {
		c.skip(s)
		return out, nil
	}
	for {
		k, mv, err := c.entry.convertEntry(s)
		if err != nil {
			return nil, err
		}
		out[k] = mv
		nv, more := s.peek(c.firstLeaf)
		if !more || int(nv.RepetitionLevel()) < c.rep {
			break
		}
	}
	return out, nil
}

func (c *mapConverter) skip(s *rowState) { s.skipOne(c.leaves) }

// mapIntermediateConverter assembles one key_value entry.
type mapIntermediateConverter struct {
	key   converter
	value converter
}

func (c *mapIntermediateConverter) convertEntry(s *rowState) (any, any, error) {
	k, err := c.key.convert(s)
	if err != nil {
		return nil, nil, err
	}
	v, err := c.value.convert(s)
	if err != nil {
		return nil, nil, err
	}
	return k, v, nil
}

// variantConverter reads the variant group's two required binary columns
// and delegates reconstruction to the external decoder (spec §4.9).
type variantConverter struct {
	presenceDef int
	metaCol     int
	valueCol    int
	dec         variantx.Decoder
}

func (c *variantConverter) convert(s *rowState) (any, error) {
	mv, ok := s.next(c.metaCol)
	vv, _ := s.next(c.valueCol)
	if !ok || int(mv.DefinitionLevel()) < c.presenceDef {
		return nil, nil
	}
	meta := append([]byte(nil), mv.ByteArray()...)
	val := append([]byte(nil), vv.ByteArray()...)
	return c.dec.Decode(meta, val)
}

func (c *variantConverter) skip(s *rowState) {
	s.next(c.metaCol)
	s.next(c.valueCol)
}

// primitiveConverter receives one typed leaf value per assembly cycle
// and decodes it through the C7 codec helpers where applicable.
type primitiveConverter struct {
	col         int
	presenceDef int
	decode      func(parquet.Value) (any, error)
}

func (c *primitiveConverter) convert(s *rowState) (any, error) {
	v, ok := s.next(c.col)
	if !ok || v.IsNull() || int(v.DefinitionLevel()) < c.presenceDef {
		return nil, nil
	}
	return c.decode(v)
}

func (c *primitiveConverter) skip(s *rowState) { s.next(c.col) }

func buildCollection(kind CollectionKind, items []any) any {
	if kind == CollectionSet {
		set := make(map[any]struct{}, len(items))
		for _, it := range items {
			set[it] = struct{}{}
		}
		return set
	}
	if items == nil {
		items = []any{}
	}
	return items
}

// converterBuilder walks (user kind, projected schema node) pairs and
// assembles the converter tree, assigning each leaf its column index from
// the projected schema's canonical flattening.
type converterBuilder struct {
	cfg       *Config
	aliases   Aliases
	leafIndex map[string]int
	dec       variantx.Decoder
}

func joinPath(path []string) string { return strings.Join(path, "/") }

func (b *converterBuilder) leavesUnder(node parquet.Node, path []string) (cols []int) {
	for _, l := range flattenLeaves(node) {
		full := append(append([]string(nil), path...), l.Path...)
		if col, ok := b.leafIndex[joinPath(full)]; ok {
			cols = append(cols, col)
		}
	}
	return cols
}

// buildRecord assembles a recordConverter for rec against a group node.
// Fields are re-matched against the projected group with the same
// strategy the binding plan used, so nested records inside lists and
// maps (which the plan does not descend into) resolve identically.
func (b *converterBuilder) buildRecord(rec Kind, node parquet.Node, path []string, presenceDef, rep int, fp FieldPath) (*recordConverter, error) {
	if node.Leaf() {
		return nil, &ReadError{Err: ErrIncompatibleType, Path: fp, SchemaFrag: node.String(), ExpectedKind: TagRecord}
	}
	childByName := make(map[string]parquet.Node)
	var available []string
	for _, f := range node.Fields() {
		childByName[f.Name()] = f
		available = append(available, f.Name())
	}

	fields := rec.Fields()
	bindings := MatchFields(fields, b.aliases, available, b.cfg.ColumnNaming)
	rc := &recordConverter{
		kind:        rec,
		presenceDef: presenceDef,
		rep:         rep,
		firstLeaf:   -1,
		leaves:      b.leavesUnder(node, path),
		slots:       make([]slot, len(fields)),
		constructor: rec.RecordConstructor(),
	}
	if len(rc.leaves) > 0 {
		rc.firstLeaf = rc.leaves[0]
	}

	consumed := make(map[int]bool, len(rc.leaves))
	for i, f := range fields {
		rc.slots[i].name = f.Name
		if !bindings[i].Bound {
			continue
		}
		child := childByName[bindings[i].ColumnName]
		childPath := appendPath(path, bindings[i].ColumnName)
		childDef := presenceDef
		if child.Optional() {
			childDef++
		}
		conv, err := b.build(f.Kind, child, childPath, childDef, rep, fp.Field(f.Name))
		if err != nil {
			return nil, err
		}
		rc.slots[i].conv = conv
		for _, col := range b.leavesUnder(child, childPath) {
			consumed[col] = true
		}
	}
	for _, col := range rc.leaves {
		if !consumed[col] {
			rc.unbound = append(rc.unbound, col)
		}
	}
	return rc, nil
}

// build dispatches on the user kind, recognizing the composite
// annotation shapes (VARIANT, LIST, MAP) before any primitive fallback
// (spec §9 open questions).
func (b *converterBuilder) build(kind Kind, node parquet.Node, path []string, presenceDef, rep int, fp FieldPath) (converter, error) {
	switch kind.Tag() {
	case TagRecord:
		return b.buildRecord(kind, node, path, presenceDef, rep, fp)
	case TagList:
		return b.buildList(kind, node, path, presenceDef, rep, fp)
	case TagMap:
		return b.buildMap(kind, node, path, presenceDef, rep, fp)
	case TagVariant:
		return b.buildVariant(node, path, presenceDef, fp)
	default:
		return b.buildPrimitive(kind, node, path, presenceDef, fp)
	}
}

func isListAnnotated(node parquet.Node) bool {
	if node.Leaf() {
		return false
	}
	lt := node.Type().LogicalType()
	return lt != nil && lt.List != nil
}

func isMapAnnotated(node parquet.Node) bool {
	if node.Leaf() {
		return false
	}
	lt := node.Type().LogicalType()
	return lt != nil && lt.Map != nil
}

func (b *converterBuilder) buildList(kind Kind, node parquet.Node, path []string, presenceDef, rep int, fp FieldPath) (converter, error) {
	element, nullableElement := kind.Element()
	if nullableElement {
		element = element.Nullable()
	} else {
		element = element.NotNull()
	}

	// Legacy single-level encoding: the field itself is repeated, with no
	// LIST annotation; each element arrives as a separate event and the
	// collection is lazily initialized on the first one (spec §4.5).
	if node.Repeated() && !isListAnnotated(node) {
		entryDef := presenceDef + 1
		entryRep := rep + 1
		entry, err := b.build(element.NotNull(), node, path, entryDef, entryRep, fp.ListElement())
		if err != nil {
			return nil, err
		}
		lc := &listConverter{
			kind:        kind,
			presenceDef: presenceDef,
			entryDef:    entryDef,
			rep:         entryRep,
			entry:       entry,
			leaves:      b.leavesUnder(node, path),
			collection:  kind.Collection(),
			lazyInit:    true,
		}
		if len(lc.leaves) == 0 {
			return nil, &ReadError{Err: ErrIncompatibleType, Path: fp, SchemaFrag: node.String(), ExpectedKind: TagList}
		}
		lc.firstLeaf = lc.leaves[0]
		return lc, nil
	}

	if node.Leaf() || len(node.Fields()) != 1 {
		return nil, &ReadError{Err: ErrIncompatibleType, Path: fp, SchemaFrag: node.String(), ExpectedKind: TagList}
	}
	repeated := node.Fields()[0]
	if !repeated.Repeated() {
		return nil, &ReadError{Err: ErrIncompatibleType, Path: fp, SchemaFrag: node.String(), ExpectedKind: TagList}
	}
	entryDef := presenceDef + 1
	entryRep := rep + 1

	var entry converter
	var err error
	repeatedPath := appendPath(path, repeated.Name())
	if inner, ok := threeLevelElement(repeated); ok {
		// Three-level: repeated group "list" wrapping the element node.
		elemDef := entryDef
		if inner.Optional() {
			elemDef++
		}
		elemConv, berr := b.build(element, inner, appendPath(repeatedPath, inner.Name()), elemDef, entryRep, fp.ListElement())
		if berr != nil {
			return nil, berr
		}
		entry = &listIntermediateConverter{elem: elemConv}
	} else {
		// Two-level: the repeated node is the element itself; repeated
		// elements cannot be null.
		entry, err = b.build(element.NotNull(), repeated, repeatedPath, entryDef, entryRep, fp.ListElement())
		if err != nil {
			return nil, err
		}
	}

	lc := &listConverter{
		kind:        kind,
		presenceDef: presenceDef,
		entryDef:    entryDef,
		rep:         entryRep,
		entry:       entry,
		leaves:      b.leavesUnder(node, path),
		collection:  kind.Collection(),
	}
	if len(lc.leaves) == 0 {
		return nil, &ReadError{Err: ErrIncompatibleType, Path: fp, SchemaFrag: node.String(), ExpectedKind: TagList}
	}
	lc.firstLeaf = lc.leaves[0]
	return lc, nil
}

// threeLevelElement recognizes the three-level convention: the repeated
// child is a group literally named "list" whose single child is the
// element, named "element" or "item". "array"-named wrappers are not
// recognized and fall back to the two-level reading (the format's
// historical convention fixes the names; see DESIGN.md).
func threeLevelElement(repeated parquet.Field) (parquet.Field, bool) {
	if repeated.Leaf() || repeated.Name() != "list" {
		return nil, false
	}
	inner := repeated.Fields()
	if len(inner) != 1 {
		return nil, false
	}
	if name := inner[0].Name(); name != "element" && name != "item" {
		return nil, false
	}
	return inner[0], true
}

func (b *converterBuilder) buildMap(kind Kind, node parquet.Node, path []string, presenceDef, rep int, fp FieldPath) (converter, error) {
	if node.Leaf() {
		return nil, &ReadError{Err: ErrIncompatibleType, Path: fp, SchemaFrag: node.String(), ExpectedKind: TagMap}
	}
	keyKind, valueKind, nullableValue := kind.KeyValue()
	if nullableValue {
		valueKind = valueKind.Nullable()
	} else {
		valueKind = valueKind.NotNull()
	}

	kv, key, value, ok := mapShape(node)
	if !ok {
		// Map-as-record shortcut: a generic mapping bound to a plain
		// record group materializes a dictionary keyed by field name,
		// decoding primitives by their annotations (spec §4.5).
		return b.buildSchemaless(node, path, presenceDef, rep, fp)
	}

	entryDef := presenceDef + 1
	entryRep := rep + 1
	kvPath := appendPath(path, kv.Name())

	keyConv, err := b.build(keyKind.NotNull(), key, appendPath(kvPath, key.Name()), entryDef, entryRep, fp.MapValue())
	if err != nil {
		return nil, err
	}
	valueDef := entryDef
	if value.Optional() {
		valueDef++
	}
	valueConv, err := b.build(valueKind, value, appendPath(kvPath, value.Name()), valueDef, entryRep, fp.MapValue())
	if err != nil {
		return nil, err
	}

	mc := &mapConverter{
		presenceDef: presenceDef,
		entryDef:    entryDef,
		rep:         entryRep,
		entry:       &mapIntermediateConverter{key: keyConv, value: valueConv},
		leaves:      b.leavesUnder(node, path),
	}
	if len(mc.leaves) == 0 {
		return nil, &ReadError{Err: ErrIncompatibleType, Path: fp, SchemaFrag: node.String(), ExpectedKind: TagMap}
	}
	mc.firstLeaf = mc.leaves[0]
	return mc, nil
}

// mapShape recognizes the MAP convention: a group (MAP-annotated or not)
// whose single repeated group child carries exactly a key and a value.
func mapShape(node parquet.Node) (kv, key, value parquet.Field, ok bool) {
	fields := node.Fields()
	if len(fields) != 1 || fields[0].Leaf() || !fields[0].Repeated() {
		return nil, nil, nil, false
	}
	kv = fields[0]
	entries := kv.Fields()
	if len(entries) != 2 {
		return nil, nil, nil, false
	}
	key, value = entries[0], entries[1]
	if entries[0].Name() == "value" || entries[1].Name() == "key" {
		key, value = entries[1], entries[0]
	}
	if !isMapAnnotated(node) && kv.Name() != "key_value" {
		return nil, nil, nil, false
	}
	return kv, key, value, true
}

// buildSchemaless materializes an arbitrary group as a map[string]any
// dictionary, inferring each column's kind from its own annotation.
func (b *converterBuilder) buildSchemaless(node parquet.Node, path []string, presenceDef, rep int, fp FieldPath) (converter, error) {
	fields := node.Fields()
	rc := &recordConverter{
		presenceDef: presenceDef,
		rep:         rep,
		firstLeaf:   -1,
		leaves:      b.leavesUnder(node, path),
		slots:       make([]slot, len(fields)),
	}
	if len(rc.leaves) > 0 {
		rc.firstLeaf = rc.leaves[0]
	}
	for i, f := range fields {
		rc.slots[i].name = f.Name()
		childPath := appendPath(path, f.Name())
		childDef := presenceDef
		if f.Optional() {
			childDef++
		}
		var conv converter
		var err error
		if f.Leaf() {
			ct, cterr := columnTypeOf(f)
			if cterr != nil {
				return nil, &ReadError{Err: ErrUnsupportedPhysical, Path: fp.Field(f.Name()), SchemaFrag: f.String()}
			}
			conv, err = b.buildPrimitive(inferKind(ct), f, childPath, childDef, fp.Field(f.Name()))
		} else if isListAnnotated(f) || f.Repeated() {
			conv, err = b.buildList(List(inferGroupKind(f), true), f, childPath, childDef, rep, fp.Field(f.Name()))
		} else {
			conv, err = b.buildSchemaless(f, childPath, childDef, rep, fp.Field(f.Name()))
		}
		if err != nil {
			return nil, err
		}
		rc.slots[i].conv = conv
	}
	return rc, nil
}

// inferKind maps a file column's (physical, annotation) pair to the
// natural user kind for schema-less reads.
func inferKind(ct ColumnType) Kind {
	switch ct.Annotation {
	case AnnoString, AnnoEnum:
		return String()
	case AnnoJSON:
		return Json(TagString)
	case AnnoBSON:
		return Bson()
	case AnnoUUID:
		return Uuid()
	case AnnoInt:
		switch ct.IntBitWidth {
		case 8:
			return Byte()
		case 16:
			return Short()
		case 64:
			return Long()
		default:
			return Int()
		}
	case AnnoDecimal:
		return BigDecimal().WithPrecisionScale(ct.DecimalPrecision, ct.DecimalScale)
	case AnnoDate:
		return LocalDate()
	case AnnoTime:
		return LocalTime(ct.TimeUnit)
	case AnnoTimestamp:
		if ct.UTCAdjusted {
			return Instant(ct.TimeUnit)
		}
		return LocalDateTime(ct.TimeUnit)
	}
	switch ct.Physical {
	case PBoolean:
		return Boolean()
	case PInt32:
		return Int()
	case PInt64:
		return Long()
	case PFloat:
		return Float()
	case PDouble:
		return Double()
	default:
		return Binary()
	}
}

// inferGroupKind gives the element kind used when a schema-less read
// descends into a repeated group: nested groups surface as dictionaries.
func inferGroupKind(f parquet.Field) Kind {
	if f.Leaf() {
		ct, err := columnTypeOf(f)
		if err != nil {
			return Binary()
		}
		return inferKind(ct)
	}
	return Map(String(), Binary(), true)
}

func (b *converterBuilder) buildVariant(node parquet.Node, path []string, presenceDef int, fp FieldPath) (converter, error) {
	if node.Leaf() {
		return nil, &ReadError{Err: ErrIncompatibleType, Path: fp, SchemaFrag: node.String(), ExpectedKind: TagVariant}
	}
	var metaCol, valueCol = -1, -1
	for _, f := range node.Fields() {
		col, ok := b.leafIndex[joinPath(appendPath(path, f.Name()))]
		if !ok {
			continue
		}
		switch f.Name() {
		case "metadata":
			metaCol = col
		case "value":
			valueCol = col
		}
	}
	if metaCol < 0 || valueCol < 0 {
		return nil, &ReadError{Err: ErrIncompatibleType, Path: fp, SchemaFrag: node.String(), ExpectedKind: TagVariant}
	}
	return &variantConverter{presenceDef: presenceDef, metaCol: metaCol, valueCol: valueCol, dec: b.dec}, nil
}

func (b *converterBuilder) buildPrimitive(kind Kind, node parquet.Node, path []string, presenceDef int, fp FieldPath) (converter, error) {
	if !node.Leaf() {
		return nil, &ReadError{Err: ErrIncompatibleType, Path: fp, SchemaFrag: node.String(), ExpectedKind: kind.Tag()}
	}
	col, ok := b.leafIndex[joinPath(path)]
	if !ok {
		return nil, &InternalError{Detail: "no projected column for path " + joinPath(path)}
	}
	ct, err := columnTypeOf(node)
	if err != nil {
		return nil, &ReadError{Err: ErrUnsupportedPhysical, Path: fp, SchemaFrag: node.String(), ExpectedKind: kind.Tag()}
	}
	decode, err := decodeFunc(kind, ct, fp)
	if err != nil {
		return nil, err
	}
	return &primitiveConverter{col: col, presenceDef: presenceDef, decode: decode}, nil
}

// decodeFunc builds the per-value decoder for one (user kind, column
// type) pairing, applying the C7 codec conversions (spec §4.7) and the
// checked narrowing conversions the compatibility oracle admits.
func decodeFunc(kind Kind, ct ColumnType, fp FieldPath) (func(parquet.Value) (any, error), error) {
	switch kind.Tag() {
	case TagBoolean:
		return func(v parquet.Value) (any, error) { return v.Boolean(), nil }, nil

	case TagByte:
		return func(v parquet.Value) (any, error) { return int8(v.Int32()), nil }, nil

	case TagShort:
		if ct.Physical == PInt64 {
			return func(v parquet.Value) (any, error) {
				n := v.Int64()
				if n < -1<<15 || n > 1<<15-1 {
					return nil, &ReadError{Err: ErrIncompatibleType, Path: fp, ExpectedKind: TagShort}
				}
				return int16(n), nil
			}, nil
		}
		return func(v parquet.Value) (any, error) { return int16(v.Int32()), nil }, nil

	case TagInt:
		if ct.Physical == PInt64 {
			return func(v parquet.Value) (any, error) {
				n := v.Int64()
				if n < -1<<31 || n > 1<<31-1 {
					return nil, &ReadError{Err: ErrIncompatibleType, Path: fp, ExpectedKind: TagInt}
				}
				return int32(n), nil
			}, nil
		}
		return func(v parquet.Value) (any, error) { return v.Int32(), nil }, nil

	case TagLong:
		if ct.Physical == PInt32 {
			return func(v parquet.Value) (any, error) { return int64(v.Int32()), nil }, nil
		}
		return func(v parquet.Value) (any, error) { return v.Int64(), nil }, nil

	case TagFloat:
		switch ct.Physical {
		case PDouble:
			return func(v parquet.Value) (any, error) { return float32(v.Double()), nil }, nil
		case PInt32:
			return func(v parquet.Value) (any, error) { return float32(v.Int32()), nil }, nil
		}
		return func(v parquet.Value) (any, error) { return v.Float(), nil }, nil

	case TagDouble:
		switch ct.Physical {
		case PFloat:
			return func(v parquet.Value) (any, error) { return float64(v.Float()), nil }, nil
		case PInt32:
			return func(v parquet.Value) (any, error) { return float64(v.Int32()), nil }, nil
		}
		return func(v parquet.Value) (any, error) { return v.Double(), nil }, nil

	case TagString, TagEnum:
		if ct.Annotation == AnnoUUID {
			return func(v parquet.Value) (any, error) {
				s, err := codec.DecodeUUIDString(v.ByteArray())
				if err != nil {
					return nil, &ReadError{Err: err, Path: fp, ExpectedKind: kind.Tag()}
				}
				return s, nil
			}, nil
		}
		return func(v parquet.Value) (any, error) { return string(v.ByteArray()), nil }, nil

	case TagBinary, TagBSON, TagGeometry, TagGeography:
		return func(v parquet.Value) (any, error) {
			return append([]byte(nil), v.ByteArray()...), nil
		}, nil

	case TagJSON:
		if kind.JsonUnderlying() == TagBinary {
			return func(v parquet.Value) (any, error) {
				return append([]byte(nil), v.ByteArray()...), nil
			}, nil
		}
		return func(v parquet.Value) (any, error) { return string(v.ByteArray()), nil }, nil

	case TagUUID:
		return func(v parquet.Value) (any, error) {
			u, err := codec.DecodeUUID(v.ByteArray())
			if err != nil {
				return nil, &ReadError{Err: err, Path: fp, ExpectedKind: TagUUID}
			}
			return u, nil
		}, nil

	case TagDecimal:
		scale := ct.DecimalScale
		switch ct.Physical {
		case PInt32:
			return func(v parquet.Value) (any, error) { return codec.DecodeInt32(v.Int32(), scale), nil }, nil
		case PInt64:
			return func(v parquet.Value) (any, error) { return codec.DecodeInt64(v.Int64(), scale), nil }, nil
		default:
			return func(v parquet.Value) (any, error) { return codec.DecodeBinary(v.ByteArray(), scale), nil }, nil
		}

	case TagDate:
		return func(v parquet.Value) (any, error) { return codec.DecodeDate(v.Int32()), nil }, nil

	case TagTime:
		unit := toCodecUnit(ct.TimeUnit)
		int32Physical := ct.Physical == PInt32
		return func(v parquet.Value) (any, error) {
			var raw int64
			if int32Physical {
				raw = int64(v.Int32())
			} else {
				raw = v.Int64()
			}
			nanos := codec.DecodeTimeOfDay(raw, unit)
			return time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(nanos)), nil
		}, nil

	case TagDateTime:
		unit := toCodecUnit(ct.TimeUnit)
		return func(v parquet.Value) (any, error) { return codec.DecodeLocalDateTime(v.Int64(), unit), nil }, nil

	case TagInstant:
		unit := toCodecUnit(ct.TimeUnit)
		return func(v parquet.Value) (any, error) { return codec.DecodeInstant(v.Int64(), unit), nil }, nil

	default:
		return nil, &InternalError{Detail: "decodeFunc: unexpected kind " + kind.Tag().String()}
	}
}
