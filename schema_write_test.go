package carpet

import (
	"errors"
	"strings"
	"testing"
)

func mustModel(t *testing.T, root Kind, err error) *Model {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
	model, err := BuildModel(root)
	if err != nil {
		t.Fatal(err)
	}
	return model
}

func TestBuildSchemaSimpleRecord(t *testing.T) {
	root, err := NewRecord("SimpleRecord").
		Field("id", Long().NotNull(), nil).
		Field("name", String().Nullable(), nil).
		Build()
	model := mustModel(t, root, err)
	schema, err := BuildSchema(model, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := `message SimpleRecord {
	required int64 id;
	optional binary name (STRING);
}`
	if got := schema.String(); got != want {
		t.Errorf("schema mismatch:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildSchemaThreeLevelListOfRecords(t *testing.T) {
	child, err := NewRecord("ChildRecord").
		Field("id", String().Nullable(), nil).
		Field("loaded", Boolean().Nullable(), nil).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	root, err := NewRecord("NestedRecordCollection").
		Field("id", String().Nullable(), nil).
		Field("values", List(child, true).Nullable(), nil).
		Build()
	model := mustModel(t, root, err)
	schema, err := BuildSchema(model, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := `message NestedRecordCollection {
	optional binary id (STRING);
	optional group values (LIST) {
		repeated group list {
			optional group element {
				optional binary id (STRING);
				optional boolean loaded;
			}
		}
	}
}`
	if got := schema.String(); got != want {
		t.Errorf("schema mismatch:\n%s\nwant:\n%s", got, want)
	}
}

func TestBuildSchemaPrimitives(t *testing.T) {
	root, err := NewRecord("Primitives").
		Field("b", Byte().NotNull(), nil).
		Field("s", Short().NotNull(), nil).
		Field("i", Int().NotNull(), nil).
		Field("l", Long().NotNull(), nil).
		Field("f", Float().NotNull(), nil).
		Field("d", Double().NotNull(), nil).
		Field("ok", Boolean().NotNull(), nil).
		Field("u", Uuid().NotNull(), nil).
		Field("raw", Binary().NotNull(), nil).
		Build()
	model := mustModel(t, root, err)
	schema, err := BuildSchema(model, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := schema.String()
	for _, fragment := range []string{
		"required int32 b (INT(8,true));",
		"required int32 s (INT(16,true));",
		"required int32 i;",
		"required int64 l;",
		"required float f;",
		"required double d;",
		"required boolean ok;",
		"required fixed_len_byte_array(16) u (UUID);",
		"required binary raw;",
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("schema missing %q:\n%s", fragment, got)
		}
	}
}

func TestBuildSchemaDecimalPhysicalByPrecision(t *testing.T) {
	tests := []struct {
		precision int
		fragment  string
	}{
		{9, "optional int32 d (DECIMAL(9,2));"},
		{10, "optional int64 d (DECIMAL(10,2));"},
		{18, "optional int64 d (DECIMAL(18,2));"},
		{19, "optional binary d (DECIMAL(19,2));"},
	}
	for _, test := range tests {
		root, err := NewRecord("R").
			Field("d", BigDecimal().WithPrecisionScale(test.precision, 2).Nullable(), nil).
			Build()
		model := mustModel(t, root, err)
		schema, err := BuildSchema(model, nil)
		if err != nil {
			t.Fatal(err)
		}
		if got := schema.String(); !strings.Contains(got, test.fragment) {
			t.Errorf("precision %d: missing %q in\n%s", test.precision, test.fragment, got)
		}
	}
}

func TestBuildSchemaDecimalDefaultFromConfig(t *testing.T) {
	root, err := NewRecord("R").Field("d", BigDecimal().Nullable(), nil).Build()
	model := mustModel(t, root, err)

	if _, err := BuildSchema(model, nil); err == nil {
		t.Fatal("decimal without precision and without default must fail")
	} else {
		var sde *SchemaDerivationError
		if !errors.As(err, &sde) || sde.Kind != MissingDecimalDefault {
			t.Fatalf("expected MissingDecimalDefault, got %v", err)
		}
	}

	cfg := DefaultConfig().Apply(WithDecimalDefault(20, 4))
	schema, err := BuildSchema(model, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := schema.String(); !strings.Contains(got, "optional binary d (DECIMAL(20,4));") {
		t.Errorf("default decimal schema:\n%s", got)
	}
}

func TestBuildSchemaTemporal(t *testing.T) {
	root, err := NewRecord("Temporal").
		Field("day", LocalDate().NotNull(), nil).
		Field("tod", LocalTime(Millisecond).NotNull(), nil).
		Field("todMicros", LocalTime(Microsecond).NotNull(), nil).
		Field("naive", LocalDateTime(Microsecond).NotNull(), nil).
		Field("at", Instant(Millisecond).NotNull(), nil).
		Build()
	model := mustModel(t, root, err)
	schema, err := BuildSchema(model, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := schema.String()
	for _, fragment := range []string{
		"required int32 day (DATE);",
		"required int32 tod (TIME(isAdjustedToUTC=true,unit=MILLIS));",
		"required int64 todMicros (TIME(isAdjustedToUTC=true,unit=MICROS));",
		"required int64 naive (TIMESTAMP(isAdjustedToUTC=false,unit=MICROS));",
		"required int64 at (TIMESTAMP(isAdjustedToUTC=true,unit=MILLIS));",
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("schema missing %q:\n%s", fragment, got)
		}
	}
}

func TestBuildSchemaMapOfDecimals(t *testing.T) {
	inner := Map(BigDecimal(), BigDecimal(), true)
	root, err := NewRecord("M").
		Field("m", Map(BigDecimal(), inner, true).Nullable(), nil).
		Build()
	model := mustModel(t, root, err)
	cfg := DefaultConfig().Apply(WithDecimalDefault(20, 4))
	schema, err := BuildSchema(model, cfg)
	if err != nil {
		t.Fatal(err)
	}
	got := schema.String()
	if !strings.Contains(got, "required binary key (DECIMAL(20,4));") {
		t.Errorf("map keys must be required decimals:\n%s", got)
	}
	if !strings.Contains(got, "(MAP)") || !strings.Contains(got, "repeated group key_value {") {
		t.Errorf("map convention shape:\n%s", got)
	}
}

func TestBuildSchemaOneLevelListOfListRejected(t *testing.T) {
	root, err := NewRecord("R").
		Field("xs", List(List(Long(), false), false).Nullable(), nil).
		Build()
	model := mustModel(t, root, err)
	cfg := DefaultConfig().Apply(WithAnnotatedLevels(OneLevel))
	_, err = BuildSchema(model, cfg)
	var sde *SchemaDerivationError
	if !errors.As(err, &sde) || sde.Kind != AmbiguousListLevelOne {
		t.Fatalf("expected AmbiguousListLevelOne, got %v", err)
	}
}

func TestBuildSchemaListEncodings(t *testing.T) {
	root, err := NewRecord("R").
		Field("xs", List(Long(), false).Nullable(), nil).
		Build()
	model := mustModel(t, root, err)

	schema, err := BuildSchema(model, DefaultConfig().Apply(WithAnnotatedLevels(OneLevel)))
	if err != nil {
		t.Fatal(err)
	}
	if got := schema.String(); !strings.Contains(got, "repeated int64 xs;") {
		t.Errorf("one-level shape:\n%s", got)
	}

	schema, err = BuildSchema(model, DefaultConfig().Apply(WithAnnotatedLevels(TwoLevel)))
	if err != nil {
		t.Fatal(err)
	}
	got := schema.String()
	if !strings.Contains(got, "(LIST)") || !strings.Contains(got, "repeated int64 element;") {
		t.Errorf("two-level shape:\n%s", got)
	}

	schema, err = BuildSchema(model, DefaultConfig().Apply(WithAnnotatedLevels(ThreeLevel)))
	if err != nil {
		t.Fatal(err)
	}
	got = schema.String()
	if !strings.Contains(got, "repeated group list {") || !strings.Contains(got, "required int64 element;") {
		t.Errorf("three-level shape:\n%s", got)
	}
}

func TestBuildSchemaSnakeCaseNaming(t *testing.T) {
	root, err := NewRecord("R").
		Field("operationName", String().Nullable(), nil).
		Build()
	model := mustModel(t, root, err)
	cfg := DefaultConfig().Apply(WithColumnNaming(SnakeCase))
	schema, err := BuildSchema(model, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := schema.String(); !strings.Contains(got, "optional binary operation_name (STRING);") {
		t.Errorf("snake-case naming:\n%s", got)
	}
}

func TestBuildSchemaFieldIDs(t *testing.T) {
	root, err := NewRecord("R").
		FieldWithID("a", Long().NotNull(), 1, nil).
		FieldWithID("b", String().Nullable(), 2, nil).
		Build()
	model := mustModel(t, root, err)
	schema, err := BuildSchema(model, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := schema.String()
	for _, fragment := range []string{
		"required int64 a = 1;",
		"optional binary b (STRING) = 2;",
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("schema missing %q:\n%s", fragment, got)
		}
	}
}

func TestBuildSchemaVariantGroup(t *testing.T) {
	root, err := NewRecord("R").
		Field("v", Variant().Nullable(), nil).
		Build()
	model := mustModel(t, root, err)
	schema, err := BuildSchema(model, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := schema.String()
	if !strings.Contains(got, "optional group v (VARIANT) {") {
		t.Errorf("variant group annotation:\n%s", got)
	}
	if !strings.Contains(got, "required binary metadata;") || !strings.Contains(got, "required binary value;") {
		t.Errorf("variant children:\n%s", got)
	}
}

