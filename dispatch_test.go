package carpet

import (
	"errors"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func fieldOf(name string) Accessor {
	return func(record any) any { return record.(map[string]any)[name] }
}

func nestedCollectionModel(t *testing.T) *Model {
	t.Helper()
	child, err := NewRecord("ChildRecord").
		Field("id", String().Nullable(), fieldOf("id")).
		Field("loaded", Boolean().Nullable(), fieldOf("loaded")).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	root, err := NewRecord("NestedRecordCollection").
		Field("id", String().Nullable(), fieldOf("id")).
		Field("values", List(child, true).Nullable(), fieldOf("values")).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return mustModel(t, root, nil)
}

type levelExpectation struct {
	column int
	rep    int
	def    int
	isNull bool
}

func checkLevels(t *testing.T, row parquet.Row, want []levelExpectation) {
	t.Helper()
	if len(row) != len(want) {
		t.Fatalf("row has %d values, want %d: %v", len(row), len(want), row)
	}
	for i, w := range want {
		v := row[i]
		if v.Column() != w.column || v.RepetitionLevel() != w.rep || v.DefinitionLevel() != w.def || v.IsNull() != w.isNull {
			t.Errorf("value[%d]: col=%d rep=%d def=%d null=%v, want col=%d rep=%d def=%d null=%v",
				i, v.Column(), v.RepetitionLevel(), v.DefinitionLevel(), v.IsNull(),
				w.column, w.rep, w.def, w.isNull)
		}
	}
}

func TestRowDispatchNestedList(t *testing.T) {
	model := nestedCollectionModel(t)
	schema, err := BuildSchema(model, nil)
	if err != nil {
		t.Fatal(err)
	}
	rc := NewRowConsumer(model, schema, nil)

	record := map[string]any{
		"id": "x",
		"values": []any{
			map[string]any{"id": "a", "loaded": true},
			nil,
			map[string]any{"id": "b", "loaded": false},
		},
	}
	row, err := rc.Row(record)
	if err != nil {
		t.Fatal(err)
	}
	// Columns (schema order): id=0, values.list.element.id=1,
	// values.list.element.loaded=2.
	checkLevels(t, row, []levelExpectation{
		{0, 0, 1, false}, // "x"
		{1, 0, 4, false}, // "a"
		{1, 1, 2, true},  // null element
		{1, 1, 4, false}, // "b"
		{2, 0, 4, false}, // true
		{2, 1, 2, true},  // null element
		{2, 1, 4, false}, // false
	})
}

func TestRowDispatchEmptyAndNullList(t *testing.T) {
	model := nestedCollectionModel(t)
	schema, err := BuildSchema(model, nil)
	if err != nil {
		t.Fatal(err)
	}
	rc := NewRowConsumer(model, schema, nil)

	row, err := rc.Row(map[string]any{"id": "x", "values": []any{}})
	if err != nil {
		t.Fatal(err)
	}
	checkLevels(t, row, []levelExpectation{
		{0, 0, 1, false},
		{1, 0, 1, true}, // list present, no entries
		{2, 0, 1, true},
	})

	row, err = rc.Row(map[string]any{"id": "x", "values": nil})
	if err != nil {
		t.Fatal(err)
	}
	checkLevels(t, row, []levelExpectation{
		{0, 0, 1, false},
		{1, 0, 0, true}, // list itself null
		{2, 0, 0, true},
	})
}

func TestRowDispatchRequiredNull(t *testing.T) {
	root, err := NewRecord("R").
		Field("id", Long().NotNull(), fieldOf("id")).
		Build()
	model := mustModel(t, root, err)
	schema, err := BuildSchema(model, nil)
	if err != nil {
		t.Fatal(err)
	}
	rc := NewRowConsumer(model, schema, nil)
	_, err = rc.Row(map[string]any{"id": nil})
	if !errors.Is(err, ErrRequiredFieldIsNull) {
		t.Fatalf("expected ErrRequiredFieldIsNull, got %v", err)
	}
	var we *WriteError
	if !errors.As(err, &we) || we.Path.String() != "id" {
		t.Errorf("error path: %v", err)
	}
}

func TestRowDispatchOptionalNullPrimitive(t *testing.T) {
	root, err := NewRecord("R").
		Field("id", Long().NotNull(), fieldOf("id")).
		Field("name", String().Nullable(), fieldOf("name")).
		Build()
	model := mustModel(t, root, err)
	schema, err := BuildSchema(model, nil)
	if err != nil {
		t.Fatal(err)
	}
	rc := NewRowConsumer(model, schema, nil)
	row, err := rc.Row(map[string]any{"id": int64(11), "name": nil})
	if err != nil {
		t.Fatal(err)
	}
	checkLevels(t, row, []levelExpectation{
		{0, 0, 0, false}, // required id
		{1, 0, 0, true},  // omitted optional name
	})
	if row[0].Int64() != 11 {
		t.Errorf("id value %v", row[0])
	}
}

func TestRowDispatchMapLevels(t *testing.T) {
	root, err := NewRecord("R").
		Field("labels", Map(String(), Long(), true).Nullable(), fieldOf("labels")).
		Build()
	model := mustModel(t, root, err)
	schema, err := BuildSchema(model, nil)
	if err != nil {
		t.Fatal(err)
	}
	rc := NewRowConsumer(model, schema, nil)

	row, err := rc.Row(map[string]any{"labels": map[string]any{"a": int64(1)}})
	if err != nil {
		t.Fatal(err)
	}
	// Columns: labels.key_value.key=0, labels.key_value.value=1.
	checkLevels(t, row, []levelExpectation{
		{0, 0, 2, false}, // key "a": map present(1) + entry(2)
		{1, 0, 3, false}, // value 1: + optional value(3)
	})

	row, err = rc.Row(map[string]any{"labels": map[string]any{}})
	if err != nil {
		t.Fatal(err)
	}
	checkLevels(t, row, []levelExpectation{
		{0, 0, 1, true},
		{1, 0, 1, true},
	})
}

func TestRowDispatchDecimalOverflow(t *testing.T) {
	root, err := NewRecord("R").
		Field("d", BigDecimal().WithPrecisionScale(4, 2).NotNull(), fieldOf("d")).
		Build()
	model := mustModel(t, root, err)
	schema, err := BuildSchema(model, nil)
	if err != nil {
		t.Fatal(err)
	}
	rc := NewRowConsumer(model, schema, nil)
	_, err = rc.Row(map[string]any{"d": mustDecimal(t, "123.45")})
	if !errors.Is(err, ErrDecimalOverflow) {
		t.Fatalf("expected ErrDecimalOverflow, got %v", err)
	}
}
