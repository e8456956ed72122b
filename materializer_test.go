package carpet

import (
	"errors"
	"reflect"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func projectAndMaterialize(t *testing.T, model *Model, file *parquet.Schema, cfg *Config) *Materializer {
	t.Helper()
	plan, errs := ProjectSchema(model, file, nil, cfg)
	if len(errs) > 0 {
		t.Fatalf("projection errors: %v", errs)
	}
	mat, err := NewMaterializer(plan, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return mat
}

func TestMaterializeSimpleRow(t *testing.T) {
	root, err := NewRecord("SimpleRecord").
		Field("id", Long().NotNull(), nil).
		Field("name", String().Nullable(), nil).
		Build()
	model := mustModel(t, root, err)
	file, err := BuildSchema(model, nil)
	if err != nil {
		t.Fatal(err)
	}
	mat := projectAndMaterialize(t, model, file, nil)

	row := parquet.Row{
		parquet.ValueOf(int64(7)).Level(0, 0, 0),
		parquet.ValueOf("Alice").Level(0, 1, 1),
	}
	rec, err := mat.Materialize(row)
	if err != nil {
		t.Fatal(err)
	}
	got := rec.(map[string]any)
	if got["id"] != int64(7) || got["name"] != "Alice" {
		t.Errorf("materialized %v", got)
	}

	row = parquet.Row{
		parquet.ValueOf(int64(11)).Level(0, 0, 0),
		parquet.NullValue().Level(0, 0, 1),
	}
	rec, err = mat.Materialize(row)
	if err != nil {
		t.Fatal(err)
	}
	got = rec.(map[string]any)
	if got["id"] != int64(11) || got["name"] != nil {
		t.Errorf("null preservation: %v", got)
	}
}

func TestMaterializeThreeLevelItemGrandchild(t *testing.T) {
	// The format's historical convention also allows "item" as the
	// grandchild name under a repeated group named "list".
	file := parquet.NewSchema("F", parquet.Group{
		"xs": parquet.Optional(newListGroup(parquet.Group{
			"list": parquet.Repeated(parquet.Group{
				"item": parquet.Optional(parquet.Leaf(parquet.Int64Type)),
			}),
		})),
	})
	root, err := NewRecord("F").
		Field("xs", List(Long(), true).Nullable(), nil).
		Build()
	model := mustModel(t, root, err)
	mat := projectAndMaterialize(t, model, file, nil)

	row := parquet.Row{
		parquet.ValueOf(int64(1)).Level(0, 3, 0),
		parquet.NullValue().Level(1, 2, 0),
		parquet.ValueOf(int64(3)).Level(1, 3, 0),
	}
	rec, err := mat.Materialize(row)
	if err != nil {
		t.Fatal(err)
	}
	got := rec.(map[string]any)["xs"]
	if !reflect.DeepEqual(got, []any{int64(1), nil, int64(3)}) {
		t.Errorf("materialized list %#v", got)
	}
}

func TestMaterializeArrayWrapperNotThreeLevel(t *testing.T) {
	// "array"-named wrappers are not recognized as the three-level
	// convention; the wrapper group is then taken as the element itself,
	// which cannot feed a Long element.
	file := parquet.NewSchema("F", parquet.Group{
		"xs": parquet.Optional(newListGroup(parquet.Group{
			"array": parquet.Repeated(parquet.Group{
				"element": parquet.Optional(parquet.Leaf(parquet.Int64Type)),
			}),
		})),
	})
	root, err := NewRecord("F").
		Field("xs", List(Long(), true).Nullable(), nil).
		Build()
	model := mustModel(t, root, err)
	plan, errs := ProjectSchema(model, file, nil, nil)
	if len(errs) > 0 {
		t.Fatalf("projection errors: %v", errs)
	}
	if _, err := NewMaterializer(plan, nil); !errors.Is(err, ErrIncompatibleType) {
		t.Fatalf("expected IncompatibleType for array wrapper, got %v", err)
	}
}

func TestMaterializeMapAsRecordShortcut(t *testing.T) {
	// A generic mapping bound to a plain record group yields a
	// dictionary keyed by field name, decoded by column annotations.
	file := parquet.NewSchema("F", parquet.Group{
		"props": parquet.Optional(parquet.Group{
			"a": parquet.Optional(parquet.String()),
			"b": parquet.Optional(parquet.Leaf(parquet.Int32Type)),
		}),
	})
	root, err := NewRecord("F").
		Field("props", Map(String(), Binary(), true).Nullable(), nil).
		Build()
	model := mustModel(t, root, err)
	mat := projectAndMaterialize(t, model, file, nil)

	row := parquet.Row{
		parquet.ValueOf("x").Level(0, 2, 0),
		parquet.ValueOf(int32(5)).Level(0, 2, 1),
	}
	rec, err := mat.Materialize(row)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := rec.(map[string]any)["props"].(map[string]any)
	if !ok {
		t.Fatalf("props type %T", rec.(map[string]any)["props"])
	}
	if got["a"] != "x" || got["b"] != int32(5) {
		t.Errorf("dictionary %v", got)
	}
}

func TestMaterializeSingleLevelRepeated(t *testing.T) {
	// Legacy encoding: repeated column with no LIST annotation.
	file := parquet.NewSchema("F", parquet.Group{
		"tags": parquet.Repeated(parquet.String()),
	})
	root, err := NewRecord("F").
		Field("tags", List(String(), false).Nullable(), nil).
		Build()
	model := mustModel(t, root, err)
	mat := projectAndMaterialize(t, model, file, nil)

	row := parquet.Row{
		parquet.ValueOf("a").Level(0, 1, 0),
		parquet.ValueOf("b").Level(1, 1, 0),
	}
	rec, err := mat.Materialize(row)
	if err != nil {
		t.Fatal(err)
	}
	if got := rec.(map[string]any)["tags"]; !reflect.DeepEqual(got, []any{"a", "b"}) {
		t.Errorf("tags %#v", got)
	}

	// Zero occurrences: the collection is never initialized.
	row = parquet.Row{parquet.NullValue().Level(0, 0, 0)}
	rec, err = mat.Materialize(row)
	if err != nil {
		t.Fatal(err)
	}
	if got := rec.(map[string]any)["tags"]; got != nil {
		t.Errorf("lazy init must keep absent list null, got %#v", got)
	}
}

func TestMaterializeUnboundFileColumnsInsideList(t *testing.T) {
	// The file's element group carries a column the model does not
	// declare; its values must be drained without desyncing siblings.
	file := parquet.NewSchema("F", parquet.Group{
		"values": parquet.Optional(newListGroup(parquet.Group{
			"list": parquet.Repeated(parquet.Group{
				"element": parquet.Optional(parquet.Group{
					"id":    parquet.Optional(parquet.String()),
					"extra": parquet.Optional(parquet.Leaf(parquet.Int32Type)),
				}),
			}),
		})),
	})
	child, err := NewRecord("Child").
		Field("id", String().Nullable(), nil).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	root, err := NewRecord("F").
		Field("values", List(child, true).Nullable(), nil).
		Build()
	model := mustModel(t, root, err)
	mat := projectAndMaterialize(t, model, file, nil)

	// Columns: values.list.element.extra=0, values.list.element.id=1.
	row := parquet.Row{
		parquet.ValueOf(int32(10)).Level(0, 4, 0),
		parquet.ValueOf(int32(20)).Level(1, 4, 0),
		parquet.ValueOf("a").Level(0, 4, 1),
		parquet.ValueOf("b").Level(1, 4, 1),
	}
	rec, err := mat.Materialize(row)
	if err != nil {
		t.Fatal(err)
	}
	values, ok := rec.(map[string]any)["values"].([]any)
	if !ok || len(values) != 2 {
		t.Fatalf("values %#v", rec)
	}
	first := values[0].(map[string]any)
	second := values[1].(map[string]any)
	if first["id"] != "a" || second["id"] != "b" {
		t.Errorf("elements %v, %v", first, second)
	}
}
