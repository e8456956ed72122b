package carpet

import "testing"

func matchOne(t *testing.T, fieldName string, aliases Aliases, available []string, strategy NamingStrategy) Binding {
	t.Helper()
	fields := []Field{{Name: fieldName, Kind: String()}}
	bindings := MatchFields(fields, aliases, available, strategy)
	return bindings[0]
}

func TestMatchFieldsStrategies(t *testing.T) {
	available := []string{"operation_name", "operationName", "legacy"}

	b := matchOne(t, "operationName", nil, available, FieldName)
	if !b.Bound || b.ColumnName != "operationName" {
		t.Errorf("FieldName: %+v", b)
	}

	b = matchOne(t, "operationName", nil, available, SnakeCase)
	if !b.Bound || b.ColumnName != "operation_name" {
		t.Errorf("SnakeCase: %+v", b)
	}

	b = matchOne(t, "operationName", Aliases{"operationName": "legacy"}, available, ExplicitAlias)
	if !b.Bound || b.ColumnName != "legacy" {
		t.Errorf("ExplicitAlias: %+v", b)
	}

	b = matchOne(t, "operationName", nil, available, ExplicitAlias)
	if b.Bound {
		t.Errorf("ExplicitAlias without alias must not bind: %+v", b)
	}
}

func TestMatchFieldsBestEffortPriority(t *testing.T) {
	// Alias wins over exact name, exact name wins over snake_case.
	b := matchOne(t, "operationName", Aliases{"operationName": "legacy"},
		[]string{"operation_name", "operationName", "legacy"}, BestEffort)
	if b.ColumnName != "legacy" {
		t.Errorf("alias priority: %+v", b)
	}
	b = matchOne(t, "operationName", nil,
		[]string{"operation_name", "operationName"}, BestEffort)
	if b.ColumnName != "operationName" {
		t.Errorf("exact-name priority: %+v", b)
	}
	b = matchOne(t, "operationName", nil, []string{"operation_name"}, BestEffort)
	if b.ColumnName != "operation_name" {
		t.Errorf("snake-case fallback: %+v", b)
	}
	b = matchOne(t, "operationName", nil, []string{"unrelated"}, BestEffort)
	if b.Bound {
		t.Errorf("no match must stay unbound: %+v", b)
	}
}

func TestMatchFieldsConsumesColumnOnce(t *testing.T) {
	fields := []Field{
		{Name: "name", Kind: String()},
		{Name: "Name", Kind: String()},
	}
	bindings := MatchFields(fields, nil, []string{"name"}, BestEffort)
	if !bindings[0].Bound || bindings[0].ColumnName != "name" {
		t.Errorf("first field: %+v", bindings[0])
	}
	if bindings[1].Bound {
		t.Errorf("column consumed twice: %+v", bindings[1])
	}
}

func TestSnakeCaseReadMatching(t *testing.T) {
	// Spec §8 scenario 6: file column operation_name, field operationName.
	b := matchOne(t, "operationName", nil, []string{"operation_name"}, BestEffort)
	if !b.Bound {
		t.Error("BEST_EFFORT must bind operationName to operation_name")
	}
	b = matchOne(t, "operationName", nil, []string{"operation_name"}, FieldName)
	if b.Bound {
		t.Error("FIELD_NAME must fail-soft to absent")
	}
}
