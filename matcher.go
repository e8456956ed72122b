package carpet

// Binding records which file column (if any) feeds a given user field,
// the outcome of the Column-to-Field Matcher (C6) for one field in one
// group scope.
type Binding struct {
	FieldIndex int
	ColumnName string
	Bound      bool
}

// Aliases maps a field's declared name to an explicit alias consulted by
// the EXPLICIT_ALIAS and BEST_EFFORT strategies (spec §4.6).
type Aliases map[string]string

// MatchFields resolves which column (if any) feeds each field in fields
// against the column names available in one file group, per spec §4.6:
// strategies are tried in priority order, first hit wins, and a column is
// consumed by at most one field. Fields are processed in declaration
// order, matching the spec's "for each record field... on first hit,
// record the binding and do not reconsider".
func MatchFields(fields []Field, aliases Aliases, available []string, strategy NamingStrategy) []Binding {
	remaining := make(map[string]bool, len(available))
	for _, c := range available {
		remaining[c] = true
	}

	bindings := make([]Binding, len(fields))
	for i, f := range fields {
		bindings[i] = Binding{FieldIndex: i}
		alias, hasAlias := aliases[f.Name]
		name, ok := matchColumn(f.Name, alias, hasAlias, remaining, strategy)
		if !ok {
			continue
		}
		remaining[name] = false
		bindings[i].ColumnName = name
		bindings[i].Bound = true
	}
	return bindings
}

func matchColumn(fieldName, alias string, hasAlias bool, available map[string]bool, strategy NamingStrategy) (string, bool) {
	tryName := func(name string) (string, bool) {
		if name == "" {
			return "", false
		}
		if available[name] {
			return name, true
		}
		return "", false
	}

	switch strategy {
	case ExplicitAlias:
		if !hasAlias {
			return "", false
		}
		return tryName(alias)

	case FieldName:
		return tryName(fieldName)

	case SnakeCase:
		return tryName(toSnakeCase(fieldName))

	case BestEffort:
		if hasAlias {
			if name, ok := tryName(alias); ok {
				return name, true
			}
		}
		if name, ok := tryName(fieldName); ok {
			return name, true
		}
		return tryName(toSnakeCase(fieldName))

	default:
		return "", false
	}
}
