package carpet

import "github.com/parquet-go/parquet-go"

// leafColumn is one flattened leaf of a schema tree, in the canonical
// left-to-right order the underlying engine assigns column indexes in
// (spec §5 "within a row, fields are delivered by column index as
// declared in the projected schema"). We never invent our own ordering:
// Node.Fields() is trusted to already return the engine's own canonical
// child order, so flattening it depth-first reproduces exactly the
// column index the engine itself uses.
type leafColumn struct {
	Path  []string
	Node  parquet.Node
	Index int
}

// flattenLeaves walks root depth-first, in Node.Fields() order, and
// assigns sequential column indexes to every leaf node it finds.
func flattenLeaves(root parquet.Node) []leafColumn {
	var out []leafColumn
	var walk func(n parquet.Node, path []string)
	walk = func(n parquet.Node, path []string) {
		if n.Leaf() {
			out = append(out, leafColumn{
				Path:  append([]string(nil), path...),
				Node:  n,
				Index: len(out),
			})
			return
		}
		for _, f := range n.Fields() {
			walk(f, append(path, f.Name()))
		}
	}
	walk(root, nil)
	return out
}

// appendPath returns path with seg appended, never aliasing path's
// backing array (callers branch recursively over the same path prefix).
func appendPath(path []string, seg string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}

func pathHasPrefix(full, prefix []string) bool {
	if len(full) < len(prefix) {
		return false
	}
	for i, s := range prefix {
		if full[i] != s {
			return false
		}
	}
	return true
}

// listElementPath returns the column path of a list kind's element,
// relative to the list field's own path, for the given list encoding
// convention (spec §4.2/§4.4). Both the write dispatcher and the read
// materializer use this so their column paths agree on the exact wire
// shape without re-deriving it independently.
func listElementPath(path []string, levels AnnotatedLevels) []string {
	switch levels {
	case OneLevel:
		return path
	case TwoLevel:
		return appendPath(path, "element")
	default: // ThreeLevel
		return appendPath(appendPath(path, "list"), "element")
	}
}

func mapKeyValuePath(path []string) []string { return appendPath(path, "key_value") }
func mapKeyPath(path []string) []string      { return appendPath(mapKeyValuePath(path), "key") }
func mapValuePath(path []string) []string    { return appendPath(mapKeyValuePath(path), "value") }
