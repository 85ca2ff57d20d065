package normalize

import "strings"

// Path is a sequence of object keys into a decoded JSON document.
type Path []string

// P builds a Path from a dotted string.
func P(dotted string) Path {
	return strings.Split(dotted, ".")
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

// Lookup walks doc along path. It reports false when any step is missing,
// null, or not an object.
func Lookup(doc map[string]any, path Path) (any, bool) {
	var cur any = doc
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[key]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}
