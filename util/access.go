package util

import (
	"strings"

	"github.com/oliveagle/jsonpath"
)

// Access reads a dotted path out of a document-shaped map. Single-segment
// paths are a direct key lookup; compound paths go through jsonpath.
// Returns (nil, false) when the path resolves to nothing.
func Access(data map[string]any, path string) (any, bool) {
	if path == "" || data == nil {
		return nil, false
	}
	if !strings.Contains(path, ".") {
		value, ok := data[path]
		if !ok || value == nil {
			return nil, false
		}
		return value, true
	}
	value, err := jsonpath.JsonPathLookup(data, "$."+path)
	if err != nil || value == nil {
		return nil, false
	}
	return value, true
}
