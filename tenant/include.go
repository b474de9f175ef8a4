package tenant

import (
	"fmt"
	"strings"
)

// IncludeKind is the closed set of document decorations. Unrecognized
// include names are rejected rather than falling through to a blob fetch.
type IncludeKind int

const (
	INCLUDE_WORKFLOW IncludeKind = iota
	INCLUDE_TRANSITIONS
	INCLUDE_VALUES
	INCLUDE_PART
	INCLUDE_PARTS
)

type Include struct {
	Kind IncludeKind
	// Name is the part name for INCLUDE_PART and the part prefix for
	// INCLUDE_PARTS.
	Name string
}

func (in Include) String() string {
	switch in.Kind {
	case INCLUDE_WORKFLOW:
		return "workflow"
	case INCLUDE_TRANSITIONS:
		return "transitions"
	case INCLUDE_VALUES:
		return "values"
	case INCLUDE_PART:
		return "part:" + in.Name
	default:
		return "parts:" + in.Name + "*"
	}
}

func ParseInclude(raw string) (Include, error) {
	switch {
	case raw == "workflow":
		return Include{Kind: INCLUDE_WORKFLOW}, nil
	case raw == "transitions":
		return Include{Kind: INCLUDE_TRANSITIONS}, nil
	case raw == "values":
		return Include{Kind: INCLUDE_VALUES}, nil
	case strings.HasPrefix(raw, "part:"):
		name := strings.TrimPrefix(raw, "part:")
		if name == "" {
			return Include{}, fmt.Errorf("include part has no name")
		}
		return Include{Kind: INCLUDE_PART, Name: name}, nil
	case strings.HasPrefix(raw, "parts:"):
		prefix := strings.TrimSuffix(strings.TrimPrefix(raw, "parts:"), "*")
		return Include{Kind: INCLUDE_PARTS, Name: prefix}, nil
	}
	return Include{}, fmt.Errorf("unrecognized include %q", raw)
}

func ParseIncludes(raw []string) ([]Include, error) {
	includes := make([]Include, 0, len(raw))
	for _, r := range raw {
		include, err := ParseInclude(r)
		if err != nil {
			return nil, err
		}
		includes = append(includes, include)
	}
	return includes, nil
}
