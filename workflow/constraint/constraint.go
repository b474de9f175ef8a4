package constraint

import (
	"fmt"
	"strings"
)

// FailFunc records a non-fatal validation failure against the transition
// under evaluation. Constraints that cannot evaluate call it with a
// descriptive reason instead of returning an error; errors are reserved
// for genuine programming or definition faults.
type FailFunc func(message string)

// Constraint decides whether a transition is currently allowed for a
// document. The document is presented as its JSON-shaped map so specs can
// address values by dotted path.
type Constraint interface {
	Evaluate(spec any, item map[string]any, fail FailFunc) error
}

var registry = map[string]Constraint{}

func register(name string, c Constraint) {
	registry[strings.ToLower(name)] = c
}

func Lookup(name string) (Constraint, bool) {
	c, ok := registry[strings.ToLower(name)]
	return c, ok
}

// ValidateNames is run at workflow-definition load time so an unsupported
// constraint fails the definition, not a later transition.
func ValidateNames(names map[string]any) error {
	for name := range names {
		if _, ok := Lookup(name); !ok {
			return fmt.Errorf("unknown constraint %s", name)
		}
	}
	return nil
}
