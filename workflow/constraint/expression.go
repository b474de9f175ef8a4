package constraint

import (
	"fmt"

	"github.com/dop251/goja"
)

func init() {
	register("expression", &expression{})
}

// expression evaluates a boolean JS expression with the document bound as
// `item`. A false result fails the constraint; an evaluation fault is a
// constraint failure too, since the document shape is user data.
type expression struct{}

func (c *expression) Evaluate(spec any, item map[string]any, fail FailFunc) error {
	src, ok := spec.(string)
	if !ok || src == "" {
		return fmt.Errorf("invalid expression specified: %v", spec)
	}
	vm := goja.New()
	if err := vm.Set("item", item); err != nil {
		return err
	}
	result, err := vm.RunString(src)
	if err != nil {
		fail(fmt.Sprintf("Expression could not be evaluated (%s)", src))
		return nil
	}
	if !result.ToBoolean() {
		fail(fmt.Sprintf("Expression evaluated to false (%s)", src))
	}
	return nil
}
