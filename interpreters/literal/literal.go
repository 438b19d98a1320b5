// Package literal provides an interpreter whose expressions are
// their own values.
package literal

import (
	"context"

	"github.com/Comcast/treetags/core"
)

// Interpreter is a core.Interpreter that returns the source without
// evaluating anything.
//
// Useful for attributes that happen to look like expressions.
type Interpreter struct {
	// Copy, if true, returns a deep copy of the source, so a tag
	// that modifies the value won't modify the template.
	Copy bool
}

func (i *Interpreter) Compile(ctx context.Context, code interface{}) (interface{}, error) {
	return nil, nil
}

func (i *Interpreter) Eval(ctx context.Context, bs core.Bindings, code interface{}, compiled interface{}) (interface{}, error) {
	if i.Copy {
		return core.Canonicalize(code)
	}
	return code, nil
}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}
