/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import (
	"context"
	"math"
	"strconv"
	"strings"
)

// Interpreter can evaluate attribute expressions.
type Interpreter interface {
	// Compile can make something that helps when Eval()ing the
	// code.  Whatever it returns is passed back to Eval.
	Compile(ctx context.Context, code interface{}) (interface{}, error)

	// Eval evaluates the code with the given bindings.  Refs in
	// the bindings have already been resolved.
	Eval(ctx context.Context, bs Bindings, code interface{}, compiled interface{}) (interface{}, error)
}

// InterpretersMap maps interpreter names to Interpreters.
type InterpretersMap map[string]Interpreter

func NewInterpretersMap() InterpretersMap {
	return make(InterpretersMap)
}

// Find returns the named Interpreter, if any.
func (m InterpretersMap) Find(name string) (Interpreter, bool) {
	i, have := m[name]
	return i, have
}

// DefaultInterpreters is used when Attribute.Compile gets no
// interpreters.  Empty here; see package interpreters.
var DefaultInterpreters = InterpretersMap{}

// Attribute is a tag attribute.
//
// An Attribute is a literal value, a Go function, or source code for
// an Interpreter.  Use Literal, Func or Expr to make one.
type Attribute struct {
	Name string `json:"name"`

	// Interpreter names the interpreter for Source.
	Interpreter string      `json:"interpreter,omitempty" yaml:",omitempty"`
	Source      interface{} `json:"source,omitempty" yaml:",omitempty"`

	// F, when not nil, computes the value.
	F func(ctx context.Context, bs Bindings) (interface{}, error) `json:"-" yaml:"-"`

	literal  interface{}
	isExpr   bool
	interp   Interpreter
	compiled interface{}
}

// Literal makes an Attribute with a constant value.
func Literal(name string, v interface{}) *Attribute {
	return &Attribute{
		Name:    name,
		literal: v,
	}
}

// Func makes an Attribute computed by a Go function.
func Func(name string, f func(ctx context.Context, bs Bindings) (interface{}, error)) *Attribute {
	return &Attribute{
		Name: name,
		F:    f,
	}
}

// Expr makes an Attribute from source code for the named
// interpreter.  The Attribute must be Compiled before use.
func Expr(name, interpreter string, src interface{}) *Attribute {
	return &Attribute{
		Name:        name,
		Interpreter: interpreter,
		Source:      src,
		isExpr:      true,
	}
}

// IsExpr reports whether the Attribute is evaluated by an
// Interpreter.
func (a *Attribute) IsExpr() bool {
	return a != nil && a.isExpr
}

// Compile prepares an expression Attribute.  Other Attributes are
// left alone.
func (a *Attribute) Compile(ctx context.Context, interpreters InterpretersMap) error {
	if a == nil || !a.isExpr {
		return nil
	}
	if interpreters == nil {
		interpreters = DefaultInterpreters
	}
	interp, have := interpreters.Find(a.Interpreter)
	if !have {
		return InterpreterNotFound
	}
	x, err := interp.Compile(ctx, a.Source)
	if err != nil {
		return err
	}
	a.interp = interp
	a.compiled = x
	return nil
}

// Eval computes the value with the given bindings.
func (a *Attribute) Eval(ctx context.Context, bs Bindings) (interface{}, error) {
	switch {
	case a.F != nil:
		return a.F(ctx, bs)
	case a.isExpr:
		if a.interp == nil {
			return nil, &UncompiledAttribute{Attr: a.Name}
		}
		resolved, err := bs.Resolve()
		if err != nil {
			return nil, err
		}
		return a.interp.Eval(ctx, resolved, a.Source, a.compiled)
	}
	return a.literal, nil
}

// Value computes the value with the build's current variables.
func (a *Attribute) Value(ctx context.Context, b *Build) (interface{}, error) {
	return a.Eval(ctx, b.Vars)
}

// Bool computes a boolean value.  Strings are parsed, and nil is
// false.
func (a *Attribute) Bool(ctx context.Context, b *Build) (bool, error) {
	x, err := a.Value(ctx, b)
	if err != nil {
		return false, err
	}
	switch vv := x.(type) {
	case nil:
		return false, nil
	case bool:
		return vv, nil
	case string:
		if vv == "" {
			return false, nil
		}
		t, err := strconv.ParseBool(strings.TrimSpace(vv))
		if err != nil {
			return false, &AttributeError{Attr: a.Name, Value: x, Msg: "not a boolean"}
		}
		return t, nil
	}
	return false, &AttributeError{Attr: a.Name, Value: x, Msg: "not a boolean"}
}

// Int computes an integer value.  Floats must be integral, and
// strings are parsed.
func (a *Attribute) Int(ctx context.Context, b *Build) (int, error) {
	x, err := a.Value(ctx, b)
	if err != nil {
		return 0, err
	}
	switch vv := x.(type) {
	case int:
		return vv, nil
	case int32:
		return int(vv), nil
	case int64:
		return int(vv), nil
	case float64:
		if vv == math.Trunc(vv) {
			return int(vv), nil
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(vv))
		if err == nil {
			return n, nil
		}
	}
	return 0, &AttributeError{Attr: a.Name, Value: x, Msg: "not an integer"}
}

// String computes a string value.
func (a *Attribute) String(ctx context.Context, b *Build) (string, error) {
	x, err := a.Value(ctx, b)
	if err != nil {
		return "", err
	}
	return Stringify(x), nil
}

// Attrs is a set of attributes by name.
type Attrs map[string]*Attribute

// Compile compiles every attribute.
func (as Attrs) Compile(ctx context.Context, interpreters InterpretersMap) error {
	for _, a := range as {
		if err := a.Compile(ctx, interpreters); err != nil {
			return err
		}
	}
	return nil
}
