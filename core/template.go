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
	"fmt"
	"strings"
)

// DefaultInterpreter is the interpreter for "${...}" attributes when
// a Template doesn't name one.
var DefaultInterpreter = "ecmascript"

// Template is a description of a view.
//
// A Template must be Compiled before use.
type Template struct {
	// Name is the generic name for this view.
	Name string `json:"name,omitempty" yaml:",omitempty"`

	// Version is the version of this view.
	Version string `json:"version,omitempty" yaml:",omitempty"`

	// Doc is general documentation about the view.
	Doc string `json:"doc,omitempty" yaml:",omitempty"`

	// Interpreter is used for "${...}" attributes.  Defaults to
	// DefaultInterpreter.
	Interpreter string `json:"interpreter,omitempty" yaml:",omitempty"`

	// Root is the tree of tags.
	Root *TagSource `json:"root" yaml:"root"`

	// Handler is the compiled Root.
	Handler Handler `json:"-" yaml:"-"`
}

// TagSource is a tag as it appears in a Template.
//
// An attribute value can be a literal, a "${...}" string, or a map
// with "interpreter" and "source" properties.
type TagSource struct {
	Tag      string                 `json:"tag" yaml:"tag"`
	Doc      string                 `json:"doc,omitempty" yaml:",omitempty"`
	Attrs    map[string]interface{} `json:"attrs,omitempty" yaml:",omitempty"`
	Children []*TagSource           `json:"children,omitempty" yaml:",omitempty"`
}

// Walk calls f on the tag and its descendants, depth first.
func (s *TagSource) Walk(f func(s *TagSource, depth int) error) error {
	return s.walk(f, 0)
}

func (s *TagSource) walk(f func(s *TagSource, depth int) error, depth int) error {
	if err := f(s, depth); err != nil {
		return err
	}
	for _, c := range s.Children {
		if err := c.walk(f, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// DynamicTags are the tags that persist state.
var DynamicTags = map[string]bool{
	"if":      true,
	"choose":  true,
	"forEach": true,
}

// Dynamic reports whether the Template uses any control-flow tag
// that persists state.
func (t *Template) Dynamic() bool {
	if t.Root == nil {
		return false
	}
	return t.Root.Walk(func(s *TagSource, _ int) error {
		if DynamicTags[s.Tag] {
			return errFound
		}
		return nil
	}) != nil
}

// Compile builds the Handler for the Template.
//
// The interpreters default to DefaultInterpreters, and the tag
// library defaults to DefaultTagLibrary.
func (t *Template) Compile(ctx context.Context, interpreters InterpretersMap, lib TagLibrary) error {
	if t.Root == nil {
		return &ConfigError{Tag: t.Name, Msg: "template has no root"}
	}
	if interpreters == nil {
		interpreters = DefaultInterpreters
	}
	if lib == nil {
		lib = DefaultTagLibrary
	}
	interp := t.Interpreter
	if interp == "" {
		interp = DefaultInterpreter
	}
	c := &Compiler{
		Interpreters: interpreters,
		Library:      lib,
		Interpreter:  interp,
	}
	h, err := c.Compile(ctx, t.Root)
	if err != nil {
		return err
	}
	t.Handler = h
	return nil
}

// Apply builds the view under the given parent.
func (t *Template) Apply(ctx context.Context, b *Build, parent *Component) error {
	if t.Handler == nil {
		return &TemplateNotCompiled{Template: t}
	}
	return t.Handler.Apply(ctx, b, parent)
}

// TagFactory makes a Handler for a tag.
type TagFactory func(ctx context.Context, c *Compiler, src *TagSource) (Handler, error)

// TagLibrary maps tag names to factories.  A tag that isn't in the
// library is an element.
type TagLibrary map[string]TagFactory

// DefaultTagLibrary has the control-flow tags.
var DefaultTagLibrary = TagLibrary{
	"if":            compileIf,
	"choose":        compileChoose,
	"when":          misplaced("choose"),
	"otherwise":     misplaced("choose"),
	"forEach":       compileForEach,
	"legacyForEach": compileForEach,
	"set":           compileSet,
	"catch":         compileCatch,
	"text":          compileText,
}

// Compiler turns TagSources into Handlers.
type Compiler struct {
	Interpreters InterpretersMap
	Library      TagLibrary

	// Interpreter is the interpreter for "${...}" attributes.
	Interpreter string
}

// Compile compiles a tag and its children.
func (c *Compiler) Compile(ctx context.Context, src *TagSource) (Handler, error) {
	if src == nil {
		return Nothing, nil
	}
	if f, have := c.Library[src.Tag]; have {
		return f(ctx, c, src)
	}
	return c.element(ctx, src)
}

// Children compiles the children of a tag into one Handler.
func (c *Compiler) Children(ctx context.Context, src *TagSource) (Handler, error) {
	switch len(src.Children) {
	case 0:
		return nil, nil
	case 1:
		return c.Compile(ctx, src.Children[0])
	}
	hs := make(CompositeHandler, 0, len(src.Children))
	for _, child := range src.Children {
		h, err := c.Compile(ctx, child)
		if err != nil {
			return nil, err
		}
		hs = append(hs, h)
	}
	return hs, nil
}

// Attr compiles the named attribute.  Returns nil if the tag doesn't
// have the attribute.
func (c *Compiler) Attr(ctx context.Context, src *TagSource, name string) (*Attribute, error) {
	x, have := src.Attrs[name]
	if !have {
		return nil, nil
	}
	a := ParseAttribute(name, x, c.Interpreter)
	if err := a.Compile(ctx, c.Interpreters); err != nil {
		return nil, fmt.Errorf("tag %q attribute %q: %w", src.Tag, name, err)
	}
	return a, nil
}

// Name returns a literal string attribute, which is how variable
// names are given.
func (c *Compiler) Name(src *TagSource, name string) (string, error) {
	x, have := src.Attrs[name]
	if !have {
		return "", nil
	}
	s, is := x.(string)
	if !is || isExpr(s) {
		return "", &ConfigError{Tag: src.Tag, Attr: name, Msg: "must be a literal string"}
	}
	return s, nil
}

// Allow checks that the tag has no attributes other than the given
// ones.
func (c *Compiler) Allow(src *TagSource, names ...string) error {
	for name := range src.Attrs {
		found := false
		for _, n := range names {
			if n == name {
				found = true
				break
			}
		}
		if !found {
			return &ConfigError{Tag: src.Tag, Attr: name, Msg: "unknown attribute"}
		}
	}
	return nil
}

func isExpr(s string) bool {
	return strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}")
}

// ParseAttribute makes an Attribute from a template value.
//
// A "${...}" string is an expression for the given interpreter.  A
// map with a "source" property is an expression for the interpreter
// named by its "interpreter" property.  Anything else is a literal.
func ParseAttribute(name string, x interface{}, interpreter string) *Attribute {
	switch vv := x.(type) {
	case string:
		if isExpr(vv) {
			return Expr(name, interpreter, strings.TrimSpace(vv[2:len(vv)-1]))
		}
	case map[string]interface{}:
		if src, have := vv["source"]; have {
			if i, is := vv["interpreter"].(string); is && i != "" {
				interpreter = i
			}
			return Expr(name, interpreter, src)
		}
	case map[interface{}]interface{}:
		if src, have := vv["source"]; have {
			if i, is := vv["interpreter"].(string); is && i != "" {
				interpreter = i
			}
			return Expr(name, interpreter, src)
		}
	}
	return Literal(name, x)
}

func misplaced(parent string) TagFactory {
	return func(ctx context.Context, c *Compiler, src *TagSource) (Handler, error) {
		return nil, &ConfigError{Tag: src.Tag, Msg: "only allowed in " + parent}
	}
}

func (c *Compiler) element(ctx context.Context, src *TagSource) (Handler, error) {
	if src.Tag == "" {
		return nil, &ConfigError{Msg: "tag has no name"}
	}
	h := &ElementHandler{
		Name: src.Tag,
	}
	if 0 < len(src.Attrs) {
		h.Attrs = make(Attrs, len(src.Attrs))
		for name := range src.Attrs {
			a, err := c.Attr(ctx, src, name)
			if err != nil {
				return nil, err
			}
			h.Attrs[name] = a
		}
	}
	next, err := c.Children(ctx, src)
	if err != nil {
		return nil, err
	}
	h.Next = next
	return h, nil
}

func compileIf(ctx context.Context, c *Compiler, src *TagSource) (Handler, error) {
	if err := c.Allow(src, "test", "var"); err != nil {
		return nil, err
	}
	test, err := c.Attr(ctx, src, "test")
	if err != nil {
		return nil, err
	}
	v, err := c.Name(src, "var")
	if err != nil {
		return nil, err
	}
	next, err := c.Children(ctx, src)
	if err != nil {
		return nil, err
	}
	return NewIfHandler(test, v, next)
}

func compileChoose(ctx context.Context, c *Compiler, src *TagSource) (Handler, error) {
	if err := c.Allow(src); err != nil {
		return nil, err
	}
	var (
		whens     []*WhenHandler
		otherwise *OtherwiseHandler
	)
	for _, child := range src.Children {
		if otherwise != nil {
			return nil, &ConfigError{Tag: "choose", Msg: "otherwise must be last"}
		}
		switch child.Tag {
		case "when":
			if err := c.Allow(child, "test"); err != nil {
				return nil, err
			}
			test, err := c.Attr(ctx, child, "test")
			if err != nil {
				return nil, err
			}
			next, err := c.Children(ctx, child)
			if err != nil {
				return nil, err
			}
			whens = append(whens, &WhenHandler{
				Test: test,
				Next: next,
			})
		case "otherwise":
			if err := c.Allow(child); err != nil {
				return nil, err
			}
			next, err := c.Children(ctx, child)
			if err != nil {
				return nil, err
			}
			otherwise = &OtherwiseHandler{
				Next: next,
			}
		default:
			return nil, &ConfigError{Tag: "choose", Msg: "unexpected child " + child.Tag}
		}
	}
	return NewChooseHandler(whens, otherwise)
}

func compileForEach(ctx context.Context, c *Compiler, src *TagSource) (Handler, error) {
	if err := c.Allow(src, "items", "begin", "end", "step", "var", "varStatus", "transient"); err != nil {
		return nil, err
	}
	h := &ForEachHandler{
		Legacy: src.Tag == "legacyForEach",
	}
	var err error
	for name, p := range map[string]**Attribute{
		"items": &h.Items,
		"begin": &h.Begin,
		"end":   &h.End,
		"step":  &h.Step,
	} {
		if *p, err = c.Attr(ctx, src, name); err != nil {
			return nil, err
		}
	}
	if h.Var, err = c.Name(src, "var"); err != nil {
		return nil, err
	}
	if h.VarStatus, err = c.Name(src, "varStatus"); err != nil {
		return nil, err
	}
	switch vv := src.Attrs["transient"].(type) {
	case nil:
	case bool:
		h.Transient = vv
	default:
		return nil, &ConfigError{Tag: src.Tag, Attr: "transient", Msg: "must be a literal boolean"}
	}
	if err = h.Validate(); err != nil {
		return nil, err
	}
	if h.Next, err = c.Children(ctx, src); err != nil {
		return nil, err
	}
	return h, nil
}

func compileSet(ctx context.Context, c *Compiler, src *TagSource) (Handler, error) {
	if err := c.Allow(src, "var", "value"); err != nil {
		return nil, err
	}
	if 0 < len(src.Children) {
		return nil, &ConfigError{Tag: "set", Msg: "can't have children"}
	}
	v, err := c.Name(src, "var")
	if err != nil {
		return nil, err
	}
	value, err := c.Attr(ctx, src, "value")
	if err != nil {
		return nil, err
	}
	return NewSetHandler(v, value)
}

func compileCatch(ctx context.Context, c *Compiler, src *TagSource) (Handler, error) {
	if err := c.Allow(src, "var"); err != nil {
		return nil, err
	}
	v, err := c.Name(src, "var")
	if err != nil {
		return nil, err
	}
	next, err := c.Children(ctx, src)
	if err != nil {
		return nil, err
	}
	return &CatchHandler{
		Var:  v,
		Next: next,
	}, nil
}

func compileText(ctx context.Context, c *Compiler, src *TagSource) (Handler, error) {
	if err := c.Allow(src, "value"); err != nil {
		return nil, err
	}
	value, err := c.Attr(ctx, src, "value")
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, &ConfigError{Tag: "text", Attr: "value", Msg: "required"}
	}
	return &TextHandler{
		Value: value,
	}, nil
}
