package core

import (
	"context"
	"testing"

	"github.com/Comcast/treetags/util/testutil"
)

// lookup makes an Attribute that reads a variable.
func lookup(name string) *Attribute {
	return Func(name, func(ctx context.Context, bs Bindings) (interface{}, error) {
		x, _, err := bs.Get(name)
		return x, err
	})
}

// counted makes an Attribute that returns whatever *x is and counts
// its evaluations.
func counted(name string, x *interface{}, n *int) *Attribute {
	return Func(name, func(ctx context.Context, bs Bindings) (interface{}, error) {
		*n++
		return *x, nil
	})
}

// item makes an element that shows the value of a variable.
func item(v string) Handler {
	return &ElementHandler{
		Name: "li",
		Attrs: Attrs{
			"value": lookup(v),
		},
	}
}

type run struct {
	phase Phase
	state ViewState
	flags Flags
	vars  Bindings
}

// apply builds the handler into a fresh root and checks that every
// section was left.
func (r run) apply(t *testing.T, h Handler) (*Component, *Build) {
	t.Helper()
	root, b, err := r.try(t, h)
	if err != nil {
		t.Fatal(err)
	}
	return root, b
}

func (r run) try(t *testing.T, h Handler) (*Component, *Build, error) {
	t.Helper()
	if r.state == nil {
		r.state = NewViewState()
	}
	b := NewBuild(r.phase, r.state, "")
	b.Logger = testutil.Logger(t)
	b.Flags = r.flags
	for k, v := range r.vars {
		b.Vars[k] = v
	}
	root := NewComponent("", "root")
	err := h.Apply(context.Background(), b, root)
	if d := b.Sections.Depth(); d != 0 {
		t.Fatalf("section depth %d after build", d)
	}
	return root, b, err
}

// values returns the "value" attributes of the children.
func values(c *Component) []interface{} {
	acc := make([]interface{}, len(c.Children))
	for i, child := range c.Children {
		acc[i] = child.Attrs["value"]
	}
	return acc
}

// childIds returns the ids of the children.
func childIds(c *Component) []string {
	acc := make([]string, len(c.Children))
	for i, child := range c.Children {
		acc[i] = child.Id
	}
	return acc
}
