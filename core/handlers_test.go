package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSet(t *testing.T) {
	h, err := NewSetHandler("y", lookup("x"))
	if err != nil {
		t.Fatal(err)
	}
	_, b := run{vars: Bindings{"x": 3}}.apply(t, h)
	if b.Vars["y"] != 3 {
		t.Fatal(b.Vars)
	}

	if _, err = NewSetHandler("", Literal("value", 1)); err == nil {
		t.Fatal("var should be required")
	}
}

func TestSetWritesThrough(t *testing.T) {
	bang := Func("value", func(ctx context.Context, bs Bindings) (interface{}, error) {
		x, _, err := bs.Get("x")
		if err != nil {
			return nil, err
		}
		return x.(string) + "!", nil
	})
	set, err := NewSetHandler("x", bang)
	if err != nil {
		t.Fatal(err)
	}

	src := []interface{}{"a", "b"}
	h := &ForEachHandler{
		Items: Literal("items", src),
		Var:   "x",
		Next:  CompositeHandler{set, item("x")},
	}
	root, _ := run{phase: InitialBuild}.apply(t, h)
	if diff := cmp.Diff([]interface{}{"a!", "b!"}, src); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]interface{}{"a!", "b!"}, values(root)); diff != "" {
		t.Fatal(diff)
	}

	// A set that can't convert to the element type fails.
	nums := []int{1}
	h = &ForEachHandler{
		Items: Literal("items", nums),
		Var:   "x",
		Next:  &SetHandler{Var: "x", Value: Literal("value", "one")},
	}
	if _, _, err = (run{phase: InitialBuild}).try(t, h); err == nil {
		t.Fatal("string stored into an int")
	}
	if nums[0] != 1 {
		t.Fatal(nums)
	}

	// The status variable is read-only, so it's shadowed.
	var seen interface{}
	h = &ForEachHandler{
		Items:     Literal("items", []string{"a"}),
		Var:       "x",
		VarStatus: "s",
		Next: CompositeHandler{
			&SetHandler{Var: "s", Value: Literal("value", 7)},
			HandlerFunc(func(ctx context.Context, b *Build, parent *Component) error {
				seen = b.Vars["s"]
				return nil
			}),
		},
	}
	run{phase: InitialBuild}.apply(t, h)
	if seen != 7 {
		t.Fatal(seen)
	}
}

func TestCatch(t *testing.T) {
	oops := errors.New("oops")
	h := &CatchHandler{
		Var: "err",
		Next: CompositeHandler{
			item("x"),
			HandlerFunc(func(ctx context.Context, b *Build, parent *Component) error {
				return oops
			}),
			item("x"),
		},
	}
	root, b := run{vars: Bindings{"x": 1}}.apply(t, h)
	if b.Vars["err"] != oops {
		t.Fatal(b.Vars["err"])
	}
	if len(root.Children) != 1 {
		t.Fatal(len(root.Children))
	}

	h.Next = item("x")
	_, b = run{vars: Bindings{"x": 1, "err": oops}}.apply(t, h)
	if x, have := b.Vars["err"]; !have || x != nil {
		t.Fatal(x)
	}
}

func TestCatchUnwinds(t *testing.T) {
	h := &CatchHandler{
		Next: &ForEachHandler{
			Items: Literal("items", "not a list"),
			Var:   "x",
		},
	}
	root, b := run{phase: InitialBuild}.apply(t, h)
	if len(root.Children) != 0 {
		t.Fatal(len(root.Children))
	}
	if b.IsMarkInitialState() {
		t.Fatal("flag left on")
	}
}

func TestElement(t *testing.T) {
	h := &ElementHandler{
		Name: "div",
		Attrs: Attrs{
			"b": Literal("b", 2),
			"a": lookup("x"),
		},
		Next: CompositeHandler{
			&TextHandler{Value: Literal("value", "hi")},
			&TextHandler{Value: lookup("x")},
		},
	}
	root, _ := run{vars: Bindings{"x": map[string]interface{}{"n": 1}}}.apply(t, h)

	want := &Component{
		Id:  "",
		Tag: "root",
		Children: []*Component{
			{
				Id:    "0",
				Tag:   "div",
				Attrs: map[string]interface{}{"a": map[string]interface{}{"n": 1}, "b": 2},
				Children: []*Component{
					{Id: "0_0", Tag: TextTag, Text: "hi"},
					{Id: "0_1", Tag: TextTag, Text: `{"n":1}`},
				},
			},
		},
	}
	if diff := cmp.Diff(want, root); diff != "" {
		t.Fatal(diff)
	}
	if root.Find("0_1") == nil {
		t.Fatal("not found")
	}
	if diff := cmp.Diff([]string{"", "0", "0_0", "0_1"}, root.Ids()); diff != "" {
		t.Fatal(diff)
	}
}

func TestAttributeConversions(t *testing.T) {
	ctx := context.Background()
	b := NewBuild(InitialBuild, nil, "")

	for _, x := range []interface{}{true, "true", " TRUE "} {
		if v, err := Literal("a", x).Bool(ctx, b); err != nil || !v {
			t.Fatal(x, v, err)
		}
	}
	for _, x := range []interface{}{nil, false, "", "false"} {
		if v, err := Literal("a", x).Bool(ctx, b); err != nil || v {
			t.Fatal(x, v, err)
		}
	}
	if _, err := Literal("a", "maybe").Bool(ctx, b); err == nil {
		t.Fatal("maybe")
	}

	for _, x := range []interface{}{3, int64(3), 3.0, "3"} {
		if v, err := Literal("a", x).Int(ctx, b); err != nil || v != 3 {
			t.Fatal(x, v, err)
		}
	}
	var ae *AttributeError
	if _, err := Literal("a", 3.5).Int(ctx, b); !errors.As(err, &ae) {
		t.Fatal(err)
	}

	if _, err := Expr("a", "vars", "x").Value(ctx, b); err == nil {
		t.Fatal("uncompiled")
	}
}
