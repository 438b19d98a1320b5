package core

import (
	"context"
)

// TodoTemplate makes an example Template that's useful to have
// around.
//
// The view expects bindings for "todos" (a list) and "filter" (a
// string).  The expressions are Go functions, so the Template needs
// no interpreters.
func TodoTemplate(ctx context.Context) (*Template, error) {

	get := func(name string) func(context.Context, Bindings) (interface{}, error) {
		return func(ctx context.Context, bs Bindings) (interface{}, error) {
			x, _, err := bs.Get(name)
			return x, err
		}
	}

	items := Func("items", get("todos"))

	item := &ElementHandler{
		Name: "li",
		Next: &TextHandler{
			Value: Func("value", func(ctx context.Context, bs Bindings) (interface{}, error) {
				x, _, err := bs.Get("todo")
				return x, err
			}),
		},
	}

	list := &ForEachHandler{
		Items: items,
		Var:   "todo",
		Next:  item,
	}

	empty, err := NewIfHandler(
		Func("test", func(ctx context.Context, bs Bindings) (interface{}, error) {
			x, _, err := bs.Get("todos")
			if err != nil {
				return nil, err
			}
			xs, _ := x.([]interface{})
			return len(xs) == 0, nil
		}),
		"",
		&TextHandler{
			Value: Literal("value", "Nothing to do."),
		})
	if err != nil {
		return nil, err
	}

	filtered := func(want string) *Attribute {
		return Func("test", func(ctx context.Context, bs Bindings) (interface{}, error) {
			x, _, err := bs.Get("filter")
			return x == want, err
		})
	}

	header, err := NewChooseHandler(
		[]*WhenHandler{
			{
				Test: filtered("done"),
				Next: &TextHandler{Value: Literal("value", "Done")},
			},
			{
				Test: filtered("active"),
				Next: &TextHandler{Value: Literal("value", "Active")},
			},
		},
		&OtherwiseHandler{
			Next: &TextHandler{Value: Literal("value", "All")},
		})
	if err != nil {
		return nil, err
	}

	t := &Template{
		Name: "todo",
		Doc:  "A list of things to do.",
		Handler: &ElementHandler{
			Name: "div",
			Next: CompositeHandler{
				&ElementHandler{
					Name: "h1",
					Next: header,
				},
				empty,
				&ElementHandler{
					Name: "ul",
					Next: list,
				},
			},
		},
	}

	return t, nil
}
