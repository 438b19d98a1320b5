package core

import (
	"context"
	"sort"
)

// ElementHandler adds a Component to the tree and builds its
// children under it.
type ElementHandler struct {
	Name  string
	Attrs Attrs
	Next  Handler
}

func (h *ElementHandler) Apply(ctx context.Context, b *Build, parent *Component) error {
	sec := b.Sections.Enter()
	defer sec.Leave()

	c := NewComponent(sec.Id, h.Name)
	c.InitialState = b.IsMarkInitialState()

	if 0 < len(h.Attrs) {
		names := make([]string, 0, len(h.Attrs))
		for name := range h.Attrs {
			names = append(names, name)
		}
		sort.Strings(names)

		c.Attrs = make(map[string]interface{}, len(names))
		for _, name := range names {
			x, err := h.Attrs[name].Value(ctx, b)
			if err != nil {
				return tagged(h.Name, err)
			}
			c.Attrs[name] = x
		}
	}

	parent.Add(c)

	if h.Next == nil {
		return nil
	}
	return h.Next.Apply(ctx, b, c)
}

// TextTag is the Tag of a text Component.
const TextTag = "#text"

// TextHandler adds a text Component.
type TextHandler struct {
	Value *Attribute
}

func (h *TextHandler) Apply(ctx context.Context, b *Build, parent *Component) error {
	sec := b.Sections.Enter()
	defer sec.Leave()

	s, err := h.Value.String(ctx, b)
	if err != nil {
		return tagged("text", err)
	}
	c := NewComponent(sec.Id, TextTag)
	c.Text = s
	c.InitialState = b.IsMarkInitialState()
	parent.Add(c)
	return nil
}

// CompositeHandler applies its handlers in order.
type CompositeHandler []Handler

func (hs CompositeHandler) Apply(ctx context.Context, b *Build, parent *Component) error {
	for _, h := range hs {
		if err := h.Apply(ctx, b, parent); err != nil {
			return err
		}
	}
	return nil
}

// Nothing is a Handler that builds nothing.
var Nothing = HandlerFunc(func(ctx context.Context, b *Build, parent *Component) error {
	return nil
})
