package core

import (
	"context"
	"errors"
)

// SetHandler binds a variable for the rest of the build.  When the
// variable is a loop variable bound to a list or map element, the
// value is written through to that element.
type SetHandler struct {
	Var   string
	Value *Attribute
}

func NewSetHandler(v string, value *Attribute) (*SetHandler, error) {
	h := &SetHandler{
		Var:   v,
		Value: value,
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *SetHandler) Validate() error {
	if h.Var == "" {
		return &ConfigError{Tag: "set", Attr: "var", Msg: "required"}
	}
	if h.Value == nil {
		return &ConfigError{Tag: "set", Attr: "value", Msg: "required"}
	}
	return nil
}

func (h *SetHandler) Apply(ctx context.Context, b *Build, parent *Component) error {
	x, err := h.Value.Value(ctx, b)
	if err != nil {
		return tagged("set", err)
	}
	if err = b.Vars.Set(h.Var, x); err != nil {
		if !errors.Is(err, ErrReadOnly) {
			return tagged("set", err)
		}
		// A read-only Ref is shadowed.
		b.Vars[h.Var] = x
	}
	return nil
}
