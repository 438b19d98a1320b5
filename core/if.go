package core

import (
	"context"

	"go.uber.org/zap"
)

// IfHandler builds its body when its test is true.
//
// The test result is persisted under the tag's section id.  A Restore
// build reuses that result without evaluating the test.  A Refresh
// build evaluates the test, and if the result changed, builds the
// body as initial state.
type IfHandler struct {
	Test *Attribute

	// Var, if not empty, is bound to the test result.
	Var string

	Next Handler
}

// NewIfHandler makes an IfHandler.  The test is required.
func NewIfHandler(test *Attribute, v string, next Handler) (*IfHandler, error) {
	h := &IfHandler{
		Test: test,
		Var:  v,
		Next: next,
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *IfHandler) Validate() error {
	if h.Test == nil {
		return &ConfigError{Tag: "if", Attr: "test", Msg: "required"}
	}
	return nil
}

func (h *IfHandler) Apply(ctx context.Context, b *Build, parent *Component) error {
	sec := b.Sections.Enter()
	defer sec.Leave()

	var (
		result  bool
		changed bool
	)

	x, _ := b.State.GetState(sec.Id)
	prev, have := x.(bool)

	if have && b.Phase == Restore {
		result = prev
	} else {
		t, err := h.Test.Bool(ctx, b)
		if err != nil {
			return tagged("if", err)
		}
		result = t
		changed = have && b.Phase == Refresh && t != prev
	}

	if h.Var != "" {
		b.Vars[h.Var] = result
	}

	if result && h.Next != nil {
		err := b.buildMarked(changed, func() error {
			return h.Next.Apply(ctx, b, parent)
		})
		if err != nil {
			return err
		}
	}

	b.State.PutState(sec.Id, result)
	b.notifyParent(parent)

	b.logger().Debug("if",
		zap.String("id", sec.Id),
		zap.Stringer("phase", b.Phase),
		zap.Bool("result", result),
		zap.Bool("changed", changed))

	return nil
}
