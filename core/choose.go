package core

import (
	"context"

	"go.uber.org/zap"
)

const (
	// OtherwiseSelected is the persisted selection when the
	// otherwise branch was built.
	OtherwiseSelected = -1

	// NoneSelected is the persisted selection when no branch was
	// built.
	NoneSelected = -2
)

// WhenHandler is a branch of a ChooseHandler.
type WhenHandler struct {
	Test *Attribute
	Next Handler
}

// OtherwiseHandler is the default branch of a ChooseHandler.
type OtherwiseHandler struct {
	Next Handler
}

// ChooseHandler builds at most one of its branches.
//
// Branches are considered in order, and the first When with a true
// test wins.  If none wins, the Otherwise branch (if any) is built.
//
// Every branch gets its own section whether or not it is selected,
// so a branch keeps its ids when the selection moves around.
type ChooseHandler struct {
	Whens     []*WhenHandler
	Otherwise *OtherwiseHandler
}

// NewChooseHandler makes a ChooseHandler.  At least one When is
// required, and every When needs a test.
func NewChooseHandler(whens []*WhenHandler, otherwise *OtherwiseHandler) (*ChooseHandler, error) {
	h := &ChooseHandler{
		Whens:     whens,
		Otherwise: otherwise,
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *ChooseHandler) Validate() error {
	if len(h.Whens) == 0 {
		return &ConfigError{Tag: "choose", Msg: "at least one when is required"}
	}
	for _, w := range h.Whens {
		if w == nil || w.Test == nil {
			return &ConfigError{Tag: "when", Attr: "test", Msg: "required"}
		}
	}
	return nil
}

// selectBranch evaluates the tests in order.
func (h *ChooseHandler) selectBranch(ctx context.Context, b *Build) (int, error) {
	for i, w := range h.Whens {
		t, err := w.Test.Bool(ctx, b)
		if err != nil {
			return NoneSelected, tagged("when", err)
		}
		if t {
			return i, nil
		}
	}
	if h.Otherwise != nil {
		return OtherwiseSelected, nil
	}
	return NoneSelected, nil
}

func (h *ChooseHandler) Apply(ctx context.Context, b *Build, parent *Component) error {
	sec := b.Sections.Enter()
	defer sec.Leave()

	var (
		selected int
		changed  bool
	)

	x, _ := b.State.GetState(sec.Id)
	prev, have := x.(int)

	if have && b.Phase == Restore {
		selected = prev
		if selected >= len(h.Whens) || (selected == OtherwiseSelected && h.Otherwise == nil) {
			b.logger().Warn("choose: restored selection not in template",
				zap.String("id", sec.Id),
				zap.Int("selected", selected))
			selected = NoneSelected
		}
	} else {
		i, err := h.selectBranch(ctx, b)
		if err != nil {
			return err
		}
		selected = i
		changed = have && b.Phase == Refresh && i != prev
	}

	branch := func(i int, next Handler) error {
		s := b.Sections.Enter()
		defer s.Leave()
		if i != selected || next == nil {
			return nil
		}
		return b.buildMarked(changed, func() error {
			return next.Apply(ctx, b, parent)
		})
	}

	for i, w := range h.Whens {
		if err := branch(i, w.Next); err != nil {
			return err
		}
	}
	if h.Otherwise != nil {
		if err := branch(OtherwiseSelected, h.Otherwise.Next); err != nil {
			return err
		}
	}

	b.State.PutState(sec.Id, selected)
	b.notifyParent(parent)

	b.logger().Debug("choose",
		zap.String("id", sec.Id),
		zap.Stringer("phase", b.Phase),
		zap.Int("selected", selected),
		zap.Bool("changed", changed))

	return nil
}
