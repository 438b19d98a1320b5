package core

import (
	"context"

	"go.uber.org/zap"
)

// CatchHandler builds its body and swallows any error from it.
//
// When Var isn't empty, the error is bound to that variable.  If the
// body succeeds, the variable is bound to nil.
type CatchHandler struct {
	Var  string
	Next Handler
}

func (h *CatchHandler) Apply(ctx context.Context, b *Build, parent *Component) error {
	var err error
	if h.Next != nil {
		err = h.Next.Apply(ctx, b, parent)
	}
	if err != nil {
		b.logger().Debug("catch", zap.Error(err))
		if h.Var != "" {
			b.Vars[h.Var] = err
		}
		return nil
	}
	if h.Var != "" {
		b.Vars[h.Var] = nil
	}
	return nil
}
