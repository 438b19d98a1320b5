// Package storage persists view state between requests.
package storage

import (
	"context"

	"github.com/Comcast/treetags/core"
)

// Storage is a persistence interface that's suitable for a
// view.Renderer.
type Storage interface {
	// Load returns the saved state for the view.  A view with no
	// saved state gives a nil ViewState and no error.
	Load(ctx context.Context, viewId string) (core.ViewState, error)

	Save(ctx context.Context, viewId string, s core.ViewState) error

	Remove(ctx context.Context, viewId string) error
}

// Lifecycle is implemented by storage that needs to be opened and
// closed.
type Lifecycle interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
}
