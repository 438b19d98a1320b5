package storage

import (
	"context"

	"github.com/Comcast/treetags/core"
)

// NoopStorage never remembers anything, so every request is an
// initial build.
type NoopStorage struct {
}

func (s *NoopStorage) Load(ctx context.Context, viewId string) (core.ViewState, error) {
	return nil, nil
}

func (s *NoopStorage) Save(ctx context.Context, viewId string, state core.ViewState) error {
	return nil
}

func (s *NoopStorage) Remove(ctx context.Context, viewId string) error {
	return nil
}

func (s *NoopStorage) Open(ctx context.Context) error {
	return nil
}

func (s *NoopStorage) Close(ctx context.Context) error {
	return nil
}
