// Package mem is an in-memory storage.Storage.
package mem

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Comcast/treetags/core"
)

// Storage keeps each view's state as JSON so that a loaded state never
// shares values with the saved one.
type Storage struct {
	sync.RWMutex
	views map[string][]byte
}

func NewStorage() *Storage {
	return &Storage{
		views: make(map[string][]byte),
	}
}

func (s *Storage) Load(ctx context.Context, viewId string) (core.ViewState, error) {
	s.RLock()
	js, have := s.views[viewId]
	s.RUnlock()
	if !have {
		return nil, nil
	}
	var state core.ViewState
	if err := json.Unmarshal(js, &state); err != nil {
		return nil, err
	}
	return state, nil
}

func (s *Storage) Save(ctx context.Context, viewId string, state core.ViewState) error {
	js, err := json.Marshal(state)
	if err != nil {
		return err
	}
	s.Lock()
	s.views[viewId] = js
	s.Unlock()
	return nil
}

func (s *Storage) Remove(ctx context.Context, viewId string) error {
	s.Lock()
	delete(s.views, viewId)
	s.Unlock()
	return nil
}

// Len reports the number of stored views.
func (s *Storage) Len() int {
	s.RLock()
	defer s.RUnlock()
	return len(s.views)
}
