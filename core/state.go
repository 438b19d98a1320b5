/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// StateStore holds the persisted decisions of control-flow tags,
// keyed by section id.
type StateStore interface {
	GetState(id string) (interface{}, bool)
	PutState(id string, x interface{})
}

// ViewState is the StateStore for one view.
//
// A ViewState serializes to JSON with a kind for each entry, so that
// a bool stays a bool, an int stays an int, and an IterationState
// stays an IterationState.
type ViewState map[string]interface{}

func NewViewState() ViewState {
	return make(ViewState, 8)
}

func (s ViewState) GetState(id string) (interface{}, bool) {
	x, have := s[id]
	return x, have
}

func (s ViewState) PutState(id string, x interface{}) {
	s[id] = x
}

// Ids returns the ids in the state in order.
func (s ViewState) Ids() []string {
	acc := make([]string, 0, len(s))
	for id := range s {
		acc = append(acc, id)
	}
	sort.Strings(acc)
	return acc
}

// Copy makes a deep copy.  IterationStates are copied, but element
// values are shared.
func (s ViewState) Copy() ViewState {
	acc := make(ViewState, len(s))
	for id, x := range s {
		if is, ok := x.(*IterationState); ok {
			x = is.Copy()
		}
		acc[id] = x
	}
	return acc
}

const (
	kindBool      = "bool"
	kindInt       = "int"
	kindIteration = "iteration"
	kindValue     = "value"
)

type stateEntry struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

func (s ViewState) MarshalJSON() ([]byte, error) {
	acc := make(map[string]stateEntry, len(s))
	for id, x := range s {
		kind := kindValue
		switch x.(type) {
		case bool:
			kind = kindBool
		case int:
			kind = kindInt
		case *IterationState, IterationState:
			kind = kindIteration
		}
		js, err := json.Marshal(x)
		if err != nil {
			return nil, fmt.Errorf("state %q: %w", id, err)
		}
		acc[id] = stateEntry{
			Kind:  kind,
			Value: js,
		}
	}
	return json.Marshal(acc)
}

func (s *ViewState) UnmarshalJSON(js []byte) error {
	var entries map[string]stateEntry
	if err := json.Unmarshal(js, &entries); err != nil {
		return err
	}
	acc := make(ViewState, len(entries))
	for id, e := range entries {
		var x interface{}
		var err error
		switch e.Kind {
		case kindBool:
			var b bool
			err = json.Unmarshal(e.Value, &b)
			x = b
		case kindInt:
			var n int
			err = json.Unmarshal(e.Value, &n)
			x = n
		case kindIteration:
			is := &IterationState{}
			err = json.Unmarshal(e.Value, is)
			x = is
		case kindValue:
			err = json.Unmarshal(e.Value, &x)
		default:
			err = fmt.Errorf("unknown kind %q", e.Kind)
		}
		if err != nil {
			return fmt.Errorf("state %q: %w", id, err)
		}
		acc[id] = x
	}
	*s = acc
	return nil
}

// IterationElement is one element remembered by a forEach.
type IterationElement struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
	Index int         `json:"index"`
}

// IterationState is what a forEach persists.
//
// Keys are made from successive Counter values.  The Counter never
// goes down, so a key is never reused.
type IterationState struct {
	Counter  int                `json:"counter"`
	Kind     SourceKind         `json:"kind"`
	Elements []IterationElement `json:"elements"`
}

// next allocates a new key.
func (s *IterationState) next() string {
	k := strconv.Itoa(s.Counter)
	s.Counter++
	return k
}

// Keys returns the element keys in order.
func (s *IterationState) Keys() []string {
	acc := make([]string, len(s.Elements))
	for i, e := range s.Elements {
		acc[i] = e.Key
	}
	return acc
}

func (s *IterationState) Copy() *IterationState {
	elems := make([]IterationElement, len(s.Elements))
	copy(elems, s.Elements)
	return &IterationState{
		Counter:  s.Counter,
		Kind:     s.Kind,
		Elements: elems,
	}
}

// serializable reports whether every element value can be persisted.
func (s *IterationState) serializable() bool {
	for _, e := range s.Elements {
		if !Serializable(e.Value) {
			return false
		}
	}
	return true
}
