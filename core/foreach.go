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
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"

	"go.uber.org/zap"
)

// SourceKind says what a forEach iterates over.
type SourceKind int

const (
	SourceNone SourceKind = iota

	// SourceList is a slice or an array.
	SourceList

	// SourceMap is a map.  Entries are visited in key order.
	SourceMap

	// SourceCollection is a Collection.
	SourceCollection

	// SourceRange is the synthetic sequence 0..end used when there
	// are no items.
	SourceRange
)

func (k SourceKind) String() string {
	switch k {
	case SourceList:
		return "list"
	case SourceMap:
		return "map"
	case SourceCollection:
		return "collection"
	case SourceRange:
		return "range"
	}
	return "none"
}

// Collection is a source of elements that have no positions or
// keys that a variable could be bound to.
type Collection interface {
	Elements() []interface{}
}

// ForEachHandler builds its body once for each element of a source.
//
// Each element is built in a section whose base is the element's
// key.  Keys are remembered in an IterationState, and a Refresh
// build reuses the key of an element that it can match (by value)
// with a remembered one.  So an element keeps its ids when other
// elements come and go.
//
// Matching scans forward from the last match.  Duplicate values are
// matched left to right, and an element that moved backwards gets a
// new key.
type ForEachHandler struct {
	Items *Attribute
	Begin *Attribute
	End   *Attribute
	Step  *Attribute

	Var       string
	VarStatus string

	// Transient makes the variables plain values rather than Refs
	// into the source.
	Transient bool

	// Legacy turns off reconciliation.  Elements get ordinary
	// sections, and nothing is persisted.
	Legacy bool

	Next Handler
}

func (h *ForEachHandler) tag() string {
	if h.Legacy {
		return "legacyForEach"
	}
	return "forEach"
}

func (h *ForEachHandler) Validate() error {
	if h.Items == nil && h.End == nil {
		if h.Begin != nil {
			return &ConfigError{Tag: h.tag(), Attr: "end", Msg: "begin without end requires items"}
		}
		return &ConfigError{Tag: h.tag(), Attr: "items", Msg: "items or end is required"}
	}
	return nil
}

type bounds struct {
	begin, end, step int

	hasBegin, hasEnd, hasStep bool
}

func (h *ForEachHandler) bounds(ctx context.Context, b *Build) (*bounds, error) {
	bs := &bounds{
		end:  math.MaxInt32,
		step: 1,
	}
	var err error
	if h.Begin != nil {
		if bs.begin, err = h.Begin.Int(ctx, b); err != nil {
			return nil, err
		}
		if bs.begin < 0 {
			return nil, &AttributeError{Attr: "begin", Value: bs.begin, Msg: "must not be negative"}
		}
		bs.hasBegin = true
	}
	if h.End != nil {
		if bs.end, err = h.End.Int(ctx, b); err != nil {
			return nil, err
		}
		bs.hasEnd = true
	}
	if h.Step != nil {
		if bs.step, err = h.Step.Int(ctx, b); err != nil {
			return nil, err
		}
		if bs.step < 1 {
			return nil, &AttributeError{Attr: "step", Value: bs.step, Msg: "must be at least 1"}
		}
		bs.hasStep = true
	}
	return bs, nil
}

func (bs *bounds) status(index int, first, last bool, current interface{}) IterationStatus {
	s := IterationStatus{
		Index:   index,
		First:   first,
		Last:    last,
		Current: current,
	}
	if bs.hasBegin {
		n := bs.begin
		s.Begin = &n
	}
	if bs.hasEnd {
		n := bs.end
		s.End = &n
	}
	if bs.hasStep {
		n := bs.step
		s.Step = &n
	}
	return s
}

// element is a candidate from the live source.
type element struct {
	value interface{}

	// at is the position (list) or key (map) for binding.
	at interface{}
}

// elements is the live source. A range has no backing slice: element
// i is just i.
type elements struct {
	list    []element
	isRange bool
}

func (es elements) len() int {
	if es.isRange {
		return math.MaxInt
	}
	return len(es.list)
}

func (es elements) at(i int) element {
	if es.isRange {
		return element{value: i, at: i}
	}
	return es.list[i]
}

// source evaluates the items into elements.
func (h *ForEachHandler) source(ctx context.Context, b *Build) (SourceKind, interface{}, elements, error) {
	if h.Items == nil {
		return SourceRange, nil, elements{isRange: true}, nil
	}

	x, err := h.Items.Value(ctx, b)
	if err != nil {
		return SourceNone, nil, elements{}, err
	}
	kind, list, err := elementsOf(x)
	return kind, x, elements{list: list}, err
}

func elementsOf(x interface{}) (SourceKind, []element, error) {
	if x == nil {
		return SourceList, nil, nil
	}
	if c, is := x.(Collection); is {
		vs := c.Elements()
		elems := make([]element, len(vs))
		for i, v := range vs {
			elems[i] = element{value: v, at: i}
		}
		return SourceCollection, elems, nil
	}

	v := reflect.ValueOf(x)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		elems := make([]element, v.Len())
		for i := range elems {
			elems[i] = element{value: v.Index(i).Interface(), at: i}
		}
		return SourceList, elems, nil
	case reflect.Map:
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		elems := make([]element, len(keys))
		for i, k := range keys {
			elems[i] = element{
				value: MapEntry{
					Key:   k.Interface(),
					Value: v.MapIndex(k).Interface(),
				},
				at: k.Interface(),
			}
		}
		return SourceMap, elems, nil
	}
	return SourceNone, nil, &AttributeError{Attr: "items", Value: x, Msg: "unsupported items type"}
}

// visit calls f for the positions selected by the bounds.
func (bs *bounds) visit(n int, f func(i int, first, last bool) error) error {
	for i := bs.begin; i <= bs.end && i < n; {
		// No next position when stepping would overflow.
		more := i <= math.MaxInt-bs.step
		next := i + bs.step
		last := !more || next > bs.end || next >= n
		if err := f(i, i == bs.begin, last); err != nil {
			return err
		}
		if last {
			break
		}
		i = next
	}
	return nil
}

// iteration carries what one element's body needs.
type iteration struct {
	key     string
	value   interface{}
	at      interface{}
	status  IterationStatus
	kind    SourceKind
	source  SourceFunc
	changed bool
}

func (h *ForEachHandler) element(ctx context.Context, b *Build, parent *Component, it *iteration) error {
	var sec *Section
	if h.Legacy {
		sec = b.Sections.Enter()
	} else {
		sec = b.Sections.EnterBase(it.key)
	}
	defer sec.Leave()

	if err := Bind(b.Vars, h.Var, it.value, h.Transient, it.source, it.kind, it.at); err != nil {
		return err
	}
	if h.VarStatus != "" {
		if h.Transient {
			b.Vars[h.VarStatus] = it.status
		} else {
			b.Vars[h.VarStatus] = &StatusRef{Status: it.status}
		}
	}

	if h.Next == nil {
		return nil
	}
	return b.buildMarked(it.changed, func() error {
		return h.Next.Apply(ctx, b, parent)
	})
}

func (h *ForEachHandler) Apply(ctx context.Context, b *Build, parent *Component) error {
	if err := h.apply(ctx, b, parent); err != nil {
		return tagged(h.tag(), err)
	}
	return nil
}

func (h *ForEachHandler) apply(ctx context.Context, b *Build, parent *Component) error {
	if h.Legacy {
		return h.applyLegacy(ctx, b, parent)
	}

	sec := b.Sections.Enter()
	defer sec.Leave()

	g := b.Vars.Capture(h.Var, h.VarStatus)
	defer g.Release()

	var old *IterationState
	switch vv := lookupState(b.State, sec.Id).(type) {
	case *IterationState:
		old = vv
	case IterationState:
		old = &vv
	}

	var err error
	switch {
	case old != nil && b.Phase == Restore:
		err = h.restore(ctx, b, parent, sec.Id, old)
	case old != nil && b.Phase == Refresh:
		err = h.refresh(ctx, b, parent, sec.Id, old)
	default:
		err = h.first(ctx, b, parent, sec.Id)
	}
	if err != nil {
		return err
	}

	b.notifyParent(parent)
	return nil
}

func lookupState(s StateStore, id string) interface{} {
	x, _ := s.GetState(id)
	return x
}

func (h *ForEachHandler) liveSource(raw interface{}) SourceFunc {
	if h.Items == nil {
		return nil
	}
	return func() (interface{}, error) {
		return raw, nil
	}
}

// first builds every selected element with a new key.
func (h *ForEachHandler) first(ctx context.Context, b *Build, parent *Component, id string) error {
	bs, err := h.bounds(ctx, b)
	if err != nil {
		return err
	}
	kind, raw, elems, err := h.source(ctx, b)
	if err != nil {
		return err
	}
	source := h.liveSource(raw)

	st := &IterationState{
		Kind: kind,
	}

	err = bs.visit(elems.len(), func(i int, first, last bool) error {
		e := elems.at(i)
		key := st.next()
		st.Elements = append(st.Elements, IterationElement{
			Key:   key,
			Value: e.value,
			Index: i,
		})
		return h.element(ctx, b, parent, &iteration{
			key:    key,
			value:  e.value,
			at:     e.at,
			status: bs.status(i, first, last, e.value),
			kind:   kind,
			source: source,
		})
	})
	if err != nil {
		return err
	}

	h.persist(b, id, st)

	b.logger().Debug("forEach first build",
		zap.String("id", id),
		zap.Stringer("kind", kind),
		zap.Strings("keys", st.Keys()))

	return nil
}

// persist stores the state if the store could save it.  A state
// that couldn't be saved is replaced with nil, so the next build
// starts over.
func (h *ForEachHandler) persist(b *Build, id string, st *IterationState) {
	if st.serializable() {
		b.State.PutState(id, st)
		return
	}
	b.logger().Debug("forEach state not serializable", zap.String("id", id))
	if _, have := b.State.GetState(id); have {
		// Drop the elements but keep the counter so later keys
		// never reuse one already handed out.
		b.State.PutState(id, &IterationState{
			Counter: st.Counter,
			Kind:    st.Kind,
		})
	}
}

// restore replays the remembered elements.  The items aren't
// evaluated unless a Ref needs the live source.
func (h *ForEachHandler) restore(ctx context.Context, b *Build, parent *Component, id string, st *IterationState) error {
	bs, err := h.bounds(ctx, b)
	if err != nil {
		return err
	}

	var source SourceFunc
	if h.Items != nil {
		var (
			outer  = b.Vars.Copy()
			cached interface{}
			done   bool
		)
		source = func() (interface{}, error) {
			if !done {
				x, err := h.Items.Eval(ctx, outer)
				if err != nil {
					return nil, err
				}
				cached, done = x, true
			}
			return cached, nil
		}
	}

	n := len(st.Elements)
	for j, e := range st.Elements {
		value := e.Value
		var at interface{} = e.Index
		switch st.Kind {
		case SourceMap:
			entry := asMapEntry(value)
			value, at = entry, entry.Key
		case SourceRange:
			value = e.Index
		}
		err := h.element(ctx, b, parent, &iteration{
			key:    e.Key,
			value:  value,
			at:     at,
			status: bs.status(e.Index, j == 0, j == n-1, value),
			kind:   st.Kind,
			source: source,
		})
		if err != nil {
			return err
		}
	}

	b.State.PutState(id, st)

	b.logger().Debug("forEach restore",
		zap.String("id", id),
		zap.Strings("keys", st.Keys()))

	return nil
}

// refresh matches the live elements against the remembered ones.
func (h *ForEachHandler) refresh(ctx context.Context, b *Build, parent *Component, id string, old *IterationState) error {
	bs, err := h.bounds(ctx, b)
	if err != nil {
		return err
	}
	kind, raw, elems, err := h.source(ctx, b)
	if err != nil {
		return err
	}
	source := h.liveSource(raw)

	st := &IterationState{
		Counter: old.Counter,
		Kind:    kind,
	}

	var (
		cursor int
		added  []string
	)

	err = bs.visit(elems.len(), func(i int, first, last bool) error {
		e := elems.at(i)

		match := -1
		for j := cursor; j < len(old.Elements); j++ {
			if Equal(old.Elements[j].Value, e.value) {
				match = j
				break
			}
		}

		var key string
		if 0 <= match {
			key = old.Elements[match].Key
			cursor = match + 1
		} else {
			key = st.next()
			added = append(added, key)
		}

		st.Elements = append(st.Elements, IterationElement{
			Key:   key,
			Value: e.value,
			Index: i,
		})
		return h.element(ctx, b, parent, &iteration{
			key:     key,
			value:   e.value,
			at:      e.at,
			status:  bs.status(i, first, last, e.value),
			kind:    kind,
			source:  source,
			changed: match < 0,
		})
	})
	if err != nil {
		return err
	}

	h.persist(b, id, st)

	if ce := b.logger().Check(zap.DebugLevel, "forEach refresh"); ce != nil {
		ce.Write(zap.String("id", id),
			zap.Strings("keys", st.Keys()),
			zap.Strings("added", added),
			zap.Strings("removed", removed(old, st)),
			zap.Int("counter", st.Counter))
	}

	return nil
}

// removed returns the keys in old that aren't in st.
func removed(old, st *IterationState) []string {
	kept := make(map[string]bool, len(st.Elements))
	for _, e := range st.Elements {
		kept[e.Key] = true
	}
	var acc []string
	for _, e := range old.Elements {
		if !kept[e.Key] {
			acc = append(acc, e.Key)
		}
	}
	return acc
}

// applyLegacy iterates without reconciliation.
func (h *ForEachHandler) applyLegacy(ctx context.Context, b *Build, parent *Component) error {
	g := b.Vars.Capture(h.Var, h.VarStatus)
	defer g.Release()

	bs, err := h.bounds(ctx, b)
	if err != nil {
		return err
	}
	kind, raw, elems, err := h.source(ctx, b)
	if err != nil {
		return err
	}
	source := h.liveSource(raw)

	return bs.visit(elems.len(), func(i int, first, last bool) error {
		e := elems.at(i)
		return h.element(ctx, b, parent, &iteration{
			value:  e.value,
			at:     e.at,
			status: bs.status(i, first, last, e.value),
			kind:   kind,
			source: source,
		})
	})
}
