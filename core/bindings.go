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
	"fmt"
	"reflect"
)

// Bindings is a map from variable names to their values.
//
// A value can be a Ref, which is resolved when the variable is read.
type Bindings map[string]interface{}

func NewBindings() Bindings {
	return make(Bindings, 8)
}

// Extend adds the variable; modifies and returns the Bindings.
func (bs Bindings) Extend(name string, v interface{}) Bindings {
	bs[name] = v
	return bs
}

// Remove removes the given variables.
//
// The Bindings are modified.
func (bs Bindings) Remove(names ...string) Bindings {
	for _, name := range names {
		delete(bs, name)
	}
	return bs
}

// Copy makes a shallow copy of the Bindings.
func (bs Bindings) Copy() Bindings {
	acc := make(Bindings, len(bs))
	for k, v := range bs {
		acc[k] = v
	}
	return acc
}

// Get returns the value of the variable, resolving it if it's a Ref.
func (bs Bindings) Get(name string) (interface{}, bool, error) {
	v, have := bs[name]
	if !have {
		return nil, false, nil
	}
	if r, is := v.(Ref); is {
		x, err := r.Get()
		return x, true, err
	}
	return v, true, nil
}

// Set writes to a variable.  If the variable is a Ref, the write
// goes through the Ref.
func (bs Bindings) Set(name string, v interface{}) error {
	if r, is := bs[name].(Ref); is {
		return r.Set(v)
	}
	bs[name] = v
	return nil
}

// Resolve returns a copy of the Bindings with every Ref replaced by
// its current value.
func (bs Bindings) Resolve() (Bindings, error) {
	acc := make(Bindings, len(bs))
	for k, v := range bs {
		if r, is := v.(Ref); is {
			x, err := r.Get()
			if err != nil {
				return nil, err
			}
			v = x
		}
		acc[k] = v
	}
	return acc, nil
}

// BindingsGuard restores captured variables when released.
type BindingsGuard struct {
	bs    Bindings
	names []string
	vals  []interface{}
	had   []bool
}

// Capture remembers the current bindings for the given names.  Empty
// names are ignored.
//
//	g := b.Vars.Capture("item", "status")
//	defer g.Release()
func (bs Bindings) Capture(names ...string) *BindingsGuard {
	g := &BindingsGuard{
		bs: bs,
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		v, have := bs[name]
		g.names = append(g.names, name)
		g.vals = append(g.vals, v)
		g.had = append(g.had, have)
	}
	return g
}

// Release puts back the captured bindings.  Variables that were
// unbound at capture time are removed.
func (g *BindingsGuard) Release() {
	for i := len(g.names) - 1; 0 <= i; i-- {
		if g.had[i] {
			g.bs[g.names[i]] = g.vals[i]
		} else {
			delete(g.bs, g.names[i])
		}
	}
}

// Ref is an indirection that a variable can be bound to instead of
// a plain value.
type Ref interface {
	Get() (interface{}, error)
	Set(v interface{}) error
}

// SourceFunc returns the live source of an iteration.  It can be
// lazy.
type SourceFunc func() (interface{}, error)

// IndexedRef refers to an element of a list by position.
//
// Reads return the element value captured when the Ref was made.
// Writes go to the live list, but only if the live element at that
// position is still the captured one.
type IndexedRef struct {
	Source SourceFunc
	Index  int

	value interface{}
}

func NewIndexedRef(source SourceFunc, index int, value interface{}) *IndexedRef {
	return &IndexedRef{
		Source: source,
		Index:  index,
		value:  value,
	}
}

func (r *IndexedRef) Get() (interface{}, error) {
	return r.value, nil
}

func (r *IndexedRef) Set(v interface{}) error {
	src, err := r.Source()
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(src)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return ErrWrongElement
	}
	if r.Index < 0 || rv.Len() <= r.Index {
		return ErrWrongElement
	}
	elem := rv.Index(r.Index)
	if !Equal(elem.Interface(), r.value) {
		return ErrWrongElement
	}
	if !elem.CanSet() {
		return ErrReadOnly
	}
	x, err := assignable(v, elem.Type())
	if err != nil {
		return err
	}
	elem.Set(x)
	r.value = v
	return nil
}

// MappedRef refers to an entry in a map by key.
//
// Reads and writes go through to the live map.  A read returns a
// MapEntry.
type MappedRef struct {
	Source SourceFunc
	Key    interface{}

	entry MapEntry
}

func NewMappedRef(source SourceFunc, key interface{}, value interface{}) *MappedRef {
	return &MappedRef{
		Source: source,
		Key:    key,
		entry: MapEntry{
			Key:   key,
			Value: value,
		},
	}
}

func (r *MappedRef) lookup() (reflect.Value, reflect.Value, error) {
	src, err := r.Source()
	if err != nil {
		return reflect.Value{}, reflect.Value{}, err
	}
	m := reflect.ValueOf(src)
	if m.Kind() != reflect.Map {
		return reflect.Value{}, reflect.Value{}, fmt.Errorf("source is a %T, not a map", src)
	}
	k, err := assignable(r.Key, m.Type().Key())
	if err != nil {
		return reflect.Value{}, reflect.Value{}, err
	}
	return m, k, nil
}

func (r *MappedRef) Get() (interface{}, error) {
	m, k, err := r.lookup()
	if err != nil {
		return nil, err
	}
	v := m.MapIndex(k)
	if !v.IsValid() {
		// Entry is gone.  Stay with what we saw.
		return r.entry, nil
	}
	return MapEntry{
		Key:   r.Key,
		Value: v.Interface(),
	}, nil
}

func (r *MappedRef) Set(v interface{}) error {
	m, k, err := r.lookup()
	if err != nil {
		return err
	}
	x, err := assignable(v, m.Type().Elem())
	if err != nil {
		return err
	}
	if m.IsNil() {
		return ErrReadOnly
	}
	m.SetMapIndex(k, x)
	r.entry.Value = v
	return nil
}

// IteratedRef is a read-only Ref for an element of a collection that
// has no positions or keys.
type IteratedRef struct {
	Value interface{}
}

func (r *IteratedRef) Get() (interface{}, error) {
	return r.Value, nil
}

func (r *IteratedRef) Set(v interface{}) error {
	return ErrReadOnly
}

// StatusRef is a read-only Ref to an IterationStatus.
type StatusRef struct {
	Status IterationStatus
}

func (r *StatusRef) Get() (interface{}, error) {
	return r.Status, nil
}

func (r *StatusRef) Set(v interface{}) error {
	return ErrReadOnly
}

// Bind binds the variable to either a plain value or to a Ref into
// the live source.
//
// A detached binding or a missing source gives a plain value.
// Otherwise the kind of source determines the kind of Ref.  For a
// list, at is the element's position; for a map, it's the entry's
// key.
func Bind(bs Bindings, name string, value interface{}, detached bool, source SourceFunc, kind SourceKind, at interface{}) error {
	if name == "" {
		return nil
	}
	if detached || source == nil {
		bs[name] = value
		return nil
	}
	switch kind {
	case SourceList:
		i, is := at.(int)
		if !is {
			return ErrInternal
		}
		bs[name] = NewIndexedRef(source, i, value)
	case SourceMap:
		bs[name] = NewMappedRef(source, at, asMapEntry(value).Value)
	case SourceCollection:
		bs[name] = &IteratedRef{Value: value}
	default:
		return ErrInternal
	}
	return nil
}

// assignable converts v to a reflect.Value of type t.
func assignable(v interface{}, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Ptr, reflect.Map, reflect.Slice:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("can't use nil as a %s", t)
	}
	x := reflect.ValueOf(v)
	if x.Type().AssignableTo(t) {
		return x, nil
	}
	// Only numbers convert, and only when nothing is lost.
	if numeric(x.Kind()) && numeric(t.Kind()) {
		y := x.Convert(t)
		if y.Convert(x.Type()).Interface() == x.Interface() {
			return y, nil
		}
		return reflect.Value{}, fmt.Errorf("can't use %v as a %s without loss", v, t)
	}
	return reflect.Value{}, fmt.Errorf("can't use a %T as a %s", v, t)
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
