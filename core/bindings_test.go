package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBindingsCapture(t *testing.T) {
	bs := NewBindings().Extend("x", 1)
	g := bs.Capture("x", "", "y")
	bs["x"] = 2
	bs["y"] = 3
	g.Release()

	if diff := cmp.Diff(Bindings{"x": 1}, bs); diff != "" {
		t.Fatal(diff)
	}
}

func TestBindingsResolve(t *testing.T) {
	bs := NewBindings().Extend("x", &IteratedRef{Value: "a"}).Extend("y", 2)
	resolved, err := bs.Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Bindings{"x": "a", "y": 2}, resolved); diff != "" {
		t.Fatal(diff)
	}
	if _, is := bs["x"].(Ref); !is {
		t.Fatal("original modified")
	}
}

func TestIndexedRef(t *testing.T) {
	src := []interface{}{"a", "b", "c"}
	source := func() (interface{}, error) { return src, nil }

	r := NewIndexedRef(source, 1, "b")
	if x, _ := r.Get(); x != "b" {
		t.Fatal(x)
	}
	if err := r.Set("B"); err != nil {
		t.Fatal(err)
	}
	if src[1] != "B" {
		t.Fatal(src)
	}
	if x, _ := r.Get(); x != "B" {
		t.Fatal(x)
	}

	// The element at that position isn't the one we saw.
	src[1] = "other"
	if err := r.Set("C"); !errors.Is(err, ErrWrongElement) {
		t.Fatal(err)
	}

	r = NewIndexedRef(source, 5, "z")
	if err := r.Set("C"); !errors.Is(err, ErrWrongElement) {
		t.Fatal(err)
	}
}

func TestIndexedRefArray(t *testing.T) {
	src := [2]string{"a", "b"}
	r := NewIndexedRef(func() (interface{}, error) { return src, nil }, 0, "a")
	if err := r.Set("A"); !errors.Is(err, ErrReadOnly) {
		t.Fatal(err)
	}
}

func TestIndexedRefConversion(t *testing.T) {
	strs := []string{"a", "b"}
	r := NewIndexedRef(func() (interface{}, error) { return strs, nil }, 0, "a")
	if err := r.Set(65); err == nil {
		t.Fatal("int stored into a string")
	}
	if diff := cmp.Diff([]string{"a", "b"}, strs); diff != "" {
		t.Fatal(diff)
	}

	ints := []int{1, 2}
	source := func() (interface{}, error) { return ints, nil }
	if err := NewIndexedRef(source, 0, 1).Set(3.5); err == nil {
		t.Fatal("3.5 truncated into an int")
	}
	if err := NewIndexedRef(source, 1, 2).Set(true); err == nil {
		t.Fatal("bool stored into an int")
	}
	if diff := cmp.Diff([]int{1, 2}, ints); diff != "" {
		t.Fatal(diff)
	}

	if err := NewIndexedRef(source, 0, 1).Set(float64(3)); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{3, 2}, ints); diff != "" {
		t.Fatal(diff)
	}
}

func TestMappedRef(t *testing.T) {
	src := map[string]int{"a": 1, "b": 2}
	r := NewMappedRef(func() (interface{}, error) { return src, nil }, "a", 1)

	src["a"] = 10
	x, err := r.Get()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(MapEntry{Key: "a", Value: 10}, x); diff != "" {
		t.Fatal(diff)
	}

	if err = r.Set(11); err != nil {
		t.Fatal(err)
	}
	if src["a"] != 11 {
		t.Fatal(src)
	}

	if err = r.Set("eleven"); err == nil {
		t.Fatal("should have complained")
	}

	delete(src, "a")
	if x, _ = r.Get(); x.(MapEntry).Value != 11 {
		t.Fatal(x)
	}
}

func TestReadOnlyRefs(t *testing.T) {
	for _, r := range []Ref{
		&IteratedRef{Value: 1},
		&StatusRef{Status: IterationStatus{Index: 3}},
	} {
		if err := r.Set(2); !errors.Is(err, ErrReadOnly) {
			t.Fatal(err)
		}
	}
}

func TestBind(t *testing.T) {
	source := func() (interface{}, error) { return []interface{}{"a"}, nil }

	tests := []struct {
		name     string
		detached bool
		source   SourceFunc
		kind     SourceKind
		at       interface{}
		check    func(x interface{}) bool
		err      error
	}{
		{
			name:     "detached",
			detached: true,
			source:   source,
			kind:     SourceList,
			at:       0,
			check:    func(x interface{}) bool { return x == "a" },
		},
		{
			name:  "no source",
			kind:  SourceList,
			check: func(x interface{}) bool { return x == "a" },
		},
		{
			name:   "list",
			source: source,
			kind:   SourceList,
			at:     0,
			check:  func(x interface{}) bool { _, is := x.(*IndexedRef); return is },
		},
		{
			name:   "map",
			source: source,
			kind:   SourceMap,
			at:     "k",
			check:  func(x interface{}) bool { _, is := x.(*MappedRef); return is },
		},
		{
			name:   "collection",
			source: source,
			kind:   SourceCollection,
			check:  func(x interface{}) bool { _, is := x.(*IteratedRef); return is },
		},
		{
			name:   "range",
			source: source,
			kind:   SourceRange,
			err:    ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bs := NewBindings()
			err := Bind(bs, "x", "a", tt.detached, tt.source, tt.kind, tt.at)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatal(err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if !tt.check(bs["x"]) {
				t.Fatalf("%T", bs["x"])
			}
		})
	}
}
