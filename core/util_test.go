package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCanonicalize(t *testing.T) {
	src := map[string]interface{}{
		"n":    1,
		"list": []int{1, 2},
		"pt":   struct{ X int }{3},
	}
	x, err := Canonicalize(src)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]interface{}{
		"n":    1.0,
		"list": []interface{}{1.0, 2.0},
		"pt":   map[string]interface{}{"X": 3.0},
	}
	if diff := cmp.Diff(want, x); diff != "" {
		t.Fatal(diff)
	}

	// A copy, not a view.
	x.(map[string]interface{})["n"] = 2.0
	if src["n"] != 1 {
		t.Fatal(src)
	}

	if _, err = Canonicalize(make(chan int)); err == nil {
		t.Fatal("channel canonicalized")
	}
}
