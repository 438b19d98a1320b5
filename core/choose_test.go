package core

import (
	"errors"
	"testing"
)

type chooseFixture struct {
	tests []interface{}
	evals int
	h     *ChooseHandler
}

func newChooseFixture(t *testing.T, n int, otherwise bool) *chooseFixture {
	f := &chooseFixture{
		tests: make([]interface{}, n),
	}
	whens := make([]*WhenHandler, n)
	for i := range whens {
		f.tests[i] = false
		whens[i] = &WhenHandler{
			Test: counted("test", &f.tests[i], &f.evals),
			Next: &ElementHandler{
				Name:  "when",
				Attrs: Attrs{"value": Literal("value", i)},
			},
		}
	}
	var o *OtherwiseHandler
	if otherwise {
		o = &OtherwiseHandler{
			Next: &ElementHandler{
				Name:  "otherwise",
				Attrs: Attrs{"value": Literal("value", OtherwiseSelected)},
			},
		}
	}
	h, err := NewChooseHandler(whens, o)
	if err != nil {
		t.Fatal(err)
	}
	f.h = h
	return f
}

func TestChooseFirstWins(t *testing.T) {
	f := newChooseFixture(t, 3, true)
	f.tests[1] = true
	f.tests[2] = true

	state := NewViewState()
	root, _ := run{phase: InitialBuild, state: state}.apply(t, f.h)

	if len(root.Children) != 1 {
		t.Fatal(len(root.Children))
	}
	if root.Children[0].Attrs["value"] != 1 {
		t.Fatal(root.Children[0].Attrs)
	}
	if root.Children[0].Id != "0_1_0" {
		t.Fatal(root.Children[0].Id)
	}
	if state["0"] != 1 {
		t.Fatal(state["0"])
	}
	// Stopped at the first true test.
	if f.evals != 2 {
		t.Fatal(f.evals)
	}
}

func TestChooseOtherwise(t *testing.T) {
	f := newChooseFixture(t, 2, true)
	state := NewViewState()
	root, _ := run{phase: InitialBuild, state: state}.apply(t, f.h)
	if len(root.Children) != 1 || root.Children[0].Tag != "otherwise" {
		t.Fatal(childIds(root))
	}
	if root.Children[0].Id != "0_2_0" {
		t.Fatal(root.Children[0].Id)
	}
	if state["0"] != OtherwiseSelected {
		t.Fatal(state["0"])
	}
}

func TestChooseNone(t *testing.T) {
	f := newChooseFixture(t, 2, false)
	state := NewViewState()
	root, _ := run{phase: InitialBuild, state: state}.apply(t, f.h)
	if len(root.Children) != 0 {
		t.Fatal(len(root.Children))
	}
	if state["0"] != NoneSelected {
		t.Fatal(state["0"])
	}

	// Restore replays nothing.
	f.tests[0] = true
	root, _ = run{phase: Restore, state: state}.apply(t, f.h)
	if len(root.Children) != 0 {
		t.Fatal(len(root.Children))
	}
}

func TestChooseRestoreDoesNotEvaluate(t *testing.T) {
	f := newChooseFixture(t, 3, true)
	f.tests[2] = true
	state := NewViewState()
	run{phase: InitialBuild, state: state}.apply(t, f.h)
	evals := f.evals

	f.tests[0] = true
	root, _ := run{phase: Restore, state: state}.apply(t, f.h)
	if f.evals != evals {
		t.Fatal("tests evaluated during restore")
	}
	if root.Children[0].Attrs["value"] != 2 {
		t.Fatal(root.Children[0].Attrs)
	}
	if state["0"] != 2 {
		t.Fatal(state["0"])
	}
}

func TestChooseExclusive(t *testing.T) {
	f := newChooseFixture(t, 3, true)
	state := NewViewState()
	flags := Flags{PartialStateSaving: true}

	run{phase: InitialBuild, state: state, flags: flags}.apply(t, f.h)

	for i := 0; i < 8; i++ {
		for j := range f.tests {
			f.tests[j] = i&(1<<uint(j)) != 0
		}
		prev := state["0"]
		root, _ := run{phase: Refresh, state: state, flags: flags}.apply(t, f.h)
		if len(root.Children) != 1 {
			t.Fatalf("%d: built %d branches", i, len(root.Children))
		}
		c := root.Children[0]
		if c.Attrs["value"] != state["0"] {
			t.Fatalf("%d: built %v but persisted %v", i, c.Attrs["value"], state["0"])
		}
		if c.InitialState != (prev != state["0"]) {
			t.Fatalf("%d: initial state %v", i, c.InitialState)
		}
	}
}

func TestChooseBranchIdsStable(t *testing.T) {
	f := newChooseFixture(t, 2, true)
	state := NewViewState()

	f.tests[1] = true
	root, _ := run{phase: InitialBuild, state: state}.apply(t, f.h)
	before := root.Children[0].Id

	f.tests[1] = false
	f.tests[0] = true
	run{phase: Refresh, state: state}.apply(t, f.h)

	f.tests[0] = false
	f.tests[1] = true
	root, _ = run{phase: Refresh, state: state}.apply(t, f.h)
	if root.Children[0].Id != before {
		t.Fatal(root.Children[0].Id, before)
	}
}

func TestChooseNotifies(t *testing.T) {
	f := newChooseFixture(t, 1, false)
	root, _ := run{
		phase: InitialBuild,
		flags: Flags{
			PartialStateSaving:         true,
			RefreshTransientBuildOnPSS: true,
			DynamicSection:             true,
		},
	}.apply(t, f.h)
	if !root.RestoreFully || !root.RefreshDynamically {
		t.Fatal(root.RestoreFully, root.RefreshDynamically)
	}
}

func TestChooseConfig(t *testing.T) {
	_, err := NewChooseHandler(nil, &OtherwiseHandler{})
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatal(err)
	}
	if ce.Tag != "choose" {
		t.Fatal(ce.Tag)
	}

	if _, err = NewChooseHandler([]*WhenHandler{{}}, nil); err == nil {
		t.Fatal("when without test")
	}
}

func TestChooseStaleSelection(t *testing.T) {
	f := newChooseFixture(t, 1, false)
	state := NewViewState()
	state["0"] = 7
	root, _ := run{phase: Restore, state: state}.apply(t, f.h)
	if len(root.Children) != 0 {
		t.Fatal(len(root.Children))
	}
	if state["0"] != NoneSelected {
		t.Fatal(state["0"])
	}
}
