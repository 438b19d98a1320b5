package tools

import (
	"context"
	"testing"

	"github.com/Comcast/treetags/core"
	"github.com/Comcast/treetags/interpreters"

	"github.com/google/go-cmp/cmp"
)

func TestAnalysis(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tmpl, err := ReadTemplate(ctx, "../templates/todo.yaml", interpreters.Standard())
	if err != nil {
		t.Fatal(err)
	}

	a, err := Analyze(tmpl)
	if err != nil {
		t.Fatal(err)
	}
	if 0 < len(a.Errors) {
		t.Fatal(a.Errors)
	}
	if !a.Dynamic {
		t.Fatal("not dynamic")
	}
	if a.Tags["when"] != 2 || a.Tags["forEach"] != 1 {
		t.Fatal(a.Tags)
	}
	if diff := cmp.Diff([]string{"ecmascript"}, a.Interpreters); diff != "" {
		t.Fatal(diff)
	}
	if diff := cmp.Diff([]string{"s", "todo"}, a.Variables); diff != "" {
		t.Fatal(diff)
	}
	if a.Expressions != 6 {
		t.Fatal(a.Expressions)
	}
}

func TestAnalysisProblems(t *testing.T) {
	tmpl := &core.Template{
		Root: &core.TagSource{
			Tag: "div",
			Children: []*core.TagSource{
				{Tag: "if"},
				{Tag: "when", Attrs: map[string]interface{}{"test": true}},
				{Tag: "forEach"},
				{
					Tag: "choose",
					Children: []*core.TagSource{
						{Tag: "otherwise"},
						{Tag: "p"},
					},
				},
			},
		},
	}
	a, err := Analyze(tmpl)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"if: missing test",
		"when: not in a choose",
		"forEach: needs items or end",
		"choose: otherwise isn't last",
		"choose: unexpected p",
		"choose: no when",
	}
	if diff := cmp.Diff(want, a.Errors); diff != "" {
		t.Fatal(diff)
	}
	if a.Dynamic != true || a.Depth != 2 {
		t.Fatal(a.Dynamic, a.Depth)
	}

	if _, err = Analyze(&core.Template{}); err != NoRoot {
		t.Fatal(err)
	}
}
