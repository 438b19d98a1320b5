package tools

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderTemplateHTML(t *testing.T) {
	out := bytes.NewBuffer(make([]byte, 0, 1024*128))

	if err := ReadAndRenderTemplatePage("../templates/todo.yaml", []string{"template.css"}, out); err != nil {
		t.Fatal(err)
	}

	page := out.String()
	for _, want := range []string{
		`<title>todo</title>`,
		`href="template.css"`,
		`<code>todos</code>`,
		`<li class="tag dynamic"><span class="tagName">forEach</span>`,
	} {
		if !strings.Contains(page, want) {
			t.Fatalf("no %s", want)
		}
	}

	if err := ReadAndRenderTemplatePage("../templates/missing.yaml", nil, out); err == nil {
		t.Fatal("didn't protest")
	}
}
