package tools

import (
	"context"
	"fmt"
	"html"
	"io"
	"sort"

	"github.com/Comcast/treetags/core"
	"github.com/Comcast/treetags/interpreters"
	. "github.com/Comcast/treetags/util/testutil"

	md "github.com/russross/blackfriday/v2"
)

// RenderTemplateHTML writes an HTML fragment documenting the
// template's tags.  Docs are Markdown.
func RenderTemplateHTML(t *core.Template, out io.Writer) error {
	if t.Root == nil {
		return NoRoot
	}

	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`<div class="templateDoc doc">%s</div>`, md.Run([]byte(t.Doc)))

	var tag func(s *core.TagSource)
	tag = func(s *core.TagSource) {
		class := "tag"
		if core.DynamicTags[s.Tag] {
			class += " dynamic"
		}
		f(`<li class="%s"><span class="tagName">%s</span>`, class, html.EscapeString(s.Tag))
		if s.Doc != "" {
			f(`<div class="tagDoc doc">%s</div>`, md.Run([]byte(s.Doc)))
		}
		if 0 < len(s.Attrs) {
			names := make([]string, 0, len(s.Attrs))
			for name := range s.Attrs {
				names = append(names, name)
			}
			sort.Strings(names)
			f(`<table class="attrs">`)
			for _, name := range names {
				f(`<tr><td>%s</td><td><code>%s</code></td></tr>`,
					html.EscapeString(name), html.EscapeString(JS(s.Attrs[name])))
			}
			f(`</table>`)
		}
		if 0 < len(s.Children) {
			f(`<ul>`)
			for _, c := range s.Children {
				tag(c)
			}
			f(`</ul>`)
		}
		f(`</li>`)
	}

	f(`<ul class="tags">`)
	tag(t.Root)
	f(`</ul>`)

	return nil
}

func RenderTemplatePage(t *core.Template, out io.Writer, cssFiles []string) error {

	if cssFiles == nil {
		cssFiles = []string{"/static/template-html.css"}
	}

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, html.EscapeString(t.Name))

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, html.EscapeString(t.Name))

	if err := RenderTemplateHTML(t, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// ReadAndRenderTemplatePage reads a template, checks that it
// compiles, and writes its documentation page.
func ReadAndRenderTemplatePage(filename string, cssFiles []string, out io.Writer) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t, err := ReadTemplate(ctx, filename, interpreters.Standard())
	if err != nil {
		return err
	}

	return RenderTemplatePage(t, out, cssFiles)
}
