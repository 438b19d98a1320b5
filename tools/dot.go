package tools

// dot -Tpng g.dot > g.png

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	. "github.com/Comcast/treetags/core"

	"gopkg.in/yaml.v2"
)

// Dot makes a Graphviz dot file for the given template's tag tree.
//
// Each tag is a node labeled with its attributes.  Control-flow tags
// are colored.  The optional highlight is a tag path (like "0.2.1",
// the child indexes from the root) to draw in red.
func Dot(t *Template, w io.WriteCloser, highlight string) error {
	if t.Root == nil {
		return NoRoot
	}

	yamlAttrs := true

	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=TB,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "10"]
`)

	node := func(name string, s *TagSource) {
		label := escape(s.Tag)
		if s.Doc != "" {
			doc := s.Doc
			if 40 < len(doc) {
				period := strings.Index(doc, ". ")
				if 0 < period {
					doc = doc[0 : period+1]
				}
			}
			label += "<BR/><FONT POINT-SIZE='8'>" + escape(doc) + "</FONT>"
		}
		if 0 < len(s.Attrs) {
			var js []byte
			var err error
			if yamlAttrs {
				js, err = yaml.Marshal(sortedAttrs(s.Attrs))
			} else {
				js, err = json.MarshalIndent(s.Attrs, " ", " ")
			}
			if err != nil {
				js = []byte(err.Error())
			}
			label += `<FONT POINT-SIZE="8"><BR/>` +
				strings.Replace(escape(string(js)), "\n", `<BR ALIGN="LEFT"/>`, -1) +
				`</FONT>`
		}

		fillcolor := "#99ddc8"
		shape := "record"
		style := "filled"
		switch s.Tag {
		case "if", "when", "otherwise":
			fillcolor = "#52aa5e"
		case "choose":
			fillcolor = "#2d93ad"
		case "forEach", "legacyForEach":
			fillcolor = "#f4d35e"
			style += ",bold"
		case "set", "catch":
			shape = "note"
		case TextTag:
			style += ",dashed"
		}
		color := "black"
		if name == highlight {
			color = "red"
			fillcolor = "#f98b8b"
		}
		fmt.Fprintf(w, "  %q [shape=\"%s\", style=\"%s\", color=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			name, shape, style, color, fillcolor, label)
	}

	var process func(name string, s *TagSource)
	process = func(name string, s *TagSource) {
		node(name, s)
		for i, c := range s.Children {
			child := fmt.Sprintf("%s.%d", name, i)
			process(child, c)
			fmt.Fprintf(w, "  %q -> %q [ label = \"%d/%d\" ]\n", name, child, i+1, len(s.Children))
		}
	}
	process("0", t.Root)

	fmt.Fprintf(w, "}\n")
	return w.Close()
}

// sortedAttrs gives yaml.v2 a MapSlice so the labels are stable.
func sortedAttrs(m map[string]interface{}) yaml.MapSlice {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	acc := make(yaml.MapSlice, 0, len(names))
	for _, name := range names {
		acc = append(acc, yaml.MapItem{Key: name, Value: m[name]})
	}
	return acc
}

// PNG generates a PNG image based on output from Dot.
//
// This function with write two files: basename.dot and basename.png,
// where the basename is the given string.
func PNG(t *Template, basename string, highlight string) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(t, dotfile, highlight); err != nil {
		return pngname, err
	}
	cmd := "dot -Tpng -Gstart=1 " + dotname + " > " + pngname
	if err := exec.Command("bash", "-c", cmd).Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}

func escape(s string) string {
	s = strings.Replace(s, "&", `&amp;`, -1)
	s = strings.Replace(s, "<", `&lt;`, -1)
	s = strings.Replace(s, ">", `&gt;`, -1)
	return s
}
