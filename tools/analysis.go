/* Copyright 2018 Comcast Cable Communications Management, LLC
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

package tools

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Comcast/treetags/core"
)

// TemplateAnalysis is a summary of a template's structure along with
// problems that can be found without compiling it.
type TemplateAnalysis struct {
	tmpl *core.Template

	Errors []string

	// Tags counts each tag name.
	Tags     map[string]int
	TagCount int
	Depth    int

	// Dynamic reports whether any tag persists state.
	Dynamic bool

	Expressions  int
	Interpreters []string

	// Variables are the names bound by var and varStatus
	// attributes.
	Variables []string
}

var NoRoot = errors.New("template has no root tag")

// required lists the attributes that a control-flow tag can't do
// without.  forEach is checked separately.
var required = map[string][]string{
	"if":   {"test"},
	"when": {"test"},
	"set":  {"var", "value"},
	"text": {"value"},
}

// Analyze reports on a template's tag tree.
func Analyze(t *core.Template) (*TemplateAnalysis, error) {
	if t.Root == nil {
		return nil, NoRoot
	}

	a := TemplateAnalysis{
		tmpl:    t,
		Tags:    make(map[string]int),
		Errors:  make([]string, 0, 8),
		Dynamic: t.Dynamic(),
	}

	interpreter := t.Interpreter
	if interpreter == "" {
		interpreter = core.DefaultInterpreter
	}

	var (
		interpreters = make(map[string]bool)
		variables    = make(map[string]bool)
		parents      = make([]string, 0, 16)
	)

	problem := func(s *core.TagSource, format string, args ...interface{}) {
		a.Errors = append(a.Errors, s.Tag+": "+fmt.Sprintf(format, args...))
	}

	t.Root.Walk(func(s *core.TagSource, depth int) error {
		parents = append(parents[:depth], s.Tag)
		a.TagCount++
		a.Tags[s.Tag]++
		if a.Depth < depth {
			a.Depth = depth
		}

		for _, name := range required[s.Tag] {
			if _, have := s.Attrs[name]; !have {
				problem(s, "missing %s", name)
			}
		}

		switch s.Tag {
		case "forEach", "legacyForEach":
			_, items := s.Attrs["items"]
			_, end := s.Attrs["end"]
			if !items && !end {
				problem(s, "needs items or end")
			}
		case "choose":
			whens := 0
			for i, c := range s.Children {
				switch c.Tag {
				case "when":
					whens++
				case "otherwise":
					if i != len(s.Children)-1 {
						problem(s, "otherwise isn't last")
					}
				default:
					problem(s, "unexpected %s", c.Tag)
				}
			}
			if whens == 0 {
				problem(s, "no when")
			}
		case "when", "otherwise":
			if depth == 0 || parents[depth-1] != "choose" {
				problem(s, "not in a choose")
			}
		}

		for _, name := range []string{"var", "varStatus"} {
			if v, is := s.Attrs[name].(string); is && v != "" {
				variables[v] = true
			}
		}

		for name, x := range s.Attrs {
			attr := core.ParseAttribute(name, x, interpreter)
			if attr.IsExpr() {
				a.Expressions++
				interpreters[attr.Interpreter] = true
			}
		}
		return nil
	})

	a.Interpreters = keysToStringSlice(interpreters)
	a.Variables = keysToStringSlice(variables)

	return &a, nil
}

// keysToStringSlice returns the map's keys in order.
func keysToStringSlice(m map[string]bool) []string {
	list := make([]string, 0, len(m))
	for key := range m {
		list = append(list, key)
	}
	sort.Strings(list)
	return list
}
