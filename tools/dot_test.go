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

package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Comcast/treetags/interpreters"
)

func TestDot(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "g.dot")

	out, err := os.Create(filename)
	if err != nil {
		t.Fatal(err)
	}

	tmpl, err := ReadTemplate(context.Background(), "../templates/todo.yaml", interpreters.Standard())
	if err != nil {
		t.Fatal(err)
	}

	if err := Dot(tmpl, out, "0.2.0"); err != nil {
		t.Fatal(err)
	}

	bs, err := os.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	dot := string(bs)
	for _, want := range []string{
		`"0" -> "0.0"`,
		`"0.2" -> "0.2.0"`,
		`color="red"`,
		`var: todo`,
		`todos.length == 0`,
	} {
		if !strings.Contains(dot, want) {
			t.Fatalf("no %s in\n%s", want, dot)
		}
	}
}
