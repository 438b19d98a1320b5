package tools

import (
	"context"
	"fmt"
	"io/ioutil"

	"github.com/Comcast/treetags/core"

	"github.com/jsccast/yaml"
)

// ParseTemplate reads a Template from YAML (or JSON).
func ParseTemplate(src []byte) (*core.Template, error) {
	var t core.Template
	if err := yaml.Unmarshal(src, &t); err != nil {
		return nil, err
	}
	if t.Root == nil {
		return nil, NoRoot
	}
	return &t, nil
}

// ReadTemplate reads and compiles the Template in the given file.
func ReadTemplate(ctx context.Context, filename string, interpreters core.InterpretersMap) (*core.Template, error) {
	src, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	t, err := ParseTemplate(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	if err = t.Compile(ctx, interpreters, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return t, nil
}
