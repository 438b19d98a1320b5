package core

// Configuration faults are reported when a tag is constructed.
// Attribute faults are reported when a tag is applied.  Errors from
// interpreters are passed through unmodified.

import (
	"errors"
	"fmt"
)

var (
	// ErrInternal occurs when a live indirection is requested for
	// a source kind that doesn't support one.  Shouldn't happen
	// given the source kinds that forEach accepts.
	ErrInternal = errors.New("internal error: no indirection for this source kind")

	// ErrReadOnly occurs when somebody tries to write through a
	// binding that can't be written.
	ErrReadOnly = errors.New("read-only binding")

	// ErrWrongElement occurs when a write through an indexed
	// binding targets an element that's no longer in the source.
	ErrWrongElement = errors.New("write directed at the wrong element")

	// InterpreterNotFound occurs when you try to Compile an
	// Attribute, and the required interpreter isn't in the given
	// map of interpreters.
	InterpreterNotFound = errors.New("interpreter not found")
)

// ConfigError occurs when a tag is constructed with missing or
// inconsistent attributes.  The tag is never usable.
type ConfigError struct {
	Tag  string
	Attr string
	Msg  string
}

func (e *ConfigError) Error() string {
	s := `tag "` + e.Tag + `"`
	if e.Attr != "" {
		s += ` attribute "` + e.Attr + `"`
	}
	return s + ": " + e.Msg
}

// AttributeError occurs when an attribute evaluates to a value that
// the tag can't use.
type AttributeError struct {
	Tag   string
	Attr  string
	Value interface{}
	Msg   string
}

func (e *AttributeError) Error() string {
	s := `attribute "` + e.Attr + `"`
	if e.Tag != "" {
		s = `tag "` + e.Tag + `" ` + s
	}
	return fmt.Sprintf("%s: %s (got %T)", s, e.Msg, e.Value)
}

// UncompiledAttribute occurs when an interpreted Attribute is
// evaluated before it has been Compile()ed.  Usually, this
// compilation happens as part of Template.Compile().
type UncompiledAttribute struct {
	Attr string
}

func (e *UncompiledAttribute) Error() string {
	return `uncompiled attribute "` + e.Attr + `"`
}

// TemplateNotCompiled occurs when a Template is applied before it
// has been Compile()ed.
type TemplateNotCompiled struct {
	Template *Template
}

func (e *TemplateNotCompiled) Error() string {
	return `template "` + e.Template.Name + `" not compiled`
}

// tagged fills in the tag name of an AttributeError that doesn't
// have one yet.
func tagged(tag string, err error) error {
	var ae *AttributeError
	if errors.As(err, &ae) && ae.Tag == "" {
		ae.Tag = tag
	}
	return err
}
