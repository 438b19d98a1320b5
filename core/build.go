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

package core

import (
	"context"

	"go.uber.org/zap"
)

// Phase says which pass over the view is in progress.
type Phase int

const (
	// InitialBuild is the first build of a view.  No state exists.
	InitialBuild Phase = iota

	// Restore reconstructs a view from its saved state without
	// re-running side-effecting evaluations.
	Restore

	// Refresh rebuilds a view live and reconciles against the
	// saved state.
	Refresh
)

func (p Phase) String() string {
	switch p {
	case InitialBuild:
		return "initialBuild"
	case Restore:
		return "restore"
	case Refresh:
		return "refresh"
	}
	return "unknown"
}

// IsBuildingInitialState is the Build attribute that's present (and
// true) while a subtree is being built under the initial-state flag.
// Collaborators that capture component state can look at it.
const IsBuildingInitialState = "isBuildingInitialState"

// Flags are the structural signals for one view.
type Flags struct {
	// PartialStateSaving says the view persists only the minimal
	// state needed to reconstruct it.
	PartialStateSaving bool `json:"partialStateSaving" yaml:"partialStateSaving"`

	// RefreshTransientBuildOnPSS asks control-flow tags to mark
	// their parent for full save/restore.
	RefreshTransientBuildOnPSS bool `json:"refreshTransientBuildOnPSS" yaml:"refreshTransientBuildOnPSS"`

	// RefreshingTransientBuild is set while a transient build is
	// being refreshed.
	RefreshingTransientBuild bool `json:"refreshingTransientBuild,omitempty" yaml:"refreshingTransientBuild,omitempty"`

	// DynamicSection is set while building a section that adds
	// components dynamically.
	DynamicSection bool `json:"dynamicSection,omitempty" yaml:"dynamicSection,omitempty"`
}

// Handler builds a subtree under a parent Component.
//
// Every tag implements Handler, and a tag's body is just another
// Handler.
type Handler interface {
	Apply(ctx context.Context, b *Build, parent *Component) error
}

// HandlerFunc lets a plain function act as a Handler.
type HandlerFunc func(ctx context.Context, b *Build, parent *Component) error

func (f HandlerFunc) Apply(ctx context.Context, b *Build, parent *Component) error {
	return f(ctx, b, parent)
}

// Build is everything that's specific to a single build of a view.
//
// A Build is used by one goroutine.
type Build struct {
	Phase Phase

	// State is where the control-flow tags read and write their
	// persisted decisions.
	State StateStore

	Sections *Sections

	// Vars are the current variable bindings.
	Vars Bindings

	Flags Flags

	// Attributes are request-scoped attributes that collaborators
	// can inspect.  See IsBuildingInitialState.
	Attributes map[string]interface{}

	Logger *zap.Logger

	markInitialState bool
}

// NewBuild makes a Build with a fresh Sections stack rooted at the
// given id.
//
// The Logger is a no-op logger.  Replace it if you want to see what
// the tags are doing.
func NewBuild(phase Phase, state StateStore, root string) *Build {
	if state == nil {
		state = NewViewState()
	}
	return &Build{
		Phase:      phase,
		State:      state,
		Sections:   NewSections(root),
		Vars:       NewBindings(),
		Attributes: make(map[string]interface{}),
		Logger:     zap.NewNop(),
	}
}

// IsMarkInitialState reports whether the current subtree is being
// built under the initial-state flag.
func (b *Build) IsMarkInitialState() bool {
	return b.markInitialState
}

// InitialStateGuard restores the initial-state flag and its
// attribute when released.
type InitialStateGuard struct {
	b        *Build
	flag     bool
	attr     interface{}
	hadAttr  bool
	released bool
}

// MarkInitialState installs the given initial-state flag.
//
//	g := b.MarkInitialState(true)
//	defer g.Release()
func (b *Build) MarkInitialState(on bool) *InitialStateGuard {
	g := &InitialStateGuard{
		b:    b,
		flag: b.markInitialState,
	}
	g.attr, g.hadAttr = b.Attributes[IsBuildingInitialState]

	b.markInitialState = on
	if on {
		b.Attributes[IsBuildingInitialState] = true
	} else {
		delete(b.Attributes, IsBuildingInitialState)
	}
	return g
}

// Release puts back the flag and attribute that were in effect when
// the guard was made.  Calling Release more than once is harmless.
func (g *InitialStateGuard) Release() {
	if g.released {
		return
	}
	g.released = true
	g.b.markInitialState = g.flag
	if g.hadAttr {
		g.b.Attributes[IsBuildingInitialState] = g.attr
	} else {
		delete(g.b.Attributes, IsBuildingInitialState)
	}
}

// WithInitialState runs f with the given initial-state flag.  The
// previous flag is restored when f returns or panics.
func (b *Build) WithInitialState(on bool, f func() error) error {
	g := b.MarkInitialState(on)
	defer g.Release()
	return f()
}

// buildMarked runs f under the initial-state flag when the subtree
// is new and the view uses partial state saving.  Otherwise f runs
// under the ambient flag.
func (b *Build) buildMarked(changed bool, f func() error) error {
	if changed && b.Flags.PartialStateSaving {
		return b.WithInitialState(true, f)
	}
	return f()
}

// notifyParent passes the structural notifications of a dynamic
// control-flow tag on to the parent component.
func (b *Build) notifyParent(parent *Component) {
	if parent == nil {
		return
	}
	f := b.Flags
	if f.PartialStateSaving && f.RefreshTransientBuildOnPSS && !f.RefreshingTransientBuild {
		parent.RestoreFully = true
	}
	if f.DynamicSection {
		parent.RefreshDynamically = true
	}
}

// logger is never nil.
func (b *Build) logger() *zap.Logger {
	if b.Logger == nil {
		return zap.NewNop()
	}
	return b.Logger
}
