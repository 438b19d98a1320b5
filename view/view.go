/* Copyright 2019 Comcast Cable Communications Management, LLC
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

// Package view runs a compiled Template through the request
// lifecycle.
//
// The first request for a view is an initial build.  Later requests
// (postbacks) restore the tree from the saved ViewState and then
// refresh it against the current bindings.  The ViewState is saved
// after every request.
package view

import (
	"context"
	"errors"
	"fmt"

	"github.com/Comcast/treetags/core"
	"github.com/Comcast/treetags/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Renderer renders the views of one Template.
//
// A Renderer can serve concurrent requests as long as its Storage
// can.
type Renderer struct {
	Template *core.Template
	Storage  storage.Storage
	Flags    core.Flags
	Logger   *zap.Logger

	// Prefix is the id of the root section.
	Prefix string
}

// NewRenderer makes a Renderer with NoopStorage and a no-op logger.
func NewRenderer(t *core.Template) *Renderer {
	return &Renderer{
		Template: t,
		Storage:  &storage.NoopStorage{},
		Logger:   zap.NewNop(),
	}
}

// Request asks for a view.  An empty ViewId asks for a new view.
type Request struct {
	ViewId   string        `json:"view,omitempty"`
	Bindings core.Bindings `json:"bindings,omitempty"`
}

// Result is a rendered view.
type Result struct {
	ViewId string          `json:"view"`
	Phase  core.Phase      `json:"-"`
	Tree   *core.Component `json:"tree"`

	// Restored is the tree built by the restore pass of a
	// postback.
	Restored *core.Component `json:"-"`

	// Added and Removed are the component ids that the refresh
	// pass added to and removed from the restored tree.
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

var NoTemplate = errors.New("renderer has no template")

func (r *Renderer) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

func (r *Renderer) storage() storage.Storage {
	if r.Storage == nil {
		return &storage.NoopStorage{}
	}
	return r.Storage
}

func (r *Renderer) build(ctx context.Context, phase core.Phase, state core.ViewState, bs core.Bindings) (*core.Component, error) {
	b := core.NewBuild(phase, state, r.Prefix)
	b.Flags = r.Flags
	if phase == core.Refresh {
		b.Flags.RefreshingTransientBuild = true
	}
	b.Logger = r.logger().With(zap.Stringer("phase", phase))
	if bs != nil {
		b.Vars = bs.Copy()
	}

	root := core.NewComponent(r.Prefix, "view")
	if err := r.Template.Apply(ctx, b, root); err != nil {
		return nil, fmt.Errorf("%s: %w", phase, err)
	}
	if d := b.Sections.Depth(); d != 0 {
		return nil, fmt.Errorf("%s: %w: %d sections left open", phase, core.ErrInternal, d)
	}
	return root, nil
}

// Render serves one request.
func (r *Renderer) Render(ctx context.Context, req *Request) (*Result, error) {
	if r.Template == nil {
		return nil, NoTemplate
	}

	var (
		log    = r.logger()
		s      = r.storage()
		viewId = req.ViewId
		state  core.ViewState
		err    error
	)

	if viewId == "" {
		viewId = uuid.New().String()
	} else if state, err = s.Load(ctx, viewId); err != nil {
		return nil, err
	}

	res := &Result{
		ViewId: viewId,
	}

	if state == nil {
		state = core.NewViewState()
		res.Phase = core.InitialBuild
		if res.Tree, err = r.build(ctx, core.InitialBuild, state, req.Bindings); err != nil {
			return nil, err
		}
	} else {
		res.Phase = core.Refresh
		if res.Restored, err = r.build(ctx, core.Restore, state, req.Bindings); err != nil {
			return nil, err
		}
		if res.Tree, err = r.build(ctx, core.Refresh, state, req.Bindings); err != nil {
			return nil, err
		}
		res.Added, res.Removed = Diff(res.Restored, res.Tree)
	}

	if err = s.Save(ctx, viewId, state); err != nil {
		return nil, err
	}

	log.Debug("rendered",
		zap.String("view", viewId),
		zap.Stringer("phase", res.Phase),
		zap.Strings("added", res.Added),
		zap.Strings("removed", res.Removed))

	return res, nil
}

// Forget removes the view's saved state.
func (r *Renderer) Forget(ctx context.Context, viewId string) error {
	return r.storage().Remove(ctx, viewId)
}

// Diff reports the component ids in to that aren't in from (added)
// and the ids in from that aren't in to (removed).  Both lists are in
// tree order.
func Diff(from, to *core.Component) (added, removed []string) {
	olds := make(map[string]bool)
	for _, id := range from.Ids() {
		olds[id] = true
	}
	news := make(map[string]bool)
	for _, id := range to.Ids() {
		news[id] = true
		if !olds[id] {
			added = append(added, id)
		}
	}
	for _, id := range from.Ids() {
		if !news[id] {
			removed = append(removed, id)
		}
	}
	return
}
