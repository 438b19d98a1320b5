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

// Package core provides the core gear for building a persistent
// component tree from a view template with control-flow tags.
//
// A view is rebuilt on every request.  The control-flow tags (if,
// choose/when/otherwise, forEach) decide which parts of the template
// get built, and they remember those decisions in a ViewState so
// that later builds can either replay them (Restore) or reconcile
// against them (Refresh).  Reconciliation is what keeps the ids of
// components stable across requests.
//
// The primary type is Handler, and the primary method is Apply.  A
// Handler builds a subtree under a parent Component using a Build,
// which carries everything that's specific to one request: the
// Phase, the ViewState, the stack of unique-id Sections, the
// variable Bindings, and the initial-state flag.
//
// A Handler is a plain Go value.  A Template is a YAML- or
// JSON-friendly description of a handler tree.  When a Template is
// Compiled, the compiler looks for attribute sources, each of which
// can specify an Interpreter.  An Interpreter should know how to
// Compile and Eval an attribute expression.  Alternately, an
// Attribute can be a literal or a Go function.
//
// Handlers never hold per-request state.  The same compiled Template
// can be applied concurrently as long as each request uses its own
// Build and its own ViewState.
//
// Inside a forEach over a list or map, the loop variable is a Ref to
// the live element.  Bindings.Set writes through that Ref, so a Go
// handler (or a set tag) can update the source in place.  Attribute
// expressions only ever see resolved values.
//
// To use this package, make a Template.  Then Compile() it.  Then,
// for each request, make a Build with the request's Phase and the
// view's ViewState, and Apply the template to a root Component.
package core
