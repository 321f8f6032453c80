// Package registry maps workfile action types to the Go handlers that
// execute them. Action modules register themselves here at startup; the
// graph builder consults the registry to reject rules whose action type
// nobody provides.
package registry

import (
	"context"
	"sort"

	"github.com/eapp-modeling/gridpool/internal/model"
	"github.com/eapp-modeling/gridpool/internal/scenario"
)

// Job is everything an action handler needs to execute one rule: the rule
// itself, the scenario the run was parameterized with, and the directory
// all rule paths are relative to.
type Job struct {
	Rule     *model.Rule
	Scenario *scenario.Scenario
	Workdir  string
}

// Action is a registered handler for one action type.
type Action struct {
	// NewInput returns a pointer to a fresh input struct for DecodeParams,
	// or nil if the action takes no params.
	NewInput func() any
	// Fn executes the rule. input is the struct returned by NewInput, with
	// the rule's params decoded into it.
	Fn func(ctx context.Context, job *Job, input any) error
}

// Module is the interface every action module implements to contribute its
// handlers to the registry.
type Module interface {
	Register(r *Registry)
}

// Registry holds the registered actions. It is populated once at startup and
// read-only afterwards.
type Registry struct {
	actions map[string]*Action
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{actions: make(map[string]*Action)}
}

// RegisterAction registers a handler under the given action type. A second
// registration for the same type is a programmer error and panics.
func (r *Registry) RegisterAction(actionType string, a *Action) {
	if _, dup := r.actions[actionType]; dup {
		panic("registry: action type registered twice: " + actionType)
	}
	r.actions[actionType] = a
}

// Action returns the handler for the given action type.
func (r *Registry) Action(actionType string) (*Action, bool) {
	a, ok := r.actions[actionType]
	return a, ok
}

// Has reports whether the action type is registered. Implements dag.ActionSet.
func (r *Registry) Has(actionType string) bool {
	_, ok := r.actions[actionType]
	return ok
}

// ActionTypes returns the registered action types, sorted.
func (r *Registry) ActionTypes() []string {
	types := make([]string, 0, len(r.actions))
	for t := range r.actions {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
