package dag

import (
	"sync"

	"github.com/eapp-modeling/gridpool/internal/model"
)

// State is the execution state of a node.
type State int

const (
	// Pending nodes have not been picked up by a worker yet.
	Pending State = iota
	// Running nodes are currently executing their action.
	Running
	// Done nodes executed their action successfully.
	Done
	// Fresh nodes had up-to-date outputs, so their action was not executed.
	Fresh
	// Planned nodes would have executed, but the run was a dry run.
	Planned
	// Failed nodes had their action return an error.
	Failed
	// Skipped nodes were never executed because an upstream node failed.
	Skipped
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Done:
		return "done"
	case Fresh:
		return "fresh"
	case Planned:
		return "planned"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	}
	return "unknown"
}

// Node is a single rule in the dependency graph, plus the bookkeeping the
// executor needs to run it exactly once.
type Node struct {
	// ID is the rule name.
	ID string
	// Rule is the evaluated rule this node executes.
	Rule *model.Rule
	// Deps are the nodes this node depends on (predecessors).
	Deps map[string]*Node
	// Dependents are the nodes that depend on this node (successors).
	Dependents map[string]*Node

	mu        sync.Mutex
	state     State
	err       error
	remaining int
}

// State returns the node's current execution state.
func (n *Node) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// SetState transitions the node to the given state.
func (n *Node) SetState(s State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state = s
}

// Fail records a terminal failure on the node.
func (n *Node) Fail(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state = Failed
	n.err = err
}

// Err returns the failure recorded by Fail, if any.
func (n *Node) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

// TrySkip marks a still-pending node as skipped and records the cause. It
// reports whether the transition happened; nodes already picked up by a
// worker are left alone.
func (n *Node) TrySkip(cause error) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != Pending {
		return false
	}
	n.state = Skipped
	n.err = cause
	return true
}

// SetRemaining initializes the count of unfinished in-run dependencies.
func (n *Node) SetRemaining(count int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.remaining = count
}

// DecrementRemaining records a finished dependency and returns the count of
// dependencies still outstanding.
func (n *Node) DecrementRemaining() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.remaining--
	return n.remaining
}

// Graph is the validated dependency graph of a workflow.
type Graph struct {
	// Nodes holds all nodes, keyed by rule name.
	Nodes map[string]*Node

	// producers indexes output path -> producing node.
	producers map[string]*Node
}

// Producer returns the node that produces the given output path, or nil if
// no rule claims it.
func (g *Graph) Producer(path string) *Node {
	return g.producers[path]
}
