package dag

import (
	"context"
	"fmt"

	"github.com/eapp-modeling/gridpool/internal/ctxlog"
	"github.com/eapp-modeling/gridpool/internal/model"
)

// ActionSet is the slice of the action registry the graph builder needs:
// just enough to reject rules whose action type nobody registered.
type ActionSet interface {
	Has(actionType string) bool
}

// Build constructs a complete, validated dependency graph from a workflow.
func Build(ctx context.Context, wf *model.Workflow, actions ActionSet) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting graph construction.")

	graph := &Graph{
		Nodes:     make(map[string]*Node, len(wf.Rules)),
		producers: make(map[string]*Node),
	}

	// First pass: create all nodes and index output paths.
	for _, rule := range wf.Rules {
		if !actions.Has(rule.ActionType) {
			return nil, fmt.Errorf("%w %q in rule %q", ErrUnknownAction, rule.ActionType, rule.Name)
		}
		node := &Node{
			ID:         rule.Name,
			Rule:       rule,
			Deps:       make(map[string]*Node),
			Dependents: make(map[string]*Node),
		}
		graph.Nodes[node.ID] = node

		for _, out := range rule.Outputs {
			if prev, dup := graph.producers[out]; dup {
				return nil, fmt.Errorf("%w: %q produced by both %q and %q",
					ErrDuplicateOutput, out, prev.ID, rule.Name)
			}
			graph.producers[out] = node
		}
	}
	logger.Debug("Build: node creation complete.", "node_count", len(graph.Nodes))

	// Second pass: link dependencies.
	if err := linkNodes(ctx, graph); err != nil {
		return nil, err
	}
	logger.Debug("Build: node linking complete.")

	if err := graph.detectCycles(); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	logger.Debug("Build: cycle detection passed.")

	return graph, nil
}

// linkNodes establishes implicit (path-matching) and explicit (depends_on)
// dependency edges.
func linkNodes(ctx context.Context, graph *Graph) error {
	logger := ctxlog.FromContext(ctx)

	for _, node := range graph.Nodes {
		for _, in := range node.Rule.Inputs {
			producer := graph.producers[in]
			if producer == nil || producer == node {
				continue
			}
			addEdge(producer, node)
			logger.Debug("Linked implicit dependency.",
				"from", producer.ID, "to", node.ID, "path", in)
		}

		for _, depName := range node.Rule.DependsOn {
			dep, ok := graph.Nodes[depName]
			if !ok {
				return fmt.Errorf("%w: rule %q depends_on %q, which is not declared",
					ErrUnknownDependency, node.ID, depName)
			}
			if dep == node {
				return fmt.Errorf("%w: rule %q depends_on itself", ErrCycle, node.ID)
			}
			addEdge(dep, node)
			logger.Debug("Linked explicit dependency.", "from", dep.ID, "to", node.ID)
		}
	}
	return nil
}

// addEdge records that `to` depends on `from`.
func addEdge(from, to *Node) {
	to.Deps[from.ID] = from
	from.Dependents[to.ID] = to
}

// detectCycles checks for circular dependencies in the graph using DFS.
func (g *Graph) detectCycles() error {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	var visit func(node *Node) error
	visit = func(node *Node) error {
		visiting[node.ID] = true
		for _, dep := range node.Deps {
			if visiting[dep.ID] {
				return fmt.Errorf("%w involving rule %q", ErrCycle, dep.ID)
			}
			if !visited[dep.ID] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		delete(visiting, node.ID)
		visited[node.ID] = true
		return nil
	}

	for _, node := range g.Nodes {
		if !visited[node.ID] {
			if err := visit(node); err != nil {
				return err
			}
		}
	}
	return nil
}
