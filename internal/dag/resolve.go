package dag

import (
	"context"
	"fmt"

	"github.com/eapp-modeling/gridpool/internal/ctxlog"
)

// Resolve maps the requested targets to the minimal set of nodes whose
// execution they require: the producing nodes plus the transitive closure of
// their dependencies. A target may be a rule name or an output file path.
// An empty target list selects the whole graph.
func (g *Graph) Resolve(ctx context.Context, targets []string) (map[string]*Node, error) {
	logger := ctxlog.FromContext(ctx)

	if len(targets) == 0 {
		logger.Debug("No targets requested, selecting all rules.", "count", len(g.Nodes))
		all := make(map[string]*Node, len(g.Nodes))
		for id, n := range g.Nodes {
			all[id] = n
		}
		return all, nil
	}

	required := make(map[string]*Node)
	var include func(n *Node)
	include = func(n *Node) {
		if _, seen := required[n.ID]; seen {
			return
		}
		required[n.ID] = n
		for _, dep := range n.Deps {
			include(dep)
		}
	}

	for _, target := range targets {
		node, ok := g.Nodes[target]
		if !ok {
			node = g.producers[target]
		}
		if node == nil {
			return nil, fmt.Errorf("%w: no rule produces %q", ErrUnresolvable, target)
		}
		include(node)
	}

	logger.Debug("Targets resolved.", "targets", targets, "required", len(required))
	return required, nil
}
