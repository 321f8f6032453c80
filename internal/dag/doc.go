// Package dag builds and validates the dependency graph of a workflow.
//
// Each rule becomes one node. Edges come from two sources: implicit edges,
// where a rule's input path is another rule's output path, and explicit
// edges from depends_on. The graph is validated at build time: duplicate
// output paths, unknown action types, unknown depends_on references, and
// cycles are all reported before anything executes.
package dag
