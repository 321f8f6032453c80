// Package app is the composition root. It wires the logger, scenario,
// workfile model, action registry, dependency graph, and executor into a
// runnable application, and owns the run lifecycle including watch mode.
package app
