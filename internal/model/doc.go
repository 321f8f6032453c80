// Package model provides the Go struct representation of the gridpool HCL
// workfiles. Its core purpose is to create a strongly-typed, in-memory model
// of the user's rule declarations by parsing the raw HCL files.
//
// The model is built around two structures:
//
//   - Workflow: the root container representing an entire workspace. It
//     aggregates all rules parsed from one or more .hcl workfiles.
//
//   - Rule: a single named unit of work. It declares the input files it
//     consumes, the output files it produces, and the parameters for the
//     action that produces them.
//
// Unlike configuration languages that defer expression evaluation to run
// time, workfile expressions are evaluated once at load time against the
// scenario. A rule's inputs and outputs are plain file paths by the time the
// graph builder sees them; dependency edges come from matching paths, not
// from value flow between rules. This keeps every later stage (graph build,
// freshness checks, execution) free of HCL concerns.
package model
