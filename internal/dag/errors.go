package dag

import "errors"

// Sentinel errors for the failure classes a graph build or target resolution
// can produce. Callers match with errors.Is.
var (
	// ErrDuplicateOutput means two rules claim to produce the same file.
	ErrDuplicateOutput = errors.New("duplicate output path")
	// ErrCycle means the rule dependencies are circular.
	ErrCycle = errors.New("dependency cycle")
	// ErrUnresolvable means a requested target has no producing rule, or a
	// required input has no producing rule and is absent from disk.
	ErrUnresolvable = errors.New("unresolvable target")
	// ErrUnknownDependency means depends_on names a rule that does not exist.
	ErrUnknownDependency = errors.New("unknown dependency")
	// ErrUnknownAction means a rule references an unregistered action type.
	ErrUnknownAction = errors.New("unknown action type")
)
