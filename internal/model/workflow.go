package model

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/eapp-modeling/gridpool/internal/ctxlog"
	"github.com/eapp-modeling/gridpool/internal/fsutil"
)

// Workflow is the root container for all rules loaded from a workspace. A
// workflow may be split across many workfiles; loading consolidates every
// rule block into this single, unified view so the graph builder can resolve
// dependencies that span files.
type Workflow struct {
	Rules []*Rule

	// Sources lists the workfile paths the rules were loaded from, in
	// discovery order. Watch mode re-arms on these.
	Sources []string
}

// workfileSchema describes the top level of a workfile.
var workfileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "rule", LabelNames: []string{"action", "name"}},
	},
}

// Rule returns the rule with the given name, or nil.
func (w *Workflow) Rule(name string) *Rule {
	for _, r := range w.Rules {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// rulesFromFile parses a single workfile and evaluates the rules within it.
func rulesFromFile(filePath string, parser *hclparse.Parser, evalCtx *hcl.EvalContext) ([]*Rule, error) {
	hclFile, diags := parser.ParseHCLFile(filePath)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse workfile %s: %w", filePath, diags)
	}

	content, diags := hclFile.Body.Content(workfileSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode workfile %s: %w", filePath, diags)
	}

	rules := make([]*Rule, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		parsed := &hclRule{
			ActionType: block.Labels[0],
			Name:       block.Labels[1],
			Body:       block.Body,
		}
		rule, err := newRuleFromHCL(parsed, evalCtx, block.DefRange)
		if err != nil {
			return nil, fmt.Errorf("error in workfile %s: %w", filePath, err)
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

// Load finds and parses all HCL workfiles under workPath into a Workflow,
// evaluating every rule against the scenario's evaluation context. Rule
// names must be unique across the whole workspace.
func Load(ctx context.Context, workPath string, evalCtx *hcl.EvalContext) (*Workflow, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading workflow from path", "path", workPath)

	files, err := fsutil.FindFilesByExtension(workPath, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to find workfiles in %s: %w", workPath, err)
	}

	wf := &Workflow{}
	if len(files) == 0 {
		logger.Warn("No .hcl workfiles found in path, returning empty workflow", "path", workPath)
		return wf, nil
	}

	parser := hclparse.NewParser()
	seen := make(map[string]string)
	for _, file := range files {
		rules, err := rulesFromFile(file, parser, evalCtx)
		if err != nil {
			return nil, err
		}
		for _, r := range rules {
			if prev, dup := seen[r.Name]; dup {
				return nil, fmt.Errorf("rule %q declared in both %s and %s", r.Name, prev, file)
			}
			seen[r.Name] = file
		}
		wf.Rules = append(wf.Rules, rules...)
		wf.Sources = append(wf.Sources, file)
	}

	logger.Debug("Workflow loaded", "rules_found", len(wf.Rules), "files", len(files))
	return wf, nil
}
