package model

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Rule is the fully evaluated representation of a `rule` block. Rules are
// defined at workflow-load time and never mutated afterwards.
type Rule struct {
	// ActionType names the registered action that executes this rule,
	// e.g. "shell" or "fetch". First block label.
	ActionType string
	// Name uniquely identifies the rule within the workflow. Second block label.
	Name string
	// Doc is an optional human-readable description.
	Doc string

	// Inputs are the file paths this rule consumes, relative to the workdir.
	Inputs []string
	// Outputs are the file paths this rule produces. Output paths must be
	// unique across all rules in a workflow.
	Outputs []string
	// DependsOn lists rule names this rule must run after, for orderings
	// not expressible through file paths.
	DependsOn []string

	// Params holds the evaluated action arguments from the `params` block.
	Params map[string]cty.Value

	// DeclRange locates the rule block in its source file, for error messages.
	DeclRange hcl.Range
}

// hclRule represents a single 'rule' block for initial decoding from HCL.
type hclRule struct {
	ActionType string   `hcl:"action,label"`
	Name       string   `hcl:"name,label"`
	Body       hcl.Body `hcl:",remain"`
}

// ruleBodySchema defines the expected structure of a `rule` block's body.
var ruleBodySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "doc"},
		{Name: "inputs"},
		{Name: "outputs"},
		{Name: "depends_on"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "params"},
	},
}

// newRuleFromHCL evaluates a parsed rule block against the scenario context.
func newRuleFromHCL(parsed *hclRule, evalCtx *hcl.EvalContext, declRange hcl.Range) (*Rule, error) {
	rule := &Rule{
		ActionType: parsed.ActionType,
		Name:       parsed.Name,
		DeclRange:  declRange,
	}

	bodyContent, diags := parsed.Body.Content(ruleBodySchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid rule %q: %w", rule.Name, diags)
	}

	if attr, ok := bodyContent.Attributes["doc"]; ok {
		doc, err := evalString(attr.Expr, evalCtx)
		if err != nil {
			return nil, fmt.Errorf("invalid doc for rule %q: %w", rule.Name, err)
		}
		rule.Doc = doc
	}

	var err error
	if attr, ok := bodyContent.Attributes["inputs"]; ok {
		if rule.Inputs, err = evalStringList(attr.Expr, evalCtx); err != nil {
			return nil, fmt.Errorf("invalid inputs for rule %q: %w", rule.Name, err)
		}
	}
	if attr, ok := bodyContent.Attributes["outputs"]; ok {
		if rule.Outputs, err = evalStringList(attr.Expr, evalCtx); err != nil {
			return nil, fmt.Errorf("invalid outputs for rule %q: %w", rule.Name, err)
		}
	}

	if attr, ok := bodyContent.Attributes["depends_on"]; ok {
		if err := validateListLiteral(attr.Expr); err != nil {
			return nil, fmt.Errorf("invalid depends_on for rule %q: %w", rule.Name, err)
		}
		if rule.DependsOn, err = evalStringList(attr.Expr, evalCtx); err != nil {
			return nil, fmt.Errorf("invalid depends_on for rule %q: %w", rule.Name, err)
		}
	}

	for _, block := range bodyContent.Blocks {
		// Schema guarantees only `params` blocks appear here.
		if rule.Params != nil {
			return nil, fmt.Errorf("rule %q: duplicate params block at %s", rule.Name, block.DefRange)
		}
		if rule.Params, err = evalParams(block, evalCtx); err != nil {
			return nil, fmt.Errorf("invalid params for rule %q: %w", rule.Name, err)
		}
	}
	if rule.Params == nil {
		rule.Params = map[string]cty.Value{}
	}

	return rule, nil
}

// validateListLiteral ensures the expression is a list literal like `[...]`.
// depends_on defines explicit graph edges, so it must be statically a list.
func validateListLiteral(expr hcl.Expression) error {
	if syntaxExpr, ok := expr.(hclsyntax.Expression); ok {
		if _, isTuple := syntaxExpr.(*hclsyntax.TupleConsExpr); !isTuple {
			return fmt.Errorf("must be a list literal of rule names")
		}
	}
	return nil
}

// evalString evaluates an expression to a single string.
func evalString(expr hcl.Expression, evalCtx *hcl.EvalContext) (string, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return "", diags
	}
	val, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", err
	}
	if val.IsNull() {
		return "", fmt.Errorf("value must not be null")
	}
	return val.AsString(), nil
}

// evalStringList evaluates an expression to a list of strings. This is where
// comprehensions over scenario.countries collapse into concrete path lists.
func evalStringList(expr hcl.Expression, evalCtx *hcl.EvalContext) ([]string, error) {
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	val, err := convert.Convert(val, cty.List(cty.String))
	if err != nil {
		return nil, err
	}
	if val.IsNull() {
		return nil, nil
	}

	var out []string
	for it := val.ElementIterator(); it.Next(); {
		_, elem := it.Element()
		if elem.IsNull() {
			return nil, fmt.Errorf("list elements must not be null")
		}
		out = append(out, elem.AsString())
	}
	return out, nil
}

// evalParams evaluates every attribute of a params block to its final value.
func evalParams(block *hcl.Block, evalCtx *hcl.EvalContext) (map[string]cty.Value, error) {
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	params := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, diags
		}
		params[name] = val
	}
	return params, nil
}
