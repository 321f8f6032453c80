package scenario

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// EvalContext exposes the scenario to workfile expressions under the
// `scenario` variable, e.g. `scenario.countries` or `scenario.paths.results`.
func (s *Scenario) EvalContext() *hcl.EvalContext {
	countries := make([]cty.Value, 0, len(s.Countries))
	for _, c := range s.Countries {
		countries = append(countries, cty.StringVal(c))
	}

	params := make(map[string]cty.Value, len(s.Params))
	for k, v := range s.Params {
		params[k] = cty.StringVal(v)
	}
	paramsVal := cty.MapValEmpty(cty.String)
	if len(params) > 0 {
		paramsVal = cty.MapVal(params)
	}

	scenarioVal := cty.ObjectVal(map[string]cty.Value{
		"name":      cty.StringVal(s.Name),
		"countries": cty.ListVal(countries),
		"paths": cty.ObjectVal(map[string]cty.Value{
			"data":      cty.StringVal(s.Paths.Data),
			"resources": cty.StringVal(s.Paths.Resources),
			"results":   cty.StringVal(s.Paths.Results),
		}),
		"params": paramsVal,
	})

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"scenario": scenarioVal,
		},
	}
}
