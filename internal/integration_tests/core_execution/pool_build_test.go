package core_execution

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eapp-modeling/gridpool/internal/testutil"
)

// poolWorkfile declares one result table per scenario country and a pooled
// summary over all of them.
const poolWorkfile = `
rule "shell" "country_results" {
  doc     = "Stand-in for the per-country solve step."
  outputs = [for c in scenario.countries : "results/${c}/summary.csv"]

  params {
    command = "for c in $GRIDPOOL_OUTPUTS; do printf 'carrier,capacity_mw\nhydro,10\n' > $c; done"
  }
}

rule "summary" "pool_summary" {
  inputs  = [for c in scenario.countries : "results/${c}/summary.csv"]
  outputs = ["results/EAPP_summary.csv"]
}
`

const twoCountryScenario = `
name: pool_test
countries: [ET, KE]
`

func TestPoolSummaryBuild(t *testing.T) {
	res := testutil.RunWorkflow(t, map[string]string{
		"workflows/main.hcl": poolWorkfile,
		"scenario.yaml":      twoCountryScenario,
	}, []string{"results/EAPP_summary.csv"})
	require.NoError(t, res.Err)

	assert.Equal(t, 2, res.Summary.Executed)

	data, err := os.ReadFile(filepath.Join(res.Dir, "results", "EAPP_summary.csv"))
	require.NoError(t, err)
	assert.Equal(t,
		"country,carrier,capacity_mw\nET,hydro,10\nKE,hydro,10\n",
		string(data))
}

func TestFreshTargetExecutesNothing(t *testing.T) {
	res := testutil.RunWorkflow(t, map[string]string{
		"workflows/main.hcl": poolWorkfile,
		"scenario.yaml":      twoCountryScenario,
	}, []string{"results/EAPP_summary.csv"})
	require.NoError(t, res.Err)
	require.Equal(t, 2, res.Summary.Executed)

	// All upstream country datasets are present and current: the second
	// invocation performs zero executions and succeeds.
	summary, err := res.App.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Executed)
	assert.Equal(t, 2, summary.Fresh)
}

func TestTargetSelectsMinimalChain(t *testing.T) {
	res := testutil.RunWorkflow(t, map[string]string{
		"workflows/main.hcl": `
rule "shell" "wanted" {
  outputs = ["wanted.txt"]
  params { command = "touch wanted.txt" }
}

rule "shell" "unrelated" {
  outputs = ["unrelated.txt"]
  params { command = "touch unrelated.txt" }
}
`,
	}, []string{"wanted"})
	require.NoError(t, res.Err)

	assert.Equal(t, 1, res.Summary.Executed)
	assert.FileExists(t, filepath.Join(res.Dir, "wanted.txt"))
	assert.NoFileExists(t, filepath.Join(res.Dir, "unrelated.txt"))
}
