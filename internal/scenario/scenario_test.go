package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMembers(t *testing.T) {
	assert.Len(t, Members, 13)
	assert.True(t, IsMember("ET"))
	assert.False(t, IsMember("FR"))
}

func TestLoadDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "default", s.Name)
	assert.Equal(t, Members, s.Countries)
	assert.Equal(t, "results", s.Paths.Results)
}

func TestLoadFromFile(t *testing.T) {
	path := writeScenario(t, `
name: high_renewables
countries: [ET, KE, UG]
paths:
  results: results/high_renewables
params:
  co2_limit: "0.05"
`)

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "high_renewables", s.Name)
	assert.Equal(t, []string{"ET", "KE", "UG"}, s.Countries)
	assert.Equal(t, "results/high_renewables", s.Paths.Results)
	assert.Equal(t, "data", s.Paths.Data) // default retained
	assert.Equal(t, "0.05", s.Params["co2_limit"])
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GRIDPOOL_NAME", "from_env")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from_env", s.Name)
}

func TestLoadRejectsNonMember(t *testing.T) {
	path := writeScenario(t, `
name: bad
countries: [ET, FR]
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a pool member")
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEvalContext(t *testing.T) {
	s := &Scenario{
		Name:      "s1",
		Countries: []string{"ET", "KE"},
		Paths:     Paths{Data: "data", Resources: "res", Results: "out"},
		Params:    map[string]string{"horizon": "2035"},
	}

	ctx := s.EvalContext()
	scn, ok := ctx.Variables["scenario"]
	require.True(t, ok)

	assert.Equal(t, cty.StringVal("s1"), scn.GetAttr("name"))
	assert.Equal(t, cty.StringVal("out"), scn.GetAttr("paths").GetAttr("results"))

	countries := scn.GetAttr("countries")
	assert.Equal(t, 2, countries.LengthInt())
	assert.Equal(t, cty.StringVal("2035"), scn.GetAttr("params").Index(cty.StringVal("horizon")))
}
