// Package scenario loads and validates the scenario document: the country
// selection, data paths, and free-form model parameters that parameterize a
// workflow run.
package scenario

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix is the prefix for environment overrides, e.g.
// GRIDPOOL_NAME=high_renewables overrides the scenario name.
const envPrefix = "GRIDPOOL_"

// Paths groups the directory layout a workflow's rules are written against.
type Paths struct {
	Data      string `koanf:"data"`
	Resources string `koanf:"resources"`
	Results   string `koanf:"results"`
}

// Scenario is a named configuration variant applied to the model. It is
// loaded once per run and read-only thereafter.
type Scenario struct {
	Name      string            `koanf:"name"`
	Countries []string          `koanf:"countries"`
	Paths     Paths             `koanf:"paths"`
	Params    map[string]string `koanf:"params"`
}

// Default returns the scenario used when no document is supplied: every pool
// member, conventional directory layout, no extra parameters.
func Default() *Scenario {
	s := &Scenario{
		Name:      "default",
		Countries: append([]string(nil), Members...),
		Paths: Paths{
			Data:      "data",
			Resources: "resources",
			Results:   "results",
		},
	}
	return s
}

// Load reads the scenario document at path, applies GRIDPOOL_* environment
// overrides, and validates the result. An empty path yields the default
// scenario (environment overrides still apply).
func Load(path string) (*Scenario, error) {
	k := koanf.New(".")

	def := Default()
	k.Set("name", def.Name)
	k.Set("paths.data", def.Paths.Data)
	k.Set("paths.resources", def.Paths.Resources)
	k.Set("paths.results", def.Paths.Results)

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load scenario %s: %w", path, err)
		}
	}

	// GRIDPOOL_PATHS_RESULTS -> paths.results
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, envPrefix)), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	var s Scenario
	if err := k.Unmarshal("", &s); err != nil {
		return nil, fmt.Errorf("failed to decode scenario %s: %w", path, err)
	}

	if len(s.Countries) == 0 {
		s.Countries = append([]string(nil), Members...)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name must not be empty")
	}
	for _, c := range s.Countries {
		if !IsMember(c) {
			return fmt.Errorf("country %q is not a pool member (members: %s)",
				c, strings.Join(Members, ", "))
		}
	}
	return nil
}
