package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance case for the verification pass.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are keyed by it.
	Name string `yaml:"name"`

	// Description explains what this scenario pins down.
	Description string `yaml:"description,omitempty"`

	// IR is the path to the kind-tagged JSON tree, relative to the
	// scenario file location.
	IR string `yaml:"ir"`

	// Device names a built-in device profile supplying the limits.
	// Optional; Limits entries override individual values.
	Device string `yaml:"device,omitempty"`

	// Limits sets or overrides individual limit values by their
	// well-known names. Names absent from both Device and Limits are
	// unconstrained.
	Limits map[string]int64 `yaml:"limits,omitempty"`

	// Expect is the expected outcome.
	Expect ExpectClause `yaml:"expect"`
}

// ExpectClause specifies the expected verification outcome.
type ExpectClause struct {
	// Valid is the expected verdict.
	Valid bool `yaml:"valid"`
}

// LoadScenario reads and parses a scenario YAML file. The IR path is
// resolved relative to the scenario file. Returns an error if the file is
// malformed, contains unknown fields (typos), or misses required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.IR != "" && !filepath.IsAbs(scenario.IR) {
		scenario.IR = filepath.Join(filepath.Dir(path), scenario.IR)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}
	sort.Strings(matches)

	scenarios := make([]*Scenario, 0, len(matches))
	seen := make(map[string]string)
	for _, path := range matches {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("duplicate scenario name %q in %s and %s", s.Name, prev, path)
		}
		seen[s.Name] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if s.IR == "" {
		return fmt.Errorf("scenario %q has no ir file", s.Name)
	}
	return nil
}
