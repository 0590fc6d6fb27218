// Package suite loads named model collections for batch verification.
//
// A suite file is a small YAML document pinning down which models a batch
// run covers, so recurring verification sets (smoke set, release set, the
// models a port milestone targets) live in files instead of shell history.
package suite

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Suite defines a named collection of models to verify together.
type Suite struct {
	// Name uniquely identifies this suite in reports and run history.
	Name string `yaml:"name"`

	// Description explains what this suite covers.
	Description string `yaml:"description,omitempty"`

	// Seed overrides the configured seed for every model in the suite.
	// Zero means no override.
	Seed int `yaml:"seed,omitempty"`

	// Models lists the catalog models to verify, in run order.
	Models []string `yaml:"models"`
}

// SeedOr returns the suite's seed override, or def when none is set.
func (s *Suite) SeedOr(def int) int {
	if s.Seed > 0 {
		return s.Seed
	}
	return def
}

// Load reads and parses a suite YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}

	// Strict field validation catches typos like "model:" vs "models:".
	var s Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSuite(&s); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}

	return &s, nil
}

// validateSuite checks that required fields are present and valid.
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Seed < 0 {
		return fmt.Errorf("seed must not be negative")
	}

	if len(s.Models) == 0 {
		return fmt.Errorf("models list is required and must be non-empty")
	}

	seen := make(map[string]int, len(s.Models))
	for i, m := range s.Models {
		if strings.TrimSpace(m) == "" {
			return fmt.Errorf("models[%d]: name must not be blank", i)
		}
		if first, dup := seen[m]; dup {
			return fmt.Errorf("models[%d]: duplicate of models[%d] (%s)", i, first, m)
		}
		seen[m] = i
	}

	return nil
}
