package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Templates configures the generator's goal and tone rotation. A YAML file
// can override either list; empty lists fall back to the defaults.
type Templates struct {
	Goals []string `yaml:"goals"`
	Tones []string `yaml:"tones"`
}

// DefaultTemplates returns the built-in goal and tone lists. The company
// name is folded into the introduction goal.
func DefaultTemplates(company string) Templates {
	if company == "" {
		company = "our company"
	}
	return Templates{
		Goals: []string{
			"book a 15-minute discovery call to discuss AWS optimization opportunities",
			fmt.Sprintf("introduce %s's cloud infrastructure services", company),
			"offer a collaboration on cloud security solutions",
			"schedule a brief consultation about scaling their infrastructure",
		},
		Tones: []string{"professional", "consultative", "friendly"},
	}
}

// LoadTemplates reads a YAML template file and fills empty lists from the
// defaults. An empty path returns the defaults unchanged.
func LoadTemplates(path, company string) (Templates, error) {
	defaults := DefaultTemplates(company)
	if path == "" {
		return defaults, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return defaults, fmt.Errorf("read templates file: %w", err)
	}

	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return defaults, fmt.Errorf("parse templates file %s: %w", path, err)
	}

	if len(t.Goals) == 0 {
		t.Goals = defaults.Goals
	}
	if len(t.Tones) == 0 {
		t.Tones = defaults.Tones
	}
	return t, nil
}
