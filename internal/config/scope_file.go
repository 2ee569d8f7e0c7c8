package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ScopeFile is the parsed YAML structure for scope configuration:
// groups: [...], services: [...], alert_statuses: [...]
type ScopeFile struct {
	Groups        []string `yaml:"groups"`
	Services      []string `yaml:"services"`
	AlertStatuses []string `yaml:"alert_statuses"`
}

// LoadScopeFile parses a YAML scope file from the given path.
// Returns nil if path is empty (no scope file).
func LoadScopeFile(path string) (*ScopeFile, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scope file: %w", err)
	}

	var sf ScopeFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse scope file: %w", err)
	}

	if err := validateScopeFile(&sf); err != nil {
		return nil, err
	}

	return &sf, nil
}

func validateScopeFile(sf *ScopeFile) error {
	if len(sf.Groups) == 0 && len(sf.Services) == 0 {
		return fmt.Errorf("scope file declares no groups or services")
	}

	seen := make(map[string]bool)
	for i, name := range sf.Groups {
		if name == "" {
			return fmt.Errorf("group %d: name is required", i)
		}
		if seen["g:"+name] {
			return fmt.Errorf("group %q: duplicate name", name)
		}
		seen["g:"+name] = true
	}
	for i, name := range sf.Services {
		if name == "" {
			return fmt.Errorf("service %d: name is required", i)
		}
		if seen["s:"+name] {
			return fmt.Errorf("service %q: duplicate name", name)
		}
		seen["s:"+name] = true
	}

	return nil
}
