package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig represents a .testclerk.yaml file in a repository
type ProjectConfig struct {
	// Framework driver override: auto, pytest, go
	Framework string `yaml:"framework,omitempty"`

	// Directory listed when list gets no --base-dir
	BaseDir string `yaml:"base_dir,omitempty"`

	// Reference compared against by compare
	RefBranch string `yaml:"ref_branch,omitempty"`

	// Python interpreter for pytest
	Python string `yaml:"python,omitempty"`

	// How pytest tests are discovered: plugin or static
	CollectMode string `yaml:"collect_mode,omitempty"`

	// Doublestar patterns, relative to each scan root, skipped by static discovery
	Exclude []string `yaml:"exclude,omitempty"`
}

// DefaultRefBranch is compared against when nothing else is configured
const DefaultRefBranch = "origin/main"

var projectFiles = []string{".testclerk.yaml", ".testclerk.yml"}

// DefaultProjectConfig returns sensible defaults
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Framework:   "auto",
		RefBranch:   DefaultRefBranch,
		CollectMode: "plugin",
	}
}

// LoadProjectConfig loads a .testclerk.yaml (or .yml) from the given
// directory. A missing file yields the defaults.
func LoadProjectConfig(repoPath string) (*ProjectConfig, error) {
	for _, name := range projectFiles {
		configPath := filepath.Join(repoPath, name)

		data, err := os.ReadFile(configPath)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}

		cfg := DefaultProjectConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
		}
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", configPath, err)
		}
		return cfg, nil
	}

	return DefaultProjectConfig(), nil
}

func (c *ProjectConfig) validate() error {
	switch c.CollectMode {
	case "plugin", "static":
	default:
		return fmt.Errorf("collect_mode must be plugin or static, got %q", c.CollectMode)
	}
	return nil
}

// Merge applies overrides from another config (e.g., CLI flags)
func (c *ProjectConfig) Merge(other *ProjectConfig) {
	if other == nil {
		return
	}

	if other.Framework != "" {
		c.Framework = other.Framework
	}

	if other.BaseDir != "" {
		c.BaseDir = other.BaseDir
	}

	if other.RefBranch != "" {
		c.RefBranch = other.RefBranch
	}

	if other.Python != "" {
		c.Python = other.Python
	}

	if other.CollectMode != "" {
		c.CollectMode = other.CollectMode
	}

	if len(other.Exclude) > 0 {
		c.Exclude = other.Exclude
	}
}
