package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// CasesConfig holds named shortcuts to case ids and the case used by default (read/write).
type CasesConfig struct {
	Current int64                `yaml:"current,omitempty"`
	Aliases map[string]CaseAlias `yaml:"aliases,omitempty"`
}

// CaseAlias names a case.
type CaseAlias struct {
	CaseID      int64  `yaml:"case_id"`
	Description string `yaml:"description,omitempty"`
}

// LoadCases loads case aliases from the .famtree directory.
func LoadCases(basePath string) (*CasesConfig, error) {
	data, err := os.ReadFile(CasesFilePath(basePath))
	if os.IsNotExist(err) {
		// Return empty config if file doesn't exist
		return &CasesConfig{
			Aliases: make(map[string]CaseAlias),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cases file: %w", err)
	}

	var cfg CasesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing cases file: %w", err)
	}

	if cfg.Aliases == nil {
		cfg.Aliases = make(map[string]CaseAlias)
	}

	return &cfg, nil
}

// Save writes the case aliases to the cases file.
func (c *CasesConfig) Save(basePath string) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling cases config: %w", err)
	}

	if err := os.WriteFile(CasesFilePath(basePath), data, 0600); err != nil {
		return fmt.Errorf("writing cases file: %w", err)
	}

	return nil
}

// Add adds or replaces an alias.
func (c *CasesConfig) Add(name string, alias CaseAlias) {
	if c.Aliases == nil {
		c.Aliases = make(map[string]CaseAlias)
	}
	c.Aliases[name] = alias
}

// Remove removes an alias. The current case is cleared if it was the alias' case
// and no other alias points to it.
func (c *CasesConfig) Remove(name string) {
	alias, ok := c.Aliases[name]
	if !ok {
		return
	}
	delete(c.Aliases, name)
	if c.Current != alias.CaseID {
		return
	}
	for _, other := range c.Aliases {
		if other.CaseID == alias.CaseID {
			return
		}
	}
	c.Current = 0
}

// Names returns the alias names in sorted order.
func (c *CasesConfig) Names() []string {
	names := make([]string, 0, len(c.Aliases))
	for name := range c.Aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve turns a case reference into a case id. A reference is either a
// numeric id or an alias name; an empty reference selects the current case.
func (c *CasesConfig) Resolve(ref string) (int64, error) {
	if ref == "" {
		if c.Current == 0 {
			return 0, errors.New("no case selected (use --case or 'famtree cases use')")
		}
		return c.Current, nil
	}

	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		if id <= 0 {
			return 0, fmt.Errorf("invalid case id: %d", id)
		}
		return id, nil
	}

	alias, ok := c.Aliases[ref]
	if !ok {
		if len(c.Aliases) == 0 {
			return 0, fmt.Errorf("case alias %q not found (no aliases configured)", ref)
		}
		names := c.Names()
		if len(names) > 5 {
			names = append(names[:5], "...")
		}
		return 0, fmt.Errorf("case alias %q not found (available: %s)", ref, strings.Join(names, ", "))
	}

	return alias.CaseID, nil
}
