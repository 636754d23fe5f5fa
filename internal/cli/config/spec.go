package config

import (
	"fmt"
	"sort"
)

// DefaultServer is the admin address used when nothing else is configured.
const DefaultServer = "127.0.0.1:7080"

// CLIConfig is the on-disk CLI configuration.
type CLIConfig struct {
	Current  string             `yaml:"current,omitempty"`
	Output   string             `yaml:"output,omitempty"`
	Profiles map[string]Profile `yaml:"profiles,omitempty"`
}

// Profile is one saved admin endpoint.
type Profile struct {
	Server   string `yaml:"server"`
	Token    string `yaml:"token,omitempty"`
	CAFile   string `yaml:"ca_file,omitempty"`
	Insecure bool   `yaml:"insecure,omitempty"`
	Subject  string `yaml:"subject,omitempty"`
}

// Default returns an empty configuration.
func Default() *CLIConfig {
	return &CLIConfig{Output: "table", Profiles: make(map[string]Profile)}
}

// Names returns the profile names in order.
func (c *CLIConfig) Names() []string {
	names := make([]string, 0, len(c.Profiles))
	for n := range c.Profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Selected returns the profile named name, or the current profile when
// name is empty. ok is false when no profile applies.
func (c *CLIConfig) Selected(name string) (Profile, bool, error) {
	if name == "" {
		name = c.Current
	}
	if name == "" {
		return Profile{}, false, nil
	}
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, false, fmt.Errorf("profile %q not found", name)
	}
	return p, true, nil
}
