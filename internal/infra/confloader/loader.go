package confloader

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix prefixes every environment override.
const DefaultEnvPrefix = "GRIDWIRE_"

// Loader layers configuration sources into one koanf tree.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	loaded    bool
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix overrides DefaultEnvPrefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the YAML file Load reads.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// NewLoader creates an empty loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FilePath returns the configured file, if any.
func (l *Loader) FilePath() string { return l.filePath }

// Load reads the file and the environment on top of anything already
// loaded, then unmarshals into target.
func (l *Loader) Load(target any) error {
	if l.filePath != "" {
		if err := l.LoadFile(l.filePath); err != nil {
			return fmt.Errorf("load config file: %w", err)
		}
	}
	if err := l.LoadEnv(); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	l.loaded = true
	return nil
}

// LoadFile merges a YAML file.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	if err := l.k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}
	return nil
}

// LoadEnv merges variables carrying the env prefix.
func (l *Loader) LoadEnv() error {
	provider := env.Provider(l.envPrefix, ".", func(s string) string {
		return EnvKey(l.envPrefix, s)
	})
	if err := l.k.Load(provider, nil); err != nil {
		return fmt.Errorf("load env: %w", err)
	}
	return nil
}

// EnvKey maps an environment variable name to a config path.
func EnvKey(prefix, name string) string {
	s := strings.ToLower(strings.TrimPrefix(name, prefix))
	parts := strings.Split(s, "__")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, "_", ".")
	}
	return strings.Join(parts, "_")
}

// LoadMap merges an in-memory tree, typically the defaults.
func (l *Loader) LoadMap(data map[string]any) error {
	if err := l.k.Load(mapProvider(data), nil); err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	return nil
}

// Unmarshal decodes the merged tree into target using koanf tags.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}

// String returns one value.
func (l *Loader) String(key string) string {
	return l.k.String(key)
}

// IsLoaded reports whether Load has succeeded.
func (l *Loader) IsLoaded() bool {
	return l.loaded
}

// All returns the flattened tree.
func (l *Loader) All() map[string]any {
	return l.k.All()
}
