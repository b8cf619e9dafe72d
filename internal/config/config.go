package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Sentinel errors
var (
	// ErrConfigNotFound is returned when the config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrProfileNotFound is returned when a named profile doesn't exist.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrNoDefaultProfile is returned when no profile is named and no default is set.
	ErrNoDefaultProfile = errors.New("no default profile set")
)

// Profile describes one provider signing key.
type Profile struct {
	KeyID    string        `yaml:"key_id"`
	IssuerID string        `yaml:"issuer_id"`
	KeyFile  string        `yaml:"key_file"`
	Validity time.Duration `yaml:"validity,omitempty"`
}

// Config represents the profiles configuration file.
type Config struct {
	DefaultProfile string             `yaml:"default_profile,omitempty"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// DefaultPath returns ~/.providertoken/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".providertoken", "config.yaml"), nil
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}

	return &cfg, nil
}

// Profile returns the named profile, or the default profile when name is empty.
func (c *Config) Profile(name string) (Profile, error) {
	if name == "" {
		if c.DefaultProfile == "" {
			return Profile{}, ErrNoDefaultProfile
		}
		name = c.DefaultProfile
	}

	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}

	p.KeyFile = expandHome(p.KeyFile)

	return p, nil
}

// Names returns the profile names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
