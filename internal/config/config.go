package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"coursecal/internal/building"
)

// EnvConfigPath names the environment variable consulted when no config
// path is given on the command line. A .env file in the working directory
// is loaded first.
const EnvConfigPath = "COURSECAL_CONFIG"

const (
	DefaultProductID  = "-//coursecal//EN"
	DefaultOutputFile = "./output.ics"
)

// ComponentPolicy decides what happens to calendar components that are not
// events (VTIMEZONE, VTODO, ...).
type ComponentPolicy string

const (
	// PolicyKeep copies non-event components to the output unchanged.
	PolicyKeep ComponentPolicy = "keep"
	// PolicyDrop writes only the transformed events.
	PolicyDrop ComponentPolicy = "drop"
)

// ParseComponentPolicy accepts "keep" or "drop" in any case.
func ParseComponentPolicy(s string) (ComponentPolicy, error) {
	switch p := ComponentPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyKeep, PolicyDrop:
		return p, nil
	default:
		return "", fmt.Errorf("unknown non-event component policy %q (want keep or drop)", s)
	}
}

// Config is the top-level application configuration.
type Config struct {
	// Buildings maps full building names, exactly as the export writes them,
	// to the short codes shown in locations.
	Buildings map[string]string `yaml:"buildings" json:"buildings"`

	// NonEventComponents is "keep" (default) or "drop".
	NonEventComponents ComponentPolicy `yaml:"non_event_components" json:"non_event_components"`

	// ProductID is written as PRODID of the output calendar.
	ProductID string `yaml:"product_id" json:"product_id"`

	// OutputFile is used when -o is not given.
	OutputFile string `yaml:"output_file" json:"output_file"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Buildings:          building.DefaultCodes(),
		NonEventComponents: PolicyKeep,
		ProductID:          DefaultProductID,
		OutputFile:         DefaultOutputFile,
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly. An explicitly empty buildings map
// is kept empty.
func (c *Config) Normalize() {
	if c.Buildings == nil {
		c.Buildings = building.DefaultCodes()
	}
	c.NonEventComponents = ComponentPolicy(strings.ToLower(strings.TrimSpace(string(c.NonEventComponents))))
	if c.NonEventComponents == "" {
		c.NonEventComponents = PolicyKeep
	}
	if strings.TrimSpace(c.ProductID) == "" {
		c.ProductID = DefaultProductID
	}
	if strings.TrimSpace(c.OutputFile) == "" {
		c.OutputFile = DefaultOutputFile
	}
}

// Validate reports values Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := ParseComponentPolicy(string(c.NonEventComponents)); err != nil {
		return err
	}
	for name, code := range c.Buildings {
		if strings.TrimSpace(name) == "" {
			return errors.New("building with empty name")
		}
		if strings.TrimSpace(code) == "" {
			return fmt.Errorf("building %q has an empty code", name)
		}
	}
	return nil
}

// Table builds the building lookup table from the configuration.
func (c *Config) Table() building.Table {
	return building.New(c.Buildings)
}

// ResolvePath returns the config path to use: the flag value if set,
// otherwise $COURSECAL_CONFIG. An empty result means built-in defaults.
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	// A missing .env is the normal case.
	_ = godotenv.Load()
	return os.Getenv(EnvConfigPath)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - empty path: the default config
//   - missing or unreadable file: error
//   - otherwise: unmarshal, normalize, validate
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically with renameio; the final file is 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return renameio.WriteFile(path, data, 0o600)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
