package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const FileName = "atelier.yml"

// Config models atelier.yml.
type Config struct {
	Workshop struct {
		Name string `yaml:"name"`
	} `yaml:"workshop"`
	Workflow struct {
		// Strict rejects status moves outside the transition table.
		Strict bool `yaml:"strict"`
	} `yaml:"workflow"`
	Notifications struct {
		WindowDays int `yaml:"window_days"`
	} `yaml:"notifications"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with atelier config init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the defaults if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	cfg, err := Load(workspace)
	if err != nil {
		if _, statErr := os.Stat(Path(workspace)); os.IsNotExist(statErr) {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Workshop.Name) == "" {
		return fmt.Errorf("config.workshop.name is required")
	}
	if c.Notifications.WindowDays < 0 {
		return fmt.Errorf("config.notifications.window_days must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error", "off", "none":
	default:
		return fmt.Errorf("config.log.level %q is not a known level", c.Log.Level)
	}
	if bp := c.Server.BasePath; bp != "" && !strings.HasPrefix(bp, "/") {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// GenerateDefault returns default config YAML.
func GenerateDefault(name string) string {
	return fmt.Sprintf(defaultTemplate, name)
}

// Default returns the built-in configuration. Like template.Must it panics
// only if the built-in template itself is broken, which is a programming
// error caught by the package tests.
func Default() *Config {
	cfg, err := FromYAML([]byte(GenerateDefault("Atelier")))
	if err != nil {
		panic(err)
	}
	return cfg
}

// FromYAML parses and validates config from raw YAML bytes. Keys absent
// from the document keep their default values.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	cfg.Notifications.WindowDays = 3
	cfg.Log.Level = "info"
	cfg.Server.Addr = "127.0.0.1:8080"
	cfg.Server.BasePath = "/v0"
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `workshop:
  name: %s

workflow:
  strict: false

notifications:
  window_days: 3

log:
  level: info
  file: ""

server:
  addr: 127.0.0.1:8080
  base_path: /v0
`
