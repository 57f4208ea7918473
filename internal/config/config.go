package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config models riskline.yml.
type Config struct {
	Instance struct {
		ID   string `yaml:"id"`
		Kind string `yaml:"kind"`
	} `yaml:"instance"`
	Server struct {
		Addr     string `yaml:"addr"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Auth struct {
		JWTSecret             string   `yaml:"jwt_secret"`
		AllowLegacyUserHeader bool     `yaml:"allow_legacy_user_header"`
		Admins                []string `yaml:"admins"`
	} `yaml:"auth"`
	Workflow struct {
		// DefaultReportingDate is used by CLI commands when no date flag is
		// given; 0 means the caller must always specify one.
		DefaultReportingDate int64 `yaml:"default_reporting_date"`
	} `yaml:"workflow"`
}

// Load reads and validates config from the workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; run rl init to create it", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the default config if the file does not exist.
func LoadOptional(workspace, instanceID string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(instanceID), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return fmt.Errorf("config.instance.id is required")
	}
	if c.Instance.Kind != "kri-registry" {
		return fmt.Errorf("config.instance.kind must be 'kri-registry'")
	}
	if c.Server.BasePath != "" && c.Server.BasePath[0] != '/' {
		return fmt.Errorf("config.server.base_path must start with /")
	}
	for _, admin := range c.Auth.Admins {
		if admin == "" {
			return fmt.Errorf("config.auth.admins contains empty user uuid")
		}
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "riskline.yml")
}

// Default returns the default Config struct for an instance.
func Default(instanceID string) *Config {
	var cfg Config
	cfg.Instance.ID = instanceID
	cfg.Instance.Kind = "kri-registry"
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, instanceID))).Decode(&cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault(instanceID string) string {
	return fmt.Sprintf(defaultTemplate, instanceID)
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
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

const defaultTemplate = `instance:
  id: %s
  kind: kri-registry

server:
  addr: ":8080"
  base_path: /v0

auth:
  jwt_secret: ""
  allow_legacy_user_header: true
  admins: []

workflow:
  default_reporting_date: 0
`
