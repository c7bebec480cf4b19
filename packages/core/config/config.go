package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the settings a run starts from. Boolean settings use
// pointers so a file that never mentions them falls back to the
// default instead of false.
type Config struct {
	Environment  string `yaml:"environment,omitempty"`
	EnvFile      string `yaml:"envFile,omitempty"`
	SnapshotFile string `yaml:"snapshotFile,omitempty"`

	Timeout         int    `yaml:"timeout,omitempty"` // milliseconds
	FollowRedirects *bool  `yaml:"followRedirects,omitempty"`
	MaxRedirects    int    `yaml:"maxRedirects,omitempty"`
	ValidateSSL     *bool  `yaml:"validateSSL,omitempty"`
	Proxy           string `yaml:"proxy,omitempty"`

	RequestFormat  string `yaml:"requestFormat,omitempty"`
	ResponseFormat string `yaml:"responseFormat,omitempty"`
	NoColor        *bool  `yaml:"noColor,omitempty"`
}

const (
	DefaultEnvironment    = "dev"
	DefaultEnvFile        = "http-client.env.json"
	DefaultSnapshotFile   = ".snapshot.json"
	DefaultTimeout        = 30000
	DefaultMaxRedirects   = 10
	DefaultRequestFormat  = "%N\\n%R\\n\\n"
	DefaultResponseFormat = "%R\\n%H\\n%B\\n\\n%T\\n"
)

func DefaultConfig() *Config {
	return &Config{
		Environment:    DefaultEnvironment,
		EnvFile:        DefaultEnvFile,
		SnapshotFile:   DefaultSnapshotFile,
		Timeout:        DefaultTimeout,
		MaxRedirects:   DefaultMaxRedirects,
		RequestFormat:  DefaultRequestFormat,
		ResponseFormat: DefaultResponseFormat,
	}
}

func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames lists the file names searched when no explicit path
// is given.
var ConfigFilenames = []string{
	".dothttp.yaml",
	".dothttp.yml",
	"dothttp.yaml",
	"dothttp.yml",
}

// LoadConfig reads path, or searches the current directory when path
// is empty. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}
	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return config, nil
}
