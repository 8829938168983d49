// Package config handles global configuration for citgraph.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/citgraph/config.yml.
type GlobalConfig struct {
	ScopusAPIKey    string `yaml:"scopus_api_key,omitempty"`
	ScopusInstToken string `yaml:"scopus_insttoken,omitempty"`
	BaseURL         string `yaml:"base_url,omitempty"` // Override for testing/proxies
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "citgraph"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/citgraph/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// LoadDotEnv loads a .env file from the working directory if one exists,
// so SCOPUS_API_KEY can live next to a project instead of the shell profile.
func LoadDotEnv() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
}

// GetScopusAPIKey returns the Scopus API key, environment first.
func GetScopusAPIKey() string {
	if key := os.Getenv("SCOPUS_API_KEY"); key != "" {
		return key
	}
	cfg, _ := LoadGlobalConfig()
	return cfg.ScopusAPIKey
}

// GetScopusInstToken returns the institutional token, environment first.
func GetScopusInstToken() string {
	if token := os.Getenv("SCOPUS_INSTTOKEN"); token != "" {
		return token
	}
	cfg, _ := LoadGlobalConfig()
	return cfg.ScopusInstToken
}

// GetBaseURL returns the configured API base URL override, if any.
func GetBaseURL() string {
	cfg, _ := LoadGlobalConfig()
	return cfg.BaseURL
}

// HelpfulConfigMessage returns a hint for when no API key is configured.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`No Scopus API key configured.

Tip: set SCOPUS_API_KEY in the environment, or create %s:
  mkdir -p %s
  echo 'scopus_api_key: YOUR-KEY' > %s

Keys are issued at https://dev.elsevier.com/`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}
