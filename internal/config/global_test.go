package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// withConfigFile points XDG_CONFIG_HOME at a temp dir holding the given
// config content and resets the cache around the test.
func withConfigFile(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfgDir := filepath.Join(dir, GlobalConfigDir)
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, GlobalConfigFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	ResetGlobalConfigCache()
	t.Cleanup(ResetGlobalConfigCache)
}

func TestGlobalConfigPathRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	want := filepath.Join("/custom/config", GlobalConfigDir, GlobalConfigFile)
	if got := GlobalConfigPath(); got != want {
		t.Errorf("GlobalConfigPath = %q, want %q", got, want)
	}
}

func TestLoadGlobalConfig(t *testing.T) {
	withConfigFile(t, "scopus_api_key: file-key\nbase_url: http://localhost:9999\n")

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig: %v", err)
	}
	if cfg.ScopusAPIKey != "file-key" {
		t.Errorf("ScopusAPIKey = %q, want file-key", cfg.ScopusAPIKey)
	}
	if cfg.BaseURL != "http://localhost:9999" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
}

func TestLoadGlobalConfigMissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	ResetGlobalConfigCache()
	t.Cleanup(ResetGlobalConfigCache)

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig: %v (a missing file is not an error)", err)
	}
	if cfg.ScopusAPIKey != "" {
		t.Errorf("ScopusAPIKey = %q, want empty", cfg.ScopusAPIKey)
	}
}

func TestLoadGlobalConfigInvalidYAML(t *testing.T) {
	withConfigFile(t, "scopus_api_key: [unclosed\n")

	if _, err := LoadGlobalConfig(); err == nil {
		t.Fatal("LoadGlobalConfig accepted invalid YAML")
	}
}

func TestGetScopusAPIKeyEnvWins(t *testing.T) {
	withConfigFile(t, "scopus_api_key: file-key\n")
	t.Setenv("SCOPUS_API_KEY", "env-key")

	if got := GetScopusAPIKey(); got != "env-key" {
		t.Errorf("GetScopusAPIKey = %q, want env-key", got)
	}
}

func TestGetScopusAPIKeyFallsBackToFile(t *testing.T) {
	withConfigFile(t, "scopus_api_key: file-key\n")
	t.Setenv("SCOPUS_API_KEY", "")

	if got := GetScopusAPIKey(); got != "file-key" {
		t.Errorf("GetScopusAPIKey = %q, want file-key", got)
	}
}

func TestGetScopusInstToken(t *testing.T) {
	withConfigFile(t, "scopus_insttoken: file-token\n")
	t.Setenv("SCOPUS_INSTTOKEN", "")

	if got := GetScopusInstToken(); got != "file-token" {
		t.Errorf("GetScopusInstToken = %q, want file-token", got)
	}

	t.Setenv("SCOPUS_INSTTOKEN", "env-token")
	if got := GetScopusInstToken(); got != "env-token" {
		t.Errorf("GetScopusInstToken = %q, want env-token", got)
	}
}

func TestConfigCache(t *testing.T) {
	withConfigFile(t, "scopus_api_key: first\n")

	cfg, err := LoadGlobalConfig()
	if err != nil {
		t.Fatalf("LoadGlobalConfig: %v", err)
	}
	if cfg.ScopusAPIKey != "first" {
		t.Fatalf("ScopusAPIKey = %q", cfg.ScopusAPIKey)
	}

	// A rewritten file is not seen until the cache is reset.
	path := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), GlobalConfigDir, GlobalConfigFile)
	if err := os.WriteFile(path, []byte("scopus_api_key: second\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, _ = LoadGlobalConfig()
	if cfg.ScopusAPIKey != "first" {
		t.Errorf("ScopusAPIKey = %q, want cached first", cfg.ScopusAPIKey)
	}

	ResetGlobalConfigCache()
	cfg, _ = LoadGlobalConfig()
	if cfg.ScopusAPIKey != "second" {
		t.Errorf("ScopusAPIKey = %q after reset, want second", cfg.ScopusAPIKey)
	}
}

func TestHelpfulConfigMessage(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")

	msg := HelpfulConfigMessage()
	if !strings.Contains(msg, "SCOPUS_API_KEY") {
		t.Error("message should name the environment variable")
	}
	if !strings.Contains(msg, GlobalConfigPath()) {
		t.Error("message should name the config path")
	}
}
