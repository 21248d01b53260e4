package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	apierrors "github.com/diogo/cellchat/internal/errors"
	"github.com/diogo/cellchat/internal/models"
)

// useTempConfigDir points the config directory at a fresh temp dir
func useTempConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(EnvConfigDir, dir)
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model != models.DefaultModel {
		t.Errorf("Expected default model to be %q, got %q", models.DefaultModel, cfg.Model)
	}
	if cfg.Endpoint != models.EndpointGroqChat {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.MaxTokens != 8192 {
		t.Errorf("MaxTokens = %d, want 8192", cfg.MaxTokens)
	}
	if cfg.Temperature != 0 {
		t.Errorf("Temperature = %g, want 0", cfg.Temperature)
	}
	if cfg.Verbose {
		t.Errorf("Expected Verbose to be false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestConfig_Timeout(t *testing.T) {
	tests := []struct {
		seconds int
		want    time.Duration
	}{
		{30, 30 * time.Second},
		{0, 120 * time.Second},
		{-5, 120 * time.Second},
	}
	for _, tt := range tests {
		cfg := Config{TimeoutSeconds: tt.seconds}
		if got := cfg.Timeout(); got != tt.want {
			t.Errorf("Timeout() with %d = %v, want %v", tt.seconds, got, tt.want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty model", func(c *Config) { c.Model = " " }, true},
		{"relative endpoint", func(c *Config) { c.Endpoint = "/v1/chat" }, true},
		{"ftp endpoint", func(c *Config) { c.Endpoint = "ftp://example.com" }, true},
		{"local http endpoint", func(c *Config) { c.Endpoint = "http://127.0.0.1:9000/v1" }, false},
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, true},
		{"temperature too high", func(c *Config) { c.Temperature = 3 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ApplyEnv(t *testing.T) {
	t.Setenv(EnvEndpoint, "http://localhost:1234/v1/chat/completions")
	t.Setenv(EnvModel, "test-model")

	cfg := DefaultConfig().ApplyEnv()
	if cfg.Endpoint != "http://localhost:1234/v1/chat/completions" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}
	if cfg.Model != "test-model" {
		t.Errorf("Model = %q", cfg.Model)
	}
}

func TestGetConfigDir_Override(t *testing.T) {
	dir := useTempConfigDir(t)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() returned error: %v", err)
	}
	if got != dir {
		t.Errorf("GetConfigDir() = %s, want %s", got, dir)
	}
}

func TestGetConfigDir_Home(t *testing.T) {
	t.Setenv(EnvConfigDir, "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() returned error: %v", err)
	}
	if dir != filepath.Join(home, ".cellchat") {
		t.Errorf("GetConfigDir() = %s", dir)
	}
}

func TestLoadConfig_FileNotExists(t *testing.T) {
	useTempConfigDir(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.Model != models.DefaultModel {
		t.Errorf("Model = %s, want default", cfg.Model)
	}
}

func TestSaveConfig(t *testing.T) {
	dir := useTempConfigDir(t)

	cfg := DefaultConfig()
	cfg.Model = "llama-test"
	cfg.Verbose = true

	if err := SaveConfig(cfg); err != nil {
		t.Fatalf("SaveConfig() returned error: %v", err)
	}

	configPath := filepath.Join(dir, "config.json")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	var saved Config
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("Failed to parse saved config: %v", err)
	}
	if saved.Model != cfg.Model {
		t.Errorf("Model = %s, want %s", saved.Model, cfg.Model)
	}
	if !saved.Verbose {
		t.Error("Verbose = false, want true")
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatalf("Failed to stat config file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("File permissions = %o, want 600", perm)
	}
}

func TestLoadConfig_WithExistingFile(t *testing.T) {
	dir := useTempConfigDir(t)

	data := []byte(`{"model": "custom-model", "timeout_seconds": 15}`)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() returned error: %v", err)
	}
	if cfg.Model != "custom-model" {
		t.Errorf("Model = %s", cfg.Model)
	}
	if cfg.TimeoutSeconds != 15 {
		t.Errorf("TimeoutSeconds = %d", cfg.TimeoutSeconds)
	}
	// Fields absent from the file keep their defaults
	if cfg.MaxTokens != models.DefaultMaxTokens {
		t.Errorf("MaxTokens = %d, want default", cfg.MaxTokens)
	}
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	dir := useTempConfigDir(t)

	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(`{"invalid": json`), 0o600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfig()
	if err == nil {
		t.Error("LoadConfig() with invalid JSON should return error")
	}
	if cfg.Model != models.DefaultModel {
		t.Errorf("Model = %s, want default on error", cfg.Model)
	}
}

func TestGetExportDir(t *testing.T) {
	dir := useTempConfigDir(t)

	got, err := GetExportDir(DefaultConfig())
	if err != nil {
		t.Fatalf("GetExportDir() returned error: %v", err)
	}
	if got != filepath.Join(dir, "exports") {
		t.Errorf("GetExportDir() = %s", got)
	}
	if info, err := os.Stat(got); err != nil || !info.IsDir() {
		t.Errorf("export dir was not created: %v", err)
	}

	custom := filepath.Join(t.TempDir(), "out")
	cfg := DefaultConfig()
	cfg.ExportDir = custom
	if got, _ := GetExportDir(cfg); got != custom {
		t.Errorf("GetExportDir() = %s, want %s", got, custom)
	}
}

func TestLoadCredentials_EnvPrecedence(t *testing.T) {
	useTempConfigDir(t)
	t.Setenv(EnvAPIKey, "primary-key")
	t.Setenv(EnvGroqAPIKey, "fallback-key")

	creds, err := LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials() returned error: %v", err)
	}
	if creds.APIKey != "primary-key" {
		t.Errorf("APIKey = %s, want primary-key", creds.APIKey)
	}

	t.Setenv(EnvAPIKey, "")
	creds, err = LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials() returned error: %v", err)
	}
	if creds.APIKey != "fallback-key" || creds.Source != "env:"+EnvGroqAPIKey {
		t.Errorf("creds = %+v", creds)
	}
}

func TestLoadCredentials_Missing(t *testing.T) {
	useTempConfigDir(t)
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvGroqAPIKey, "")

	_, err := LoadCredentials()
	if !errors.Is(err, apierrors.ErrNoAPIKey) {
		t.Errorf("LoadCredentials() error = %v, want ErrNoAPIKey", err)
	}
}

func TestSaveAndLoadCredentials(t *testing.T) {
	dir := useTempConfigDir(t)
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvGroqAPIKey, "")

	if err := SaveCredentials(&Credentials{APIKey: "gsk_saved"}); err != nil {
		t.Fatalf("SaveCredentials() returned error: %v", err)
	}

	path := filepath.Join(dir, "credentials.json")
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat credentials: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("File permissions = %o, want 600", perm)
	}

	creds, err := LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials() returned error: %v", err)
	}
	if creds.APIKey != "gsk_saved" || creds.Source != path {
		t.Errorf("creds = %+v", creds)
	}
}

func TestParseCredentials(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{"json", `{"api_key": "abc123"}`, "abc123", false},
		{"bare key", "abc123\n", "abc123", false},
		{"empty json", `{}`, "", true},
		{"empty file", "", "", true},
		{"garbage", "not a key at all", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := parseCredentials([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCredentials() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && creds.APIKey != tt.want {
				t.Errorf("APIKey = %q, want %q", creds.APIKey, tt.want)
			}
		})
	}
}

func TestCredentials_Masked(t *testing.T) {
	if got := (&Credentials{APIKey: "gsk_1234567890"}).Masked(); got != "********7890" {
		t.Errorf("Masked() = %s", got)
	}
	if got := (&Credentials{APIKey: "abc"}).Masked(); got != "****" {
		t.Errorf("Masked() short = %s", got)
	}
	var nilCreds *Credentials
	if nilCreds.Masked() != "" {
		t.Error("nil Masked() should be empty")
	}
}

func TestSaveCredentials_RejectsEmpty(t *testing.T) {
	useTempConfigDir(t)
	if err := SaveCredentials(&Credentials{APIKey: "  "}); err == nil {
		t.Error("SaveCredentials() should reject an empty key")
	}
}
