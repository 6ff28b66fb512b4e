package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/echonotes/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.App.HTTP.Port != 5000 {
		t.Errorf("default port = %d, want 5000", cfg.App.HTTP.Port)
	}
	if cfg.Cleanup.APIKey != "" {
		t.Error("default config must not carry a credential")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{EnvPort: "6001", EnvGroqAPIKey: "gsk_test"}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := NewDefaultConfig()
	if err := cfg.ApplyEnv(lookup); err != nil {
		t.Fatal(err)
	}
	if cfg.App.HTTP.Port != 6001 {
		t.Errorf("port = %d, want 6001", cfg.App.HTTP.Port)
	}
	if cfg.Cleanup.APIKey != "gsk_test" {
		t.Errorf("api key = %q", cfg.Cleanup.APIKey)
	}

	env[EnvPort] = "not-a-port"
	if err := cfg.ApplyEnv(lookup); err == nil {
		t.Error("expected error for malformed PORT")
	}
}

func TestApplyEnv_UnsetKeepsValues(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Cleanup.APIKey = "from-file"
	if err := cfg.ApplyEnv(func(string) (string, bool) { return "", false }); err != nil {
		t.Fatal(err)
	}
	if cfg.App.HTTP.Port != 5000 || cfg.Cleanup.APIKey != "from-file" {
		t.Errorf("cfg changed: %+v", cfg)
	}
}

func TestStorageConfig_Validate(t *testing.T) {
	for _, driver := range []string{"file", "sqlite"} {
		cfg := StorageConfig{Driver: driver, Path: "./data"}
		if err := cfg.Validate(); err != nil {
			t.Errorf("%s: %v", driver, err)
		}
	}
	if err := (&StorageConfig{Driver: "redis", Path: "x"}).Validate(); err == nil {
		t.Error("unknown driver should fail")
	}
	if err := (&StorageConfig{Driver: "file"}).Validate(); err == nil {
		t.Error("empty path should fail")
	}
}

func TestCleanupConfig_Validate(t *testing.T) {
	if err := (&CleanupConfig{BaseURL: "not a url", Model: "m"}).Validate(); err == nil {
		t.Error("malformed base url should fail")
	}
	if err := (&CleanupConfig{BaseURL: "https://api.groq.com/openai/v1"}).Validate(); err == nil {
		t.Error("empty model should fail")
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv("ECHO_TEST_KEY", "gsk_yaml")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `app:
  log_level: debug
  http:
    port: 7000
cleanup:
  api_key: ${ECHO_TEST_KEY}
  base_url: https://api.groq.com/openai/v1
  model: llama-3.1-8b-instant
notes:
  sse_keepalive: 30s
storage:
  driver: sqlite
  path: ./data/notes.db
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.HTTP.Port != 7000 || cfg.Cleanup.APIKey != "gsk_yaml" || cfg.Storage.Driver != "sqlite" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Notes.SSEKeepAlive != 30*time.Second {
		t.Errorf("keepalive = %v", cfg.Notes.SSEKeepAlive)
	}
	if cfg.Auth.Mode != AuthModeDisabled {
		t.Errorf("auth mode = %q", cfg.Auth.Mode)
	}
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("found = true for a missing file")
	}
	if cfg.App.HTTP.Port != 5000 {
		t.Errorf("port = %d", cfg.App.HTTP.Port)
	}
}
