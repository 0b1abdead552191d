package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// mockKeychain is a test double for the keychain interface.
type mockKeychain struct {
	values map[string]string
}

func (m mockKeychain) Get(service, account string) (string, error) {
	if v, ok := m.values[service+"/"+account]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

// TestDefaults verifies all default values are applied when the config file is missing.
func TestDefaults(t *testing.T) {
	clearEnv(t)
	b := newFileBackend(filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := loadWith(b, mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want 4100", cfg.Server.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
	if cfg.Context.TTL != 5*time.Minute || !cfg.Context.Watch {
		t.Errorf("Context = %+v", cfg.Context)
	}
	if cfg.Context.ProjectDir == "" {
		t.Error("Context.ProjectDir should default to the working directory")
	}
	if cfg.History.MaxEntries != 100 {
		t.Errorf("History.MaxEntries = %d, want 100", cfg.History.MaxEntries)
	}
	if cfg.Remote.Backend != "" || cfg.Remote.RateLimit != 2 || cfg.Remote.Timeout != 0 {
		t.Errorf("Remote = %+v", cfg.Remote)
	}
	if cfg.Storage.DataDir == "" || !strings.HasSuffix(cfg.Pages.TemplatesFile, "pages.yaml") {
		t.Errorf("paths = %q, %q", cfg.Storage.DataDir, cfg.Pages.TemplatesFile)
	}
}

func TestLoad_FromTOML(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
[server]
port = 5000

[log]
level = "debug"

[context]
ttl = "30s"
watch = false

[history]
max_entries = 25

[remote]
backend = "ollama"
model = "qwen2.5-coder"
rate_limit = 0.5
timeout = "20s"
`)
	cfg, err := loadWith(newFileBackend(path), mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 5000 || cfg.Log.Level != "debug" {
		t.Errorf("Server/Log = %+v %+v", cfg.Server, cfg.Log)
	}
	if cfg.Context.TTL != 30*time.Second || cfg.Context.Watch {
		t.Errorf("Context = %+v", cfg.Context)
	}
	if cfg.History.MaxEntries != 25 {
		t.Errorf("MaxEntries = %d", cfg.History.MaxEntries)
	}
	want := RemoteConfig{Backend: "ollama", Model: "qwen2.5-coder", RateLimit: 0.5, Timeout: 20 * time.Second}
	if cfg.Remote != want {
		t.Errorf("Remote = %+v, want %+v", cfg.Remote, want)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "[server]\nport = 5000\n")
	t.Setenv("MAGIC_SERVER_PORT", "6000")
	t.Setenv("MAGIC_CONTEXT_WATCH", "false")
	t.Setenv("MAGIC_REMOTE_RATE_LIMIT", "not-a-number")

	cfg, err := loadWith(newFileBackend(path), mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 6000 {
		t.Errorf("Server.Port = %d, want 6000", cfg.Server.Port)
	}
	if cfg.Context.Watch {
		t.Error("Context.Watch should be overridden to false")
	}
	if cfg.Remote.RateLimit != 2 {
		t.Errorf("unparseable env should keep default, got %v", cfg.Remote.RateLimit)
	}
}

func TestLoad_Secrets(t *testing.T) {
	clearEnv(t)
	b := newFileBackend(filepath.Join(t.TempDir(), "missing.toml"))
	kc := mockKeychain{values: map[string]string{
		"magic/remote.api_key": "kc-key",
		"magic/server.token":   "kc-token",
	}}

	cfg, err := loadWith(b, kc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Remote.APIKey != "kc-key" || cfg.Server.Token != "kc-token" {
		t.Errorf("secrets = %q, %q", cfg.Remote.APIKey, cfg.Server.Token)
	}

	t.Setenv("MAGIC_REMOTE_API_KEY", "env-key")
	cfg, err = loadWith(b, kc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Remote.APIKey != "env-key" {
		t.Errorf("env should win over keychain, got %q", cfg.Remote.APIKey)
	}
}

func TestLoad_SecretsIgnoredInFile(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "[remote]\napi_key = \"from-file\"\n")
	cfg, err := loadWith(newFileBackend(path), mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Remote.APIKey != "" {
		t.Errorf("secret read from plain config file: %q", cfg.Remote.APIKey)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown backend": "[remote]\nbackend = \"grpc\"\n",
		"http no url":     "[remote]\nbackend = \"http\"\n",
		"bad log level":   "[log]\nlevel = \"chatty\"\n",
		"zero cap":        "[history]\nmax_entries = 0\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			if _, err := loadWith(newFileBackend(writeTempConfig(t, content)), mockKeychain{}); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_MalformedFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := loadWith(newFileBackend(writeTempConfig(t, "this is = = not toml")), mockKeychain{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 4100 {
		t.Errorf("Server.Port = %d, want default", cfg.Server.Port)
	}
}

func TestSetKey_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "magic", "config.toml")
	secrets := map[string]string{}
	setSecret := func(service, account, value string) error {
		secrets[service+"/"+account] = value
		return nil
	}

	for key, value := range map[string]string{
		"server.port":       "4200",
		"context.ttl":       "90s",
		"context.watch":     "false",
		"remote.backend":    "http",
		"remote.base_url":   "http://localhost:9000",
		"remote.rate_limit": "1.5",
		"remote.api_key":    "secret",
	} {
		if err := setKeyWith(newFileBackend(path), setSecret, key, value); err != nil {
			t.Fatalf("setKey(%s): %v", key, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("secret written to config file:\n%s", data)
	}
	if secrets["magic/remote.api_key"] != "secret" {
		t.Errorf("secret not stored in keychain: %v", secrets)
	}

	cfg, err := loadWith(newFileBackend(path), mockKeychain{values: secrets})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 4200 || cfg.Context.TTL != 90*time.Second || cfg.Context.Watch {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Remote.Backend != "http" || cfg.Remote.BaseURL != "http://localhost:9000" || cfg.Remote.RateLimit != 1.5 || cfg.Remote.APIKey != "secret" {
		t.Errorf("Remote = %+v", cfg.Remote)
	}
}

func TestSetKey_Invalid(t *testing.T) {
	b := newFileBackend(filepath.Join(t.TempDir(), "config.toml"))
	noSecret := func(string, string, string) error { return nil }
	if err := setKeyWith(b, noSecret, "server.port", "abc"); err == nil {
		t.Error("expected error for non-integer port")
	}
	if err := setKeyWith(b, noSecret, "context.ttl", "soon"); err == nil {
		t.Error("expected error for bad duration")
	}
	if err := setKeyWith(b, noSecret, "nope.key", "x"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestShowAll_MasksSecrets(t *testing.T) {
	cfg := defaults()
	cfg.Remote.APIKey = "sk-123"

	infos := ShowAll(cfg)
	if len(infos) != len(specs) {
		t.Fatalf("ShowAll returned %d keys, want %d", len(infos), len(specs))
	}
	for _, ki := range infos {
		switch ki.Key {
		case "remote.api_key":
			if ki.Value != "********" || !ki.Secret {
				t.Errorf("api key not masked: %+v", ki)
			}
		case "server.token":
			if ki.Value != "" {
				t.Errorf("empty token shown as %q", ki.Value)
			}
		case "remote.timeout":
			if ki.Value != "" {
				t.Errorf("zero timeout shown as %q", ki.Value)
			}
		case "context.ttl":
			if ki.Value != "5m0s" {
				t.Errorf("ttl shown as %q", ki.Value)
			}
		}
	}
}

func TestValidKeys(t *testing.T) {
	keys := ValidKeys()
	seen := map[string]bool{}
	for _, k := range keys {
		if seen[k] {
			t.Errorf("duplicate key %q", k)
		}
		seen[k] = true
	}
	for _, want := range []string{"server.port", "remote.backend", "context.ttl", "pages.templates_file"} {
		if !seen[want] {
			t.Errorf("missing key %q", want)
		}
	}
}
