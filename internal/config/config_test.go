package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{DSN: "postgres://localhost/agora"},
	}
}

func TestValidate_MissingDSN(t *testing.T) {
	cfg := validConfig()
	cfg.Database.DSN = ""

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing dsn")
	}
	if err.Error() != "database.dsn is required" {
		t.Errorf("unexpected error message: %q", err.Error())
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig()
		cfg.HTTP.Port = port
		if err := cfg.Validate(); err == nil {
			t.Errorf("port %d: expected error", port)
		}
	}
}

func TestValidate_CacheRequiresAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for enabled cache without addrs")
	}
	cfg.Cache.Addrs = []string{"localhost:6379"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_AzureRequiresBaseURL(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.APIVersion = "2024-02-01"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for api_version without base_url")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.ApplyDefaults()

	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("model = %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.TimeoutSec != 10 {
		t.Errorf("embedding timeout = %d", cfg.Embedding.TimeoutSec)
	}
	if cfg.Embedding.Workers != 4 || cfg.Embedding.Queue != 64 {
		t.Errorf("indexing pool = %d workers, %d queued", cfg.Embedding.Workers, cfg.Embedding.Queue)
	}
	if cfg.Auth.UserHeader != "X-User-ID" {
		t.Errorf("user header = %q", cfg.Auth.UserHeader)
	}
	if cfg.Database.QueryTimeoutSec != 5 {
		t.Errorf("query timeout = %d", cfg.Database.QueryTimeoutSec)
	}
	if cfg.EmbeddingConfigured() {
		t.Error("embedding must be unconfigured without api key")
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("AGORA_TEST_DSN", "postgres://db/agora")
	t.Setenv("AGORA_TEST_KEY", "")

	data := []byte(`
http:
  port: 9000
database:
  dsn: ${AGORA_TEST_DSN}
embedding:
  api_key: ${AGORA_TEST_KEY:-sk-default}
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Database.DSN != "postgres://db/agora" {
		t.Errorf("dsn = %q", cfg.Database.DSN)
	}
	if cfg.Embedding.APIKey != "sk-default" {
		t.Errorf("api key = %q, want default", cfg.Embedding.APIKey)
	}
	if !cfg.EmbeddingConfigured() {
		t.Error("expected embedding configured")
	}
}

func TestLoad_FromDir(t *testing.T) {
	dir := t.TempDir()
	content := "http:\n  port: 8081\ndatabase:\n  dsn: postgres://x\n"
	if err := os.WriteFile(filepath.Join(dir, "test.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("test", dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 8081 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("does-not-exist", t.TempDir()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
