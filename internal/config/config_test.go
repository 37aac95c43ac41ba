package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const validYAML = `databaseURL: postgres://localhost/connectly
redisAddr: localhost:6379
minioEndpoint: localhost:9000
minioAccessKey: access
minioSecretKey: secret
minioBucket: avatars
jwtSecret: topsecret
logLevel: debug
sessionTTL: 12h
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://localhost/connectly" {
		t.Fatalf("unexpected databaseURL: %q", cfg.DatabaseURL)
	}
	if cfg.MinioBucket != "avatars" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestEnvOverridesWin(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db.internal/connectly")
	t.Setenv("CONNECTLY_JWT_SECRET", "from-env")

	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseURL != "postgres://db.internal/connectly" {
		t.Fatalf("expected env override, got %q", cfg.DatabaseURL)
	}
	if cfg.JWTSecret != "from-env" {
		t.Fatalf("expected env override, got %q", cfg.JWTSecret)
	}
}

func TestLoadRejectsMissingFields(t *testing.T) {
	if _, err := Load(writeConfig(t, "redisAddr: localhost:6379\n")); err == nil {
		t.Fatalf("expected validation error for missing fields")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseSessionTTL(t *testing.T) {
	d, err := ParseSessionTTL("")
	if err != nil || d != 24*time.Hour {
		t.Fatalf("default ttl: %v %v", d, err)
	}
	d, err = ParseSessionTTL("12h")
	if err != nil || d != 12*time.Hour {
		t.Fatalf("parsed ttl: %v %v", d, err)
	}
	if _, err := ParseSessionTTL("soon"); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := ParseSessionTTL("-1h"); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}
}
