package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadWithDefaultsAndEnv(t *testing.T) {
	path := writeConfig(t, `
app:
  env: dev
auth:
  jwt_secret: secret
http:
  addr: ":9000"
`)
	t.Setenv("APP_POSTGRES_DSN", "postgres://env")
	t.Setenv("APP_TABLE_DEFAULT_PAGE_SIZE", "25")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.HTTP.Addr != ":9000" || c.App.Env != "dev" {
		t.Fatalf("file values: %+v", c)
	}
	if c.Postgres.DSN != "postgres://env" {
		t.Fatalf("env override: %q", c.Postgres.DSN)
	}
	if c.Table.DefaultPageSize != 25 {
		t.Fatalf("page size %d", c.Table.DefaultPageSize)
	}
	if c.Auth.TokenTTL != 12*time.Hour || c.HTTP.ReadTimeout != 10*time.Second {
		t.Fatalf("duration defaults: %v %v", c.Auth.TokenTTL, c.HTTP.ReadTimeout)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	path := writeConfig(t, "app:\n  env: prod\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error without jwt secret")
	}
}
