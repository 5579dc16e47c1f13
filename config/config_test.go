package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "nao-existe.env")
}

func TestLoadLocalDefaults(t *testing.T) {
	t.Setenv("AUTH_MODE", "local")
	t.Setenv("LOCAL_AUTH_SECRET", "segredo")
	t.Setenv("GATEWAY", "memory")
	t.Setenv("USERS_DB_DRIVER", "sqlite")

	cfg, err := Load(missingEnvFile(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("unexpected port %q", cfg.ServerPort)
	}
	if cfg.RefreshAfterCreate != time.Second || cfg.ViewIdleTTL != 30*time.Minute || cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("unexpected durations: %+v", cfg)
	}
	if !cfg.RollbackOnWriteFailure {
		t.Fatalf("rollback should default to true")
	}
	if cfg.DragActivationDistance != 8 {
		t.Fatalf("unexpected activation distance %v", cfg.DragActivationDistance)
	}
	if cfg.NeedsFirebase() {
		t.Fatalf("local+memory must not need firebase")
	}
	if len(cfg.AllowedOrigins) != 0 {
		t.Fatalf("expected no explicit origins, got %v", cfg.AllowedOrigins)
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "AUTH_MODE=local\nLOCAL_AUTH_SECRET=abc\nGATEWAY=memory\nUSERS_DB_DRIVER=sqlite\n" +
		"CORS_ALLOWED_ORIGINS=http://a.test, http://b.test\nROLLBACK_ON_WRITE_FAILURE=false\nDRAG_ACTIVATION_DISTANCE=12\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	keys := []string{"AUTH_MODE", "LOCAL_AUTH_SECRET", "GATEWAY", "USERS_DB_DRIVER", "CORS_ALLOWED_ORIGINS", "ROLLBACK_ON_WRITE_FAILURE", "DRAG_ACTIVATION_DISTANCE"}
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
	if cfg.RollbackOnWriteFailure {
		t.Fatalf("rollback should be disabled by env file")
	}
	if cfg.DragActivationDistance != 12 {
		t.Fatalf("unexpected activation distance %v", cfg.DragActivationDistance)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown auth mode":    {"AUTH_MODE": "oauth"},
		"local without secret": {"AUTH_MODE": "local", "GATEWAY": "memory"},
		"firestore no creds":   {"AUTH_MODE": "local", "LOCAL_AUTH_SECRET": "x", "GATEWAY": "firestore"},
		"negative duration":    {"AUTH_MODE": "local", "LOCAL_AUTH_SECRET": "x", "GATEWAY": "memory", "VIEW_IDLE_TTL": "-1m"},
		"bad duration":         {"AUTH_MODE": "local", "LOCAL_AUTH_SECRET": "x", "GATEWAY": "memory", "CACHE_TTL": "soon"},
		"unknown driver":       {"AUTH_MODE": "local", "LOCAL_AUTH_SECRET": "x", "GATEWAY": "memory", "USERS_DB_DRIVER": "mysql"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for _, k := range []string{"AUTH_MODE", "LOCAL_AUTH_SECRET", "GATEWAY", "FIREBASE_CREDENTIALS_PATH", "USERS_DB_DRIVER"} {
				t.Setenv(k, "")
				os.Unsetenv(k)
			}
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(missingEnvFile(t)); err == nil {
				t.Fatalf("expected error for %v", env)
			}
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "kanban", DBSSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=kanban sslmode=disable"
	if got := cfg.PostgresDSN(); got != want {
		t.Fatalf("dsn = %q, want %q", got, want)
	}
}
