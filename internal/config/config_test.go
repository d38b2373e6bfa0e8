package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	conf, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if conf.Server.Listen != ":8000" {
		t.Fatalf("expected default listen :8000 got %q", conf.Server.Listen)
	}
	if conf.RateLimit.PurchasePerMinute != 5 {
		t.Fatalf("expected default purchase budget 5 got %f", conf.RateLimit.PurchasePerMinute)
	}
	if conf.RateLimit.ReadPerMinute != 100 {
		t.Fatalf("expected default read budget 100 got %f", conf.RateLimit.ReadPerMinute)
	}
}

func TestLoadYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  listen: ":9000"
  sqlitePath: "/tmp/words.db"
  redisAddr: "localhost:6379"
rateLimit:
  purchasePerMinute: 20
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	conf, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if conf.Server.Listen != ":9000" {
		t.Fatalf("expected listen :9000 got %q", conf.Server.Listen)
	}
	if conf.Server.SqlitePath != "/tmp/words.db" {
		t.Fatalf("unexpected sqlite path %q", conf.Server.SqlitePath)
	}
	if conf.RateLimit.PurchasePerMinute != 20 {
		t.Fatalf("expected purchase budget 20 got %f", conf.RateLimit.PurchasePerMinute)
	}
	// Untouched keys keep their defaults.
	if conf.RateLimit.ReadPerMinute != 100 {
		t.Fatalf("expected read budget 100 got %f", conf.RateLimit.ReadPerMinute)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SPKKN_LISTEN", ":7070")
	t.Setenv("SPKKN_RATE_READ_PER_MINUTE", "42")

	conf, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if conf.Server.Listen != ":7070" {
		t.Fatalf("expected env listen :7070 got %q", conf.Server.Listen)
	}
	if conf.RateLimit.ReadPerMinute != 42 {
		t.Fatalf("expected env read budget 42 got %f", conf.RateLimit.ReadPerMinute)
	}
}
