package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad_ParsesDurationStrings(t *testing.T) {
	path := writeTempConfig(t, `
admin:
  addr: ":8080"
  read_timeout: 15s
  write_timeout: 20s
  shutdown_timeout: 1500ms
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Admin.ReadTimeout != 15*time.Second {
		t.Fatalf("expected read_timeout=15s, got %s", cfg.Admin.ReadTimeout)
	}
	if cfg.Admin.WriteTimeout != 20*time.Second {
		t.Fatalf("expected write_timeout=20s, got %s", cfg.Admin.WriteTimeout)
	}
	if cfg.Admin.ShutdownTimeout != 1500*time.Millisecond {
		t.Fatalf("expected shutdown_timeout=1500ms, got %s", cfg.Admin.ShutdownTimeout)
	}
}

func TestLoad_DurationDefaultsWhenOmitted(t *testing.T) {
	path := writeTempConfig(t, `
admin:
  addr: ":8080"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Admin.ReadTimeout != 10*time.Second {
		t.Fatalf("expected default read_timeout=10s, got %s", cfg.Admin.ReadTimeout)
	}
	if cfg.Admin.ShutdownTimeout != 5*time.Second {
		t.Fatalf("expected default shutdown_timeout=5s, got %s", cfg.Admin.ShutdownTimeout)
	}
}

func TestLoad_RejectsMissingAdminAddr(t *testing.T) {
	path := writeTempConfig(t, "admin:\n  addr: \"\"\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for a missing admin.addr")
	}
}

func TestLoad_RejectsUnknownChainName(t *testing.T) {
	path := writeTempConfig(t, `
chains:
  - name: dogecoin
admin:
  addr: ":8080"
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected an error for an unknown chain name")
	}
}

func TestApplyEnv_OverridesPerChainRPCURL(t *testing.T) {
	t.Setenv("SIEVE_ETHEREUM_RPC_URL", "https://override.example/rpc")

	path := writeTempConfig(t, `
chains:
  - name: ethereum
    rpc_url: "https://default.example/rpc"
admin:
  addr: ":8080"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chains[0].RPCURL != "https://override.example/rpc" {
		t.Fatalf("expected env override to win, got %q", cfg.Chains[0].RPCURL)
	}
}

func TestApplyEnv_OverridesAdminToken(t *testing.T) {
	t.Setenv("SIEVE_ADMIN_TOKEN", "secret-token")

	path := writeTempConfig(t, "admin:\n  addr: \":8080\"\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Admin.AuthToken != "secret-token" {
		t.Fatalf("expected SIEVE_ADMIN_TOKEN to set admin.auth_token, got %q", cfg.Admin.AuthToken)
	}
}
