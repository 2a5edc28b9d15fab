package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
profile: quadrant
secret: bench-secret
link:
  type: udp
  listen: 127.0.0.1:7301
`)
	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Radio.Address != 1 || cfg.Radio.Peer != 2 {
		t.Errorf("radio defaults = %d/%d, want 1/2", cfg.Radio.Address, cfg.Radio.Peer)
	}
	if cfg.Radio.Retries != 3 || cfg.Radio.AckTimeoutMs != 1000 {
		t.Errorf("retry defaults = %d/%d", cfg.Radio.Retries, cfg.Radio.AckTimeoutMs)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("logging.level = %q, want info", cfg.Logging.Level)
	}
	p, err := cfg.AntennaProfile()
	if err != nil {
		t.Fatalf("AntennaProfile: %v", err)
	}
	if p.NumDirections() != 4 {
		t.Errorf("profile directions = %d, want 4", p.NumDirections())
	}
}

func TestLoadMissingSecret(t *testing.T) {
	path := writeConfig(t, `
profile: full
link:
  type: udp
  listen: 127.0.0.1:7301
`)
	_, err := Load(path, false)
	if err == nil || !strings.Contains(err.Error(), "secret is required") {
		t.Fatalf("err = %v, want secret is required", err)
	}
}

func TestSecretFromEnvironment(t *testing.T) {
	t.Setenv(SecretEnvVar, "env-secret")
	path := writeConfig(t, `
profile: full
link:
  type: udp
  listen: 127.0.0.1:7301
`)
	cfg, err := Load(path, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Secret != "env-secret" {
		t.Errorf("secret = %q, want env-secret", cfg.Secret)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"unknown profile",
			"profile: yagi\nsecret: s\nlink:\n  type: udp\n  listen: :1\n",
			"unknown antenna profile",
		},
		{
			"same addresses",
			"profile: full\nsecret: s\nradio:\n  address: 5\n  peer: 5\nlink:\n  type: udp\n  listen: :1\n",
			"must differ",
		},
		{
			"serial without device",
			"profile: full\nsecret: s\nlink:\n  type: serial\n",
			"link.device is required",
		},
		{
			"bad link type",
			"profile: full\nsecret: s\nlink:\n  type: carrier-pigeon\n",
			"link.type",
		},
		{
			"bad log level",
			"profile: full\nsecret: s\nlink:\n  type: udp\n  listen: :1\nlogging:\n  level: chatty\n",
			"logging.level",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body), false)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadAutoCreate(t *testing.T) {
	t.Setenv(SecretEnvVar, "env-secret")
	path := filepath.Join(t.TempDir(), "fresh.yaml")
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load with autoCreate: %v", err)
	}
	if cfg.Profile != "full" || cfg.Link.Type != "udp" {
		t.Errorf("default config = %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file not written: %v", err)
	}
}

func TestLoadMissingFileNoAutoCreate(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v, want not found", err)
	}
}
