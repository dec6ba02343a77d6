package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "voicedesk.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadDefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
nlu:
  base_url: https://gateway.example.com/assistant/api
  workspace_id: ws-1234
  timeout: 10s
dialog:
  wake_phrase: helpdesk
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("default addr = %q", cfg.Server.Addr)
	}
	if cfg.Session.Backend != "sqlite" || cfg.Session.SQLitePath != "voicedesk.db" {
		t.Errorf("default session = %+v", cfg.Session)
	}
	if cfg.NLU.BaseURL != "https://gateway.example.com/assistant/api" {
		t.Errorf("nlu url = %q", cfg.NLU.BaseURL)
	}
	if cfg.NLU.Timeout != 10*time.Second {
		t.Errorf("nlu timeout = %v", cfg.NLU.Timeout)
	}
	if cfg.Dialog.WakePhrase != "helpdesk" {
		t.Errorf("wake phrase = %q", cfg.Dialog.WakePhrase)
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
nlu:
  base_url: https://file.example.com
  workspace_id: ws-file
`)
	t.Setenv("VOICEDESK_NLU_WORKSPACE", "ws-env")
	t.Setenv("VOICEDESK_SERVER_ADDR", ":7000")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NLU.WorkspaceID != "ws-env" {
		t.Errorf("workspace = %q, want env override", cfg.NLU.WorkspaceID)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("addr = %q, want env override", cfg.Server.Addr)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("VOICEDESK_NLU_URL", "https://env.example.com")
	t.Setenv("VOICEDESK_NLU_WORKSPACE", "ws-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.NLU.BaseURL != "https://env.example.com" {
		t.Errorf("nlu url = %q", cfg.NLU.BaseURL)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing nlu url",
			mutate:  func(c *Config) { c.NLU.BaseURL = "" },
			wantErr: "nlu.base_url",
		},
		{
			name:    "missing workspace",
			mutate:  func(c *Config) { c.NLU.WorkspaceID = "" },
			wantErr: "nlu.workspace_id",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Session.Backend = "etcd" },
			wantErr: "unknown session backend",
		},
		{
			name: "redis without url",
			mutate: func(c *Config) {
				c.Session.Backend = "redis"
				c.Session.RedisURL = ""
			},
			wantErr: "redis_url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.NLU.BaseURL = "https://gateway.example.com"
			cfg.NLU.WorkspaceID = "ws-1"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
