package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "maxchat.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
url: wss://ws-api.example/websocket
token: secret
user_agent: maxchat-test/1.0
watch_chats: [10, -20]
keepalive_interval: 15s
skip_malformed: true
read_error_limit: 4
log:
  level: debug
  format: json
  outputs: [stdout]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.URL != "wss://ws-api.example/websocket" {
		t.Errorf("URL = %s", cfg.URL)
	}
	if cfg.Token != "secret" {
		t.Errorf("Token = %s, want secret", cfg.Token)
	}
	if cfg.UserAgent != "maxchat-test/1.0" {
		t.Errorf("UserAgent = %s", cfg.UserAgent)
	}
	if len(cfg.WatchChats) != 2 || cfg.WatchChats[0] != 10 || cfg.WatchChats[1] != -20 {
		t.Errorf("WatchChats = %v, want [10 -20]", cfg.WatchChats)
	}
	if cfg.KeepaliveInterval != 15*time.Second {
		t.Errorf("KeepaliveInterval = %s, want 15s", cfg.KeepaliveInterval)
	}
	if !cfg.SkipMalformed {
		t.Error("SkipMalformed = false, want true")
	}
	if cfg.ReadErrorLimit != 4 {
		t.Errorf("ReadErrorLimit = %d, want 4", cfg.ReadErrorLimit)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if len(cfg.Log.Outputs) != 1 || cfg.Log.Outputs[0] != "stdout" {
		t.Errorf("Log.Outputs = %v, want [stdout]", cfg.Log.Outputs)
	}
	// untouched defaults survive
	if cfg.Log.Rotation.MaxSizeMB != 50 {
		t.Errorf("Rotation.MaxSizeMB = %d, want 50", cfg.Log.Rotation.MaxSizeMB)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
url: wss://ws-api.example/websocket
token: from-file
`)
	t.Setenv("MAXCHAT_TOKEN", "from-env")
	t.Setenv("MAXCHAT_LOG_LEVEL", "warn")
	t.Setenv("MAXCHAT_KEEPALIVE_INTERVAL", "5s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Token != "from-env" {
		t.Errorf("Token = %s, want from-env", cfg.Token)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %s, want warn", cfg.Log.Level)
	}
	if cfg.KeepaliveInterval != 5*time.Second {
		t.Errorf("KeepaliveInterval = %s, want 5s", cfg.KeepaliveInterval)
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
url: https://ws-api.example/websocket
token: secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.URL != "wss://ws-api.example/websocket" {
		t.Errorf("URL = %s, want https normalised to wss", cfg.URL)
	}
	if cfg.KeepaliveInterval != 30*time.Second {
		t.Errorf("KeepaliveInterval = %s, want 30s", cfg.KeepaliveInterval)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if len(cfg.WatchChats) != 0 {
		t.Errorf("WatchChats = %v, want empty", cfg.WatchChats)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing token", "url: wss://ws-api.example/websocket\n", "token is required"},
		{"missing url", "token: secret\n", "url is required"},
		{"bad scheme", "url: ftp://ws-api.example\ntoken: secret\n", "invalid url scheme"},
		{"bad level", "url: wss://ws-api.example\ntoken: secret\nlog:\n  level: loud\n", "invalid log.level"},
		{"bad keepalive", "url: wss://ws-api.example\ntoken: secret\nkeepalive_interval: 0s\n", "invalid keepalive_interval"},
		{"bad yaml", "url: [unterminated\n", "read config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"wss://ws-api.example/websocket", "wss://ws-api.example/websocket"},
		{"ws://localhost:8080/ws", "ws://localhost:8080/ws"},
		{"http://localhost:8080/ws", "ws://localhost:8080/ws"},
		{"https://ws-api.example/websocket", "wss://ws-api.example/websocket"},
	}

	for _, tt := range tests {
		got, err := NormalizeURL(tt.in)
		if err != nil {
			t.Errorf("NormalizeURL(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := NormalizeURL("wss://"); err == nil {
		t.Error("NormalizeURL(wss://) should fail without a host")
	}
}
