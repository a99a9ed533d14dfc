package maxchat

import (
	"log/slog"
	"net/http"
	"testing"
)

func TestSessionOption_WatchChats(t *testing.T) {
	ids := []int64{1, 2, 3}
	cfg := sessionConfig{}
	WithWatchChats(ids...)(&cfg)

	if len(cfg.watchChats) != 3 {
		t.Fatalf("len(watchChats) = %d, want 3", len(cfg.watchChats))
	}

	// The option keeps its own copy
	ids[0] = 99
	if cfg.watchChats[0] != 1 {
		t.Errorf("watchChats[0] = %d, want 1", cfg.watchChats[0])
	}
}

func TestSessionOption_Flags(t *testing.T) {
	cfg := sessionConfig{}
	WithSkipMalformed()(&cfg)
	WithReadErrorLimit(5)(&cfg)

	if !cfg.skipMalformed {
		t.Error("skipMalformed = false, want true")
	}
	if cfg.readErrorLimit != 5 {
		t.Errorf("readErrorLimit = %d, want 5", cfg.readErrorLimit)
	}
}

func TestSessionOption_Logger(t *testing.T) {
	logger := slog.Default()
	cfg := sessionConfig{}
	WithLogger(logger)(&cfg)

	if cfg.logger != logger {
		t.Error("logger not set")
	}
}

func TestSessionOption_DialOptions(t *testing.T) {
	header := http.Header{"X-Trace": []string{"abc"}}
	client := &http.Client{}

	cfg := sessionConfig{}
	WithUserAgent("agent/2.0")(&cfg)
	WithOrigin("https://web.example")(&cfg)
	WithHTTPHeader(header)(&cfg)
	WithHTTPClient(client)(&cfg)

	opts := cfg.dialOptions()
	if opts.UserAgent != "agent/2.0" {
		t.Errorf("UserAgent = %s, want agent/2.0", opts.UserAgent)
	}
	if opts.Origin != "https://web.example" {
		t.Errorf("Origin = %s, want https://web.example", opts.Origin)
	}
	if opts.HTTPHeader.Get("X-Trace") != "abc" {
		t.Errorf("HTTPHeader = %v", opts.HTTPHeader)
	}
	if opts.HTTPClient != client {
		t.Error("HTTPClient not set")
	}
}

func TestNewSession_DefaultDialer(t *testing.T) {
	sess := NewSession("wss://chat.example/websocket", "tok")
	if sess.cfg.dial == nil {
		t.Fatal("dial is nil")
	}
	if len(sess.WatchChats()) != 0 {
		t.Errorf("WatchChats() = %v, want empty", sess.WatchChats())
	}
}
