package main

import (
	"testing"
	"time"

	"github.com/chorushq/chorus/internal/config"
)

func TestConsoleLabels(t *testing.T) {
	c := newConsole(false)
	c.register("agent-20250101-120000-abcd1234", "backend")
	c.register("agent-20250101-120001-ffee9988", "")

	c.mu.Lock()
	defer c.mu.Unlock()

	if got := c.labelLocked("agent-20250101-120000-abcd1234"); got != "backend" {
		t.Errorf("label = %q, want %q", got, "backend")
	}
	if got := c.labelLocked("agent-20250101-120001-ffee9988"); got != "ffee9988" {
		t.Errorf("label = %q, want id tail %q", got, "ffee9988")
	}
	if got := c.labelLocked("nodashes"); got != "nodashes" {
		t.Errorf("label = %q, want %q", got, "nodashes")
	}
}

func TestConsoleExitTracking(t *testing.T) {
	c := newConsole(false)

	if c.allExited() {
		t.Error("nothing spawned should not count as all exited")
	}

	c.register("a", "one")
	c.register("b", "two")

	c.markExited("a")
	if c.allExited() {
		t.Error("one of two exited should not count as all exited")
	}

	c.markExited("b")
	if !c.allExited() {
		t.Error("both exited should count as all exited")
	}

	// Duplicate exits do not confuse the count.
	c.markExited("b")
	if !c.allExited() {
		t.Error("duplicate exit broke tracking")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is a longer prompt that needs cutting", 20, "this is a longer ..."},
		{"collapse   internal\n\nwhitespace", 40, "collapse internal whitespace"},
	}

	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{5 * time.Minute, "5m"},
		{3 * time.Hour, "3h"},
		{90 * time.Minute, "1h30m"},
		{49 * time.Hour, "2d"},
	}

	for _, tt := range tests {
		if got := formatAge(tt.d); got != tt.want {
			t.Errorf("formatAge(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestConfigValueRoundTrip(t *testing.T) {
	cfg := config.Default()

	cases := []struct {
		key   string
		value string
		want  string
	}{
		{"agent.binary", "my-agent", "my-agent"},
		{"agent.workdir", "/tmp/repo", "/tmp/repo"},
		{"agent.watchdog_timeout", "30s", "30s"},
		{"speech.summarize", "false", "false"},
		{"anthropic.model", "claude-3-5-haiku-latest", "claude-3-5-haiku-latest"},
		{"anthropic.bedrock.enabled", "true", "true"},
		{"anthropic.bedrock.region", "us-west-2", "us-west-2"},
		{"store.enabled", "false", "false"},
		{"debug.log_path", "/tmp/debug.log", "/tmp/debug.log"},
	}

	for _, tc := range cases {
		if err := setConfigValue(cfg, tc.key, tc.value); err != nil {
			t.Fatalf("setConfigValue(%s): %v", tc.key, err)
		}
		got, err := getConfigValue(cfg, tc.key)
		if err != nil {
			t.Fatalf("getConfigValue(%s): %v", tc.key, err)
		}
		if got != tc.want {
			t.Errorf("%s = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestConfigValueMasksKeys(t *testing.T) {
	cfg := config.Default()
	key := "sk-ant-REDACTED"

	if err := setConfigValue(cfg, "anthropic.api_key", key); err != nil {
		t.Fatalf("setConfigValue: %v", err)
	}

	got, err := getConfigValue(cfg, "anthropic.api_key")
	if err != nil {
		t.Fatalf("getConfigValue: %v", err)
	}
	if got == key {
		t.Error("api key should be masked when displayed")
	}
	if got != config.MaskAPIKey(key) {
		t.Errorf("masked key = %q, want %q", got, config.MaskAPIKey(key))
	}
}

func TestConfigValueErrors(t *testing.T) {
	cfg := config.Default()

	if _, err := getConfigValue(cfg, "no.such.key"); err == nil {
		t.Error("expected error for unknown get key")
	}
	if err := setConfigValue(cfg, "no.such.key", "x"); err == nil {
		t.Error("expected error for unknown set key")
	}
	if err := setConfigValue(cfg, "agent.watchdog_timeout", "not-a-duration"); err == nil {
		t.Error("expected error for invalid duration")
	}
	if err := setConfigValue(cfg, "store.enabled", "maybe"); err == nil {
		t.Error("expected error for invalid boolean")
	}
}
