package summary

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
)

func TestNew_WithAPIKey(t *testing.T) {
	cfg := Config{
		APIKey: "test-key-123",
		Model:  anthropic.ModelClaude3_5Haiku20241022,
	}

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s == nil {
		t.Fatal("New returned nil")
	}
	if s.Model() != anthropic.ModelClaude3_5Haiku20241022 {
		t.Errorf("Model = %q, want %q", s.Model(), anthropic.ModelClaude3_5Haiku20241022)
	}
}

func TestNew_WithEnvVar(t *testing.T) {
	original := os.Getenv("ANTHROPIC_API_KEY")
	defer os.Setenv("ANTHROPIC_API_KEY", original)

	os.Setenv("ANTHROPIC_API_KEY", "env-test-key")

	s, err := New(Config{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s == nil {
		t.Fatal("New returned nil")
	}
}

func TestNew_NoAPIKey(t *testing.T) {
	original := os.Getenv("ANTHROPIC_API_KEY")
	defer os.Setenv("ANTHROPIC_API_KEY", original)

	os.Unsetenv("ANTHROPIC_API_KEY")

	_, err := New(Config{})
	if err == nil {
		t.Fatal("New should fail without API key")
	}

	expected := "ANTHROPIC_API_KEY environment variable is not set"
	if err.Error() != expected {
		t.Errorf("Error = %q, want %q", err.Error(), expected)
	}
}

func TestNew_DefaultModel(t *testing.T) {
	s, err := New(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if s.Model() != anthropic.ModelClaude3_5Haiku20241022 {
		t.Errorf("Default model = %q, want %q", s.Model(), anthropic.ModelClaude3_5Haiku20241022)
	}
}

func TestNew_BedrockTranslatesModel(t *testing.T) {
	cfg := Config{
		UseAWSBedrock: true,
		AWSRegion:     "us-west-2",
		Model:         anthropic.ModelClaude3_5Haiku20241022,
	}

	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	want := anthropic.Model("us.anthropic.claude-3-5-haiku-20241022-v1:0")
	if s.Model() != want {
		t.Errorf("Bedrock model = %q, want %q", s.Model(), want)
	}
}

func TestTranslateModelForBedrock_Unknown(t *testing.T) {
	custom := anthropic.Model("us.anthropic.claude-custom-v1:0")
	if got := translateModelForBedrock(custom); got != custom {
		t.Errorf("Unknown model translated to %q, want unchanged", got)
	}
}

func TestSummarize_EmptyOutput(t *testing.T) {
	s, err := New(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// Whitespace-only output short-circuits before any API call.
	got, err := s.Summarize(context.Background(), "   \n\t  ")
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got != "" {
		t.Errorf("Summary = %q, want empty", got)
	}
}

func TestTailForPrompt(t *testing.T) {
	short := "all done"
	if got := tailForPrompt(short); got != short {
		t.Errorf("Short output changed: %q", got)
	}

	long := strings.Repeat("a", maxPromptRunes) + "tail"
	got := tailForPrompt(long)
	if len([]rune(got)) != maxPromptRunes {
		t.Errorf("Trimmed length = %d, want %d", len([]rune(got)), maxPromptRunes)
	}
	if !strings.HasSuffix(got, "tail") {
		t.Error("Trimming should keep the end of the output")
	}
}

func TestTailForPrompt_RuneBoundary(t *testing.T) {
	long := strings.Repeat("é", maxPromptRunes+10)
	got := tailForPrompt(long)
	if len([]rune(got)) != maxPromptRunes {
		t.Errorf("Trimmed rune count = %d, want %d", len([]rune(got)), maxPromptRunes)
	}
	if strings.Contains(got, "�") {
		t.Error("Trimming split a multi-byte rune")
	}
}
