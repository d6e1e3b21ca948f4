// Package summary turns raw agent output into short spoken status lines
// using the Anthropic API.
package summary

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

const (
	// maxPromptRunes bounds how much agent output is sent per request.
	// Long transcripts are trimmed from the front; the tail carries the
	// part worth speaking.
	maxPromptRunes = 6000

	// maxSummaryTokens caps the response. A spoken line is a sentence or
	// two, never a paragraph.
	maxSummaryTokens = 200
)

const systemPrompt = "You announce, out loud, that a coding agent has finished working. " +
	"Given the agent's raw output, reply with one or two short spoken sentences " +
	"describing what it accomplished. Plain conversational language only: no " +
	"markdown, no code, no file paths unless they are the point. Do not quote " +
	"the output back."

// Config contains configuration for creating a new Summarizer.
type Config struct {
	// Model is the Claude model to use. Defaults to Haiku; summaries are
	// short and frequent.
	Model anthropic.Model
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY env var.
	APIKey string
	// UseAWSBedrock indicates whether to use AWS Bedrock instead of direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g., "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
}

// Summarizer produces speakable one-liners from agent transcripts.
type Summarizer struct {
	client anthropic.Client
	model  anthropic.Model
}

// New creates a Summarizer backed by the Anthropic API.
func New(cfg Config) (*Summarizer, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, config.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaude3_5Haiku20241022
	}
	if cfg.UseAWSBedrock {
		model = translateModelForBedrock(model)
	}

	return &Summarizer{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

// Model returns the model summaries are generated with.
func (s *Summarizer) Model() anthropic.Model {
	return s.model
}

// Summarize condenses agent output into a short spoken sentence or two.
// Empty output returns an empty summary without calling the API.
func (s *Summarizer) Summarize(ctx context.Context, output string) (string, error) {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" {
		return "", nil
	}

	resp, err := s.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     s.model,
		MaxTokens: maxSummaryTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(tailForPrompt(trimmed))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += variant.Text
		}
	}

	return strings.TrimSpace(text), nil
}

// tailForPrompt keeps the last maxPromptRunes runes of the transcript.
func tailForPrompt(output string) string {
	runes := []rune(output)
	if len(runes) <= maxPromptRunes {
		return output
	}
	return string(runes[len(runes)-maxPromptRunes:])
}

// translateModelForBedrock converts standard Anthropic model names to Bedrock
// cross-region inference profile format: us.anthropic.{model}-v1:0.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaude3_7Sonnet20250219:  "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
	}

	if bedrockModel, ok := bedrockModels[model]; ok {
		return anthropic.Model(bedrockModel)
	}

	// Not in the map: assume it is already in Bedrock format or a custom model.
	return model
}
