package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeProvider plans through Anthropic's Messages API.
type ClaudeProvider struct {
	client *anthropic.Client
	model  string
}

// NewClaudeProvider creates a Claude-backed planner.
func NewClaudeProvider(model string) (*ClaudeProvider, error) {
	apiKey := os.Getenv("OPERATOR_ANTHROPIC_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPERATOR_ANTHROPIC_KEY or ANTHROPIC_API_KEY environment variable required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_20250514)
	}

	return &ClaudeProvider{
		client: &client,
		model:  model,
	}, nil
}

// Plan sends the screenshots and loop context to Claude and parses the
// returned plan object.
func (p *ClaudeProvider) Plan(ctx context.Context, obs Observation) (*Plan, error) {
	blocks := []anthropic.ContentBlockParamUnion{
		anthropic.NewTextBlock(buildContext(obs)),
	}
	for _, frame := range capScreenshots(obs.Screenshots) {
		encoded := base64.StdEncoding.EncodeToString(frame)
		blocks = append(blocks, anthropic.NewImageBlockBase64("image/png", encoded))
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: 2048,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(blocks...),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("Claude API error: %w", err)
	}

	var responseText string
	for _, block := range resp.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}
	if responseText == "" {
		return nil, fmt.Errorf("empty response from Claude")
	}

	plan, err := parsePlanJSON(responseText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Claude response as JSON: %w\nResponse: %s", err, responseText)
	}
	return plan, nil
}
