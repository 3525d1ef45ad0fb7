package ai

import (
	"context"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider plans through OpenRouter's OpenAI-compatible API with a
// strict JSON schema on the response.
type OpenRouterProvider struct {
	client *openai.Client
	model  string
}

// NewOpenRouterProvider creates an OpenRouter-backed planner.
func NewOpenRouterProvider(model string) (*OpenRouterProvider, error) {
	apiKey := os.Getenv("OPENROUTER_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable required")
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = openRouterBaseURL

	if model == "" {
		model = "anthropic/claude-3.7-sonnet"
	}

	return &OpenRouterProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Plan sends the screenshots and loop context to OpenRouter and parses the
// schema-constrained plan object.
func (p *OpenRouterProvider) Plan(ctx context.Context, obs Observation) (*Plan, error) {
	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   "ooda_response_timed",
			Strict: true,
			Schema: planSchema,
		},
	}
	return chatCompletionPlan(ctx, p.client, p.model, obs, format)
}
