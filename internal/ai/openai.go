package ai

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider plans through OpenAI's chat completions API.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI-backed planner.
func NewOpenAIProvider(model string) (*OpenAIProvider, error) {
	apiKey := os.Getenv("OPERATOR_OPENAI_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPERATOR_OPENAI_KEY or OPENAI_API_KEY environment variable required")
	}

	if model == "" {
		model = "gpt-4o"
	}

	return &OpenAIProvider{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// Plan sends the screenshots and loop context to OpenAI and parses the
// returned plan object.
func (p *OpenAIProvider) Plan(ctx context.Context, obs Observation) (*Plan, error) {
	return chatCompletionPlan(ctx, p.client, p.model, obs, nil)
}

// chatCompletionPlan is shared by the OpenAI and OpenRouter providers, which
// speak the same wire protocol.
func chatCompletionPlan(ctx context.Context, client *openai.Client, model string, obs Observation, format *openai.ChatCompletionResponseFormat) (*Plan, error) {
	parts := []openai.ChatMessagePart{
		{
			Type: openai.ChatMessagePartTypeText,
			Text: buildContext(obs),
		},
	}
	for _, frame := range capScreenshots(obs.Screenshots) {
		dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(frame)
		parts = append(parts, openai.ChatMessagePart{
			Type:     openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
		})
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
		MaxTokens:      2048,
		ResponseFormat: format,
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}

	responseText := resp.Choices[0].Message.Content
	plan, err := parsePlanJSON(responseText)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w\nResponse: %s", err, responseText)
	}
	return plan, nil
}
