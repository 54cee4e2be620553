// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/equity-engine/pkg/types"
)

// defaultOpenAIModel is used when llm.model is not configured.
const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI serves completions through the OpenAI API or any OpenAI-compatible
// endpoint (Ollama, vLLM) selected by base_url. Per prd003-data-providers R5.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds the adapter from configuration. An API key is required
// unless base_url points at a local endpoint that accepts unauthenticated
// requests.
func NewOpenAI(cfg types.LLMConfig) (Provider, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, types.NewError(types.KindValidation, "llm.openai",
			"api key required (set llm.api_key or EQUITY_ENGINE_LLM_API_KEY)")
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(clientCfg), model: model}, nil
}

func (o *OpenAI) Name() string { return "openai" }

// Generate sends one chat completion request and returns the first choice.
func (o *OpenAI) Generate(ctx context.Context, req Request) (Response, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	// Reasoning models reject MaxTokens in favor of MaxCompletionTokens.
	if req.MaxTokens > 0 {
		if reasoningModel(o.model) {
			chatReq.MaxCompletionTokens = req.MaxTokens
		} else {
			chatReq.MaxTokens = req.MaxTokens
		}
	}

	resp, err := o.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Response{}, err
	}
	if len(resp.Choices) == 0 {
		return Response{}, types.NewError(types.KindProvider, "llm.openai", "completion returned no choices")
	}
	return Response{
		Content:     resp.Choices[0].Message.Content,
		Model:       resp.Model,
		TotalTokens: resp.Usage.TotalTokens,
	}, nil
}

func reasoningModel(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}
