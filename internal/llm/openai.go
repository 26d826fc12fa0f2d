package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ksalter/deontica/internal/model"
)

// OpenAIProvider implements Provider against the OpenAI chat API
type OpenAIProvider struct {
	client *openai.Client
	config model.LLMConfig
}

// NewOpenAIProvider creates an OpenAI-backed provider
func NewOpenAIProvider(cfg model.LLMConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: cfg,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Summarize renders a digest via the Chat Completions API
func (p *OpenAIProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	chatModel := req.Model
	if chatModel == "" {
		chatModel = p.config.Model
	}
	if chatModel == "" {
		chatModel = openai.GPT4oMini
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 800
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You summarize deontic-logic lint reports without asserting legal correctness.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(req.Report),
			},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return &SummarizeResponse{
		Summary:    strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:      chatModel,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
