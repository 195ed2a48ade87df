package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const defaultOpenAIEndpoint = "https://api.openai.com/v1"

// OpenAI asks a chat completion model for a bare translation.
type OpenAI struct {
	clients   map[string]*openai.Client
	endpoints []string
	model     string
}

func NewOpenAI(apiKey, model string, endpoints []string, timeout time.Duration) *OpenAI {
	if len(endpoints) == 0 {
		endpoints = []string{defaultOpenAIEndpoint}
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	clients := make(map[string]*openai.Client, len(endpoints))
	for _, endpoint := range endpoints {
		cfg := openai.DefaultConfig(apiKey)
		cfg.BaseURL = endpoint
		cfg.HTTPClient = &http.Client{Timeout: timeout}
		clients[endpoint] = openai.NewClientWithConfig(cfg)
	}

	return &OpenAI{
		clients:   clients,
		endpoints: endpoints,
		model:     model,
	}
}

func (p *OpenAI) Name() string {
	return NameOpenAI
}

func (p *OpenAI) Translate(ctx context.Context, req Request) (string, error) {
	return tryEndpoints(ctx, p.Name(), p.endpoints, func(endpoint string) (string, error) {
		resp, err := p.clients[endpoint].CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: p.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: translationPrompt(req),
				},
			},
			MaxTokens:   50,
			Temperature: 0.3,
		})
		if err != nil {
			return "", fmt.Errorf("CreateChatCompletion > %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("%w: no choices", ErrEmptyResponse)
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})
}

func translationPrompt(req Request) string {
	return fmt.Sprintf(
		"Translate the %s word or phrase '%s' to %s. Respond with only the translation, nothing else.",
		req.From, req.Text, req.To,
	)
}
