package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini asks a Gemini model for a bare translation.
type Gemini struct {
	models contentGenerator
	model  string
}

// NewGemini creates a Gemini provider. The first endpoint, if any, overrides the API base URL.
func NewGemini(ctx context.Context, apiKey, model string, endpoints []string, timeout time.Duration) (*Gemini, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if len(endpoints) > 0 {
		cfg.HTTPOptions.BaseURL = endpoints[0]
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient > %w", err)
	}
	if model == "" {
		model = defaultGeminiModel
	}

	return &Gemini{
		models: client.Models,
		model:  model,
	}, nil
}

func (p *Gemini) Name() string {
	return NameGemini
}

func (p *Gemini) Translate(ctx context.Context, req Request) (string, error) {
	resp, err := p.models.GenerateContent(ctx, p.model, genai.Text(translationPrompt(req)), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.3),
	})
	if err != nil {
		return "", fmt.Errorf("%s: GenerateContent > %w", p.Name(), err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%s: %w", p.Name(), ErrEmptyResponse)
	}
	return text, nil
}
