package provider

import (
	"context"
	"fmt"
	"time"

	"resty.dev/v3"
)

// LibreTranslate calls the POST /translate API of LibreTranslate instances.
type LibreTranslate struct {
	httpClient *resty.Client
	endpoints  []string
}

type libreTranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type libreTranslateResponse struct {
	TranslatedText string `json:"translatedText"`
}

func NewLibreTranslate(endpoints []string, timeout time.Duration) *LibreTranslate {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")

	return &LibreTranslate{
		httpClient: client,
		endpoints:  endpoints,
	}
}

func (p *LibreTranslate) Name() string {
	return NameLibreTranslate
}

func (p *LibreTranslate) Close() error {
	return p.httpClient.Close()
}

func (p *LibreTranslate) Translate(ctx context.Context, req Request) (string, error) {
	return tryEndpoints(ctx, p.Name(), p.endpoints, func(endpoint string) (string, error) {
		response, err := p.httpClient.R().
			SetContext(ctx).
			SetBody(libreTranslateRequest{
				Q:      req.Text,
				Source: req.From,
				Target: req.To,
				Format: "text",
			}).
			SetResult(&libreTranslateResponse{}).
			Post(endpoint)
		if err != nil {
			return "", fmt.Errorf("httpClient.Post > %w", err)
		}
		if response.IsError() {
			return "", fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
		}

		body := response.Result().(*libreTranslateResponse)
		if body == nil || body.TranslatedText == "" {
			return "", fmt.Errorf("%w: %s", ErrEmptyResponse, response.String())
		}
		return body.TranslatedText, nil
	})
}
