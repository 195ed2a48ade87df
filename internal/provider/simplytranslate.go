package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"
)

// SimplyTranslate calls the GET /api/translate API of SimplyTranslate instances
// using their Google engine.
type SimplyTranslate struct {
	httpClient *resty.Client
	endpoints  []string
}

type simplyTranslateResponse struct {
	Translation string `json:"translation"`
}

func NewSimplyTranslate(endpoints []string, timeout time.Duration) *SimplyTranslate {
	client := resty.New()
	client.SetTimeout(timeout)

	return &SimplyTranslate{
		httpClient: client,
		endpoints:  endpoints,
	}
}

func (p *SimplyTranslate) Name() string {
	return NameSimplyTranslate
}

func (p *SimplyTranslate) Close() error {
	return p.httpClient.Close()
}

func (p *SimplyTranslate) Translate(ctx context.Context, req Request) (string, error) {
	return tryEndpoints(ctx, p.Name(), p.endpoints, func(endpoint string) (string, error) {
		response, err := p.httpClient.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"engine": "google",
				"from":   req.From,
				"to":     req.To,
				"text":   req.Text,
			}).
			SetResult(&simplyTranslateResponse{}).
			Get(strings.TrimSuffix(endpoint, "/") + "/api/translate")
		if err != nil {
			return "", fmt.Errorf("httpClient.Get > %w", err)
		}
		if response.IsError() {
			return "", fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
		}

		body := response.Result().(*simplyTranslateResponse)
		if body == nil || body.Translation == "" {
			return "", fmt.Errorf("%w: %s", ErrEmptyResponse, response.String())
		}
		return body.Translation, nil
	})
}
