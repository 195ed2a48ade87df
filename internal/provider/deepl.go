package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"
)

// DeepL calls the DeepL v2 translate API. Language codes are sent upper-cased.
type DeepL struct {
	httpClient *resty.Client
	endpoints  []string
}

type deepLRequest struct {
	Text       []string `json:"text"`
	SourceLang string   `json:"source_lang"`
	TargetLang string   `json:"target_lang"`
}

type deepLResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

func NewDeepL(apiKey string, endpoints []string, timeout time.Duration) *DeepL {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Authorization", "DeepL-Auth-Key "+apiKey)
	client.SetHeader("Content-Type", "application/json")

	return &DeepL{
		httpClient: client,
		endpoints:  endpoints,
	}
}

func (p *DeepL) Name() string {
	return NameDeepL
}

func (p *DeepL) Close() error {
	return p.httpClient.Close()
}

func (p *DeepL) Translate(ctx context.Context, req Request) (string, error) {
	return tryEndpoints(ctx, p.Name(), p.endpoints, func(endpoint string) (string, error) {
		response, err := p.httpClient.R().
			SetContext(ctx).
			SetBody(deepLRequest{
				Text:       []string{req.Text},
				SourceLang: strings.ToUpper(req.From),
				TargetLang: strings.ToUpper(req.To),
			}).
			SetResult(&deepLResponse{}).
			Post(endpoint)
		if err != nil {
			return "", fmt.Errorf("httpClient.Post > %w", err)
		}
		if response.IsError() {
			return "", fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
		}

		body := response.Result().(*deepLResponse)
		if body == nil || len(body.Translations) == 0 || body.Translations[0].Text == "" {
			return "", fmt.Errorf("%w: %s", ErrEmptyResponse, response.String())
		}
		return body.Translations[0].Text, nil
	})
}
