package provider

import (
	"context"
	"fmt"
	"time"

	"resty.dev/v3"
)

// MyMemory calls the MyMemory translation memory API. It needs no authentication.
type MyMemory struct {
	httpClient *resty.Client
	endpoints  []string
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
}

func NewMyMemory(endpoints []string, timeout time.Duration) *MyMemory {
	client := resty.New()
	client.SetTimeout(timeout)

	return &MyMemory{
		httpClient: client,
		endpoints:  endpoints,
	}
}

func (p *MyMemory) Name() string {
	return NameMyMemory
}

func (p *MyMemory) Close() error {
	return p.httpClient.Close()
}

func (p *MyMemory) Translate(ctx context.Context, req Request) (string, error) {
	return tryEndpoints(ctx, p.Name(), p.endpoints, func(endpoint string) (string, error) {
		response, err := p.httpClient.R().
			SetContext(ctx).
			SetQueryParam("q", req.Text).
			SetQueryParam("langpair", req.From+"|"+req.To).
			SetResult(&myMemoryResponse{}).
			Get(endpoint)
		if err != nil {
			return "", fmt.Errorf("httpClient.Get > %w", err)
		}
		if response.IsError() {
			return "", fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
		}

		body := response.Result().(*myMemoryResponse)
		if body == nil || body.ResponseData.TranslatedText == "" {
			return "", fmt.Errorf("%w: %s", ErrEmptyResponse, response.String())
		}
		return body.ResponseData.TranslatedText, nil
	})
}
