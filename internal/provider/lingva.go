package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

// Lingva calls the GET /api/v1/{from}/{to}/{text} API of Lingva Translate instances.
type Lingva struct {
	httpClient *resty.Client
	endpoints  []string
}

type lingvaResponse struct {
	Translation string `json:"translation"`
}

func NewLingva(endpoints []string, timeout time.Duration) *Lingva {
	client := resty.New()
	client.SetTimeout(timeout)

	return &Lingva{
		httpClient: client,
		endpoints:  endpoints,
	}
}

func (p *Lingva) Name() string {
	return NameLingva
}

func (p *Lingva) Translate(ctx context.Context, req Request) (string, error) {
	return tryEndpoints(ctx, p.Name(), p.endpoints, func(endpoint string) (string, error) {
		res, err := p.httpClient.R().
			SetContext(ctx).
			SetResult(&lingvaResponse{}).
			Get(fmt.Sprintf("%s/%s/%s/%s", endpoint, req.From, req.To, url.PathEscape(req.Text)))
		if err != nil {
			return "", fmt.Errorf("client.R.Get > %w", err)
		}
		if res.StatusCode() != http.StatusOK {
			return "", fmt.Errorf("status code: %d, body: %s", res.StatusCode(), string(res.Body()))
		}

		body := res.Result().(*lingvaResponse)
		if body == nil || body.Translation == "" {
			return "", fmt.Errorf("%w: %s", ErrEmptyResponse, string(res.Body()))
		}
		return body.Translation, nil
	})
}
