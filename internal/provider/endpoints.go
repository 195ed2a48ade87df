package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
)

// tryEndpoints calls fn with each endpoint in order until one succeeds.
// Every endpoint gets a single attempt and there is no delay between them.
func tryEndpoints(ctx context.Context, name string, endpoints []string, fn func(endpoint string) (string, error)) (string, error) {
	if len(endpoints) == 0 {
		return "", fmt.Errorf("%s: no endpoints configured", name)
	}

	var result string
	attempt := 0
	err := retry.Do(
		func() error {
			endpoint := endpoints[attempt]
			attempt++

			text, err := fn(endpoint)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return retry.Unrecoverable(err)
				}
				slog.Default().Debug("Provider endpoint failed",
					"provider", name,
					"endpoint", endpoint,
					"error", err)
				return err
			}
			result = text
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(len(endpoints))),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			return 0
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return result, nil
}
