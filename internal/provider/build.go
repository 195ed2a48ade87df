package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/at-ishikawa/langtek/internal/config"
	"github.com/at-ishikawa/langtek/internal/ratelimit"
)

var errMissingAPIKey = errors.New("missing API key")

// New creates the provider named by pc.
func New(ctx context.Context, pc config.ProviderConfig, creds config.CredentialsConfig, timeout time.Duration) (Provider, error) {
	switch pc.Name {
	case NameLibreTranslate:
		return NewLibreTranslate(pc.Endpoints, timeout), nil
	case NameLingva:
		return NewLingva(pc.Endpoints, timeout), nil
	case NameSimplyTranslate:
		return NewSimplyTranslate(pc.Endpoints, timeout), nil
	case NameMyMemory:
		return NewMyMemory(pc.Endpoints, timeout), nil
	case NameDeepL:
		if creds.DeepLAPIKey == "" {
			return nil, errMissingAPIKey
		}
		return NewDeepL(creds.DeepLAPIKey, pc.Endpoints, timeout), nil
	case NameOpenAI:
		if creds.OpenAIAPIKey == "" {
			return nil, errMissingAPIKey
		}
		return NewOpenAI(creds.OpenAIAPIKey, pc.Model, pc.Endpoints, timeout), nil
	case NameGemini:
		if creds.GeminiAPIKey == "" {
			return nil, errMissingAPIKey
		}
		return NewGemini(ctx, creds.GeminiAPIKey, pc.Model, pc.Endpoints, timeout)
	default:
		return nil, fmt.Errorf("unknown provider %q", pc.Name)
	}
}

// Build creates the fallback chain in the configured order. Providers that need an API key
// are left out with a warning when the key is not set.
func Build(ctx context.Context, cfg *config.Config, windowOpts ...ratelimit.Option) (*Chain, error) {
	timeout := cfg.Translation.ProviderTimeout
	members := make([]Member, 0, len(cfg.Providers))
	for _, pc := range cfg.Providers {
		p, err := New(ctx, pc, cfg.Credentials, timeout)
		if errors.Is(err, errMissingAPIKey) {
			slog.Default().Warn("Skipping provider without an API key", "provider", pc.Name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create provider %s: %w", pc.Name, err)
		}
		members = append(members, Member{
			Provider: p,
			Window:   ratelimit.NewWindow(pc.PerMinute, windowOpts...),
		})
	}

	return NewChain(members,
		WithTimeout(timeout),
		WithValidator(Validator{RejectSymbols: cfg.Translation.RejectSymbols}),
		WithBreaker(cfg.Breaker.ConsecutiveFailures, cfg.Breaker.OpenTimeout),
	), nil
}
