// Package provider implements the remote translation backends and the ordered,
// rate-budgeted fallback chain across them.
package provider

import (
	"context"
	"errors"
)

//go:generate mockgen -source=provider.go -destination=../mocks/provider/mock_provider.go -package=mock_provider

const (
	NameLibreTranslate  = "libretranslate"
	NameLingva          = "lingva"
	NameSimplyTranslate = "simplytranslate"
	NameMyMemory        = "mymemory"
	NameDeepL           = "deepl"
	NameOpenAI          = "openai"
	NameGemini          = "gemini"
)

var (
	// ErrRateLimited means the provider's window had no room, so it was not called.
	ErrRateLimited = errors.New("provider rate limited")
	// ErrInvalidTranslation means a provider answered with something that is not a usable translation.
	ErrInvalidTranslation = errors.New("invalid translation")
	// ErrEmptyResponse means a provider answered without the expected translation field.
	ErrEmptyResponse = errors.New("empty translation response")
	// ErrNoTranslation is returned by Chain.Translate when every provider was skipped or failed.
	ErrNoTranslation = errors.New("no provider produced a translation")
)

// Request is a single word or phrase to translate.
type Request struct {
	Text string
	From string
	To   string
}

// Provider is one remote translation backend.
type Provider interface {
	Name() string
	Translate(ctx context.Context, req Request) (string, error)
}

// Translation is the winning answer of a Chain.
type Translation struct {
	Text     string
	Provider string
}
