package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/at-ishikawa/langtek/internal/ratelimit"
)

const (
	DefaultTimeout             = 5 * time.Second
	DefaultConsecutiveFailures = 5
	DefaultOpenTimeout         = time.Minute
)

// Member is a provider with its own rate window.
type Member struct {
	Provider Provider
	Window   *ratelimit.Window
}

type chainEntry struct {
	provider Provider
	window   *ratelimit.Window
	breaker  *gobreaker.CircuitBreaker
}

// Chain tries its providers in a fixed priority order. A provider whose window is full
// or whose circuit is open is skipped without waiting.
type Chain struct {
	entries             []chainEntry
	validator           Validator
	timeout             time.Duration
	consecutiveFailures uint32
	openTimeout         time.Duration
}

type ChainOption func(*Chain)

// WithTimeout bounds each provider call.
func WithTimeout(timeout time.Duration) ChainOption {
	return func(c *Chain) {
		c.timeout = timeout
	}
}

func WithValidator(validator Validator) ChainOption {
	return func(c *Chain) {
		c.validator = validator
	}
}

// WithBreaker opens a provider's circuit after consecutiveFailures failed calls in a row
// and keeps it open for openTimeout.
func WithBreaker(consecutiveFailures uint32, openTimeout time.Duration) ChainOption {
	return func(c *Chain) {
		c.consecutiveFailures = consecutiveFailures
		c.openTimeout = openTimeout
	}
}

func NewChain(members []Member, opts ...ChainOption) *Chain {
	c := &Chain{
		validator:           Validator{RejectSymbols: true},
		timeout:             DefaultTimeout,
		consecutiveFailures: DefaultConsecutiveFailures,
		openTimeout:         DefaultOpenTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.entries = make([]chainEntry, 0, len(members))
	for _, m := range members {
		c.entries = append(c.entries, chainEntry{
			provider: m.Provider,
			window:   m.Window,
			breaker:  c.newBreaker(m.Provider.Name()),
		})
	}
	return c
}

func (c *Chain) newBreaker(name string) *gobreaker.CircuitBreaker {
	threshold := c.consecutiveFailures
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: c.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return threshold > 0 && counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Default().Warn("Provider circuit changed state",
				"provider", name,
				"from", from.String(),
				"to", to.String())
		},
	})
}

// Len returns the number of providers in the chain.
func (c *Chain) Len() int {
	return len(c.entries)
}

// HasCapacity reports whether any provider's window has room. It records nothing.
func (c *Chain) HasCapacity() bool {
	for _, e := range c.entries {
		if e.window.HasRoom() {
			return true
		}
	}
	return false
}

// Wait returns how long until some provider's window has room. It is zero when HasCapacity
// is true or the chain is empty.
func (c *Chain) Wait() time.Duration {
	var shortest time.Duration
	for i, e := range c.entries {
		wait := e.window.Wait()
		if wait == 0 {
			return 0
		}
		if i == 0 || wait < shortest {
			shortest = wait
		}
	}
	return shortest
}

// Translate returns the first valid translation in priority order. When every provider is
// skipped or fails, the returned error wraps ErrNoTranslation and each provider's failure.
func (c *Chain) Translate(ctx context.Context, req Request) (Translation, error) {
	logger := slog.Default()
	var errs []error
	for _, e := range c.entries {
		name := e.provider.Name()
		if e.breaker.State() == gobreaker.StateOpen {
			logger.Debug("Provider circuit open, trying next", "provider", name, "word", req.Text)
			errs = append(errs, fmt.Errorf("%s: %w", name, gobreaker.ErrOpenState))
			continue
		}
		if !e.window.Admit() {
			logger.Debug("Provider rate limited, trying next", "provider", name, "word", req.Text)
			errs = append(errs, fmt.Errorf("%s: %w", name, ErrRateLimited))
			continue
		}

		text, err := c.call(ctx, e, req)
		if errors.Is(err, gobreaker.ErrTooManyRequests) {
			// half-open circuit already has its trial call in flight; nothing was sent
			e.window.Release()
			logger.Debug("Provider circuit half-open, trying next", "provider", name, "word", req.Text)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if err != nil {
			logger.Warn("Provider failed", "provider", name, "word", req.Text, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		text, err = c.validator.Check(req.Text, text)
		if err != nil {
			logger.Debug("Provider translation rejected", "provider", name, "word", req.Text, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		logger.Debug("Translated", "provider", name, "word", req.Text, "translation", text)
		return Translation{Text: text, Provider: name}, nil
	}
	if len(errs) == 0 {
		return Translation{}, fmt.Errorf("%w for %q: no providers configured", ErrNoTranslation, req.Text)
	}
	return Translation{}, fmt.Errorf("%w for %q: %w", ErrNoTranslation, req.Text, errors.Join(errs...))
}

func (c *Chain) call(ctx context.Context, e chainEntry, req Request) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := e.breaker.Execute(func() (interface{}, error) {
		return e.provider.Translate(ctx, req)
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// Status is a snapshot of one provider's budget and circuit.
type Status struct {
	Name  string
	Limit int
	Used  int
	State string
}

func (c *Chain) Status() []Status {
	statuses := make([]Status, 0, len(c.entries))
	for _, e := range c.entries {
		statuses = append(statuses, Status{
			Name:  e.provider.Name(),
			Limit: e.window.Limit(),
			Used:  e.window.Used(),
			State: e.breaker.State().String(),
		})
	}
	return statuses
}

// Close releases providers that hold resources.
func (c *Chain) Close() error {
	var errs []error
	for _, e := range c.entries {
		if closer, ok := e.provider.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", e.provider.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}
