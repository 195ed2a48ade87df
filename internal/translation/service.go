// Package translation answers word lookups from a memory cache, the persistent store
// and, when both miss, the provider fallback chain, deferring to a background worker
// when every provider is out of budget.
package translation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/at-ishikawa/langtek/internal/dictionary"
	"github.com/at-ishikawa/langtek/internal/provider"
	"github.com/at-ishikawa/langtek/internal/ratelimit"
)

const (
	DefaultPlaceholder     = "[translating...]"
	DefaultNotFoundText    = "[no translation found]"
	DefaultQueueSize       = 256
	DefaultGlobalPerMinute = 10
)

var (
	// ErrQueueFull is returned by Enqueue when the backfill queue has no room.
	ErrQueueFull = errors.New("translation queue is full")
	// ErrClosed is returned by Enqueue after Close.
	ErrClosed = errors.New("translation service is closed")
)

// ProviderChain is the fallback chain the service consults on a miss.
type ProviderChain interface {
	Len() int
	HasCapacity() bool
	Wait() time.Duration
	Translate(ctx context.Context, req provider.Request) (provider.Translation, error)
}

// CompletionListener receives the outcome of a backfilled word: its translation,
// or the not-found text.
type CompletionListener func(word, translation string)

// PendingRequest is a word deferred to the backfill worker.
type PendingRequest struct {
	Word     string
	From     string
	To       string
	Listener CompletionListener
}

// Service is the lookup coordinator. It owns the memory cache, the pending set and
// the backfill queue; construct one per process.
type Service struct {
	store  dictionary.Store
	cache  *MemoryCache
	chain  ProviderChain
	global *ratelimit.Window

	from         string
	to           string
	placeholder  string
	notFoundText string

	queue chan *PendingRequest

	pendingMu sync.Mutex
	pending   map[string]struct{}
	closed    bool

	refreshMu sync.Mutex
	refresh   func()
	// updated is only touched by the worker goroutine
	updated bool

	sleep     func(ctx context.Context, d time.Duration) error
	started   bool
	done      chan struct{}
	closeOnce sync.Once
}

type Option func(*Service)

func WithLanguages(from, to string) Option {
	return func(s *Service) {
		s.from = from
		s.to = to
	}
}

// WithPlaceholder sets the text returned with StatusPending.
func WithPlaceholder(placeholder string) Option {
	return func(s *Service) {
		s.placeholder = placeholder
	}
}

// WithNotFoundText sets the text passed to completion listeners when backfill finds nothing.
func WithNotFoundText(text string) Option {
	return func(s *Service) {
		s.notFoundText = text
	}
}

func WithQueueSize(size int) Option {
	return func(s *Service) {
		s.queue = make(chan *PendingRequest, size)
	}
}

// WithGlobalWindow sets the budget the backfill worker acquires before each provider round.
func WithGlobalWindow(window *ratelimit.Window) Option {
	return func(s *Service) {
		s.global = window
	}
}

// WithCache shares an existing memory cache.
func WithCache(cache *MemoryCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithSleep replaces how the worker waits for rate budget.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) {
		s.sleep = sleep
	}
}

func NewService(store dictionary.Store, chain ProviderChain, opts ...Option) *Service {
	s := &Service{
		store:        store,
		cache:        NewMemoryCache(),
		chain:        chain,
		global:       ratelimit.NewWindow(DefaultGlobalPerMinute),
		from:         "es",
		to:           "en",
		placeholder:  DefaultPlaceholder,
		notFoundText: DefaultNotFoundText,
		queue:        make(chan *PendingRequest, DefaultQueueSize),
		pending:      make(map[string]struct{}),
		sleep:        sleepContext,
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRefreshCallback registers fn to be called after backfilled words become available.
// Completions that land while more requests are queued are reported by a single call.
func (s *Service) SetRefreshCallback(fn func()) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	s.refresh = fn
}

func (s *Service) Cache() *MemoryCache {
	return s.cache
}

// Lookup translates a single word. It never returns an error: store failures degrade to
// a cache-only lookup and provider failures to StatusNotFound.
func (s *Service) Lookup(ctx context.Context, word string) Result {
	return s.lookup(ctx, word, nil)
}

// LookupWithListener is Lookup, with listener called when a deferred word completes.
// The listener is not called for results that are not StatusPending.
func (s *Service) LookupWithListener(ctx context.Context, word string, listener CompletionListener) Result {
	return s.lookup(ctx, word, listener)
}

func (s *Service) lookup(ctx context.Context, word string, listener CompletionListener) Result {
	logger := slog.Default()
	key := dictionary.NormalizeWord(word)
	if key == "" {
		return Result{Status: StatusNotFound}
	}

	if cached, ok := s.cache.Get(key); ok {
		logger.Debug("Found in memory cache", "word", key, "provenance", cached.Provenance)
		return found(cached.Text, cached.Provenance)
	}

	if entry, ok := s.getFromStore(ctx, key); ok {
		logger.Debug("Found in store", "word", key)
		s.cache.Put(key, CachedTranslation{Text: entry.Translation, Provenance: dictionary.ProvenanceDatabase})
		return found(entry.Translation, dictionary.ProvenanceDatabase)
	}

	if s.chain.Len() == 0 {
		return Result{Status: StatusNotFound}
	}

	if !s.chain.HasCapacity() {
		logger.Debug("All providers rate limited, deferring", "word", key)
		err := s.Enqueue(PendingRequest{Word: key, From: s.from, To: s.to, Listener: listener})
		if errors.Is(err, ErrClosed) {
			return Result{Status: StatusNotFound}
		}
		return Result{Status: StatusPending, Text: s.placeholder}
	}

	translation, err := s.chain.Translate(ctx, provider.Request{Text: key, From: s.from, To: s.to})
	if err != nil {
		logger.Debug("No translation found", "word", key, "error", err)
		return Result{Status: StatusNotFound}
	}
	return s.save(ctx, key, translation)
}

// TranslateViaProviders skips both caches and asks the provider chain directly.
// A translation it finds is saved like any other.
func (s *Service) TranslateViaProviders(ctx context.Context, word string) (Result, error) {
	key := dictionary.NormalizeWord(word)
	if key == "" {
		return Result{Status: StatusNotFound}, nil
	}
	translation, err := s.chain.Translate(ctx, provider.Request{Text: key, From: s.from, To: s.to})
	if err != nil {
		return Result{Status: StatusNotFound}, err
	}
	return s.save(ctx, key, translation), nil
}

// Delete removes word from the store and the memory cache whatever its provenance, so the
// next lookup asks the providers again. A word missing from the store is still dropped from
// the cache and the returned error wraps dictionary.ErrNotFound.
func (s *Service) Delete(ctx context.Context, word string) error {
	key := dictionary.NormalizeWord(word)
	err := s.store.Delete(ctx, key)
	if err != nil && !errors.Is(err, dictionary.ErrNotFound) {
		return err
	}
	s.cache.Delete(key)
	return err
}

// Enqueue hands a word to the backfill worker without blocking. A word that is already
// pending is not queued twice.
func (s *Service) Enqueue(req PendingRequest) error {
	req.Word = dictionary.NormalizeWord(req.Word)
	if req.From == "" {
		req.From = s.from
	}
	if req.To == "" {
		req.To = s.to
	}

	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, ok := s.pending[req.Word]; ok {
		slog.Default().Debug("Already pending", "word", req.Word)
		return nil
	}
	select {
	case s.queue <- &req:
		s.pending[req.Word] = struct{}{}
		slog.Default().Debug("Queued for backfill", "word", req.Word)
		return nil
	default:
		slog.Default().Warn("Translation queue is full", "word", req.Word, "capacity", cap(s.queue))
		return ErrQueueFull
	}
}

// IsPending reports whether word is waiting for the backfill worker.
func (s *Service) IsPending(word string) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()

	_, ok := s.pending[dictionary.NormalizeWord(word)]
	return ok
}

func (s *Service) getFromStore(ctx context.Context, key string) (*dictionary.Entry, bool) {
	entry, err := s.store.Get(ctx, key)
	if err == nil {
		return entry, true
	}
	if !errors.Is(err, dictionary.ErrNotFound) {
		slog.Default().Error("Failed to read the store", "word", key, "error", err)
	}
	return nil, false
}

// save writes a provider translation to the store and the memory cache. When the store keeps
// a protected entry instead, that entry is what gets cached and returned.
func (s *Service) save(ctx context.Context, key string, translation provider.Translation) Result {
	logger := slog.Default()
	result := found(translation.Text, dictionary.Provenance(translation.Provider))

	written, err := s.store.Put(ctx, dictionary.Entry{
		Word:        key,
		Translation: translation.Text,
		Provenance:  result.Provenance,
	})
	switch {
	case err != nil:
		logger.Error("Failed to save translation", "word", key, "provider", translation.Provider, "error", err)
	case !written:
		logger.Debug("Kept protected translation", "word", key, "provider", translation.Provider)
		if entry, ok := s.getFromStore(ctx, key); ok {
			result = found(entry.Translation, entry.Provenance)
		}
	}

	if !s.cache.Put(key, CachedTranslation{Text: result.Text, Provenance: result.Provenance}) {
		if cached, ok := s.cache.Get(key); ok {
			result = found(cached.Text, cached.Provenance)
		}
	}
	return result
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
