package translation

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/langtek/internal/dictionary"
	mock_provider "github.com/at-ishikawa/langtek/internal/mocks/provider"
	"github.com/at-ishikawa/langtek/internal/provider"
	"github.com/at-ishikawa/langtek/internal/ratelimit"
)

var testStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// memoryStore is a dictionary.Store that keeps entries in a map.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]dictionary.Entry
	puts    int
}

func newMemoryStore(entries ...dictionary.Entry) *memoryStore {
	s := &memoryStore{entries: make(map[string]dictionary.Entry)}
	for _, e := range entries {
		s.entries[dictionary.NormalizeWord(e.Word)] = e
	}
	return s
}

func (s *memoryStore) Get(ctx context.Context, word string) (*dictionary.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[dictionary.NormalizeWord(word)]
	if !ok {
		return nil, dictionary.ErrNotFound
	}
	return &e, nil
}

func (s *memoryStore) Put(ctx context.Context, entry dictionary.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.puts++
	key := dictionary.NormalizeWord(entry.Word)
	if existing, ok := s.entries[key]; ok && !entry.Provenance.CanOverwrite(existing.Provenance) {
		return false, nil
	}
	entry.Word = key
	s.entries[key] = entry
	return true, nil
}

func (s *memoryStore) Delete(ctx context.Context, word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := dictionary.NormalizeWord(word)
	if _, ok := s.entries[key]; !ok {
		return dictionary.ErrNotFound
	}
	delete(s.entries, key)
	return nil
}

func (s *memoryStore) Search(ctx context.Context, term string, limit int) ([]dictionary.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []dictionary.Entry
	for _, e := range s.entries {
		if strings.Contains(e.Word, term) || strings.Contains(e.Translation, term) {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (s *memoryStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

func (s *memoryStore) FindAll(ctx context.Context) ([]dictionary.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]dictionary.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *memoryStore) ListSources(ctx context.Context) ([]dictionary.Source, error) {
	return nil, nil
}

func (s *memoryStore) AddSource(ctx context.Context, source dictionary.Source) error {
	return nil
}

func (s *memoryStore) entry(word string) (dictionary.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[word]
	return e, ok
}

func newMockProvider(ctrl *gomock.Controller, name string) *mock_provider.MockProvider {
	p := mock_provider.NewMockProvider(ctrl)
	p.EXPECT().Name().Return(name).AnyTimes()
	return p
}

func request(word string) provider.Request {
	return provider.Request{Text: word, From: "es", To: "en"}
}

// newTestChain builds a chain whose windows all read clock, each allowing limit calls per minute.
func newTestChain(clock ratelimit.Clock, limit int, providers ...provider.Provider) *provider.Chain {
	members := make([]provider.Member, 0, len(providers))
	for _, p := range providers {
		members = append(members, provider.Member{
			Provider: p,
			Window:   ratelimit.NewWindow(limit, ratelimit.WithClock(clock)),
		})
	}
	return provider.NewChain(members)
}

// advancingSleep moves clock forward instead of sleeping and records every wait.
type advancingSleep struct {
	mu     sync.Mutex
	clock  *ratelimit.ManualClock
	sleeps []time.Duration
}

func (a *advancingSleep) sleep(ctx context.Context, d time.Duration) error {
	a.mu.Lock()
	a.sleeps = append(a.sleeps, d)
	a.mu.Unlock()
	a.clock.Advance(d)
	return ctx.Err()
}

func (a *advancingSleep) waits() []time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]time.Duration(nil), a.sleeps...)
}
