package translation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/at-ishikawa/langtek/internal/dictionary"
	mock_dictionary "github.com/at-ishikawa/langtek/internal/mocks/dictionary"
	mock_provider "github.com/at-ishikawa/langtek/internal/mocks/provider"
	"github.com/at-ishikawa/langtek/internal/provider"
	"github.com/at-ishikawa/langtek/internal/ratelimit"
)

func TestService_Lookup(t *testing.T) {
	tests := []struct {
		name      string
		word      string
		cached    map[string]CachedTranslation
		setupMock func(store *mock_dictionary.MockStore, p *mock_provider.MockProvider)
		want      Result
		wantCache *CachedTranslation
	}{
		{
			name:      "empty word has no side effects",
			word:      "   ",
			setupMock: func(store *mock_dictionary.MockStore, p *mock_provider.MockProvider) {},
			want:      Result{Status: StatusNotFound},
		},
		{
			name: "memory cache hit does no I/O",
			word: "Hola",
			cached: map[string]CachedTranslation{
				"hola": {Text: "hello", Provenance: dictionary.ProvenanceCommon},
			},
			setupMock: func(store *mock_dictionary.MockStore, p *mock_provider.MockProvider) {},
			want:      Result{Status: StatusFound, Text: "hello", Provenance: dictionary.ProvenanceCommon},
		},
		{
			name: "store hit populates the cache without calling a provider",
			word: "Perro",
			setupMock: func(store *mock_dictionary.MockStore, p *mock_provider.MockProvider) {
				store.EXPECT().Get(gomock.Any(), "perro").Return(&dictionary.Entry{
					Word: "perro", Translation: "dog", Provenance: "lingva",
				}, nil)
			},
			want:      Result{Status: StatusFound, Text: "dog", Provenance: dictionary.ProvenanceDatabase},
			wantCache: &CachedTranslation{Text: "dog", Provenance: dictionary.ProvenanceDatabase},
		},
		{
			name: "provider result is saved with the provider as provenance",
			word: "perro",
			setupMock: func(store *mock_dictionary.MockStore, p *mock_provider.MockProvider) {
				store.EXPECT().Get(gomock.Any(), "perro").Return(nil, dictionary.ErrNotFound)
				p.EXPECT().Translate(gomock.Any(), request("perro")).Return("dog", nil)
				store.EXPECT().Put(gomock.Any(), dictionary.Entry{
					Word: "perro", Translation: "dog", Provenance: "lingva",
				}).Return(true, nil)
			},
			want:      Result{Status: StatusFound, Text: "dog", Provenance: "lingva"},
			wantCache: &CachedTranslation{Text: "dog", Provenance: "lingva"},
		},
		{
			name: "provider failure is not cached",
			word: "xyzzy",
			setupMock: func(store *mock_dictionary.MockStore, p *mock_provider.MockProvider) {
				store.EXPECT().Get(gomock.Any(), "xyzzy").Return(nil, dictionary.ErrNotFound)
				p.EXPECT().Translate(gomock.Any(), request("xyzzy")).Return("", fmt.Errorf("500 internal server error"))
			},
			want: Result{Status: StatusNotFound},
		},
		{
			name: "store read error degrades to a miss",
			word: "gato",
			setupMock: func(store *mock_dictionary.MockStore, p *mock_provider.MockProvider) {
				store.EXPECT().Get(gomock.Any(), "gato").Return(nil, fmt.Errorf("database is locked"))
				p.EXPECT().Translate(gomock.Any(), request("gato")).Return("cat", nil)
				store.EXPECT().Put(gomock.Any(), gomock.Any()).Return(true, nil)
			},
			want:      Result{Status: StatusFound, Text: "cat", Provenance: "lingva"},
			wantCache: &CachedTranslation{Text: "cat", Provenance: "lingva"},
		},
		{
			name: "store write error still caches the translation",
			word: "gato",
			setupMock: func(store *mock_dictionary.MockStore, p *mock_provider.MockProvider) {
				store.EXPECT().Get(gomock.Any(), "gato").Return(nil, dictionary.ErrNotFound)
				p.EXPECT().Translate(gomock.Any(), request("gato")).Return("cat", nil)
				store.EXPECT().Put(gomock.Any(), gomock.Any()).Return(false, fmt.Errorf("readonly database"))
			},
			want:      Result{Status: StatusFound, Text: "cat", Provenance: "lingva"},
			wantCache: &CachedTranslation{Text: "cat", Provenance: "lingva"},
		},
		{
			name: "protected entry written meanwhile wins over the provider result",
			word: "banco",
			setupMock: func(store *mock_dictionary.MockStore, p *mock_provider.MockProvider) {
				gomock.InOrder(
					store.EXPECT().Get(gomock.Any(), "banco").Return(nil, dictionary.ErrNotFound),
					p.EXPECT().Translate(gomock.Any(), request("banco")).Return("bank", nil),
					store.EXPECT().Put(gomock.Any(), gomock.Any()).Return(false, nil),
					store.EXPECT().Get(gomock.Any(), "banco").Return(&dictionary.Entry{
						Word: "banco", Translation: "bench", Provenance: dictionary.ProvenanceManual,
					}, nil),
				)
			},
			want:      Result{Status: StatusFound, Text: "bench", Provenance: dictionary.ProvenanceManual},
			wantCache: &CachedTranslation{Text: "bench", Provenance: dictionary.ProvenanceManual},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			store := mock_dictionary.NewMockStore(ctrl)
			p := newMockProvider(ctrl, "lingva")
			tt.setupMock(store, p)

			cache := NewMemoryCache()
			for word, c := range tt.cached {
				cache.Put(word, c)
			}
			clock := ratelimit.NewManualClock(testStart)
			svc := NewService(store, newTestChain(clock, 10, p), WithCache(cache))

			got := svc.Lookup(context.Background(), tt.word)
			assert.Equal(t, tt.want, got)

			cached, ok := cache.Get(dictionary.NormalizeWord(tt.word))
			if tt.wantCache != nil {
				require.True(t, ok)
				assert.Equal(t, *tt.wantCache, cached)
			} else if len(tt.cached) == 0 {
				assert.False(t, ok)
			}
		})
	}
}

func TestService_Lookup_NoProviders(t *testing.T) {
	store := newMemoryStore()
	svc := NewService(store, provider.NewChain(nil))

	got := svc.Lookup(context.Background(), "perro")
	assert.Equal(t, Result{Status: StatusNotFound}, got)

	_, ok := store.entry("perro")
	assert.False(t, ok)
	assert.Equal(t, 0, svc.Cache().Len())
	assert.False(t, svc.IsPending("perro"))
}

func TestService_Lookup_AllProvidersFailing(t *testing.T) {
	ctrl := gomock.NewController(t)
	a := newMockProvider(ctrl, "a")
	a.EXPECT().Translate(gomock.Any(), gomock.Any()).Return("", fmt.Errorf("timeout"))
	b := newMockProvider(ctrl, "b")
	b.EXPECT().Translate(gomock.Any(), gomock.Any()).Return("perro", nil)

	store := newMemoryStore()
	svc := NewService(store, newTestChain(ratelimit.NewManualClock(testStart), 10, a, b))

	got := svc.Lookup(context.Background(), "perro")
	assert.Equal(t, Result{Status: StatusNotFound}, got)
	_, ok := store.entry("perro")
	assert.False(t, ok)
	assert.Equal(t, 0, svc.Cache().Len())
}

func TestService_Lookup_StoreHitNeverCallsProviders(t *testing.T) {
	ctrl := gomock.NewController(t)
	// no Translate expectation: any provider call fails the test
	p := newMockProvider(ctrl, "lingva")

	words := []string{"hola", "perro", "gato", "buenos días"}
	var entries []dictionary.Entry
	for _, w := range words {
		entries = append(entries, dictionary.Entry{Word: w, Translation: "t-" + w, Provenance: dictionary.ProvenanceCommon})
	}
	svc := NewService(newMemoryStore(entries...), newTestChain(ratelimit.NewManualClock(testStart), 10, p))

	for _, w := range words {
		got := svc.Lookup(context.Background(), w)
		assert.Equal(t, StatusFound, got.Status, w)
		assert.Equal(t, "t-"+w, got.Text, w)
	}
}

func TestService_Lookup_Idempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := newMockProvider(ctrl, "lingva")
	p.EXPECT().Translate(gomock.Any(), request("perro")).Return("dog", nil).Times(1)

	store := newMemoryStore()
	svc := NewService(store, newTestChain(ratelimit.NewManualClock(testStart), 10, p))

	first := svc.Lookup(context.Background(), "perro")
	second := svc.Lookup(context.Background(), "Perro")
	assert.Equal(t, first, second)
	assert.Equal(t, Result{Status: StatusFound, Text: "dog", Provenance: "lingva"}, first)
	assert.Equal(t, 1, store.puts)
}

func TestService_Lookup_ManualEntryIsNeverOverwritten(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := newMockProvider(ctrl, "lingva")
	p.EXPECT().Translate(gomock.Any(), request("banco")).Return("bank", nil).AnyTimes()

	manual := dictionary.Entry{Word: "banco", Translation: "bench", Provenance: dictionary.ProvenanceManual}
	store := newMemoryStore(manual)
	clock := ratelimit.NewManualClock(testStart)
	sleeper := &advancingSleep{clock: clock}
	svc := NewService(store, newTestChain(clock, 10, p),
		WithGlobalWindow(ratelimit.NewWindow(10, ratelimit.WithClock(clock))),
		WithSleep(sleeper.sleep))

	// direct provider query
	got, err := svc.TranslateViaProviders(context.Background(), "banco")
	require.NoError(t, err)
	assert.Equal(t, Result{Status: StatusFound, Text: "bench", Provenance: dictionary.ProvenanceManual}, got)

	// backfill
	done := make(chan string, 1)
	require.NoError(t, svc.Enqueue(PendingRequest{Word: "banco", Listener: func(word, translation string) {
		done <- translation
	}}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)
	svc.Close()
	assert.Equal(t, "bench", <-done)

	e, ok := store.entry("banco")
	require.True(t, ok)
	assert.Equal(t, manual, e)
}

func TestService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := newMockProvider(ctrl, "lingva")
	p.EXPECT().Translate(gomock.Any(), request("banco")).Return("bank", nil)

	store := newMemoryStore(dictionary.Entry{Word: "banco", Translation: "bench", Provenance: dictionary.ProvenanceManual})
	svc := NewService(store, newTestChain(ratelimit.NewManualClock(testStart), 10, p))
	ctx := context.Background()

	require.Equal(t, "bench", svc.Lookup(ctx, "banco").Text)

	require.NoError(t, svc.Delete(ctx, "Banco"))
	_, ok := store.entry("banco")
	assert.False(t, ok)
	_, ok = svc.Cache().Get("banco")
	assert.False(t, ok)

	// with the protected entry gone the providers are asked again
	assert.Equal(t, Result{Status: StatusFound, Text: "bank", Provenance: "lingva"}, svc.Lookup(ctx, "banco"))

	assert.ErrorIs(t, svc.Delete(ctx, "xyzzy"), dictionary.ErrNotFound)
}

func TestService_Delete_StoreError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mock_dictionary.NewMockStore(ctrl)
	store.EXPECT().Delete(gomock.Any(), "perro").Return(fmt.Errorf("database is locked"))

	cache := NewMemoryCache()
	cache.Put("perro", CachedTranslation{Text: "dog", Provenance: "lingva"})
	svc := NewService(store, provider.NewChain(nil), WithCache(cache))

	assert.Error(t, svc.Delete(context.Background(), "perro"))
	_, ok := cache.Get("perro")
	assert.True(t, ok)
}

func TestService_Lookup_DeferredCompletion(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := newMockProvider(ctrl, "lingva")
	p.EXPECT().Translate(gomock.Any(), request("gato")).Return("cat", nil)
	p.EXPECT().Translate(gomock.Any(), request("perro")).Return("dog", nil)

	clock := ratelimit.NewManualClock(testStart)
	sleeper := &advancingSleep{clock: clock}
	store := newMemoryStore()
	svc := NewService(store, newTestChain(clock, 1, p),
		WithGlobalWindow(ratelimit.NewWindow(10, ratelimit.WithClock(clock))),
		WithSleep(sleeper.sleep))

	refreshed := make(chan struct{}, 1)
	svc.SetRefreshCallback(func() { refreshed <- struct{}{} })

	ctx := context.Background()
	require.Equal(t, StatusFound, svc.Lookup(ctx, "gato").Status)

	completed := make(chan string, 1)
	begin := time.Now()
	got := svc.LookupWithListener(ctx, "perro", func(word, translation string) {
		completed <- word + "=" + translation
	})
	elapsed := time.Since(begin)

	assert.Equal(t, Result{Status: StatusPending, Text: DefaultPlaceholder}, got)
	assert.Less(t, elapsed, 50*time.Millisecond)
	assert.True(t, svc.IsPending("perro"))
	// asking again while pending does not queue the word twice
	assert.Equal(t, StatusPending, svc.Lookup(ctx, "perro").Status)
	assert.Len(t, svc.queue, 1)

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	svc.Start(workerCtx)

	select {
	case c := <-completed:
		assert.Equal(t, "perro=dog", c)
	case <-time.After(5 * time.Second):
		t.Fatal("backfill did not complete")
	}
	select {
	case <-refreshed:
	case <-time.After(5 * time.Second):
		t.Fatal("refresh callback was not called")
	}
	svc.Close()

	assert.False(t, svc.IsPending("perro"))
	assert.Equal(t, Result{Status: StatusFound, Text: "dog", Provenance: "lingva"}, svc.Lookup(ctx, "perro"))
	e, ok := store.entry("perro")
	require.True(t, ok)
	assert.Equal(t, dictionary.Provenance("lingva"), e.Provenance)
	// the worker waited for the provider window instead of failing the request
	assert.Equal(t, []time.Duration{time.Minute}, sleeper.waits())
}

func TestService_Enqueue(t *testing.T) {
	t.Run("queue full", func(t *testing.T) {
		svc := NewService(newMemoryStore(), provider.NewChain(nil), WithQueueSize(1))
		require.NoError(t, svc.Enqueue(PendingRequest{Word: "perro"}))

		err := svc.Enqueue(PendingRequest{Word: "gato"})
		assert.ErrorIs(t, err, ErrQueueFull)
		assert.False(t, svc.IsPending("gato"))
		assert.True(t, svc.IsPending("perro"))
	})

	t.Run("duplicate is suppressed", func(t *testing.T) {
		svc := NewService(newMemoryStore(), provider.NewChain(nil))
		require.NoError(t, svc.Enqueue(PendingRequest{Word: "perro"}))
		require.NoError(t, svc.Enqueue(PendingRequest{Word: " PERRO "}))
		assert.Len(t, svc.queue, 1)

		req := <-svc.queue
		assert.Equal(t, "perro", req.Word)
		assert.Equal(t, "es", req.From)
		assert.Equal(t, "en", req.To)
	})

	t.Run("start after close does not launch a worker", func(t *testing.T) {
		svc := NewService(newMemoryStore(), provider.NewChain(nil))
		svc.Close()
		svc.Start(context.Background())

		svc.pendingMu.Lock()
		started := svc.started
		svc.pendingMu.Unlock()
		assert.False(t, started)
		select {
		case <-svc.done:
			t.Fatal("no worker should have run")
		default:
		}
		// a second Close stays a no-op
		svc.Close()
	})

	t.Run("closed", func(t *testing.T) {
		svc := NewService(newMemoryStore(), provider.NewChain(nil))
		svc.Close()
		assert.ErrorIs(t, svc.Enqueue(PendingRequest{Word: "perro"}), ErrClosed)
	})
}

func TestService_Lookup_SaturatedAfterClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	p := newMockProvider(ctrl, "lingva")
	svc := NewService(newMemoryStore(), newTestChain(ratelimit.NewManualClock(testStart), 0, p))
	svc.Close()

	assert.Equal(t, Result{Status: StatusNotFound}, svc.Lookup(context.Background(), "perro"))
}

func TestService_Worker(t *testing.T) {
	t.Run("store hit on recheck skips the providers", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		p := newMockProvider(ctrl, "lingva")

		store := newMemoryStore(dictionary.Entry{Word: "perro", Translation: "dog", Provenance: dictionary.ProvenanceCommon})
		svc := NewService(store, newTestChain(ratelimit.NewManualClock(testStart), 10, p))

		var got []string
		require.NoError(t, svc.Enqueue(PendingRequest{Word: "perro", Listener: func(word, translation string) {
			got = append(got, translation)
		}}))
		svc.Start(context.Background())
		svc.Close()

		assert.Equal(t, []string{"dog"}, got)
		cached, ok := svc.Cache().Get("perro")
		require.True(t, ok)
		assert.Equal(t, CachedTranslation{Text: "dog", Provenance: dictionary.ProvenanceDatabase}, cached)
	})

	t.Run("no translation reports the not-found text and saves nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		p := newMockProvider(ctrl, "lingva")
		p.EXPECT().Translate(gomock.Any(), request("xyzzy")).Return("", fmt.Errorf("404 not found"))

		store := newMemoryStore()
		refreshes := 0
		svc := NewService(store, newTestChain(ratelimit.NewManualClock(testStart), 10, p),
			WithNotFoundText("[none]"))
		svc.SetRefreshCallback(func() { refreshes++ })

		var got []string
		require.NoError(t, svc.Enqueue(PendingRequest{Word: "xyzzy", Listener: func(word, translation string) {
			got = append(got, word+"="+translation)
		}}))
		svc.Start(context.Background())
		svc.Close()

		assert.Equal(t, []string{"xyzzy=[none]"}, got)
		assert.Equal(t, 0, refreshes)
		assert.Equal(t, 0, svc.Cache().Len())
		assert.False(t, svc.IsPending("xyzzy"))
		_, ok := store.entry("xyzzy")
		assert.False(t, ok)
	})

	t.Run("global budget makes the worker wait", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		p := newMockProvider(ctrl, "lingva")
		p.EXPECT().Translate(gomock.Any(), request("perro")).Return("dog", nil)
		p.EXPECT().Translate(gomock.Any(), request("gato")).Return("cat", nil)

		clock := ratelimit.NewManualClock(testStart)
		sleeper := &advancingSleep{clock: clock}
		svc := NewService(newMemoryStore(), newTestChain(clock, 100, p),
			WithGlobalWindow(ratelimit.NewWindow(1, ratelimit.WithClock(clock))),
			WithSleep(sleeper.sleep))

		require.NoError(t, svc.Enqueue(PendingRequest{Word: "perro"}))
		require.NoError(t, svc.Enqueue(PendingRequest{Word: "gato"}))
		svc.Start(context.Background())
		svc.Close()

		assert.Equal(t, []time.Duration{time.Minute}, sleeper.waits())
		assert.Equal(t, 2, svc.Cache().Len())
	})

	t.Run("completions are batched into one refresh", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		p := newMockProvider(ctrl, "lingva")
		p.EXPECT().Translate(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, req provider.Request) (string, error) {
			return "t-" + req.Text, nil
		}).Times(3)

		svc := NewService(newMemoryStore(), newTestChain(ratelimit.NewManualClock(testStart), 10, p))
		refreshes := 0
		svc.SetRefreshCallback(func() { refreshes++ })

		var order []string
		for _, w := range []string{"uno", "dos", "tres"} {
			require.NoError(t, svc.Enqueue(PendingRequest{Word: w, Listener: func(word, translation string) {
				order = append(order, word)
			}}))
		}
		svc.Start(context.Background())
		svc.Close()

		assert.Equal(t, []string{"uno", "dos", "tres"}, order)
		assert.Equal(t, 1, refreshes)
	})

	t.Run("canceled context stops a waiting worker", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		p := newMockProvider(ctrl, "lingva")

		clock := ratelimit.NewManualClock(testStart)
		svc := NewService(newMemoryStore(), newTestChain(clock, 0, p))
		require.NoError(t, svc.Enqueue(PendingRequest{Word: "perro"}))

		ctx, cancel := context.WithCancel(context.Background())
		svc.Start(ctx)
		cancel()

		select {
		case <-svc.done:
		case <-time.After(5 * time.Second):
			t.Fatal("worker did not stop")
		}
		svc.Close()
	})
}
