package translation

import (
	"context"
	"log/slog"

	"github.com/at-ishikawa/langtek/internal/dictionary"
	"github.com/at-ishikawa/langtek/internal/provider"
)

// Start runs the backfill worker in a new goroutine until ctx is done or Close is called.
// It does nothing once the service is closed.
func (s *Service) Start(ctx context.Context) {
	s.pendingMu.Lock()
	if s.started || s.closed {
		s.pendingMu.Unlock()
		return
	}
	s.started = true
	s.pendingMu.Unlock()

	go s.run(ctx)
}

// Close stops accepting requests and waits for the worker to drain the queue and exit.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		s.pendingMu.Lock()
		s.closed = true
		started := s.started
		s.pendingMu.Unlock()

		if !started {
			return
		}
		// nil is the shutdown sentinel; everything queued before it is still processed
		select {
		case s.queue <- nil:
			<-s.done
		case <-s.done:
		}
	})
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)
	logger := slog.Default()
	logger.Info("Translation backfill worker started", "capacity", cap(s.queue))

	for {
		select {
		case <-ctx.Done():
			logger.Info("Translation backfill worker stopped", "reason", ctx.Err())
			return
		case req := <-s.queue:
			if req == nil {
				s.notifyRefresh()
				logger.Info("Translation backfill worker stopped")
				return
			}
			if err := s.process(ctx, req); err != nil {
				logger.Info("Translation backfill worker stopped", "reason", err)
				return
			}
			if len(s.queue) == 0 {
				s.notifyRefresh()
			}
		}
	}
}

// process resolves one deferred word. It only fails when ctx is done while waiting for budget.
func (s *Service) process(ctx context.Context, req *PendingRequest) error {
	logger := slog.Default()
	defer s.removePending(req.Word)

	var (
		text string
		ok   bool
	)
	if entry, found := s.getFromStore(ctx, req.Word); found {
		logger.Debug("Backfill found word in store", "word", req.Word)
		s.cache.Put(req.Word, CachedTranslation{Text: entry.Translation, Provenance: dictionary.ProvenanceDatabase})
		text, ok = entry.Translation, true
	} else {
		if err := s.waitForBudget(ctx); err != nil {
			return err
		}
		translation, err := s.chain.Translate(ctx, provider.Request{Text: req.Word, From: req.From, To: req.To})
		if err != nil {
			logger.Warn("Backfill found no translation", "word", req.Word, "error", err)
		} else {
			text, ok = s.save(ctx, req.Word, translation).Text, true
		}
	}

	if ok {
		s.updated = true
	}
	if req.Listener != nil {
		if !ok {
			text = s.notFoundText
		}
		req.Listener(req.Word, text)
	}
	return nil
}

// waitForBudget blocks until the global window admits a call and some provider has room.
// Global budget is only taken once a provider can be called.
func (s *Service) waitForBudget(ctx context.Context) error {
	for {
		if s.chain.Len() == 0 || (s.chain.HasCapacity() && s.global.Admit()) {
			return nil
		}
		wait := max(s.global.Wait(), s.chain.Wait())
		slog.Default().Debug("Backfill waiting for rate budget", "wait", wait)
		if err := s.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (s *Service) removePending(word string) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	delete(s.pending, word)
}

func (s *Service) notifyRefresh() {
	if !s.updated {
		return
	}
	s.updated = false

	s.refreshMu.Lock()
	refresh := s.refresh
	s.refreshMu.Unlock()
	if refresh != nil {
		slog.Default().Debug("Refreshing after backfill")
		refresh()
	}
}
