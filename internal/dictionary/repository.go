package dictionary

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/at-ishikawa/langtek/internal/database"
)

//go:generate mockgen -source=repository.go -destination=../mocks/dictionary/mock_store.go -package=mock_dictionary

// ErrNotFound is returned by Store.Get and Store.Delete when the word has no entry.
var ErrNotFound = errors.New("translation not found")

// DefaultSearchLimit caps Search results when no positive limit is given.
const DefaultSearchLimit = 200

// Store defines operations on the persistent word -> translation table.
type Store interface {
	// Get looks a word up case-insensitively.
	Get(ctx context.Context, word string) (*Entry, error)
	// Put inserts or replaces the entry for entry.Word. It reports false when an existing
	// entry has a protected provenance that entry.Provenance may not overwrite.
	Put(ctx context.Context, entry Entry) (bool, error)
	// Delete removes the entry for word whatever its provenance.
	Delete(ctx context.Context, word string) error
	// Search returns up to limit entries whose word or translation contains term.
	Search(ctx context.Context, term string, limit int) ([]Entry, error)
	Count(ctx context.Context) (int, error)
	FindAll(ctx context.Context) ([]Entry, error)
	ListSources(ctx context.Context) ([]Source, error)
	AddSource(ctx context.Context, source Source) error
}

// DBRepository implements Store using sqlx.
type DBRepository struct {
	db *sqlx.DB
	// writeMu serializes the read-check-write sequence of Put and AddSource
	writeMu sync.Mutex
	now     func() time.Time
}

// NewDBRepository creates a new DBRepository.
func NewDBRepository(db *sqlx.DB) *DBRepository {
	return &DBRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (r *DBRepository) Get(ctx context.Context, word string) (*Entry, error) {
	var entry Entry
	err := r.db.GetContext(ctx, &entry,
		"SELECT word, translation, provenance, updated_at FROM translations WHERE word = ?",
		NormalizeWord(word))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get translation for %q: %w", word, err)
	}
	return &entry, nil
}

func (r *DBRepository) Put(ctx context.Context, entry Entry) (bool, error) {
	entry.Word = NormalizeWord(entry.Word)
	if entry.Word == "" {
		return false, fmt.Errorf("put translation: empty word")
	}
	if strings.TrimSpace(entry.Translation) == "" {
		return false, fmt.Errorf("put translation for %q: empty translation", entry.Word)
	}
	if entry.Provenance == "" {
		entry.Provenance = ProvenanceUnknown
	}
	entry.UpdatedAt = r.now()

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	written := false
	err := database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var existing Provenance
		err := tx.GetContext(ctx, &existing, "SELECT provenance FROM translations WHERE word = ?", entry.Word)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			if _, err := tx.NamedExecContext(ctx,
				"INSERT INTO translations (word, translation, provenance, updated_at) VALUES (:word, :translation, :provenance, :updated_at)",
				entry); err != nil {
				return fmt.Errorf("insert translation: %w", err)
			}
		case err != nil:
			return fmt.Errorf("select existing provenance: %w", err)
		case !entry.Provenance.CanOverwrite(existing):
			return nil
		default:
			if _, err := tx.NamedExecContext(ctx,
				"UPDATE translations SET translation = :translation, provenance = :provenance, updated_at = :updated_at WHERE word = :word",
				entry); err != nil {
				return fmt.Errorf("update translation: %w", err)
			}
		}
		written = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("put translation for %q: %w", entry.Word, err)
	}
	return written, nil
}

func (r *DBRepository) Delete(ctx context.Context, word string) error {
	key := NormalizeWord(word)

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	result, err := r.db.ExecContext(ctx, "DELETE FROM translations WHERE word = ?", key)
	if err != nil {
		return fmt.Errorf("delete translation for %q: %w", key, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete translation for %q: %w", key, err)
	}
	if deleted == 0 {
		return fmt.Errorf("delete translation for %q: %w", key, ErrNotFound)
	}
	return nil
}

// Search matches term as a substring of the word or the translation, ordered by word.
// An empty term matches every entry.
func (r *DBRepository) Search(ctx context.Context, term string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	pattern := "%" + strings.TrimSpace(term) + "%"

	var entries []Entry
	if err := r.db.SelectContext(ctx, &entries,
		"SELECT word, translation, provenance, updated_at FROM translations WHERE word LIKE ? OR translation LIKE ? ORDER BY word LIMIT ?",
		pattern, pattern, limit); err != nil {
		return nil, fmt.Errorf("search translations for %q: %w", term, err)
	}
	return entries, nil
}

func (r *DBRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM translations"); err != nil {
		return 0, fmt.Errorf("count translations: %w", err)
	}
	return count, nil
}

// FindAll returns all entries ordered by word.
func (r *DBRepository) FindAll(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	if err := r.db.SelectContext(ctx, &entries,
		"SELECT word, translation, provenance, updated_at FROM translations ORDER BY word"); err != nil {
		return nil, fmt.Errorf("load all translations: %w", err)
	}
	return entries, nil
}

func (r *DBRepository) ListSources(ctx context.Context) ([]Source, error) {
	var sources []Source
	if err := r.db.SelectContext(ctx, &sources,
		"SELECT path, format, words, date_added FROM sources ORDER BY date_added"); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}

// AddSource records a source, updating format and word count when the path is already known.
func (r *DBRepository) AddSource(ctx context.Context, source Source) error {
	if source.DateAdded.IsZero() {
		source.DateAdded = r.now()
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	return database.RunInTx(ctx, r.db, func(ctx context.Context, tx *sqlx.Tx) error {
		var count int
		if err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM sources WHERE path = ?", source.Path); err != nil {
			return fmt.Errorf("select source %s: %w", source.Path, err)
		}
		query := "INSERT INTO sources (path, format, words, date_added) VALUES (:path, :format, :words, :date_added)"
		if count > 0 {
			query = "UPDATE sources SET format = :format, words = :words WHERE path = :path"
		}
		if _, err := tx.NamedExecContext(ctx, query, source); err != nil {
			return fmt.Errorf("save source %s: %w", source.Path, err)
		}
		return nil
	})
}
