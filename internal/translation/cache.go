package translation

import (
	"sync"

	"github.com/at-ishikawa/langtek/internal/dictionary"
)

// CachedTranslation is a Memory Cache value.
type CachedTranslation struct {
	Text       string
	Provenance dictionary.Provenance
}

// MemoryCache is the process-local first tier, keyed by normalized word. It never evicts.
type MemoryCache struct {
	mu           sync.RWMutex
	translations map[string]CachedTranslation
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		translations: make(map[string]CachedTranslation),
	}
}

func (c *MemoryCache) Get(word string) (CachedTranslation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	translation, ok := c.translations[word]
	return translation, ok
}

// Put stores a translation unless the cached one has a provenance it may not overwrite.
func (c *MemoryCache) Put(word string, translation CachedTranslation) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.translations[word]; ok && !translation.Provenance.CanOverwrite(existing.Provenance) {
		return false
	}
	c.translations[word] = translation
	return true
}

// Delete drops word whatever its provenance.
func (c *MemoryCache) Delete(word string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.translations, word)
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.translations)
}

// All returns a copy of the cached translations.
func (c *MemoryCache) All() map[string]CachedTranslation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]CachedTranslation, len(c.translations))
	for k, v := range c.translations {
		result[k] = v
	}
	return result
}
