// Package testutil provides shared test helpers for creating config files and provider fixtures.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// ConfigOption configures optional fields of a generated config file.
type ConfigOption func(*testConfig)

type testConfig struct {
	providers       []string
	globalPerMinute int
}

// WithLibreTranslate adds a libretranslate provider pointing at endpoint.
func WithLibreTranslate(endpoint string, perMinute int) ConfigOption {
	return func(c *testConfig) {
		c.providers = append(c.providers, fmt.Sprintf(`  - name: libretranslate
    per_minute: %d
    endpoints:
      - %s
`, perMinute, endpoint))
	}
}

// WithGlobalPerMinute sets the backfill worker budget.
func WithGlobalPerMinute(limit int) ConfigOption {
	return func(c *testConfig) {
		c.globalPerMinute = limit
	}
}

// SetupTestConfig creates a config file using a sqlite database under tmpDir.
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string, opts ...ConfigOption) string {
	t.Helper()

	c := testConfig{globalPerMinute: 10}
	for _, opt := range opts {
		opt(&c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `languages:
  from: es
  to: en
database:
  driver: sqlite3
  path: %s
translation:
  global_per_minute: %d
  provider_timeout: 2s
`, filepath.Join(tmpDir, "db", "test.sqlite3"), c.globalPerMinute)
	if len(c.providers) > 0 {
		b.WriteString("providers:\n")
		for _, p := range c.providers {
			b.WriteString(p)
		}
	}

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(b.String()), 0644))
	return cfgPath
}

// LibreTranslateServer is a fake LibreTranslate instance answering from a fixed dictionary.
type LibreTranslateServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
}

// NewLibreTranslateServer starts a server translating the keys of translations; other
// words get a 400 response. The server is closed when the test ends.
func NewLibreTranslateServer(t *testing.T, translations map[string]string) *LibreTranslateServer {
	t.Helper()

	s := &LibreTranslateServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Q string `json:"q"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, body.Q)
		s.mu.Unlock()

		translated, ok := translations[body.Q]
		if !ok {
			http.Error(w, `{"error":"unknown word"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"translatedText": translated})
	}))
	t.Cleanup(s.Close)
	return s
}

// Requests returns the words the server was asked to translate, in order.
func (s *LibreTranslateServer) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}
