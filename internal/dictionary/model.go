package dictionary

import (
	"strings"
	"time"
)

// Provenance records where a translation came from. Besides the constants below,
// any provider name (e.g. "lingva") is a valid provenance.
type Provenance string

const (
	ProvenanceManual   Provenance = "manual"
	ProvenanceCommon   Provenance = "common"
	ProvenanceCache    Provenance = "cache"
	ProvenanceDatabase Provenance = "database"
	ProvenanceUnknown  Provenance = "unknown"
)

// rank orders provenances for overwrite protection: a write never replaces an entry of higher rank.
func (p Provenance) rank() int {
	switch p {
	case ProvenanceManual:
		return 2
	case ProvenanceCommon:
		return 1
	default:
		return 0
	}
}

// IsProtected reports whether automatic writes must leave entries of this provenance alone.
func (p Provenance) IsProtected() bool {
	return p.rank() > 0
}

// CanOverwrite reports whether an entry with provenance p may replace one with provenance existing.
func (p Provenance) CanOverwrite(existing Provenance) bool {
	return p.rank() >= existing.rank()
}

// Entry is one stored translation.
type Entry struct {
	Word        string     `db:"word" yaml:"word"`
	Translation string     `db:"translation" yaml:"translation"`
	Provenance  Provenance `db:"provenance" yaml:"provenance"`
	UpdatedAt   time.Time  `db:"updated_at" yaml:"updated_at"`
}

// Source is a dictionary the store was populated from.
type Source struct {
	Path      string    `db:"path" yaml:"path"`
	Format    string    `db:"format" yaml:"format"`
	Words     int       `db:"words" yaml:"words"`
	DateAdded time.Time `db:"date_added" yaml:"date_added"`
}

// NormalizeWord returns the lookup key for word: trimmed and lower-cased.
func NormalizeWord(word string) string {
	return strings.ToLower(strings.TrimSpace(word))
}
