package translation

import "github.com/at-ishikawa/langtek/internal/dictionary"

// Status is the outcome of a lookup.
type Status int

const (
	StatusNotFound Status = iota
	StatusFound
	StatusPending
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusPending:
		return "pending"
	default:
		return "not found"
	}
}

// Result is what Lookup returns. Text holds the translation for StatusFound,
// the placeholder for StatusPending and is empty for StatusNotFound.
type Result struct {
	Status     Status
	Text       string
	Provenance dictionary.Provenance
}

func found(text string, provenance dictionary.Provenance) Result {
	return Result{Status: StatusFound, Text: text, Provenance: provenance}
}
