package dictionary

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Export is the document written by YAMLSink.
type Export struct {
	Sources      []Source `yaml:"sources"`
	Translations []Entry  `yaml:"translations"`
}

// YAMLSink writes the contents of a Store as a YAML document.
type YAMLSink struct {
	w io.Writer
}

func NewYAMLSink(w io.Writer) *YAMLSink {
	return &YAMLSink{w: w}
}

// Export writes every source and translation of store and returns the number of translations written.
func (s *YAMLSink) Export(ctx context.Context, store Store) (int, error) {
	entries, err := store.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	sources, err := store.ListSources(ctx)
	if err != nil {
		return 0, err
	}

	encoder := yaml.NewEncoder(s.w)
	encoder.SetIndent(2)
	if err := encoder.Encode(Export{
		Sources:      sources,
		Translations: entries,
	}); err != nil {
		return 0, fmt.Errorf("encode yaml: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return 0, fmt.Errorf("close yaml encoder: %w", err)
	}
	return len(entries), nil
}
