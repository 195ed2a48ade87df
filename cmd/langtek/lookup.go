package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/langtek/internal/dictionary"
	"github.com/at-ishikawa/langtek/internal/translation"
)

func newLookupCommand() *cobra.Command {
	var online bool
	command := &cobra.Command{
		Use:   "lookup <word>...",
		Short: "Translate words, waiting for any lookup deferred by rate limits",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			for _, word := range args {
				var result translation.Result
				if online {
					result, err = a.service.TranslateViaProviders(ctx, word)
					if err != nil {
						mu.Lock()
						printResult(out, word, result)
						mu.Unlock()
						fmt.Fprintf(cmd.ErrOrStderr(), "  %v\n", err)
						continue
					}
				} else {
					result = a.service.LookupWithListener(ctx, word, func(word, text string) {
						mu.Lock()
						defer mu.Unlock()
						fmt.Fprintf(out, "%s: %s\n", word, text)
					})
				}
				mu.Lock()
				printResult(out, word, result)
				mu.Unlock()
			}

			// pending lookups are reported by their listeners before Close returns
			if err := a.Close(); err != nil {
				return fmt.Errorf("failed to close: %w", err)
			}
			return nil
		},
	}
	command.Flags().BoolVar(&online, "online", false, "Skip the cache and the store and ask the providers directly")
	return command
}

func printResult(w io.Writer, word string, result translation.Result) {
	switch result.Status {
	case translation.StatusFound:
		fmt.Fprintf(w, "%s: %s %s\n", word, result.Text, provenanceColor(result.Provenance).Sprintf("(%s)", result.Provenance))
	case translation.StatusPending:
		fmt.Fprintf(w, "%s: %s\n", word, color.YellowString(result.Text))
	default:
		fmt.Fprintf(w, "%s: %s\n", word, color.RedString(result.Status.String()))
	}
}

func provenanceColor(provenance dictionary.Provenance) *color.Color {
	switch provenance {
	case dictionary.ProvenanceManual:
		return color.New(color.FgGreen, color.Bold)
	case dictionary.ProvenanceCommon:
		return color.New(color.FgGreen)
	case dictionary.ProvenanceDatabase, dictionary.ProvenanceCache:
		return color.New(color.FgBlue)
	default:
		return color.New(color.FgMagenta)
	}
}
