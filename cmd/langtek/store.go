package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/langtek/internal/dictionary"
)

func newStoreCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "store",
		Short: "Manage the persistent translation store",
	}
	command.AddCommand(
		newStoreCountCommand(),
		newStoreSourcesCommand(),
		newStoreSeedCommand(),
		newStorePutCommand(),
		newStoreDeleteCommand(),
		newStoreSearchCommand(),
		newStoreExportCommand(),
	)
	return command
}

// withStore loads the configuration and runs fn against a migrated store.
func withStore(cmd *cobra.Command, fn func(store *dictionary.DBRepository) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	db, store, err := openStore(cmd.Context(), cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()
	return fn(store)
}

func newStoreCountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored translations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *dictionary.DBRepository) error {
				count, err := store.Count(cmd.Context())
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), count)
				return err
			})
		},
	}
}

func newStoreSourcesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the imported word sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *dictionary.DBRepository) error {
				sources, err := store.ListSources(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, s := range sources {
					fmt.Fprintf(out, "%s\t%s\t%d\t%s\n", s.Path, s.Format, s.Words, s.DateAdded.Format("2006-01-02"))
				}
				return nil
			})
		},
	}
}

func newStoreSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Add the built-in common words",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *dictionary.DBRepository) error {
				added, err := dictionary.SeedCommonWords(cmd.Context(), store)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "added %d of %d common words\n", added, dictionary.CommonWordCount())
				return err
			})
		},
	}
}

func newStorePutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put <word> <translation>",
		Short: "Save a manual translation that providers never overwrite",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			translation := strings.TrimSpace(args[1])
			if translation == "" {
				return fmt.Errorf("translation for %q must not be empty", args[0])
			}
			return withStore(cmd, func(store *dictionary.DBRepository) error {
				if _, err := store.Put(cmd.Context(), dictionary.Entry{
					Word:        args[0],
					Translation: translation,
					Provenance:  dictionary.ProvenanceManual,
				}); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", dictionary.NormalizeWord(args[0]), translation)
				return err
			})
		},
	}
}

func newStoreDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <word>",
		Short: "Remove a translation, including manual and common ones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *dictionary.DBRepository) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", dictionary.NormalizeWord(args[0]))
				return err
			})
		},
	}
}

func newStoreSearchCommand() *cobra.Command {
	var limit int
	command := &cobra.Command{
		Use:   "search <term>",
		Short: "List translations whose word or translation contains term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *dictionary.DBRepository) error {
				entries, err := store.Search(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, e := range entries {
					fmt.Fprintf(out, "%s\t%s\t%s\n", e.Word, e.Translation, e.Provenance)
				}
				return nil
			})
		},
	}
	command.Flags().IntVar(&limit, "limit", dictionary.DefaultSearchLimit, "maximum number of results")
	return command
}

func newStoreExportCommand() *cobra.Command {
	var output string
	command := &cobra.Command{
		Use:   "export",
		Short: "Write every stored translation as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store *dictionary.DBRepository) error {
				var w io.Writer = cmd.OutOrStdout()
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("os.Create(%s) > %w", output, err)
					}
					defer func() {
						_ = f.Close()
					}()
					w = f
				}

				count, err := dictionary.NewYAMLSink(w).Export(cmd.Context(), store)
				if err != nil {
					return err
				}
				if output != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "exported %d translations to %s\n", count, output)
				}
				return nil
			})
		},
	}
	command.Flags().StringVarP(&output, "output", "o", "", "output file. Defaults to stdout")
	return command
}
