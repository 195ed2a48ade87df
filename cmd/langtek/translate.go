package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type Format string

func (f *Format) Set(val string) error {
	for _, format := range allFormats {
		if val == string(format) {
			*f = format
			return nil
		}
	}
	return fmt.Errorf("invalid format: %s", val)
}

func (f Format) String() string {
	return string(f)
}

func (f *Format) Type() string {
	return "Format"
}

const (
	// FormatPlain prints the word-for-word translation of every line.
	FormatPlain Format = "plain"
	// FormatInterlinear prints each line followed by its translation.
	FormatInterlinear Format = "interlinear"
)

var (
	_          pflag.Value = (*Format)(nil)
	allFormats             = []Format{FormatPlain, FormatInterlinear}
)

func newTranslateCommand() *cobra.Command {
	format := FormatPlain
	command := &cobra.Command{
		Use:   "translate [text]",
		Short: "Translate text word by word. Reads stdin when no text is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				input, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				text = string(input)
			}

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = a.Close()
			}()

			var output string
			switch format {
			case FormatInterlinear:
				output = a.service.TranslateText(ctx, text)
			default:
				var lines []string
				for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
					lines = append(lines, a.service.TranslateLine(ctx, line))
				}
				output = strings.Join(lines, "\n")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), output)
			return err
		},
	}
	command.Flags().Var(&format, "format", fmt.Sprintf("Output format. Possible values are %v", allFormats))
	return command
}
