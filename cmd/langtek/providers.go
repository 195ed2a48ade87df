package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/sony/gobreaker"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/langtek/internal/provider"
)

func newProvidersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the configured provider fallback order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			chain, err := provider.Build(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("provider.Build > %w", err)
			}
			defer func() {
				_ = chain.Close()
			}()

			return printStatuses(cmd.OutOrStdout(), chain.Status())
		},
	}
}

func printStatuses(w io.Writer, statuses []provider.Status) error {
	if len(statuses) == 0 {
		_, err := fmt.Fprintln(w, color.RedString("no providers configured"))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPROVIDER\tUSED/LIMIT\tCIRCUIT")
	for i, s := range statuses {
		fmt.Fprintf(tw, "%d\t%s\t%d/%d\t%s\n", i+1, s.Name, s.Used, s.Limit, stateColor(s.State).Sprint(s.State))
	}
	return tw.Flush()
}

func stateColor(state string) *color.Color {
	switch state {
	case gobreaker.StateClosed.String():
		return color.New(color.FgGreen)
	case gobreaker.StateHalfOpen.String():
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
