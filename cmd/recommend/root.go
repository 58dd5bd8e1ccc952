package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
)

type rootOptions struct {
	format string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Rank colleges for a student profile",
		Long: `recommend ranks the compiled-in college catalog for one student profile.

Colleges are filtered by stream, scored on qualification, performance,
region and consistency, and the best matches are printed.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			opts.format = strings.ToLower(strings.TrimSpace(opts.format))
			if opts.format != formatTable && opts.format != formatJSON {
				return fmt.Errorf("unknown format %q (want table or json)", opts.format)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&opts.format, "format", "f", formatTable, "Output format (table|json)")

	cmd.AddCommand(newScoreCmd(opts), newCatalogCmd(opts))
	return cmd
}
