package main

import (
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/collegepath/internal/app"
)

func newCatalogCmd(root *rootOptions) *cobra.Command {
	var stream string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the compiled-in colleges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			colleges, err := service.New().Colleges(cmd.Context(), stream)
			if err != nil {
				return err
			}
			if root.format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), colleges)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), renderCatalog(colleges))
			return err
		},
	}
	cmd.Flags().StringVarP(&stream, "stream", "s", "", "Only colleges accepting this stream")
	return cmd
}
