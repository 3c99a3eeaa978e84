package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alem-hub/study-dept/internal/application/query"
)

func (c *cli) newSuggestCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "suggest [WORD...]",
		Short:   "Complete full names containing every query word",
		Example: `  studydept --roster students.yaml suggest peter john`,
		Args:    cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.suggest.Handle(cmd.Context(), query.SuggestNamesQuery{
				Query: strings.Join(args, " "),
			})
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			for _, name := range res.Names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
