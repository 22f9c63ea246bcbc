package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalogue structure sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			defer a.close()

			s := a.lib.Stats()
			if a.flags.jsonMode {
				return printJSON(cmd, s)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "books:       %d\n", s.Books)
			fmt.Fprintf(out, "titles:      %d\n", s.Titles)
			fmt.Fprintf(out, "authors:     %d\n", s.Authors)
			fmt.Fprintf(out, "members:     %d\n", s.Members)
			fmt.Fprintf(out, "tree height: %d\n", s.TreeHeight)
			return nil
		},
	}
}
