package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBorrowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "borrow <member-id> <isbn>",
		Short: "Lend one copy of a book to a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID, isbn := args[0], args[1]
			if err := a.open(cmd); err != nil {
				return err
			}
			defer a.close()

			if !a.lib.Borrow(memberID, isbn) {
				return userError("borrow refused: %s", a.lib.BorrowFailure(memberID, isbn))
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s borrowed %s\n", memberID, isbn)
			return nil
		},
	}
}

func newReturnCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "return <member-id> <isbn>",
		Short: "Take back one copy of a book from a member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID, isbn := args[0], args[1]
			if err := a.open(cmd); err != nil {
				return err
			}
			defer a.close()

			if !a.lib.Return(memberID, isbn) {
				return userError("return refused: %s does not hold %s", memberID, isbn)
			}
			if err := a.save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s returned %s\n", memberID, isbn)
			return nil
		},
	}
}
