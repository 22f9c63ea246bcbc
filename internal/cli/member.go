package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

// memberView is the JSON shape of a member with loans resolved to books.
type memberView struct {
	MemberID  string       `json:"member_id"`
	Name      string       `json:"name"`
	Borrowed  []types.Book `json:"borrowed_books"`
	CanBorrow bool         `json:"can_borrow"`
}

func newMemberCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Register and inspect members",
	}
	cmd.AddCommand(newMemberAddCmd(a))
	cmd.AddCommand(newMemberShowCmd(a))
	cmd.AddCommand(newMemberListCmd(a))
	return cmd
}

func newMemberAddCmd(a *app) *cobra.Command {
	var id, name string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a member",
		Long:  "Register a member. When --id is omitted a UUID v7 is generated.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id = strings.TrimSpace(id)
			if id == "" {
				id = types.NewMemberID()
			}
			if err := a.open(cmd); err != nil {
				return err
			}
			defer a.close()

			if !a.lib.AddMember(id, name) {
				return userError("member %s already exists", id)
			}
			if err := a.save(); err != nil {
				return err
			}

			if a.flags.jsonMode {
				return printJSON(cmd, types.Member{MemberID: id, Name: name, Borrowed: []string{}})
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "member ID (default: generated)")
	cmd.Flags().StringVar(&name, "name", "", "member name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newMemberShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <member-id>",
		Short: "Show a member and the books they hold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			defer a.close()

			m, ok := a.lib.Member(args[0])
			if !ok {
				return userError("member %s not found", args[0])
			}
			books, _ := a.lib.BorrowedBooks(m.MemberID)
			view := memberView{MemberID: m.MemberID, Name: m.Name, Borrowed: books, CanBorrow: m.CanBorrow()}

			if a.flags.jsonMode {
				return printJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s  %d/%d borrowed\n", m.MemberID, m.Name, len(m.Borrowed), types.BorrowLimit)
			for _, b := range books {
				fmt.Fprintf(out, "  %s  %s by %s\n", b.ISBN, b.Title, b.Author)
			}
			return nil
		},
	}
}

func newMemberListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every member",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			defer a.close()

			members := a.lib.Members()
			if a.flags.jsonMode {
				if members == nil {
					members = []types.Member{}
				}
				return printJSON(cmd, members)
			}
			for _, m := range members {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d borrowed\n", m.MemberID, m.Name, len(m.Borrowed))
			}
			return nil
		},
	}
}
