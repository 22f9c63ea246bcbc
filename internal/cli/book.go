package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shelf/pkg/types"
)

func newBookCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Add, look up, and search books",
	}
	cmd.AddCommand(newBookAddCmd(a))
	cmd.AddCommand(newBookGetCmd(a))
	cmd.AddCommand(newBookListCmd(a))
	cmd.AddCommand(newBookSearchCmd(a))
	return cmd
}

func newBookAddCmd(a *app) *cobra.Command {
	var (
		isbn, title, author, category string
		year, copies                  int
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalogue",
		Example: `  shelf book add --isbn 978-0441172719 --title Dune --author "Frank Herbert" \
    --year 1965 --category Fiction --copies 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			defer a.close()

			book := types.NewBook(strings.TrimSpace(isbn), title, author, year, category, copies)
			if err := book.Validate(); err != nil {
				return userError("%s", err)
			}
			if !a.lib.AddBook(book) {
				return userError("book %s not added: ISBN already present or title taken", book.ISBN)
			}
			if err := a.save(); err != nil {
				return err
			}

			if a.flags.jsonMode {
				return printJSON(cmd, book)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", formatBook(book))
			return nil
		},
	}
	cmd.Flags().StringVar(&isbn, "isbn", "", "ISBN (unique key)")
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&author, "author", "", "author")
	cmd.Flags().IntVar(&year, "year", 0, "publication year")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().IntVar(&copies, "copies", 1, "number of copies owned")
	_ = cmd.MarkFlagRequired("isbn")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func newBookGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <isbn>",
		Short: "Show one book by ISBN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			defer a.close()

			book, ok := a.lib.SearchByISBN(strings.TrimSpace(args[0]))
			if !ok {
				return userError("book %s not found", args[0])
			}
			if a.flags.jsonMode {
				return printJSON(cmd, book)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatBook(book))
			return nil
		},
	}
}

func newBookListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every book in ISBN order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			defer a.close()

			return printBooks(cmd, a, a.lib.Books())
		},
	}
}

func newBookSearchCmd(a *app) *cobra.Command {
	var title, author string
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search books by title or author",
		Long: "Search books by exact title or author. Matching ignores case and\n" +
			"collapses runs of whitespace.",
		Example: `  shelf book search --title "the hobbit"
  shelf book search --author "j.r.r. tolkien"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (title == "") == (author == "") {
				return userError("exactly one of --title or --author is required")
			}
			if err := a.open(cmd); err != nil {
				return err
			}
			defer a.close()

			if title != "" {
				book, ok := a.lib.SearchByTitle(title)
				if !ok {
					return userError("no book titled %q", title)
				}
				return printBooks(cmd, a, []types.Book{book})
			}
			return printBooks(cmd, a, a.lib.SearchByAuthor(author))
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "exact title")
	cmd.Flags().StringVar(&author, "author", "", "exact author")
	return cmd
}

func printBooks(cmd *cobra.Command, a *app, books []types.Book) error {
	if a.flags.jsonMode {
		if books == nil {
			books = []types.Book{}
		}
		return printJSON(cmd, books)
	}
	for _, b := range books {
		fmt.Fprintln(cmd.OutOrStdout(), formatBook(b))
	}
	return nil
}
