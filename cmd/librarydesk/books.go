package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/errors"
)

type bookFlags struct {
	title, author, category, description, imageURL string
	quantity, available                            int
}

func (f *bookFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.title, "title", "", "Book title")
	fs.StringVar(&f.author, "author", "", "Author")
	fs.StringVar(&f.category, "category", "", "Category name")
	fs.StringVar(&f.description, "description", "", "Description")
	fs.StringVar(&f.imageURL, "image-url", "", "Cover image URL")
	fs.IntVar(&f.quantity, "quantity", 0, "Copies owned")
	fs.IntVar(&f.available, "available", 0, "Copies on the shelf")
}

// apply copies the flags that were set onto b.
func (f *bookFlags) apply(cmd *cobra.Command, b *domain.Book) {
	fs := cmd.Flags()
	if fs.Changed("title") {
		b.Title = f.title
	}
	if fs.Changed("author") {
		b.Author = f.author
	}
	if fs.Changed("category") {
		b.Category = f.category
	}
	if fs.Changed("description") {
		b.Description = f.description
	}
	if fs.Changed("image-url") {
		b.ImageURL = f.imageURL
	}
	if fs.Changed("quantity") {
		b.Quantity = f.quantity
	}
	if fs.Changed("available") {
		b.Available = f.available
	}
}

func newBooksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Browse and edit the catalog",
	}

	var search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List books, optionally filtered by title or author",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			if err := s.Books.Load(cmd.Context()); err != nil {
				return err
			}
			m := s.Books.Manager()
			m.Search(search)
			m.FlushSearch()
			renderBooks(cmd.OutOrStdout(), s.Books.Visible())
			return nil
		},
	}
	list.Flags().StringVarP(&search, "search", "s", "", "Text to match against title and author")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			b, err := s.Books.Get(cmd.Context(), domain.ID(args[0]))
			if err != nil {
				return err
			}
			renderFields(cmd.OutOrStdout(), b.Title,
				"ID", b.ID.String(),
				"Author", b.Author,
				"Category", b.Category,
				"Copies", strconv.Itoa(b.Available)+" of "+strconv.Itoa(b.Quantity)+" on the shelf",
				"Cover", b.ImageURL,
				"Description", b.Description,
			)
			return nil
		},
	}

	var addFlags bookFlags
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a book to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			var b domain.Book
			addFlags.apply(cmd, &b)
			created, err := s.Books.Add(cmd.Context(), b)
			if err != nil {
				return err
			}
			renderBooks(cmd.OutOrStdout(), []domain.Book{created})
			return nil
		},
	}
	addFlags.bind(add)

	var updateFlags bookFlags
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a book; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			if err := s.Books.Load(cmd.Context()); err != nil {
				return err
			}
			b, ok := s.Books.Manager().Get(domain.ID(args[0]))
			if !ok {
				return errors.NotFoundf("book %s not found", args[0])
			}
			updateFlags.apply(cmd, &b)
			updated, err := s.Books.Update(cmd.Context(), b)
			if err != nil {
				return err
			}
			renderBooks(cmd.OutOrStdout(), []domain.Book{updated})
			return nil
		},
	}
	updateFlags.bind(update)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a book from the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			return s.Books.Delete(cmd.Context(), domain.ID(args[0]))
		},
	}

	cmd.AddCommand(list, show, add, update, del)
	return cmd
}
