package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/librarydesk/librarydesk/internal/di"
	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/errors"
	"github.com/librarydesk/librarydesk/internal/service"
)

// parseDue parses a --due flag, reporting it as a field error.
func parseDue(s string) (domain.Date, error) {
	if s == "" {
		return domain.Date{}, nil
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return domain.Date{}, errors.ValidationWithDetails("validation failed",
			map[string]string{"dueDate": "must be a date in YYYY-MM-DD form"})
	}
	return d, nil
}

// titleHints returns the suggestions worth showing for a typed title: none
// when a loaded book already carries that exact title.
func titleHints(title string, suggestions []string) []string {
	if slices.ContainsFunc(suggestions, func(s string) bool { return strings.EqualFold(s, title) }) {
		return nil
	}
	return suggestions
}

func newBorrowsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "borrows",
		Aliases: []string{"loans"},
		Short:   "Lend books and track borrow slips",
	}

	var search, status string
	var overdue bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List borrowed slips, optionally filtered by text and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			if err := s.Borrows.Load(cmd.Context()); err != nil {
				return err
			}
			m := s.Borrows.Manager()
			m.SetStatus(status)
			m.Search(search)
			m.FlushSearch()
			if overdue {
				renderBorrows(cmd.OutOrStdout(), s.Borrows.Overdue())
				return nil
			}
			renderBorrows(cmd.OutOrStdout(), s.Borrows.Visible())
			return nil
		},
	}
	list.Flags().StringVarP(&search, "search", "s", "", "Text to match against book title and borrower")
	list.Flags().StringVar(&status, "status", "all", "all, active, returned or overdue")
	list.Flags().BoolVar(&overdue, "past-due", false, "Only active slips whose due date has passed")

	var form service.BorrowForm
	var due string
	add := &cobra.Command{
		Use:   "add",
		Short: "Lend a book to a registered reader",
		Long: `Lend a book. The phone or email must belong to a registered reader; if
neither does, nothing is created and the reader must be registered first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			if form.DueDate, err = parseDue(due); err != nil {
				return err
			}
			if err := s.Borrows.Validate(form); err != nil {
				return err
			}
			if err := di.Warm(cmd.Context(), a.injector); err != nil {
				return err
			}
			if hints := titleHints(form.BookTitle, s.Borrows.SuggestTitles(form.BookTitle)); len(hints) > 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), styleInfo.Render(fmt.Sprintf(
					"! No book titled %q. Did you mean: %s", form.BookTitle, strings.Join(hints, ", "))))
			}
			slip, err := s.Borrows.Submit(cmd.Context(), form)
			if err != nil {
				return err
			}
			renderBorrows(cmd.OutOrStdout(), []domain.Borrow{slip})
			return nil
		},
	}
	add.Flags().StringVar(&form.BookTitle, "title", "", "Book title")
	add.Flags().StringVar(&form.Phone, "phone", "", "Reader's phone number")
	add.Flags().StringVar(&form.Email, "email", "", "Reader's email address")
	add.Flags().StringVar(&due, "due", "", "Due date, YYYY-MM-DD")

	ret := &cobra.Command{
		Use:   "return <id>",
		Short: "Mark a slip as returned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			slip, err := s.Borrows.Return(cmd.Context(), domain.ID(args[0]))
			if err != nil {
				return err
			}
			printSlip(cmd, slip)
			return nil
		},
	}

	var renewDue string
	renew := &cobra.Command{
		Use:   "renew <id>",
		Short: "Move a slip's due date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			d, err := parseDue(renewDue)
			if err != nil {
				return err
			}
			slip, err := s.Borrows.Renew(cmd.Context(), domain.ID(args[0]), d)
			if err != nil {
				return err
			}
			printSlip(cmd, slip)
			return nil
		},
	}
	renew.Flags().StringVar(&renewDue, "due", "", "New due date, YYYY-MM-DD")
	_ = renew.MarkFlagRequired("due")

	pending := &cobra.Command{
		Use:   "pending",
		Short: "List borrow requests waiting for approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			slips, err := s.Borrows.Pending(cmd.Context())
			if err != nil {
				return err
			}
			renderBorrows(cmd.OutOrStdout(), slips)
			return nil
		},
	}

	approve := &cobra.Command{
		Use:   "approve <id>",
		Short: "Approve a pending borrow request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			slip, err := s.Borrows.Approve(cmd.Context(), domain.ID(args[0]))
			if err != nil {
				return err
			}
			printSlip(cmd, slip)
			return nil
		},
	}

	returned := &cobra.Command{
		Use:   "returned",
		Short: "List slips that have been returned",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			slips, err := s.Borrows.Returned(cmd.Context())
			if err != nil {
				return err
			}
			renderBorrows(cmd.OutOrStdout(), slips)
			return nil
		},
	}

	cmd.AddCommand(list, add, ret, renew, pending, approve, returned)
	return cmd
}

// printSlip renders a transition result. Backends that acknowledge without
// echoing the slip leave nothing to show.
func printSlip(cmd *cobra.Command, slip domain.Borrow) {
	if slip.ID.IsZero() {
		fmt.Fprintln(cmd.OutOrStdout(), styleMuted.Render("(acknowledged)"))
		return
	}
	renderBorrows(cmd.OutOrStdout(), []domain.Borrow{slip})
}
