package main

import (
	"github.com/spf13/cobra"

	"github.com/librarydesk/librarydesk/internal/domain"
)

type readerFlags struct {
	name, email, address, phone string
}

func (f *readerFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "Full name")
	fs.StringVar(&f.email, "email", "", "Email address")
	fs.StringVar(&f.address, "address", "", "Postal address")
	fs.StringVar(&f.phone, "phone", "", "Phone number, ten digits")
}

func (f *readerFlags) apply(cmd *cobra.Command, r *domain.Reader) {
	fs := cmd.Flags()
	if fs.Changed("name") {
		r.Name = f.name
	}
	if fs.Changed("email") {
		r.Email = f.email
	}
	if fs.Changed("address") {
		r.Address = f.address
	}
	if fs.Changed("phone") {
		r.Phone = f.phone
	}
}

func newReadersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "readers",
		Aliases: []string{"members"},
		Short:   "Manage registered readers",
	}

	var search string
	list := &cobra.Command{
		Use:   "list",
		Short: "List readers, optionally filtered by name or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			if err := s.Readers.Load(cmd.Context()); err != nil {
				return err
			}
			m := s.Readers.Manager()
			m.Search(search)
			m.FlushSearch()
			renderReaders(cmd.OutOrStdout(), s.Readers.Visible())
			return nil
		},
	}
	list.Flags().StringVarP(&search, "search", "s", "", "Text to match against name and email")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a reader and the books on their record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			if err := s.Readers.Load(cmd.Context()); err != nil {
				return err
			}
			r, err := s.Readers.Get(domain.ID(args[0]))
			if err != nil {
				return err
			}
			loans, err := s.Readers.BorrowedBooks(r.ID)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			renderFields(w, r.Name,
				"ID", r.ID.String(),
				"Email", r.Email,
				"Phone", r.Phone,
				"Address", r.Address,
			)
			renderLoans(w, loans)
			return nil
		},
	}

	var addFlags readerFlags
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a reader",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			var r domain.Reader
			addFlags.apply(cmd, &r)
			created, err := s.Readers.Add(cmd.Context(), r)
			if err != nil {
				return err
			}
			renderReaders(cmd.OutOrStdout(), []domain.Reader{created})
			return nil
		},
	}
	addFlags.bind(add)

	var updateFlags readerFlags
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a reader; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			if err := s.Readers.Load(cmd.Context()); err != nil {
				return err
			}
			r, err := s.Readers.Get(domain.ID(args[0]))
			if err != nil {
				return err
			}
			updateFlags.apply(cmd, &r)
			updated, err := s.Readers.Update(cmd.Context(), r)
			if err != nil {
				return err
			}
			renderReaders(cmd.OutOrStdout(), []domain.Reader{updated})
			return nil
		},
	}
	updateFlags.bind(update)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a reader",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			return s.Readers.Delete(cmd.Context(), domain.ID(args[0]))
		},
	}

	cmd.AddCommand(list, show, add, update, del)
	return cmd
}
