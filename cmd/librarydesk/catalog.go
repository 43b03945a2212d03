package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Browse the category tree and catalog reports",
	}

	categories := &cobra.Command{
		Use:   "categories",
		Short: "List categories and their subcategories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			cats, err := s.Books.Categories(cmd.Context())
			if err != nil {
				return err
			}
			var rows [][]string
			for _, c := range cats {
				if len(c.Subcategories) == 0 {
					rows = append(rows, []string{c.Name, c.Slug, "", ""})
				}
				for _, sub := range c.Subcategories {
					rows = append(rows, []string{c.Name, c.Slug, sub.Name, sub.Slug})
				}
			}
			renderTable(cmd.OutOrStdout(), []string{"Category", "Slug", "Subcategory", "Slug"}, rows)
			return nil
		},
	}

	category := &cobra.Command{
		Use:   "category <category-slug> <subcategory-slug>",
		Short: "List the books in one subcategory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			books, err := s.Books.BooksByCategory(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			renderBooks(cmd.OutOrStdout(), books)
			return nil
		},
	}

	suggest := &cobra.Command{
		Use:   "suggest",
		Short: "List the backend's recommended books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			books, err := s.Books.Suggested(cmd.Context())
			if err != nil {
				return err
			}
			renderBooks(cmd.OutOrStdout(), books)
			return nil
		},
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show how many books each category holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			shares, err := s.Books.Distribution(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(shares))
			for _, sh := range shares {
				rows = append(rows, []string{sh.Category, strconv.Itoa(sh.Count)})
			}
			renderTable(cmd.OutOrStdout(), []string{"Category", "Books"}, rows)
			return nil
		},
	}

	cmd.AddCommand(categories, category, suggest, stats)
	return cmd
}
