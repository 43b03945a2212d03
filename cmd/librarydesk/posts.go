package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/librarydesk/librarydesk/internal/domain"
)

type postFlags struct {
	title, content, contentFile, author, imageURL, status string
}

func (f *postFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.title, "title", "", "Post title")
	fs.StringVar(&f.content, "content", "", "HTML content")
	fs.StringVar(&f.contentFile, "content-file", "", "Read HTML content from a file")
	fs.StringVar(&f.author, "author", "", "Author")
	fs.StringVar(&f.imageURL, "image-url", "", "Header image URL")
	fs.StringVar(&f.status, "status", "", "draft or published")
	cmd.MarkFlagsMutuallyExclusive("content", "content-file")
}

func (f *postFlags) apply(cmd *cobra.Command, p *domain.Post) error {
	fs := cmd.Flags()
	if fs.Changed("title") {
		p.Title = f.title
	}
	if fs.Changed("content") {
		p.Content = f.content
	}
	if f.contentFile != "" {
		data, err := os.ReadFile(f.contentFile) //#nosec G304 -- path given on the command line
		if err != nil {
			return fmt.Errorf("read content file: %w", err)
		}
		p.Content = string(data)
	}
	if fs.Changed("author") {
		p.Author = f.author
	}
	if fs.Changed("image-url") {
		p.ImageURL = f.imageURL
	}
	if fs.Changed("status") {
		p.Status = f.status
	}
	return nil
}

func newPostsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Manage library news posts",
	}

	var search, status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List posts, optionally filtered by text and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			if err := s.Posts.Load(cmd.Context()); err != nil {
				return err
			}
			m := s.Posts.Manager()
			m.SetStatus(status)
			m.Search(search)
			m.FlushSearch()
			renderPosts(cmd.OutOrStdout(), s.Posts.Visible())
			return nil
		},
	}
	list.Flags().StringVarP(&search, "search", "s", "", "Text to match against title and author")
	list.Flags().StringVar(&status, "status", "all", "all, draft or published")

	var width int
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a post with its content rendered for the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			if err := s.Posts.Load(cmd.Context()); err != nil {
				return err
			}
			p, err := s.Posts.Get(domain.ID(args[0]))
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			renderFields(w, p.Title,
				"ID", p.ID.String(),
				"Author", p.Author,
				"Status", p.Status,
				"Created", formatTimestamp(p.CreatedAt),
			)
			if p.Content == "" {
				return nil
			}
			return renderHTML(w, p.Content, width)
		},
	}
	show.Flags().IntVar(&width, "width", 80, "Wrap content at this many columns")

	var addFlags postFlags
	add := &cobra.Command{
		Use:   "add",
		Short: "Write a post; it starts as a draft unless --status is given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			var p domain.Post
			if err := addFlags.apply(cmd, &p); err != nil {
				return err
			}
			created, err := s.Posts.Add(cmd.Context(), p)
			if err != nil {
				return err
			}
			renderPosts(cmd.OutOrStdout(), []domain.Post{created})
			return nil
		},
	}
	addFlags.bind(add)

	var updateFlags postFlags
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a post; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			if err := s.Posts.Load(cmd.Context()); err != nil {
				return err
			}
			p, err := s.Posts.Get(domain.ID(args[0]))
			if err != nil {
				return err
			}
			if err := updateFlags.apply(cmd, &p); err != nil {
				return err
			}
			updated, err := s.Posts.Update(cmd.Context(), p)
			if err != nil {
				return err
			}
			renderPosts(cmd.OutOrStdout(), []domain.Post{updated})
			return nil
		},
	}
	updateFlags.bind(update)

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			return s.Posts.Delete(cmd.Context(), domain.ID(args[0]))
		},
	}

	cmd.AddCommand(list, show, add, update, del)
	return cmd
}
