package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/librarydesk/librarydesk/internal/collection"
	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/service"
)

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <books|readers|posts|borrows>",
		Short: "Search a list interactively",
		Long: `Search reads search text from stdin, one line per change. The list is
redrawn once typing settles for the search delay (SEARCH_DEBOUNCE); lines
that are replaced before then are never applied. End input to finish.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{service.ScreenBooks, service.ScreenReaders, service.ScreenPosts, service.ScreenBorrows},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.screens()
			if err != nil {
				return err
			}
			ctx, in, out := cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout()

			switch args[0] {
			case service.ScreenBooks:
				return searchLoop(ctx, s.Books.Manager(), in, out, renderBooks)
			case service.ScreenReaders:
				return searchLoop(ctx, s.Readers.Manager(), in, out, renderReaders)
			case service.ScreenPosts:
				return searchLoop(ctx, s.Posts.Manager(), in, out, renderPosts)
			case service.ScreenBorrows:
				return searchLoop(ctx, s.Borrows.Manager(), in, out, renderBorrows)
			}
			return fmt.Errorf("unknown list %q", args[0])
		},
	}
}

// searchLoop loads m, then feeds each input line to its debounced search and
// redraws whenever a search is committed.
func searchLoop[T domain.Keyed](ctx context.Context, m *collection.Manager[T], in io.Reader, out io.Writer, render func(io.Writer, []T)) error {
	if err := m.Load(ctx); err != nil {
		return err
	}

	var mu sync.Mutex
	draw := func() {
		mu.Lock()
		defer mu.Unlock()
		q := m.Query()
		fmt.Fprintf(out, "%s %q\n", styleMuted.Render("search:"), q.Text)
		render(out, m.Visible())
	}
	draw()

	m.OnChange(draw)
	defer m.OnChange(nil)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			m.FlushSearch()
			return ctx.Err()
		}
		m.Search(scanner.Text())
	}
	m.FlushSearch()
	return scanner.Err()
}
