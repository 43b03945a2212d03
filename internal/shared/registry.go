// Package shared holds the collections every screen reads: readers and books.
//
// Each collection has exactly one owner, its Manager. Screens read through
// the registry and write through the owning manager, so a mutation made on
// one screen is the same mutation every other screen observes.
package shared

import (
	"context"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/librarydesk/librarydesk/internal/collection"
	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/filter"
	"github.com/librarydesk/librarydesk/internal/logger"
)

// DefaultSuggestLimit caps SuggestBooks when no limit is given.
const DefaultSuggestLimit = 8

// Registry is the process-wide store of readers and books.
type Registry struct {
	Readers *collection.Manager[domain.Reader]
	Books   *collection.Manager[domain.Book]
	logger  *logger.Logger
}

// New creates a registry around the owning managers.
func New(readers *collection.Manager[domain.Reader], books *collection.Manager[domain.Book], log *logger.Logger) *Registry {
	if log == nil {
		log = logger.Discard()
	}
	return &Registry{Readers: readers, Books: books, logger: log}
}

// Warm loads readers and books in parallel. Both loads run to completion;
// the first failure is returned.
func (r *Registry) Warm(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return r.Readers.Load(ctx) })
	g.Go(func() error { return r.Books.Load(ctx) })
	if err := g.Wait(); err != nil {
		return err
	}

	r.logger.Debug("shared registry warmed",
		slog.Int("readers", r.Readers.Len()),
		slog.Int("books", r.Books.Len()))
	return nil
}

// LookupReader finds the reader registered with email or phone. The result is
// a copy; changing it does not change the registry.
func (r *Registry) LookupReader(email, phone string) (domain.Reader, bool) {
	rd, ok := r.Readers.Find(func(rd domain.Reader) bool {
		return rd.MatchesContact(email, phone)
	})
	rd.BorrowedBooks = slices.Clone(rd.BorrowedBooks)
	return rd, ok
}

// SuggestBooks returns up to limit cached books whose title contains title,
// ignoring case. An empty title suggests nothing.
func (r *Registry) SuggestBooks(title string, limit int) []domain.Book {
	if title == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}

	var out []domain.Book
	for _, b := range r.Books.Records() {
		if filter.Contains(b.Title, title) {
			out = append(out, b)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// Close closes both managers.
func (r *Registry) Close() {
	r.Readers.Close()
	r.Books.Close()
}
