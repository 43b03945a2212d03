package service

import (
	"context"

	"github.com/librarydesk/librarydesk/internal/collection"
	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/gateway"
	"github.com/librarydesk/librarydesk/internal/shared"
	"github.com/librarydesk/librarydesk/internal/util"
)

// BookService is the catalog screen. The book collection itself is shared and
// owned by the registry's manager.
type BookService struct {
	books    *collection.Manager[domain.Book]
	remote   *gateway.Resource[domain.Book]
	catalog  *gateway.Catalog
	registry *shared.Registry
}

// NewBookService creates a new book service.
func NewBookService(reg *shared.Registry, client *gateway.Client) *BookService {
	return &BookService{
		books:    reg.Books,
		remote:   client.Books(),
		catalog:  client.Catalog(),
		registry: reg,
	}
}

// Manager returns the manager behind the screen.
func (s *BookService) Manager() *collection.Manager[domain.Book] {
	return s.books
}

// Load fetches every book.
func (s *BookService) Load(ctx context.Context) error {
	return s.books.Load(ctx)
}

// Visible returns the books matching the current search.
func (s *BookService) Visible() []domain.Book {
	return s.books.Visible()
}

// Get fetches one book directly from the backend.
func (s *BookService) Get(ctx context.Context, id domain.ID) (domain.Book, error) {
	return s.remote.Get(ctx, id)
}

// Add creates a book.
func (s *BookService) Add(ctx context.Context, b domain.Book) (domain.Book, error) {
	return s.books.Create(ctx, b)
}

// Update saves changes to a book.
func (s *BookService) Update(ctx context.Context, b domain.Book) (domain.Book, error) {
	return s.books.Update(ctx, b)
}

// Delete removes a book.
func (s *BookService) Delete(ctx context.Context, id domain.ID) error {
	return s.books.Delete(ctx, id)
}

// Suggest returns loaded books whose title contains title.
func (s *BookService) Suggest(title string, limit int) []domain.Book {
	return s.registry.SuggestBooks(title, limit)
}

// Categories lists the category tree.
func (s *BookService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.catalog.Categories(ctx)
}

// BooksByCategory lists the books in one subcategory. Either names such as
// "Văn học" or their slugs are accepted.
func (s *BookService) BooksByCategory(ctx context.Context, big, sub string) ([]domain.Book, error) {
	return s.catalog.BooksByCategory(ctx, util.CategorySlug(big), util.CategorySlug(sub))
}

// Suggested lists the backend's recommendations.
func (s *BookService) Suggested(ctx context.Context) ([]domain.Book, error) {
	return s.catalog.Suggested(ctx)
}

// Distribution reports how many books each category holds.
func (s *BookService) Distribution(ctx context.Context) ([]domain.CategoryShare, error) {
	return s.catalog.CategoryDistribution(ctx)
}
