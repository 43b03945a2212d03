// Package service implements the list screens of the library desk: books,
// readers, posts and borrow slips. Each screen is a collection.Manager wired
// to its gateway resource, its search fields and its form rules.
package service

import (
	"time"

	"github.com/librarydesk/librarydesk/internal/collection"
	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/filter"
	"github.com/librarydesk/librarydesk/internal/gateway"
	"github.com/librarydesk/librarydesk/internal/logger"
	"github.com/librarydesk/librarydesk/internal/notify"
	"github.com/librarydesk/librarydesk/internal/validation"
)

// Screen names, used for notifications and log fields.
const (
	ScreenBooks   = "books"
	ScreenReaders = "readers"
	ScreenPosts   = "posts"
	ScreenBorrows = "borrows"
)

// Deps are the collaborators every screen needs.
type Deps struct {
	Client      *gateway.Client
	Hub         *notify.Hub
	Logger      *logger.Logger
	Validator   *validation.Validator
	SearchDelay time.Duration
}

// Search fields and status selectors per screen.
var (
	BookFilter = filter.New(
		func(b domain.Book) []string { return []string{b.Title, b.Author} },
		nil,
	)
	ReaderFilter = filter.New(
		func(r domain.Reader) []string { return []string{r.Name, r.Email} },
		nil,
	)
	PostFilter = filter.New(
		func(p domain.Post) []string { return []string{p.Title, p.Author} },
		func(p domain.Post) string { return p.Status },
	)
	BorrowFilter = filter.New(
		func(b domain.Borrow) []string { return []string{b.BookTitle, b.BorrowerName} },
		func(b domain.Borrow) string { return string(b.Status) },
	)
)

// Form rules. Records arriving from the backend are checked against the
// domain schema; these check what a user typed before it is sent.

type bookRules struct {
	Title     string `json:"title" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
	Available int    `json:"available" validate:"gte=0,ltefield=Quantity"`
}

type readerRules struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phoneNumber" validate:"omitempty,phone"`
}

type postRules struct {
	Title  string `json:"title" validate:"required"`
	Status string `json:"status" validate:"omitempty,oneof=draft published"`
}

// NewBookManager creates the manager that owns the book collection.
func NewBookManager(d Deps) *collection.Manager[domain.Book] {
	return collection.New(collection.Config[domain.Book]{
		Screen:   ScreenBooks,
		Remote:   d.Client.Books(),
		Hub:      d.Hub,
		Logger:   d.Logger,
		Messages: collection.DefaultMessages("book"),
		Filter:   BookFilter,
		Validate: func(b domain.Book) error {
			return d.Validator.Validate(bookRules{Title: b.Title, Quantity: b.Quantity, Available: b.Available})
		},
		SearchDelay: d.SearchDelay,
	})
}

// NewReaderManager creates the manager that owns the reader collection.
func NewReaderManager(d Deps) *collection.Manager[domain.Reader] {
	return collection.New(collection.Config[domain.Reader]{
		Screen:   ScreenReaders,
		Remote:   d.Client.Members(),
		Hub:      d.Hub,
		Logger:   d.Logger,
		Messages: collection.DefaultMessages("reader"),
		Filter:   ReaderFilter,
		Validate: func(r domain.Reader) error {
			return d.Validator.Validate(readerRules{Name: r.Name, Email: r.Email, Phone: r.Phone})
		},
		SearchDelay: d.SearchDelay,
	})
}
