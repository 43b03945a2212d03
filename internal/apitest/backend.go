// Package apitest provides an in-memory library backend that speaks the same
// REST dialect as the production service. Tests point a gateway at it, and
// "librarydesk mock-server" serves it for local use.
package apitest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/id"
	"github.com/librarydesk/librarydesk/internal/logger"
)

// Resource names accepted by Remove.
const (
	ResourceBooks   = "books"
	ResourceMembers = "members"
	ResourcePosts   = "posts"
	ResourceBorrows = "borrows"
)

// Request is one request the backend received.
type Request struct {
	Method    string
	Path      string
	RequestID string
}

// Backend is an in-memory library backend.
type Backend struct {
	router     *chi.Mux
	logger     *logger.Logger
	books      []domain.Book
	members    []domain.Reader
	posts      []domain.Post
	borrows    []domain.Borrow
	pending    []domain.Borrow
	categories []domain.Category
	failures   []int
	requests   []Request
	delay      time.Duration
	mu         sync.Mutex
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger logs every request.
func WithLogger(log *logger.Logger) Option {
	return func(b *Backend) { b.logger = log }
}

// WithLatency delays every response, which lets tests observe in-flight state.
func WithLatency(d time.Duration) Option {
	return func(b *Backend) { b.delay = d }
}

// New creates an empty backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		router: chi.NewRouter(),
		logger: logger.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.setupMiddleware()
	b.setupRoutes()
	return b
}

// ServeHTTP implements http.Handler.
func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.router.ServeHTTP(w, r)
}

// Serve starts an httptest server for the duration of the test and returns its URL.
func (b *Backend) Serve(t testing.TB) string {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return srv.URL
}

func (b *Backend) setupMiddleware() {
	b.router.Use(middleware.RequestID)
	b.router.Use(middleware.Recoverer)
	b.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
	b.router.Use(b.record)
}

func (b *Backend) setupRoutes() {
	b.router.Route("/books", func(r chi.Router) {
		r.Get("/", b.handleListBooks)
		r.Post("/", b.handleCreateBook)
		r.Get("/suggest", b.handleSuggest)
		r.Get("/category-distribution", b.handleDistribution)
		r.Get("/categories", b.handleCategories)
		r.Get("/categories/{big}/{sub}/books", b.handleBooksByCategory)
		r.Put("/update/{id}", b.handleUpdateBook)
		r.Delete("/delete/{id}", b.handleDeleteBook)
		r.Get("/{id}", b.handleGetBook)
	})

	b.router.Route("/members", func(r chi.Router) {
		r.Get("/", b.handleListMembers)
		r.Post("/register", b.handleCreateMember)
		r.Put("/update/{id}", b.handleUpdateMember)
		r.Delete("/delete/{id}", b.handleDeleteMember)
	})

	b.router.Route("/posts", func(r chi.Router) {
		r.Get("/", b.handleListPosts)
		r.Post("/", b.handleCreatePost)
		r.Put("/update/{id}", b.handleUpdatePost)
		r.Delete("/delete/{id}", b.handleDeletePost)
	})

	b.router.Route("/transactions", func(r chi.Router) {
		r.Get("/borrowed", b.handleListBorrowed)
		r.Post("/borrow", b.handleBorrow)
		r.Post("/return", b.handleReturn)
		r.Post("/renew", b.handleRenew)
		r.Get("/returned", b.handleListReturned)
		r.Get("/pending", b.handleListPending)
		r.Post("/approve", b.handleApprove)
	})
}

// record logs the request, applies injected failures and latency.
func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method:    r.Method,
			Path:      r.URL.Path,
			RequestID: r.Header.Get("X-Request-ID"),
		})
		var fail int
		if len(b.failures) > 0 {
			fail = b.failures[0]
			b.failures = b.failures[1:]
		}
		delay := b.delay
		b.mu.Unlock()

		b.logger.Info("mock request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetReqID(r.Context())))

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if fail != 0 {
			writeError(w, fail, http.StatusText(fail))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FailNext makes the next request answer with status, whatever its route.
// Calls queue up.
func (b *Backend) FailNext(status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, status)
}

// Requests returns a copy of every request received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.requests)
}

// RequestCount returns how many requests matched method and path. An empty
// method matches any.
func (b *Backend) RequestCount(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.requests {
		if (method == "" || r.Method == method) && r.Path == path {
			n++
		}
	}
	return n
}

// AddBook seeds a book, assigning an id when it has none.
func (b *Backend) AddBook(book domain.Book) domain.Book {
	b.mu.Lock()
	defer b.mu.Unlock()
	if book.ID.IsZero() {
		book.ID = domain.ID(id.MustGenerate(id.PrefixBook))
	}
	b.books = append(b.books, book)
	return book
}

// AddReader seeds a member.
func (b *Backend) AddReader(r domain.Reader) domain.Reader {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = domain.ID(id.MustGenerate(id.PrefixMember))
	}
	b.members = append(b.members, r)
	return r
}

// AddPost seeds a post.
func (b *Backend) AddPost(p domain.Post) domain.Post {
	b.mu.Lock()
	defer b.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = domain.ID(id.MustGenerate(id.PrefixPost))
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = domain.Timestamp{Time: time.Now().UTC()}
	}
	b.posts = append(b.posts, p)
	return p
}

// AddBorrow seeds a borrow slip.
func (b *Backend) AddBorrow(br domain.Borrow) domain.Borrow {
	b.mu.Lock()
	defer b.mu.Unlock()
	if br.ID.IsZero() {
		br.ID = domain.ID(id.MustGenerate(id.PrefixBorrow))
	}
	b.borrows = append(b.borrows, br)
	return br
}

// AddPending seeds a borrow request awaiting approval.
func (b *Backend) AddPending(br domain.Borrow) domain.Borrow {
	b.mu.Lock()
	defer b.mu.Unlock()
	if br.ID.IsZero() {
		br.ID = domain.ID(id.MustGenerate(id.PrefixBorrow))
	}
	b.pending = append(b.pending, br)
	return br
}

// SetCategories replaces the category tree.
func (b *Backend) SetCategories(cats []domain.Category) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.categories = slices.Clone(cats)
}

// Remove deletes a record out of band, as another desk would.
// It reports whether the record existed.
func (b *Backend) Remove(resource string, recordID domain.ID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch resource {
	case ResourceBooks:
		return removeByID(&b.books, recordID)
	case ResourceMembers:
		return removeByID(&b.members, recordID)
	case ResourcePosts:
		return removeByID(&b.posts, recordID)
	case ResourceBorrows:
		return removeByID(&b.borrows, recordID)
	}
	return false
}

// Books returns a copy of the stored books.
func (b *Backend) Books() []domain.Book {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.books)
}

// Readers returns a copy of the stored members.
func (b *Backend) Readers() []domain.Reader {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.members)
}

// Posts returns a copy of the stored posts.
func (b *Backend) Posts() []domain.Post {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.posts)
}

// Borrows returns a copy of the stored slips.
func (b *Backend) Borrows() []domain.Borrow {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.borrows)
}

func indexByID[T domain.Keyed](recs []T, recordID domain.ID) int {
	return slices.IndexFunc(recs, func(r T) bool { return r.Key() == recordID })
}

func removeByID[T domain.Keyed](recs *[]T, recordID domain.ID) bool {
	i := indexByID(*recs, recordID)
	if i < 0 {
		return false
	}
	*recs = slices.Delete(*recs, i, i+1)
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func pathID(r *http.Request) domain.ID {
	return domain.ID(strings.TrimSpace(chi.URLParam(r, "id")))
}
