package apitest

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/id"
)

const suggestLimit = 5

// Books.

func (b *Backend) handleListBooks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, b.Books())
}

func (b *Backend) handleGetBook(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := indexByID(b.books, pathID(r))
	if i < 0 {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	writeJSON(w, http.StatusOK, b.books[i])
}

func (b *Backend) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var book domain.Book
	if err := decodeBody(r, &book); err != nil || book.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	book.ID = domain.ID(id.MustGenerate(id.PrefixBook))
	writeJSON(w, http.StatusCreated, b.AddBook(book))
}

func (b *Backend) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	var book domain.Book
	if err := decodeBody(r, &book); err != nil {
		writeError(w, http.StatusBadRequest, "invalid book")
		return
	}
	book.ID = pathID(r)

	b.mu.Lock()
	defer b.mu.Unlock()
	i := indexByID(b.books, book.ID)
	if i < 0 {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	b.books[i] = book
	writeJSON(w, http.StatusOK, book)
}

func (b *Backend) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !removeByID(&b.books, pathID(r)) {
		writeError(w, http.StatusNotFound, "book not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "book deleted"})
}

// Catalog.

func (b *Backend) handleCategories(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cats := b.categories
	if cats == nil {
		cats = []domain.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

func (b *Backend) handleBooksByCategory(w http.ResponseWriter, r *http.Request) {
	big, sub := chi.URLParam(r, "big"), chi.URLParam(r, "sub")

	b.mu.Lock()
	defer b.mu.Unlock()

	var name string
	for _, c := range b.categories {
		if c.Slug != big {
			continue
		}
		for _, s := range c.Subcategories {
			if s.Slug == sub {
				name = s.Name
			}
		}
	}
	if name == "" {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}

	books := []domain.Book{}
	for _, book := range b.books {
		if strings.EqualFold(book.Category, name) || strings.EqualFold(book.Category, sub) {
			books = append(books, book)
		}
	}
	writeJSON(w, http.StatusOK, books)
}

func (b *Backend) handleSuggest(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	books := []domain.Book{}
	for _, book := range b.books {
		if book.Available > 0 {
			books = append(books, book)
		}
		if len(books) == suggestLimit {
			break
		}
	}
	writeJSON(w, http.StatusOK, books)
}

// handleDistribution answers with an object keyed by category, the shape the
// production backend uses.
func (b *Backend) handleDistribution(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	counts := map[string]int{}
	for _, book := range b.books {
		if book.Category != "" {
			counts[book.Category]++
		}
	}
	writeJSON(w, http.StatusOK, counts)
}

// Members.

func (b *Backend) handleListMembers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, b.Readers())
}

func (b *Backend) handleCreateMember(w http.ResponseWriter, r *http.Request) {
	var m domain.Reader
	if err := decodeBody(r, &m); err != nil || m.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	m.ID = domain.ID(id.MustGenerate(id.PrefixMember))
	writeJSON(w, http.StatusCreated, b.AddReader(m))
}

func (b *Backend) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	var m domain.Reader
	if err := decodeBody(r, &m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid member")
		return
	}
	m.ID = pathID(r)

	b.mu.Lock()
	defer b.mu.Unlock()
	i := indexByID(b.members, m.ID)
	if i < 0 {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	b.members[i] = m
	writeJSON(w, http.StatusOK, m)
}

func (b *Backend) handleDeleteMember(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !removeByID(&b.members, pathID(r)) {
		writeError(w, http.StatusNotFound, "member not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "member deleted"})
}

// Posts.

func (b *Backend) handleListPosts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, b.Posts())
}

func (b *Backend) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var p domain.Post
	if err := decodeBody(r, &p); err != nil || p.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	p.ID = domain.ID(id.MustGenerate(id.PrefixPost))
	p.CreatedAt = domain.Timestamp{Time: time.Now().UTC().Truncate(time.Second)}
	writeJSON(w, http.StatusCreated, b.AddPost(p))
}

func (b *Backend) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var p domain.Post
	if err := decodeBody(r, &p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid post")
		return
	}
	p.ID = pathID(r)

	b.mu.Lock()
	defer b.mu.Unlock()
	i := indexByID(b.posts, p.ID)
	if i < 0 {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = b.posts[i].CreatedAt
	}
	b.posts[i] = p
	writeJSON(w, http.StatusOK, p)
}

func (b *Backend) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !removeByID(&b.posts, pathID(r)) {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "post deleted"})
}

// Transactions.

// transactionWire is how the production backend lists slips.
type transactionWire struct {
	TransactionID   domain.ID           `json:"transactionId"`
	BookTitle       string              `json:"bookTitle"`
	MemberName      string              `json:"memberName"`
	BorrowerPhone   string              `json:"borrowerPhone,omitempty"`
	BorrowerEmail   string              `json:"borrowerEmail,omitempty"`
	TransactionDate domain.Timestamp    `json:"transactionDate"`
	DueDate         domain.Date         `json:"dueDate"`
	Status          domain.BorrowStatus `json:"status"`
}

func toWire(brs []domain.Borrow) []transactionWire {
	out := make([]transactionWire, 0, len(brs))
	for _, br := range brs {
		out = append(out, transactionWire{
			TransactionID:   br.ID,
			BookTitle:       br.BookTitle,
			MemberName:      br.BorrowerName,
			BorrowerPhone:   br.BorrowerPhone,
			BorrowerEmail:   br.BorrowerEmail,
			TransactionDate: br.BorrowDate,
			DueDate:         br.DueDate,
			Status:          br.Status,
		})
	}
	return out
}

type transactionRequest struct {
	TransactionID domain.ID    `json:"transactionId"`
	DueDate       *domain.Date `json:"dueDate"`
}

func (b *Backend) handleListBorrowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toWire(b.Borrows()))
}

func (b *Backend) handleListReturned(w http.ResponseWriter, _ *http.Request) {
	returned := []domain.Borrow{}
	for _, br := range b.Borrows() {
		if br.Status == domain.BorrowReturned {
			returned = append(returned, br)
		}
	}
	writeJSON(w, http.StatusOK, toWire(returned))
}

func (b *Backend) handleListPending(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	pending := toWire(b.pending)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, pending)
}

func (b *Backend) handleBorrow(w http.ResponseWriter, r *http.Request) {
	var br domain.Borrow
	if err := decodeBody(r, &br); err != nil || br.BookTitle == "" {
		writeError(w, http.StatusBadRequest, "book title is required")
		return
	}
	if br.Status == "" {
		br.Status = domain.BorrowActive
	}
	if br.BorrowDate.IsZero() {
		br.BorrowDate = domain.Timestamp{Time: time.Now().UTC()}
	}
	writeJSON(w, http.StatusCreated, b.AddBorrow(br))
}

func (b *Backend) handleReturn(w http.ResponseWriter, r *http.Request) {
	b.transition(w, r, func(br *domain.Borrow, _ transactionRequest) bool {
		br.Status = domain.BorrowReturned
		return true
	})
}

func (b *Backend) handleRenew(w http.ResponseWriter, r *http.Request) {
	b.transition(w, r, func(br *domain.Borrow, req transactionRequest) bool {
		if req.DueDate == nil || req.DueDate.IsZero() || br.Status == domain.BorrowReturned {
			return false
		}
		br.DueDate = *req.DueDate
		br.Status = domain.BorrowActive
		return true
	})
}

func (b *Backend) transition(w http.ResponseWriter, r *http.Request, apply func(*domain.Borrow, transactionRequest) bool) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil || req.TransactionID.IsZero() {
		writeError(w, http.StatusBadRequest, "transactionId is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	i := indexByID(b.borrows, req.TransactionID)
	if i < 0 {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	br := b.borrows[i]
	if !apply(&br, req) {
		writeError(w, http.StatusConflict, "transaction cannot change")
		return
	}
	b.borrows[i] = br
	writeJSON(w, http.StatusOK, toWire([]domain.Borrow{br})[0])
}

func (b *Backend) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil || req.TransactionID.IsZero() {
		writeError(w, http.StatusBadRequest, "transactionId is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	i := indexByID(b.pending, req.TransactionID)
	if i < 0 {
		writeError(w, http.StatusNotFound, "request not found")
		return
	}
	br := b.pending[i]
	b.pending = append(b.pending[:i], b.pending[i+1:]...)
	br.Status = domain.BorrowActive
	if br.BorrowDate.IsZero() {
		br.BorrowDate = domain.Timestamp{Time: time.Now().UTC()}
	}
	b.borrows = append(b.borrows, br)
	writeJSON(w, http.StatusOK, toWire([]domain.Borrow{br})[0])
}
