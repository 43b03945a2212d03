package service

import (
	"context"
	"slices"

	"github.com/librarydesk/librarydesk/internal/collection"
	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/errors"
	"github.com/librarydesk/librarydesk/internal/shared"
)

// ReaderService is the reader administration screen.
type ReaderService struct {
	readers  *collection.Manager[domain.Reader]
	registry *shared.Registry
}

// NewReaderService creates a new reader service.
func NewReaderService(reg *shared.Registry) *ReaderService {
	return &ReaderService{readers: reg.Readers, registry: reg}
}

// Manager returns the manager behind the screen.
func (s *ReaderService) Manager() *collection.Manager[domain.Reader] {
	return s.readers
}

// Load fetches every reader.
func (s *ReaderService) Load(ctx context.Context) error {
	return s.readers.Load(ctx)
}

// Visible returns the readers matching the current search.
func (s *ReaderService) Visible() []domain.Reader {
	return s.readers.Visible()
}

// Get returns a loaded reader.
func (s *ReaderService) Get(id domain.ID) (domain.Reader, error) {
	r, ok := s.readers.Get(id)
	if !ok {
		return domain.Reader{}, errors.NotFoundf("reader %s not found", id)
	}
	return r, nil
}

// Add registers a reader.
func (s *ReaderService) Add(ctx context.Context, r domain.Reader) (domain.Reader, error) {
	return s.readers.Create(ctx, r)
}

// Update saves changes to a reader.
func (s *ReaderService) Update(ctx context.Context, r domain.Reader) (domain.Reader, error) {
	return s.readers.Update(ctx, r)
}

// Delete removes a reader. Their borrow slips are left alone.
func (s *ReaderService) Delete(ctx context.Context, id domain.ID) error {
	return s.readers.Delete(ctx, id)
}

// BorrowedBooks returns the loans listed on a reader's record.
func (s *ReaderService) BorrowedBooks(id domain.ID) ([]domain.BorrowedBook, error) {
	r, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(r.BorrowedBooks), nil
}

// Lookup finds the reader registered with email or phone.
func (s *ReaderService) Lookup(email, phone string) (domain.Reader, bool) {
	return s.registry.LookupReader(email, phone)
}
