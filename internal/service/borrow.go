package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/librarydesk/librarydesk/internal/collection"
	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/errors"
	"github.com/librarydesk/librarydesk/internal/gateway"
	"github.com/librarydesk/librarydesk/internal/id"
	"github.com/librarydesk/librarydesk/internal/logger"
	"github.com/librarydesk/librarydesk/internal/shared"
	"github.com/librarydesk/librarydesk/internal/validation"
)

// NoticeReaderNotRegistered is shown when a borrow form names nobody on file.
const NoticeReaderNotRegistered = "No reader is registered with this phone or email. Create the reader first."

// BorrowForm is what the desk types when lending a book.
type BorrowForm struct {
	BookTitle string      `json:"bookTitle" validate:"required"`
	Phone     string      `json:"phone" validate:"required,phone"`
	Email     string      `json:"email" validate:"omitempty,email"`
	DueDate   domain.Date `json:"dueDate" validate:"-"`
}

// BorrowService is the borrow slip screen.
type BorrowService struct {
	borrows   *collection.Manager[domain.Borrow]
	registry  *shared.Registry
	tx        *gateway.Transactions
	validator *validation.Validator
	logger    *logger.Logger
	now       func() time.Time
}

// NewBorrowService creates a new borrow service.
func NewBorrowService(d Deps, reg *shared.Registry) *BorrowService {
	log := d.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &BorrowService{
		borrows: collection.New(collection.Config[domain.Borrow]{
			Screen: ScreenBorrows,
			Remote: d.Client.Borrows(),
			Hub:    d.Hub,
			Logger: d.Logger,
			Messages: collection.Messages{
				LoadFailed:   "Could not load borrow slips",
				Created:      "Book lent",
				CreateFailed: "Could not lend book",
				Updated:      "Borrow slip updated",
				UpdateFailed: "Could not update borrow slip",
				Deleted:      "Borrow slip deleted",
				DeleteFailed: "Could not delete borrow slip",
			},
			Filter:      BorrowFilter,
			Validate:    func(b domain.Borrow) error { return d.Validator.Validate(b) },
			SearchDelay: d.SearchDelay,
		}),
		registry:  reg,
		tx:        d.Client.Transactions(),
		validator: d.Validator,
		logger:    log.ForScreen(ScreenBorrows),
		now:       time.Now,
	}
}

// Manager returns the manager behind the screen.
func (s *BorrowService) Manager() *collection.Manager[domain.Borrow] {
	return s.borrows
}

// Load fetches the borrowed slips.
func (s *BorrowService) Load(ctx context.Context) error {
	return s.borrows.Load(ctx)
}

// Visible returns the slips matching the current search and status.
func (s *BorrowService) Visible() []domain.Borrow {
	return s.borrows.Visible()
}

// Overdue returns the visible active slips whose due date has passed. Their
// status is left as the backend reported it.
func (s *BorrowService) Overdue() []domain.Borrow {
	now := s.now()
	var out []domain.Borrow
	for _, b := range s.borrows.Visible() {
		if b.PastDue(now) {
			out = append(out, b)
		}
	}
	return out
}

// Validate checks the form without contacting anyone.
func (s *BorrowService) Validate(form BorrowForm) error {
	err := s.validator.Validate(form)
	fields := validation.FieldErrors(err)
	if err != nil && fields == nil {
		return err
	}
	if form.DueDate.IsZero() {
		if fields == nil {
			fields = make(map[string]string, 1)
		}
		fields["dueDate"] = "is required"
	}
	if len(fields) == 0 {
		return nil
	}
	return errors.ValidationWithDetails("validation failed", fields)
}

// Submit lends a book. The form is validated first and nothing is sent if it
// fails. The phone or email must belong to a registered reader; otherwise a
// notice is shown and no slip is created.
func (s *BorrowService) Submit(ctx context.Context, form BorrowForm) (domain.Borrow, error) {
	if err := s.Validate(form); err != nil {
		return domain.Borrow{}, err
	}

	if s.registry.Readers.State() == collection.StateIdle {
		if err := s.registry.Readers.Load(ctx); err != nil {
			return domain.Borrow{}, err
		}
	}

	reader, ok := s.registry.LookupReader(form.Email, form.Phone)
	if !ok {
		s.logger.Info("borrow blocked: reader not registered", slog.String("phone", form.Phone))
		s.borrows.ShowNotice(NoticeReaderNotRegistered)
		return domain.Borrow{}, errors.ReaderNotRegistered("create the reader first")
	}

	slipID, err := id.Generate(id.PrefixBorrow)
	if err != nil {
		return domain.Borrow{}, errors.Wrap(err, errors.CodeInternal, "generate borrow id")
	}

	slip := domain.Borrow{
		ID:            domain.ID(slipID),
		BookTitle:     form.BookTitle,
		BorrowerName:  reader.Name,
		BorrowerPhone: form.Phone,
		BorrowerEmail: form.Email,
		BorrowDate:    domain.Timestamp{Time: s.now().UTC()},
		DueDate:       form.DueDate,
		Status:        domain.BorrowActive,
	}

	created, err := s.borrows.Create(ctx, slip)
	if err != nil {
		return domain.Borrow{}, err
	}
	if created.ID.IsZero() {
		return slip, nil
	}
	return created, nil
}

// Return marks a slip as returned.
func (s *BorrowService) Return(ctx context.Context, slipID domain.ID) (domain.Borrow, error) {
	return s.borrows.Apply(ctx, gateway.OpReturn, slipID, "Book returned", "Could not return book",
		func(ctx context.Context) (domain.Borrow, error) { return s.tx.Return(ctx, slipID) })
}

// Renew moves a slip's due date.
func (s *BorrowService) Renew(ctx context.Context, slipID domain.ID, due domain.Date) (domain.Borrow, error) {
	return s.borrows.Apply(ctx, gateway.OpRenew, slipID, "Borrow renewed", "Could not renew borrow",
		func(ctx context.Context) (domain.Borrow, error) { return s.tx.Renew(ctx, slipID, due) })
}

// Approve accepts a pending borrow request. The approved slip joins the list.
func (s *BorrowService) Approve(ctx context.Context, slipID domain.ID) (domain.Borrow, error) {
	return s.borrows.Apply(ctx, gateway.OpApprove, slipID, "Borrow request approved", "Could not approve request",
		func(ctx context.Context) (domain.Borrow, error) { return s.tx.Approve(ctx, slipID) })
}

// Pending lists borrow requests waiting for approval.
func (s *BorrowService) Pending(ctx context.Context) ([]domain.Borrow, error) {
	return s.tx.Pending(ctx)
}

// Returned lists slips that have been returned.
func (s *BorrowService) Returned(ctx context.Context) ([]domain.Borrow, error) {
	return s.tx.Returned(ctx)
}

// SuggestTitles offers loaded book titles for the form's title field.
func (s *BorrowService) SuggestTitles(title string) []string {
	books := s.registry.SuggestBooks(title, shared.DefaultSuggestLimit)
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title)
	}
	return out
}

// Close ends the screen.
func (s *BorrowService) Close() {
	s.borrows.Close()
}
