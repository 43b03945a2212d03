package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/errors"
	"github.com/librarydesk/librarydesk/internal/notify"
	"github.com/librarydesk/librarydesk/internal/service"
	"github.com/librarydesk/librarydesk/internal/validation"
)

func newBorrows(t *testing.T, f *fixture) *service.BorrowService {
	t.Helper()
	s := service.NewBorrowService(f.deps, f.registry)
	t.Cleanup(s.Close)
	return s
}

func TestBorrowService_SubmitHappyPath(t *testing.T) {
	f := newFixture(t)
	borrows := newBorrows(t, f)

	slip, err := borrows.Submit(context.Background(), service.BorrowForm{
		BookTitle: "Nhà Giả Kim",
		Phone:     "0912345678",
		DueDate:   domain.NewDate(2025, time.January, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.BorrowActive, slip.Status)
	assert.Equal(t, "Nguyễn Văn An", slip.BorrowerName)
	assert.Equal(t, "Nhà Giả Kim", slip.BookTitle)
	assert.Equal(t, "2025-01-01", slip.DueDate.String())
	assert.False(t, slip.ID.IsZero())

	_, ok := borrows.Manager().Get(slip.ID)
	assert.True(t, ok)
	assert.Equal(t, 1, f.backend.RequestCount(http.MethodPost, "/transactions/borrow"))
	assert.Len(t, f.backend.Borrows(), 4)
}

func TestBorrowService_SubmitInvalidPhone(t *testing.T) {
	f := newFixture(t)
	borrows := newBorrows(t, f)

	_, err := borrows.Submit(context.Background(), service.BorrowForm{
		BookTitle: "Nhà Giả Kim",
		Phone:     "12345",
		DueDate:   domain.NewDate(2025, time.January, 1),
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))
	assert.Equal(t, "must be exactly 10 digits", validation.FieldErrors(err)["phone"])
	assert.Empty(t, f.backend.Requests())
}

func TestBorrowService_SubmitMissingDueDate(t *testing.T) {
	f := newFixture(t)
	borrows := newBorrows(t, f)

	_, err := borrows.Submit(context.Background(), service.BorrowForm{Phone: "0912345678"})
	require.Error(t, err)
	fields := validation.FieldErrors(err)
	assert.Equal(t, "is required", fields["dueDate"])
	assert.Equal(t, "is required", fields["bookTitle"])
	assert.Empty(t, f.backend.Requests())
}

func TestBorrowService_SubmitUnknownReader(t *testing.T) {
	f := newFixture(t)
	borrows := newBorrows(t, f)
	sub := f.deps.Hub.Subscribe(service.ScreenBorrows)

	_, err := borrows.Submit(context.Background(), service.BorrowForm{
		BookTitle: "Nhà Giả Kim",
		Phone:     "0999999999",
		Email:     "nobody@example.com",
		DueDate:   domain.NewDate(2025, time.January, 1),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrReaderNotRegistered))

	n := receive(t, sub)
	assert.Equal(t, notify.LevelInfo, n.Level)
	assert.Equal(t, service.NoticeReaderNotRegistered, n.Message)
	assert.Equal(t, service.NoticeReaderNotRegistered, borrows.Manager().UI().Notice)

	assert.Zero(t, f.backend.RequestCount(http.MethodPost, "/transactions/borrow"))
	assert.Len(t, f.backend.Borrows(), 3)
	assert.Zero(t, borrows.Manager().Len())
}

func TestBorrowService_SubmitMatchesByEmail(t *testing.T) {
	f := newFixture(t)
	borrows := newBorrows(t, f)
	require.NoError(t, f.registry.Readers.Load(context.Background()))

	// The phone is well formed but belongs to nobody; the email resolves.
	slip, err := borrows.Submit(context.Background(), service.BorrowForm{
		BookTitle: "Số Đỏ",
		Phone:     "0900000000",
		Email:     "BINH.TRAN@example.com",
		DueDate:   domain.NewDate(2025, time.February, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "Trần Thị Bình", slip.BorrowerName)
	assert.Equal(t, 1, f.backend.RequestCount(http.MethodGet, "/members"))
}

func TestBorrowService_Transitions(t *testing.T) {
	f := newFixture(t)
	borrows := newBorrows(t, f)
	ctx := context.Background()
	require.NoError(t, borrows.Load(ctx))

	returned, err := borrows.Return(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, domain.BorrowReturned, returned.Status)
	got, _ := borrows.Manager().Get("101")
	assert.Equal(t, domain.BorrowReturned, got.Status)

	due := domain.NewDate(2030, time.June, 1)
	renewed, err := borrows.Renew(ctx, "102", due)
	require.NoError(t, err)
	assert.Equal(t, domain.BorrowActive, renewed.Status)
	assert.Equal(t, due.String(), renewed.DueDate.String())

	_, err = borrows.Renew(ctx, "101", due)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))

	pending, err := borrows.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	approved, err := borrows.Approve(ctx, pending[0].ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BorrowActive, approved.Status)
	_, ok := borrows.Manager().Get(pending[0].ID)
	assert.True(t, ok)

	history, err := borrows.Returned(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestBorrowService_StatusFilterAndOverdue(t *testing.T) {
	f := newFixture(t)
	borrows := newBorrows(t, f)
	require.NoError(t, borrows.Load(context.Background()))

	borrows.Manager().SetStatus(string(domain.BorrowOverdue))
	visible := borrows.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "Tắt Đèn", visible[0].BookTitle)

	// Overdue reports active slips only; the overdue slip is already marked.
	assert.Empty(t, borrows.Overdue())

	borrows.Manager().SetStatus("all")
	borrows.Manager().Search("văn an")
	visible = borrows.Visible()
	assert.Len(t, visible, 2)
	for _, b := range visible {
		assert.Equal(t, "Nguyễn Văn An", b.BorrowerName)
	}
}

func TestBorrowService_SuggestTitles(t *testing.T) {
	f := newFixture(t)
	borrows := newBorrows(t, f)
	require.NoError(t, f.registry.Books.Load(context.Background()))

	assert.Equal(t, []string{"Nhà Giả Kim"}, borrows.SuggestTitles("giả kim"))
	assert.Empty(t, borrows.SuggestTitles(""))
}
