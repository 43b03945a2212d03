package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/librarydesk/librarydesk/internal/apitest"
	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/gateway"
	"github.com/librarydesk/librarydesk/internal/notify"
	"github.com/librarydesk/librarydesk/internal/service"
	"github.com/librarydesk/librarydesk/internal/shared"
	"github.com/librarydesk/librarydesk/internal/validation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
	)
}

type fixture struct {
	backend  *apitest.Backend
	deps     service.Deps
	registry *shared.Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := apitest.New().Seed()
	client, err := gateway.New(gateway.Options{BaseURL: backend.Serve(t), RPS: -1})
	require.NoError(t, err)

	hub := notify.NewHub(nil, 16)
	t.Cleanup(hub.Close)

	deps := service.Deps{
		Client:      client,
		Hub:         hub,
		Validator:   validation.New(),
		SearchDelay: -1,
	}
	reg := shared.New(service.NewReaderManager(deps), service.NewBookManager(deps), nil)
	t.Cleanup(reg.Close)

	return &fixture{backend: backend, deps: deps, registry: reg}
}

func receive(t *testing.T, sub *notify.Subscriber) notify.Notification {
	t.Helper()
	select {
	case n := <-sub.C:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("no notification")
		return notify.Notification{}
	}
}

func TestBookService_CRUD(t *testing.T) {
	f := newFixture(t)
	books := service.NewBookService(f.registry, f.deps.Client)
	ctx := context.Background()

	require.NoError(t, books.Load(ctx))
	assert.Len(t, books.Visible(), 5)

	created, err := books.Add(ctx, domain.Book{Title: "Chí Phèo", Author: "Nam Cao", Quantity: 2, Available: 2})
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero())
	assert.Equal(t, 6, books.Manager().Len())

	created.Available = 1
	_, err = books.Update(ctx, created)
	require.NoError(t, err)
	got, ok := books.Manager().Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, 1, got.Available)

	require.NoError(t, books.Delete(ctx, created.ID))
	assert.Equal(t, 5, books.Manager().Len())

	fetched, err := books.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Nhà Giả Kim", fetched.Title)
}

func TestBookService_RejectsAvailableAboveQuantity(t *testing.T) {
	f := newFixture(t)
	books := service.NewBookService(f.registry, f.deps.Client)

	_, err := books.Add(context.Background(), domain.Book{Title: "Chí Phèo", Quantity: 1, Available: 3})
	require.Error(t, err)
	assert.Contains(t, validation.FieldErrors(err), "available")
	assert.Empty(t, f.backend.Requests())
}

func TestBookService_Catalog(t *testing.T) {
	f := newFixture(t)
	books := service.NewBookService(f.registry, f.deps.Client)
	ctx := context.Background()

	cats, err := books.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 2)

	novels, err := books.BooksByCategory(ctx, "van-hoc", "tieu-thuyet")
	require.NoError(t, err)
	assert.NotEmpty(t, novels)

	shares, err := books.Distribution(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, shares)
	assert.Equal(t, "Tiểu thuyết", shares[0].Category)

	suggested, err := books.Suggested(ctx)
	require.NoError(t, err)
	for _, b := range suggested {
		assert.Positive(t, b.Available)
	}
}

func TestReaderService_BorrowedBooks(t *testing.T) {
	f := newFixture(t)
	f.backend.AddReader(domain.Reader{ID: "9", Name: "Lê Văn Cường", Phone: "0900000009", BorrowedBooks: []domain.BorrowedBook{
		{Title: "Số Đỏ", DueDate: domain.NewDate(2025, time.March, 1), Status: domain.BorrowActive},
	}})
	readers := service.NewReaderService(f.registry)
	require.NoError(t, readers.Load(context.Background()))

	loans, err := readers.BorrowedBooks("9")
	require.NoError(t, err)
	require.Len(t, loans, 1)
	assert.Equal(t, "Số Đỏ", loans[0].Title)

	_, err = readers.BorrowedBooks("404")
	assert.Error(t, err)

	r, ok := readers.Lookup("", "0912345678")
	require.True(t, ok)
	assert.Equal(t, "Nguyễn Văn An", r.Name)
}

func TestReaderService_InvalidPhoneMakesNoRequest(t *testing.T) {
	f := newFixture(t)
	readers := service.NewReaderService(f.registry)

	_, err := readers.Add(context.Background(), domain.Reader{Name: "Phạm Dũng", Phone: "12345"})
	require.Error(t, err)
	assert.Equal(t, "must be exactly 10 digits", validation.FieldErrors(err)["phoneNumber"])
	assert.Empty(t, f.backend.Requests())
}

func TestPostService_StatusFilter(t *testing.T) {
	f := newFixture(t)
	posts := service.NewPostService(f.deps)
	t.Cleanup(posts.Close)
	ctx := context.Background()

	require.NoError(t, posts.Load(ctx))
	assert.Len(t, posts.Visible(), 2)

	posts.Manager().SetStatus(domain.PostPublished)
	visible := posts.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "Giờ mở cửa dịp Tết", visible[0].Title)

	created, err := posts.Add(ctx, domain.Post{Title: "Ngày hội đọc sách", Author: "Thủ thư"})
	require.NoError(t, err)
	assert.Equal(t, domain.PostDraft, created.Status)
	assert.Len(t, posts.Visible(), 1)

	_, err = posts.Get("missing")
	assert.Error(t, err)
}

func TestBookService_BooksByCategoryAcceptsNames(t *testing.T) {
	f := newFixture(t)
	books := service.NewBookService(f.registry, f.deps.Client)

	byName, err := books.BooksByCategory(context.Background(), "Văn học", "Tiểu thuyết")
	require.NoError(t, err)
	bySlug, err := books.BooksByCategory(context.Background(), "van-hoc", "tieu-thuyet")
	require.NoError(t, err)
	assert.Equal(t, bySlug, byName)
	assert.Len(t, byName, 3)
}
