package collection_test

import (
	"cmp"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/librarydesk/librarydesk/internal/apitest"
	"github.com/librarydesk/librarydesk/internal/collection"
	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/errors"
	"github.com/librarydesk/librarydesk/internal/filter"
	"github.com/librarydesk/librarydesk/internal/gateway"
	"github.com/librarydesk/librarydesk/internal/notify"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// httptest keeps idle keep-alive connections until the server closes.
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
	)
}

var bookFilter = filter.New(
	func(b domain.Book) []string { return []string{b.Title, b.Author} },
	nil,
)

// fakeRemote is an in-memory Remote whose calls can be held open.
type fakeRemote struct {
	mu        sync.Mutex
	recs      []domain.Book
	err       error
	release   chan struct{}
	started   chan struct{}
	ignoreCtx bool
	noEcho    bool
	listErr   error
	calls     int
}

func (f *fakeRemote) wait(ctx context.Context) error {
	f.mu.Lock()
	f.calls++
	release, started, ignore := f.release, f.started, f.ignoreCtx
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release == nil {
		return nil
	}
	if ignore {
		<-release
		return nil
	}
	select {
	case <-release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeRemote) List(ctx context.Context) ([]domain.Book, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := cmp.Or(f.err, f.listErr); err != nil {
		return nil, err
	}
	return append([]domain.Book(nil), f.recs...), nil
}

func (f *fakeRemote) Create(ctx context.Context, rec domain.Book) (domain.Book, error) {
	if err := f.wait(ctx); err != nil {
		return domain.Book{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Book{}, f.err
	}
	rec.ID = domain.ID("srv-" + rec.Title)
	f.recs = append(f.recs, rec)
	if f.noEcho {
		return domain.Book{}, nil
	}
	return rec, nil
}

func (f *fakeRemote) Update(ctx context.Context, rec domain.Book) (domain.Book, error) {
	if err := f.wait(ctx); err != nil {
		return domain.Book{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return rec, f.err
}

func (f *fakeRemote) Delete(ctx context.Context, _ domain.ID) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func newManager(t *testing.T, remote collection.Remote[domain.Book], hub *notify.Hub) *collection.Manager[domain.Book] {
	t.Helper()
	m := collection.New(collection.Config[domain.Book]{
		Screen:      "books",
		Remote:      remote,
		Hub:         hub,
		Filter:      bookFilter,
		Messages:    collection.DefaultMessages("book"),
		SearchDelay: -1,
	})
	t.Cleanup(m.Close)
	return m
}

func drain(sub *notify.Subscriber) []notify.Notification {
	var out []notify.Notification
	for {
		select {
		case n := <-sub.C:
			out = append(out, n)
		default:
			return out
		}
	}
}

func TestManager_LoadTransitions(t *testing.T) {
	remote := &fakeRemote{recs: []domain.Book{{ID: "1", Title: "Nhà Giả Kim"}}}
	m := newManager(t, remote, nil)

	assert.Equal(t, collection.StateIdle, m.State())
	require.NoError(t, m.Load(context.Background()))
	assert.Equal(t, collection.StateReady, m.State())
	assert.Len(t, m.Records(), 1)
}

func TestManager_LoadFailureLeavesStoreEmpty(t *testing.T) {
	hub := notify.NewHub(nil, 8)
	defer hub.Close()
	sub := hub.Subscribe("books")

	remote := &fakeRemote{err: errors.Remote(500, "500 boom")}
	m := newManager(t, remote, hub)

	err := m.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, collection.StateReady, m.State())
	assert.Zero(t, m.Len())

	got := drain(sub)
	require.Len(t, got, 1)
	assert.Equal(t, notify.LevelError, got[0].Level)
	assert.Equal(t, "Could not load books", got[0].Message)
}

func TestManager_NoOptimisticUpdate(t *testing.T) {
	remote := &fakeRemote{release: make(chan struct{}), started: make(chan struct{}, 1)}
	m := newManager(t, remote, nil)

	done := make(chan error, 1)
	go func() {
		_, err := m.Create(context.Background(), domain.Book{Title: "Số Đỏ"})
		done <- err
	}()

	<-remote.started
	assert.Equal(t, collection.StateSubmitting, m.State())
	assert.Zero(t, m.Len(), "store changes only after the gateway answers")

	close(remote.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, m.Len())
}

func TestManager_CreateWithoutEchoReloads(t *testing.T) {
	remote := &fakeRemote{noEcho: true}
	m := newManager(t, remote, nil)
	require.NoError(t, m.Load(context.Background()))

	_, err := m.Create(context.Background(), domain.Book{Title: "Tắt Đèn"})
	require.NoError(t, err)

	got, ok := m.Get("srv-Tắt Đèn")
	require.True(t, ok)
	assert.Equal(t, "Tắt Đèn", got.Title)
	assert.Equal(t, 1, m.Len())
}

func TestManager_CreateWithoutEchoReloadFailure(t *testing.T) {
	hub := notify.NewHub(nil, 8)
	defer hub.Close()
	sub := hub.Subscribe("books")

	remote := &fakeRemote{noEcho: true}
	m := newManager(t, remote, hub)
	require.NoError(t, m.Load(context.Background()))

	remote.mu.Lock()
	remote.listErr = errors.Remote(503, "503 unavailable")
	remote.mu.Unlock()

	_, err := m.Create(context.Background(), domain.Book{Title: "Tắt Đèn"})
	require.NoError(t, err, "the backend accepted the record")

	_, ok := m.Get("srv-Tắt Đèn")
	assert.False(t, ok)

	got := drain(sub)
	require.Len(t, got, 1, "no success notice beside the reload failure")
	assert.Equal(t, notify.LevelError, got[0].Level)
	assert.Equal(t, "Could not load books", got[0].Message)
}

func TestManager_ValidateBlocksCall(t *testing.T) {
	remote := &fakeRemote{}
	m := collection.New(collection.Config[domain.Book]{
		Screen: "books",
		Remote: remote,
		Validate: func(b domain.Book) error {
			if b.Title == "" {
				return errors.Validation("title is required")
			}
			return nil
		},
	})
	defer m.Close()

	_, err := m.Create(context.Background(), domain.Book{})
	assert.True(t, errors.Is(err, errors.ErrValidation))
	_, err = m.Update(context.Background(), domain.Book{ID: "1"})
	assert.True(t, errors.Is(err, errors.ErrValidation))
	assert.Zero(t, remote.calls)
}

func TestManager_CloseCancelsInFlight(t *testing.T) {
	hub := notify.NewHub(nil, 8)
	defer hub.Close()
	sub := hub.Subscribe("")

	remote := &fakeRemote{release: make(chan struct{}), started: make(chan struct{}, 1)}
	m := newManager(t, remote, hub)

	done := make(chan error, 1)
	go func() {
		_, err := m.Create(context.Background(), domain.Book{Title: "Vợ Nhặt"})
		done <- err
	}()

	<-remote.started
	m.Close()

	err := <-done
	assert.Equal(t, errors.KindCanceled, errors.KindOf(err))
	assert.Zero(t, m.Len())
	assert.Empty(t, drain(sub), "a closed screen shows nothing")
}

func TestManager_LateResultIgnored(t *testing.T) {
	remote := &fakeRemote{release: make(chan struct{}), started: make(chan struct{}, 1), ignoreCtx: true}
	m := newManager(t, remote, nil)

	done := make(chan error, 1)
	go func() {
		_, err := m.Create(context.Background(), domain.Book{Title: "Đắc Nhân Tâm"})
		done <- err
	}()

	<-remote.started
	m.Close()
	close(remote.release)

	assert.True(t, errors.Is(<-done, errors.ErrCanceled))
	assert.Zero(t, m.Len())

	_, err := m.Create(context.Background(), domain.Book{Title: "after close"})
	assert.True(t, errors.Is(err, errors.ErrCanceled))
	assert.Equal(t, 1, remote.calls, "closed screens make no calls")
}

func TestManager_SearchIsDebounced(t *testing.T) {
	var mu sync.Mutex
	var commits []string
	var m *collection.Manager[domain.Book]
	m = collection.New(collection.Config[domain.Book]{
		Screen:      "books",
		Remote:      &fakeRemote{recs: []domain.Book{{ID: "1", Title: "Nhà Giả Kim"}, {ID: "2", Title: "Số Đỏ"}}},
		Filter:      bookFilter,
		SearchDelay: 30 * time.Millisecond,
		OnChange: func() {
			mu.Lock()
			defer mu.Unlock()
			commits = append(commits, m.Query().Text)
		},
	})
	defer m.Close()
	require.NoError(t, m.Load(context.Background()))

	m.Search("n")
	m.Search("nh")
	m.Search("NHÀ")
	assert.True(t, m.SearchPending())
	assert.Len(t, m.Visible(), 2, "uncommitted text does not filter")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(commits) == 2
	}, time.Second, 5*time.Millisecond)
	assert.False(t, m.SearchPending())
	assert.Equal(t, "NHÀ", m.Query().Text)
	visible := m.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "Nhà Giả Kim", visible[0].Title)

	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"", "NHÀ"}, commits, "one commit for the load and one for the settled search")
}

func TestManager_CloseDropsPendingSearch(t *testing.T) {
	m := collection.New(collection.Config[domain.Book]{
		Screen:      "books",
		Remote:      &fakeRemote{},
		SearchDelay: 20 * time.Millisecond,
	})

	m.Search("Số")
	m.Close()
	time.Sleep(40 * time.Millisecond)

	assert.Empty(t, m.Query().Text)
	assert.True(t, m.Closed())
}

func TestManager_UIState(t *testing.T) {
	hub := notify.NewHub(nil, 8)
	defer hub.Close()
	sub := hub.Subscribe("books")

	remote := &fakeRemote{recs: []domain.Book{{ID: "1", Title: "Nhà Giả Kim"}}}
	m := newManager(t, remote, hub)
	require.NoError(t, m.Load(context.Background()))

	m.OpenCreate()
	assert.True(t, m.UI().FormVisible)
	assert.Nil(t, m.UI().EditTarget)

	assert.False(t, m.OpenEdit("missing"))
	require.True(t, m.OpenEdit("1"))
	ui := m.UI()
	require.NotNil(t, ui.EditTarget)
	assert.Equal(t, "Nhà Giả Kim", ui.EditTarget.Title)

	ui.EditTarget.Title = "mutating the copy"
	assert.Equal(t, "Nhà Giả Kim", m.UI().EditTarget.Title)

	_, err := m.Update(context.Background(), domain.Book{ID: "1", Title: "Nhà Giả Kim (bìa cứng)"})
	require.NoError(t, err)
	assert.Equal(t, collection.UIState[domain.Book]{}, m.UI(), "success resets the form")

	require.True(t, m.OpenDelete("1"))
	assert.NotNil(t, m.UI().DeleteTarget)
	m.Dismiss()
	assert.Nil(t, m.UI().DeleteTarget)

	m.ShowNotice("create the reader first")
	assert.Equal(t, "create the reader first", m.UI().Notice)

	got := drain(sub)
	require.Len(t, got, 2)
	assert.Equal(t, "Book updated", got[0].Message)
	assert.Equal(t, notify.LevelInfo, got[1].Level)
}

func TestManager_SetStatus(t *testing.T) {
	m := collection.New(collection.Config[domain.Borrow]{
		Screen: "borrows",
		Remote: nil,
		Filter: filter.New(
			func(b domain.Borrow) []string { return []string{b.BookTitle, b.BorrowerName} },
			func(b domain.Borrow) string { return string(b.Status) },
		),
		SearchDelay: -1,
	})
	defer m.Close()

	assert.Equal(t, filter.StatusAll, m.Query().Status)
	m.SetStatus("overdue")
	assert.Equal(t, "overdue", m.Query().Status)
	m.SetStatus("")
	assert.Equal(t, filter.StatusAll, m.Query().Status)
}

// The remaining tests drive the manager through the real gateway against the
// in-memory backend.

func gatewayManager(t *testing.T) (*apitest.Backend, *collection.Manager[domain.Reader], *notify.Subscriber) {
	t.Helper()
	backend := apitest.New().Seed()
	client, err := gateway.New(gateway.Options{BaseURL: backend.Serve(t), RPS: -1})
	require.NoError(t, err)

	hub := notify.NewHub(nil, 16)
	t.Cleanup(hub.Close)
	sub := hub.Subscribe("readers")

	m := collection.New(collection.Config[domain.Reader]{
		Screen:   "readers",
		Remote:   client.Members(),
		Hub:      hub,
		Messages: collection.DefaultMessages("reader"),
		Filter: filter.New(
			func(r domain.Reader) []string { return []string{r.Name, r.Email} },
			nil,
		),
		SearchDelay: -1,
	})
	t.Cleanup(m.Close)
	require.NoError(t, m.Load(context.Background()))
	return backend, m, sub
}

func TestManager_CreateThenListRoundTrip(t *testing.T) {
	backend, m, _ := gatewayManager(t)

	payload := domain.Reader{Name: "Lê Văn Cường", Email: "cuong@example.com", Address: "Huế", Phone: "0901234567"}
	created, err := m.Create(context.Background(), payload)
	require.NoError(t, err)
	require.False(t, created.ID.IsZero())

	// A fresh load sees the record exactly once.
	require.NoError(t, m.Load(context.Background()))
	var matches []domain.Reader
	for _, r := range m.Records() {
		if r.ID == created.ID {
			matches = append(matches, r)
		}
	}
	require.Len(t, matches, 1)

	got := matches[0]
	got.ID = ""
	assert.Equal(t, payload, got)
	assert.Len(t, backend.Readers(), 3)
}

func TestManager_UpdateTwiceIsIdempotent(t *testing.T) {
	_, m, _ := gatewayManager(t)
	ctx := context.Background()

	rec, ok := m.Get("2")
	require.True(t, ok)
	rec.Address = "Hội An"

	_, err := m.Update(ctx, rec)
	require.NoError(t, err)
	once := m.Records()

	_, err = m.Update(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, once, m.Records())
}

func TestManager_DeleteThenDeleteAgain(t *testing.T) {
	_, m, sub := gatewayManager(t)
	ctx := context.Background()

	require.NoError(t, m.Delete(ctx, "1"))
	_, ok := m.Get("1")
	assert.False(t, ok)

	err := m.Delete(ctx, "1")
	require.Error(t, err, "only the gateway rejects the second delete")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	_, ok = m.Get("1")
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())

	got := drain(sub)
	require.Len(t, got, 2)
	assert.Equal(t, "Reader deleted", got[0].Message)
	assert.Equal(t, "Could not delete reader", got[1].Message)
}

func TestManager_EditAfterRemoteDelete(t *testing.T) {
	backend, m, sub := gatewayManager(t)

	require.True(t, m.OpenEdit("1"))
	target := *m.UI().EditTarget
	before := m.Records()

	require.True(t, backend.Remove(apitest.ResourceMembers, "1"))

	target.Name = "Nguyễn Văn An (sửa)"
	_, err := m.Update(context.Background(), target)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	assert.Equal(t, errors.KindTransport, errors.KindOf(err))

	assert.Equal(t, before, m.Records(), "store unchanged")
	assert.True(t, m.UI().FormVisible, "the form stays open for a retry")

	got := drain(sub)
	require.Len(t, got, 1)
	assert.Equal(t, notify.LevelError, got[0].Level)
	assert.Equal(t, "Could not update reader", got[0].Message)
	assert.Contains(t, got[0].Detail, "member not found")
}
