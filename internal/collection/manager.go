package collection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/librarydesk/librarydesk/internal/debounce"
	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/errors"
	"github.com/librarydesk/librarydesk/internal/filter"
	"github.com/librarydesk/librarydesk/internal/logger"
	"github.com/librarydesk/librarydesk/internal/notify"
)

// DefaultSearchDelay is how long search text must settle before it is applied.
const DefaultSearchDelay = 500 * time.Millisecond

// Remote is the gateway a Manager drives. *gateway.Resource satisfies it.
type Remote[T domain.Keyed] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, rec T) (T, error)
	Delete(ctx context.Context, id domain.ID) error
}

// State is the lifecycle state of a screen.
type State int

const (
	// StateIdle means nothing has been loaded yet.
	StateIdle State = iota
	// StateLoading means the full collection is being fetched.
	StateLoading
	// StateReady means the store reflects the last completed call.
	StateReady
	// StateSubmitting means at least one mutation is in flight.
	StateSubmitting
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSubmitting:
		return "submitting"
	default:
		return "idle"
	}
}

// Messages are the notification texts for one screen.
type Messages struct {
	LoadFailed   string
	Created      string
	CreateFailed string
	Updated      string
	UpdateFailed string
	Deleted      string
	DeleteFailed string
}

// DefaultMessages builds messages for a record noun such as "book".
func DefaultMessages(noun string) Messages {
	return Messages{
		LoadFailed:   "Could not load " + noun + "s",
		Created:      capitalize(noun) + " created",
		CreateFailed: "Could not create " + noun,
		Updated:      capitalize(noun) + " updated",
		UpdateFailed: "Could not update " + noun,
		Deleted:      capitalize(noun) + " deleted",
		DeleteFailed: "Could not delete " + noun,
	}
}

// UIState is the transient form state of a screen.
type UIState[T any] struct {
	EditTarget   *T
	DeleteTarget *T
	Notice       string
	FormVisible  bool
}

// Config configures a Manager.
type Config[T domain.Keyed] struct {
	Remote      Remote[T]
	Hub         *notify.Hub
	Logger      *logger.Logger
	Validate    func(T) error // Runs before Create and Update; a failure makes no call
	OnChange    func()        // Called after the store or the committed query changes
	Screen      string
	Messages    Messages
	Filter      filter.Predicate[T]
	SearchDelay time.Duration // Negative disables debouncing
}

// Manager coordinates one screen: it loads the collection, applies
// mutations after the gateway confirms them, and derives the visible rows.
//
// The store only changes after a gateway call succeeds. Concurrent mutations
// are not ordered against each other; whichever response lands last wins.
// Every call runs under the screen's lifetime context, and results that
// arrive after Close are discarded.
type Manager[T domain.Keyed] struct {
	cfg      Config[T]
	store    *Store[T]
	hub      *notify.Hub
	logger   *logger.Logger
	search   *debounce.Debouncer[string]
	lifetime context.Context
	cancel   context.CancelFunc
	onChange func()
	ui       UIState[T]
	query    filter.Query
	inflight int
	mu       sync.Mutex
	loading  bool
	loaded   bool
	closed   bool
}

// New creates a manager in the idle state.
func New[T domain.Keyed](cfg Config[T]) *Manager[T] {
	if cfg.Hub == nil {
		cfg.Hub = notify.NewHub(nil, 0)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.Messages == (Messages{}) {
		cfg.Messages = DefaultMessages("record")
	}

	delay := cfg.SearchDelay
	switch {
	case delay == 0:
		delay = DefaultSearchDelay
	case delay < 0:
		delay = 0
	}

	lifetime, cancel := context.WithCancel(context.Background())
	m := &Manager[T]{
		cfg:      cfg,
		store:    NewStore[T](),
		hub:      cfg.Hub,
		logger:   cfg.Logger.ForScreen(cfg.Screen),
		lifetime: lifetime,
		cancel:   cancel,
		onChange: cfg.OnChange,
		query:    filter.Query{Status: filter.StatusAll},
	}
	m.search = debounce.New(delay, m.commitSearch)
	return m
}

// Screen returns the screen name used in notifications.
func (m *Manager[T]) Screen() string {
	return m.cfg.Screen
}

// State returns the current lifecycle state.
func (m *Manager[T]) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Manager[T]) stateLocked() State {
	switch {
	case m.inflight > 0:
		return StateSubmitting
	case m.loading:
		return StateLoading
	case m.loaded:
		return StateReady
	default:
		return StateIdle
	}
}

// Load fetches the full collection. On failure the store keeps what it had
// (nothing, on the first load), the screen becomes ready, and a failure
// notification is emitted.
func (m *Manager[T]) Load(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errClosed()
	}
	m.loading = true
	m.mu.Unlock()

	callCtx, done := m.callContext(ctx)
	recs, err := m.cfg.Remote.List(callCtx)
	done()

	m.mu.Lock()
	m.loading = false
	if m.closed {
		m.mu.Unlock()
		return errClosed()
	}
	m.loaded = true
	if err == nil {
		m.store.Reset(recs)
	}
	m.mu.Unlock()

	if err != nil {
		m.fail("load", "", m.cfg.Messages.LoadFailed, err)
		return err
	}

	m.logger.Debug("collection loaded", slog.Int("count", len(recs)))
	m.changed()
	return nil
}

// Create submits rec and appends the backend's copy. When the backend does
// not echo an identifier the collection is reloaded so that the new record
// carries the one it assigned.
func (m *Manager[T]) Create(ctx context.Context, rec T) (T, error) {
	if err := m.validate(rec); err != nil {
		return rec, err
	}

	return m.mutate(ctx, "create", rec.Key(), m.cfg.Messages.Created, m.cfg.Messages.CreateFailed,
		func(ctx context.Context) (T, error) { return m.cfg.Remote.Create(ctx, rec) },
		func(got T) bool {
			if got.Key().IsZero() {
				return false
			}
			m.store.Upsert(got)
			return true
		})
}

// Update submits rec and replaces the record with the same identifier.
func (m *Manager[T]) Update(ctx context.Context, rec T) (T, error) {
	if err := m.validate(rec); err != nil {
		return rec, err
	}

	return m.mutate(ctx, "update", rec.Key(), m.cfg.Messages.Updated, m.cfg.Messages.UpdateFailed,
		func(ctx context.Context) (T, error) { return m.cfg.Remote.Update(ctx, rec) },
		func(got T) bool {
			if got.Key().IsZero() {
				got = rec
			}
			m.store.Replace(got)
			return true
		})
}

// Delete removes the record with the given identifier once the backend confirms.
func (m *Manager[T]) Delete(ctx context.Context, id domain.ID) error {
	_, err := m.mutate(ctx, "delete", id, m.cfg.Messages.Deleted, m.cfg.Messages.DeleteFailed,
		func(ctx context.Context) (T, error) {
			var zero T
			return zero, m.cfg.Remote.Delete(ctx, id)
		},
		func(T) bool {
			m.store.Remove(id)
			return true
		})
	return err
}

// Apply runs a server-side transition such as returning a borrowed book.
// The record call returns replaces the one with the same identifier; a zero
// record means the backend did not echo it and the collection is reloaded.
func (m *Manager[T]) Apply(ctx context.Context, op string, id domain.ID, success, failure string, call func(context.Context) (T, error)) (T, error) {
	return m.mutate(ctx, op, id, success, failure, call, func(got T) bool {
		if got.Key().IsZero() {
			return false
		}
		if !m.store.Replace(got) {
			m.store.Append(got)
		}
		return true
	})
}

// mutate runs one gateway call and, if it succeeds while the screen is still
// open, applies its result. apply reports false when the result cannot be
// placed in the store and a reload is needed.
func (m *Manager[T]) mutate(
	ctx context.Context,
	op string,
	id domain.ID,
	success, failure string,
	call func(context.Context) (T, error),
	apply func(T) bool,
) (T, error) {
	var zero T

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return zero, errClosed()
	}
	m.inflight++
	m.mu.Unlock()

	callCtx, done := m.callContext(ctx)
	got, err := call(callCtx)
	done()

	m.mu.Lock()
	m.inflight--
	if m.closed {
		m.mu.Unlock()
		m.logger.Debug("discarding late result", slog.String("op", op), slog.String("id", id.String()))
		return zero, errClosed()
	}
	if err != nil {
		m.mu.Unlock()
		m.fail(op, id, failure, err)
		return zero, err
	}
	placed := apply(got)
	m.ui = UIState[T]{}
	m.mu.Unlock()

	m.logger.Info("mutation applied", slog.String("op", op), slog.String("id", firstKey(got, id).String()))

	if !placed {
		// Load has already reported the failure. A success notice next to it
		// would claim a store state the screen does not have.
		if err := m.Load(ctx); err != nil {
			m.logger.WithError(err).Warn("reload after mutation failed", slog.String("op", op))
			m.changed()
			return got, nil
		}
	}

	m.hub.Success(m.cfg.Screen, success)
	m.changed()
	return got, nil
}

func (m *Manager[T]) validate(rec T) error {
	if m.cfg.Validate == nil {
		return nil
	}
	return m.cfg.Validate(rec)
}

func (m *Manager[T]) fail(op string, id domain.ID, message string, err error) {
	if errors.KindOf(err) == errors.KindCanceled {
		m.logger.Debug("call canceled", slog.String("op", op))
		return
	}
	m.logger.WithError(err).Warn("call failed", slog.String("op", op), slog.String("id", id.String()))
	m.hub.Failure(m.cfg.Screen, message, err)
}

// callContext derives a context for one call that ends when either the caller's
// context or the screen's lifetime ends.
func (m *Manager[T]) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	callCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(m.lifetime, cancel)
	return callCtx, func() {
		stop()
		cancel()
	}
}

// Search schedules text as the new search. It is applied once it has not
// changed for the configured delay.
func (m *Manager[T]) Search(text string) {
	m.search.Trigger(text)
}

// FlushSearch applies any pending search text immediately.
func (m *Manager[T]) FlushSearch() {
	m.search.Flush()
}

// SearchPending reports whether search text is waiting to be applied.
func (m *Manager[T]) SearchPending() bool {
	return m.search.Pending()
}

func (m *Manager[T]) commitSearch(text string) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.query.Text = text
	m.mu.Unlock()
	m.changed()
}

// SetStatus sets the status selector. It applies immediately.
func (m *Manager[T]) SetStatus(status string) {
	m.mu.Lock()
	if status == "" {
		status = filter.StatusAll
	}
	m.query.Status = status
	m.mu.Unlock()
	m.changed()
}

// Query returns the committed search query.
func (m *Manager[T]) Query() filter.Query {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.query
}

// Visible returns the records matching the committed query, in store order.
func (m *Manager[T]) Visible() []T {
	q := m.Query()
	return m.cfg.Filter.Apply(m.store.Snapshot(), q)
}

// Records returns every record in store order.
func (m *Manager[T]) Records() []T {
	return m.store.Snapshot()
}

// Get returns the record with the given identifier.
func (m *Manager[T]) Get(id domain.ID) (T, bool) {
	return m.store.Get(id)
}

// Find returns the first record matching pred.
func (m *Manager[T]) Find(pred func(T) bool) (T, bool) {
	return m.store.Find(pred)
}

// Len returns the number of records in the store.
func (m *Manager[T]) Len() int {
	return m.store.Len()
}

// OpenCreate shows an empty form.
func (m *Manager[T]) OpenCreate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ui = UIState[T]{FormVisible: true}
}

// OpenEdit shows the form for the record with the given identifier. It
// reports false if no such record is loaded.
func (m *Manager[T]) OpenEdit(id domain.ID) bool {
	rec, ok := m.store.Get(id)
	if !ok {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ui = UIState[T]{FormVisible: true, EditTarget: &rec}
	return true
}

// OpenDelete asks for confirmation before deleting the record.
func (m *Manager[T]) OpenDelete(id domain.ID) bool {
	rec, ok := m.store.Get(id)
	if !ok {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ui = UIState[T]{DeleteTarget: &rec}
	return true
}

// ShowNotice displays a blocking informational notice and emits it.
func (m *Manager[T]) ShowNotice(message string) {
	m.mu.Lock()
	m.ui.Notice = message
	m.mu.Unlock()
	m.hub.Info(m.cfg.Screen, message)
}

// Dismiss closes any form, confirmation or notice.
func (m *Manager[T]) Dismiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ui = UIState[T]{}
}

// UI returns a copy of the transient UI state.
func (m *Manager[T]) UI() UIState[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	ui := m.ui
	if ui.EditTarget != nil {
		rec := *ui.EditTarget
		ui.EditTarget = &rec
	}
	if ui.DeleteTarget != nil {
		rec := *ui.DeleteTarget
		ui.DeleteTarget = &rec
	}
	return ui
}

// Close ends the screen: outstanding calls are canceled, pending search text
// is dropped, and results arriving later are ignored. Close is idempotent.
func (m *Manager[T]) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	m.cancel()
	m.search.Stop()
	m.logger.Debug("screen closed")
}

// Closed reports whether Close has been called.
func (m *Manager[T]) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// OnChange replaces the change callback set in Config.
func (m *Manager[T]) OnChange(fn func()) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

func (m *Manager[T]) changed() {
	m.mu.Lock()
	fn := m.onChange
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func errClosed() error {
	return errors.Canceled("screen closed")
}

func firstKey[T domain.Keyed](rec T, fallback domain.ID) domain.ID {
	if k := rec.Key(); !k.IsZero() {
		return k
	}
	return fallback
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}
