package notify

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHub_EmitFillsIDAndTime(t *testing.T) {
	hub := NewHub(nil, 4)
	defer hub.Close()

	sub := hub.Subscribe("")
	n := hub.Success("borrows", "Borrow slip created")

	got := <-sub.C
	assert.Equal(t, n, got)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.At.IsZero())
	assert.Equal(t, LevelSuccess, got.Level)
}

func TestHub_ScreenFiltering(t *testing.T) {
	hub := NewHub(nil, 4)
	defer hub.Close()

	readers := hub.Subscribe("readers")
	all := hub.Subscribe("")

	hub.Info("posts", "Post saved as draft")
	hub.Info("readers", "Reader updated")

	require.Len(t, readers.C, 1)
	assert.Equal(t, "Reader updated", (<-readers.C).Message)
	assert.Len(t, all.C, 2)
}

func TestHub_FailureCarriesDetail(t *testing.T) {
	hub := NewHub(nil, 1)
	defer hub.Close()

	sub := hub.Subscribe("books")
	hub.Failure("books", "Could not delete book", errors.New("404 not found"))

	got := <-sub.C
	assert.Equal(t, LevelError, got.Level)
	assert.Equal(t, "404 not found", got.Detail)
}

func TestHub_SlowSubscriberDrops(t *testing.T) {
	hub := NewHub(nil, 1)
	defer hub.Close()

	sub := hub.Subscribe("")
	hub.Info("books", "first")
	hub.Info("books", "second")

	assert.Equal(t, "first", (<-sub.C).Message)
	assert.Empty(t, sub.C)
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub(nil, 1)
	defer hub.Close()

	sub := hub.Subscribe("")
	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub) // second call is a no-op

	_, ok := <-sub.C
	assert.False(t, ok)

	hub.mu.RLock()
	defer hub.mu.RUnlock()
	assert.Empty(t, hub.subs)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(nil, 1)
	sub := hub.Subscribe("")

	hub.Close()
	hub.Close()

	_, ok := <-sub.C
	assert.False(t, ok)

	// Emitting and subscribing after close must not panic.
	hub.Info("books", "late")
	late := hub.Subscribe("")
	_, ok = <-late.C
	assert.False(t, ok)
}
