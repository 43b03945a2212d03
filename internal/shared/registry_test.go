package shared_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/librarydesk/librarydesk/internal/apitest"
	"github.com/librarydesk/librarydesk/internal/collection"
	"github.com/librarydesk/librarydesk/internal/domain"
	"github.com/librarydesk/librarydesk/internal/errors"
	"github.com/librarydesk/librarydesk/internal/gateway"
	"github.com/librarydesk/librarydesk/internal/shared"
)

func newRegistry(t *testing.T) (*apitest.Backend, *shared.Registry) {
	t.Helper()
	backend := apitest.New().Seed()
	client, err := gateway.New(gateway.Options{BaseURL: backend.Serve(t), RPS: -1})
	require.NoError(t, err)

	reg := shared.New(
		collection.New(collection.Config[domain.Reader]{Screen: "readers", Remote: client.Members()}),
		collection.New(collection.Config[domain.Book]{Screen: "books", Remote: client.Books()}),
		nil,
	)
	t.Cleanup(reg.Close)
	return backend, reg
}

func TestRegistry_Warm(t *testing.T) {
	_, reg := newRegistry(t)

	require.NoError(t, reg.Warm(context.Background()))
	assert.Equal(t, 2, reg.Readers.Len())
	assert.Equal(t, 5, reg.Books.Len())
	assert.Equal(t, collection.StateReady, reg.Readers.State())
	assert.Equal(t, collection.StateReady, reg.Books.State())
}

func TestRegistry_WarmFailure(t *testing.T) {
	backend, reg := newRegistry(t)
	backend.FailNext(503)

	err := reg.Warm(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRemote))
	// One of the two loads failed; the other still completed.
	assert.Equal(t, 1, min(reg.Readers.Len(), 1)+min(reg.Books.Len(), 1))
}

func TestRegistry_LookupReader(t *testing.T) {
	_, reg := newRegistry(t)
	require.NoError(t, reg.Warm(context.Background()))

	tests := []struct {
		name   string
		email  string
		phone  string
		want   string
		wantOK bool
	}{
		{"by phone", "", "0912345678", "Nguyễn Văn An", true},
		{"by email ignoring case", "Binh.Tran@Example.com", "", "Trần Thị Bình", true},
		{"email wins when phone is unknown", "binh.tran@example.com", "0000000000", "Trần Thị Bình", true},
		{"unknown", "nobody@example.com", "0111111111", "", false},
		{"empty inputs", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := reg.LookupReader(tt.email, tt.phone)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestRegistry_LookupReturnsACopy(t *testing.T) {
	_, reg := newRegistry(t)
	require.NoError(t, reg.Warm(context.Background()))

	got, ok := reg.LookupReader("", "0912345678")
	require.True(t, ok)
	got.Name = "changed"

	again, _ := reg.LookupReader("", "0912345678")
	assert.Equal(t, "Nguyễn Văn An", again.Name)
}

func TestRegistry_MutationsThroughOwnerAreVisible(t *testing.T) {
	_, reg := newRegistry(t)
	require.NoError(t, reg.Warm(context.Background()))

	_, err := reg.Readers.Create(context.Background(), domain.Reader{Name: "Phạm Minh Châu", Phone: "0933333333"})
	require.NoError(t, err)

	got, ok := reg.LookupReader("", "0933333333")
	require.True(t, ok)
	assert.Equal(t, "Phạm Minh Châu", got.Name)
}

func TestRegistry_SuggestBooks(t *testing.T) {
	_, reg := newRegistry(t)
	require.NoError(t, reg.Warm(context.Background()))

	got := reg.SuggestBooks("nhà", 0)
	require.Len(t, got, 1)
	assert.Equal(t, "Nhà Giả Kim", got[0].Title)

	assert.Len(t, reg.SuggestBooks("n", 2), 2)
	assert.Empty(t, reg.SuggestBooks("", 0))
	assert.Empty(t, reg.SuggestBooks("không có", 0))
}
