package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_DropsBreakersOfDeletedHooks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	reg := NewRegistry()
	gone, err := reg.Register(srv.URL, 0)
	require.NoError(t, err)
	kept, err := reg.Register(srv.URL, 0)
	require.NoError(t, err)

	n := New(reg, slog.New(slog.NewTextHandler(io.Discard, nil)), nil, Options{})
	require.NoError(t, n.Notify(context.Background(), nil))
	require.Len(t, n.breakers, 2)

	require.NoError(t, reg.Delete(gone.ID))
	require.NoError(t, n.Notify(context.Background(), nil))

	assert.Len(t, n.breakers, 1)
	assert.Contains(t, n.breakers, kept.ID)

	require.NoError(t, reg.Delete(kept.ID))
	n.NotifyAsync(nil)
	n.Wait()
	assert.Empty(t, n.breakers)
}
