package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	sessionrepofake "github.com/jrsteele09/go-tareas-client/session/repofake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type failingRefresher struct{}

func (failingRefresher) Refresh(context.Context, string) (*oauth2.Token, error) {
	return nil, http.ErrHandlerTimeout
}

func TestMetrics_CountRequestsAndInvalidations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	store := sessionrepofake.NewFakeSessionRepoWith("A1", "R1")
	f, err := NewFactory(store, failingRefresher{}, WithMetrics(m))
	require.NoError(t, err)
	c := f.NewClient("auth", srv.URL)

	_, err = c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	require.ErrorIs(t, err, ErrSessionInvalidated)

	// Store is now empty so the next call goes out without a header.
	_, err = c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
	require.NoError(t, err)

	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("auth", http.MethodGet, "401")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("auth", http.MethodGet, "204")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.refreshes.WithLabelValues("failed")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.invalidations))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	m.observeRequest("auth", http.MethodGet, 200)
	m.observeRefresh("success")
	m.observeInvalidation()
}

func TestCallState_String(t *testing.T) {
	require.Equal(t, "sent", stateSent.String())
	require.Equal(t, "refreshing", stateRefreshing.String())
	require.Equal(t, "retried", stateRetried.String())
	require.Equal(t, "done", stateDone.String())
}
