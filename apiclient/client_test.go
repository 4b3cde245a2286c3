package apiclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-tareas-client/apiclient"
	sessionrepofake "github.com/jrsteele09/go-tareas-client/session/repofake"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	protectedPath = "/api/tareas/estados"
	gatedPath     = "/api/tareas/estados/lento"
	oldAccess     = "A1"
	oldRefresh    = "R1"
	newAccess     = "A2"
	newRefresh    = "R2"
)

type seenRequest struct {
	Authorization string
	RequestID     string
	Body          string
}

// fakeBackend plays both backends: a protected resource and the refresh endpoint.
type fakeBackend struct {
	mu            sync.Mutex
	validToken    string
	refreshStatus int
	refreshDelay  time.Duration
	seen          []seenRequest
	refreshCalls  atomic.Int32
	entered       chan struct{}
	gate          chan struct{}
	server        *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	b := &fakeBackend{
		validToken:    newAccess,
		refreshStatus: http.StatusOK,
		entered:       make(chan struct{}, 1),
		gate:          make(chan struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc(protectedPath, b.protected)
	mux.HandleFunc(gatedPath, b.gated)
	mux.HandleFunc(apiclient.RefreshPath, b.refresh)
	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *fakeBackend) protected(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	auth := r.Header.Get("Authorization")

	b.mu.Lock()
	b.seen = append(b.seen, seenRequest{Authorization: auth, RequestID: r.Header.Get(apiclient.RequestIDHeader), Body: string(body)})
	valid := "Bearer " + b.validToken
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if auth != valid {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"exito":false,"mensaje":"Token inválido","datos":null,"marca_tiempo":"2025-01-01T00:00:00Z"}`))
		return
	}
	_, _ = w.Write([]byte(`{"exito":true,"mensaje":"ok","datos":[{"ID":"1","NOMBRE":"Pendiente"}],"marca_tiempo":"2025-01-01T00:00:00Z"}`))
}

// gated answers like protected, but only once the test opens the gate.
func (b *fakeBackend) gated(w http.ResponseWriter, r *http.Request) {
	b.entered <- struct{}{}
	<-b.gate
	b.protected(w, r)
}

func (b *fakeBackend) refresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)
	if b.refreshDelay > 0 {
		time.Sleep(b.refreshDelay)
	}
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	w.Header().Set("Content-Type", "application/json")
	if b.refreshStatus != http.StatusOK || req.RefreshToken != oldRefresh {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"exito":false,"mensaje":"Refresh token inválido","datos":null,"marca_tiempo":""}`))
		return
	}
	_, _ = w.Write([]byte(`{"exito":true,"mensaje":"ok","datos":{"access_token":"A2","refresh_token":"R2","expira_en":"15m"},"marca_tiempo":""}`))
}

func (b *fakeBackend) requests() []seenRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]seenRequest(nil), b.seen...)
}

type testFixture struct {
	backend      *fakeBackend
	store        *sessionrepofake.FakeSessionRepo
	factory      *apiclient.Factory
	client       *apiclient.Client
	invalidated  atomic.Int32
	lastLoginURL atomic.Value
}

type refresherFunc func(ctx context.Context, refreshToken string) (*oauth2.Token, error)

func (fn refresherFunc) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return fn(ctx, refreshToken)
}

func setupTestFixture(t *testing.T, store *sessionrepofake.FakeSessionRepo) *testFixture {
	t.Helper()
	return setupTestFixtureWith(t, store, nil)
}

// setupTestFixtureWith uses refresher instead of the backend's refresh endpoint when it is not nil.
func setupTestFixtureWith(t *testing.T, store *sessionrepofake.FakeSessionRepo, refresher apiclient.TokenRefresher) *testFixture {
	t.Helper()

	f := &testFixture{backend: newFakeBackend(t), store: store}
	if refresher == nil {
		refresher = apiclient.NewEndpointRefresher(f.backend.server.URL, nil)
	}
	factory, err := apiclient.NewFactory(store, refresher)
	require.NoError(t, err)
	factory.OnSessionInvalidated(func(_ context.Context, inv apiclient.Invalidation) {
		f.invalidated.Add(1)
		f.lastLoginURL.Store(inv.LoginPath)
	})
	f.factory = factory
	f.client = factory.NewClient("tareas", f.backend.server.URL)
	return f
}

func TestNewFactory_RequiresDependencies(t *testing.T) {
	_, err := apiclient.NewFactory(nil, apiclient.NewEndpointRefresher("http://x", nil))
	require.Error(t, err)

	_, err = apiclient.NewFactory(sessionrepofake.NewFakeSessionRepo(), nil)
	require.Error(t, err)
}

func TestDo_AuthorizationHeader(t *testing.T) {
	t.Run("token present", func(t *testing.T) {
		f := setupTestFixture(t, sessionrepofake.NewFakeSessionRepoWith(newAccess, newRefresh))

		env, err := apiclient.Get[[]map[string]string](context.Background(), f.client, protectedPath, nil)
		require.NoError(t, err)
		require.True(t, env.Success)
		require.Len(t, *env.Data, 1)

		seen := f.backend.requests()
		require.Len(t, seen, 1)
		require.Equal(t, "Bearer "+newAccess, seen[0].Authorization)
		require.NotEmpty(t, seen[0].RequestID)
	})

	t.Run("no token sends no header", func(t *testing.T) {
		f := setupTestFixture(t, sessionrepofake.NewFakeSessionRepo())

		_, _ = f.client.Do(context.Background(), apiclient.Request{Method: http.MethodGet, Path: protectedPath})

		seen := f.backend.requests()
		require.NotEmpty(t, seen)
		require.Empty(t, seen[0].Authorization)
	})
}

func TestDo_RefreshesAndRetriesOnce(t *testing.T) {
	f := setupTestFixture(t, sessionrepofake.NewFakeSessionRepoWith(oldAccess, oldRefresh))

	body := map[string]string{"nombre": "En revisión", "color": "#9D833E"}
	resp, err := f.client.Do(context.Background(), apiclient.Request{Method: http.MethodPost, Path: protectedPath, Body: body})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	seen := f.backend.requests()
	require.Len(t, seen, 2)
	require.Equal(t, "Bearer "+oldAccess, seen[0].Authorization)
	require.Equal(t, "Bearer "+newAccess, seen[1].Authorization)
	require.Equal(t, seen[0].RequestID, seen[1].RequestID)
	require.Equal(t, seen[0].Body, seen[1].Body)
	require.JSONEq(t, `{"nombre":"En revisión","color":"#9D833E"}`, seen[1].Body)
	require.EqualValues(t, 1, f.backend.refreshCalls.Load())

	sess, err := f.store.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, newAccess, sess.AccessToken())
	require.Equal(t, newRefresh, sess.RefreshToken())
	require.False(t, sess.ExpiresAt().IsZero())
	require.Zero(t, f.invalidated.Load())
}

func TestDo_SecondUnauthorizedIsReturned(t *testing.T) {
	f := setupTestFixture(t, sessionrepofake.NewFakeSessionRepoWith(oldAccess, oldRefresh))
	f.backend.validToken = "never-issued"

	_, err := f.client.Do(context.Background(), apiclient.Request{Method: http.MethodGet, Path: protectedPath})
	require.Error(t, err)

	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "Token inválido", apiErr.Message())
	require.NotErrorIs(t, err, apiclient.ErrSessionInvalidated)

	require.Len(t, f.backend.requests(), 2)
	require.EqualValues(t, 1, f.backend.refreshCalls.Load())
	require.Zero(t, f.invalidated.Load())
}

func TestDo_NoRefreshTokenInvalidates(t *testing.T) {
	f := setupTestFixture(t, sessionrepofake.NewFakeSessionRepoWith(oldAccess, ""))

	_, err := f.client.Do(context.Background(), apiclient.Request{Method: http.MethodGet, Path: protectedPath})
	require.Error(t, err)
	require.ErrorIs(t, err, apiclient.ErrSessionInvalidated)
	require.ErrorIs(t, err, apiclient.ErrNoRefreshToken)

	var invErr *apiclient.InvalidatedError
	require.ErrorAs(t, err, &invErr)
	require.Equal(t, http.StatusUnauthorized, invErr.Original.StatusCode)

	require.Zero(t, f.backend.refreshCalls.Load())
	require.Len(t, f.backend.requests(), 1)
	require.EqualValues(t, 1, f.invalidated.Load())
	require.Equal(t, apiclient.DefaultLoginPath, f.lastLoginURL.Load())

	sess, err := f.store.Get(context.Background())
	require.NoError(t, err)
	require.Nil(t, sess)
}

func TestDo_RefreshFailureClearsSession(t *testing.T) {
	f := setupTestFixture(t, sessionrepofake.NewFakeSessionRepoWith(oldAccess, oldRefresh))
	f.backend.refreshStatus = http.StatusUnauthorized

	_, err := f.client.Do(context.Background(), apiclient.Request{Method: http.MethodGet, Path: protectedPath})
	require.ErrorIs(t, err, apiclient.ErrSessionInvalidated)
	require.ErrorIs(t, err, apiclient.ErrRefreshFailed)

	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)

	require.EqualValues(t, 1, f.invalidated.Load())
	require.Equal(t, 1, f.store.Clears())
	sess, err := f.store.Get(context.Background())
	require.NoError(t, err)
	require.Nil(t, sess)
}

func TestDo_ConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	f := setupTestFixture(t, sessionrepofake.NewFakeSessionRepoWith(oldAccess, oldRefresh))
	f.backend.refreshDelay = 50 * time.Millisecond

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.client.Do(context.Background(), apiclient.Request{Method: http.MethodGet, Path: protectedPath})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, f.backend.refreshCalls.Load())
	require.Zero(t, f.invalidated.Load())
	require.Equal(t, 1, f.store.TokenUpdates())
}

func TestDo_LateUnauthorizedAfterFailedRefreshNotifiesOnce(t *testing.T) {
	f := setupTestFixture(t, sessionrepofake.NewFakeSessionRepoWith(oldAccess, oldRefresh))
	f.backend.refreshStatus = http.StatusUnauthorized

	lateErr := make(chan error, 1)
	go func() {
		_, err := f.client.Do(context.Background(), apiclient.Request{Method: http.MethodGet, Path: gatedPath})
		lateErr <- err
	}()
	<-f.backend.entered

	_, err := f.client.Do(context.Background(), apiclient.Request{Method: http.MethodGet, Path: protectedPath})
	require.ErrorIs(t, err, apiclient.ErrRefreshFailed)
	close(f.backend.gate)

	err = <-lateErr
	require.ErrorIs(t, err, apiclient.ErrSessionInvalidated)
	var invErr *apiclient.InvalidatedError
	require.ErrorAs(t, err, &invErr)
	require.Equal(t, http.StatusUnauthorized, invErr.Original.StatusCode)

	require.EqualValues(t, 1, f.invalidated.Load())
	require.Equal(t, 1, f.store.Clears())
	require.EqualValues(t, 1, f.backend.refreshCalls.Load())
}

func TestDo_LogoutDuringRefreshStaysLoggedOut(t *testing.T) {
	store := sessionrepofake.NewFakeSessionRepoWith(oldAccess, oldRefresh)
	f := setupTestFixtureWith(t, store, refresherFunc(func(ctx context.Context, _ string) (*oauth2.Token, error) {
		_ = store.Clear(ctx)
		return &oauth2.Token{AccessToken: newAccess, RefreshToken: newRefresh}, nil
	}))

	_, err := f.client.Do(context.Background(), apiclient.Request{Method: http.MethodGet, Path: protectedPath})
	require.ErrorIs(t, err, apiclient.ErrSessionInvalidated)
	require.ErrorIs(t, err, apiclient.ErrSessionChanged)

	sess, err := store.Get(context.Background())
	require.NoError(t, err)
	require.True(t, sess.Empty())
	require.Zero(t, store.TokenUpdates())
	require.Zero(t, f.invalidated.Load())
	require.Len(t, f.backend.requests(), 1)
}

func TestDo_RefresherWithoutTokenInvalidates(t *testing.T) {
	f := setupTestFixtureWith(t, sessionrepofake.NewFakeSessionRepoWith(oldAccess, oldRefresh), refresherFunc(func(context.Context, string) (*oauth2.Token, error) {
		return nil, nil
	}))

	_, err := f.client.Do(context.Background(), apiclient.Request{Method: http.MethodGet, Path: protectedPath})
	require.ErrorIs(t, err, apiclient.ErrSessionInvalidated)
	require.ErrorIs(t, err, apiclient.ErrRefreshFailed)
	require.EqualValues(t, 1, f.invalidated.Load())
	require.Equal(t, 1, f.store.Clears())
}

func TestDo_CancelWhileWaitingForRefresh(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	f := setupTestFixtureWith(t, sessionrepofake.NewFakeSessionRepoWith(oldAccess, oldRefresh), refresherFunc(func(context.Context, string) (*oauth2.Token, error) {
		<-release
		return &oauth2.Token{AccessToken: newAccess, RefreshToken: newRefresh}, nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := f.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: protectedPath})

	var tErr *apiclient.TransportError
	require.ErrorAs(t, err, &tErr)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, http.MethodGet, tErr.Method)
	require.Equal(t, "Error de conexión", apiclient.Message(err, "Error de conexión"))
	require.Zero(t, f.invalidated.Load())
}

func TestDo_TransportErrorIsNotRetried(t *testing.T) {
	f := setupTestFixture(t, sessionrepofake.NewFakeSessionRepoWith(oldAccess, oldRefresh))
	client := f.factory.NewClient("broken", "http://127.0.0.1:1")

	_, err := client.Do(context.Background(), apiclient.Request{Method: http.MethodGet, Path: protectedPath})
	var tErr *apiclient.TransportError
	require.ErrorAs(t, err, &tErr)
	require.Zero(t, f.backend.refreshCalls.Load())
	require.Zero(t, f.invalidated.Load())
}

func TestDo_BusinessErrorCarriesEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"exito":false,"mensaje":"El título es obligatorio","datos":null,"errores":["titulo"],"marca_tiempo":""}`))
	}))
	t.Cleanup(srv.Close)

	factory, err := apiclient.NewFactory(sessionrepofake.NewFakeSessionRepoWith(newAccess, newRefresh), apiclient.NewEndpointRefresher(srv.URL, nil))
	require.NoError(t, err)

	_, err = apiclient.Post[apiclient.IDResult](context.Background(), factory.NewClient("tareas", srv.URL), "/api/tareas/dashboard/tareas", map[string]string{})
	require.Error(t, err)
	require.Equal(t, http.StatusUnprocessableEntity, apiclient.StatusCode(err))
	require.Equal(t, "El título es obligatorio", apiclient.Message(err, "Error al crear tarea"))

	var apiErr *apiclient.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, []string{"titulo"}, apiErr.FieldErrors())
}

func TestMessage_Fallback(t *testing.T) {
	require.Equal(t, "Error de conexión", apiclient.Message(&apiclient.TransportError{Err: io.EOF}, "Error de conexión"))
	require.Equal(t, "fallback", apiclient.Message(&apiclient.APIError{StatusCode: 500, Body: []byte("boom")}, "fallback"))
}

func TestOnSessionInvalidated_Unsubscribe(t *testing.T) {
	f := setupTestFixture(t, sessionrepofake.NewFakeSessionRepoWith(oldAccess, ""))

	var extra atomic.Int32
	unsubscribe := f.factory.OnSessionInvalidated(func(context.Context, apiclient.Invalidation) {
		extra.Add(1)
	})
	unsubscribe()

	_, err := f.client.Do(context.Background(), apiclient.Request{Method: http.MethodGet, Path: protectedPath})
	require.ErrorIs(t, err, apiclient.ErrSessionInvalidated)
	require.EqualValues(t, 1, f.invalidated.Load())
	require.Zero(t, extra.Load())
}

func TestParseExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	require.Equal(t, now.Add(15*time.Minute), apiclient.ParseExpiry("15m", now))
	require.Equal(t, now.Add(900*time.Second), apiclient.ParseExpiry("900", now))
	require.Equal(t, time.Date(2025, 3, 1, 13, 0, 0, 0, time.UTC), apiclient.ParseExpiry("2025-03-01T13:00:00Z", now))
	require.True(t, apiclient.ParseExpiry("", now).IsZero())
	require.True(t, apiclient.ParseExpiry("mañana", now).IsZero())
}

func TestJoin(t *testing.T) {
	require.Equal(t, "/api/auth/unidades/a%2Fb/editar", apiclient.Join("/api/auth/unidades/", "a/b", "editar"))
}
