// Package testenv wires the client stack against an in-process fake backend
// for package tests.
package testenv

import (
	"context"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-tareas-client/apiclient"
	"github.com/jrsteele09/go-tareas-client/auth"
	"github.com/jrsteele09/go-tareas-client/internal/fakebackend"
	sessionrepofake "github.com/jrsteele09/go-tareas-client/session/repofake"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type Env struct {
	Backend *fakebackend.Backend
	Server  *httptest.Server
	Store   *sessionrepofake.FakeSessionRepo
	Factory *apiclient.Factory
	Auth    *apiclient.Client
	Tareas  *apiclient.Client

	Invalidations atomic.Int32
}

// New starts a fake backend and a factory whose clients point at it. Both
// backends share the one server.
func New(t testing.TB, opts ...fakebackend.Option) *Env {
	t.Helper()

	e := &Env{
		Backend: fakebackend.New(opts...),
		Store:   sessionrepofake.NewFakeSessionRepo(),
	}
	e.Server = e.Backend.Serve()
	t.Cleanup(e.Server.Close)

	factory, err := apiclient.NewFactory(e.Store,
		apiclient.NewEndpointRefresher(e.Server.URL, e.Server.Client()),
		apiclient.WithHTTPClient(e.Server.Client()),
		apiclient.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	factory.OnSessionInvalidated(func(context.Context, apiclient.Invalidation) {
		e.Invalidations.Add(1)
	})

	e.Factory = factory
	e.Auth = factory.NewClient("auth", e.Server.URL)
	e.Tareas = factory.NewClient("tareas", e.Server.URL)
	return e
}

// AuthService returns an auth service bound to the env's store.
func (e *Env) AuthService(t testing.TB) *auth.Service {
	t.Helper()
	svc, err := auth.NewService(e.Auth, e.Store, auth.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return svc
}

// Login signs in and leaves the session in the store.
func (e *Env) Login(t testing.TB, email, password string) *auth.LoginResponse {
	t.Helper()
	env, err := e.AuthService(t).Login(context.Background(), email, password)
	require.NoError(t, err)
	return env.Data
}

func (e *Env) LoginAdmin(t testing.TB) *auth.LoginResponse {
	return e.Login(t, fakebackend.AdminEmail, fakebackend.AdminPassword)
}

func (e *Env) LoginOperator(t testing.TB) *auth.LoginResponse {
	return e.Login(t, fakebackend.OperatorEmail, fakebackend.OperatorPassword)
}
