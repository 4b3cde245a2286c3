package users_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/jrsteele09/go-tareas-client/apiclient"
	"github.com/jrsteele09/go-tareas-client/internal/fakebackend"
	"github.com/jrsteele09/go-tareas-client/internal/testenv"
	"github.com/jrsteele09/go-tareas-client/users"
	"github.com/stretchr/testify/require"
)

const usersPath = "/api/auth/identidad/usuarios"

type testFixture struct {
	env *testenv.Env
	svc *users.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	env := testenv.New(t)
	env.LoginAdmin(t)
	return &testFixture{env: env, svc: users.New(env.Auth)}
}

func TestList(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	t.Run("paginates", func(t *testing.T) {
		env, err := f.svc.List(ctx, users.ListParams{Page: 1, PerPage: 1})
		require.NoError(t, err)
		page := env.Data
		require.Equal(t, 2, page.Total)
		require.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Records, 1)
		require.Equal(t, fakebackend.AdminEmail, page.Records[0].Email)
	})

	t.Run("filters by search", func(t *testing.T) {
		env, err := f.svc.List(ctx, users.ListParams{Search: "operador"})
		require.NoError(t, err)
		require.Len(t, env.Data.Records, 1)
		require.Equal(t, fakebackend.RoleOperator, env.Data.Records[0].RoleCode)
	})
}

func TestCreate(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	t.Run("short password is rejected locally", func(t *testing.T) {
		_, err := f.svc.Create(ctx, users.CreateRequest{FullName: "Ana", Email: "ana@tareas.local", Password: "corta"})
		require.ErrorIs(t, err, users.PasswordTooShortErr)
		require.Zero(t, f.env.Backend.Calls(http.MethodPost, usersPath))
	})

	t.Run("provider accounts need no password", func(t *testing.T) {
		env, err := f.svc.Create(ctx, users.CreateRequest{
			FullName: "Luis", Email: "luis@tareas.local", UnitID: "uni-ti", RoleID: "rol-operador", AuthProvider: "google",
		})
		require.NoError(t, err)
		require.NotEmpty(t, env.Data.ID)
	})

	t.Run("created user can be read back and logs in", func(t *testing.T) {
		env, err := f.svc.Create(ctx, users.CreateRequest{
			FullName: "Ana", Email: "ana@tareas.local", Password: "Segura123", UnitID: "uni-ops", RoleID: "rol-operador",
		})
		require.NoError(t, err)

		got, err := f.svc.Get(ctx, env.Data.ID)
		require.NoError(t, err)
		require.Equal(t, "Operaciones", got.Data.UnitName)

		resp := f.env.Login(t, "ana@tareas.local", "Segura123")
		require.Equal(t, env.Data.ID, resp.User.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f.env.LoginAdmin(t)
		_, err := f.svc.Create(ctx, users.CreateRequest{FullName: "Otra", Email: fakebackend.AdminEmail, Password: "Segura123"})
		require.Equal(t, http.StatusConflict, apiclient.StatusCode(err))
	})
}

func TestUpdateAndDelete(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	name := "Operador Nocturno"
	active := false
	_, err := f.svc.Update(ctx, fakebackend.OperatorID, users.UpdateRequest{FullName: &name, Active: &active})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, fakebackend.OperatorID)
	require.NoError(t, err)
	require.Equal(t, name, got.Data.FullName)

	_, err = f.svc.Delete(ctx, fakebackend.AdminID)
	require.Equal(t, http.StatusConflict, apiclient.StatusCode(err), "cannot delete yourself")

	_, err = f.svc.Delete(ctx, fakebackend.OperatorID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, fakebackend.OperatorID)
	require.Equal(t, http.StatusNotFound, apiclient.StatusCode(err))
}

func TestUnblockAndResetPassword(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.env.Backend.Block(fakebackend.OperatorEmail)

	_, err := f.svc.Unblock(ctx, fakebackend.OperatorID)
	require.NoError(t, err)
	_, err = f.svc.ResetPassword(ctx, fakebackend.OperatorID, "Reiniciada1")
	require.NoError(t, err)

	resp := f.env.Login(t, fakebackend.OperatorEmail, "Reiniciada1")
	require.Equal(t, fakebackend.OperatorID, resp.User.ID)
}

func TestSessionsAndRevoke(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	f.env.LoginOperator(t)
	f.env.LoginAdmin(t)

	env, err := f.svc.Sessions(ctx, fakebackend.OperatorID)
	require.NoError(t, err)
	require.Len(t, *env.Data, 1)
	require.False(t, (*env.Data)[0].Revoked)

	_, err = f.svc.RevokeSessions(ctx, fakebackend.OperatorID)
	require.NoError(t, err)

	env, err = f.svc.Sessions(ctx, fakebackend.OperatorID)
	require.NoError(t, err)
	require.True(t, (*env.Data)[0].Revoked)
}
