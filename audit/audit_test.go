package audit_test

import (
	"context"
	"testing"

	"github.com/jrsteele09/go-tareas-client/audit"
	"github.com/jrsteele09/go-tareas-client/internal/fakebackend"
	"github.com/jrsteele09/go-tareas-client/internal/testenv"
	"github.com/stretchr/testify/require"
)

func TestList(t *testing.T) {
	env := testenv.New(t)
	_, err := env.AuthService(t).Login(context.Background(), fakebackend.OperatorEmail, "Incorrecta1")
	require.Error(t, err)
	env.LoginAdmin(t)
	svc := audit.New(env.Auth)

	t.Run("newest first", func(t *testing.T) {
		page, err := svc.List(context.Background(), audit.ListParams{})
		require.NoError(t, err)
		require.Equal(t, 2, page.Data.Total)
		require.Equal(t, "EXITOSO", page.Data.Records[0].Result)
		require.Equal(t, "FALLIDO", page.Data.Records[1].Result)
	})

	t.Run("filters by user", func(t *testing.T) {
		page, err := svc.List(context.Background(), audit.ListParams{UserID: fakebackend.AdminID, Action: "LOGIN"})
		require.NoError(t, err)
		require.Len(t, page.Data.Records, 1)
		require.Equal(t, fakebackend.AdminID, *page.Data.Records[0].UserID)
	})

	t.Run("date range excludes everything", func(t *testing.T) {
		page, err := svc.List(context.Background(), audit.ListParams{DateTo: "2000-01-01"})
		require.NoError(t, err)
		require.Empty(t, page.Data.Records)
	})
}
