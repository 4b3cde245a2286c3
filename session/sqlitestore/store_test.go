package sqlitestore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/go-tareas-client/identity"
	"github.com/jrsteele09/go-tareas-client/session"
	"github.com/jrsteele09/go-tareas-client/session/sqlitestore"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func openStore(t *testing.T, path string) *sqlitestore.Store {
	t.Helper()
	s, err := sqlitestore.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_EmptyGet(t *testing.T) {
	s := openStore(t, filepath.Join(t.TempDir(), "session.db"))

	got, err := s.Get(context.Background())
	require.NoError(t, err)
	require.Nil(t, got)
	require.Empty(t, got.AccessToken())
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	expiry := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

	s := openStore(t, path)
	require.NoError(t, s.Set(ctx, session.New("A1", "R1", expiry, &identity.UserProfile{
		ID:       "u-1",
		FullName: "Ana Pérez",
		Permisos: []string{"TAREAS_EDITAR"},
	})))
	require.NoError(t, s.Close())

	reopened := openStore(t, path)
	got, err := reopened.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "A1", got.AccessToken())
	require.Equal(t, "R1", got.RefreshToken())
	require.True(t, expiry.Equal(got.ExpiresAt()))
	require.Equal(t, "Ana Pérez", got.Profile.FullName)
	require.True(t, got.Profile.HasPermission("TAREAS_EDITAR"))
}

func TestStore_SetTokenKeepsProfile(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "session.db"))

	require.NoError(t, s.Set(ctx, session.New("A1", "R1", time.Time{}, &identity.UserProfile{ID: "u-1"})))
	require.NoError(t, s.SetToken(ctx, "R1", &oauth2.Token{AccessToken: "A2", RefreshToken: "R2"}))

	got, err := s.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "A2", got.AccessToken())
	require.Equal(t, "R2", got.RefreshToken())
	require.Equal(t, "u-1", got.Profile.ID)
}

func TestStore_SetTokenRequiresCurrentRefreshToken(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "session.db"))
	pair := &oauth2.Token{AccessToken: "A2", RefreshToken: "R2"}

	t.Run("empty store is not resurrected", func(t *testing.T) {
		require.ErrorIs(t, s.SetToken(ctx, "R1", pair), session.ErrSessionChanged)
		got, err := s.Get(ctx)
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("rotated refresh token is kept", func(t *testing.T) {
		require.NoError(t, s.Set(ctx, session.New("A3", "R3", time.Time{}, &identity.UserProfile{ID: "u-1"})))
		require.ErrorIs(t, s.SetToken(ctx, "R1", pair), session.ErrSessionChanged)
		got, err := s.Get(ctx)
		require.NoError(t, err)
		require.Equal(t, "A3", got.AccessToken())
		require.Equal(t, "R3", got.RefreshToken())
	})
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, filepath.Join(t.TempDir(), "session.db"))

	require.NoError(t, s.Set(ctx, session.New("A1", "R1", time.Time{}, &identity.UserProfile{ID: "u-1"})))
	require.NoError(t, s.Clear(ctx))

	got, err := s.Get(ctx)
	require.NoError(t, err)
	require.Nil(t, got)
}
