package session

import (
	"context"

	errs "github.com/jrsteele09/go-tareas-client/internal/errors"
	"golang.org/x/oauth2"
)

// ErrSessionChanged is returned by SetToken when the stored refresh token is
// no longer the one the new pair was issued for.
var ErrSessionChanged = errs.ErrSessionChanged

// Fixed keys under which persistent stores keep the session fields.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyProfile      = "usuario"
	KeyExpiresAt    = "expira_en"
)

// Store holds at most one session. Implementations must be safe for
// concurrent use; Get returns nil, nil when nothing is stored.
type Store interface {
	// Set replaces the stored session
	Set(ctx context.Context, s *Session) error

	// Get returns a copy of the stored session
	Get(ctx context.Context) (*Session, error)

	// SetToken swaps the token pair in place, keeping the cached profile.
	// The swap only happens while the stored refresh token equals
	// previousRefresh; otherwise it returns ErrSessionChanged.
	SetToken(ctx context.Context, previousRefresh string, token *oauth2.Token) error

	// Clear removes tokens and profile
	Clear(ctx context.Context) error
}
