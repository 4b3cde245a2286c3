package session

import (
	"time"

	"github.com/jrsteele09/go-tareas-client/identity"
	"golang.org/x/oauth2"
)

// Session is the signed-in state of one client instance.
// Token carries the opaque access and refresh tokens plus the expiry the
// backend reported; tokens are bearer credentials and are never parsed.
type Session struct {
	Token   *oauth2.Token         // AccessToken, RefreshToken, Expiry
	Profile *identity.UserProfile // Cached "usuario" from the login response
}

// New builds a Session from the raw login fields.
func New(access, refresh string, expiresAt time.Time, profile *identity.UserProfile) *Session {
	return &Session{
		Token: &oauth2.Token{
			AccessToken:  access,
			RefreshToken: refresh,
			TokenType:    "Bearer",
			Expiry:       expiresAt,
		},
		Profile: profile,
	}
}

func (s *Session) AccessToken() string {
	if s == nil || s.Token == nil {
		return ""
	}
	return s.Token.AccessToken
}

func (s *Session) RefreshToken() string {
	if s == nil || s.Token == nil {
		return ""
	}
	return s.Token.RefreshToken
}

func (s *Session) ExpiresAt() time.Time {
	if s == nil || s.Token == nil {
		return time.Time{}
	}
	return s.Token.Expiry
}

// Empty reports whether there is nothing to authenticate with.
func (s *Session) Empty() bool {
	return s.AccessToken() == "" && s.RefreshToken() == ""
}

// Clone returns a deep copy so callers cannot mutate a store's state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := &Session{}
	if s.Token != nil {
		t := *s.Token
		c.Token = &t
	}
	if s.Profile != nil {
		p := *s.Profile
		p.Permisos = append([]string(nil), s.Profile.Permisos...)
		p.Pantallas = append([]string(nil), s.Profile.Pantallas...)
		p.Reportes = append([]string(nil), s.Profile.Reportes...)
		c.Profile = &p
	}
	return c
}
