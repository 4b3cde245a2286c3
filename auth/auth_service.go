// Package auth talks to the identity endpoints of the auth backend and keeps
// the local session in step with logins and logouts.
package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/go-tareas-client/apiclient"
	"github.com/jrsteele09/go-tareas-client/identity"
	errs "github.com/jrsteele09/go-tareas-client/internal/errors"
	"github.com/jrsteele09/go-tareas-client/session"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const basePath = "/api/auth/identidad"

type Service struct {
	client  *apiclient.Client
	store   session.Store
	logger  zerolog.Logger
	nowTime func() time.Time
}

type Option func(*Service)

// WithNowTime sets the clock used to resolve token expiry (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService needs the auth backend client and the store the pipeline reads from.
func NewService(client *apiclient.Client, store session.Store, options ...Option) (*Service, error) {
	if client == nil {
		return nil, errors.New("[NewService] auth client is required")
	}
	if store == nil {
		return nil, errors.New("[NewService] session store is required")
	}
	s := &Service{
		client:  client,
		store:   store,
		logger:  log.Logger,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login signs in with email and password and persists the returned session.
func (s *Service) Login(ctx context.Context, email, password string) (*apiclient.Envelope[LoginResponse], error) {
	if err := ValidateCredentials(email, password); err != nil {
		return nil, err
	}
	env, err := apiclient.Post[LoginResponse](ctx, s.client, basePath+"/login", LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, env); err != nil {
		return nil, err
	}
	return env, nil
}

// LoginGoogle exchanges a Google ID token for a session and persists it.
func (s *Service) LoginGoogle(ctx context.Context, idToken string) (*apiclient.Envelope[LoginResponse], error) {
	if idToken == "" {
		return nil, IDTokenRequiredErr
	}
	env, err := apiclient.Post[LoginResponse](ctx, s.client, basePath+"/login-google", GoogleLoginRequest{IDToken: idToken})
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, env); err != nil {
		return nil, err
	}
	return env, nil
}

func (s *Service) persist(ctx context.Context, env *apiclient.Envelope[LoginResponse]) error {
	if env.Data == nil || env.Data.AccessToken == "" {
		return EmptyLoginResponseErr
	}
	token := env.Data.OAuth2Token(s.nowTime())
	profile := env.Data.User
	if err := s.store.Set(ctx, session.New(token.AccessToken, token.RefreshToken, token.Expiry, &profile)); err != nil {
		return errors.Wrap(err, "[Service.persist] unable to store session")
	}
	s.logger.Info().Str("user", profile.Email).Str("role", profile.RoleCode).Msg("signed in")
	return nil
}

// RefreshToken calls the refresh endpoint through the pipeline. It does not
// touch the store; the pipeline's own refresh does that.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*apiclient.Envelope[LoginResponse], error) {
	return apiclient.Post[LoginResponse](ctx, s.client, basePath+"/refresh-token", map[string]string{"refresh_token": refreshToken})
}

// Logout tells the backend and clears the local session. A failed server call
// is logged and otherwise ignored; the local session is always cleared.
func (s *Service) Logout(ctx context.Context) error {
	if _, err := apiclient.Post[apiclient.Nothing](ctx, s.client, basePath+"/logout", nil); err != nil {
		s.logger.Warn().Err(err).Msg("server logout failed, clearing local session anyway")
	}
	if err := s.store.Clear(ctx); err != nil {
		return errors.Wrap(err, "[Service.Logout] unable to clear session")
	}
	return nil
}

func (s *Service) Profile(ctx context.Context) (*apiclient.Envelope[identity.UserProfile], error) {
	return apiclient.Get[identity.UserProfile](ctx, s.client, basePath+"/perfil", nil)
}

// CurrentUser returns the profile stored at login without calling the backend.
func (s *Service) CurrentUser(ctx context.Context) (*identity.UserProfile, error) {
	sess, err := s.store.Get(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.CurrentUser] unable to read session")
	}
	if sess.Empty() || sess.Profile == nil {
		return nil, errs.ErrNotLoggedIn
	}
	return sess.Profile, nil
}

// ChangePassword validates the new password locally before sending it.
func (s *Service) ChangePassword(ctx context.Context, current, newPassword, confirm string) (*apiclient.Envelope[apiclient.Nothing], error) {
	if err := ValidatePasswordChange(newPassword, confirm); err != nil {
		return nil, err
	}
	return apiclient.Post[apiclient.Nothing](ctx, s.client, basePath+"/cambiar-contrasena", ChangePasswordRequest{Current: current, New: newPassword})
}

func (s *Service) MySessions(ctx context.Context) (*apiclient.Envelope[[]ActiveSession], error) {
	return apiclient.Get[[]ActiveSession](ctx, s.client, basePath+"/sesiones", nil)
}

func (s *Service) RevokeSession(ctx context.Context, id string) (*apiclient.Envelope[apiclient.Nothing], error) {
	return apiclient.Post[apiclient.Nothing](ctx, s.client, apiclient.Join(basePath+"/sesiones", id, "revocar"), nil)
}

func (s *Service) RevokeAllSessions(ctx context.Context) (*apiclient.Envelope[apiclient.Nothing], error) {
	return apiclient.Post[apiclient.Nothing](ctx, s.client, basePath+"/sesiones/revocar-todas", nil)
}
