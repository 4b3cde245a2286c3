// Package googlelogin runs the Google sign-in flow (authorization code with
// PKCE) and hands the verified ID token to the auth backend.
package googlelogin

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-tareas-client/apiclient"
	"github.com/jrsteele09/go-tareas-client/auth"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	GoogleIssuer    = "https://accounts.google.com"
	DefaultStateTTL = 10 * time.Minute
)

type Config struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// Loginer exchanges a verified Google ID token for a backend session.
// *auth.Service satisfies it.
type Loginer interface {
	LoginGoogle(ctx context.Context, idToken string) (*apiclient.Envelope[auth.LoginResponse], error)
}

type Flow struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
	loginer  Loginer
	states   StateRepo
	stateTTL time.Duration
	nowTime  func() time.Time
	logger   zerolog.Logger
}

type Option func(*Flow)

// WithNowTime sets the clock used for state expiry (primarily for testing).
func WithNowTime(nowFunc func() time.Time) Option {
	return func(f *Flow) {
		f.nowTime = nowFunc
	}
}

func WithStateRepo(r StateRepo) Option {
	return func(f *Flow) {
		f.states = r
	}
}

func WithStateTTL(d time.Duration) Option {
	return func(f *Flow) {
		f.stateTTL = d
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(f *Flow) {
		f.logger = l
	}
}

// New discovers the provider at cfg.Issuer (Google when empty).
func New(ctx context.Context, cfg Config, loginer Loginer, options ...Option) (*Flow, error) {
	if loginer == nil {
		return nil, errors.New("[googlelogin.New] loginer is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("[googlelogin.New] client id is required")
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = GoogleIssuer
	}
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, errors.Wrap(err, "[googlelogin.New] failed to create OIDC provider")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}
	f := &Flow{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		loginer:  loginer,
		states:   NewInMemoryStateRepo(),
		stateTTL: DefaultStateTTL,
		nowTime:  time.Now,
		logger:   log.Logger,
	}
	for _, opt := range options {
		opt(f)
	}
	return f, nil
}

// Begin records a new flow and returns the URL to send the user to.
func (f *Flow) Begin(returnURL string) (string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", err
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", err
	}
	verifier := oauth2.GenerateVerifier()

	if err := f.states.Upsert(state, &FlowState{
		CodeVerifier: verifier,
		Nonce:        nonce,
		ReturnURL:    returnURL,
		CreatedAt:    f.nowTime(),
	}); err != nil {
		return "", errors.Wrap(err, "[Flow.Begin] unable to store state")
	}

	return f.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier), oidc.Nonce(nonce)), nil
}

type Result struct {
	Login     *auth.LoginResponse
	ReturnURL string
}

// Complete handles the provider's redirect: it exchanges code, verifies the
// ID token and its nonce, then signs in to the backend with the raw token.
// A state can be completed once.
func (f *Flow) Complete(ctx context.Context, state, code string) (*Result, error) {
	if state == "" || code == "" {
		return nil, MissingCodeErr
	}
	fs, err := f.states.Get(state)
	if err != nil {
		return nil, err
	}
	if err := f.states.Delete(state); err != nil {
		return nil, errors.Wrap(err, "[Flow.Complete] unable to delete state")
	}
	if f.nowTime().Sub(fs.CreatedAt) > f.stateTTL {
		return nil, StateExpiredErr
	}

	token, err := f.oauth.Exchange(ctx, code, oauth2.VerifierOption(fs.CodeVerifier))
	if err != nil {
		return nil, errors.Wrap(err, "[Flow.Complete] token exchange failed")
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, NoIDTokenErr
	}

	idToken, err := f.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, errors.Wrap(err, "[Flow.Complete] id token verification failed")
	}
	if idToken.Nonce != fs.Nonce {
		return nil, NonceMismatchErr
	}

	env, err := f.loginer.LoginGoogle(ctx, rawIDToken)
	if err != nil {
		return nil, err
	}
	f.logger.Info().Str("subject", idToken.Subject).Msg("google sign-in complete")
	return &Result{Login: env.Data, ReturnURL: fs.ReturnURL}, nil
}

func randomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "failed to generate random bytes")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
