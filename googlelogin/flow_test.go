package googlelogin_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-tareas-client/googlelogin"
	errs "github.com/jrsteele09/go-tareas-client/internal/errors"
	"github.com/jrsteele09/go-tareas-client/internal/fakebackend"
	"github.com/jrsteele09/go-tareas-client/internal/testenv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	clientID = "tareas-web"
	keyID    = "test-key"
)

// fakeProvider is a minimal OIDC provider: discovery, JWKS and a token
// endpoint that checks the PKCE verifier against the challenge it was given.
type fakeProvider struct {
	t      *testing.T
	key    *rsa.PrivateKey
	server *httptest.Server

	mu        sync.Mutex
	challenge string
	nonce     string
	email     string
	onIssue   func(rawIDToken, email string)
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	p := &fakeProvider{t: t, key: key, email: fakebackend.OperatorEmail}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", p.discovery)
	mux.HandleFunc("/jwks", p.jwks)
	mux.HandleFunc("/token", p.token)
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) discovery(w http.ResponseWriter, _ *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"issuer":                                p.server.URL,
		"authorization_endpoint":                p.server.URL + "/authorize",
		"token_endpoint":                        p.server.URL + "/token",
		"jwks_uri":                              p.server.URL + "/jwks",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

func (p *fakeProvider) jwks(w http.ResponseWriter, _ *http.Request) {
	pub := p.key.PublicKey
	_ = json.NewEncoder(w).Encode(map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"alg": "RS256",
			"use": "sig",
			"kid": keyID,
			"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
		}},
	})
}

// authorize plays the user consenting: it records what the client sent.
func (p *fakeProvider) authorize(authURL string) (state string) {
	u, err := url.Parse(authURL)
	require.NoError(p.t, err)
	q := u.Query()
	require.Equal(p.t, "S256", q.Get("code_challenge_method"))

	p.mu.Lock()
	defer p.mu.Unlock()
	p.challenge = q.Get("code_challenge")
	p.nonce = q.Get("nonce")
	return q.Get("state")
}

func (p *fakeProvider) token(w http.ResponseWriter, r *http.Request) {
	require.NoError(p.t, r.ParseForm())

	p.mu.Lock()
	challenge, nonce, email := p.challenge, p.nonce, p.email
	p.mu.Unlock()

	sum := sha256.Sum256([]byte(r.PostForm.Get("code_verifier")))
	if r.PostForm.Get("code") != "good-code" || base64.RawURLEncoding.EncodeToString(sum[:]) != challenge {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
		return
	}

	now := time.Now()
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodRS256, jwtlib.MapClaims{
		"iss":   p.server.URL,
		"aud":   clientID,
		"sub":   "google-123",
		"email": email,
		"nonce": nonce,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	})
	tok.Header["kid"] = keyID
	raw, err := tok.SignedString(p.key)
	require.NoError(p.t, err)
	if p.onIssue != nil {
		p.onIssue(raw, email)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"access_token": "google-access",
		"token_type":   "Bearer",
		"expires_in":   3600,
		"id_token":     raw,
	})
}

type testFixture struct {
	env      *testenv.Env
	provider *fakeProvider
	flow     *googlelogin.Flow
	now      time.Time
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{env: testenv.New(t), provider: newFakeProvider(t), now: time.Now()}
	f.provider.onIssue = f.env.Backend.RegisterGoogleToken

	flow, err := googlelogin.New(context.Background(), googlelogin.Config{
		Issuer:      f.provider.server.URL,
		ClientID:    clientID,
		RedirectURL: "http://localhost:8085/callback",
	}, f.env.AuthService(t),
		googlelogin.WithNowTime(func() time.Time { return f.now }),
		googlelogin.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	f.flow = flow
	return f
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := googlelogin.New(context.Background(), googlelogin.Config{ClientID: clientID}, nil)
	require.Error(t, err)
}

func TestFlow_SignsIn(t *testing.T) {
	f := setupTestFixture(t)

	authURL, err := f.flow.Begin("/dashboard")
	require.NoError(t, err)
	state := f.provider.authorize(authURL)

	res, err := f.flow.Complete(context.Background(), state, "good-code")
	require.NoError(t, err)
	require.Equal(t, "/dashboard", res.ReturnURL)
	require.Equal(t, fakebackend.OperatorID, res.Login.User.ID)

	sess, err := f.env.Store.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, res.Login.AccessToken, sess.AccessToken())

	_, err = f.flow.Complete(context.Background(), state, "good-code")
	require.ErrorIs(t, err, googlelogin.StateNotFoundErr, "a state completes once")
}

func TestFlow_Failures(t *testing.T) {
	t.Run("unknown state", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.flow.Complete(context.Background(), "nope", "good-code")
		require.ErrorIs(t, err, errs.ErrNotFound)
	})

	t.Run("missing code", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.flow.Complete(context.Background(), "state", "")
		require.ErrorIs(t, err, googlelogin.MissingCodeErr)
	})

	t.Run("expired state", func(t *testing.T) {
		f := setupTestFixture(t)
		authURL, err := f.flow.Begin("/")
		require.NoError(t, err)
		state := f.provider.authorize(authURL)

		f.now = f.now.Add(googlelogin.DefaultStateTTL + time.Second)
		_, err = f.flow.Complete(context.Background(), state, "good-code")
		require.ErrorIs(t, err, googlelogin.StateExpiredErr)
	})

	t.Run("bad code", func(t *testing.T) {
		f := setupTestFixture(t)
		authURL, err := f.flow.Begin("/")
		require.NoError(t, err)
		state := f.provider.authorize(authURL)

		_, err = f.flow.Complete(context.Background(), state, "bad-code")
		require.ErrorContains(t, err, "token exchange failed")
	})

	t.Run("nonce mismatch", func(t *testing.T) {
		f := setupTestFixture(t)
		authURL, err := f.flow.Begin("/")
		require.NoError(t, err)
		state := f.provider.authorize(authURL)
		f.provider.nonce = "someone-elses"

		_, err = f.flow.Complete(context.Background(), state, "good-code")
		require.ErrorIs(t, err, googlelogin.NonceMismatchErr)
	})

	t.Run("account unknown to the backend", func(t *testing.T) {
		f := setupTestFixture(t)
		f.provider.onIssue = nil
		authURL, err := f.flow.Begin("/")
		require.NoError(t, err)
		state := f.provider.authorize(authURL)

		_, err = f.flow.Complete(context.Background(), state, "good-code")
		require.Error(t, err)
	})
}

func TestInMemoryStateRepo_Purge(t *testing.T) {
	repo := googlelogin.NewInMemoryStateRepo()
	now := time.Now()
	require.NoError(t, repo.Upsert("old", &googlelogin.FlowState{CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, repo.Upsert("new", &googlelogin.FlowState{CreatedAt: now}))
	require.Error(t, repo.Upsert("", &googlelogin.FlowState{}))

	require.Equal(t, 1, repo.Purge(now.Add(-time.Minute)))
	_, err := repo.Get("old")
	require.ErrorIs(t, err, googlelogin.StateNotFoundErr)
	_, err = repo.Get("new")
	require.NoError(t, err)
}
