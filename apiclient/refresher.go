package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// RefreshPath is where the auth backend exchanges a refresh token.
const RefreshPath = "/api/auth/identidad/refresh-token"

// TokenRefresher exchanges a refresh token for a new token pair.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// TokenPair is the "datos" payload of login and refresh responses.
type TokenPair struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    FlexString `json:"expira_en,omitempty"`
}

// FlexString decodes a JSON string or number into its text form.
type FlexString string

func (s *FlexString) UnmarshalJSON(b []byte) error {
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
	default:
		*s = FlexString(b)
	}
	return nil
}

// OAuth2Token converts the pair, resolving the expiry against now.
func (p TokenPair) OAuth2Token(now time.Time) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       ParseExpiry(string(p.ExpiresIn), now),
	}
}

// ParseExpiry reads the backend's "expira_en": an RFC 3339 instant, a Go
// duration ("15m") or a number of seconds. Anything else yields the zero time.
func ParseExpiry(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return now.Add(d)
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return now.Add(time.Duration(secs) * time.Second)
	}
	return time.Time{}
}

// EndpointRefresher calls the refresh endpoint directly, outside the pipeline,
// so a failing refresh can never trigger another refresh.
type EndpointRefresher struct {
	url        string
	httpClient *http.Client
	now        func() time.Time
}

var _ TokenRefresher = (*EndpointRefresher)(nil)

func NewEndpointRefresher(authBaseURL string, httpClient *http.Client) *EndpointRefresher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultRefreshTimeout}
	}
	return &EndpointRefresher{
		url:        strings.TrimRight(authBaseURL, "/") + RefreshPath,
		httpClient: httpClient,
		now:        time.Now,
	}
}

func (r *EndpointRefresher) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	payload, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, errors.Wrap(err, "[EndpointRefresher.Refresh] marshal")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Method: http.MethodPost, URL: r.url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: http.MethodPost, URL: r.url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: http.MethodPost, URL: r.url, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newAPIError(&Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body})
	}

	var env Envelope[TokenPair]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, "[EndpointRefresher.Refresh] decode response")
	}
	if env.Data == nil || env.Data.AccessToken == "" {
		return nil, errors.New("[EndpointRefresher.Refresh] response carries no access token")
	}
	return env.Data.OAuth2Token(r.now()), nil
}
