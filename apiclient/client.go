package apiclient

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	errs "github.com/jrsteele09/go-tareas-client/internal/errors"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const RequestIDHeader = "X-Request-ID"

// Client sends requests to one backend through the shared auth pipeline.
type Client struct {
	name    string
	baseURL string
	factory *Factory
	logger  zerolog.Logger
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// callState tracks one logical call through the pipeline.
type callState int

const (
	stateSent callState = iota
	stateRefreshing
	stateRetried
	stateDone
)

func (s callState) String() string {
	switch s {
	case stateSent:
		return "sent"
	case stateRefreshing:
		return "refreshing"
	case stateRetried:
		return "retried"
	case stateDone:
		return "done"
	}
	return "unknown"
}

type call struct {
	req     Request
	payload []byte
	id      string
	state   callState
}

// Do sends req. A 401 on the first attempt triggers one token refresh and one
// retry; a 401 on the retry is returned as an *APIError. If the session cannot
// be refreshed it is cleared, subscribers are notified and an *InvalidatedError
// is returned.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	payload, err := req.encode()
	if err != nil {
		return nil, err
	}
	cl := &call{req: req, payload: payload, id: uuid.NewString(), state: stateSent}

	sess, err := c.factory.store.Get(ctx)
	if err != nil {
		return nil, wrapStoreErr(err, "read session")
	}
	token := sess.AccessToken()

	resp, err := c.send(ctx, cl, token)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		cl.state = stateDone
		return finish(resp)
	}

	cl.state = stateRefreshing
	c.logger.Debug().Str("request_id", cl.id).Str("path", req.Path).Msg("unauthorized, refreshing token")
	fresh, err := c.factory.refresh(ctx, token)
	if err != nil {
		cl.state = stateDone
		if isInvalidation(err) {
			return nil, &InvalidatedError{Cause: err, Original: newAPIError(resp)}
		}
		if ctxErr := ctx.Err(); ctxErr != nil && errs.Is(err, ctxErr) {
			return nil, &TransportError{Method: req.Method, URL: c.url(req), Err: err}
		}
		return nil, err
	}

	cl.state = stateRetried
	resp, err = c.send(ctx, cl, fresh)
	if err != nil {
		return nil, err
	}
	cl.state = stateDone
	return finish(resp)
}

func finish(resp *Response) (*Response, error) {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	return nil, newAPIError(resp)
}

func (c *Client) send(ctx context.Context, cl *call, accessToken string) (*Response, error) {
	target := c.url(cl.req)
	if lim := c.factory.limiter; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return nil, &TransportError{Method: cl.req.Method, URL: target, Err: err}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, cl.req.Method, target, bodyReader(cl.payload))
	if err != nil {
		return nil, &TransportError{Method: cl.req.Method, URL: target, Err: err}
	}
	httpReq.Header.Set("Accept", "application/json")
	if cl.payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set(RequestIDHeader, cl.id)
	if accessToken != "" {
		(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}).SetAuthHeader(httpReq)
	}

	start := time.Now()
	httpResp, err := c.factory.httpClient.Do(httpReq)
	if err != nil {
		c.factory.metrics.observeRequest(c.name, cl.req.Method, 0)
		c.logger.Debug().Err(err).Str("request_id", cl.id).Str("url", target).Msg("transport error")
		return nil, &TransportError{Method: cl.req.Method, URL: target, Err: err}
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Method: cl.req.Method, URL: target, Err: err}
	}

	c.factory.metrics.observeRequest(c.name, cl.req.Method, httpResp.StatusCode)
	c.logger.Debug().
		Str("request_id", cl.id).
		Str("method", cl.req.Method).
		Str("url", target).
		Str("state", cl.state.String()).
		Int("status", httpResp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("request complete")

	return &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: body}, nil
}

func (c *Client) url(req Request) string {
	u := strings.TrimRight(c.baseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}
	return u
}
