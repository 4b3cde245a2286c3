package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Request describes one logical call. It lives only for the duration of Do.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// encode marshals the body once so that the retry sends identical bytes.
func (r Request) encode() ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	if raw, ok := r.Body.(json.RawMessage); ok {
		return raw, nil
	}
	payload, err := json.Marshal(r.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "[Request.encode] %s %s", r.Method, r.Path)
	}
	return payload, nil
}

func bodyReader(payload []byte) io.Reader {
	if payload == nil {
		return http.NoBody
	}
	return bytes.NewReader(payload)
}

// Join builds a request path from a base path and escaped segments.
func Join(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// Call runs req and decodes the envelope. Non-2xx statuses come back as errors,
// so a returned envelope always belongs to a successful response.
func Call[T any](ctx context.Context, c *Client, req Request) (*Envelope[T], error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	env := &Envelope[T]{}
	if len(bytes.TrimSpace(resp.Body)) == 0 {
		env.Success = true
		return env, nil
	}
	if err := json.Unmarshal(resp.Body, env); err != nil {
		return nil, errors.Wrapf(err, "[Call] decode %s %s", req.Method, req.Path)
	}
	return env, nil
}

func Get[T any](ctx context.Context, c *Client, path string, query url.Values) (*Envelope[T], error) {
	return Call[T](ctx, c, Request{Method: http.MethodGet, Path: path, Query: query})
}

func Post[T any](ctx context.Context, c *Client, path string, body any) (*Envelope[T], error) {
	return Call[T](ctx, c, Request{Method: http.MethodPost, Path: path, Body: body})
}

func Put[T any](ctx context.Context, c *Client, path string, body any) (*Envelope[T], error) {
	return Call[T](ctx, c, Request{Method: http.MethodPut, Path: path, Body: body})
}

func Delete[T any](ctx context.Context, c *Client, path string) (*Envelope[T], error) {
	return Call[T](ctx, c, Request{Method: http.MethodDelete, Path: path})
}

// Query is a small builder that skips empty values, the way the backends
// expect optional filters to be omitted rather than sent blank.
type Query url.Values

func (q Query) Set(key, value string) Query {
	if value != "" {
		url.Values(q).Set(key, value)
	}
	return q
}

func (q Query) SetInt(key string, value int) Query {
	if value > 0 {
		url.Values(q).Set(key, strconv.Itoa(value))
	}
	return q
}

func (q Query) Values() url.Values {
	if len(q) == 0 {
		return nil
	}
	return url.Values(q)
}
