package fakebackend

import (
	"crypto/rand"
	"net/http"
)

type fault struct {
	method    string
	path      string
	status    int
	message   string
	remaining int // negative means forever
}

type faults struct {
	list []*fault
}

func newFaults() *faults {
	return &faults{}
}

// FailNext makes the next request matching method and path answer status.
func (b *Backend) FailNext(method, path string, status int, message string) {
	b.addFault(&fault{method: method, path: path, status: status, message: message, remaining: 1})
}

// FailAlways makes every request matching method and path answer status.
func (b *Backend) FailAlways(method, path string, status int, message string) {
	b.addFault(&fault{method: method, path: path, status: status, message: message, remaining: -1})
}

func (b *Backend) addFault(f *fault) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults.list = append(b.faults.list, f)
}

func (b *Backend) ClearFaults() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.faults.list = nil
}

// ExpireAccessTokens invalidates every access token issued so far by rotating
// the signing secret. Refresh tokens keep working.
func (b *Backend) ExpireAccessTokens() {
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.secret = secret
}

// RevokeRefreshTokens drops every outstanding refresh token.
func (b *Backend) RevokeRefreshTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.refreshTokens)
}

// Calls returns how many requests reached method and path.
func (b *Backend) Calls(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counters[method+" "+path]
}

func (b *Backend) countCalls(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.counters[r.Method+" "+r.URL.Path]++
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f := b.takeFault(r.Method, r.URL.Path); f != nil {
			b.fail(w, f.status, f.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) takeFault(method, path string) *fault {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, f := range b.faults.list {
		if f.method != method || f.path != path {
			continue
		}
		if f.remaining > 0 {
			f.remaining--
			if f.remaining == 0 {
				b.faults.list = append(b.faults.list[:i], b.faults.list[i+1:]...)
			}
		}
		return f
	}
	return nil
}
