package sessionrepofake

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-tareas-client/session"
	"golang.org/x/oauth2"
)

var _ session.Store = (*FakeSessionRepo)(nil)

// FakeSessionRepo is an in-memory session store that also counts calls.
type FakeSessionRepo struct {
	current *session.Session
	lock    sync.RWMutex

	sets    int
	clears  int
	refresh int
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{}
}

// NewFakeSessionRepoWith seeds the store with the given tokens.
func NewFakeSessionRepoWith(access, refresh string) *FakeSessionRepo {
	return &FakeSessionRepo{
		current: session.New(access, refresh, time.Time{}, nil),
	}
}

func (sr *FakeSessionRepo) Set(_ context.Context, s *session.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	sr.sets++
	sr.current = s.Clone()
	return nil
}

func (sr *FakeSessionRepo) Get(_ context.Context) (*session.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()

	return sr.current.Clone(), nil
}

func (sr *FakeSessionRepo) SetToken(_ context.Context, previousRefresh string, token *oauth2.Token) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	if sr.current.Empty() || sr.current.RefreshToken() != previousRefresh {
		return session.ErrSessionChanged
	}
	sr.refresh++
	t := *token
	sr.current.Token = &t
	return nil
}

func (sr *FakeSessionRepo) Clear(_ context.Context) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()

	sr.clears++
	sr.current = nil
	return nil
}

// Clears returns how many times Clear was called.
func (sr *FakeSessionRepo) Clears() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return sr.clears
}

// TokenUpdates returns how many times SetToken was called.
func (sr *FakeSessionRepo) TokenUpdates() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return sr.refresh
}

// Sets returns how many times Set was called.
func (sr *FakeSessionRepo) Sets() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return sr.sets
}
