package googlelogin

import (
	"errors"
	"sync"
	"time"
)

// FlowState is what Begin remembers until the provider redirects back.
type FlowState struct {
	CodeVerifier string
	Nonce        string
	ReturnURL    string
	CreatedAt    time.Time
}

type StateRepo interface {
	Upsert(state string, fs *FlowState) error
	Get(state string) (*FlowState, error)
	Delete(state string) error
}

// InMemoryStateRepo is a thread-safe in-memory StateRepo.
type InMemoryStateRepo struct {
	mu     sync.RWMutex
	states map[string]FlowState
}

func NewInMemoryStateRepo() *InMemoryStateRepo {
	return &InMemoryStateRepo{
		states: make(map[string]FlowState),
	}
}

func (r *InMemoryStateRepo) Upsert(state string, fs *FlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if fs == nil {
		return errors.New("flow state cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state] = *fs
	return nil
}

func (r *InMemoryStateRepo) Get(state string) (*FlowState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fs, ok := r.states[state]
	if !ok {
		return nil, StateNotFoundErr
	}
	return &fs, nil
}

func (r *InMemoryStateRepo) Delete(state string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, state)
	return nil
}

// Purge drops states created before cutoff and returns how many it removed.
func (r *InMemoryStateRepo) Purge(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for k, fs := range r.states {
		if fs.CreatedAt.Before(cutoff) {
			delete(r.states, k)
			n++
		}
	}
	return n
}
