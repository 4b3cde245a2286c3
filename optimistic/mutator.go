package optimistic

import (
	"context"

	errs "github.com/jrsteele09/go-tareas-client/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type State int

const (
	Idle State = iota
	Pending
	Confirmed
	Reverted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case Reverted:
		return "reverted"
	}
	return "unknown"
}

// Change records one entity's value before and after a local edit.
type Change[T any] struct {
	EntityID string
	Previous T
	Proposed T
}

// Mutator runs optimistic changes against Target. Reload fetches the full
// authoritative list and is used whenever the server rejects a change.
type Mutator[T any] struct {
	Target *Collection[T]
	Reload func(ctx context.Context) ([]T, error)
	Logger *zerolog.Logger

	// OnState, when set, sees every transition of every change.
	OnState func(entityID string, s State)
}

func (m *Mutator[T]) logger() *zerolog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return &log.Logger
}

func (m *Mutator[T]) transition(id string, s State) {
	if m.OnState != nil {
		m.OnState(id, s)
	}
}

// Update edits the entity with id locally, then calls commit. If commit fails
// the list is reloaded. The returned state is Confirmed or Reverted.
func (m *Mutator[T]) Update(ctx context.Context, id string, edit func(T) T, commit func(context.Context, Change[T]) error) (State, error) {
	var change Change[T]
	found := false
	previous := m.Target.Swap(func(items []T) []T {
		for i, it := range items {
			if m.Target.key(it) == id {
				found = true
				change = Change[T]{EntityID: id, Previous: it, Proposed: edit(it)}
				items[i] = change.Proposed
				break
			}
		}
		return items
	})
	if !found {
		return Idle, errs.Wrapf(errs.ErrNotFound, "entity %s", id)
	}
	return m.settle(ctx, id, previous, func(ctx context.Context) error {
		return commit(ctx, change)
	})
}

// Remove drops the entity with id locally, then calls commit.
func (m *Mutator[T]) Remove(ctx context.Context, id string, commit func(context.Context) error) (State, error) {
	found := false
	previous := m.Target.Swap(func(items []T) []T {
		out := items[:0]
		for _, it := range items {
			if m.Target.key(it) == id {
				found = true
				continue
			}
			out = append(out, it)
		}
		return out
	})
	if !found {
		return Idle, errs.Wrapf(errs.ErrNotFound, "entity %s", id)
	}
	return m.settle(ctx, id, previous, commit)
}

func (m *Mutator[T]) settle(ctx context.Context, id string, previous []T, commit func(context.Context) error) (State, error) {
	m.transition(id, Pending)

	commitErr := commit(ctx)
	if commitErr == nil {
		m.transition(id, Confirmed)
		m.transition(id, Idle)
		return Confirmed, nil
	}

	m.logger().Debug().Err(commitErr).Str("entity", id).Msg("change rejected, reloading")
	fresh, reloadErr := m.Reload(ctx)
	if reloadErr != nil {
		m.logger().Warn().Err(reloadErr).Str("entity", id).Msg("reload failed, restoring previous list")
		m.Target.Replace(previous)
		m.transition(id, Reverted)
		m.transition(id, Idle)
		return Reverted, errs.Join(commitErr, reloadErr)
	}

	m.Target.Replace(fresh)
	m.transition(id, Reverted)
	m.transition(id, Idle)
	return Reverted, commitErr
}
