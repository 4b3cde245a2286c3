package optimistic_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jrsteele09/go-tareas-client/optimistic"
	"github.com/stretchr/testify/require"
)

type card struct {
	ID      string
	StateID string
}

func cardKey(c card) string { return c.ID }

var errRejected = errors.New("409 conflict")

type testFixture struct {
	server      []card
	reloadErr   error
	reloads     int
	collection  *optimistic.Collection[card]
	mutator     *optimistic.Mutator[card]
	transitions []optimistic.State
}

func setupTestFixture(t *testing.T, items ...card) *testFixture {
	t.Helper()

	f := &testFixture{server: append([]card(nil), items...)}
	f.collection = optimistic.NewCollection(cardKey, items...)
	f.mutator = &optimistic.Mutator[card]{
		Target: f.collection,
		Reload: func(context.Context) ([]card, error) {
			f.reloads++
			if f.reloadErr != nil {
				return nil, f.reloadErr
			}
			return append([]card(nil), f.server...), nil
		},
		OnState: func(_ string, s optimistic.State) {
			f.transitions = append(f.transitions, s)
		},
	}
	return f
}

func moveTo(stateID string) func(card) card {
	return func(c card) card {
		c.StateID = stateID
		return c
	}
}

func TestUpdate_Confirmed(t *testing.T) {
	f := setupTestFixture(t, card{"A", "s1"}, card{"B", "s1"})

	var seen optimistic.Change[card]
	state, err := f.mutator.Update(context.Background(), "A", moveTo("s2"), func(_ context.Context, ch optimistic.Change[card]) error {
		seen = ch
		// The local edit is visible while the commit is in flight.
		got, ok := f.collection.Find("A")
		require.True(t, ok)
		require.Equal(t, "s2", got.StateID)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, optimistic.Confirmed, state)
	require.Equal(t, "s1", seen.Previous.StateID)
	require.Equal(t, "s2", seen.Proposed.StateID)
	require.Zero(t, f.reloads)
	require.Equal(t, []optimistic.State{optimistic.Pending, optimistic.Confirmed, optimistic.Idle}, f.transitions)
}

func TestUpdate_RejectedReloadsServerList(t *testing.T) {
	f := setupTestFixture(t, card{"A", "s1"}, card{"B", "s2"})
	// Someone else changed B meanwhile; the reload must bring that in too.
	f.server = []card{{"A", "s1"}, {"B", "s3"}}

	state, err := f.mutator.Update(context.Background(), "A", moveTo("s2"), func(context.Context, optimistic.Change[card]) error {
		return errRejected
	})
	require.ErrorIs(t, err, errRejected)
	require.Equal(t, optimistic.Reverted, state)
	require.Equal(t, 1, f.reloads)
	require.Equal(t, f.server, f.collection.Snapshot())
	require.Equal(t, []optimistic.State{optimistic.Pending, optimistic.Reverted, optimistic.Idle}, f.transitions)
}

func TestUpdate_ReloadFailureRestoresSnapshot(t *testing.T) {
	f := setupTestFixture(t, card{"A", "s1"}, card{"B", "s2"})
	reloadErr := errors.New("network down")
	f.reloadErr = reloadErr

	state, err := f.mutator.Update(context.Background(), "A", moveTo("s2"), func(context.Context, optimistic.Change[card]) error {
		return errRejected
	})
	require.ErrorIs(t, err, errRejected)
	require.ErrorIs(t, err, reloadErr)
	require.Equal(t, optimistic.Reverted, state)
	require.Equal(t, []card{{"A", "s1"}, {"B", "s2"}}, f.collection.Snapshot())
}

func TestUpdate_UnknownEntity(t *testing.T) {
	f := setupTestFixture(t, card{"A", "s1"})

	called := false
	state, err := f.mutator.Update(context.Background(), "Z", moveTo("s2"), func(context.Context, optimistic.Change[card]) error {
		called = true
		return nil
	})
	require.Error(t, err)
	require.Equal(t, optimistic.Idle, state)
	require.False(t, called)
}

func TestRemove(t *testing.T) {
	t.Run("confirmed", func(t *testing.T) {
		f := setupTestFixture(t, card{"A", "s1"}, card{"B", "s1"})

		state, err := f.mutator.Remove(context.Background(), "A", func(context.Context) error { return nil })
		require.NoError(t, err)
		require.Equal(t, optimistic.Confirmed, state)
		require.Equal(t, []card{{"B", "s1"}}, f.collection.Snapshot())
	})

	t.Run("rejected brings the entity back once", func(t *testing.T) {
		f := setupTestFixture(t, card{"A", "s1"}, card{"B", "s1"})

		state, err := f.mutator.Remove(context.Background(), "A", func(context.Context) error { return errRejected })
		require.ErrorIs(t, err, errRejected)
		require.Equal(t, optimistic.Reverted, state)
		require.Equal(t, []card{{"A", "s1"}, {"B", "s1"}}, f.collection.Snapshot())
	})
}

func TestCollection_ReplaceDropsDuplicates(t *testing.T) {
	c := optimistic.NewCollection(cardKey)
	c.Replace([]card{{"A", "s1"}, {"B", "s1"}, {"A", "s2"}})

	require.Equal(t, 2, c.Len())
	got, ok := c.Find("A")
	require.True(t, ok)
	require.Equal(t, "s1", got.StateID)
}

func TestCollection_SnapshotIsACopy(t *testing.T) {
	c := optimistic.NewCollection(cardKey, card{"A", "s1"})
	snap := c.Snapshot()
	snap[0].StateID = "changed"

	got, _ := c.Find("A")
	require.Equal(t, "s1", got.StateID)
}

func TestMutator_ConcurrentFailuresNeverDuplicate(t *testing.T) {
	items := []card{{"A", "s1"}, {"B", "s1"}, {"C", "s1"}, {"D", "s1"}}
	collection := optimistic.NewCollection(cardKey, items...)
	m := &optimistic.Mutator[card]{
		Target: collection,
		Reload: func(context.Context) ([]card, error) {
			return append([]card(nil), items...), nil
		},
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := items[i%len(items)].ID
			if i%2 == 0 {
				_, _ = m.Remove(context.Background(), id, func(context.Context) error { return errRejected })
				return
			}
			_, _ = m.Update(context.Background(), id, moveTo("s9"), func(context.Context, optimistic.Change[card]) error { return errRejected })
		}(i)
	}
	wg.Wait()

	// Every change failed, so after the last reload the list is the server's.
	require.ElementsMatch(t, items, collection.Snapshot())
}

func TestState_String(t *testing.T) {
	require.Equal(t, "pending", optimistic.Pending.String())
	require.Equal(t, "reverted", optimistic.Reverted.String())
}
