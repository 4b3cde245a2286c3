// Package dashboard keeps the board and the approvals inbox in memory and
// applies edits to them optimistically.
package dashboard

import (
	"context"
	"sync"

	errs "github.com/jrsteele09/go-tareas-client/internal/errors"
	"github.com/jrsteele09/go-tareas-client/internal/utils"
	"github.com/jrsteele09/go-tareas-client/optimistic"
	"github.com/jrsteele09/go-tareas-client/states"
	"github.com/jrsteele09/go-tareas-client/tasks"
	"github.com/jrsteele09/go-tareas-client/units"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	LastColumnErr   = errs.Invalid("estado", "Debe existir al menos un estado")
	UnknownStateErr = errs.Invalid("estado_id", "Estado inválido")
)

// Column is one active state with the tasks currently in it.
type Column struct {
	State states.State
	Tasks []tasks.Task
}

type Board struct {
	tasks  *tasks.Service
	states *states.Service
	units  *units.Service
	logger zerolog.Logger

	Tasks   *optimistic.Collection[tasks.Task]
	mutator *optimistic.Mutator[tasks.Task]

	mu        sync.RWMutex
	stateList []states.State
	unitList  []units.Unit
}

type BoardOption func(*Board)

func WithLogger(l zerolog.Logger) BoardOption {
	return func(b *Board) {
		b.logger = l
	}
}

func NewBoard(taskSvc *tasks.Service, stateSvc *states.Service, unitSvc *units.Service, options ...BoardOption) *Board {
	b := &Board{
		tasks:  taskSvc,
		states: stateSvc,
		units:  unitSvc,
		logger: log.Logger,
		Tasks:  optimistic.NewCollection(taskID),
	}
	for _, opt := range options {
		opt(b)
	}
	b.mutator = &optimistic.Mutator[tasks.Task]{
		Target: b.Tasks,
		Reload: b.reloadTasks,
		Logger: &b.logger,
	}
	return b
}

func taskID(t tasks.Task) string {
	return t.ID
}

// Load fetches tasks, states and units concurrently. Nothing is replaced
// unless all three succeed.
func (b *Board) Load(ctx context.Context) error {
	var (
		taskList  []tasks.Task
		stateList []states.State
		unitList  []units.Unit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		taskList, err = b.reloadTasks(gctx)
		return err
	})
	g.Go(func() error {
		env, err := b.states.List(gctx)
		if err != nil {
			return err
		}
		stateList = utils.Value(env.Data)
		return nil
	})
	g.Go(func() error {
		env, err := b.units.List(gctx, "")
		if err != nil {
			return err
		}
		unitList = utils.Value(env.Data)
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	b.Tasks.Replace(taskList)
	b.mu.Lock()
	b.stateList, b.unitList = stateList, unitList
	b.mu.Unlock()
	b.logger.Debug().Int("tasks", len(taskList)).Int("states", len(stateList)).Msg("board loaded")
	return nil
}

func (b *Board) reloadTasks(ctx context.Context) ([]tasks.Task, error) {
	env, err := b.tasks.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return utils.Value(env.Data), nil
}

func (b *Board) reloadStates(ctx context.Context) error {
	env, err := b.states.List(ctx)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.stateList = utils.Value(env.Data)
	b.mu.Unlock()
	return nil
}

func (b *Board) States() []states.State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]states.State(nil), b.stateList...)
}

func (b *Board) Units() []units.Unit {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]units.Unit(nil), b.unitList...)
}

// Filter returns the tasks of unitID, or all tasks when it is empty.
func (b *Board) Filter(unitID string) []tasks.Task {
	all := b.Tasks.Snapshot()
	if unitID == "" {
		return all
	}
	out := make([]tasks.Task, 0, len(all))
	for _, t := range all {
		if t.UnitID == unitID {
			out = append(out, t)
		}
	}
	return out
}

// Page returns one 1-based page of the filtered tasks and the page count.
// A perPage of zero or less returns everything on a single page.
func (b *Board) Page(unitID string, page, perPage int) ([]tasks.Task, int) {
	list := b.Filter(unitID)
	if perPage <= 0 {
		return list, 1
	}
	pages := max(1, (len(list)+perPage-1)/perPage)
	page = min(max(page, 1), pages)
	start := min((page-1)*perPage, len(list))
	end := min(start+perPage, len(list))
	return list[start:end], pages
}

// Columns groups the tasks of unitID under the active states in board order.
func (b *Board) Columns(unitID string) []Column {
	ordered := states.ActiveOrdered(b.States())
	cols := make([]Column, len(ordered))
	index := make(map[string]int, len(ordered))
	for i, st := range ordered {
		cols[i] = Column{State: st}
		index[st.ID] = i
	}
	for _, t := range b.Filter(unitID) {
		if i, ok := index[t.StateID]; ok {
			cols[i].Tasks = append(cols[i].Tasks, t)
		}
	}
	return cols
}

func (b *Board) state(id string) (states.State, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, st := range b.stateList {
		if st.ID == id {
			return st, true
		}
	}
	return states.State{}, false
}

// Move shows the task in stateID straight away and then asks the backend. On
// failure the board is reloaded. When the change was filed for approval the
// task goes back to where the backend still has it.
func (b *Board) Move(ctx context.Context, id, stateID string) (*tasks.ActionResult, error) {
	target, ok := b.state(stateID)
	if !ok {
		return nil, UnknownStateErr
	}

	var result *tasks.ActionResult
	_, err := b.mutator.Update(ctx, id,
		func(t tasks.Task) tasks.Task {
			t.StateID, t.StateName, t.StateColor = target.ID, target.Name, target.Color
			return t
		},
		func(ctx context.Context, _ optimistic.Change[tasks.Task]) error {
			env, err := b.tasks.Update(ctx, id, tasks.UpdateRequest{StateID: &target.ID})
			if err != nil {
				return err
			}
			result = env.Data
			return nil
		})
	if err != nil {
		return nil, err
	}
	if result.PendingApproval() {
		if err := b.resync(ctx); err != nil {
			return result, err
		}
	}
	return result, nil
}

// Delete removes the task from the board and then asks the backend.
func (b *Board) Delete(ctx context.Context, id string) (*tasks.ActionResult, error) {
	var result *tasks.ActionResult
	_, err := b.mutator.Remove(ctx, id, func(ctx context.Context) error {
		env, err := b.tasks.Delete(ctx, id)
		if err != nil {
			return err
		}
		result = env.Data
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.PendingApproval() {
		if err := b.resync(ctx); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (b *Board) resync(ctx context.Context) error {
	fresh, err := b.reloadTasks(ctx)
	if err != nil {
		return err
	}
	b.Tasks.Replace(fresh)
	return nil
}

// SaveColumn creates a state when id is empty and updates it otherwise, then
// reloads states and tasks since tasks carry the state's name and color.
func (b *Board) SaveColumn(ctx context.Context, id string, req states.SaveRequest) error {
	var err error
	if id == "" {
		_, err = b.states.Create(ctx, req)
	} else {
		_, err = b.states.Update(ctx, id, req)
	}
	if err != nil {
		return err
	}
	if err := b.reloadStates(ctx); err != nil {
		return err
	}
	return b.resync(ctx)
}

// DeleteColumn refuses to remove the last state.
func (b *Board) DeleteColumn(ctx context.Context, id string) error {
	if len(b.States()) <= 1 {
		return LastColumnErr
	}
	if _, err := b.states.Delete(ctx, id); err != nil {
		return err
	}
	return b.reloadStates(ctx)
}

