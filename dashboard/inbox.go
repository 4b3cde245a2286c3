package dashboard

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-tareas-client/approvals"
	"github.com/jrsteele09/go-tareas-client/internal/utils"
	"github.com/jrsteele09/go-tareas-client/optimistic"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Inbox is the approvals queue as filtered by the last Load.
type Inbox struct {
	approvals *approvals.Service
	logger    zerolog.Logger

	Requests *optimistic.Collection[approvals.Request]
	mutator  *optimistic.Mutator[approvals.Request]

	mu       sync.RWMutex
	filter   approvals.ListParams
	counters approvals.Counters
}

func NewInbox(svc *approvals.Service, logger *zerolog.Logger) *Inbox {
	in := &Inbox{
		approvals: svc,
		logger:    log.Logger,
		Requests:  optimistic.NewCollection(func(r approvals.Request) string { return r.ID }),
	}
	if logger != nil {
		in.logger = *logger
	}
	in.mutator = &optimistic.Mutator[approvals.Request]{
		Target: in.Requests,
		Reload: in.list,
		Logger: &in.logger,
	}
	return in
}

// Load fetches the counters and the filtered list in parallel and remembers
// the filter for later reloads.
func (in *Inbox) Load(ctx context.Context, filter approvals.ListParams) error {
	in.mu.Lock()
	in.filter = filter
	in.mu.Unlock()
	return in.reload(ctx)
}

func (in *Inbox) reload(ctx context.Context) error {
	filter := in.Filter()

	var (
		counters approvals.Counters
		list     []approvals.Request
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		env, err := in.approvals.Counters(gctx, filter.UnitID)
		if err != nil {
			return err
		}
		if env.Data != nil {
			counters = *env.Data
		}
		return nil
	})
	g.Go(func() error {
		var err error
		list, err = in.list(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	in.Requests.Replace(list)
	in.mu.Lock()
	in.counters = counters
	in.mu.Unlock()
	return nil
}

func (in *Inbox) list(ctx context.Context) ([]approvals.Request, error) {
	env, err := in.approvals.List(ctx, in.Filter())
	if err != nil {
		return nil, err
	}
	return utils.Value(env.Data), nil
}

func (in *Inbox) Filter() approvals.ListParams {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.filter
}

func (in *Inbox) Counters() approvals.Counters {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.counters
}

// Approve takes the request off the list while the backend decides, then
// reloads the counters and the list.
func (in *Inbox) Approve(ctx context.Context, id, note string) (*approvals.Outcome, error) {
	return in.decide(ctx, id, func(ctx context.Context) (*approvals.Outcome, error) {
		env, err := in.approvals.Approve(ctx, id, note)
		if err != nil {
			return nil, err
		}
		return env.Data, nil
	})
}

// Reject validates the reason before touching the list.
func (in *Inbox) Reject(ctx context.Context, id, reason string) (*approvals.Outcome, error) {
	if err := approvals.ValidateRejectReason(reason); err != nil {
		return nil, err
	}
	return in.decide(ctx, id, func(ctx context.Context) (*approvals.Outcome, error) {
		env, err := in.approvals.Reject(ctx, id, reason)
		if err != nil {
			return nil, err
		}
		return env.Data, nil
	})
}

func (in *Inbox) decide(ctx context.Context, id string, call func(context.Context) (*approvals.Outcome, error)) (*approvals.Outcome, error) {
	var outcome *approvals.Outcome
	_, err := in.mutator.Remove(ctx, id, func(ctx context.Context) error {
		var err error
		outcome, err = call(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := in.reload(ctx); err != nil {
		in.logger.Warn().Err(err).Msg("inbox reload after decision failed")
		return outcome, err
	}
	return outcome, nil
}
