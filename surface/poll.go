package surface

import (
	"context"

	"github.com/wippyai/wasi-http-abi/resource"
)

// pollable is ready once done is closed. A nil done is always ready.
type pollable struct {
	done <-chan struct{}
}

func (p *pollable) ready() bool {
	if p.done == nil {
		return true
	}
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// PollOneoff blocks until at least one pollable is ready, then reports
// readiness of each in input order. An empty list returns at once.
func (s *Surface) PollOneoff(ctx context.Context, ids []uint32) ([]bool, error) {
	ps := make([]*pollable, len(ids))
	for i, id := range ids {
		p, err := resource.Lookup[*pollable](s.table, resource.Handle(id), resource.KindPollable)
		if err != nil {
			return nil, err
		}
		ps[i] = p
	}

	for {
		ready := make([]bool, len(ps))
		found := len(ps) == 0
		for i, p := range ps {
			ready[i] = p.ready()
			found = found || ready[i]
		}
		if found {
			return ready, nil
		}
		if err := waitAny(ctx, s.ctx, ps); err != nil {
			return nil, err
		}
	}
}

// waitAny blocks until one of ps is done or either context ends.
func waitAny(ctx, base context.Context, ps []*pollable) error {
	wake := make(chan struct{}, 1)
	stop := make(chan struct{})
	defer close(stop)

	for _, p := range ps {
		go func(done <-chan struct{}) {
			select {
			case <-done:
				select {
				case wake <- struct{}{}:
				default:
				}
			case <-stop:
			}
		}(p.done)
	}

	select {
	case <-wake:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-base.Done():
		return base.Err()
	}
}

// DropPollable releases pollable h.
func (s *Surface) DropPollable(_ context.Context, h uint32) error {
	return s.remove(resource.KindPollable, h)
}
