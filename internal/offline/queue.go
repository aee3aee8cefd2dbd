// Package offline handles order submission when the backend cannot be
// reached. Submission is optimistic: the order shows up on the terminal
// immediately, and a connectivity failure parks it in a persisted queue
// that drains once the link comes back. A backend rejection is not a
// connectivity failure and rolls the optimistic insert back instead.
package offline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pos-system/internal/cache"
	"pos-system/internal/domain"
	"pos-system/internal/logger"
	"pos-system/internal/state"
)

// Remote is the write half of the backend the queue talks to.
type Remote interface {
	UpsertOrder(ctx context.Context, o domain.Order) error
	Ping(ctx context.Context) error
}

type Queue struct {
	mu       sync.Mutex
	draining bool

	store cache.Store
	coord *state.Coordinator
	log   *logger.Logger
}

func NewQueue(store cache.Store, coord *state.Coordinator, log *logger.Logger) *Queue {
	return &Queue{store: store, coord: coord, log: log}
}

// Submit sends one order. The order is inserted locally first so the
// terminal reflects it right away. A connectivity failure queues it for
// later; any other backend error removes the optimistic insert and is
// returned to the caller.
//
// The returned bool is true when the order was queued rather than stored.
func (q *Queue) Submit(ctx context.Context, remote Remote, o domain.Order) (bool, error) {
	q.coord.InsertLocal(o)

	err := remote.UpsertOrder(ctx, o)
	if err == nil {
		q.coord.MarkSynced(o.ID)
		return false, nil
	}
	if errors.Is(err, domain.ErrOffline) {
		if qerr := q.enqueue(ctx, o); qerr != nil {
			// Queue persistence failing on top of a dead link leaves the
			// order in memory only; keep it visible and report both.
			q.log.Error("offline_enqueue_failed", qerr, map[string]any{"order_id": o.ID})
			return true, errors.Join(err, qerr)
		}
		q.log.Info("order_queued_offline", map[string]any{"order_id": o.ID})
		return true, nil
	}

	q.coord.RemoveLocal(o.ID)
	return false, fmt.Errorf("submit order %s: %w", o.ID, err)
}

func (q *Queue) enqueue(ctx context.Context, o domain.Order) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending, err := q.load(ctx)
	if err != nil {
		return err
	}
	for _, p := range pending {
		if p.ID == o.ID {
			return nil
		}
	}
	return q.store.Write(ctx, cache.KeyOfflineQue, append(pending, o))
}

// Pending returns the queued orders, oldest first.
func (q *Queue) Pending(ctx context.Context) ([]domain.Order, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load(ctx)
}

func (q *Queue) load(ctx context.Context) ([]domain.Order, error) {
	var pending []domain.Order
	if err := q.store.Read(ctx, cache.KeyOfflineQue, &pending); err != nil {
		if errors.Is(err, cache.ErrMiss) {
			return nil, nil
		}
		return nil, err
	}
	return pending, nil
}

// Drain retries every queued order in arrival order. Only one drain runs
// at a time: a second call during a drain returns immediately, so a link
// that flaps mid-drain cannot double-submit. An entry leaves the queue
// only after the backend accepts it; failures keep their place for the
// next pass.
func (q *Queue) Drain(ctx context.Context, remote Remote) error {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return nil
	}
	q.draining = true
	pending, err := q.load(ctx)
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.draining = false
		q.mu.Unlock()
	}()

	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	var errs []error
	for _, o := range pending {
		if err := remote.UpsertOrder(ctx, o); err != nil {
			errs = append(errs, fmt.Errorf("drain order %s: %w", o.ID, err))
			if errors.Is(err, domain.ErrOffline) {
				break // the link is gone again, later entries will not fare better
			}
			continue
		}
		q.coord.MarkSynced(o.ID)
		if err := q.remove(ctx, o.ID); err != nil {
			errs = append(errs, err)
		}
		q.log.Info("queued_order_synced", map[string]any{"order_id": o.ID})
	}
	return errors.Join(errs...)
}

func (q *Queue) remove(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	pending, err := q.load(ctx)
	if err != nil {
		return err
	}
	kept := pending[:0]
	for _, p := range pending {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	return q.store.Write(ctx, cache.KeyOfflineQue, kept)
}

// Watch probes the backend on a fixed interval. When the probe succeeds it
// replays the initial load for a terminal that booted offline and drains any
// pending queue entries. It blocks until the context ends.
func (q *Queue) Watch(ctx context.Context, remote Remote, fetch state.Fetcher, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.tick(ctx, remote, fetch)
		}
	}
}

func (q *Queue) tick(ctx context.Context, remote Remote, fetch state.Fetcher) {
	pending, err := q.Pending(ctx)
	if err != nil {
		q.log.Error("pending_read_failed", err, nil)
		return
	}
	needLoad := fetch != nil && !q.coord.Live()
	if len(pending) == 0 && !needLoad {
		return
	}
	if err := remote.Ping(ctx); err != nil {
		return
	}
	// Queued orders go out first: the reload then fetches them back as
	// durable rows instead of overwriting their optimistic copies.
	if len(pending) > 0 {
		if err := q.Drain(ctx, remote); err != nil {
			q.log.Error("offline_drain_incomplete", err, map[string]any{"pending": len(pending)})
		}
	}
	if needLoad {
		if err := q.coord.Load(ctx, fetch); err != nil {
			q.log.Error("reload_failed", err, nil)
			return
		}
		q.log.Info("terminal_live", nil)
	}
}
