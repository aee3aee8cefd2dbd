// Package lifecycle defines the order status state machine: which
// transitions exist, who may perform them, and how a table-level bulk
// transition fans out over its constituent orders.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pos-system/internal/domain"
	"pos-system/internal/logger"
)

// Actor is whoever is requesting a transition.
type Actor struct {
	Name string
	Role domain.Role
}

// Allowed reports whether the lifecycle defines a transition from one status
// to another, ignoring permissions. PREPARANDO may go to PRONTO, ENTREGUE or
// CANCELADO; PRONTO to ENTREGUE or CANCELADO; terminal statuses go nowhere.
func Allowed(from, to domain.OrderStatus) bool {
	if from.Terminal() || from == to {
		return false
	}
	switch from {
	case domain.StatusPreparing:
		return to == domain.StatusReady || to == domain.StatusDelivered || to == domain.StatusCancelled
	case domain.StatusReady:
		return to == domain.StatusDelivered || to == domain.StatusCancelled
	}
	return false
}

// Authorize checks the permission guard for a transition target. Marking an
// order ready is open to anyone; finishing and cancelling require a manager
// unless the store settings grant that power to staff.
func Authorize(actor Actor, settings domain.StoreSettings, to domain.OrderStatus) error {
	if actor.Role == domain.RoleManager {
		return nil
	}
	switch to {
	case domain.StatusDelivered:
		if !settings.StaffCanFinishOrder {
			return fmt.Errorf("finish order: %w", domain.ErrPermissionDenied)
		}
	case domain.StatusCancelled:
		if !settings.StaffCanCancelItems {
			return fmt.Errorf("cancel order: %w", domain.ErrPermissionDenied)
		}
	}
	return nil
}

// Updater is the backend write the machine needs: set one order's status.
// The update is refused remotely for orders already in a terminal status.
type Updater interface {
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error
}

type Machine struct {
	store Updater
	log   *logger.Logger
}

func New(store Updater, log *logger.Logger) *Machine {
	return &Machine{store: store, log: log}
}

// Transition applies a single-order status change after checking the
// transition table and the permission guard.
func (m *Machine) Transition(ctx context.Context, o domain.Order, to domain.OrderStatus, actor Actor, settings domain.StoreSettings) error {
	if !Allowed(o.Status, to) {
		return fmt.Errorf("%s -> %s: %w", o.Status, to, domain.ErrInvalidTransition)
	}
	if err := Authorize(actor, settings, to); err != nil {
		return err
	}
	if err := m.store.UpdateOrderStatus(ctx, o.ID, to); err != nil {
		return fmt.Errorf("update order %s: %w", o.ID, err)
	}
	m.log.Debug("order_status_changed", map[string]any{
		"order_id": o.ID, "from": o.Status, "to": to, "actor": actor.Name,
	})
	return nil
}

// TransitionAll fans a table-level transition out to every constituent order
// as independent concurrent updates. Orders whose current status does not
// admit the transition are skipped (a PRONTO order stays PRONTO when the
// table is marked ready). Partial failure is reported, not rolled back:
// updates that landed stay applied, and the joined error names each order
// that failed.
func (m *Machine) TransitionAll(ctx context.Context, orders []domain.Order, to domain.OrderStatus, actor Actor, settings domain.StoreSettings) error {
	if err := Authorize(actor, settings, to); err != nil {
		return err
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, o := range orders {
		if !Allowed(o.Status, to) {
			continue
		}
		wg.Add(1)
		go func(o domain.Order) {
			defer wg.Done()
			if err := m.store.UpdateOrderStatus(ctx, o.ID, to); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("order %s: %w", o.ID, err))
				mu.Unlock()
			}
		}(o)
	}
	wg.Wait()

	if len(errs) > 0 {
		m.log.Error("bulk_transition_partial_failure", errors.Join(errs...), map[string]any{
			"to": to, "failed": len(errs), "of": len(orders),
		})
		return errors.Join(errs...)
	}
	return nil
}
