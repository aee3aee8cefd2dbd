// Package state owns the terminal's in-memory collections and reconciles
// the change feed into them. All mutation goes through the Coordinator:
// either a feed merge or an explicit local-optimistic update. Nothing else
// touches the collections.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pos-system/internal/cache"
	"pos-system/internal/domain"
	"pos-system/internal/logger"
	"pos-system/internal/mapper"
	"pos-system/internal/notify"
)

// Fetcher is the initial full read from the backend.
type Fetcher interface {
	ListOrders(ctx context.Context) ([]domain.Record, error)
	ListProducts(ctx context.Context) ([]domain.Record, error)
	GetSettings(ctx context.Context) (domain.Record, error)
	ListCategories(ctx context.Context) ([]string, error)
}

type Coordinator struct {
	mu         sync.RWMutex
	orders     []domain.Order // most-recent-first
	products   []domain.Product
	settings   domain.StoreSettings
	categories []string
	live       bool // false while the initial snapshot is loading

	store   cache.Store
	trigger *notify.Trigger
	log     *logger.Logger
}

func NewCoordinator(store cache.Store, trigger *notify.Trigger, log *logger.Logger) *Coordinator {
	return &Coordinator{
		store:    store,
		settings: domain.DefaultSettings(),
		trigger:  trigger,
		log:      log,
	}
}

// Load populates the collections. The cached snapshot is applied first so
// the terminal paints before the round trip completes; the live fetch then
// overwrites it and flips the terminal live. When the backend is
// unreachable the cached data stands and the error wraps ErrOffline so the
// caller can show the offline indicator — the terminal still works.
func (c *Coordinator) Load(ctx context.Context, fetch Fetcher) error {
	c.hydrateFromCache(ctx)

	ordRecs, err := fetch.ListOrders(ctx)
	if err != nil {
		return fmt.Errorf("initial load: %w", err)
	}
	prodRecs, err := fetch.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("initial load: %w", err)
	}
	setRec, err := fetch.GetSettings(ctx)
	haveSettings := err == nil
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("initial load: %w", err)
	}
	cats, err := fetch.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	orders := make([]domain.Order, 0, len(ordRecs))
	for _, r := range ordRecs {
		orders = append(orders, mapper.OrderFromRecord(r))
	}
	products := make([]domain.Product, 0, len(prodRecs))
	for _, r := range prodRecs {
		products = append(products, mapper.ProductFromRecord(r))
	}

	// A fresh store has no settings row yet: the defaults (or the cached
	// document) stand until a manager saves one. Only an existing document
	// replaces them, even when that document disables every channel.
	var settings domain.StoreSettings
	if haveSettings {
		settings = mapper.SettingsFromRecord(setRec)
	}

	c.mu.Lock()
	c.orders = orders
	c.products = products
	if haveSettings {
		c.settings = settings
	}
	c.categories = cats
	c.live = true
	c.mu.Unlock()

	c.writeProductCache(ctx, products)
	if haveSettings {
		c.writeSettingsCache(ctx, settings)
	}

	c.log.Info("initial_load_done", map[string]any{
		"orders": len(orders), "products": len(products), "categories": len(cats),
	})
	return nil
}

func (c *Coordinator) hydrateFromCache(ctx context.Context) {
	var products []domain.Product
	if err := c.store.Read(ctx, cache.KeyProducts, &products); err == nil {
		c.mu.Lock()
		c.products = products
		c.mu.Unlock()
	}
	var settings domain.StoreSettings
	if err := c.store.Read(ctx, cache.KeySettings, &settings); err == nil {
		c.mu.Lock()
		c.settings = settings
		c.mu.Unlock()
	}
}

// Run applies feed events until the channel closes or the context ends.
// Events are applied strictly in arrival order; the transport already
// orders events per row id.
func (c *Coordinator) Run(ctx context.Context, events <-chan domain.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.Apply(ctx, ev)
		}
	}
}

// Apply merges one change-feed event into the collections.
func (c *Coordinator) Apply(ctx context.Context, ev domain.Event) {
	switch ev.Table {
	case domain.TableOrders:
		c.applyOrder(ev)
	case domain.TableProducts:
		c.applyProduct(ctx, ev)
	case domain.TableSettings:
		c.applySettings(ctx, ev)
	default:
		c.log.Debug("feed_event_ignored", map[string]any{"table": ev.Table})
	}
}

func (c *Coordinator) applyOrder(ev domain.Event) {
	switch ev.Type {
	case domain.EventInsert:
		o := mapper.OrderFromRecord(ev.New)
		c.mu.Lock()
		if i := indexOfOrder(c.orders, o.ID); i >= 0 {
			// Feed echo of our own optimistic insert: the row is durable
			// now, so just flip the local sync marker.
			c.orders[i].Synced = true
			c.mu.Unlock()
			return
		}
		c.orders = append([]domain.Order{o}, c.orders...)
		live := c.live
		c.mu.Unlock()
		c.trigger.OrderInserted(live)

	case domain.EventUpdate:
		o := mapper.OrderFromRecord(ev.New)
		c.mu.Lock()
		i := indexOfOrder(c.orders, o.ID)
		if i < 0 {
			// Predates this session's load window.
			c.mu.Unlock()
			return
		}
		old := c.orders[i].Status
		c.orders[i] = o // whole-record replace, incoming row is authoritative
		live := c.live
		c.mu.Unlock()
		c.trigger.OrderUpdated(old, o.Status, live)

	case domain.EventDelete:
		id := mapper.OrderFromRecord(ev.Old).ID
		c.mu.Lock()
		if i := indexOfOrder(c.orders, id); i >= 0 {
			c.orders = append(c.orders[:i], c.orders[i+1:]...)
		}
		c.mu.Unlock()
	}
}

func (c *Coordinator) applyProduct(ctx context.Context, ev domain.Event) {
	c.mu.Lock()
	switch ev.Type {
	case domain.EventInsert, domain.EventUpdate:
		p := mapper.ProductFromRecord(ev.New)
		if i := indexOfProduct(c.products, p.ID); i >= 0 {
			c.products[i] = p
		} else {
			c.products = append(c.products, p)
		}
	case domain.EventDelete:
		id := mapper.ProductFromRecord(ev.Old).ID
		if i := indexOfProduct(c.products, id); i >= 0 {
			c.products = append(c.products[:i], c.products[i+1:]...)
		}
	}
	snapshot := make([]domain.Product, len(c.products))
	copy(snapshot, c.products)
	c.mu.Unlock()

	c.writeProductCache(ctx, snapshot)
}

func (c *Coordinator) applySettings(ctx context.Context, ev domain.Event) {
	if ev.Type == domain.EventDelete {
		return // the settings singleton is never deleted
	}
	s := mapper.SettingsFromRecord(ev.New)
	c.mu.Lock()
	c.settings = s
	c.mu.Unlock()

	c.writeSettingsCache(ctx, s)
	c.log.Info("settings_replaced", map[string]any{
		"store": s.StoreName, "primary": s.PrimaryColor, "secondary": s.SecondaryColor,
	})
}

func (c *Coordinator) writeProductCache(ctx context.Context, products []domain.Product) {
	if err := c.store.Write(ctx, cache.KeyProducts, products); err != nil {
		c.log.Error("product_cache_write_failed", err, nil)
	}
}

func (c *Coordinator) writeSettingsCache(ctx context.Context, s domain.StoreSettings) {
	if err := c.store.Write(ctx, cache.KeySettings, s); err != nil {
		c.log.Error("settings_cache_write_failed", err, nil)
	}
}

// InsertLocal prepends an optimistic order so the terminal reflects it
// before the backend acknowledges. Idempotent by id against the feed echo.
func (c *Coordinator) InsertLocal(o domain.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if indexOfOrder(c.orders, o.ID) >= 0 {
		return
	}
	c.orders = append([]domain.Order{o}, c.orders...)
}

// RemoveLocal is the compensating removal for an optimistic insert the
// backend rejected outright.
func (c *Coordinator) RemoveLocal(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := indexOfOrder(c.orders, id); i >= 0 {
		c.orders = append(c.orders[:i], c.orders[i+1:]...)
	}
}

// MarkSynced flips the local durable marker once the backend write landed.
func (c *Coordinator) MarkSynced(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := indexOfOrder(c.orders, id); i >= 0 {
		c.orders[i].Synced = true
	}
}

func (c *Coordinator) Orders() []domain.Order {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Order, len(c.orders))
	copy(out, c.orders)
	return out
}

func (c *Coordinator) OrderByID(id string) (domain.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := indexOfOrder(c.orders, id); i >= 0 {
		return c.orders[i], true
	}
	return domain.Order{}, false
}

func (c *Coordinator) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Coordinator) ProductByID(id string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := indexOfProduct(c.products, id); i >= 0 {
		return c.products[i], true
	}
	return domain.Product{}, false
}

func (c *Coordinator) Settings() domain.StoreSettings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

func (c *Coordinator) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// Live reports whether the initial bulk load has completed.
func (c *Coordinator) Live() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.live
}

func indexOfOrder(orders []domain.Order, id string) int {
	for i := range orders {
		if orders[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfProduct(products []domain.Product, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}
