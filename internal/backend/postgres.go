// Package backend talks to the hosted datastore: Postgres for the rows,
// RabbitMQ for the change feed every terminal subscribes to. Writes publish
// their own change events after they land, so all terminals converge on the
// same merge path.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pos-system/internal/domain"
	"pos-system/internal/logger"
	"pos-system/internal/mapper"
)

// Publisher emits a change-feed event after a successful write.
type Publisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

type Store struct {
	pool *pgxpool.Pool
	feed Publisher
	log  *logger.Logger
}

// Connect opens the pool, retrying for a while: the terminal
// often boots before the network is up, so a few failed pings are normal.
func Connect(ctx context.Context, dsn string, feed Publisher, log *logger.Logger) (*Store, error) {
	const (
		maxRetries = 10
		retryDelay = 2 * time.Second
		pingTTL    = 5 * time.Second
	)

	var lastErr error
	for i := 1; i <= maxRetries; i++ {
		pool, err := pgxpool.New(ctx, dsn)
		if err == nil {
			pctx, cancel := context.WithTimeout(ctx, pingTTL)
			err = pool.Ping(pctx)
			cancel()
			if err == nil {
				return &Store{pool: pool, feed: feed, log: log}, nil
			}
			pool.Close()
		}
		lastErr = err
		log.Debug("database_connect_retry", map[string]any{"attempt": i})

		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("database connect canceled: %w", ctx.Err())
		}
	}
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", maxRetries, lastErr)
}

func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// Ping is the connectivity probe the offline watcher uses.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return classify(err)
	}
	return nil
}

// classify separates connectivity failures from backend rejections. A
// *pgconn.PgError means the server answered, so whatever went wrong is a
// rejection and must not end up in the offline queue. Everything else is
// treated as the link being down.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrOffline, err)
}

func (s *Store) ListOrders(ctx context.Context) ([]domain.Record, error) {
	return s.queryRecords(ctx, `SELECT * FROM orders ORDER BY created_at DESC`)
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Record, error) {
	return s.queryRecords(ctx, `SELECT * FROM products ORDER BY name`)
}

// GetSettings returns the settings document itself (flat camelCase keys),
// not the row wrapper around it. A store that has never saved settings has
// no row at all; that is ErrNotFound, distinct from an empty document, so
// the caller can keep its defaults instead of reading "everything disabled".
func (s *Store) GetSettings(ctx context.Context) (domain.Record, error) {
	var data map[string]any
	err := s.pool.QueryRow(ctx, `SELECT data FROM settings WHERE id = 'store'`).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("settings row: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, classify(err)
	}
	return domain.Record(data), nil
}

func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT name FROM categories ORDER BY position, name`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var cats []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, classify(err)
		}
		cats = append(cats, name)
	}
	return cats, classify(rows.Err())
}

// queryRecords keeps rows schemaless on the way in: column names become
// record keys and the mapper takes it from there.
func (s *Store) queryRecords(ctx context.Context, sql string, args ...any) ([]domain.Record, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []domain.Record
	fields := rows.FieldDescriptions()
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, classify(err)
		}
		rec := make(domain.Record, len(fields))
		for i, fd := range fields {
			rec[string(fd.Name)] = values[i]
		}
		out = append(out, rec)
	}
	return out, classify(rows.Err())
}

// UpsertOrder inserts the order and publishes the INSERT event. The insert
// is keyed on the client-assigned id with DO NOTHING, so an offline-queue
// retry that raced its own earlier attempt is a clean no-op.
func (s *Store) UpsertOrder(ctx context.Context, o domain.Order) error {
	rec := mapper.OrderToRecord(o)
	items, err := json.Marshal(rec["items"])
	if err != nil {
		return fmt.Errorf("encode order items: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO orders (
			id, type, table_number, customer_name, customer_phone, items,
			status, total, created_at, payment_method, delivery_address,
			notes, change_for, waitstaff_name, coupon_applied, discount_amount
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (id) DO NOTHING`,
		o.ID, string(o.Type), o.TableNumber, o.CustomerName, o.CustomerPhone, items,
		string(o.Status), o.Total, time.UnixMilli(o.CreatedAt).UTC(), string(o.PaymentMethod),
		o.DeliveryAddress, o.Notes, o.ChangeFor, o.WaitstaffName, o.CouponApplied, o.DiscountAmount,
	)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		// Already durable from a previous attempt; nothing to announce.
		return nil
	}

	s.publish(ctx, domain.Event{Table: domain.TableOrders, Type: domain.EventInsert, New: rec})
	return nil
}

// UpdateOrderStatus moves an order between statuses. The WHERE clause only
// matches active rows, so a transition racing another terminal's terminal
// transition loses cleanly instead of resurrecting the order.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE orders SET status = $2
		WHERE id = $1 AND status IN ('PREPARANDO','PRONTO')`,
		id, string(status))
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		var current string
		err := s.pool.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
		}
		if err != nil {
			return classify(err)
		}
		return fmt.Errorf("order %s already %s: %w", id, current, domain.ErrInvalidTransition)
	}

	recs, err := s.queryRecords(ctx, `SELECT * FROM orders WHERE id = $1`, id)
	if err == nil && len(recs) == 1 {
		s.publish(ctx, domain.Event{Table: domain.TableOrders, Type: domain.EventUpdate, New: recs[0]})
	}
	return nil
}

func (s *Store) UpsertProduct(ctx context.Context, p domain.Product) error {
	rec := mapper.ProductToRecord(p)
	var inserted bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (id, name, description, price, category, image_url, is_active, featured_day, is_by_weight)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description,
			price = EXCLUDED.price, category = EXCLUDED.category,
			image_url = EXCLUDED.image_url, is_active = EXCLUDED.is_active,
			featured_day = EXCLUDED.featured_day, is_by_weight = EXCLUDED.is_by_weight
		RETURNING (xmax = 0)`,
		p.ID, p.Name, p.Description, p.Price, p.Category, p.ImageURL, p.Active, p.FeaturedDay, p.ByWeight).Scan(&inserted)
	if err != nil {
		return classify(err)
	}
	evType := domain.EventUpdate
	if inserted {
		evType = domain.EventInsert
	}
	s.publish(ctx, domain.Event{Table: domain.TableProducts, Type: evType, New: rec})
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}
	s.publish(ctx, domain.Event{Table: domain.TableProducts, Type: domain.EventDelete, Old: domain.Record{"id": id}})
	return nil
}

// UpdateSettings replaces the whole settings document and announces it.
func (s *Store) UpdateSettings(ctx context.Context, settings domain.StoreSettings) error {
	rec := mapper.SettingsToRecord(settings)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO settings (id, data) VALUES ('store', $1)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`, data)
	if err != nil {
		return classify(err)
	}
	s.publish(ctx, domain.Event{Table: domain.TableSettings, Type: domain.EventUpdate, New: rec})
	return nil
}

func (s *Store) publish(ctx context.Context, ev domain.Event) {
	if s.feed == nil {
		return
	}
	if err := s.feed.Publish(ctx, ev); err != nil {
		// The row is durable; other terminals catch up on their next load.
		s.log.Error("change_publish_failed", err, map[string]any{
			"table": ev.Table, "type": string(ev.Type),
		})
	}
}
