// Package tables derives the table-session view from the flat order
// collection. Pure recomputation: no state is kept here, callers re-run it
// on every relevant change (collections are tens of orders at most).
package tables

import (
	"sort"

	"pos-system/internal/domain"
)

// Session is the logical grouping of every active order on one table:
// merged item lines, combined total and a single aggregate status. It exists
// only while at least one constituent order is still active.
type Session struct {
	TableNumber   string             `json:"tableNumber"`
	OrderIDs      []string           `json:"orderIds"`
	Items         []domain.OrderItem `json:"items"`
	Total         float64            `json:"total"`
	Status        domain.OrderStatus `json:"status"`
	WaitstaffName string             `json:"waitstaffName,omitempty"`
	Notes         []string           `json:"notes,omitempty"`
	CreatedAt     int64              `json:"createdAt"` // newest constituent
}

// Orders returns the constituents of this session out of the full
// collection, for fanning a bulk transition out to each of them.
func (s Session) Orders(all []domain.Order) []domain.Order {
	ids := make(map[string]bool, len(s.OrderIDs))
	for _, id := range s.OrderIDs {
		ids[id] = true
	}
	var out []domain.Order
	for _, o := range all {
		if ids[o.ID] {
			out = append(out, o)
		}
	}
	return out
}

// Active splits the collection into table sessions (MESA orders grouped by
// table number) and standalone active orders (BALCAO, ENTREGA, and MESA
// orders missing a table number, each its own group). Input order is
// expected most-recent-first; both outputs preserve that.
func Active(orders []domain.Order) ([]Session, []domain.Order) {
	byTable := make(map[string]*Session)
	var tableOrder []string
	var singles []domain.Order

	for _, o := range orders {
		if !o.Status.Active() {
			continue
		}
		if o.Type != domain.TypeTable || o.TableNumber == "" {
			singles = append(singles, o)
			continue
		}

		s, ok := byTable[o.TableNumber]
		if !ok {
			s = &Session{
				TableNumber: o.TableNumber,
				Status:      domain.StatusPreparing,
				CreatedAt:   o.CreatedAt,
			}
			byTable[o.TableNumber] = s
			tableOrder = append(tableOrder, o.TableNumber)
		}
		s.OrderIDs = append(s.OrderIDs, o.ID)
		s.Items = mergeItems(s.Items, o.Items)
		// Combined total is the sum of constituent totals, not recomputed
		// from merged lines: per-order discounts must not drift.
		s.Total += o.Total
		if o.Status == domain.StatusReady {
			s.Status = domain.StatusReady
		}
		// Orders arrive newest-first, so the first name seen is the most
		// recently assigned one.
		if s.WaitstaffName == "" && o.WaitstaffName != "" {
			s.WaitstaffName = o.WaitstaffName
		}
		if o.Notes != "" {
			s.Notes = append(s.Notes, o.Notes)
		}
		if o.CreatedAt > s.CreatedAt {
			s.CreatedAt = o.CreatedAt
		}
	}

	sessions := make([]Session, 0, len(tableOrder))
	for _, tn := range tableOrder {
		sessions = append(sessions, *byTable[tn])
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt > sessions[j].CreatedAt
	})
	return sessions, singles
}

// Occupied returns which table numbers currently hold a session, for the
// floor map view.
func Occupied(orders []domain.Order) map[string]domain.OrderStatus {
	sessions, _ := Active(orders)
	out := make(map[string]domain.OrderStatus, len(sessions))
	for _, s := range sessions {
		out[s.TableNumber] = s.Status
	}
	return out
}

// mergeItems folds src lines into dst, summing quantities for lines sharing
// a product id (kilograms sum the same way as unit counts).
func mergeItems(dst []domain.OrderItem, src []domain.OrderItem) []domain.OrderItem {
	for _, it := range src {
		merged := false
		for i := range dst {
			if dst[i].ProductID == it.ProductID {
				dst[i].Quantity += it.Quantity
				merged = true
				break
			}
		}
		if !merged {
			dst = append(dst, it)
		}
	}
	return dst
}
