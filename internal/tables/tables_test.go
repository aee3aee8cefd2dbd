package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-system/internal/domain"
)

func mesa(id, table string, status domain.OrderStatus, total float64, createdAt int64, items ...domain.OrderItem) domain.Order {
	return domain.Order{
		ID: id, Type: domain.TypeTable, TableNumber: table,
		Status: status, Total: total, CreatedAt: createdAt, Items: items,
	}
}

func TestActiveGroupsTableOrders(t *testing.T) {
	orders := []domain.Order{
		mesa("o2", "5", domain.StatusPreparing, 30, 200,
			domain.OrderItem{ProductID: "a", Name: "X", Price: 15, Quantity: 2}),
		mesa("o1", "5", domain.StatusPreparing, 15, 100,
			domain.OrderItem{ProductID: "a", Name: "X", Price: 15, Quantity: 1}),
	}

	sessions, singles := Active(orders)
	require.Len(t, sessions, 1)
	assert.Empty(t, singles)

	s := sessions[0]
	assert.Equal(t, "5", s.TableNumber)
	assert.ElementsMatch(t, []string{"o1", "o2"}, s.OrderIDs)
	assert.Equal(t, 45.0, s.Total, "session total is the sum of constituent totals")
	assert.Equal(t, domain.StatusPreparing, s.Status)
	require.Len(t, s.Items, 1, "same product id merges into one line")
	assert.Equal(t, 3.0, s.Items[0].Quantity)
}

func TestActiveAggregateStatusReadyIfAny(t *testing.T) {
	orders := []domain.Order{
		mesa("o1", "5", domain.StatusPreparing, 15, 100),
		mesa("o2", "5", domain.StatusReady, 30, 200),
	}
	sessions, _ := Active(orders)
	require.Len(t, sessions, 1)
	assert.Equal(t, domain.StatusReady, sessions[0].Status)
}

func TestSessionVanishesWhenLastOrderLeaves(t *testing.T) {
	orders := []domain.Order{mesa("o1", "7", domain.StatusPreparing, 10, 100)}
	sessions, _ := Active(orders)
	require.Len(t, sessions, 1)

	orders[0].Status = domain.StatusDelivered
	sessions, _ = Active(orders)
	assert.Empty(t, sessions, "a session exists only while an active order references the table")

	orders[0].Status = domain.StatusCancelled
	sessions, _ = Active(orders)
	assert.Empty(t, sessions)
}

func TestActiveSinglesStandAlone(t *testing.T) {
	orders := []domain.Order{
		{ID: "d1", Type: domain.TypeDelivery, Status: domain.StatusPreparing, Total: 40},
		{ID: "b1", Type: domain.TypeCounter, Status: domain.StatusReady, Total: 12},
		// MESA without a table number stands alone by design.
		{ID: "m0", Type: domain.TypeTable, Status: domain.StatusPreparing, Total: 9},
		{ID: "done", Type: domain.TypeCounter, Status: domain.StatusDelivered, Total: 5},
	}
	sessions, singles := Active(orders)
	assert.Empty(t, sessions)
	require.Len(t, singles, 3)
	assert.Equal(t, "d1", singles[0].ID)
}

func TestActiveWaitstaffLastWriteWins(t *testing.T) {
	orders := []domain.Order{ // newest first
		func() domain.Order { o := mesa("o3", "2", domain.StatusPreparing, 5, 300); return o }(),
		func() domain.Order {
			o := mesa("o2", "2", domain.StatusPreparing, 5, 200)
			o.WaitstaffName = "Bia"
			return o
		}(),
		func() domain.Order {
			o := mesa("o1", "2", domain.StatusPreparing, 5, 100)
			o.WaitstaffName = "Ana"
			return o
		}(),
	}
	sessions, _ := Active(orders)
	require.Len(t, sessions, 1)
	assert.Equal(t, "Bia", sessions[0].WaitstaffName, "most recently assigned name wins, not a union")
}

func TestActiveMergesWeightLinesInKilograms(t *testing.T) {
	orders := []domain.Order{
		mesa("o2", "3", domain.StatusPreparing, 10, 200,
			domain.OrderItem{ProductID: "fj", Name: "Feijoada", Price: 20, Quantity: 0.25, ByWeight: true}),
		mesa("o1", "3", domain.StatusPreparing, 6, 100,
			domain.OrderItem{ProductID: "fj", Name: "Feijoada", Price: 20, Quantity: 0.30, ByWeight: true}),
	}
	sessions, _ := Active(orders)
	require.Len(t, sessions, 1)
	require.Len(t, sessions[0].Items, 1)
	assert.InDelta(t, 0.55, sessions[0].Items[0].Quantity, 1e-9)
	assert.True(t, sessions[0].Items[0].ByWeight)
}

func TestSessionOrdersFanOutSet(t *testing.T) {
	all := []domain.Order{
		mesa("o1", "5", domain.StatusPreparing, 15, 100),
		mesa("o2", "5", domain.StatusReady, 30, 200),
		mesa("o3", "6", domain.StatusPreparing, 8, 300),
	}
	sessions, _ := Active(all)
	var five Session
	for _, s := range sessions {
		if s.TableNumber == "5" {
			five = s
		}
	}
	constituents := five.Orders(all)
	require.Len(t, constituents, 2)
}

func TestOccupied(t *testing.T) {
	orders := []domain.Order{
		mesa("o1", "5", domain.StatusPreparing, 15, 100),
		mesa("o2", "6", domain.StatusReady, 30, 200),
	}
	occ := Occupied(orders)
	assert.Equal(t, domain.StatusPreparing, occ["5"])
	assert.Equal(t, domain.StatusReady, occ["6"])
	_, ok := occ["7"]
	assert.False(t, ok)
}
