package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-system/internal/domain"
)

func TestOrderRoundTrip(t *testing.T) {
	change := 50.0
	o := domain.Order{
		ID:            "LX9K2",
		Type:          domain.TypeTable,
		TableNumber:   "5",
		CustomerName:  "Maria",
		CustomerPhone: "11999990000",
		Items: []domain.OrderItem{
			{ProductID: "p1", Name: "X-Burger", Description: "duplo", Price: 10, Quantity: 2},
			{ProductID: "p2", Name: "Feijoada", Price: 20, Quantity: 0.25, ByWeight: true},
		},
		Status:          domain.StatusPreparing,
		Total:           22.5,
		CreatedAt:       1717171717000,
		PaymentMethod:   domain.PaymentCash,
		DeliveryAddress: "",
		Notes:           "sem cebola",
		ChangeFor:       &change,
		WaitstaffName:   "Ana",
		CouponApplied:   "DEZ10",
		DiscountAmount:  2.5,
	}

	got := OrderFromRecord(OrderToRecord(o))

	// Synced is local-only and comes back true for any stored record.
	assert.True(t, got.Synced)
	got.Synced = o.Synced
	assert.Equal(t, o, got)
}

func TestOrderFromRecordTimestampString(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   any
		want int64
	}{
		{"epoch number", float64(1717171717000), 1717171717000},
		{"epoch string", "1717171717000", 1717171717000},
		{"rfc3339", "2024-05-31T15:28:37Z", 1717169317000},
		{"sql datetime", "2024-05-31 15:28:37", 1717169317000},
		{"garbage", "not a date", 0},
		{"absent", nil, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			o := OrderFromRecord(domain.Record{"id": "x", "created_at": tc.in})
			assert.Equal(t, tc.want, o.CreatedAt)
		})
	}
}

func TestOrderFromRecordChangeForFallback(t *testing.T) {
	t.Run("dedicated field wins", func(t *testing.T) {
		o := OrderFromRecord(domain.Record{
			"id":         "a",
			"change_for": float64(100),
			"notes":      "troco [TROCO PARA: R$ 50.00]",
		})
		require.NotNil(t, o.ChangeFor)
		assert.Equal(t, 100.0, *o.ChangeFor)
	})

	t.Run("recovered from notes tag", func(t *testing.T) {
		o := OrderFromRecord(domain.Record{
			"id":    "b",
			"notes": "entregar na portaria [TROCO PARA: R$ 50.00]",
		})
		require.NotNil(t, o.ChangeFor)
		assert.Equal(t, 50.0, *o.ChangeFor)
	})

	t.Run("both absent leaves unset", func(t *testing.T) {
		o := OrderFromRecord(domain.Record{"id": "c", "notes": "sem troco"})
		assert.Nil(t, o.ChangeFor)
	})
}

func TestOrderToRecordNeverWritesNotesTag(t *testing.T) {
	change := 20.0
	rec := OrderToRecord(domain.Order{ID: "d", Notes: "obs", ChangeFor: &change})
	assert.Equal(t, 20.0, rec["change_for"])
	assert.Equal(t, "obs", rec["notes"])
	assert.NotContains(t, rec["notes"], "TROCO")
}

func TestOrderFromRecordMalformedNumbers(t *testing.T) {
	o := OrderFromRecord(domain.Record{
		"id":    "e",
		"total": "abc",
		"items": []any{map[string]any{"productId": "p", "price": "x", "quantity": nil}},
	})
	assert.Zero(t, o.Total)
	require.Len(t, o.Items, 1)
	assert.Zero(t, o.Items[0].Price)
	assert.Zero(t, o.Items[0].Quantity)
}
