package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-system/internal/domain"
)

var (
	burger   = domain.Product{ID: "a", Name: "X-Burger", Price: 10, Active: true}
	feijoada = domain.Product{ID: "b", Name: "Feijoada", Price: 20, Active: true, ByWeight: true}
)

func openStore() domain.StoreSettings {
	s := domain.DefaultSettings()
	s.CouponActive = true
	s.CouponName = "DEZ10"
	s.CouponDiscount = 10
	return s
}

func TestCartCouponScenario(t *testing.T) {
	// Two units of a 10.00 product plus 250g of a 20.00/kg product with a
	// 10% all-products coupon: 25.00 gross, 2.50 off, 22.50 due.
	s := openStore()
	c := NewCart()
	require.NoError(t, c.Add(burger))
	require.NoError(t, c.Add(burger))
	require.NoError(t, c.AddByWeight(feijoada, 250))
	require.NoError(t, c.ApplyCoupon("dez10", s))

	subtotal, discount, total := c.Totals(s)
	assert.InDelta(t, 25.0, subtotal, 1e-9)
	assert.InDelta(t, 2.5, discount, 1e-9)
	assert.InDelta(t, 22.5, total, 1e-9)
}

func TestCartRestrictedCoupon(t *testing.T) {
	s := openStore()
	s.CouponForAll = false
	s.CouponProductIDs = []string{"b"}

	c := NewCart()
	require.NoError(t, c.Add(burger))            // 10.00, not eligible
	require.NoError(t, c.AddByWeight(feijoada, 500)) // 10.00, eligible
	require.NoError(t, c.ApplyCoupon("DEZ10", s))

	_, discount, total := c.Totals(s)
	assert.InDelta(t, 1.0, discount, 1e-9)
	assert.InDelta(t, 19.0, total, 1e-9)
}

func TestCartCouponRejections(t *testing.T) {
	c := NewCart()
	s := openStore()
	assert.ErrorIs(t, c.ApplyCoupon("NOPE", s), domain.ErrValidation)

	s.CouponActive = false
	assert.ErrorIs(t, c.ApplyCoupon("DEZ10", s), domain.ErrValidation)
}

func TestCartAdjustRemovesAtZero(t *testing.T) {
	c := NewCart()
	require.NoError(t, c.Add(burger))
	c.Adjust("a", -1)
	assert.True(t, c.Empty(), "decrementing to zero removes the line")

	require.NoError(t, c.AddByWeight(feijoada, 100)) // 0.1 kg
	c.Adjust("b", -1)                                // 0.05 kg
	require.Len(t, c.Items(), 1)
	assert.InDelta(t, 0.05, c.Items()[0].Quantity, 1e-9)
	c.Adjust("b", -1)
	assert.True(t, c.Empty())
}

func TestCartRefusesBadLines(t *testing.T) {
	c := NewCart()
	inactive := burger
	inactive.Active = false
	assert.ErrorIs(t, c.Add(inactive), domain.ErrValidation)
	assert.ErrorIs(t, c.Add(feijoada), domain.ErrValidation, "weight product needs a weight")
	assert.ErrorIs(t, c.AddByWeight(feijoada, 0), domain.ErrValidation)
	assert.ErrorIs(t, c.AddByWeight(feijoada, -50), domain.ErrValidation)
	assert.ErrorIs(t, c.AddByWeight(burger, 100), domain.ErrValidation)
}

func TestBuildValidation(t *testing.T) {
	s := openStore()

	newCart := func() *Cart {
		c := NewCart()
		require.NoError(t, c.Add(burger))
		return c
	}

	t.Run("empty cart", func(t *testing.T) {
		_, err := NewCart().Build(Details{Type: domain.TypeCounter, CustomerName: "Zé"}, s)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("closed store", func(t *testing.T) {
		closed := s
		closed.StoreOpen = false
		_, err := newCart().Build(Details{Type: domain.TypeCounter, CustomerName: "Zé"}, closed)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("table requires number", func(t *testing.T) {
		_, err := newCart().Build(Details{Type: domain.TypeTable}, s)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("counter requires name", func(t *testing.T) {
		_, err := newCart().Build(Details{Type: domain.TypeCounter}, s)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("delivery requires full contact", func(t *testing.T) {
		_, err := newCart().Build(Details{Type: domain.TypeDelivery, CustomerName: "Zé", CustomerPhone: "11 9999"}, s)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("disabled channel refused", func(t *testing.T) {
		noDelivery := s
		noDelivery.DeliveryActive = false
		_, err := newCart().Build(Details{
			Type: domain.TypeDelivery, CustomerName: "Zé", CustomerPhone: "11 9999", DeliveryAddress: "Rua 1",
		}, noDelivery)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestBuildOrder(t *testing.T) {
	s := openStore()
	c := NewCart()
	require.NoError(t, c.Add(burger))
	require.NoError(t, c.Add(burger))
	require.NoError(t, c.AddByWeight(feijoada, 250))
	require.NoError(t, c.ApplyCoupon("DEZ10", s))

	change := 50.0
	o, err := c.Build(Details{
		Type:          domain.TypeTable,
		TableNumber:   "5",
		Payment:       domain.PaymentCash,
		ChangeFor:     &change,
		Notes:         "sem cebola",
		WaitstaffName: "Ana",
	}, s)
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.Equal(t, domain.StatusPreparing, o.Status)
	assert.Equal(t, "5", o.TableNumber)
	assert.InDelta(t, 22.5, o.Total, 1e-9)
	assert.Equal(t, "DEZ10", o.CouponApplied)
	assert.InDelta(t, 2.5, o.DiscountAmount, 1e-9)
	require.NotNil(t, o.ChangeFor)
	assert.Equal(t, 50.0, *o.ChangeFor)
	assert.False(t, o.Synced)
	assert.Positive(t, o.CreatedAt)
	assert.Len(t, o.Items, 2)
}

func TestBuildIgnoresChangeForNonCash(t *testing.T) {
	s := openStore()
	c := NewCart()
	require.NoError(t, c.Add(burger))
	change := 50.0
	o, err := c.Build(Details{
		Type: domain.TypeCounter, CustomerName: "Zé",
		Payment: domain.PaymentPix, ChangeFor: &change,
	}, s)
	require.NoError(t, err)
	assert.Nil(t, o.ChangeFor, "change-due only means something for cash")
}

func TestNewOrderIDLocallyUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewOrderID()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
