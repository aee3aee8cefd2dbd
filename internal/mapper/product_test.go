package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-system/internal/domain"
)

func TestProductRoundTrip(t *testing.T) {
	day := 3
	p := domain.Product{
		ID:          "p1",
		Name:        "Feijoada",
		Description: "por quilo",
		Price:       20,
		Category:    "Pratos",
		ImageURL:    "https://img/feijoada.png",
		Active:      true,
		FeaturedDay: &day,
		ByWeight:    true,
	}
	assert.Equal(t, p, ProductFromRecord(ProductToRecord(p)))
}

func TestProductFromRecordDefaults(t *testing.T) {
	p := ProductFromRecord(domain.Record{
		"id":    "p2",
		"name":  "Suco",
		"price": "7.50",
	})
	assert.True(t, p.Active, "missing is_active defaults to true")
	assert.False(t, p.ByWeight, "missing is_by_weight defaults to false")
	assert.Nil(t, p.FeaturedDay, "null featured_day normalizes to unset")
	assert.Equal(t, 7.5, p.Price, "numeric string coerced")
}

func TestSettingsFromRecordDefaults(t *testing.T) {
	s := SettingsFromRecord(domain.Record{"storeName": "Vovó"})
	assert.True(t, s.StoreOpen, "missing isStoreOpen defaults to open")
	assert.True(t, s.CouponForAll, "missing coupon scope defaults to all products")
	assert.False(t, s.StaffCanFinishOrder)
	assert.Equal(t, "80mm", s.PrinterWidth)
}

func TestSettingsRoundTrip(t *testing.T) {
	s := domain.StoreSettings{
		StoreOpen:           true,
		DeliveryActive:      true,
		TableOrderActive:    true,
		CounterPickupActive: false,
		StoreName:           "Vovó Guta",
		LogoURL:             "https://img/logo.png",
		PrimaryColor:        "#3d251e",
		SecondaryColor:      "#f68c3e",
		StaffCanFinishOrder: true,
		StaffCanCancelItems: false,
		PrinterWidth:        "58mm",
		Address:             "Rua 1, 23",
		WhatsApp:            "+55 11 99999-0000",
		CouponName:          "DEZ10",
		CouponDiscount:      10,
		CouponActive:        true,
		CouponForAll:        false,
		CouponProductIDs:    []string{"p1", "p2"},
	}
	got := SettingsFromRecord(SettingsToRecord(s))
	require.Equal(t, s, got)
}
