package mapper

import "pos-system/internal/domain"

// SettingsFromRecord builds StoreSettings from the settings row's data
// object (camelCase keys, written as one JSON document). Flags that older
// documents omit default to the values a fresh store starts with: the store
// is open and the coupon applies to all products unless said otherwise.
func SettingsFromRecord(rec domain.Record) domain.StoreSettings {
	def := domain.DefaultSettings()
	s := domain.StoreSettings{
		StoreOpen:           boolOr(rec, "isStoreOpen", true),
		DeliveryActive:      boolOr(rec, "isDeliveryActive", false),
		TableOrderActive:    boolOr(rec, "isTableOrderActive", false),
		CounterPickupActive: boolOr(rec, "isCounterPickupActive", false),
		StoreName:           str(rec, "storeName"),
		LogoURL:             str(rec, "logoUrl"),
		PrimaryColor:        str(rec, "primaryColor"),
		SecondaryColor:      str(rec, "secondaryColor"),
		StaffCanFinishOrder: boolOr(rec, "canWaitstaffFinishOrder", false),
		StaffCanCancelItems: boolOr(rec, "canWaitstaffCancelItems", false),
		PrinterWidth:        str(rec, "thermalPrinterWidth"),
		Address:             str(rec, "address"),
		WhatsApp:            str(rec, "whatsapp"),
		CouponName:          str(rec, "couponName"),
		CouponDiscount:      num(rec, "couponDiscount"),
		CouponActive:        boolOr(rec, "isCouponActive", false),
		CouponForAll:        boolOr(rec, "isCouponForAllProducts", true),
		CouponProductIDs:    strSlice(rec, "applicableProductIds"),
	}
	if s.StoreName == "" {
		s.StoreName = def.StoreName
	}
	if s.PrinterWidth == "" {
		s.PrinterWidth = def.PrinterWidth
	}
	return s
}

func SettingsToRecord(s domain.StoreSettings) domain.Record {
	rec := domain.Record{
		"isStoreOpen":             s.StoreOpen,
		"isDeliveryActive":        s.DeliveryActive,
		"isTableOrderActive":      s.TableOrderActive,
		"isCounterPickupActive":   s.CounterPickupActive,
		"storeName":               s.StoreName,
		"logoUrl":                 s.LogoURL,
		"primaryColor":            s.PrimaryColor,
		"secondaryColor":          s.SecondaryColor,
		"canWaitstaffFinishOrder": s.StaffCanFinishOrder,
		"canWaitstaffCancelItems": s.StaffCanCancelItems,
		"thermalPrinterWidth":     s.PrinterWidth,
		"isCouponActive":          s.CouponActive,
		"isCouponForAllProducts":  s.CouponForAll,
	}
	if s.Address != "" {
		rec["address"] = s.Address
	}
	if s.WhatsApp != "" {
		rec["whatsapp"] = s.WhatsApp
	}
	if s.CouponName != "" {
		rec["couponName"] = s.CouponName
	}
	if s.CouponDiscount != 0 {
		rec["couponDiscount"] = s.CouponDiscount
	}
	if len(s.CouponProductIDs) > 0 {
		rec["applicableProductIds"] = s.CouponProductIDs
	}
	return rec
}
