package mapper

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"pos-system/internal/domain"
)

// Older clients had no change_for column and embedded the cash change-due
// amount inside the free-text notes. Read-only compatibility path: current
// writes always use the dedicated field.
var changeTagRe = regexp.MustCompile(`\[TROCO PARA: R\$ ([0-9.]+)\]`)

// OrderFromRecord builds an Order from a storage record. The timestamp may
// be a raw epoch-millisecond number or a formatted date-time string; the
// change-due amount may live in its column or inside the notes tag.
func OrderFromRecord(rec domain.Record) domain.Order {
	o := domain.Order{
		ID:              str(rec, "id"),
		Type:            domain.OrderType(str(rec, "type")),
		TableNumber:     str(rec, "table_number"),
		CustomerName:    str(rec, "customer_name"),
		CustomerPhone:   str(rec, "customer_phone"),
		Items:           itemsFromRecord(rec["items"]),
		Status:          domain.OrderStatus(str(rec, "status")),
		Total:           num(rec, "total"),
		CreatedAt:       timestampMillis(rec["created_at"]),
		PaymentMethod:   domain.PaymentMethod(str(rec, "payment_method")),
		DeliveryAddress: str(rec, "delivery_address"),
		Notes:           str(rec, "notes"),
		ChangeFor:       optFloat(rec, "change_for"),
		WaitstaffName:   str(rec, "waitstaff_name"),
		CouponApplied:   str(rec, "coupon_applied"),
		DiscountAmount:  num(rec, "discount_amount"),
		Synced:          true, // a record read from storage is durable by definition
	}
	if o.ChangeFor == nil && o.Notes != "" {
		if m := changeTagRe.FindStringSubmatch(o.Notes); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				o.ChangeFor = &v
			}
		}
	}
	return o
}

// OrderToRecord is the inverse of OrderFromRecord. The change-due amount is
// written to its dedicated field only; the notes tag is never produced.
func OrderToRecord(o domain.Order) domain.Record {
	rec := domain.Record{
		"id":         o.ID,
		"type":       string(o.Type),
		"items":      itemsToRecord(o.Items),
		"status":     string(o.Status),
		"total":      o.Total,
		"created_at": float64(o.CreatedAt),
	}
	if o.TableNumber != "" {
		rec["table_number"] = o.TableNumber
	}
	if o.CustomerName != "" {
		rec["customer_name"] = o.CustomerName
	}
	if o.CustomerPhone != "" {
		rec["customer_phone"] = o.CustomerPhone
	}
	if o.PaymentMethod != "" {
		rec["payment_method"] = string(o.PaymentMethod)
	}
	if o.DeliveryAddress != "" {
		rec["delivery_address"] = o.DeliveryAddress
	}
	if o.Notes != "" {
		rec["notes"] = o.Notes
	}
	if o.ChangeFor != nil {
		rec["change_for"] = *o.ChangeFor
	}
	if o.WaitstaffName != "" {
		rec["waitstaff_name"] = o.WaitstaffName
	}
	if o.CouponApplied != "" {
		rec["coupon_applied"] = o.CouponApplied
	}
	if o.DiscountAmount != 0 {
		rec["discount_amount"] = o.DiscountAmount
	}
	return rec
}

func itemsFromRecord(v any) []domain.OrderItem {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	items := make([]domain.OrderItem, 0, len(raw))
	for _, e := range raw {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, domain.OrderItem{
			ProductID:   str(m, "productId"),
			Name:        str(m, "name"),
			Description: str(m, "description"),
			Price:       num(m, "price"),
			Quantity:    num(m, "quantity"),
			ByWeight:    boolOr(m, "isByWeight", false),
		})
	}
	return items
}

func itemsToRecord(items []domain.OrderItem) []any {
	out := make([]any, 0, len(items))
	for _, it := range items {
		m := map[string]any{
			"productId": it.ProductID,
			"name":      it.Name,
			"price":     it.Price,
			"quantity":  it.Quantity,
		}
		if it.Description != "" {
			m["description"] = it.Description
		}
		if it.ByWeight {
			m["isByWeight"] = true
		}
		out = append(out, m)
	}
	return out
}

// timestampMillis accepts epoch milliseconds in any numeric encoding, a
// numeric string, or an RFC3339 / "2006-01-02 15:04:05" date-time string.
func timestampMillis(v any) int64 {
	switch t := v.(type) {
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return n
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts.UnixMilli()
			}
		}
		return 0
	case time.Time:
		return t.UnixMilli()
	default:
		return int64(coerceNum(v))
	}
}

// FormatChangeTag renders the legacy notes tag. Only used when displaying
// historical orders that still carry it; never written back.
func FormatChangeTag(amount float64) string {
	return fmt.Sprintf("[TROCO PARA: R$ %.2f]", amount)
}
