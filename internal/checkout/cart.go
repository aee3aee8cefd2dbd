// Package checkout builds orders: cart line management, coupon discounts
// and the per-channel validation that runs before anything is submitted.
package checkout

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"pos-system/internal/domain"
)

// WeightStep is the quantity step for by-weight lines, in kilograms.
const WeightStep = 0.05

type Cart struct {
	items  []domain.OrderItem
	coupon *appliedCoupon
}

type appliedCoupon struct {
	code     string
	discount float64 // percent
}

func NewCart() *Cart { return &Cart{} }

func (c *Cart) Items() []domain.OrderItem {
	out := make([]domain.OrderItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Empty() bool { return len(c.items) == 0 }

// Add puts one unit of a product in the cart, snapshotting name and price.
// Inactive products and by-weight products (which need a weight) are refused.
func (c *Cart) Add(p domain.Product) error {
	if !p.Active {
		return fmt.Errorf("product %s is inactive: %w", p.ID, domain.ErrValidation)
	}
	if p.ByWeight {
		return fmt.Errorf("product %s is sold by weight, use AddByWeight: %w", p.ID, domain.ErrValidation)
	}
	for i := range c.items {
		if c.items[i].ProductID == p.ID {
			c.items[i].Quantity++
			return nil
		}
	}
	c.items = append(c.items, domain.OrderItem{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    1,
	})
	return nil
}

// AddByWeight puts a weighed portion in the cart. The entry comes from the
// scale in grams and is stored in kilograms.
func (c *Cart) AddByWeight(p domain.Product, grams float64) error {
	if !p.Active {
		return fmt.Errorf("product %s is inactive: %w", p.ID, domain.ErrValidation)
	}
	if !p.ByWeight {
		return fmt.Errorf("product %s is not sold by weight: %w", p.ID, domain.ErrValidation)
	}
	if grams <= 0 {
		return fmt.Errorf("weight must be positive: %w", domain.ErrValidation)
	}
	kg := grams / 1000
	for i := range c.items {
		if c.items[i].ProductID == p.ID {
			c.items[i].Quantity += kg
			return nil
		}
	}
	c.items = append(c.items, domain.OrderItem{
		ProductID:   p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Quantity:    kg,
		ByWeight:    true,
	})
	return nil
}

// Adjust steps a line's quantity up or down: whole units for unit lines,
// WeightStep kilograms for weight lines. A line reaching zero or below is
// removed from the cart.
func (c *Cart) Adjust(productID string, delta int) {
	for i := range c.items {
		if c.items[i].ProductID != productID {
			continue
		}
		step := 1.0
		if c.items[i].ByWeight {
			step = WeightStep
		}
		c.items[i].Quantity += float64(delta) * step
		if c.items[i].Quantity <= 1e-9 {
			c.items = append(c.items[:i], c.items[i+1:]...)
		}
		return
	}
}

// ApplyCoupon validates a code against the store's configured coupon.
func (c *Cart) ApplyCoupon(code string, s domain.StoreSettings) error {
	if !s.CouponActive || s.CouponName == "" {
		return fmt.Errorf("no active coupon: %w", domain.ErrValidation)
	}
	if !strings.EqualFold(strings.TrimSpace(code), s.CouponName) {
		return fmt.Errorf("invalid coupon code: %w", domain.ErrValidation)
	}
	c.coupon = &appliedCoupon{code: s.CouponName, discount: s.CouponDiscount}
	return nil
}

func (c *Cart) RemoveCoupon() { c.coupon = nil }

// Totals returns subtotal, discount and the final total. The discount
// applies to the whole cart, or only to the configured product set when the
// coupon is restricted. Total never goes below zero.
func (c *Cart) Totals(s domain.StoreSettings) (subtotal, discount, total float64) {
	for _, it := range c.items {
		subtotal += it.Subtotal()
	}
	if c.coupon != nil {
		eligible := subtotal
		if !s.CouponForAll {
			eligible = 0
			for _, it := range c.items {
				if containsID(s.CouponProductIDs, it.ProductID) {
					eligible += it.Subtotal()
				}
			}
		}
		discount = eligible * c.coupon.discount / 100
	}
	total = subtotal - discount
	if total < 0 {
		total = 0
	}
	return subtotal, discount, total
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

var lastOrderID int64

// NewOrderID assigns the client-side order id: uppercase base-36 of the
// current nanosecond clock, bumped past the previous id when the clock has
// not advanced. It must exist before the backend acknowledges the insert,
// so optimistic display and offline queuing have a stable key.
func NewOrderID() string {
	now := time.Now().UnixNano()
	for {
		prev := atomic.LoadInt64(&lastOrderID)
		if now <= prev {
			now = prev + 1
		}
		if atomic.CompareAndSwapInt64(&lastOrderID, prev, now) {
			return strings.ToUpper(strconv.FormatInt(now, 36))
		}
	}
}
