package checkout

import (
	"fmt"
	"time"

	"pos-system/internal/domain"
)

// Details carries everything the customer/staff fills in at checkout beyond
// the cart itself.
type Details struct {
	Type            domain.OrderType
	TableNumber     string
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	Payment         domain.PaymentMethod
	ChangeFor       *float64 // cash only
	Notes           string
	WaitstaffName   string
}

// Build validates the cart and details against the store configuration and
// produces the order ready for submission. No partial order is ever created:
// any validation failure returns before an Order exists.
func (c *Cart) Build(d Details, s domain.StoreSettings) (domain.Order, error) {
	if c.Empty() {
		return domain.Order{}, fmt.Errorf("cart is empty: %w", domain.ErrValidation)
	}
	if !s.StoreOpen {
		return domain.Order{}, fmt.Errorf("store is closed: %w", domain.ErrValidation)
	}

	switch d.Type {
	case domain.TypeTable:
		if !s.TableOrderActive {
			return domain.Order{}, fmt.Errorf("table orders are disabled: %w", domain.ErrValidation)
		}
		if d.TableNumber == "" {
			return domain.Order{}, fmt.Errorf("table number is required: %w", domain.ErrValidation)
		}
	case domain.TypeCounter:
		if !s.CounterPickupActive {
			return domain.Order{}, fmt.Errorf("counter pickup is disabled: %w", domain.ErrValidation)
		}
		if d.CustomerName == "" {
			return domain.Order{}, fmt.Errorf("customer name is required: %w", domain.ErrValidation)
		}
	case domain.TypeDelivery:
		if !s.DeliveryActive {
			return domain.Order{}, fmt.Errorf("delivery is disabled: %w", domain.ErrValidation)
		}
		if d.CustomerName == "" || d.CustomerPhone == "" || d.DeliveryAddress == "" {
			return domain.Order{}, fmt.Errorf("delivery needs name, phone and address: %w", domain.ErrValidation)
		}
	default:
		return domain.Order{}, fmt.Errorf("unknown order type %q: %w", d.Type, domain.ErrValidation)
	}

	var changeFor *float64
	if d.Payment == domain.PaymentCash && d.ChangeFor != nil && *d.ChangeFor > 0 {
		v := *d.ChangeFor
		changeFor = &v
	}

	_, discount, total := c.Totals(s)

	o := domain.Order{
		ID:            NewOrderID(),
		Type:          d.Type,
		Items:         c.Items(),
		Status:        domain.StatusPreparing,
		Total:         total,
		CreatedAt:     time.Now().UnixMilli(),
		PaymentMethod: d.Payment,
		Notes:         d.Notes,
		ChangeFor:     changeFor,
		WaitstaffName: d.WaitstaffName,
	}
	if d.Type == domain.TypeTable {
		o.TableNumber = d.TableNumber
	}
	if d.Type == domain.TypeDelivery {
		o.DeliveryAddress = d.DeliveryAddress
	}
	o.CustomerName = d.CustomerName
	o.CustomerPhone = d.CustomerPhone
	if c.coupon != nil && discount > 0 {
		o.CouponApplied = c.coupon.code
		o.DiscountAmount = discount
	}
	return o, nil
}
