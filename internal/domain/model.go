package domain

type OrderStatus string

const (
	StatusPreparing OrderStatus = "PREPARANDO"
	StatusReady     OrderStatus = "PRONTO"
	StatusDelivered OrderStatus = "ENTREGUE"
	StatusCancelled OrderStatus = "CANCELADO"
)

// Terminal reports whether no further transition is defined out of s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Active reports whether an order in this status still occupies a table or a
// kitchen slot.
func (s OrderStatus) Active() bool {
	return s == StatusPreparing || s == StatusReady
}

type OrderType string

const (
	TypeTable    OrderType = "MESA"   // dine-in, carries a table number
	TypeCounter  OrderType = "BALCAO" // counter pickup
	TypeDelivery OrderType = "ENTREGA"
)

type PaymentMethod string

const (
	PaymentPix  PaymentMethod = "PIX"
	PaymentCard PaymentMethod = "CARTAO"
	PaymentCash PaymentMethod = "DINHEIRO"
)

type Role string

const (
	RoleManager Role = "GERENTE"
	RoleStaff   Role = "GARCOM"
)

// OrderItem is embedded in an Order. Name, price and the by-weight flag are
// snapshot at order time so later product edits never alter history.
type OrderItem struct {
	ProductID   string  `json:"productId"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Quantity    float64 `json:"quantity"` // units, or kilograms when ByWeight
	ByWeight    bool    `json:"isByWeight,omitempty"`
}

// Subtotal is price times quantity; for by-weight lines the price is per kg.
func (i OrderItem) Subtotal() float64 { return i.Price * i.Quantity }

type Order struct {
	ID              string        `json:"id"`
	Type            OrderType     `json:"type"`
	TableNumber     string        `json:"tableNumber,omitempty"`
	CustomerName    string        `json:"customerName,omitempty"`
	CustomerPhone   string        `json:"customerPhone,omitempty"`
	Items           []OrderItem   `json:"items"`
	Status          OrderStatus   `json:"status"`
	Total           float64       `json:"total"`
	CreatedAt       int64         `json:"createdAt"` // epoch milliseconds
	PaymentMethod   PaymentMethod `json:"paymentMethod,omitempty"`
	DeliveryAddress string        `json:"deliveryAddress,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	ChangeFor       *float64      `json:"changeFor,omitempty"` // cash payments only
	WaitstaffName   string        `json:"waitstaffName,omitempty"`
	CouponApplied   string        `json:"couponApplied,omitempty"`
	DiscountAmount  float64       `json:"discountAmount,omitempty"`

	// Synced is local-only: whether this order is known durable on the
	// backend. Never persisted remotely.
	Synced bool `json:"synced"`
}

type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"` // per kg when ByWeight
	Category    string  `json:"category"`
	ImageURL    string  `json:"imageUrl"`
	Active      bool    `json:"isActive"`
	FeaturedDay *int    `json:"featuredDay,omitempty"` // 0-6, Sunday=0
	ByWeight    bool    `json:"isByWeight"`
}

// StoreSettings is a process-wide singleton kept under a fixed id on the
// backend and pushed to every terminal through the change feed.
type StoreSettings struct {
	StoreOpen           bool     `json:"isStoreOpen"`
	DeliveryActive      bool     `json:"isDeliveryActive"`
	TableOrderActive    bool     `json:"isTableOrderActive"`
	CounterPickupActive bool     `json:"isCounterPickupActive"`
	StoreName           string   `json:"storeName"`
	LogoURL             string   `json:"logoUrl"`
	PrimaryColor        string   `json:"primaryColor"`
	SecondaryColor      string   `json:"secondaryColor"`
	StaffCanFinishOrder bool     `json:"canWaitstaffFinishOrder"`
	StaffCanCancelItems bool     `json:"canWaitstaffCancelItems"`
	PrinterWidth        string   `json:"thermalPrinterWidth"` // "80mm" | "58mm"
	Address             string   `json:"address,omitempty"`
	WhatsApp            string   `json:"whatsapp,omitempty"`
	CouponName          string   `json:"couponName,omitempty"`
	CouponDiscount      float64  `json:"couponDiscount,omitempty"` // percent
	CouponActive        bool     `json:"isCouponActive"`
	CouponForAll        bool     `json:"isCouponForAllProducts"`
	CouponProductIDs    []string `json:"applicableProductIds,omitempty"`
}

// DefaultSettings mirrors the configuration a fresh store starts with before
// the backend row exists.
func DefaultSettings() StoreSettings {
	return StoreSettings{
		StoreOpen:           true,
		DeliveryActive:      true,
		TableOrderActive:    true,
		CounterPickupActive: true,
		StoreName:           "POS",
		PrinterWidth:        "80mm",
		CouponForAll:        true,
	}
}

type Waitstaff struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
}

func (w Waitstaff) IsManager() bool { return w.Role == RoleManager }

// Session is an authenticated backend session for a manager terminal.
type Session struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"` // email local part
	Role   Role   `json:"role"`
}
