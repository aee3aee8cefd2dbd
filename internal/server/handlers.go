package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"pos-system/internal/cache"
	"pos-system/internal/checkout"
	"pos-system/internal/domain"
	"pos-system/internal/lifecycle"
	"pos-system/internal/logger"
	"pos-system/internal/offline"
	"pos-system/internal/state"
	"pos-system/internal/tables"
)

// Authenticator is the backend's sign-in surface.
type Authenticator interface {
	WaitstaffLogin(ctx context.Context, name, password string) (domain.Session, error)
	ManagerLogin(ctx context.Context, email, password string) (domain.Session, error)
}

type Handler struct {
	coord   *state.Coordinator
	queue   *offline.Queue
	remote  offline.Remote
	machine *lifecycle.Machine
	auth    Authenticator
	store   cache.Store
	log     *logger.Logger

	mu      sync.Mutex
	session *domain.Session
}

func NewHandler(coord *state.Coordinator, queue *offline.Queue, remote offline.Remote,
	machine *lifecycle.Machine, auth Authenticator, store cache.Store, log *logger.Logger) *Handler {
	h := &Handler{
		coord: coord, queue: queue, remote: remote,
		machine: machine, auth: auth, store: store, log: log,
	}
	// A signed-in staff member survives a terminal restart.
	var s domain.Session
	if err := store.Read(context.Background(), cache.KeyActiveStaff, &s); err == nil && s.Name != "" {
		h.session = &s
	}
	return h
}

type loginRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login signs in either a staff member (by name) or a manager (by email).
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	var (
		s   domain.Session
		err error
	)
	if req.Email != "" {
		s, err = h.auth.ManagerLogin(r.Context(), req.Email, req.Password)
	} else {
		s, err = h.auth.WaitstaffLogin(r.Context(), req.Name, req.Password)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	h.mu.Lock()
	h.session = &s
	h.mu.Unlock()
	if err := h.store.Write(r.Context(), cache.KeyActiveStaff, s); err != nil {
		h.log.Error("session_persist_failed", err, nil)
	}
	h.log.Info("staff_signed_in", map[string]any{"name": s.Name, "role": string(s.Role)})
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.session = nil
	h.mu.Unlock()
	if err := h.store.Delete(r.Context(), cache.KeyActiveStaff); err != nil {
		h.log.Error("session_clear_failed", err, nil)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession()
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "not_signed_in", "no active session")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) currentSession() (domain.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.session == nil {
		return domain.Session{}, false
	}
	return *h.session, true
}

func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"products":   h.coord.Products(),
		"categories": h.coord.Categories(),
	})
}

func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.coord.Settings())
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	pending, err := h.queue.Pending(r.Context())
	if err != nil {
		h.log.Error("pending_read_failed", err, nil)
	}
	online := h.remote.Ping(r.Context()) == nil
	writeJSON(w, http.StatusOK, map[string]any{
		"live":            h.coord.Live(),
		"online":          online,
		"pending_offline": len(pending),
	})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.coord.Orders()
	if r.URL.Query().Get("active") == "true" {
		active := orders[:0]
		for _, o := range orders {
			if o.Status.Active() {
				active = append(active, o)
			}
		}
		orders = active
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

type orderLine struct {
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Grams     float64 `json:"grams"`
}

type orderRequest struct {
	Type            string      `json:"type"`
	TableNumber     string      `json:"tableNumber"`
	CustomerName    string      `json:"customerName"`
	CustomerPhone   string      `json:"customerPhone"`
	DeliveryAddress string      `json:"deliveryAddress"`
	Payment         string      `json:"payment"`
	ChangeFor       *float64    `json:"changeFor"`
	Notes           string      `json:"notes"`
	CouponCode      string      `json:"couponCode"`
	Items           []orderLine `json:"items"`
}

// CreateOrder runs the whole checkout: cart assembly from the live product
// collection, coupon, validation, then optimistic submission. 201 means the
// backend stored it; 202 means it is parked in the offline queue.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	settings := h.coord.Settings()
	cart := checkout.NewCart()
	for _, line := range req.Items {
		p, ok := h.coord.ProductByID(line.ProductID)
		if !ok {
			writeProblem(w, http.StatusUnprocessableEntity, "validation_failed", "unknown product "+line.ProductID)
			return
		}
		var err error
		if p.ByWeight {
			err = cart.AddByWeight(p, line.Grams)
		} else {
			if line.Quantity <= 0 {
				writeProblem(w, http.StatusUnprocessableEntity, "validation_failed",
					"quantity must be positive for product "+line.ProductID)
				return
			}
			err = cart.Add(p)
			if err == nil && line.Quantity > 1 {
				cart.Adjust(p.ID, line.Quantity-1)
			}
		}
		if err != nil {
			writeError(w, err)
			return
		}
	}
	if req.CouponCode != "" {
		if err := cart.ApplyCoupon(req.CouponCode, settings); err != nil {
			writeError(w, err)
			return
		}
	}

	waitstaff := ""
	if s, ok := h.currentSession(); ok {
		waitstaff = s.Name
	}
	o, err := cart.Build(checkout.Details{
		Type:            domain.OrderType(req.Type),
		TableNumber:     req.TableNumber,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		Payment:         domain.PaymentMethod(req.Payment),
		ChangeFor:       req.ChangeFor,
		Notes:           req.Notes,
		WaitstaffName:   waitstaff,
	}, settings)
	if err != nil {
		writeError(w, err)
		return
	}

	queued, err := h.queue.Submit(r.Context(), h.remote, o)
	if err != nil && !queued {
		writeError(w, err)
		return
	}
	code := http.StatusCreated
	if queued {
		code = http.StatusAccepted
	}
	writeJSON(w, code, map[string]any{"order": o, "queued": queued})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w)
	if !ok {
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	o, found := h.coord.OrderByID(r.PathValue("id"))
	if !found {
		writeProblem(w, http.StatusNotFound, "not_found", "order not found")
		return
	}
	err := h.machine.Transition(r.Context(), o, domain.OrderStatus(req.Status), actor, h.coord.Settings())
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Tables(w http.ResponseWriter, r *http.Request) {
	orders := h.coord.Orders()
	sessions, singles := tables.Active(orders)
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"singles":  singles,
		"occupied": tables.Occupied(orders),
	})
}

// UpdateTableStatus fans one transition out over every active order on the
// table. Partial failure still reports an error; updates that landed stay.
func (h *Handler) UpdateTableStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w)
	if !ok {
		return
	}
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	orders := h.coord.Orders()
	sessions, _ := tables.Active(orders)
	number := r.PathValue("number")
	for _, s := range sessions {
		if s.TableNumber != number {
			continue
		}
		err := h.machine.TransitionAll(r.Context(), s.Orders(orders), domain.OrderStatus(req.Status), actor, h.coord.Settings())
		if err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeProblem(w, http.StatusNotFound, "not_found", "no active session on table "+number)
}

func (h *Handler) actor(w http.ResponseWriter) (lifecycle.Actor, bool) {
	s, ok := h.currentSession()
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "not_signed_in", "sign in before changing order status")
		return lifecycle.Actor{}, false
	}
	return lifecycle.Actor{Name: s.Name, Role: s.Role}, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeProblem keeps the error shape uniform (simplified problem+json).
func writeProblem(w http.ResponseWriter, code int, typ, detail string) {
	writeJSON(w, code, map[string]any{
		"type":   typ,
		"title":  http.StatusText(code),
		"status": code,
		"detail": detail,
	})
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeProblem(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	case errors.Is(err, domain.ErrBadCredentials):
		writeProblem(w, http.StatusUnauthorized, "bad_credentials", "invalid name or password")
	case errors.Is(err, domain.ErrPermissionDenied):
		writeProblem(w, http.StatusForbidden, "permission_denied", err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeProblem(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrOffline):
		writeProblem(w, http.StatusServiceUnavailable, "backend_unreachable", err.Error())
	default:
		writeProblem(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
