// Package server exposes the terminal's operations over HTTP for the
// front-of-house UI: sign-in, menu, checkout, the live order board and the
// table floor view.
package server

import (
	"context"
	"net/http"
	"time"
)

type Server struct{ *http.Server }

func New(addr string, h http.Handler) *Server {
	return &Server{Server: &http.Server{Addr: addr, Handler: h}}
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.ListenAndServe() }()
	select {
	case <-ctx.Done():
		ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx2)
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Routes wires the handler's endpoints onto a fresh mux.
func Routes(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", h.Login)
	mux.HandleFunc("POST /logout", h.Logout)
	mux.HandleFunc("GET /session", h.CurrentSession)
	mux.HandleFunc("GET /menu", h.Menu)
	mux.HandleFunc("GET /settings", h.Settings)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /orders", h.ListOrders)
	mux.HandleFunc("POST /orders", h.CreateOrder)
	mux.HandleFunc("POST /orders/{id}/status", h.UpdateOrderStatus)
	mux.HandleFunc("GET /tables", h.Tables)
	mux.HandleFunc("POST /tables/{number}/status", h.UpdateTableStatus)
	return mux
}
