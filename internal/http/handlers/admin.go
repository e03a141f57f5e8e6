package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/pharmacare-bot/internal/audit"
	"github.com/wolfman30/pharmacare-bot/internal/catalog"
	"github.com/wolfman30/pharmacare-bot/internal/orders"
	"github.com/wolfman30/pharmacare-bot/internal/session"
	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

type SessionLookup interface {
	Lookup(ctx context.Context, userID string) (session.Session, error)
}

// OrderLookup finds orders by display id, newest first.
type OrderLookup interface {
	Find(ctx context.Context, id string) ([]orders.Order, error)
}

type TurnLister interface {
	ListTurns(ctx context.Context, userID string, limit int) ([]audit.Turn, error)
}

// CartLine is one priced cart entry in the admin session view.
type CartLine struct {
	ItemID  string        `json:"item_id"`
	Name    string        `json:"name"`
	Price   catalog.Money `json:"price"`
	InStock bool          `json:"in_stock"`
}

type SessionResponse struct {
	session.Session
	CartLines []CartLine    `json:"cart_lines"`
	CartTotal catalog.Money `json:"cart_total"`
}

type TurnsResponse struct {
	UserID string       `json:"user_id"`
	Turns  []audit.Turn `json:"turns"`
}

// AdminHandler serves the read-only admin API. A nil turns lister disables
// the turns endpoint.
type AdminHandler struct {
	sessions SessionLookup
	orders   OrderLookup
	turns    TurnLister
	catalog  *catalog.Catalog
	logger   *logging.Logger
}

func NewAdminHandler(sessions SessionLookup, orderLookup OrderLookup, turns TurnLister, cat *catalog.Catalog, logger *logging.Logger) *AdminHandler {
	if sessions == nil || orderLookup == nil || cat == nil {
		panic("handlers: admin needs sessions, orders and a catalog")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{sessions: sessions, orders: orderLookup, turns: turns, catalog: cat, logger: logger}
}

// GetSession handles GET /admin/sessions/{phone}.
func (h *AdminHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	phone := digitsOnly(chi.URLParam(r, "phone"))
	if phone == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}
	s, err := h.sessions.Lookup(r.Context(), phone)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err != nil {
		h.logger.Error("admin: session lookup failed", "error", err, "phone", phone)
		writeError(w, http.StatusInternalServerError, "session lookup failed")
		return
	}

	resp := SessionResponse{Session: s, CartLines: []CartLine{}, CartTotal: h.catalog.Total(s.Cart)}
	for _, it := range h.catalog.Lines(s.Cart) {
		resp.CartLines = append(resp.CartLines, CartLine{ItemID: it.ID, Name: it.Name, Price: it.Price, InStock: it.InStock()})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetOrder handles GET /admin/orders/{orderID}?phone=N. Display ids repeat,
// so the newest match is returned; phone narrows it to one customer.
func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "orderID")
	found, err := h.orders.Find(r.Context(), id)
	if err != nil {
		h.logger.Error("admin: order lookup failed", "error", err, "order_id", id)
		writeError(w, http.StatusInternalServerError, "order lookup failed")
		return
	}
	if phone := digitsOnly(r.URL.Query().Get("phone")); phone != "" {
		var matched []orders.Order
		for _, o := range found {
			if digitsOnly(o.CustomerPhone) == phone {
				matched = append(matched, o)
			}
		}
		found = matched
	}
	if len(found) == 0 {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	if len(found) > 1 {
		h.logger.Warn("admin: display order id matches several orders", "order_id", id, "matches", len(found))
	}
	writeJSON(w, http.StatusOK, found[0])
}

// ListTurns handles GET /admin/turns/{phone}?limit=N.
func (h *AdminHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	if h.turns == nil {
		writeError(w, http.StatusNotImplemented, "audit log not configured")
		return
	}
	phone := digitsOnly(chi.URLParam(r, "phone"))
	if phone == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	turns, err := h.turns.ListTurns(ctx, phone, limit)
	if err != nil {
		h.logger.Error("admin: list turns failed", "error", err, "phone", phone)
		writeError(w, http.StatusInternalServerError, "list turns failed")
		return
	}
	if turns == nil {
		turns = []audit.Turn{}
	}
	writeJSON(w, http.StatusOK, TurnsResponse{UserID: phone, Turns: turns})
}
