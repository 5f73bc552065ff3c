package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/model"
)

type orderLineView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	LinePrice string `json:"line_price"`
}

type orderView struct {
	ID          string          `json:"id"`
	ChatID      int64           `json:"chat_id"`
	CustomerID  string          `json:"customer_id"`
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Lines       []orderLineView `json:"lines"`
	Total       string          `json:"total"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	ContactedAt *time.Time      `json:"contacted_at,omitempty"`
}

func toOrderView(o *model.Order) orderView {
	lines := make([]orderLineView, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLineView{ProductID: l.ProductID, Name: l.Name, Quantity: l.Quantity, LinePrice: l.LinePrice.StringFixed(2)})
	}
	return orderView{
		ID:          o.ID,
		ChatID:      o.ChatID,
		CustomerID:  o.CustomerID,
		Name:        o.Name,
		Email:       o.Email,
		Phone:       o.Phone,
		Lines:       lines,
		Total:       o.Total.StringFixed(2),
		Status:      string(o.Status),
		CreatedAt:   o.CreatedAt,
		ContactedAt: o.ContactedAt,
	}
}

// GET /api/v1/orders?status=pending_contact&limit=50
func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	status := model.OrderStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = model.OrderStatusPendingContact
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	list, err := s.orders.List(r.Context(), status, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	items := make([]orderView, 0, len(list))
	for _, o := range list {
		items = append(items, toOrderView(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o))
}

func (s *Server) markContacted(w http.ResponseWriter, r *http.Request) {
	o, err := s.orders.MarkContacted(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	chatID, err := strconv.ParseInt(chi.URLParam(r, "chatID"), 10, 64)
	if err != nil || chatID == 0 {
		writeError(w, http.StatusBadRequest, "invalid chat id")
		return
	}
	sess, err := s.sessions.Session(r.Context(), chatID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("admin request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
