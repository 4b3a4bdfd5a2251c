package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fernwood/stockroom/internal/app"
)

func (s *server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	page := parsePage(r)
	result, err := s.deps.Orders.List(r.Context(), parseOrderFilter(r), parseSort(r), page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{
		Data:       result.Orders,
		Pagination: pagination{Page: page.Number, Limit: page.Limit, Total: result.Total},
	})
}

func (s *server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := s.deps.Orders.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

type createOrderRequest struct {
	CustomerID string `json:"customer_id"`
	Status     string `json:"status"`
	TotalCents int64  `json:"total_cents"`
	Currency   string `json:"currency"`
}

func (s *server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := s.deps.Orders.Create(r.Context(), app.CreateOrderOpts{
		CustomerID: req.CustomerID,
		Status:     req.Status,
		TotalCents: req.TotalCents,
		Currency:   req.Currency,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

type updateOrderRequest struct {
	Status     *string `json:"status"`
	TotalCents *int64  `json:"total_cents"`
}

func (s *server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req updateOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	o, err := s.deps.Orders.Update(r.Context(), chi.URLParam(r, "id"), app.UpdateOrderOpts{
		Status:     req.Status,
		TotalCents: req.TotalCents,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (s *server) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Orders.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
