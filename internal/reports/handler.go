// Package reports exposes the aggregate counters consumed by the weekly
// report job. The numbers are recomputed from the store on every call.
package reports

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/crmflow/crmflow/internal/customers"
	"github.com/crmflow/crmflow/internal/domain"
	"github.com/crmflow/crmflow/internal/orders"
)

type Handler struct {
	customers *customers.CustomerRepository
	orders    *orders.OrderRepository
	logger    *slog.Logger
}

func NewHandler(customers *customers.CustomerRepository, orders *orders.OrderRepository, logger *slog.Logger) *Handler {
	return &Handler{customers: customers, orders: orders, logger: logger}
}

func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totalCustomers, err := h.customers.Count(ctx)
	if err != nil {
		h.logger.Error("failed to count customers", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	totalOrders, err := h.orders.Count(ctx)
	if err != nil {
		h.logger.Error("failed to count orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	revenue, err := h.orders.SumRevenue(ctx)
	if err != nil {
		h.logger.Error("failed to sum revenue", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, domain.Stats{
		TotalCustomers: totalCustomers,
		TotalOrders:    totalOrders,
		TotalRevenue:   revenue,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
