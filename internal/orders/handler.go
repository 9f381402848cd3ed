package orders

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

type Handler struct {
	service *Service
	repo    *OrderRepository
	logger  *slog.Logger
}

func NewHandler(service *Service, repo *OrderRepository, logger *slog.Logger) *Handler {
	return &Handler{service: service, repo: repo, logger: logger}
}

type createOrderRequest struct {
	CustomerID string     `json:"customer_id"`
	ProductIDs []string   `json:"product_ids"`
	OrderDate  *time.Time `json:"order_date"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := h.service.Create(r.Context(), req.CustomerID, req.ProductIDs, req.OrderDate)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := orderFilterFromQuery(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

func orderFilterFromQuery(r *http.Request) (OrderFilter, error) {
	q := r.URL.Query()
	filter := OrderFilter{
		CustomerName:      q.Get("customerName"),
		ProductName:       q.Get("productName"),
		ContainsProductID: q.Get("productId"),
		OrderBy:           q.Get("orderBy"),
	}

	var err error
	if filter.TotalGte, err = parseDecimalParam(q.Get("totalGte")); err != nil {
		return filter, err
	}
	if filter.TotalLte, err = parseDecimalParam(q.Get("totalLte")); err != nil {
		return filter, err
	}
	if filter.OrderDateGte, err = parseTimeParam(q.Get("orderDateGte")); err != nil {
		return filter, err
	}
	if filter.OrderDateLte, err = parseTimeParam(q.Get("orderDateLte")); err != nil {
		return filter, err
	}

	return filter, nil
}

func parseDecimalParam(value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseTimeParam(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	var lastErr error
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return &ts, nil
		}
		lastErr = err
	}
	return nil, lastErr
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
