package products

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
)

type Handler struct {
	service *Service
	repo    *ProductRepository
	logger  *slog.Logger
}

func NewHandler(service *Service, repo *ProductRepository, logger *slog.Logger) *Handler {
	return &Handler{service: service, repo: repo, logger: logger}
}

type createProductRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := h.service.Create(r.Context(), req.Name, req.Price, req.Stock)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleRestock(w http.ResponseWriter, r *http.Request) {
	result := h.service.RestockLowStock(r.Context())
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilterFromQuery(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	products, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func productFilterFromQuery(r *http.Request) (ProductFilter, error) {
	q := r.URL.Query()
	filter := ProductFilter{
		NameContains: q.Get("name"),
		OrderBy:      q.Get("orderBy"),
		LowStock:     q.Get("lowStock") == "true",
	}

	var err error
	if filter.PriceGte, err = parseDecimalParam(q.Get("priceGte")); err != nil {
		return filter, err
	}
	if filter.PriceLte, err = parseDecimalParam(q.Get("priceLte")); err != nil {
		return filter, err
	}
	if filter.StockGte, err = parseIntParam(q.Get("stockGte")); err != nil {
		return filter, err
	}
	if filter.StockLte, err = parseIntParam(q.Get("stockLte")); err != nil {
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

func parseIntParam(value string) (*int, error) {
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, err
	}
	return &n, nil
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
