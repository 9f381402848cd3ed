package customers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/crmflow/crmflow/internal/domain"
)

type Handler struct {
	service *Service
	repo    *CustomerRepository
	logger  *slog.Logger
}

func NewHandler(service *Service, repo *CustomerRepository, logger *slog.Logger) *Handler {
	return &Handler{service: service, repo: repo, logger: logger}
}

type createCustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := h.service.Create(r.Context(), req.Name, req.Email, req.Phone)
	h.writeJSON(w, http.StatusOK, result)
}

type bulkCreateRequest struct {
	Customers []domain.CustomerInput `json:"customers"`
}

func (h *Handler) HandleBulkCreate(w http.ResponseWriter, r *http.Request) {
	var req bulkCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result := h.service.BulkCreate(r.Context(), req.Customers)
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter, err := customerFilterFromQuery(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	customers, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list customers", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, customers)
}

func customerFilterFromQuery(r *http.Request) (CustomerFilter, error) {
	q := r.URL.Query()
	filter := CustomerFilter{
		NameContains:  q.Get("name"),
		EmailContains: q.Get("email"),
		PhonePrefix:   q.Get("phonePrefix"),
		OrderBy:       q.Get("orderBy"),
	}

	gte, err := parseTimeParam(q.Get("createdAtGte"))
	if err != nil {
		return filter, err
	}
	filter.CreatedAtGte = gte

	lte, err := parseTimeParam(q.Get("createdAtLte"))
	if err != nil {
		return filter, err
	}
	filter.CreatedAtLte = lte

	return filter, nil
}

// parseTimeParam accepts RFC 3339 timestamps or plain dates.
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
