package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"payreports/internal/common/api"
	"payreports/internal/rates"
	"payreports/internal/report"
	"payreports/internal/report/domain"
	"payreports/internal/report/store"
)

// Handler handles report HTTP requests
type Handler struct {
	service *report.Service
}

// NewHandler creates a new report handler
func NewHandler(service *report.Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the report routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/report", h.GenerateReport)

	r.Route("/customer-report/{customerID}", func(r chi.Router) {
		r.Post("/", h.SaveCustomerReport)
		r.Get("/", h.GetCustomerReport)
	})

	return r
}

// GenerateReport handles POST /report
func (h *Handler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	batch, ok := decodeBatch(w, r)
	if !ok {
		return
	}

	result, err := h.service.Generate(r.Context(), batch)
	if err != nil {
		writeReportError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, result)
}

// SaveCustomerReport handles POST /customer-report/{customerID}
func (h *Handler) SaveCustomerReport(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerID(w, r)
	if !ok {
		return
	}

	batch, ok := decodeBatch(w, r)
	if !ok {
		return
	}

	result, err := h.service.GenerateAndSave(r.Context(), customerID, batch)
	if err != nil {
		writeReportError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, result)
}

// GetCustomerReport handles GET /customer-report/{customerID}
func (h *Handler) GetCustomerReport(w http.ResponseWriter, r *http.Request) {
	customerID, ok := customerID(w, r)
	if !ok {
		return
	}

	result, err := h.service.GetForCustomer(r.Context(), customerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.NotFound(w)
			return
		}
		api.InternalError(w)
		return
	}

	api.WriteJSON(w, http.StatusOK, result)
}

// customerID extracts the positive integer customer identifier from the
// path. Anything else is treated as an unknown resource.
func customerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil || id <= 0 {
		api.NotFound(w)
		return 0, false
	}
	return id, true
}

func decodeBatch(w http.ResponseWriter, r *http.Request) (domain.Batch, bool) {
	var batch domain.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		api.BadRequest(w, api.DetailMalformedBody)
		return nil, false
	}
	return batch, true
}

// writeReportError maps report-generation failures to their response
// category: validation details, the fixed unsupported-type body, or a 503
// when the rate source is down.
func writeReportError(w http.ResponseWriter, err error) {
	var fieldErrs domain.FieldErrors
	if errors.As(err, &fieldErrs) {
		api.WriteJSON(w, http.StatusBadRequest, fieldErrs)
		return
	}

	var unsupported *domain.UnsupportedTypeError
	if errors.As(err, &unsupported) {
		api.BadRequest(w, api.DetailUnsupportedPayment)
		return
	}

	if errors.Is(err, rates.ErrUnavailable) {
		api.ServiceUnavailable(w)
		return
	}

	api.InternalError(w)
}
