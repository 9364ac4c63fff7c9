package api

import (
	"encoding/json"
	"net/http"
)

// Detail messages used across the report endpoints. These are part of the
// wire contract and must not be reworded.
const (
	DetailUnsupportedPayment = "Unsupported type of payment"
	DetailServiceUnavailable = "Service temporarily unavailable, try again later."
	DetailNotFound           = "Not found."
	DetailMalformedBody      = "Malformed request body."
	DetailInternalError      = "Internal server error."
)

// Detail is the single-message error body, e.g. {"detail": "Not found."}
type Detail struct {
	Detail string `json:"detail"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteDetail writes an error body with a fixed detail message
func WriteDetail(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, Detail{Detail: detail})
}

// NotFound writes a 404 response
func NotFound(w http.ResponseWriter) {
	WriteDetail(w, http.StatusNotFound, DetailNotFound)
}

// BadRequest writes a 400 response
func BadRequest(w http.ResponseWriter, detail string) {
	WriteDetail(w, http.StatusBadRequest, detail)
}

// ServiceUnavailable writes a 503 response
func ServiceUnavailable(w http.ResponseWriter) {
	WriteDetail(w, http.StatusServiceUnavailable, DetailServiceUnavailable)
}

// InternalError writes a 500 response
func InternalError(w http.ResponseWriter) {
	WriteDetail(w, http.StatusInternalServerError, DetailInternalError)
}
