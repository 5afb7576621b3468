// internal/respond/respond.go
package respond

import (
	"encoding/json"
	"net/http"
)

// envelope is the wire format every endpoint uses.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON writes a success envelope.
func JSON(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: true, Message: message, Data: data})
}

// Error writes a failure envelope.
func Error(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Message: message})
}

// Failure writes a failure envelope for an error. Internal errors are masked;
// the caller sees only a generic message for 5xx statuses.
func Failure(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		Error(w, status, "internal server error")
		return
	}
	Error(w, status, err.Error())
}
