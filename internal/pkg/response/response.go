package response

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON body of an error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes data as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already written; nothing more we can do here.
			http.Error(w, "failed to encode response", http.StatusInternalServerError)
		}
	}
}

// Success writes a 200 OK JSON response.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Error writes an error JSON response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}
