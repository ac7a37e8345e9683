package api

import (
	"encoding/json"
	"net/http"
)

// messageResponse is the body of every non-record reply.
type messageResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSONResponse(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, code int, message string) {
	writeJSONResponse(w, code, messageResponse{Message: message})
}
