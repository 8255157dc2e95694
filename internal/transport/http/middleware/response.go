package middleware

import (
	"encoding/json"
	"net/http"
)

// errorBody matches the handler package's MessageEnvelope so clients see one
// error shape whether a request stops in middleware or in a handler.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}
