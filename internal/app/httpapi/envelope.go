package httpapi

import (
	"encoding/json"
	"net/http"
)

// envelope is the body of every API response. Status mirrors the HTTP
// status line.
type envelope struct {
	Status int         `json:"status"`
	Data   interface{} `json:"data,omitempty"`
	Error  string      `json:"error,omitempty"`
}

type messageData struct {
	Message string `json:"message"`
	UserID  int64  `json:"userId,omitempty"`
}

// Client-facing messages.
const (
	msgLoaded       = "Data loaded successfully"
	msgCreated      = "User created successfully"
	msgDeletedAll   = "All users deleted successfully"
	msgDeleted      = "User deleted successfully"
	msgUserNotFound = "User not found"
	msgUserExists   = "User already exists"
	msgNoEndpoint   = "API endpoint not found"
	msgNotFound     = "Not found"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	write(w, envelope{Status: status, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	write(w, envelope{Status: status, Error: msg})
}

func write(w http.ResponseWriter, env envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.Status)
	_ = json.NewEncoder(w).Encode(env)
}

// NotFound renders the generic 404 envelope.
func NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, msgNotFound)
}
