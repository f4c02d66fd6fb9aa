package api

import (
	"courier/auth"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires the public routes, the channel endpoint, and the
// credential-protected REST surface.
func NewRouter(h *Handler, tokens *auth.TokenManager, channels http.Handler) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "OK")
	}).Methods("GET")
	r.HandleFunc("/auth/register", h.Register).Methods("POST")
	r.HandleFunc("/auth/login", h.Login).Methods("POST")

	// The channel carries its own handshake; no bearer header required
	// to open it.
	r.Handle("/ws", channels).Methods("GET")

	protected := r.PathPrefix("/").Subrouter()
	protected.Use(auth.Middleware(tokens))
	protected.HandleFunc("/messages", h.SendMessage).Methods("POST")
	protected.HandleFunc("/messages/chat/{userId}", h.ChatHistory).Methods("GET")
	protected.HandleFunc("/messages/search", h.SearchMessages).Methods("GET")
	protected.HandleFunc("/users", h.ListUsers).Methods("GET")

	return r
}
