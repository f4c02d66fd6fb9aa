// Package api is the stateless request/response surface: credential
// issuance, message send, history, search, and the user directory.
package api

import (
	"courier/auth"
	"courier/domain"
	courerrors "courier/errors"
	"courier/services"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

type Handler struct {
	log         *slog.Logger
	authService services.IAuthService
	delivery    services.IDeliveryService
}

func NewHandler(log *slog.Logger, authService services.IAuthService, delivery services.IDeliveryService) *Handler {
	return &Handler{log: log, authService: authService, delivery: delivery}
}

type credentialsResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, courerrors.ErrMissingFields)
		return
	}

	token, user, err := h.authService.Register(req.Username, req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, credentialsResponse{Token: string(token), UserID: user.ID.String()})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, courerrors.ErrInvalidCredentials)
		return
	}

	token, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, credentialsResponse{Token: string(token), UserID: user.ID.String()})
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, courerrors.ErrNotAuthenticated)
		return
	}

	var req struct {
		ReceiverID string `json:"receiverId"`
		Content    string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, courerrors.ErrMissingFields)
		return
	}

	record, err := h.delivery.Send(r.Context(), userID, req.ReceiverID, req.Content)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]domain.ConfirmedMessage{"message": record})
}

func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, courerrors.ErrNotAuthenticated)
		return
	}

	records, err := h.delivery.History(r.Context(), userID, mux.Vars(r)["userId"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.ConfirmedMessage{}
	}
	h.writeJSON(w, http.StatusOK, map[string][]domain.ConfirmedMessage{"messages": records})
}

func (h *Handler) SearchMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, courerrors.ErrNotAuthenticated)
		return
	}

	records, err := h.delivery.Search(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.ConfirmedMessage{}
	}
	h.writeJSON(w, http.StatusOK, map[string][]domain.ConfirmedMessage{"messages": records})
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, courerrors.ErrNotAuthenticated)
		return
	}

	users, err := h.delivery.ListUsers(userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	h.writeJSON(w, http.StatusOK, map[string][]domain.User{"users": users})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	type errorBody struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	status := courerrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "error", err)
	}
	h.writeJSON(w, status, map[string]errorBody{"error": {
		Message: courerrors.Message(err),
		Code:    courerrors.CodeOf(err),
	}})
}
