package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/semi556tgb/pure-converse/internal/service"
	"github.com/semi556tgb/pure-converse/internal/transport/http/middleware"
)

type PresenceHandler struct {
	presenceService *service.PresenceService
}

func NewPresenceHandler(presenceService *service.PresenceService) *PresenceHandler {
	return &PresenceHandler{presenceService: presenceService}
}

func (h *PresenceHandler) SetTyping(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid conversation ID")
		return
	}

	var input struct {
		Typing bool `json:"typing"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.presenceService.SetTyping(r.Context(), userID, convID, input.Typing); err != nil {
		h.writePresenceError(w, "set typing", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PresenceHandler) ListTyping(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid conversation ID")
		return
	}

	typists, err := h.presenceService.ListTyping(r.Context(), userID, convID)
	if err != nil {
		h.writePresenceError(w, "list typing", err)
		return
	}

	writeJSON(w, http.StatusOK, typists)
}

func (h *PresenceHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.presenceService.SetStatus(r.Context(), userID, input.Status); err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Status must be online, away or offline")
			return
		}
		log.Printf("ERROR set status: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *PresenceHandler) writePresenceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
	case errors.Is(err, service.ErrNotParticipant):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this conversation")
	case errors.Is(err, service.ErrBlocked):
		writeError(w, http.StatusForbidden, "BLOCKED", "This conversation is blocked")
	default:
		log.Printf("ERROR %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
