package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/semi556tgb/pure-converse/internal/service"
	"github.com/semi556tgb/pure-converse/internal/transport/http/middleware"
)

type CallHandler struct {
	callService *service.CallService
}

func NewCallHandler(callService *service.CallService) *CallHandler {
	return &CallHandler{callService: callService}
}

func (h *CallHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid conversation ID")
		return
	}

	var input struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	snapshot, err := h.callService.Initiate(r.Context(), convID, userID, input.Type)
	if err != nil {
		h.writeCallError(w, "initiate call", err)
		return
	}

	writeJSON(w, http.StatusCreated, snapshot)
}

func (h *CallHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	callID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid call ID")
		return
	}

	snapshot, err := h.callService.Join(r.Context(), callID, userID)
	if err != nil {
		h.writeCallError(w, "join call", err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (h *CallHandler) Decline(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	callID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid call ID")
		return
	}

	if err := h.callService.Decline(r.Context(), callID, userID); err != nil {
		h.writeCallError(w, "decline call", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CallHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	callID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid call ID")
		return
	}

	if err := h.callService.Leave(r.Context(), callID, userID); err != nil {
		h.writeCallError(w, "leave call", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CallHandler) SetMute(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, h.callService.SetMute)
}

func (h *CallHandler) SetVideo(w http.ResponseWriter, r *http.Request) {
	h.setFlag(w, r, h.callService.SetVideo)
}

func (h *CallHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	callID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid call ID")
		return
	}

	snapshot, err := h.callService.Get(r.Context(), callID, userID)
	if err != nil {
		h.writeCallError(w, "get call", err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (h *CallHandler) setFlag(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, callID, userID uuid.UUID, enabled bool) error) {
	userID := middleware.GetUserID(r.Context())

	callID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid call ID")
		return
	}

	var input struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := fn(r.Context(), callID, userID, input.Enabled); err != nil {
		h.writeCallError(w, "update call participant", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CallHandler) writeCallError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrCallNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Call not found")
	case errors.Is(err, service.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
	case errors.Is(err, service.ErrCallNotActive):
		writeError(w, http.StatusConflict, "CALL_NOT_ACTIVE", "Call is no longer active")
	case errors.Is(err, service.ErrCallInProgress):
		writeError(w, http.StatusConflict, "CALL_IN_PROGRESS", "Conversation already has an active call")
	case errors.Is(err, service.ErrAlreadyInCall):
		writeError(w, http.StatusConflict, "ALREADY_IN_CALL", "You already joined this call")
	case errors.Is(err, service.ErrNotParticipant):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this conversation")
	case errors.Is(err, service.ErrNotCallParticipant):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not in this call")
	case errors.Is(err, service.ErrInvalidCallType):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Call type must be voice or video")
	default:
		log.Printf("ERROR %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
