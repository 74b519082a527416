package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/semi556tgb/pure-converse/internal/service"
	"github.com/semi556tgb/pure-converse/internal/transport/http/middleware"
)

type MessageHandler struct {
	msgService *service.MessageService
}

func NewMessageHandler(msgService *service.MessageService) *MessageHandler {
	return &MessageHandler{msgService: msgService}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid conversation ID")
		return
	}

	var input service.SendInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	input.ConversationID = convID

	msg, err := h.msgService.Send(r.Context(), userID, input)
	if err != nil {
		h.writeMsgError(w, "send message", err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid conversation ID")
		return
	}

	var before *uuid.UUID
	if b := r.URL.Query().Get("before"); b != "" {
		id, err := uuid.Parse(b)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid before cursor")
			return
		}
		before = &id
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	resp, err := h.msgService.List(r.Context(), userID, convID, before, limit)
	if err != nil {
		h.writeMsgError(w, "list messages", err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	msgID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid message ID")
		return
	}

	var input struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	msg, err := h.msgService.Edit(r.Context(), userID, msgID, input.Content)
	if err != nil {
		h.writeMsgError(w, "edit message", err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	msgID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid message ID")
		return
	}

	if err := h.msgService.Delete(r.Context(), userID, msgID); err != nil {
		h.writeMsgError(w, "delete message", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) React(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	msgID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid message ID")
		return
	}

	var input struct {
		Emoji string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	groups, added, err := h.msgService.React(r.Context(), userID, msgID, input.Emoji)
	if err != nil {
		h.writeMsgError(w, "react to message", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"added":     added,
		"reactions": groups,
	})
}

func (h *MessageHandler) writeMsgError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
	case errors.Is(err, service.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Message not found")
	case errors.Is(err, service.ErrNotParticipant):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this conversation")
	case errors.Is(err, service.ErrBlocked):
		writeError(w, http.StatusForbidden, "BLOCKED", "This conversation is blocked")
	case errors.Is(err, service.ErrNotMessageSender):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Only the message sender can do that")
	case errors.Is(err, service.ErrEmptyContent),
		errors.Is(err, service.ErrContentTooLong),
		errors.Is(err, service.ErrInvalidMessageType),
		errors.Is(err, service.ErrBadReplyTarget),
		errors.Is(err, service.ErrInvalidEmoji):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	default:
		log.Printf("ERROR %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
