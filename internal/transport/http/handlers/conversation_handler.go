package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/semi556tgb/pure-converse/internal/service"
	"github.com/semi556tgb/pure-converse/internal/transport/http/middleware"
	"github.com/semi556tgb/pure-converse/pkg/validator"
)

type ConversationHandler struct {
	convService *service.ConversationService
}

func NewConversationHandler(convService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{convService: convService}
}

func (h *ConversationHandler) CreateDirect(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if input.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "user_id is required")
		return
	}

	conv, err := h.convService.GetOrCreateDirect(r.Context(), userID, input.UserID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCannotConverseSelf):
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Cannot start a conversation with yourself")
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		case errors.Is(err, service.ErrNotFriends):
			writeError(w, http.StatusForbidden, "NOT_FRIENDS", "You can only message friends")
		default:
			log.Printf("ERROR create direct conversation: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input struct {
		Name      string      `json:"name"`
		FriendIDs []uuid.UUID `json:"friend_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateGroupName(input.Name); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	conv, err := h.convService.CreateGroup(r.Context(), userID, input.Name, input.FriendIDs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidGroupName),
			errors.Is(err, service.ErrNoInvitees),
			errors.Is(err, service.ErrTooManyInvitees),
			errors.Is(err, service.ErrInvalidInvitees):
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		case errors.Is(err, service.ErrNotFriends):
			writeError(w, http.StatusForbidden, "NOT_FRIENDS", "All invitees must be your friends")
		default:
			log.Printf("ERROR create group: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, conv)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	summaries, err := h.convService.ListForUser(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR list conversations: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, summaries)
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid conversation ID")
		return
	}

	summary, err := h.convService.Get(r.Context(), convID, userID)
	if err != nil {
		h.writeConvError(w, "get conversation", err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

func (h *ConversationHandler) Rename(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid conversation ID")
		return
	}

	var input struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if err := h.convService.Rename(r.Context(), convID, userID, input.Name); err != nil {
		h.writeConvError(w, "rename conversation", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid conversation ID")
		return
	}

	if err := h.convService.DeleteGroup(r.Context(), convID, userID); err != nil {
		h.writeConvError(w, "delete conversation", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) KickMember(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	convID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid conversation ID")
		return
	}
	targetID, err := uuid.Parse(r.PathValue("uid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid user ID")
		return
	}

	if err := h.convService.KickMember(r.Context(), convID, userID, targetID); err != nil {
		h.writeConvError(w, "kick member", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) writeConvError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
	case errors.Is(err, service.ErrMemberNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Member not found")
	case errors.Is(err, service.ErrNotParticipant):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this conversation")
	case errors.Is(err, service.ErrNotCreator):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Only the conversation creator can do that")
	case errors.Is(err, service.ErrNotGroup):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Conversation is not a group")
	case errors.Is(err, service.ErrInvalidGroupName):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Group name cannot be empty")
	case errors.Is(err, service.ErrCannotKickCreator):
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "The group creator cannot be kicked")
	default:
		log.Printf("ERROR %s: %v", op, err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
	}
}
