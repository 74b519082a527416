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

type FriendHandler struct {
	friendService *service.FriendService
}

func NewFriendHandler(friendService *service.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if input.Username == "" {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Username is required")
		return
	}

	req, err := h.friendService.SendRequest(r.Context(), userID, input.Username)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		case errors.Is(err, service.ErrCannotFriendSelf):
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Cannot send a friend request to yourself")
		case errors.Is(err, service.ErrRequestExists):
			writeError(w, http.StatusConflict, "REQUEST_EXISTS", "A request already exists between these users")
		case errors.Is(err, service.ErrAlreadyFriends):
			writeError(w, http.StatusConflict, "ALREADY_FRIENDS", "You are already friends")
		case errors.Is(err, service.ErrBlocked):
			writeError(w, http.StatusForbidden, "BLOCKED", "This user cannot be reached")
		default:
			log.Printf("ERROR send friend request: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.friendService.AcceptRequest)
}

func (h *FriendHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.friendService.RejectRequest)
}

func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	friends, err := h.friendService.ListFriends(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR list friends: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, friends)
}

func (h *FriendHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	incoming, err := h.friendService.ListIncomingRequests(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR list incoming requests: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	outgoing, err := h.friendService.ListOutgoingRequests(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR list outgoing requests: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"incoming": incoming,
		"outgoing": outgoing,
	})
}

func (h *FriendHandler) Unfriend(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	otherID, err := uuid.Parse(r.PathValue("userId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid user ID")
		return
	}

	if err := h.friendService.Unfriend(r.Context(), userID, otherID); err != nil {
		log.Printf("ERROR unfriend: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *FriendHandler) Block(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	blockedID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid user ID")
		return
	}

	if err := h.friendService.Block(r.Context(), userID, blockedID); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "User not found")
		case errors.Is(err, service.ErrCannotFriendSelf):
			writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Cannot block yourself")
		default:
			log.Printf("ERROR block user: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *FriendHandler) respond(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, userID, requestID uuid.UUID) error) {
	userID := middleware.GetUserID(r.Context())

	requestID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "Invalid request ID")
		return
	}

	if err := fn(r.Context(), userID, requestID); err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Friend request not found")
		case errors.Is(err, service.ErrNotRequestReceiver):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Only the request receiver can respond")
		case errors.Is(err, service.ErrRequestNotPending):
			writeError(w, http.StatusConflict, "NOT_PENDING", "Friend request is not pending")
		default:
			log.Printf("ERROR respond to friend request: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
