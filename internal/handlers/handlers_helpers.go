package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"nexus-backend/internal/auth"
	"nexus-backend/internal/conversation"
	"nexus-backend/internal/integrations/openai"
	"nexus-backend/internal/services"
	"nexus-backend/internal/store"
	"nexus-backend/pkg/httputil"
)

// errUserMismatch is returned when a request names a user other than the authenticated one.
var errUserMismatch = errors.New("user_id does not match the authenticated user")

const upstreamErrorMessage = "could not reach the assistant right now"

// parseOptionalUUID parses an id field. Empty means absent and yields uuid.Nil.
func parseOptionalUUID(field, value string) (uuid.UUID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a valid UUID", conversation.ErrInvalidRequest, field)
	}
	return id, nil
}

// resolveUserID picks the caller's user id. An authenticated caller always
// acts as itself; a supplied user_id must then match.
func resolveUserID(r *http.Request, supplied string) (uuid.UUID, error) {
	requested, err := parseOptionalUUID("user_id", supplied)
	if err != nil {
		return uuid.Nil, err
	}
	authed, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		return requested, nil
	}
	if requested != uuid.Nil && requested != authed {
		return uuid.Nil, errUserMismatch
	}
	return authed, nil
}

// callerID is the authenticated user, or uuid.Nil when the API runs without auth.
func callerID(r *http.Request) uuid.UUID {
	id, _ := auth.GetUserIDFromContext(r.Context())
	return id
}

// firstQueryValue returns the first non-empty query parameter among keys.
func firstQueryValue(r *http.Request, keys ...string) string {
	q := r.URL.Query()
	for _, key := range keys {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			return v
		}
	}
	return ""
}

// respondServiceError maps service errors to HTTP status codes.
func respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, openai.ErrUpstreamUnavailable), errors.Is(err, openai.ErrUpstreamMalformed):
		log.Printf("ERROR [%s] upstream failure: %v", op, err)
		httputil.RespondError(w, http.StatusInternalServerError, upstreamErrorMessage) // 500
	case errors.Is(err, errUserMismatch):
		httputil.RespondError(w, http.StatusForbidden, err.Error()) // 403
	case errors.Is(err, conversation.ErrMissingSystemPrompt):
		httputil.RespondError(w, http.StatusBadRequest, conversation.ErrMissingSystemPrompt.Error()) // 400
	case errors.Is(err, conversation.ErrInvalidRequest),
		errors.Is(err, store.ErrMissingScope),
		errors.Is(err, services.ErrUnknownSubExpert):
		httputil.RespondError(w, http.StatusBadRequest, err.Error()) // 400
	case errors.Is(err, store.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, store.ErrNotFound.Error()) // 404
	default:
		log.Printf("ERROR [%s] %v", op, err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error") // 500
	}
}
