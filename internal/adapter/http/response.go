package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/YelzhanWeb/menuapp/internal/domain"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error        string `json:"error"`
	Notification string `json:"notification,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

func respondError(w http.ResponseWriter, status int, message, notification string) {
	respondJSON(w, status, ErrorResponse{Error: message, Notification: notification})
}

// respondServiceError maps the error taxonomy onto HTTP statuses. Mutation errors carry the
// notification text shown to the user.
func respondServiceError(w http.ResponseWriter, err error) {
	notification := ""
	var mErr *domain.MutationError
	if errors.As(err, &mErr) {
		notification = mErr.Notification
	}
	respondError(w, statusFor(err), err.Error(), notification)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidStatusTransition), errors.Is(err, domain.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCapabilityDisabled), errors.Is(err, domain.ErrNoRestaurantAssociation):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAuthMissing):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), "")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name), "")
		return uuid.Nil, false
	}
	return id, true
}

func queryID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.URL.Query().Get(name))
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("query parameter %s must be a uuid", name), "")
		return uuid.Nil, false
	}
	return id, true
}
