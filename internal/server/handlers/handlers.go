package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AlexTLDR/guestlist/internal/config"
	"github.com/AlexTLDR/guestlist/internal/rsvp"
)

// Server interface defines the methods needed by handlers
type Server interface {
	GetService() *rsvp.Service
	GetConfig() *config.Config
	GetLogger() *slog.Logger
}

// KindDeadlinePassed is reported once RSVP_DEADLINE is behind us.
const KindDeadlinePassed rsvp.Kind = "deadline_passed"

type errorResponse struct {
	Kind  rsvp.Kind `json:"kind"`
	Error string    `json:"error"`
}

// statusFor maps an error kind to an HTTP status.
func statusFor(kind rsvp.Kind) int {
	switch kind {
	case rsvp.KindNotFound:
		return http.StatusNotFound
	case rsvp.KindInvalidSubmission:
		return http.StatusBadRequest
	case rsvp.KindIncompleteGuestList:
		return http.StatusUnprocessableEntity
	case rsvp.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	case KindDeadlinePassed:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes err as a JSON error body. Store failures are logged with
// their cause; the client only sees the kind.
func writeError(s Server, w http.ResponseWriter, r *http.Request, err error) {
	kind := rsvp.KindOf(err)
	status := statusFor(kind)
	msg := err.Error()

	var rerr *rsvp.Error
	if errors.As(err, &rerr) {
		msg = rerr.Message
	}
	if status >= http.StatusInternalServerError {
		s.GetLogger().ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		if kind == "" {
			kind = "internal"
			msg = "internal error"
		}
	}

	writeJSON(w, status, errorResponse{Kind: kind, Error: msg})
}

// HandleHealth reports liveness.
func HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
