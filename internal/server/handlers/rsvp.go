package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/AlexTLDR/guestlist/internal/rsvp"
)

const maxBodyBytes = 64 << 10

// submitRequest is the POST /api/rsvp body. Sub-event answers arrive as
// top-level fields named after the sub-event key and are read separately.
type submitRequest struct {
	InviteID   string          `json:"inviteId"`
	ExactName  string          `json:"exactName"`
	PartySize  json.RawMessage `json:"party_size"`
	GuestNames json.RawMessage `json:"guest_names"`
	Notes      string          `json:"notes"`
	Events     []eventRequest  `json:"events"`
}

type eventRequest struct {
	Key       string `json:"key"`
	Attending bool   `json:"attending"`
	PartySize int    `json:"partySize"`
}

type lookupRequest struct {
	Name string `json:"name"`
}

// checkRSVPDeadline validates if the RSVP deadline has passed
func checkRSVPDeadline(s Server, w http.ResponseWriter, r *http.Request) bool {
	if s.GetConfig().DeadlinePassed(time.Now()) {
		writeError(s, w, r, &rsvp.Error{Kind: KindDeadlinePassed, Message: "RSVP deadline has passed"})
		return false
	}
	return true
}

// HandleInvitations returns the invitation list.
func HandleInvitations(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		invites, err := s.GetService().Invitations(r.Context())
		if err != nil {
			writeError(s, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"invites": invites})
	}
}

// HandleLookup resolves a guest-entered name to its invitation.
func HandleLookup(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !checkRSVPDeadline(s, w, r) {
			return
		}

		var req lookupRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(s, w, r, err)
			return
		}

		inv, err := s.GetService().Lookup(r.Context(), req.Name)
		if err != nil {
			writeError(s, w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"invite": inv})
	}
}

// HandleRSVPSubmit validates and stores a response.
func HandleRSVPSubmit(s Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !checkRSVPDeadline(s, w, r) {
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeError(s, w, r, badRequest("failed to read body: %v", err))
			return
		}

		sub, err := parseSubmission(body, s.GetService().SubEvents())
		if err != nil {
			writeError(s, w, r, err)
			return
		}

		rec, err := s.GetService().Submit(r.Context(), sub)
		if err != nil {
			writeError(s, w, r, err)
			return
		}

		s.GetLogger().InfoContext(r.Context(), "rsvp submitted",
			"invite_id", rec.InviteID, "party_size", rec.PartySize)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "record": rec})
	}
}

// parseSubmission converts the wire body into a Submission. Entries in
// "events" win over the flat per-key fields; a flat "Yes" takes the overall
// party_size.
func parseSubmission(body []byte, subEvents []string) (rsvp.Submission, error) {
	var req submitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return rsvp.Submission{}, badRequest("invalid JSON body: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return rsvp.Submission{}, badRequest("invalid JSON body: %v", err)
	}

	partySize, err := parsePartySize(req.PartySize)
	if err != nil {
		return rsvp.Submission{}, err
	}
	guestNames, err := parseGuestNames(req.GuestNames)
	if err != nil {
		return rsvp.Submission{}, err
	}

	sub := rsvp.Submission{
		InviteID:   req.InviteID,
		ExactName:  req.ExactName,
		GuestNames: guestNames,
		Notes:      req.Notes,
	}

	seen := make(map[string]bool, len(req.Events))
	for _, ev := range req.Events {
		key := strings.TrimSpace(ev.Key)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		sub.Responses = append(sub.Responses, rsvp.SubEventResponse{
			Key:       key,
			Attending: ev.Attending,
			PartySize: ev.PartySize,
		})
	}

	for _, key := range subEvents {
		raw, ok := fields[key]
		if !ok || seen[key] {
			continue
		}
		attending, answered, err := parseAttendance(key, raw)
		if err != nil {
			return rsvp.Submission{}, err
		}
		if !answered {
			continue
		}
		resp := rsvp.SubEventResponse{Key: key, Attending: attending}
		if attending {
			resp.PartySize = partySize
		}
		sub.Responses = append(sub.Responses, resp)
	}

	return sub, nil
}

// parseAttendance reads a "Yes"/"No" answer. Blank means unanswered.
// Booleans are accepted too.
func parseAttendance(key string, raw json.RawMessage) (attending, answered bool, err error) {
	if string(raw) == "null" {
		return false, false, nil
	}
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return b, true, nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return false, false, badRequest("%s must be %q or %q", key, rsvp.AttendanceYes, rsvp.AttendanceNo)
	}
	switch {
	case strings.TrimSpace(str) == "":
		return false, false, nil
	case strings.EqualFold(strings.TrimSpace(str), rsvp.AttendanceYes):
		return true, true, nil
	case strings.EqualFold(strings.TrimSpace(str), rsvp.AttendanceNo):
		return false, true, nil
	default:
		return false, false, badRequest("%s must be %q or %q", key, rsvp.AttendanceYes, rsvp.AttendanceNo)
	}
}

// parsePartySize accepts a number or a numeric string. Missing or blank is 0.
func parsePartySize(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return parseInt(n.String())
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0, badRequest("party_size must be a number")
	}
	if strings.TrimSpace(str) == "" {
		return 0, nil
	}
	return parseInt(strings.TrimSpace(str))
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, badRequest("party_size must be a whole number")
		}
		n = int(f)
	}
	return n, nil
}

// parseGuestNames accepts a comma-delimited string or an array of strings.
func parseGuestNames(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		return names, nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return nil, badRequest("guest_names must be a string or a list of strings")
	}
	if strings.TrimSpace(str) == "" {
		return nil, nil
	}
	return strings.Split(str, ","), nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("empty body")
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

func badRequest(format string, args ...any) error {
	return &rsvp.Error{Kind: rsvp.KindInvalidSubmission, Message: fmt.Sprintf(format, args...)}
}
