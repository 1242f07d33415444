package handlers

import (
	"net/http"

	"github.com/AlexTLDR/guestlist/internal/rsvp"
)

// AdminServer extends Server with admin-specific methods
type AdminServer interface {
	Server
	GetCurrentUser(r *http.Request) (string, string)
}

type adminResponses struct {
	User      adminUser             `json:"user"`
	SubEvents []string              `json:"subEvents"`
	Total     int                   `json:"total"`
	Attending map[string]int        `json:"attending"`
	Responses []rsvp.ResponseRecord `json:"responses"`
}

type adminUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// HandleAdminResponses lists every stored response with per sub-event
// headcounts.
func HandleAdminResponses(s AdminServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := s.GetService().Responses(r.Context())
		if err != nil {
			writeError(s, w, r, err)
			return
		}

		email, name := s.GetCurrentUser(r)
		subEvents := s.GetService().SubEvents()
		writeJSON(w, http.StatusOK, adminResponses{
			User:      adminUser{Email: email, Name: name},
			SubEvents: subEvents,
			Total:     len(records),
			Attending: headcounts(records, subEvents),
			Responses: records,
		})
	}
}

// headcounts sums party sizes of records attending each sub-event.
func headcounts(records []rsvp.ResponseRecord, subEvents []string) map[string]int {
	counts := make(map[string]int, len(subEvents))
	for _, key := range subEvents {
		counts[key] = 0
	}
	for _, rec := range records {
		for _, key := range subEvents {
			if rec.Attendance[key] == rsvp.AttendanceYes {
				counts[key] += rec.PartySize
			}
		}
	}
	return counts
}
