package rsvp

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Attendance values stored per sub-event. Blank means the sub-event does not
// apply to the invitation.
const (
	AttendanceYes = "Yes"
	AttendanceNo  = "No"
)

// GuestNameSeparator joins guest names into a single stored field.
const GuestNameSeparator = ", "

// DefaultSubEvents are the sub-event keys recognized when none are configured.
var DefaultSubEvents = []string{"sangeet", "anand_karaj", "reception"}

// SubEventResponse is the guest's answer for one sub-event.
type SubEventResponse struct {
	Key       string `json:"key"`
	Attending bool   `json:"attending"`
	PartySize int    `json:"partySize"`
}

// Submission is a guest's declared response, as received from a client.
type Submission struct {
	InviteID   string
	ExactName  string
	Responses  []SubEventResponse
	GuestNames []string
	Notes      string
}

// ResponseRecord is the persisted response for one invitation.
type ResponseRecord struct {
	Timestamp  time.Time         `json:"timestamp"`
	InviteID   string            `json:"inviteId"`
	ExactName  string            `json:"exactName"`
	Attendance map[string]string `json:"attendance"`
	PartySize  int               `json:"partySize"`
	GuestNames []string          `json:"guestNames"`
	Notes      string            `json:"notes"`
}

// Prepare validates sub against inv and builds the record to store. Out of
// range party sizes are clamped rather than rejected. Only subEvents get an
// attendance column; keys the invitation does not allow are recorded blank.
func Prepare(inv Invitation, sub Submission, subEvents []string, now time.Time) (ResponseRecord, error) {
	inviteID := strings.TrimSpace(sub.InviteID)
	exactName := strings.TrimSpace(sub.ExactName)
	if inviteID == "" || exactName == "" {
		return ResponseRecord{}, invalidSubmission("missing inviteId or exactName")
	}

	maxParty := inv.MaxPartySize
	if maxParty < 1 {
		maxParty = 1
	}

	declared := make(map[string]SubEventResponse, len(sub.Responses))
	for _, r := range sub.Responses {
		declared[strings.TrimSpace(r.Key)] = r
	}

	rec := ResponseRecord{
		Timestamp:  now.UTC(),
		InviteID:   inviteID,
		ExactName:  exactName,
		Attendance: make(map[string]string, len(subEvents)),
		PartySize:  1,
		Notes:      strings.TrimSpace(sub.Notes),
	}
	for _, key := range subEvents {
		if !inv.Allows(key) {
			rec.Attendance[key] = ""
			continue
		}
		r := declared[key]
		if !r.Attending {
			rec.Attendance[key] = AttendanceNo
			continue
		}
		rec.Attendance[key] = AttendanceYes
		if size := clamp(r.PartySize, 1, maxParty); size > rec.PartySize {
			rec.PartySize = size
		}
	}

	need := rec.PartySize - 1
	if len(sub.GuestNames) < need {
		return ResponseRecord{}, incompleteGuestList("party of %d needs %d guest name(s), got %d",
			rec.PartySize, need, len(sub.GuestNames))
	}
	rec.GuestNames = make([]string, 0, need)
	for i, name := range sub.GuestNames[:need] {
		name = strings.TrimSpace(name)
		if name == "" {
			return ResponseRecord{}, incompleteGuestList("guest name %d is blank", i+1)
		}
		// Names are stored comma-joined and could not be told apart on read.
		if strings.Contains(name, ",") {
			return ResponseRecord{}, invalidSubmission("guest name %d must not contain a comma", i+1)
		}
		rec.GuestNames = append(rec.GuestNames, name)
	}
	return rec, nil
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// Row renders the record in the fixed column order: timestamp, invite id,
// name, one attendance column per sub-event, party size, guest names, notes.
func (r ResponseRecord) Row(subEvents []string) []string {
	row := make([]string, 0, 6+len(subEvents))
	row = append(row, r.Timestamp.UTC().Format(time.RFC3339), r.InviteID, r.ExactName)
	for _, key := range subEvents {
		row = append(row, r.Attendance[key])
	}
	return append(row,
		strconv.Itoa(r.PartySize),
		strings.Join(r.GuestNames, GuestNameSeparator),
		r.Notes,
	)
}

// ResponseColumns returns the number of columns of a rendered record.
func ResponseColumns(subEvents []string) int {
	return 6 + len(subEvents)
}

// ResponseKeyColumn is the index of the invite id within a rendered record.
const ResponseKeyColumn = 1

var errShortResponseRow = errors.New("response row is too short")

// ParseResponseRow reads back a row written by Row. Unparseable timestamps
// and party sizes are left zero rather than failing the row.
func ParseResponseRow(row []string, subEvents []string) (ResponseRecord, error) {
	if len(row) < 2 || strings.TrimSpace(row[ResponseKeyColumn]) == "" {
		return ResponseRecord{}, errShortResponseRow
	}
	rec := ResponseRecord{
		InviteID:   strings.TrimSpace(row[ResponseKeyColumn]),
		ExactName:  cell(row, 2),
		Attendance: make(map[string]string, len(subEvents)),
	}
	if ts, err := time.Parse(time.RFC3339, cell(row, 0)); err == nil {
		rec.Timestamp = ts
	}
	for i, key := range subEvents {
		rec.Attendance[key] = cell(row, 3+i)
	}
	base := 3 + len(subEvents)
	rec.PartySize, _ = strconv.Atoi(strings.TrimSpace(cell(row, base)))
	rec.GuestNames = splitGuestNames(cell(row, base+1))
	rec.Notes = cell(row, base+2)
	return rec, nil
}

func splitGuestNames(s string) []string {
	names := SplitList(s)
	if names == nil {
		return []string{}
	}
	return names
}
