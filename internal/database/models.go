package database

import (
	"encoding/json"
	"fmt"
)

// Invitation mirrors an invitations row. Fields are kept as entered so that
// parsing stays with the directory.
type Invitation struct {
	InviteID      string
	ExactName     string
	MaxPartySize  string
	AllowedEvents string
}

func (inv Invitation) row() []string {
	return []string{inv.InviteID, inv.ExactName, inv.MaxPartySize, inv.AllowedEvents}
}

// Response mirrors a responses row. Attendance holds one cell per
// recognized sub-event, in column order.
type Response struct {
	SubmittedAt string
	InviteID    string
	ExactName   string
	Attendance  []string
	PartySize   string
	GuestNames  string
	Notes       string
}

// responseFromRow splits a rendered response row: timestamp, invite id, name,
// attendance cells, party size, guest names, notes.
func responseFromRow(row []string) (Response, error) {
	if len(row) < 6 {
		return Response{}, fmt.Errorf("response row has %d columns, want at least 6", len(row))
	}
	n := len(row)
	return Response{
		SubmittedAt: row[0],
		InviteID:    row[1],
		ExactName:   row[2],
		Attendance:  append([]string{}, row[3:n-3]...),
		PartySize:   row[n-3],
		GuestNames:  row[n-2],
		Notes:       row[n-1],
	}, nil
}

func (r Response) row() []string {
	row := make([]string, 0, 6+len(r.Attendance))
	row = append(row, r.SubmittedAt, r.InviteID, r.ExactName)
	row = append(row, r.Attendance...)
	return append(row, r.PartySize, r.GuestNames, r.Notes)
}

func (r Response) attendanceJSON() (string, error) {
	b, err := json.Marshal(r.Attendance)
	if err != nil {
		return "", fmt.Errorf("failed to encode attendance: %w", err)
	}
	return string(b), nil
}

func decodeAttendance(s string) ([]string, error) {
	var cells []string
	if err := json.Unmarshal([]byte(s), &cells); err != nil {
		return nil, fmt.Errorf("failed to decode attendance: %w", err)
	}
	return cells, nil
}
