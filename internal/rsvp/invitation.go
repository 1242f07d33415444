package rsvp

import (
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Invitation is a pre-registered invitation. It is provisioned outside of
// this service and never modified by it.
type Invitation struct {
	InviteID         string   `json:"inviteId"`
	ExactName        string   `json:"exactName"`
	MaxPartySize     int      `json:"maxPartySize"`
	AllowedSubEvents []string `json:"allowedEvents"`
}

// Allows reports whether the invitation is entitled to the sub-event key.
func (inv Invitation) Allows(key string) bool {
	for _, k := range inv.AllowedSubEvents {
		if k == key {
			return true
		}
	}
	return false
}

// Positional layout of an invitation row.
const (
	colInviteID = iota
	colExactName
	colMaxPartySize
	colAllowedSubEvents
)

var (
	errMissingInviteID  = errors.New("missing invite id")
	errMissingExactName = errors.New("missing name")
)

// ParseInvitationRow parses one raw invitation row. Rows without an
// identifier or a name are rejected; every other field is read tolerantly.
func ParseInvitationRow(row []string) (Invitation, error) {
	inviteID := strings.TrimSpace(cell(row, colInviteID))
	if inviteID == "" {
		return Invitation{}, errMissingInviteID
	}
	exactName := strings.TrimSpace(cell(row, colExactName))
	if exactName == "" {
		return Invitation{}, errMissingExactName
	}

	return Invitation{
		InviteID:         inviteID,
		ExactName:        exactName,
		MaxPartySize:     parseMaxPartySize(cell(row, colMaxPartySize)),
		AllowedSubEvents: SplitList(cell(row, colAllowedSubEvents)),
	}, nil
}

// parseMaxPartySize falls back to 1 for blank, non-numeric and non-positive
// values.
func parseMaxPartySize(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// SplitList splits a comma-separated field, trimming each token and
// discarding empty ones.
func SplitList(s string) []string {
	var out []string
	for _, tok := range strings.Split(s, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// NormalizeName trims, collapses internal whitespace to single spaces and
// case-folds s. NormalizeName(NormalizeName(s)) == NormalizeName(s).
func NormalizeName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return norm.NFC.String(cases.Fold().String(norm.NFC.String(s)))
}

// Resolve returns the first invitation whose normalized name equals the
// normalized input.
func Resolve(name string, invitations []Invitation) (Invitation, error) {
	want := NormalizeName(name)
	if want == "" {
		return Invitation{}, notFound("name not found, please check the spelling on your invitation")
	}
	for _, inv := range invitations {
		if NormalizeName(inv.ExactName) == want {
			return inv, nil
		}
	}
	return Invitation{}, notFound("name not found, please check the spelling on your invitation")
}
