// Package sheets keeps invitations and responses in a Google Sheets
// spreadsheet: an invitations tab read from row 2 and a responses tab whose
// column B holds the invite id.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Config locates the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID       string
	ServiceAccountEmail string
	PrivateKey          string
	InvitesTab          string
	ResponsesTab        string
	// Columns is the width of a response row.
	Columns int
}

// values is the subset of the Sheets values API the store uses.
type values interface {
	Get(ctx context.Context, rng string) ([][]interface{}, error)
	Append(ctx context.Context, rng string, rows [][]interface{}) error
	Update(ctx context.Context, rng string, rows [][]interface{}) error
}

// Store implements the invitation source and response table over a
// spreadsheet. Every call goes to the API; nothing is cached.
type Store struct {
	values       values
	invitesTab   string
	responsesTab string
	columns      int
}

// New authenticates with the service account key and returns a Store.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if cfg.ServiceAccountEmail == "" || cfg.PrivateKey == "" {
		return nil, fmt.Errorf("service account email and private key are required")
	}

	conf := &jwt.Config{
		Email:      cfg.ServiceAccountEmail,
		PrivateKey: []byte(strings.ReplaceAll(cfg.PrivateKey, `\n`, "\n")),
		Scopes:     []string{sheetsapi.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}
	srv, err := sheetsapi.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	return newStore(&apiValues{srv: srv, spreadsheetID: cfg.SpreadsheetID}, cfg), nil
}

func newStore(v values, cfg Config) *Store {
	s := &Store{
		values:       v,
		invitesTab:   cfg.InvitesTab,
		responsesTab: cfg.ResponsesTab,
		columns:      cfg.Columns,
	}
	if s.invitesTab == "" {
		s.invitesTab = "Invites"
	}
	if s.responsesTab == "" {
		s.responsesTab = "Responses"
	}
	if s.columns <= 0 {
		s.columns = 9
	}
	return s
}

// InvitationRows reads columns A to D of the invitations tab, skipping the
// header row.
func (s *Store) InvitationRows(ctx context.Context) ([][]string, error) {
	rows, err := s.values.Get(ctx, tabRange(s.invitesTab, "A2:D"))
	if err != nil {
		return nil, fmt.Errorf("failed to read invitations: %w", err)
	}
	return toStrings(rows), nil
}

// ResponseKeys reads the invite id column of the responses tab. Blank rows
// keep their position as empty keys.
func (s *Store) ResponseKeys(ctx context.Context) ([]string, error) {
	rows, err := s.values.Get(ctx, tabRange(s.responsesTab, "B2:B"))
	if err != nil {
		return nil, fmt.Errorf("failed to read response keys: %w", err)
	}
	keys := make([]string, len(rows))
	for i, r := range rows {
		if len(r) > 0 {
			keys[i] = fmt.Sprint(r[0])
		}
	}
	return keys, nil
}

// AppendResponse adds a row after the last one in the responses tab.
func (s *Store) AppendResponse(ctx context.Context, row []string) error {
	rng := tabRange(s.responsesTab, "A:"+columnName(s.columns))
	if err := s.values.Append(ctx, rng, [][]interface{}{toCells(row)}); err != nil {
		return fmt.Errorf("failed to append response: %w", err)
	}
	return nil
}

// UpdateResponse overwrites the full row at index, counted from the first
// row below the header.
func (s *Store) UpdateResponse(ctx context.Context, index int, row []string) error {
	n := strconv.Itoa(index + 2)
	rng := tabRange(s.responsesTab, "A"+n+":"+columnName(s.columns)+n)
	if err := s.values.Update(ctx, rng, [][]interface{}{toCells(row)}); err != nil {
		return fmt.Errorf("failed to update response: %w", err)
	}
	return nil
}

// ResponseRows reads every response row below the header.
func (s *Store) ResponseRows(ctx context.Context) ([][]string, error) {
	rows, err := s.values.Get(ctx, tabRange(s.responsesTab, "A2:"+columnName(s.columns)))
	if err != nil {
		return nil, fmt.Errorf("failed to read responses: %w", err)
	}
	return toStrings(rows), nil
}

// tabRange builds an A1 range, quoting the tab name when needed.
func tabRange(tab, cells string) string {
	if strings.ContainsAny(tab, " '!") {
		tab = "'" + strings.ReplaceAll(tab, "'", "''") + "'"
	}
	return tab + "!" + cells
}

// columnName converts a 1-based column number to its letter form.
func columnName(n int) string {
	var name []byte
	for n > 0 {
		n--
		name = append([]byte{byte('A' + n%26)}, name...)
		n /= 26
	}
	return string(name)
}

func toStrings(rows [][]interface{}) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = make([]string, len(r))
		for j, c := range r {
			out[i][j] = fmt.Sprint(c)
		}
	}
	return out
}

func toCells(row []string) []interface{} {
	cells := make([]interface{}, len(row))
	for i, c := range row {
		cells[i] = c
	}
	return cells
}

type apiValues struct {
	srv           *sheetsapi.Service
	spreadsheetID string
}

func (a *apiValues) Get(ctx context.Context, rng string) ([][]interface{}, error) {
	resp, err := a.srv.Spreadsheets.Values.Get(a.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (a *apiValues) Append(ctx context.Context, rng string, rows [][]interface{}) error {
	_, err := a.srv.Spreadsheets.Values.Append(a.spreadsheetID, rng, &sheetsapi.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func (a *apiValues) Update(ctx context.Context, rng string, rows [][]interface{}) error {
	_, err := a.srv.Spreadsheets.Values.Update(a.spreadsheetID, rng, &sheetsapi.ValueRange{Values: rows}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}
