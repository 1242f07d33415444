package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexTLDR/guestlist/internal/config"
	"github.com/AlexTLDR/guestlist/internal/rsvp"
)

type fakeSource struct {
	rows [][]string
	err  error
}

func (f *fakeSource) InvitationRows(_ context.Context) ([][]string, error) {
	return f.rows, f.err
}

type fakeTable struct {
	mu   sync.Mutex
	rows [][]string
	err  error
}

func (f *fakeTable) ResponseKeys(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	keys := make([]string, len(f.rows))
	for i, r := range f.rows {
		keys[i] = r[rsvp.ResponseKeyColumn]
	}
	return keys, nil
}

func (f *fakeTable) AppendResponse(_ context.Context, row []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeTable) UpdateResponse(_ context.Context, index int, row []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[index] = row
	return nil
}

func (f *fakeTable) ResponseRows(_ context.Context) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows, f.err
}

type fakeServer struct {
	service *rsvp.Service
	config  *config.Config
	table   *fakeTable
}

func (f *fakeServer) GetService() *rsvp.Service { return f.service }
func (f *fakeServer) GetConfig() *config.Config { return f.config }
func (f *fakeServer) GetLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
func (f *fakeServer) GetCurrentUser(_ *http.Request) (string, string) {
	return "bride@example.com", "Bride"
}

func newFakeServer() *fakeServer {
	source := &fakeSource{rows: [][]string{
		{"INV001", "Jon Smith", "2", "reception"},
		{"INV002", "Priya Kaur", "4", "sangeet,anand_karaj,reception"},
	}}
	table := &fakeTable{}
	svc := rsvp.NewService(
		rsvp.NewDirectory(source, nil),
		rsvp.NewResponseStore(table, nil, rsvp.WithClock(func() time.Time {
			return time.Date(2026, 4, 12, 18, 30, 0, 0, time.UTC)
		})),
	)
	return &fakeServer{service: svc, config: &config.Config{}, table: table}
}

func do(h http.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandleInvitations(t *testing.T) {
	s := newFakeServer()

	rec := do(HandleInvitations(s), http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"inviteId":"INV001"`)
	assert.Contains(t, rec.Body.String(), `"allowedEvents":["reception"]`)
}

func TestHandleLookup(t *testing.T) {
	s := newFakeServer()

	rec := do(HandleLookup(s), http.MethodPost, `{"name":"  JON   smith "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"invite":{"inviteId":"INV001","exactName":"Jon Smith","maxPartySize":2,"allowedEvents":["reception"]}}`,
		rec.Body.String())

	rec = do(HandleLookup(s), http.MethodPost, `{"name":"Jonathan Smith"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"not_found"`)

	rec = do(HandleLookup(s), http.MethodPost, ``)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRSVPSubmit(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		expectedCode int
		expectedKind string
	}{
		{
			name:         "flat fields with string party size",
			body:         `{"inviteId":"INV001","exactName":"Jon Smith","reception":"Yes","party_size":"2","guest_names":"Amy Smith","notes":"no nuts"}`,
			expectedCode: http.StatusOK,
		},
		{
			name:         "per sub-event sizes",
			body:         `{"inviteId":"INV002","exactName":"priya kaur","events":[{"key":"sangeet","attending":true,"partySize":2},{"key":"reception","attending":true,"partySize":3}],"guest_names":["Arjun","Meera"]}`,
			expectedCode: http.StatusOK,
		},
		{
			name:         "decline",
			body:         `{"inviteId":"INV001","exactName":"Jon Smith","reception":"No"}`,
			expectedCode: http.StatusOK,
		},
		{
			name:         "missing invite id",
			body:         `{"exactName":"Jon Smith"}`,
			expectedCode: http.StatusBadRequest,
			expectedKind: "invalid_submission",
		},
		{
			name:         "unknown invite id",
			body:         `{"inviteId":"INV999","exactName":"Jon Smith"}`,
			expectedCode: http.StatusBadRequest,
			expectedKind: "invalid_submission",
		},
		{
			name:         "guest names missing",
			body:         `{"inviteId":"INV001","exactName":"Jon Smith","reception":"Yes","party_size":2}`,
			expectedCode: http.StatusUnprocessableEntity,
			expectedKind: "incomplete_guest_list",
		},
		{
			name:         "comma inside a listed guest name",
			body:         `{"inviteId":"INV001","exactName":"Jon Smith","reception":"Yes","party_size":2,"guest_names":["Smith, Jr."]}`,
			expectedCode: http.StatusBadRequest,
			expectedKind: "invalid_submission",
		},
		{
			name:         "malformed json",
			body:         `{"inviteId":`,
			expectedCode: http.StatusBadRequest,
			expectedKind: "invalid_submission",
		},
		{
			name:         "bad attendance value",
			body:         `{"inviteId":"INV001","exactName":"Jon Smith","reception":"Maybe"}`,
			expectedCode: http.StatusBadRequest,
			expectedKind: "invalid_submission",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFakeServer()
			rec := do(HandleRSVPSubmit(s), http.MethodPost, tt.body)
			assert.Equal(t, tt.expectedCode, rec.Code, rec.Body.String())
			if tt.expectedKind != "" {
				assert.Contains(t, rec.Body.String(), `"kind":"`+tt.expectedKind+`"`)
				assert.Empty(t, s.table.rows)
				return
			}
			assert.Contains(t, rec.Body.String(), `"ok":true`)
			assert.Len(t, s.table.rows, 1)
		})
	}
}

func TestHandleRSVPSubmitStoresRow(t *testing.T) {
	s := newFakeServer()

	rec := do(HandleRSVPSubmit(s), http.MethodPost,
		`{"inviteId":"INV002","exactName":"Priya Kaur","sangeet":"Yes","reception":"No","party_size":3,"guest_names":"Arjun, Meera"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, s.table.rows, 1)
	assert.Equal(t, []string{
		"2026-04-12T18:30:00Z", "INV002", "Priya Kaur", "Yes", "No", "No", "3", "Arjun, Meera", "",
	}, s.table.rows[0])
}

func TestHandleRSVPSubmitStoreUnavailable(t *testing.T) {
	s := newFakeServer()
	s.table.err = errors.New("quota exceeded")

	rec := do(HandleRSVPSubmit(s), http.MethodPost, `{"inviteId":"INV001","exactName":"Jon Smith"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"store_unavailable"`)
	assert.NotContains(t, rec.Body.String(), "quota exceeded")
}

func TestHandleRSVPSubmitAfterDeadline(t *testing.T) {
	s := newFakeServer()
	s.config.RSVPDeadline = time.Now().Add(-time.Hour)

	rec := do(HandleRSVPSubmit(s), http.MethodPost, `{"inviteId":"INV001","exactName":"Jon Smith"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"deadline_passed"`)
	assert.Empty(t, s.table.rows)
}

func TestParseSubmission(t *testing.T) {
	subEvents := []string{"sangeet", "anand_karaj", "reception"}

	tests := []struct {
		name        string
		body        string
		expected    rsvp.Submission
		shouldError bool
	}{
		{
			name: "flat yes takes party size",
			body: `{"inviteId":"A","exactName":"B","sangeet":"Yes","anand_karaj":"","reception":"No","party_size":"3"}`,
			expected: rsvp.Submission{InviteID: "A", ExactName: "B", Responses: []rsvp.SubEventResponse{
				{Key: "sangeet", Attending: true, PartySize: 3},
				{Key: "reception", Attending: false},
			}},
		},
		{
			name: "events override flat fields",
			body: `{"inviteId":"A","exactName":"B","sangeet":"No","events":[{"key":"sangeet","attending":true,"partySize":2}]}`,
			expected: rsvp.Submission{InviteID: "A", ExactName: "B", Responses: []rsvp.SubEventResponse{
				{Key: "sangeet", Attending: true, PartySize: 2},
			}},
		},
		{
			name:     "guest names as string",
			body:     `{"inviteId":"A","exactName":"B","guest_names":"Amy, Tom"}`,
			expected: rsvp.Submission{InviteID: "A", ExactName: "B", GuestNames: []string{"Amy", " Tom"}},
		},
		{
			name: "boolean attendance and numeric party size",
			body: `{"inviteId":"A","exactName":"B","reception":true,"party_size":2}`,
			expected: rsvp.Submission{InviteID: "A", ExactName: "B", Responses: []rsvp.SubEventResponse{
				{Key: "reception", Attending: true, PartySize: 2},
			}},
		},
		{name: "fractional party size", body: `{"party_size":1.5}`, shouldError: true},
		{name: "word party size", body: `{"party_size":"two"}`, shouldError: true},
		{name: "numeric guest names", body: `{"guest_names":3}`, shouldError: true},
		{name: "not an object", body: `[1,2]`, shouldError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSubmission([]byte(tt.body), subEvents)
			if tt.shouldError {
				require.Error(t, err)
				assert.Equal(t, rsvp.KindInvalidSubmission, rsvp.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestHandleAdminDownloadCSV(t *testing.T) {
	s := newFakeServer()
	s.table.rows = [][]string{
		{"2026-04-12T18:30:00Z", "INV001", "Jon Smith", "", "", "Yes", "2", "Amy Smith", `said "hi", twice`},
	}

	rec := do(HandleAdminDownloadCSV(s), http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))

	body := rec.Body.String()
	require.True(t, strings.HasPrefix(body, "\xEF\xBB\xBF"))
	lines := strings.Split(strings.TrimPrefix(body, "\xEF\xBB\xBF"), "\n")
	assert.Equal(t, "Timestamp,Invite ID,Name,sangeet,anand_karaj,reception,Party Size,Guest Names,Notes", lines[0])
	assert.Equal(t, `2026-04-12T18:30:00Z,INV001,Jon Smith,,,Yes,2,Amy Smith,"said ""hi"", twice"`, lines[1])
}

func TestHandleAdminResponses(t *testing.T) {
	s := newFakeServer()
	s.table.rows = [][]string{
		{"2026-04-12T18:30:00Z", "INV001", "Jon Smith", "", "", "Yes", "2", "Amy Smith", ""},
		{"2026-04-12T18:31:00Z", "INV002", "Priya Kaur", "Yes", "No", "Yes", "3", "Arjun, Meera", ""},
	}

	rec := do(HandleAdminResponses(s), http.MethodGet, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"email":"bride@example.com"`)
	assert.Contains(t, body, `"total":2`)
	assert.Contains(t, body, `"attending":{"anand_karaj":0,"reception":5,"sangeet":3}`)
}
