package rsvp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(rows [][]string) (*Service, *memTable) {
	table := &memTable{}
	store := NewResponseStore(table, nil, WithClock(func() time.Time { return fixedNow }))
	return NewService(NewDirectory(&staticSource{rows: rows}, nil), store), table
}

func TestServiceSubmit(t *testing.T) {
	svc, table := newTestService([][]string{
		{"INV001", "Jon Smith", "2", "reception"},
	})
	ctx := context.Background()

	t.Run("stores the canonical name", func(t *testing.T) {
		rec, err := svc.Submit(ctx, Submission{
			InviteID:   "INV001",
			ExactName:  " jon  SMITH",
			Responses:  []SubEventResponse{{Key: "reception", Attending: true, PartySize: 2}},
			GuestNames: []string{"Amy Smith"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Jon Smith", rec.ExactName)
		require.Len(t, table.rows, 1)
		assert.Equal(t, "Jon Smith", table.rows[0][2])
		assert.Equal(t, "Amy Smith", table.rows[0][7])
	})

	t.Run("resubmission overwrites", func(t *testing.T) {
		_, err := svc.Submit(ctx, Submission{
			InviteID:  "INV001",
			ExactName: "Jon Smith",
			Responses: []SubEventResponse{{Key: "reception", Attending: false}},
		})
		require.NoError(t, err)
		require.Len(t, table.rows, 1)
		assert.Equal(t, "1", table.rows[0][6])
		assert.Equal(t, "", table.rows[0][7])
	})

	t.Run("unknown invite id", func(t *testing.T) {
		_, err := svc.Submit(ctx, Submission{InviteID: "INV404", ExactName: "Jon Smith"})
		require.ErrorIs(t, err, ErrInvalidSubmission)
	})

	t.Run("name belongs to another invitation", func(t *testing.T) {
		_, err := svc.Submit(ctx, Submission{InviteID: "INV001", ExactName: "Amy Lee"})
		require.ErrorIs(t, err, ErrInvalidSubmission)
	})

	t.Run("missing fields never reach the store", func(t *testing.T) {
		before := table.appends + table.updates
		_, err := svc.Submit(ctx, Submission{InviteID: "INV001"})
		require.ErrorIs(t, err, ErrInvalidSubmission)
		assert.Equal(t, before, table.appends+table.updates)
	})
}

func TestErrorKinds(t *testing.T) {
	err := incompleteGuestList("guest name %d is blank", 2)
	assert.ErrorIs(t, err, ErrIncompleteGuestList)
	assert.NotErrorIs(t, err, ErrInvalidSubmission)
	assert.Equal(t, KindIncompleteGuestList, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(context.Canceled))
	assert.Equal(t, "guest name 2 is blank", err.Error())
}
