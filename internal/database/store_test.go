package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexTLDR/guestlist/internal/rsvp"
)

func TestServiceOverSQLite(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.UpsertInvitation(ctx, Invitation{InviteID: "INV001", ExactName: "Jon Smith", MaxPartySize: "2", AllowedEvents: "reception"}))

	svc := rsvp.NewService(rsvp.NewDirectory(db, nil), rsvp.NewResponseStore(db, nil))

	inv, err := svc.Lookup(ctx, "  jon   smith ")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, rsvp.Submission{
		InviteID:   inv.InviteID,
		ExactName:  inv.ExactName,
		Responses:  []rsvp.SubEventResponse{{Key: "reception", Attending: true, PartySize: 2}},
		GuestNames: []string{"Amy Smith"},
	})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, rsvp.Submission{
		InviteID:  inv.InviteID,
		ExactName: inv.ExactName,
		Responses: []rsvp.SubEventResponse{{Key: "reception", Attending: false}},
	})
	require.NoError(t, err)

	records, err := svc.Responses(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "INV001", records[0].InviteID)
	assert.Equal(t, 1, records[0].PartySize)
	assert.Empty(t, records[0].GuestNames)
	assert.Equal(t, "No", records[0].Attendance["reception"])
}
