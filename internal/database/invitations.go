package database

import (
	"context"
	"fmt"
	"strings"
)

// InvitationRows returns every invitation row in insertion order, as the
// positional fields id, name, max party size, allowed events.
func (db *DB) InvitationRows(ctx context.Context) ([][]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT invite_id, exact_name, max_party_size, allowed_events
		 FROM invitations ORDER BY row_num`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get invitations: %w", err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var inv Invitation
		if err := rows.Scan(&inv.InviteID, &inv.ExactName, &inv.MaxPartySize, &inv.AllowedEvents); err != nil {
			return nil, fmt.Errorf("failed to scan invitation: %w", err)
		}
		out = append(out, inv.row())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read invitations: %w", err)
	}

	return out, nil
}

// UpsertInvitation creates or replaces the invitation with the same id.
// Invitations are provisioned out of band; the RSVP flow only reads them.
func (db *DB) UpsertInvitation(ctx context.Context, inv Invitation) error {
	inv.InviteID = strings.TrimSpace(inv.InviteID)
	if inv.InviteID == "" {
		return fmt.Errorf("invite id is required")
	}

	_, err := db.ExecContext(ctx, db.rebind(
		`INSERT INTO invitations (invite_id, exact_name, max_party_size, allowed_events)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (invite_id) DO UPDATE SET
		   exact_name = excluded.exact_name,
		   max_party_size = excluded.max_party_size,
		   allowed_events = excluded.allowed_events`),
		inv.InviteID, inv.ExactName, inv.MaxPartySize, inv.AllowedEvents,
	)
	if err != nil {
		return fmt.Errorf("failed to save invitation: %w", err)
	}
	return nil
}
