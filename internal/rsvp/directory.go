package rsvp

import (
	"context"
	"log/slog"
)

// InvitationSource fetches the raw invitation rows from the backing store.
// Each row carries at least the positional fields id, name, max party size
// and a comma-separated list of allowed sub-event keys.
type InvitationSource interface {
	InvitationRows(ctx context.Context) ([][]string, error)
}

// Directory resolves free-text names to invitations. It never caches: every
// call re-fetches the rows from its source.
type Directory struct {
	source InvitationSource
	logger *slog.Logger
}

// NewDirectory creates a Directory backed by source.
func NewDirectory(source InvitationSource, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{
		source: source,
		logger: logger.With("component", "directory"),
	}
}

// ListInvitations fetches and parses every invitation row. Malformed rows and
// rows repeating an earlier invite id are skipped.
func (d *Directory) ListInvitations(ctx context.Context) ([]Invitation, error) {
	rows, err := d.source.InvitationRows(ctx)
	if err != nil {
		return nil, storeUnavailable("failed to fetch invitations", err)
	}

	invitations := make([]Invitation, 0, len(rows))
	seenIDs := make(map[string]struct{}, len(rows))
	seenNames := make(map[string]string, len(rows))
	for i, row := range rows {
		inv, err := ParseInvitationRow(row)
		if err != nil {
			d.logger.DebugContext(ctx, "skipping invitation row", "row", i, "error", err)
			continue
		}
		if _, dup := seenIDs[inv.InviteID]; dup {
			d.logger.WarnContext(ctx, "skipping duplicate invite id", "row", i, "invite_id", inv.InviteID)
			continue
		}
		seenIDs[inv.InviteID] = struct{}{}

		// Resolve picks the first of these; the data should be fixed upstream.
		key := NormalizeName(inv.ExactName)
		if first, dup := seenNames[key]; dup {
			d.logger.WarnContext(ctx, "invitations share a normalized name",
				"name", inv.ExactName, "invite_id", inv.InviteID, "first_invite_id", first)
		} else {
			seenNames[key] = inv.InviteID
		}

		invitations = append(invitations, inv)
	}
	return invitations, nil
}

// Lookup resolves name against a fresh copy of the invitation list.
func (d *Directory) Lookup(ctx context.Context, name string) (Invitation, error) {
	invitations, err := d.ListInvitations(ctx)
	if err != nil {
		return Invitation{}, err
	}
	return Resolve(name, invitations)
}

// Invitation returns the invitation with the given id.
func (d *Directory) Invitation(ctx context.Context, inviteID string) (Invitation, error) {
	invitations, err := d.ListInvitations(ctx)
	if err != nil {
		return Invitation{}, err
	}
	for _, inv := range invitations {
		if inv.InviteID == inviteID {
			return inv, nil
		}
	}
	return Invitation{}, notFound("no invitation with id %q", inviteID)
}
