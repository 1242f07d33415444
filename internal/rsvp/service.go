package rsvp

import (
	"context"
	"errors"
	"strings"
)

// Service ties the directory and the response store together for a single
// event.
type Service struct {
	directory *Directory
	store     *ResponseStore
}

// NewService creates a Service.
func NewService(directory *Directory, store *ResponseStore) *Service {
	return &Service{directory: directory, store: store}
}

// SubEvents returns the recognized sub-event keys.
func (s *Service) SubEvents() []string {
	return s.store.SubEvents()
}

// Invitations returns the current invitation list.
func (s *Service) Invitations(ctx context.Context) ([]Invitation, error) {
	return s.directory.ListInvitations(ctx)
}

// Lookup resolves a guest-entered name to an invitation.
func (s *Service) Lookup(ctx context.Context, name string) (Invitation, error) {
	return s.directory.Lookup(ctx, name)
}

// Responses returns every stored response.
func (s *Service) Responses(ctx context.Context) ([]ResponseRecord, error) {
	return s.store.Responses(ctx)
}

// Submit checks sub against the invitation it names and commits it. The
// stored name is the invitation's canonical name.
func (s *Service) Submit(ctx context.Context, sub Submission) (ResponseRecord, error) {
	sub.InviteID = strings.TrimSpace(sub.InviteID)
	if sub.InviteID == "" || strings.TrimSpace(sub.ExactName) == "" {
		return ResponseRecord{}, invalidSubmission("missing inviteId or exactName")
	}

	inv, err := s.directory.Invitation(ctx, sub.InviteID)
	if errors.Is(err, ErrNotFound) {
		return ResponseRecord{}, invalidSubmission("unknown inviteId %q", sub.InviteID)
	}
	if err != nil {
		return ResponseRecord{}, err
	}
	if NormalizeName(sub.ExactName) != NormalizeName(inv.ExactName) {
		return ResponseRecord{}, invalidSubmission("exactName does not match invitation %q", inv.InviteID)
	}
	sub.ExactName = inv.ExactName

	return s.store.Submit(ctx, inv, sub)
}
