package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	apperr "scheduler/internal/errors"
)

// OwnedSet is a user's owned-event set.
type OwnedSet map[uuid.UUID]struct{}

// NewOwnedSet builds a set from event ids.
func NewOwnedSet(ids []uuid.UUID) OwnedSet {
	set := make(OwnedSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Contains reports whether id is owned.
func (s OwnedSet) Contains(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Filter returns the owned ids among ids, in request order and without
// duplicates. The result is never nil.
func (s OwnedSet) Filter(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if s.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

// OwnershipReader loads a user's owned-event ids.
type OwnershipReader interface {
	OwnedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// OwnershipGuard restricts event access to the owning user. Bulk checks
// are best effort and report the ids that passed; single checks are strict.
type OwnershipGuard struct {
	repo OwnershipReader
}

// NewOwnershipGuard creates a guard over the ownership index.
func NewOwnershipGuard(repo OwnershipReader) *OwnershipGuard {
	return &OwnershipGuard{repo: repo}
}

// Owned returns the subset of ids owned by userID. Unknown and foreign ids
// are dropped silently.
func (g *OwnershipGuard) Owned(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	set, err := g.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return set.Filter(ids), nil
}

// Require fails with EventNotFound unless userID owns eventID.
func (g *OwnershipGuard) Require(ctx context.Context, userID, eventID uuid.UUID) error {
	set, err := g.load(ctx, userID)
	if err != nil {
		return err
	}
	if !set.Contains(eventID) {
		return apperr.ErrEventNotFound
	}
	return nil
}

func (g *OwnershipGuard) load(ctx context.Context, userID uuid.UUID) (OwnedSet, error) {
	ids, err := g.repo.OwnedIDs(ctx, userID)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("load owned events: %w", err))
	}
	return NewOwnedSet(ids), nil
}
