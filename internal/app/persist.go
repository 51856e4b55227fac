package app

import (
	"context"
	"time"

	"hexactf/internal/session"
	"hexactf/internal/state"
)

// profilePersister adapts the sqlite store to the session package, which
// deals in plain strings so it never depends on storage types.
type profilePersister struct {
	store state.Store
}

func (p profilePersister) SaveProfile(ctx context.Context, username, displayName, role string) error {
	return p.store.SaveProfile(ctx, state.Profile{
		Username:    username,
		DisplayName: displayName,
		Role:        role,
		SavedTS:     time.Now().UTC(),
	})
}

func (p profilePersister) LoadProfile(ctx context.Context) (string, string, string, bool, error) {
	prof, err := p.store.LoadProfile(ctx)
	if err != nil {
		return "", "", "", false, err
	}
	if prof == nil {
		return "", "", "", false, nil
	}
	return prof.Username, prof.DisplayName, prof.Role, true, nil
}

func (p profilePersister) ClearProfile(ctx context.Context) error {
	return p.store.ClearProfile(ctx)
}

var _ session.Persister = profilePersister{}
