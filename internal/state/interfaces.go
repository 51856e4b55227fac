package state

import (
	"context"
	"time"
)

// Store persists the non-secret slice of client state between runs: the last
// confirmed profile, app settings, and the activity log. Access tokens are
// never written here.
type Store interface {
	EnsureSchema(ctx context.Context) error
	SaveProfile(ctx context.Context, p Profile) error
	LoadProfile(ctx context.Context) (*Profile, error)
	ClearProfile(ctx context.Context) error
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	AppendActivity(ctx context.Context, ts time.Time, line string) error
	RecentActivity(ctx context.Context, limit int) ([]ActivityEntry, error)
	Close() error
}

// Profile is the persisted identity snapshot. It is provisional on restore
// until the backend confirms it.
type Profile struct {
	Username    string
	DisplayName string
	Role        string
	SavedTS     time.Time
}

type ActivityEntry struct {
	TS   time.Time
	Line string
}
