package session

import (
	"context"
	"net/http"
	"sync"
)

// Store is the authentication state machine. The bearer token, when the
// backend issues one, lives in the transport's memory only; the persister
// keeps just the profile so a restart can show a provisional identity until
// the server confirms it.
type Store struct {
	api     Transport
	persist Persister

	mu       sync.Mutex
	snapshot Snapshot
	subs     []func(Snapshot)
}

func NewStore(api Transport, persist Persister) *Store {
	return &Store{api: api, persist: persist}
}

// Subscribe registers fn for every subsequent state change. Notification is
// synchronous and runs outside the store lock.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *Store) set(snap Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	subs := make([]func(Snapshot), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

type userPayload struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func (u userPayload) profile() Profile {
	return Profile{Username: u.Username, DisplayName: u.DisplayName, Role: u.Role}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User        userPayload `json:"user"`
	AccessToken string      `json:"access_token"`
}

// Restore loads the persisted profile, if any, as a provisional session.
// The caller should follow up with ProbeIdentity to confirm it.
func (s *Store) Restore(ctx context.Context) bool {
	username, displayName, role, found, err := s.persist.LoadProfile(ctx)
	if err != nil || !found {
		return false
	}
	s.set(Snapshot{
		Authenticated: true,
		User:          Profile{Username: username, DisplayName: displayName, Role: role},
	})
	return true
}

// Login authenticates against the backend. On failure nothing changes. On
// success the profile is stored and persisted; the access token, when the
// server hands one out, goes to the transport and nowhere else.
func (s *Store) Login(ctx context.Context, username, password string) error {
	var res loginResponse
	if err := s.api.PostJSON(ctx, "/api/auth/login", loginRequest{Username: username, Password: password}, &res); err != nil {
		return err
	}
	p := res.User.profile()
	if p.Username == "" {
		p.Username = username
	}
	hasToken := res.AccessToken != ""
	if hasToken {
		s.api.SetToken(res.AccessToken)
	}
	_ = s.persist.SaveProfile(ctx, p.Username, p.DisplayName, p.Role)
	s.set(Snapshot{Authenticated: true, User: p, HasToken: hasToken})
	return nil
}

type registerRequest struct {
	Username    string  `json:"username"`
	Password    string  `json:"password"`
	DisplayName *string `json:"display_name"`
}

// Register creates an account. An empty display name is sent as null so the
// server applies its own default.
func (s *Store) Register(ctx context.Context, username, password, displayName string) error {
	req := registerRequest{Username: username, Password: password}
	if displayName != "" {
		req.DisplayName = &displayName
	}
	return s.api.PostJSON(ctx, "/api/auth/register", req, nil)
}

type meResponse struct {
	User userPayload `json:"user"`
}

// ProbeIdentity asks the server who we are. Any failure, from a 401 to a
// dead network, resolves to "not signed in" and clears local state; the probe
// itself never surfaces an error.
func (s *Store) ProbeIdentity(ctx context.Context) bool {
	var res meResponse
	if err := s.api.GetJSON(ctx, "/api/auth/me", &res); err != nil || res.User.Username == "" {
		s.clearLocal(ctx)
		return false
	}
	p := res.User.profile()
	s.mu.Lock()
	hasToken := s.snapshot.HasToken
	s.mu.Unlock()
	_ = s.persist.SaveProfile(ctx, p.Username, p.DisplayName, p.Role)
	s.set(Snapshot{Authenticated: true, User: p, HasToken: hasToken})
	return true
}

// Logout tells the server, then clears local state regardless of whether the
// server heard us. A network failure must never leave the client signed in.
func (s *Store) Logout(ctx context.Context) {
	hdr := http.Header{}
	if tok := s.api.CSRFToken(); tok != "" {
		hdr.Set("X-CSRF-Token", tok)
	}
	_ = s.api.PostJSONHeaders(ctx, "/api/auth/logout", nil, nil, hdr)
	s.clearLocal(ctx)
}

func (s *Store) clearLocal(ctx context.Context) {
	s.api.SetToken("")
	_ = s.persist.ClearProfile(ctx)
	s.set(Snapshot{})
}
