package instances

import (
	"context"
	"errors"
	"net/url"
	"sync"
)

var (
	// ErrAlreadyRunning guards the one-instance-per-key invariant.
	ErrAlreadyRunning = errors.New("an instance for this challenge is already running")
	// ErrPending means a start or stop for the key is still in flight.
	ErrPending = errors.New("another operation for this challenge is in flight")
	// ErrLocked is returned by callers that gate on the challenge lock flag.
	ErrLocked = errors.New("challenge is locked")
)

// Store owns the running-instance map: at most one active instance per
// challenge key. Per-key pending markers refuse concurrent start/stop for the
// same key and shield in-flight mutations from reconciliation.
type Store struct {
	api Transport

	mu      sync.Mutex
	running map[string]Instance
	pending map[string]Phase
}

func NewStore(api Transport) *Store {
	return &Store{
		api:     api,
		running: map[string]Instance{},
		pending: map[string]Phase{},
	}
}

// Running returns a copy of the running map.
func (s *Store) Running() map[string]Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Instance, len(s.running))
	for k, v := range s.running {
		out[k] = v
	}
	return out
}

func (s *Store) Get(key string) (Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.running[key]
	return inst, ok
}

// PhaseOf reports the client-side lifecycle phase for a key.
func (s *Store) PhaseOf(key string) Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[key]; ok {
		return p
	}
	if _, ok := s.running[key]; ok {
		return PhaseRunning
	}
	return PhaseIdle
}

// Busy reports whether a mutation for key is in flight. The UI disables the
// triggering control for exactly this window.
func (s *Store) Busy(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

type startRequest struct {
	Problem string `json:"problem"`
}

type startResponse struct {
	Status     string `json:"status"`
	InstanceID string `json:"instance_id"`
	URL        string `json:"url"`
}

// Start provisions an instance for key. The invariant guard runs before any
// request is issued: a running or in-flight key is refused locally. On
// failure the map is left untouched and the error is returned to the caller.
func (s *Store) Start(ctx context.Context, key string) (Instance, error) {
	s.mu.Lock()
	if _, busy := s.pending[key]; busy {
		s.mu.Unlock()
		return Instance{}, ErrPending
	}
	if _, ok := s.running[key]; ok {
		s.mu.Unlock()
		return Instance{}, ErrAlreadyRunning
	}
	s.pending[key] = PhaseStarting
	s.mu.Unlock()

	var res startResponse
	err := s.api.PostJSON(ctx, "/start", startRequest{Problem: key}, &res)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
	if err != nil {
		return Instance{}, err
	}
	inst := Instance{Key: key, ID: res.InstanceID, URL: res.URL, Phase: PhaseRunning}
	s.running[key] = inst
	return inst, nil
}

// Stop tears down the instance for key. A key with no entry is a no-op. On
// request failure the entry is retained: the server is still authoritative
// and presumably still running it.
func (s *Store) Stop(ctx context.Context, key string) error {
	s.mu.Lock()
	inst, ok := s.running[key]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	if _, busy := s.pending[key]; busy {
		s.mu.Unlock()
		return ErrPending
	}
	s.pending[key] = PhaseStopping
	s.mu.Unlock()

	var res struct {
		Status string `json:"status"`
	}
	err := s.api.PostJSON(ctx, "/stop/"+url.PathEscape(inst.ID), nil, &res)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
	if err != nil {
		return err
	}
	delete(s.running, key)
	return nil
}

type listResponse struct {
	Status    string         `json:"status"`
	Instances []wireInstance `json:"instances"`
}

type wireInstance struct {
	Problem    string `json:"problem"`
	InstanceID string `json:"instance_id"`
	URL        string `json:"url"`
	Status     string `json:"status"`
}

// Reconcile replaces the running map with the server's authoritative list.
// Entries reporting an error status count as not running. Keys with an
// in-flight mutation keep their local state until that mutation resolves;
// everything else follows the server, so an entry the server no longer lists
// is dropped as stopped. On fetch failure local state is left untouched.
func (s *Store) Reconcile(ctx context.Context) (int, error) {
	var res listResponse
	if err := s.api.GetJSON(ctx, "/api/instances", &res); err != nil {
		return 0, err
	}

	fresh := make(map[string]Instance, len(res.Instances))
	for _, w := range res.Instances {
		if w.Problem == "" || w.Status == "error" {
			continue
		}
		fresh[w.Problem] = Instance{Key: w.Problem, ID: w.InstanceID, URL: w.URL, Phase: PhaseRunning}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.pending {
		if inst, ok := s.running[key]; ok {
			fresh[key] = inst
		} else {
			delete(fresh, key)
		}
	}
	s.running = fresh
	return len(fresh), nil
}
