// Package devtools hosts the offline demo backend: an in-memory stand-in for
// the competition server so the dashboard can be developed, demoed, and
// screenshotted without network access. It answers the same endpoints the
// real server does and keeps mutable state for instances, roles, and the
// scoreboard reset.
package devtools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

type demoChallenge struct {
	Type   string   `json:"type"`
	Title  string   `json:"title"`
	Score  int      `json:"score"`
	Desc   string   `json:"desc"`
	Tags   []string `json:"tags"`
	Locked bool     `json:"locked"`
}

type demoUser struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Score       int    `json:"score"`
	Solved      int    `json:"solved_count"`
}

type demoInstance struct {
	key string
	id  string
	url string
}

// Backend satisfies every transport slice the stores consume.
type Backend struct {
	mu      sync.Mutex
	token   string
	authed  bool
	current demoUser
	users   []demoUser
	running map[string]demoInstance
	nextID  int
	limit   int
}

func NewBackend() *Backend {
	return &Backend{
		users: []demoUser{
			{Username: "admin", DisplayName: "The Organizer", Role: "admin", Score: 0},
			{Username: "guest01", DisplayName: "Guest One", Role: "user", Score: 250, Solved: 5},
			{Username: "guest02", DisplayName: "", Role: "user", Score: 180, Solved: 4},
			{Username: "guest03", DisplayName: "Bandit", Role: "user", Score: 120, Solved: 3},
		},
		running: make(map[string]demoInstance),
		limit:   2,
	}
}

var demoChallenges = map[string]demoChallenge{
	"pwn1": {Type: "pwn", Title: "Stack Zero", Score: 100, Desc: "Overflow the saved return address.", Tags: []string{"#stack", "#beginner"}},
	"pwn2": {Type: "binary exploitation", Title: "Ret2Win", Score: 200, Desc: "There is a function nobody calls.", Tags: []string{"#rop"}},
	"web1": {Type: "web", Title: "Reflected", Score: 150, Desc: "The search box trusts you too much.", Tags: []string{"#xss"}},
	"rev1": {Type: "reversing", Title: "Crackme Lite", Score: 150, Desc: "The key check fits on one screen.", Tags: []string{"#static"}},
	"cry1": {Type: "crypto", Title: "Many Times Pad", Score: 250, Desc: "One pad, many messages.", Tags: []string{"#xor"}},
	"msc1": {Type: "misc", Title: "Trivia Night", Score: 50, Desc: "Warmup questions.", Tags: []string{"#warmup"}, Locked: true},
}

// fill round-trips v through JSON into out, mirroring what a decoded
// response body would produce.
func fill(out, v any) error {
	if out == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (b *Backend) SetToken(tok string) {
	b.mu.Lock()
	b.token = tok
	b.mu.Unlock()
}

func (b *Backend) CSRFToken() string { return "demo-csrf" }

func (b *Backend) GetRaw(ctx context.Context, path string, out any) error {
	return b.GetJSON(ctx, path, out)
}

func (b *Backend) GetJSON(ctx context.Context, path string, out any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch path {
	case "/api/challenges":
		return fill(out, demoChallenges)
	case "/api/scoreboard":
		rows := make([]map[string]any, 0, len(b.users))
		for _, u := range b.users {
			if u.Role == "admin" {
				continue
			}
			rows = append(rows, map[string]any{
				"username":     u.Username,
				"display_name": u.DisplayName,
				"score":        u.Score,
				"solved_count": u.Solved,
			})
		}
		return fill(out, map[string]any{"scoreboard": rows})
	case "/api/auth/me":
		if !b.authed {
			return fmt.Errorf("GET %s failed: 401", path)
		}
		return fill(out, map[string]any{"user": b.current})
	case "/api/instances":
		list := make([]map[string]any, 0, len(b.running))
		for _, inst := range b.running {
			list = append(list, map[string]any{
				"problem":     inst.key,
				"instance_id": inst.id,
				"url":         inst.url,
				"status":      "running",
			})
		}
		return fill(out, map[string]any{"status": "ok", "instances": list})
	case "/api/admin/users":
		return fill(out, map[string]any{"data": map[string]any{"users": b.users}})
	case "/api/admin/settings":
		return fill(out, map[string]any{"user_instance_limit": b.limit})
	}
	return fmt.Errorf("GET %s failed: 404", path)
}

func (b *Backend) PostJSON(ctx context.Context, path string, body, out any) error {
	return b.PostJSONHeaders(ctx, path, body, out, nil)
}

func (b *Backend) PostJSONHeaders(ctx context.Context, path string, body, out any, _ http.Header) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case path == "/api/auth/login":
		req := struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}{}
		if err := fill(&req, body); err != nil {
			return err
		}
		if req.Password == "" {
			return fmt.Errorf("invalid credentials")
		}
		b.authed = true
		b.current = b.findOrAddUser(req.Username)
		return fill(out, map[string]any{
			"user":         b.current,
			"access_token": "demo-token",
		})
	case path == "/api/auth/register":
		req := struct {
			Username string `json:"username"`
		}{}
		if err := fill(&req, body); err != nil {
			return err
		}
		b.findOrAddUser(req.Username)
		return nil
	case path == "/api/auth/logout":
		b.authed = false
		b.current = demoUser{}
		return nil
	case path == "/start":
		req := struct {
			Problem string `json:"problem"`
		}{}
		if err := fill(&req, body); err != nil {
			return err
		}
		if _, ok := demoChallenges[req.Problem]; !ok {
			return fmt.Errorf("unknown challenge %q", req.Problem)
		}
		if len(b.running) >= b.limit {
			return fmt.Errorf("instance limit reached (%d)", b.limit)
		}
		b.nextID++
		inst := demoInstance{
			key: req.Problem,
			id:  fmt.Sprintf("demo-%04d", b.nextID),
			url: fmt.Sprintf("http://10.13.37.%d:1337", b.nextID),
		}
		b.running[req.Problem] = inst
		return fill(out, map[string]any{
			"status":      "ok",
			"instance_id": inst.id,
			"url":         inst.url,
		})
	case strings.HasPrefix(path, "/stop/"):
		id := strings.TrimPrefix(path, "/stop/")
		for key, inst := range b.running {
			if inst.id == id {
				delete(b.running, key)
				return fill(out, map[string]any{"status": "ok"})
			}
		}
		return fmt.Errorf("unknown instance %q", id)
	case strings.HasPrefix(path, "/api/admin/users/") && strings.HasSuffix(path, "/role"):
		username := strings.TrimSuffix(strings.TrimPrefix(path, "/api/admin/users/"), "/role")
		req := struct {
			Role string `json:"role"`
		}{}
		if err := fill(&req, body); err != nil {
			return err
		}
		for i := range b.users {
			if b.users[i].Username == username {
				b.users[i].Role = req.Role
				return nil
			}
		}
		return fmt.Errorf("unknown user %q", username)
	case path == "/api/admin/settings":
		req := struct {
			Limit int `json:"user_instance_limit"`
		}{}
		if err := fill(&req, body); err != nil {
			return err
		}
		b.limit = req.Limit
		return nil
	case path == "/api/admin/scoreboard/reset":
		for i := range b.users {
			b.users[i].Score = 0
			b.users[i].Solved = 0
		}
		return nil
	}
	return fmt.Errorf("POST %s failed: 404", path)
}

func (b *Backend) DeleteJSON(ctx context.Context, path string, out any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if strings.HasPrefix(path, "/api/admin/users/") {
		username := strings.TrimPrefix(path, "/api/admin/users/")
		for i := range b.users {
			if b.users[i].Username == username {
				b.users = append(b.users[:i], b.users[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("unknown user %q", username)
	}
	return fmt.Errorf("DELETE %s failed: 404", path)
}

// findOrAddUser must be called with the lock held.
func (b *Backend) findOrAddUser(username string) demoUser {
	for _, u := range b.users {
		if u.Username == username {
			return u
		}
	}
	u := demoUser{Username: username, Role: "user"}
	b.users = append(b.users, u)
	return u
}
