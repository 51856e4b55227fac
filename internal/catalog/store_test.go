package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type fakeGetter struct {
	payload string
	err     error
}

func (f fakeGetter) GetRaw(_ context.Context, _ string, out any) error {
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.payload), out)
}

func TestLoadFailureInstallsFallbackAndMarksDegraded(t *testing.T) {
	s := NewStore(fakeGetter{err: errors.New("timeout")})
	n, err := s.Load(context.Background())
	if err == nil {
		t.Fatalf("expected load error to be reported")
	}
	if n != 2 {
		t.Fatalf("expected 2 fallback entries, got %d", n)
	}
	if !s.Degraded() {
		t.Fatalf("expected degraded mode")
	}
	if _, ok := s.Get("pwn1"); !ok {
		t.Fatalf("fallback missing pwn1")
	}
	ch, ok := s.Get("web1")
	if !ok {
		t.Fatalf("fallback missing web1")
	}
	if !ch.Locked {
		t.Fatalf("fallback web1 should be locked")
	}
}

func TestLoadNormalizesServerSnapshot(t *testing.T) {
	s := NewStore(fakeGetter{payload: `{
		"chal-a": {"title": "A", "type": "PWN", "score": 100},
		"chal-b": {"category": "web", "description": "long form", "downloads": [{"name": "bin", "url": "http://f/bin", "size": 2048}, {"url": ""}]}
	}`})
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Degraded() {
		t.Fatalf("healthy load must clear degraded flag")
	}

	a, ok := s.Get("chal-a")
	if !ok {
		t.Fatalf("chal-a missing")
	}
	if a.Category != CatPwn {
		t.Fatalf("type field not classified: %q", a.Category)
	}
	if a.Description != "No description." {
		t.Fatalf("missing default description: %q", a.Description)
	}
	if len(a.Tags) != 1 || a.Tags[0] != "#pwn" {
		t.Fatalf("missing default tags: %#v", a.Tags)
	}

	b, _ := s.Get("chal-b")
	if b.Title != "chal-b" {
		t.Fatalf("title should default to key, got %q", b.Title)
	}
	if b.Description != "long form" {
		t.Fatalf("description fallback broke: %q", b.Description)
	}
	if len(b.Downloads) != 1 || b.Downloads[0].Label != "bin" {
		t.Fatalf("download normalization broke: %#v", b.Downloads)
	}
}

func TestFilterByCategoryAndQuery(t *testing.T) {
	s := NewStore(nil)
	s.challenges = []Challenge{
		{Key: "a", Category: CatPwn},
		{Key: "b", Category: CatWeb},
	}

	got := s.Filter("web", "")
	if len(got) != 1 || got[0].Key != "b" {
		t.Fatalf("category filter: %#v", got)
	}
	got = s.Filter("all", "a")
	if len(got) != 1 || got[0].Key != "a" {
		t.Fatalf("query filter: %#v", got)
	}
	got = s.Filter("crypto", "")
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %#v", got)
	}

	s.challenges = []Challenge{{Key: "x1", Title: "Heap Feng Shui", Category: CatPwn}}
	got = s.Filter("all", "FENG")
	if len(got) != 1 {
		t.Fatalf("case-insensitive title match: %#v", got)
	}
}

func TestSuggestNearestKey(t *testing.T) {
	s := NewStore(nil)
	s.challenges = []Challenge{{Key: "pwn1"}, {Key: "web1"}}
	if got := s.Suggest("pwm1"); got != "pwn1" {
		t.Fatalf("suggest = %q", got)
	}
	if got := s.Suggest("zzzzzzzzz"); got != "" {
		t.Fatalf("expected no suggestion, got %q", got)
	}
	if got := s.Suggest("  "); got != "" {
		t.Fatalf("blank query must not suggest, got %q", got)
	}
}
