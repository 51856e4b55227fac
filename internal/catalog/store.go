package catalog

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// Store holds the known challenge set. It is safe for concurrent use; all
// reads are served from the last completed load.
type Store struct {
	api Getter

	mu         sync.Mutex
	challenges []Challenge
	degraded   bool
}

func NewStore(api Getter) *Store {
	return &Store{api: api}
}

// wire shape of GET /api/challenges: a map of key to attributes. The server
// has drifted between "type"/"category" and "desc"/"description" over time,
// so both spellings are accepted.
type challengeJSON struct {
	Title       string         `json:"title"`
	Type        string         `json:"type"`
	Category    string         `json:"category"`
	Score       int            `json:"score"`
	Desc        string         `json:"desc"`
	Description string         `json:"description"`
	Tags        []string       `json:"tags"`
	Locked      bool           `json:"locked"`
	Downloads   []downloadJSON `json:"downloads"`
}

type downloadJSON struct {
	Label string `json:"label"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Size  int64  `json:"size"`
}

// Load fetches the challenge snapshot. On any transport, timeout, or parse
// failure it installs the built-in fallback catalog, marks the store
// degraded, and reports the failure; the dashboard stays usable either way.
func (s *Store) Load(ctx context.Context) (int, error) {
	var raw map[string]challengeJSON
	if err := s.api.GetRaw(ctx, "/api/challenges", &raw); err != nil {
		fb := FallbackChallenges()
		s.mu.Lock()
		s.challenges = fb
		s.degraded = true
		s.mu.Unlock()
		return len(fb), err
	}

	chs := make([]Challenge, 0, len(raw))
	for key, v := range raw {
		rawType := v.Type
		if rawType == "" {
			rawType = v.Category
		}
		cat := Classify(rawType)
		ch := Challenge{
			Key:         key,
			Title:       v.Title,
			Category:    cat,
			RawType:     rawType,
			Score:       v.Score,
			Description: v.Desc,
			Tags:        v.Tags,
			Locked:      v.Locked,
		}
		if ch.Title == "" {
			ch.Title = key
		}
		if ch.Description == "" {
			ch.Description = v.Description
		}
		if ch.Description == "" {
			ch.Description = "No description."
		}
		if len(ch.Tags) == 0 {
			ch.Tags = []string{"#" + string(cat)}
		}
		for _, d := range v.Downloads {
			if d.URL == "" {
				continue
			}
			label := d.Label
			if label == "" {
				label = d.Name
			}
			if label == "" {
				label = "file"
			}
			ch.Downloads = append(ch.Downloads, Download{Label: label, URL: d.URL, Size: d.Size})
		}
		chs = append(chs, ch)
	}
	sort.Slice(chs, func(i, j int) bool { return chs[i].Key < chs[j].Key })

	s.mu.Lock()
	s.challenges = chs
	s.degraded = false
	s.mu.Unlock()
	return len(chs), nil
}

func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *Store) All() []Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Challenge, len(s.challenges))
	copy(out, s.challenges)
	return out
}

func (s *Store) Get(key string) (Challenge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.challenges {
		if ch.Key == key {
			return ch, true
		}
	}
	return Challenge{}, false
}

// Filter returns challenges whose category matches cat ("all" passes
// everything) and whose key or title contains query, case-insensitively.
// Pure view over current state; no fetch.
func (s *Store) Filter(cat, query string) []Challenge {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Challenge, 0)
	for _, ch := range s.All() {
		if cat != "all" && string(ch.Category) != cat {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(ch.Key), q) &&
			!strings.Contains(strings.ToLower(ch.Title), q) {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// suggestion cutoff: beyond this edit distance a "did you mean" hint is noise.
const maxSuggestDistance = 3

// Suggest returns the challenge key nearest to a query that matched nothing,
// or "" when no key is close enough.
func (s *Store) Suggest(query string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return ""
	}
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, ch := range s.All() {
		d := levenshtein.ComputeDistance(q, strings.ToLower(ch.Key))
		if d < bestDist {
			best, bestDist = ch.Key, d
		}
	}
	return best
}
