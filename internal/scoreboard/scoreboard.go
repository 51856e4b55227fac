// Package scoreboard loads and orders the competition standings.
package scoreboard

import (
	"context"
	"encoding/json"
	"sort"
)

// Row is one standings entry after normalization.
type Row struct {
	Rank        int
	Username    string
	DisplayName string
	Score       int
	SolvedCount int
}

// Getter is the unenveloped fetch the service needs.
type Getter interface {
	GetRaw(ctx context.Context, path string, out any) error
}

type Service struct {
	api Getter
}

func NewService(api Getter) *Service {
	return &Service{api: api}
}

// wireRow tolerates the field-name drift seen across backend versions.
type wireRow struct {
	Rank        int    `json:"rank"`
	Username    string `json:"username"`
	User        string `json:"user"`
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	SolvedCount int    `json:"solved_count"`
	Solved      int    `json:"solved"`
}

func (w wireRow) row() Row {
	r := Row{Rank: w.Rank, Username: w.Username, DisplayName: w.DisplayName, Score: w.Score, SolvedCount: w.SolvedCount}
	if r.Username == "" {
		r.Username = w.User
	}
	if r.DisplayName == "" {
		r.DisplayName = w.Name
	}
	if r.SolvedCount == 0 {
		r.SolvedCount = w.Solved
	}
	return r
}

// Load fetches the standings. The endpoint answers either a bare array or an
// object wrapping it under "scoreboard". When the fetch or decode fails the
// placeholder rows are returned with degraded=true so the view stays useful.
func (s *Service) Load(ctx context.Context) ([]Row, bool) {
	var raw json.RawMessage
	if err := s.api.GetRaw(ctx, "/api/scoreboard", &raw); err != nil {
		return FallbackRows(), true
	}
	var wires []wireRow
	if err := json.Unmarshal(raw, &wires); err != nil {
		var wrapped struct {
			Scoreboard []wireRow `json:"scoreboard"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil || wrapped.Scoreboard == nil {
			return FallbackRows(), true
		}
		wires = wrapped.Scoreboard
	}
	rows := make([]Row, 0, len(wires))
	for _, w := range wires {
		r := w.row()
		if r.Username == "" {
			continue
		}
		rows = append(rows, r)
	}
	return Order(rows), false
}

// Order sorts by score descending with username as the tiebreaker, then
// rewrites ranks from 1 regardless of what the server claimed.
func Order(rows []Row) []Row {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].Username < rows[j].Username
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

// FallbackRows is the offline placeholder standings.
func FallbackRows() []Row {
	return Order([]Row{
		{Username: "guest01", Score: 250, SolvedCount: 5},
		{Username: "guest02", Score: 180, SolvedCount: 4},
		{Username: "guest03", Score: 120, SolvedCount: 3},
	})
}
