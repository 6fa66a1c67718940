package analysis_test

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"connect4-engine/internals/config"
	"connect4-engine/internals/handlers/analysis"
)

func testConfig(workers int) *config.Config {
	cfg := &config.Config{}
	cfg.Game.BoardRows = 6
	cfg.Game.BoardColumns = 7
	cfg.AI.Side = "red"
	cfg.AI.Depth = 1
	cfg.AI.MaxDepth = 2
	cfg.AI.Workers = workers
	return cfg
}

type result struct {
	Column int    `json:"column"`
	Score  int    `json:"score"`
	Depth  int    `json:"depth"`
	Nodes  int    `json:"nodes"`
	Tree   string `json:"tree"`
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name string
		body string
		want result
	}{
		{
			name: "defaults",
			body: `{}`,
			want: result{Column: 3, Score: 7, Depth: 1, Nodes: 8},
		},
		{
			name: "yellow to move",
			body: `{"ai":"Y","to_move":"Y","depth":2}`,
			want: result{Column: 1, Score: -3, Depth: 2, Nodes: 57},
		},
		{
			name: "depth is capped",
			body: `{"depth":9}`,
			want: result{Column: 3, Score: -3, Depth: 2, Nodes: 57},
		},
		{
			name: "takes the win",
			body: `{"board":[".......",".......",".......",".......",".....Y.","RRR.YY."]}`,
			want: result{Column: 3, Score: math.MaxInt, Depth: 1, Nodes: 8},
		},
	}
	for _, workers := range []int{1, 4} {
		h := analysis.Handler(testConfig(workers))
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				rec := post(t, h, tc.body)
				if rec.Code != http.StatusOK {
					t.Fatalf("status %d: %s", rec.Code, rec.Body)
				}
				var got result
				if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
					t.Fatalf("decoding response: %v", err)
				}
				if got != tc.want {
					t.Errorf("workers=%d want: %+v, got: %+v", workers, tc.want, got)
				}
			})
		}
	}
}

func TestAnalyzeTree(t *testing.T) {
	rec := post(t, analysis.Handler(testConfig(1)), `{"depth":1,"tree":true}`)
	var got result
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !strings.Contains(got.Tree, "Children at depth 1:") || !strings.HasPrefix(got.Tree, "AI will play next") {
		t.Errorf("unexpected tree dump:\n%s", got.Tree)
	}
}

func TestAnalyzeRejects(t *testing.T) {
	h := analysis.Handler(testConfig(1))
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "malformed json", body: `{`, want: http.StatusBadRequest},
		{name: "unknown side", body: `{"ai":"blue"}`, want: http.StatusBadRequest},
		{name: "bad cell", body: `{"board":["..X"]}`, want: http.StatusBadRequest},
		{name: "ragged rows", body: `{"board":["...", ".."]}`, want: http.StatusBadRequest},
		{name: "negative depth", body: `{"depth":-1}`, want: http.StatusBadRequest},
		{name: "floating disc", body: `{"board":["R......",".......",".......",".......",".......","......."]}`, want: http.StatusBadRequest},
		{name: "too few rows", body: `{"board":[".......","......."]}`, want: http.StatusBadRequest},
		{name: "too wide", body: `{"board":["` + strings.Repeat(".", 400) + `"],"depth":2}`, want: http.StatusBadRequest},
		{name: "oversized body", body: `{"board":["` + strings.Repeat(".", 100_000) + `"]}`, want: http.StatusRequestEntityTooLarge},
		{name: "full board", body: `{"board":["RYRYRYR","RYRYRYR","YRYRYRY","YRYRYRY","RYRYRYR","RYRYRYR"]}`, want: http.StatusUnprocessableEntity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if rec := post(t, h, tc.body); rec.Code != tc.want {
				t.Errorf("want: %d, got: %d (%s)", tc.want, rec.Code, rec.Body)
			}
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/analyze", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET: want 405, got %d", rec.Code)
	}
}
