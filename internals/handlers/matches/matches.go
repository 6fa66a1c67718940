package matches

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"connect4-engine/internals/config"
	"connect4-engine/internals/match"
	"connect4-engine/internals/player"
	"connect4-engine/internals/storage"

	lru "github.com/hashicorp/golang-lru"
)

// Store is the persistence the handlers need; *storage.Repository satisfies it.
type Store interface {
	SaveMatches(ctx context.Context, results []match.Result) error
	Match(ctx context.Context, id string) (storage.MatchRecord, error)
	Rankings(ctx context.Context) ([]storage.Standing, error)
}

type Handler struct {
	cfg    *config.Config
	store  Store
	recent *lru.Cache // match id -> storage.MatchRecord
}

func New(cfg *config.Config, store Store) (*Handler, error) {
	cache, err := lru.New(cfg.Matches.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating match cache: %w", err)
	}
	return &Handler{cfg: cfg, store: store, recent: cache}, nil
}

// Register mounts the match and ranking routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/matches", h.Create)
	mux.HandleFunc("GET /api/matches/{id}", h.Get)
	mux.HandleFunc("GET /api/rankings", h.Rankings)
}

type createRequest struct {
	Games int    `json:"games"`
	Depth *int   `json:"depth"`
	Seed  string `json:"seed"`
}

type createResponse struct {
	Matches []storage.MatchRecord `json:"matches"`
	Wins    map[string]int        `json:"wins"`
}

// Create plays AI-vs-Random matches, alternating who starts, and stores them.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	r.Body = http.MaxBytesReader(w, r.Body, 4<<10)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Games < 0 || (req.Depth != nil && *req.Depth < 0) {
		http.Error(w, "games and depth must be non-negative", http.StatusBadRequest)
		return
	}
	games := min(max(req.Games, 1), h.cfg.Matches.MaxGames)
	depth := h.cfg.AI.Depth
	if req.Depth != nil {
		depth = min(*req.Depth, h.cfg.AI.MaxDepth)
	}
	seed := req.Seed
	if seed == "" {
		seed = h.cfg.Matches.Seed
	}

	side := h.cfg.AISide()
	jobs := make([]match.Job, games)
	for i := range jobs {
		ai := player.NewAI(side, depth, h.cfg.AI.Workers, log.Default())
		opp := player.NewRandom(side.Next(), fmt.Sprintf("%s-%d", seed, i))
		jobs[i] = match.Job{First: ai, Second: opp, Board: h.cfg.NewBoard()}
		if i%2 == 1 {
			jobs[i].First, jobs[i].Second = opp, ai
		}
	}

	results, err := match.Tournament(r.Context(), jobs, h.cfg.Matches.Workers)
	if err != nil {
		log.Printf("Error playing matches: %v", err)
		http.Error(w, "Failed to play matches", http.StatusInternalServerError)
		return
	}

	// One transaction, so a failed save leaves nothing stored or cached.
	if err := h.store.SaveMatches(r.Context(), results); err != nil {
		log.Printf("Error saving %d matches: %v", len(results), err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	resp := createResponse{Wins: map[string]int{}}
	for _, res := range results {
		rec := storage.Record(res)
		h.recent.Add(rec.ID, rec)
		resp.Matches = append(resp.Matches, rec)
		resp.Wins[res.Winner]++
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// Get serves a match from the cache, falling back to the store.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if v, ok := h.recent.Get(id); ok {
		writeJSON(w, v)
		return
	}
	rec, err := h.store.Match(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Match not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error loading match %s: %v", id, err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	h.recent.Add(id, rec)
	writeJSON(w, rec)
}

func (h *Handler) Rankings(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.store.Rankings(r.Context())
	if err != nil {
		log.Printf("Error fetching rankings: %v", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, ranking)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
