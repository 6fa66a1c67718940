package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"connect4-engine/internals/board"
	"connect4-engine/internals/config"
	"connect4-engine/internals/minimax"
)

// maxBodyBytes bounds a request; a 6x7 board needs well under a kilobyte.
const maxBodyBytes = 64 << 10

type request struct {
	Board  []string   `json:"board"`
	ToMove board.Side `json:"to_move"`
	AI     board.Side `json:"ai"`
	Depth  *int       `json:"depth"`
	Tree   bool       `json:"tree"`
}

type response struct {
	Column int    `json:"column"`
	Score  int    `json:"score"`
	Depth  int    `json:"depth"`
	Nodes  int    `json:"nodes"`
	Tree   string `json:"tree,omitempty"`
}

// Handler searches the posted position and answers with the preferred move.
// Omitted fields fall back to an empty board and the configured AI.
func Handler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req request
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
			return
		}

		b := cfg.NewBoard()
		if len(req.Board) > 0 {
			parsed, err := board.Parse(req.Board)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			// The tree grows as columns^depth, so only the configured size is searched.
			if parsed.Rows() != b.Rows() || parsed.Columns() != b.Columns() {
				msg := fmt.Sprintf("board must be %dx%d, got %dx%d", b.Rows(), b.Columns(), parsed.Rows(), parsed.Columns())
				http.Error(w, msg, http.StatusBadRequest)
				return
			}
			b = parsed
		}
		if req.AI == board.None {
			req.AI = cfg.AISide()
		}
		if req.ToMove == board.None {
			req.ToMove = req.AI
		}
		depth := cfg.AI.Depth
		if req.Depth != nil {
			if *req.Depth < 0 {
				http.Error(w, "depth must be non-negative", http.StatusBadRequest)
				return
			}
			depth = min(*req.Depth, cfg.AI.MaxDepth)
		}
		if len(b.LegalMoves()) == 0 {
			http.Error(w, "board has no legal moves", http.StatusUnprocessableEntity)
			return
		}

		start := time.Now()
		root := minimax.New(req.AI, b, req.ToMove)
		root.ExpandUpTo(depth)
		var move board.Move
		if cfg.AI.Workers > 1 {
			move, _ = root.PreferredMoveParallel(cfg.AI.Workers)
		} else {
			move, _ = root.PreferredMove()
		}
		if !root.IsExpanded() {
			root.ComputeMinimax()
		}
		log.Printf("analyze: ai=%s to_move=%s depth=%d nodes=%d move=%d took=%s",
			req.AI, req.ToMove, depth, root.Size(), move.Column, time.Since(start))

		resp := response{
			Column: move.Column,
			Score:  root.Score(),
			Depth:  depth,
			Nodes:  root.Size(),
		}
		if req.Tree {
			resp.Tree = root.String()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}
