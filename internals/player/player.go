package player

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"log"
	"math/rand/v2"
	"time"

	"connect4-engine/internals/board"
	"connect4-engine/internals/minimax"
)

var ErrNoLegalMoves = errors.New("no legal moves")

// Player picks moves for one side.
type Player interface {
	Name() string
	Side() board.Side
	Move(ctx context.Context, b board.Board) (board.Move, error)
}

// AI searches a minimax tree of fixed depth rooted at the current board.
type AI struct {
	side    board.Side
	depth   int
	workers int
	logger  *log.Logger
}

// NewAI returns a minimax player. A nil logger discards diagnostics; workers
// above one evaluates root subtrees concurrently.
func NewAI(side board.Side, depth, workers int, logger *log.Logger) *AI {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &AI{side: side, depth: depth, workers: workers, logger: logger}
}

func (a *AI) Name() string     { return fmt.Sprintf("AI-%d", a.depth) }
func (a *AI) Side() board.Side { return a.side }
func (a *AI) Depth() int       { return a.depth }

func (a *AI) Move(ctx context.Context, b board.Board) (board.Move, error) {
	if err := ctx.Err(); err != nil {
		return board.Move{}, err
	}
	_, move, err := a.Search(b)
	return move, err
}

// Search builds and evaluates the tree for b, returning the evaluated root
// along with the preferred move.
func (a *AI) Search(b board.Board) (*minimax.State, board.Move, error) {
	if len(b.LegalMoves()) == 0 {
		return nil, board.Move{}, ErrNoLegalMoves
	}
	start := time.Now()
	root := minimax.New(a.side, b, a.side)
	root.ExpandUpTo(a.depth)
	var (
		move board.Move
		ok   bool
	)
	if a.workers > 1 {
		move, ok = root.PreferredMoveParallel(a.workers)
	} else {
		move, ok = root.PreferredMove()
	}
	if !ok {
		return nil, board.Move{}, ErrNoLegalMoves
	}
	if !root.IsExpanded() {
		root.ComputeMinimax()
	}
	a.logger.Printf("%s (%s): depth=%d nodes=%d score=%d move=%d took=%s",
		a.Name(), a.side, a.depth, root.Size(), root.Score(), move.Column, time.Since(start))
	return root, move, nil
}

// Random picks a legal move uniformly at random. Every Random shares one name
// so rankings aggregate across seeds.
type Random struct {
	name string
	side board.Side
	rng  *rand.Rand
}

// NewRandom returns a random player whose choices are reproducible for a
// given seed string.
func NewRandom(side board.Side, seed string) *Random {
	h := fnv.New64a()
	h.Write([]byte(seed))
	sum := h.Sum64()
	return &Random{
		name: "Random",
		side: side,
		rng:  rand.New(rand.NewPCG(sum, sum>>1|1)),
	}
}

func (r *Random) Name() string     { return r.name }
func (r *Random) Side() board.Side { return r.side }

func (r *Random) Move(ctx context.Context, b board.Board) (board.Move, error) {
	if err := ctx.Err(); err != nil {
		return board.Move{}, err
	}
	moves := b.LegalMoves()
	if len(moves) == 0 {
		return board.Move{}, ErrNoLegalMoves
	}
	return moves[r.rng.IntN(len(moves))], nil
}
