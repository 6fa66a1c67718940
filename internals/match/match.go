package match

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"connect4-engine/internals/board"
	"connect4-engine/internals/player"

	"github.com/google/uuid"
)

const (
	Draw = "draw"

	ReasonConnectFour = "connect4"
	ReasonDraw        = "draw"
)

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrSameSide    = errors.New("players must play opposite sides")
)

// Turn records one disc dropped during a match.
type Turn struct {
	Column int        `json:"column"`
	Side   board.Side `json:"side"`
}

// Result is the record of a finished match.
type Result struct {
	ID        string        `json:"id"`
	First     string        `json:"first"`
	Second    string        `json:"second"`
	Winner    string        `json:"winner"` // player name or "draw"
	Reason    string        `json:"reason"`
	Moves     []Turn        `json:"moves"`
	Final     []string      `json:"final"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// MovesString encodes the moves as comma separated "col:side" pairs.
func (r Result) MovesString() string {
	parts := make([]string, len(r.Moves))
	for i, m := range r.Moves {
		parts[i] = fmt.Sprintf("%d:%s", m.Column, m.Side.Initial())
	}
	return strings.Join(parts, ",")
}

// Play alternates first and second from b until someone connects four or the
// board fills up.
func Play(ctx context.Context, id string, first, second player.Player, b board.Board) (Result, error) {
	if first.Side() == second.Side() || first.Side() == board.None || second.Side() == board.None {
		return Result{}, ErrSameSide
	}
	if id == "" {
		id = uuid.New().String()
	}
	result := Result{
		ID:        id,
		First:     first.Name(),
		Second:    second.Name(),
		StartedAt: time.Now(),
	}
	players := [2]player.Player{first, second}

	for turn := 0; ; turn++ {
		if winner := b.HasConnectFour(); winner != board.None {
			result.Reason = ReasonConnectFour
			for _, p := range players {
				if p.Side() == winner {
					result.Winner = p.Name()
				}
			}
			break
		}
		if b.IsFull() {
			result.Winner = Draw
			result.Reason = ReasonDraw
			break
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		p := players[turn%2]
		move, err := p.Move(ctx, b)
		if err != nil {
			return Result{}, fmt.Errorf("%s: %w", p.Name(), err)
		}
		next, err := b.Apply(p.Side(), move)
		if err != nil {
			return Result{}, fmt.Errorf("%w by %s: %w", ErrIllegalMove, p.Name(), err)
		}
		b = next
		result.Moves = append(result.Moves, Turn{Column: move.Column, Side: p.Side()})
	}

	result.Final = b.Lines()
	result.Duration = time.Since(result.StartedAt)
	return result, nil
}

// Job describes one match for Tournament. Jobs run concurrently, so a player
// holding mutable state (such as player.Random) must not appear in two jobs.
type Job struct {
	First  player.Player
	Second player.Player
	Board  board.Board
}

type task struct {
	index int
	job   Job
}

// Tournament plays every job on a pool of workers. Results keep the order of
// jobs; the first error stops the remaining jobs.
func Tournament(ctx context.Context, jobs []Job, workers int) ([]Result, error) {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan task)
	results := make([]Result, len(jobs))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	for w := 0; w < min(workers, max(len(jobs), 1)); w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for t := range tasks {
				res, err := Play(ctx, "", t.job.First, t.job.Second, t.job.Board)
				if err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					continue
				}
				results[t.index] = res
				log.Printf("match %s finished on worker %d: winner=%s moves=%d", res.ID, id, res.Winner, len(res.Moves))
			}
		}(w)
	}

feed:
	for i, j := range jobs {
		select {
		case tasks <- task{index: i, job: j}:
		case <-ctx.Done():
			break feed
		}
	}
	close(tasks)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
