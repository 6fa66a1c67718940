package minimax

import (
	"runtime"
	"sync"

	"connect4-engine/internals/board"
)

// ComputeMinimaxParallel scores the same tree as ComputeMinimax, evaluating
// the root's child subtrees on at most workers goroutines. The root is folded
// only after every subtree is done. workers <= 0 means runtime.NumCPU().
func (s *State) ComputeMinimaxParallel(workers int) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers == 1 || len(s.children) < 2 {
		s.ComputeMinimax()
		return
	}

	tasks := make(chan *State)
	var wg sync.WaitGroup
	for i := 0; i < min(workers, len(s.children)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for st := range tasks {
				st.ComputeMinimax()
			}
		}()
	}
	for _, c := range s.children {
		tasks <- c.state
	}
	close(tasks)
	wg.Wait()

	if s.terminal() {
		return
	}
	s.score = s.fold()
}

// PreferredMoveParallel is PreferredMove with the evaluation pass run by
// ComputeMinimaxParallel.
func (s *State) PreferredMoveParallel(workers int) (board.Move, bool) {
	moves := s.board.LegalMoves()
	if len(moves) == 0 {
		return board.Move{}, false
	}
	if !s.expanded || len(s.children) == 0 {
		return moves[0], true
	}
	s.ComputeMinimaxParallel(workers)
	return s.bestChild(), true
}
