// Package minimax builds a bounded game tree over Connect Four positions and
// backs heuristic leaf scores up to the root to pick a move for one side.
package minimax

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"connect4-engine/internals/board"
)

const (
	// WinScore is the value of a board the designated side has won.
	WinScore = math.MaxInt
	// LossScore is the value of a board the opponent has won.
	LossScore = math.MinInt
	// DrawScore is the value of a full board with no connect four.
	DrawScore = 0
)

var (
	ErrNotExpanded = errors.New("state is not expanded")
	ErrInvalidMove = errors.New("move was not expanded from this state")
)

// child pairs a legal move with the state it leads to.
type child struct {
	move  board.Move
	state *State
}

// State is one node of the game tree: a board and the side to move next.
// A State exclusively owns its children; no node has two parents.
type State struct {
	designated board.Side
	board      board.Board
	toMove     board.Side

	// expanded separates "never expanded" from "expanded with no legal moves".
	expanded bool
	children []child // column order; only meaningful when expanded

	score int
}

// New returns an unexpanded leaf. designated is the side the scores favour.
func New(designated board.Side, b board.Board, toMove board.Side) *State {
	return &State{
		designated: designated,
		board:      b,
		toMove:     toMove,
	}
}

func (s *State) Designated() board.Side { return s.designated }
func (s *State) Board() board.Board      { return s.board }
func (s *State) SideToMove() board.Side  { return s.toMove }
func (s *State) IsExpanded() bool        { return s.expanded }

// Score is valid only after ComputeMinimax.
func (s *State) Score() int { return s.score }

// Moves returns the expanded moves in column order, nil when unexpanded.
func (s *State) Moves() []board.Move {
	if !s.expanded {
		return nil
	}
	moves := make([]board.Move, len(s.children))
	for i, c := range s.children {
		moves[i] = c.move
	}
	return moves
}

// Child returns the state reached by move.
func (s *State) Child(move board.Move) (*State, error) {
	if !s.expanded {
		return nil, ErrNotExpanded
	}
	for _, c := range s.children {
		if c.move == move {
			return c.state, nil
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidMove, move)
}

// Size counts the nodes in this subtree, this state included.
func (s *State) Size() int {
	n := 1
	for _, c := range s.children {
		n += c.state.Size()
	}
	return n
}

// ExpandUpTo grows the subtree so every path from s has length
// min(depth, plies left on the board). Existing children are reused, and a
// depth of zero leaves s exactly as found.
func (s *State) ExpandUpTo(depth int) {
	if depth < 0 {
		panic(fmt.Sprintf("minimax: negative expansion depth %d", depth))
	}
	if depth == 0 {
		return
	}
	if !s.expanded {
		s.expand()
	}
	for _, c := range s.children {
		c.state.ExpandUpTo(depth - 1)
	}
}

func (s *State) expand() {
	moves := s.board.LegalMoves()
	s.children = make([]child, 0, len(moves))
	for _, m := range moves {
		next, err := s.board.Apply(s.toMove, m)
		if err != nil {
			panic(fmt.Sprintf("BUG: legal move %v rejected: %v", m, err))
		}
		s.children = append(s.children, child{
			move:  m,
			state: New(s.designated, next, s.toMove.Next()),
		})
	}
	s.expanded = true
}

// ComputeMinimax recomputes the score of s and of every descendant,
// children before parents.
func (s *State) ComputeMinimax() {
	if s.terminal() {
		// Descendants are still refreshed so the whole tree stays current.
		for _, c := range s.children {
			c.state.ComputeMinimax()
		}
		return
	}
	if !s.expanded {
		s.score = Heuristic(s.board, s.designated)
		return
	}
	for _, c := range s.children {
		c.state.ComputeMinimax()
	}
	s.score = s.fold()
}

// terminal sets the exact score of a won or drawn board. A win outranks a full
// board because the last disc can both fill the board and connect four.
func (s *State) terminal() bool {
	switch winner := s.board.HasConnectFour(); {
	case winner == s.designated:
		s.score = WinScore
		return true
	case winner != board.None:
		s.score = LossScore
		return true
	case s.board.IsFull():
		s.score = DrawScore
		return true
	}
	return false
}

// fold reduces the children's scores with the side to move's preference.
// Callers guarantee the children are already evaluated.
func (s *State) fold() int {
	if len(s.children) == 0 {
		return Heuristic(s.board, s.designated)
	}
	best := s.children[0].state.score
	for _, c := range s.children[1:] {
		best = s.preferred(best, c.state.score)
	}
	return best
}

func (s *State) preferred(v1, v2 int) int {
	if s.toMove == s.designated {
		return max(v1, v2)
	}
	return min(v1, v2)
}

// PreferredMove returns the move the side to move should make: the leftmost
// move whose child matches this state's minimax score. When s is unexpanded
// the first legal move is returned unscored; ok is false only when the board
// has no legal move at all.
func (s *State) PreferredMove() (move board.Move, ok bool) {
	moves := s.board.LegalMoves()
	if len(moves) == 0 {
		return board.Move{}, false
	}
	if !s.expanded || len(s.children) == 0 {
		return moves[0], true
	}
	s.ComputeMinimax()
	return s.bestChild(), true
}

// bestChild returns the leftmost move whose child carries s's score. The
// subtree must already be evaluated.
func (s *State) bestChild() board.Move {
	for _, c := range s.children {
		if c.state.score == s.score {
			return c.move
		}
	}
	// A terminal root with children keeps its exact score, which none of the
	// children may share.
	return s.children[0].move
}

// String dumps the tree for debugging.
func (s *State) String() string {
	var sb strings.Builder
	s.format(&sb, 0, "")
	return sb.String()
}

func (s *State) format(sb *strings.Builder, depth int, indent string) {
	who := "Opponent"
	if s.toMove == s.designated {
		who = "AI"
	}
	fmt.Fprintf(sb, "%s%s will play next on the board below as %s\n", indent, who, s.toMove.Initial())
	fmt.Fprintf(sb, "%sValue: %d\n", indent, s.score)
	sb.WriteString(s.board.Format(indent))
	sb.WriteString("\n")
	if len(s.children) > 0 {
		fmt.Fprintf(sb, "%sChildren at depth %d:\n%s----------------\n", indent, depth+1, indent)
		for _, c := range s.children {
			c.state.format(sb, depth+1, indent+"   ")
		}
	}
}
