package minimax

import "connect4-engine/internals/board"

// Heuristic sums, over every line of four on b, +1 for each of designated's
// discs and -1 for each opponent disc. Lines crowded with designated's discs
// raise the value.
func Heuristic(b board.Board, designated board.Side) int {
	sum := 0
	for _, line := range b.FourInARows() {
		for _, loc := range line {
			switch {
			case !loc.IsOccupied(b):
			case loc.Player(b) == designated:
				sum++
			default:
				sum--
			}
		}
	}
	return sum
}
