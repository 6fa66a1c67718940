package player_test

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"

	"connect4-engine/internals/board"
	"connect4-engine/internals/player"
)

var fullBoard = []string{"RYRY", "RYRY", "YRYR", "YRYR"}

func TestAIMove(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		depth int
		want  int
	}{
		{
			name:  "empty board takes the center",
			lines: []string{".......", ".......", ".......", ".......", ".......", "......."},
			depth: 1,
			want:  3,
		},
		{
			name:  "takes the win",
			lines: []string{".......", ".......", ".......", ".......", ".....Y.", "RRR.YY."},
			depth: 1,
			want:  3,
		},
		{
			name:  "blocks the loss",
			lines: []string{".......", ".......", ".......", ".......", "RR.....", "YYY...."},
			depth: 2,
			want:  3,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, workers := range []int{1, 4} {
				ai := player.NewAI(board.Red, tc.depth, workers, nil)
				got, err := ai.Move(context.Background(), board.MustParse(tc.lines...))
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got.Column != tc.want {
					t.Errorf("workers=%d: want column %d, got %d", workers, tc.want, got.Column)
				}
			}
		})
	}
}

func TestAIMoveErrors(t *testing.T) {
	ai := player.NewAI(board.Red, 2, 1, nil)
	if _, err := ai.Move(context.Background(), board.MustParse(fullBoard...)); !errors.Is(err, player.ErrNoLegalMoves) {
		t.Errorf("full board: want ErrNoLegalMoves, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ai.Move(ctx, board.New(6, 7)); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context: want context.Canceled, got %v", err)
	}
}

func TestAISearchLogs(t *testing.T) {
	var buf bytes.Buffer
	ai := player.NewAI(board.Yellow, 2, 1, log.New(&buf, "", 0))

	root, move, err := ai.Search(board.New(6, 7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if root.Size() != 1+7+49 {
		t.Errorf("want 57 nodes, got %d", root.Size())
	}
	// Every opening leaves Yellow at best three lines behind Red's strongest
	// reply; column 1 is the leftmost move that holds it there.
	if root.Score() != -3 || move.Column != 1 {
		t.Errorf("want score -3 in column 1, got %d in column %d", root.Score(), move.Column)
	}
	if !strings.Contains(buf.String(), "nodes=57") {
		t.Errorf("log line missing node count: %q", buf.String())
	}
}

func TestRandomMove(t *testing.T) {
	b := board.MustParse(
		"R.Y.R..",
		"Y.R.Y..",
		"R.Y.R..",
		"Y.R.Y..",
		"R.Y.R..",
		"Y.R.Y..",
	)
	legal := map[int]bool{1: true, 3: true, 5: true, 6: true}

	a := player.NewRandom(board.Yellow, "seed")
	c := player.NewRandom(board.Yellow, "seed")
	for i := 0; i < 50; i++ {
		ma, err := a.Move(context.Background(), b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		mc, _ := c.Move(context.Background(), b)
		if !legal[ma.Column] {
			t.Fatalf("illegal move %v", ma)
		}
		if ma != mc {
			t.Fatalf("same seed produced different moves: %v vs %v", ma, mc)
		}
	}

	if a.Name() != "Random" || a.Side() != board.Yellow {
		t.Errorf("unexpected identity %q %v", a.Name(), a.Side())
	}
	if _, err := a.Move(context.Background(), board.MustParse(fullBoard...)); !errors.Is(err, player.ErrNoLegalMoves) {
		t.Errorf("full board: want ErrNoLegalMoves, got %v", err)
	}
}
