package board

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	DefaultRows    = 6
	DefaultColumns = 7
)

var (
	ErrInvalidColumn  = errors.New("invalid column")
	ErrColumnFull     = errors.New("column is full")
	ErrNoSide         = errors.New("no side to play")
	ErrMalformedBoard = errors.New("malformed board")
	ErrUnknownSide    = errors.New("unknown side")
)

// Side is one of the two players, or None for an empty cell.
type Side int8

const (
	None Side = iota
	Red
	Yellow
)

// Next returns the side that plays after s.
func (s Side) Next() Side {
	switch s {
	case Red:
		return Yellow
	case Yellow:
		return Red
	}
	return None
}

func (s Side) Initial() string {
	switch s {
	case Red:
		return "R"
	case Yellow:
		return "Y"
	}
	return "."
}

func (s Side) String() string {
	switch s {
	case Red:
		return "red"
	case Yellow:
		return "yellow"
	}
	return "none"
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	v, err := ParseSide(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func ParseSide(v string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "r", "red":
		return Red, nil
	case "y", "yellow":
		return Yellow, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownSide, v)
}

// Move drops a disc into a column.
type Move struct {
	Column int `json:"column"`
}

// Compare orders moves by column, leftmost first.
func (m Move) Compare(o Move) int {
	switch {
	case m.Column < o.Column:
		return -1
	case m.Column > o.Column:
		return 1
	}
	return 0
}

func (m Move) String() string {
	return fmt.Sprintf("column %d", m.Column)
}

// Location is a single cell. Row 0 is the top of the board.
type Location struct {
	Row int
	Col int
}

func (l Location) IsOccupied(b Board) bool {
	return b.At(l.Row, l.Col) != None
}

func (l Location) Player(b Board) Side {
	return b.At(l.Row, l.Col)
}

// geometry is shared read-only by every snapshot of the same dimensions.
type geometry struct {
	rows  int
	cols  int
	lines [][4]Location
}

var geometries sync.Map // [2]int -> *geometry

func geometryFor(rows, cols int) *geometry {
	key := [2]int{rows, cols}
	if g, ok := geometries.Load(key); ok {
		return g.(*geometry)
	}
	g, _ := geometries.LoadOrStore(key, &geometry{rows: rows, cols: cols, lines: fourInARows(rows, cols)})
	return g.(*geometry)
}

// fourInARows enumerates every window of four cells a connect four can occupy.
func fourInARows(rows, cols int) [][4]Location {
	var lines [][4]Location

	// Horizontal
	for r := 0; r < rows; r++ {
		for c := 0; c+3 < cols; c++ {
			lines = append(lines, [4]Location{{r, c}, {r, c + 1}, {r, c + 2}, {r, c + 3}})
		}
	}

	// Vertical
	for c := 0; c < cols; c++ {
		for r := 0; r+3 < rows; r++ {
			lines = append(lines, [4]Location{{r, c}, {r + 1, c}, {r + 2, c}, {r + 3, c}})
		}
	}

	// Down-right diagonal
	for r := 0; r+3 < rows; r++ {
		for c := 0; c+3 < cols; c++ {
			lines = append(lines, [4]Location{{r, c}, {r + 1, c + 1}, {r + 2, c + 2}, {r + 3, c + 3}})
		}
	}

	// Up-right diagonal
	for r := 3; r < rows; r++ {
		for c := 0; c+3 < cols; c++ {
			lines = append(lines, [4]Location{{r, c}, {r - 1, c + 1}, {r - 2, c + 2}, {r - 3, c + 3}})
		}
	}
	return lines
}

// Board is an immutable snapshot of cell occupancy. Apply returns a new
// snapshot and never touches the receiver.
type Board struct {
	geo   *geometry
	cells []Side
}

// New returns an empty rows x cols board.
func New(rows, cols int) Board {
	if rows < 1 || cols < 1 {
		panic(fmt.Sprintf("board: invalid dimensions %dx%d", rows, cols))
	}
	return Board{geo: geometryFor(rows, cols), cells: make([]Side, rows*cols)}
}

// Parse builds a board from rows listed top to bottom, one rune per cell:
// '.' for empty, 'R' or 'Y' for a disc. Discs must rest on the bottom or on
// another disc.
func Parse(lines []string) (Board, error) {
	if len(lines) == 0 {
		return Board{}, fmt.Errorf("%w: no rows", ErrMalformedBoard)
	}
	cols := len(lines[0])
	if cols == 0 {
		return Board{}, fmt.Errorf("%w: empty row", ErrMalformedBoard)
	}
	b := New(len(lines), cols)
	for r, line := range lines {
		if len(line) != cols {
			return Board{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformedBoard, r, len(line), cols)
		}
		for c, ch := range line {
			switch ch {
			case '.', ' ', '_':
			case 'R', 'r':
				b.cells[r*cols+c] = Red
			case 'Y', 'y':
				b.cells[r*cols+c] = Yellow
			default:
				return Board{}, fmt.Errorf("%w: unexpected %q at row %d col %d", ErrMalformedBoard, ch, r, c)
			}
		}
	}
	for r := 1; r < b.geo.rows; r++ {
		for c := 0; c < cols; c++ {
			if b.cells[(r-1)*cols+c] != None && b.cells[r*cols+c] == None {
				return Board{}, fmt.Errorf("%w: floating disc at row %d col %d", ErrMalformedBoard, r-1, c)
			}
		}
	}
	return b, nil
}

func MustParse(lines ...string) Board {
	b, err := Parse(lines)
	if err != nil {
		panic(err)
	}
	return b
}

func (b Board) Rows() int    { return b.geo.rows }
func (b Board) Columns() int { return b.geo.cols }

// At returns the side occupying the cell, None when empty or off the board.
func (b Board) At(row, col int) Side {
	if row < 0 || row >= b.geo.rows || col < 0 || col >= b.geo.cols {
		return None
	}
	return b.cells[row*b.geo.cols+col]
}

// FourInARows returns every line of four locations on this board's geometry.
// The slice is shared and must not be modified.
func (b Board) FourInARows() [][4]Location {
	return b.geo.lines
}

func (b Board) canPlay(col int) bool {
	return b.cells[col] == None
}

// LegalMoves returns the playable columns, smallest column first.
func (b Board) LegalMoves() []Move {
	moves := make([]Move, 0, b.geo.cols)
	for c := 0; c < b.geo.cols; c++ {
		if b.canPlay(c) {
			moves = append(moves, Move{Column: c})
		}
	}
	return moves
}

// Apply drops side's disc into move's column and returns the new board.
func (b Board) Apply(side Side, move Move) (Board, error) {
	if side == None {
		return Board{}, ErrNoSide
	}
	col := move.Column
	if col < 0 || col >= b.geo.cols {
		return Board{}, fmt.Errorf("%w: %d", ErrInvalidColumn, col)
	}

	// find lowest empty row
	for row := b.geo.rows - 1; row >= 0; row-- {
		idx := row*b.geo.cols + col
		if b.cells[idx] == None {
			next := Board{geo: b.geo, cells: make([]Side, len(b.cells))}
			copy(next.cells, b.cells)
			next.cells[idx] = side
			return next, nil
		}
	}
	return Board{}, fmt.Errorf("%w: %d", ErrColumnFull, col)
}

// HasConnectFour returns the side owning four connected discs, or None.
func (b Board) HasConnectFour() Side {
	for _, line := range b.geo.lines {
		first := line[0].Player(b)
		if first == None {
			continue
		}
		if line[1].Player(b) == first && line[2].Player(b) == first && line[3].Player(b) == first {
			return first
		}
	}
	return None
}

// IsFull returns true if no disc can be dropped anywhere.
func (b Board) IsFull() bool {
	for c := 0; c < b.geo.cols; c++ {
		if b.canPlay(c) {
			return false
		}
	}
	return true
}

// Count returns how many discs side has on the board.
func (b Board) Count(side Side) int {
	n := 0
	for _, s := range b.cells {
		if s == side {
			n++
		}
	}
	return n
}

func (b Board) Equal(o Board) bool {
	if b.geo != o.geo || len(b.cells) != len(o.cells) {
		return false
	}
	for i := range b.cells {
		if b.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// Lines renders the board top to bottom in the format Parse accepts.
func (b Board) Lines() []string {
	out := make([]string, b.geo.rows)
	var sb strings.Builder
	for r := 0; r < b.geo.rows; r++ {
		sb.Reset()
		for c := 0; c < b.geo.cols; c++ {
			sb.WriteString(b.At(r, c).Initial())
		}
		out[r] = sb.String()
	}
	return out
}

// Format renders the board with every line prefixed by indent, followed by a
// column ruler.
func (b Board) Format(indent string) string {
	var sb strings.Builder
	for _, line := range b.Lines() {
		sb.WriteString(indent)
		sb.WriteString("|")
		for i, ch := range line {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteRune(ch)
		}
		sb.WriteString("|\n")
	}
	sb.WriteString(indent)
	sb.WriteString(" ")
	for c := 0; c < b.geo.cols; c++ {
		if c > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(fmt.Sprint(c % 10))
	}
	return sb.String()
}

func (b Board) String() string {
	return b.Format("")
}
