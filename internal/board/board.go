// Package board implements the server-owned 10x10 battle grid: fleet
// validation, shot resolution and sinking.
//
// Coordinates are (x, y) with x the column and y the row, so a cell is
// addressed as rows[y][x] on the wire.
package board

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Size is the side length of every board.
const Size = 10

// Cell is the state of one grid cell. Values match the wire encoding.
type Cell int

const (
	Empty Cell = iota
	Ship
	Hit
	Miss
	Sunk
)

func (c Cell) String() string {
	switch c {
	case Empty:
		return "empty"
	case Ship:
		return "ship"
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case Sunk:
		return "sunk"
	}
	return fmt.Sprintf("cell(%d)", int(c))
}

// Point addresses a cell.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) inBounds() bool {
	return p.X >= 0 && p.X < Size && p.Y >= 0 && p.Y < Size
}

// Outcome is the result of ResolveShot.
type Outcome int

const (
	// OutcomeAlreadyShot is returned for every rejected shot, together
	// with the error naming the reason.
	OutcomeAlreadyShot Outcome = iota
	OutcomeMiss
	OutcomeHit
)

// Board is a fixed grid of cells. The zero value is an empty board.
type Board struct {
	cells [Size][Size]Cell
}

// Parse converts a wire board into a Board. Only Empty and Ship values are
// accepted; the fleet itself is not checked (see Validate).
func Parse(rows [][]int) (Board, error) {
	var b Board
	if len(rows) != Size {
		return Board{}, ErrWrongDimensions
	}
	for y, row := range rows {
		if len(row) != Size {
			return Board{}, ErrWrongDimensions
		}
		for x, v := range row {
			c := Cell(v)
			if c != Empty && c != Ship {
				return Board{}, errors.Wrapf(ErrInvalidCell, "value %d at (%d,%d)", v, x, y)
			}
			b.cells[y][x] = c
		}
	}
	return b, nil
}

// At returns the cell at p, or Empty when p is off the board.
func (b *Board) At(p Point) Cell {
	if !p.inBounds() {
		return Empty
	}
	return b.cells[p.Y][p.X]
}

func (b *Board) set(p Point, c Cell) {
	b.cells[p.Y][p.X] = c
}

// Rows returns the wire encoding of the board.
func (b *Board) Rows() [][]int {
	rows := make([][]int, Size)
	for y := range Size {
		rows[y] = make([]int, Size)
		for x := range Size {
			rows[y][x] = int(b.cells[y][x])
		}
	}
	return rows
}

// Count returns how many cells are in state c.
func (b *Board) Count(c Cell) int {
	n := 0
	for y := range Size {
		for x := range Size {
			if b.cells[y][x] == c {
				n++
			}
		}
	}
	return n
}

// ResolveShot fires at p. Off-board and already attacked cells leave the
// board untouched.
func (b *Board) ResolveShot(p Point) (Outcome, error) {
	if !p.inBounds() {
		return OutcomeAlreadyShot, ErrOutOfRange
	}
	switch b.At(p) {
	case Ship:
		b.set(p, Hit)
		return OutcomeHit, nil
	case Empty:
		b.set(p, Miss)
		return OutcomeMiss, nil
	}
	return OutcomeAlreadyShot, ErrAlreadyShot
}

var axes = [4]Point{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// ShipCells collects the straight run of Ship/Hit cells through p.
// It returns nil when p is not part of a ship.
func (b *Board) ShipCells(p Point) []Point {
	if c := b.At(p); c != Ship && c != Hit {
		return nil
	}
	cells := []Point{p}
	for _, d := range axes {
		for q := (Point{p.X + d.X, p.Y + d.Y}); q.inBounds(); q = (Point{q.X + d.X, q.Y + d.Y}) {
			if c := b.At(q); c != Ship && c != Hit {
				break
			}
			cells = append(cells, q)
		}
	}
	return cells
}

// IsShipSunk reports whether the ship through the Hit cell p has no Ship
// cells left.
func (b *Board) IsShipSunk(p Point) bool {
	if b.At(p) != Hit {
		return false
	}
	for _, q := range b.ShipCells(p) {
		if b.At(q) == Ship {
			return false
		}
	}
	return true
}

// MarkSunk turns cells into Sunk and rings them with Miss wherever the
// neighbouring cell is still Empty.
func (b *Board) MarkSunk(cells []Point) {
	for _, p := range cells {
		if p.inBounds() {
			b.set(p, Sunk)
		}
	}
	for _, p := range cells {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				q := Point{p.X + dx, p.Y + dy}
				if q.inBounds() && b.At(q) == Empty {
					b.set(q, Miss)
				}
			}
		}
	}
}

// AllShipsSunk reports whether no Ship cells remain.
func (b *Board) AllShipsSunk() bool {
	return b.Count(Ship) == 0
}

// String renders the board one row per line for trace logs.
func (b *Board) String() string {
	var sb strings.Builder
	for y := range Size {
		for x := range Size {
			switch b.cells[y][x] {
			case Ship:
				sb.WriteByte('S')
			case Hit:
				sb.WriteByte('X')
			case Miss:
				sb.WriteByte('o')
			case Sunk:
				sb.WriteByte('#')
			default:
				sb.WriteByte('~')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
