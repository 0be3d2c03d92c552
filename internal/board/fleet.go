package board

import (
	"github.com/pkg/errors"
)

// Fleet maps ship length to the number of ships of that length a valid
// board carries.
var Fleet = map[int]int{
	4: 1,
	3: 2,
	2: 3,
	1: 4,
}

// FleetCells is the number of ship cells on a valid board.
const FleetCells = 4*1 + 3*2 + 2*3 + 1*4

// ValidatePlacement parses rows and checks the fleet in one step.
func ValidatePlacement(rows [][]int) (Board, error) {
	b, err := Parse(rows)
	if err != nil {
		return Board{}, err
	}
	if err := b.Validate(); err != nil {
		return Board{}, err
	}
	return b, nil
}

// Validate checks that the Ship cells form exactly the required fleet of
// straight runs with no two ships touching, diagonals included.
func (b *Board) Validate() error {
	// ship[y][x] holds the 1-based run id of each ship cell.
	var ship [Size][Size]int
	counts := make(map[int]int, len(Fleet))
	runs := 0

	for y := range Size {
		for x := range Size {
			if b.cells[y][x] != Ship || ship[y][x] != 0 {
				continue
			}
			runs++
			d := Point{0, 1}
			if x+1 < Size && b.cells[y][x+1] == Ship {
				d = Point{1, 0}
			}
			length := 0
			for p := (Point{x, y}); p.inBounds() && b.At(p) == Ship; p = (Point{p.X + d.X, p.Y + d.Y}) {
				if ship[p.Y][p.X] != 0 {
					return errors.Wrapf(ErrInvalidFleet, "ships cross at (%d,%d)", p.X, p.Y)
				}
				ship[p.Y][p.X] = runs
				length++
			}
			if _, ok := Fleet[length]; !ok {
				return errors.Wrapf(ErrInvalidFleet, "ship of length %d at (%d,%d)", length, x, y)
			}
			counts[length]++
		}
	}

	for y := range Size {
		for x := range Size {
			id := ship[y][x]
			if id == 0 {
				continue
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					q := Point{x + dx, y + dy}
					if !q.inBounds() {
						continue
					}
					if other := ship[q.Y][q.X]; other != 0 && other != id {
						return errors.Wrapf(ErrInvalidFleet, "ships touch at (%d,%d)", x, y)
					}
				}
			}
		}
	}

	for length, want := range Fleet {
		if got := counts[length]; got != want {
			return errors.Wrapf(ErrInvalidFleet, "want %d ships of length %d, got %d", want, length, got)
		}
	}
	return nil
}
