package board

import (
	"math/rand/v2"

	"github.com/pkg/errors"
)

const (
	maxShipAttempts  = 50
	maxFleetAttempts = 100
)

// Random places a full fleet at random positions. The result always passes
// Validate.
func Random(r *rand.Rand) (Board, error) {
	lengths := make([]int, 0, 10)
	for _, length := range []int{4, 3, 2, 1} {
		for range Fleet[length] {
			lengths = append(lengths, length)
		}
	}

	for range maxFleetAttempts {
		var b Board
		placed := true
		for _, length := range lengths {
			if !b.placeRandom(r, length) {
				placed = false
				break
			}
		}
		if placed {
			return b, nil
		}
	}
	return Board{}, errors.New("could not place fleet")
}

func (b *Board) placeRandom(r *rand.Rand, length int) bool {
	for range maxShipAttempts {
		horizontal := r.IntN(2) == 0
		var bow, d Point
		if horizontal {
			bow = Point{r.IntN(Size - length + 1), r.IntN(Size)}
			d = Point{1, 0}
		} else {
			bow = Point{r.IntN(Size), r.IntN(Size - length + 1)}
			d = Point{0, 1}
		}
		if b.canPlace(bow, d, length) {
			for i := range length {
				b.set(Point{bow.X + d.X*i, bow.Y + d.Y*i}, Ship)
			}
			return true
		}
	}
	return false
}

// canPlace reports whether a ship fits with an empty ring around it.
func (b *Board) canPlace(bow, d Point, length int) bool {
	for i := range length {
		p := Point{bow.X + d.X*i, bow.Y + d.Y*i}
		if !p.inBounds() {
			return false
		}
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if b.At(Point{p.X + dx, p.Y + dy}) == Ship {
					return false
				}
			}
		}
	}
	return true
}
