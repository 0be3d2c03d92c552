package game

import (
	"github.com/dariubs/percent"

	"github.com/KDT2006/seabattle/internal/board"
	"github.com/KDT2006/seabattle/internal/session"
)

// Player is one occupied slot of a lobby.
type Player struct {
	ID    session.ID
	Board *board.Board
	Ready bool
	Shots int
	Hits  int
}

// Accuracy is the share of shots that hit, in percent.
func (p *Player) Accuracy() float64 {
	if p.Shots == 0 {
		return 0
	}
	return percent.PercentOf(p.Hits, p.Shots)
}
