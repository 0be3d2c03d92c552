package game

import (
	"time"

	"github.com/KDT2006/seabattle/internal/session"
)

type State string

const (
	StateWaiting     State = "WAITING"
	StateReadyPaired State = "READY_PAIRED"
	StateActive      State = "ACTIVE"
	StateFinished    State = "FINISHED"
)

// Lobby pairs two players. Slot 0 is player-1, who created the lobby and
// always shoots first. Private lobbies are skipped by matchmaking.
type Lobby struct {
	ID          string
	Players     [2]*Player
	State       State
	Private     bool
	Player1Turn bool
	LastActive  time.Time

	seq uint64
}

// IsActive reports whether shots are accepted.
func (l *Lobby) IsActive() bool {
	return l.State == StateActive
}

// slot returns the index of id in the lobby, or -1.
func (l *Lobby) slot(id session.ID) int {
	for i, p := range l.Players {
		if p != nil && p.ID == id {
			return i
		}
	}
	return -1
}

// Player returns the slot held by id.
func (l *Lobby) Player(id session.ID) (*Player, bool) {
	i := l.slot(id)
	if i < 0 {
		return nil, false
	}
	return l.Players[i], true
}

// Opponent returns the other occupant of id's lobby, if any.
func (l *Lobby) Opponent(id session.ID) (*Player, bool) {
	i := l.slot(id)
	if i < 0 || l.Players[1-i] == nil {
		return nil, false
	}
	return l.Players[1-i], true
}

// HasTurn reports whether id may shoot now.
func (l *Lobby) HasTurn(id session.ID) bool {
	i := l.slot(id)
	if i < 0 || !l.IsActive() {
		return false
	}
	return (i == 0) == l.Player1Turn
}

func (l *Lobby) occupants() []*Player {
	var ps []*Player
	for _, p := range l.Players {
		if p != nil {
			ps = append(ps, p)
		}
	}
	return ps
}

func (l *Lobby) readyToStart() bool {
	for _, p := range l.Players {
		if p == nil || p.Board == nil || !p.Ready {
			return false
		}
	}
	return true
}
