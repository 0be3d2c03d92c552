package game

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KDT2006/seabattle/internal/board"
	"github.com/KDT2006/seabattle/internal/protocol"
	"github.com/KDT2006/seabattle/internal/session"
)

// Fire resolves a shot by sid at the opponent's board.
//
// A hit keeps the turn and a miss passes it. Rejected shots return an error
// and leave the lobby untouched.
func (m *Manager) Fire(sid session.ID, at board.Point, now time.Time) ([]Notice, error) {
	sess, err := m.sessions.Get(sid)
	if err != nil {
		return nil, err
	}
	lobby, err := m.lobbyOf(sess)
	if err != nil {
		return nil, err
	}
	if !lobby.IsActive() {
		return nil, ErrGameNotActive
	}
	if !lobby.HasTurn(sid) {
		return nil, ErrNotYourTurn
	}
	shooter, _ := lobby.Player(sid)
	defender, _ := lobby.Opponent(sid)

	outcome, err := defender.Board.ResolveShot(at)
	if err != nil {
		return nil, err
	}
	shooter.Shots++
	lobby.LastActive = now
	hit := outcome == board.OutcomeHit

	notices := []Notice{
		{To: shooter.ID, Msg: protocol.ShotResult{X: at.X, Y: at.Y, Hit: hit}},
		{To: defender.ID, Msg: protocol.ShotReceived{X: at.X, Y: at.Y}},
	}

	if !hit {
		lobby.Player1Turn = !lobby.Player1Turn
		return append(notices,
			Notice{To: shooter.ID, Msg: protocol.TurnChanged{YourTurn: false}},
			Notice{To: defender.ID, Msg: protocol.TurnChanged{YourTurn: true}},
		), nil
	}

	shooter.Hits++
	if !defender.Board.IsShipSunk(at) {
		return notices, nil
	}
	cells := defender.Board.ShipCells(at)
	defender.Board.MarkSunk(cells)
	logger.WithFields(logrus.Fields{"lobby": lobby.ID, "defender": m.name(defender.ID)}).Tracef("ship sunk at %v, board now\n%s", at, defender.Board)
	sunk := protocol.ShipSunk{X: at.X, Y: at.Y, Cells: cells}
	notices = append(notices,
		Notice{To: shooter.ID, Msg: sunk},
		Notice{To: defender.ID, Msg: sunk},
	)

	if !defender.Board.AllShipsSunk() {
		return notices, nil
	}
	logger.WithFields(logrus.Fields{
		"lobby":  lobby.ID,
		"winner": m.name(shooter.ID),
		"shots":  shooter.Shots,
	}).Info("game over")
	notices = append(notices,
		Notice{To: shooter.ID, Msg: gameOver(shooter, protocol.ResultWin)},
		Notice{To: defender.ID, Msg: gameOver(defender, protocol.ResultLose)},
	)
	m.finish(lobby)
	return notices, nil
}

func gameOver(p *Player, result string) protocol.GameOver {
	return protocol.GameOver{
		Result:   result,
		Shots:    p.Shots,
		Hits:     p.Hits,
		Accuracy: p.Accuracy(),
	}
}
