// Package game pairs sessions into lobbies and arbitrates the shots
// exchanged inside them.
//
// A Manager is driven by a single goroutine. Every operation returns the
// notices it produced instead of sending them, leaving delivery to the
// caller.
package game

import (
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KDT2006/seabattle/internal/board"
	"github.com/KDT2006/seabattle/internal/protocol"
	"github.com/KDT2006/seabattle/internal/session"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

const (
	lobbyIDLength   = 6
	lobbyIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Notice is an outbound message addressed to one session.
type Notice struct {
	To  session.ID
	Msg protocol.Outbound
}

// Manager owns every lobby.
type Manager struct {
	sessions *session.Registry
	lobbies  map[string]*Lobby
	nextSeq  uint64
	rng      *rand.Rand
}

// Cfg configures a Manager.
type Cfg func(*Manager)

// WithRand sets the source used for lobby ids.
func WithRand(r *rand.Rand) Cfg {
	return func(m *Manager) {
		m.rng = r
	}
}

func NewManager(sessions *session.Registry, cfgs ...Cfg) *Manager {
	m := &Manager{
		sessions: sessions,
		lobbies:  make(map[string]*Lobby),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, cfg := range cfgs {
		cfg(m)
	}
	return m
}

// Lobby returns the lobby with the given id.
func (m *Manager) Lobby(id string) (*Lobby, bool) {
	l, ok := m.lobbies[id]
	return l, ok
}

// Lobbies returns every live lobby in creation order.
func (m *Manager) Lobbies() []*Lobby {
	all := make([]*Lobby, 0, len(m.lobbies))
	for _, l := range m.lobbies {
		all = append(all, l)
	}
	slices.SortFunc(all, func(a, b *Lobby) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	return all
}

// SubmitBoard validates rows and stages the board on the session. Inside a
// lobby that has not started, the board also replaces the session's slot
// board and withdraws its readiness.
func (m *Manager) SubmitBoard(sid session.ID, rows [][]int, now time.Time) ([]Notice, error) {
	sess, err := m.sessions.Get(sid)
	if err != nil {
		return nil, err
	}
	b, err := board.ValidatePlacement(rows)
	if err != nil {
		return nil, err
	}

	var lobby *Lobby
	if sess.InLobby() {
		lobby, err = m.lobbyOf(sess)
		if err != nil {
			return nil, err
		}
		if lobby.IsActive() {
			return nil, ErrGameInProgress
		}
	}

	sess.Staged = &b
	if lobby != nil {
		p, _ := lobby.Player(sid)
		p.Board = copyBoard(&b)
		p.Ready = false
		lobby.LastActive = now
	}
	return []Notice{{To: sid, Msg: protocol.BoardAccepted{}}}, nil
}

// RequestMatch places the session in the earliest-created public waiting
// lobby it does not already own, or opens a new lobby for it. Lobbies whose
// host stopped answering pings are passed over. ready marks the session
// ready at the same time.
func (m *Manager) RequestMatch(sid session.ID, ready bool, now time.Time) ([]Notice, error) {
	sess, err := m.sessions.Get(sid)
	if err != nil {
		return nil, err
	}
	if sess.InLobby() {
		if ready {
			return m.MarkReady(sid, now)
		}
		lobby, err := m.lobbyOf(sess)
		if err != nil {
			return nil, err
		}
		return m.status(lobby, sid), nil
	}
	if sess.Staged == nil {
		return nil, ErrNoBoard
	}

	for _, lobby := range m.Lobbies() {
		if lobby.State != StateWaiting || lobby.Private || lobby.Players[0].ID == sid {
			continue
		}
		if !m.reachable(lobby.Players[0].ID) {
			continue
		}
		return m.pair(lobby, sess, ready, now)
	}
	return m.open(sess, ready, false, now), nil
}

// NewLobby opens a private lobby for the session. Only JoinLobby with the
// returned id can fill it. Asking again while waiting replays the id.
func (m *Manager) NewLobby(sid session.ID, now time.Time) ([]Notice, error) {
	sess, err := m.sessions.Get(sid)
	if err != nil {
		return nil, err
	}
	if sess.InLobby() {
		lobby, err := m.lobbyOf(sess)
		if err != nil {
			return nil, err
		}
		if lobby.State != StateWaiting {
			return nil, ErrAlreadyInLobby
		}
		return m.status(lobby, sid), nil
	}
	if sess.Staged == nil {
		return nil, ErrNoBoard
	}
	return m.open(sess, false, true, now), nil
}

// JoinLobby seats the session as player-2 of the waiting lobby lobbyID,
// public or private.
func (m *Manager) JoinLobby(sid session.ID, lobbyID string, now time.Time) ([]Notice, error) {
	sess, err := m.sessions.Get(sid)
	if err != nil {
		return nil, err
	}
	lobbyID = strings.ToUpper(lobbyID)
	if sess.InLobby() {
		lobby, err := m.lobbyOf(sess)
		if err != nil {
			return nil, err
		}
		if lobby.ID != lobbyID {
			return nil, ErrAlreadyInLobby
		}
		return m.status(lobby, sid), nil
	}
	if sess.Staged == nil {
		return nil, ErrNoBoard
	}
	lobby, ok := m.lobbies[lobbyID]
	if !ok {
		return nil, ErrLobbyNotFound
	}
	if lobby.State != StateWaiting {
		return nil, ErrLobbyFull
	}
	return m.pair(lobby, sess, false, now)
}

// open creates a lobby hosted by sess.
func (m *Manager) open(sess *session.Session, ready, private bool, now time.Time) []Notice {
	m.nextSeq++
	lobby := &Lobby{
		ID:         m.newLobbyID(),
		State:      StateWaiting,
		Private:    private,
		LastActive: now,
		seq:        m.nextSeq,
	}
	lobby.Players[0] = &Player{ID: sess.ID, Board: copyBoard(sess.Staged), Ready: ready}
	m.lobbies[lobby.ID] = lobby
	sess.LobbyID = lobby.ID
	logger.WithFields(logrus.Fields{"lobby": lobby.ID, "host": m.name(sess.ID), "private": private}).Info("lobby created")
	return m.status(lobby, sess.ID)
}

// pair seats sess as player-2 of a waiting lobby.
func (m *Manager) pair(lobby *Lobby, sess *session.Session, ready bool, now time.Time) ([]Notice, error) {
	sid := sess.ID
	lobby.Players[1] = &Player{ID: sid, Board: copyBoard(sess.Staged), Ready: ready}
	lobby.State = StateReadyPaired
	lobby.LastActive = now
	sess.LobbyID = lobby.ID
	host := lobby.Players[0].ID
	logger.WithFields(logrus.Fields{"lobby": lobby.ID, "host": m.name(host), "guest": m.name(sid)}).Info("players paired")

	notices := []Notice{
		{To: host, Msg: protocol.GameFound{LobbyID: lobby.ID, Opponent: m.name(sid)}},
		{To: sid, Msg: protocol.GameFound{LobbyID: lobby.ID, Opponent: m.name(host)}},
	}
	if ready {
		notices = append(notices, Notice{To: host, Msg: protocol.PlayerReady{Username: m.name(sid)}})
	}
	started, err := m.StartIfReady(lobby.ID, now)
	if err != nil {
		return nil, err
	}
	return append(notices, started...), nil
}

// MarkReady flags the session ready inside its lobby and starts the game
// once both sides are ready.
func (m *Manager) MarkReady(sid session.ID, now time.Time) ([]Notice, error) {
	sess, err := m.sessions.Get(sid)
	if err != nil {
		return nil, err
	}
	lobby, err := m.lobbyOf(sess)
	if err != nil {
		return nil, err
	}
	if lobby.IsActive() {
		return nil, ErrGameInProgress
	}
	p, _ := lobby.Player(sid)
	if p.Board == nil {
		return nil, ErrNoBoard
	}
	p.Ready = true
	lobby.LastActive = now

	var notices []Notice
	if opp, ok := lobby.Opponent(sid); ok {
		notices = append(notices, Notice{To: opp.ID, Msg: protocol.PlayerReady{Username: m.name(sid)}})
	}
	started, err := m.StartIfReady(lobby.ID, now)
	if err != nil {
		return nil, err
	}
	return append(notices, started...), nil
}

// StartIfReady activates a paired lobby once both boards are present and
// both players are ready. Player-1 gets the first turn.
func (m *Manager) StartIfReady(lobbyID string, now time.Time) ([]Notice, error) {
	lobby, ok := m.lobbies[lobbyID]
	if !ok {
		return nil, ErrLobbyNotFound
	}
	if lobby.State != StateReadyPaired || !lobby.readyToStart() {
		return nil, nil
	}
	lobby.State = StateActive
	lobby.Player1Turn = true
	lobby.LastActive = now
	logger.WithField("lobby", lobby.ID).Info("game started")

	p1, p2 := lobby.Players[0].ID, lobby.Players[1].ID
	return []Notice{
		{To: p1, Msg: protocol.GameStart{LobbyID: lobby.ID, Opponent: m.name(p2), YourTurn: true}},
		{To: p2, Msg: protocol.GameStart{LobbyID: lobby.ID, Opponent: m.name(p1), YourTurn: false}},
	}, nil
}

// Abandon finishes lobbyID because leaving is gone. The remaining player,
// if any, is told the opponent disconnected.
func (m *Manager) Abandon(lobbyID string, leaving session.ID) []Notice {
	lobby, ok := m.lobbies[lobbyID]
	if !ok {
		return nil
	}
	var notices []Notice
	if opp, ok := lobby.Opponent(leaving); ok {
		notices = append(notices, Notice{To: opp.ID, Msg: protocol.OpponentDisconnected{}})
	}
	logger.WithFields(logrus.Fields{"lobby": lobby.ID, "state": lobby.State}).Info("lobby abandoned")
	m.finish(lobby)
	return notices
}

// Expire force-finishes an idle lobby and tells both occupants.
func (m *Manager) Expire(lobbyID string) []Notice {
	lobby, ok := m.lobbies[lobbyID]
	if !ok {
		return nil
	}
	var notices []Notice
	for _, p := range lobby.occupants() {
		notices = append(notices, Notice{To: p.ID, Msg: protocol.GameTimeout{}})
	}
	logger.WithFields(logrus.Fields{"lobby": lobby.ID, "state": lobby.State}).Info("lobby timed out")
	m.finish(lobby)
	return notices
}

// Idle returns the ids of lobbies without activity for longer than window,
// in creation order.
func (m *Manager) Idle(now time.Time, window time.Duration) []string {
	var ids []string
	for _, lobby := range m.Lobbies() {
		if now.Sub(lobby.LastActive) > window {
			ids = append(ids, lobby.ID)
		}
	}
	return ids
}

// Reattach moves oldID's slot onto newID after the registry transplanted
// the session. The returning client gets the lobby replayed and the
// opponent learns it is back.
func (m *Manager) Reattach(oldID, newID session.ID) ([]Notice, error) {
	sess, err := m.sessions.Get(newID)
	if err != nil {
		return nil, err
	}
	if !sess.InLobby() {
		return nil, nil
	}
	// the slot still carries oldID, so lobbyOf cannot resolve it yet
	lobby, ok := m.lobbies[sess.LobbyID]
	if !ok {
		sess.LobbyID = ""
		return nil, ErrLobbyNotFound
	}
	i := lobby.slot(oldID)
	if i < 0 {
		sess.LobbyID = ""
		return nil, ErrNotInLobby
	}
	lobby.Players[i].ID = newID
	logger.WithFields(logrus.Fields{"lobby": lobby.ID, "session": newID.String(), "previous": oldID.String()}).Info("player reattached")

	notices := []Notice{{To: newID, Msg: m.snapshot(lobby, newID)}}
	if opp, ok := lobby.Opponent(newID); ok {
		notices = append(notices, Notice{To: opp.ID, Msg: protocol.OpponentReconnected{}})
	}
	return notices, nil
}

// Chat relays text to both occupants of the sender's lobby.
func (m *Manager) Chat(sid session.ID, text string) ([]Notice, error) {
	sess, err := m.sessions.Get(sid)
	if err != nil {
		return nil, err
	}
	lobby, err := m.lobbyOf(sess)
	if err != nil {
		return nil, err
	}
	msg := protocol.ChatMessage{Sender: m.name(sid), Message: text}
	var notices []Notice
	for _, p := range lobby.occupants() {
		notices = append(notices, Notice{To: p.ID, Msg: msg})
	}
	return notices, nil
}

// status tells sid where it stands in lobby.
func (m *Manager) status(lobby *Lobby, sid session.ID) []Notice {
	if lobby.State == StateWaiting {
		return []Notice{
			{To: sid, Msg: protocol.LobbyCreated{LobbyID: lobby.ID}},
			{To: sid, Msg: protocol.Waiting{}},
		}
	}
	return []Notice{{To: sid, Msg: m.snapshot(lobby, sid)}}
}

func (m *Manager) snapshot(lobby *Lobby, sid session.ID) protocol.GameState {
	state := protocol.GameState{
		LobbyID:  lobby.ID,
		State:    string(lobby.State),
		YourTurn: lobby.HasTurn(sid),
	}
	if opp, ok := lobby.Opponent(sid); ok {
		state.Opponent = m.name(opp.ID)
	}
	if p, ok := lobby.Player(sid); ok && p.Board != nil {
		state.Board = p.Board.Rows()
	}
	return state
}

// lobbyOf resolves the session's lobby, dropping stale references.
func (m *Manager) lobbyOf(sess *session.Session) (*Lobby, error) {
	if !sess.InLobby() {
		return nil, ErrNotInLobby
	}
	lobby, ok := m.lobbies[sess.LobbyID]
	if !ok || lobby.slot(sess.ID) < 0 {
		sess.LobbyID = ""
		return nil, ErrNotInLobby
	}
	return lobby, nil
}

// finish removes the lobby and detaches its remaining sessions.
func (m *Manager) finish(lobby *Lobby) {
	lobby.State = StateFinished
	for _, p := range lobby.occupants() {
		if sess, err := m.sessions.Get(p.ID); err == nil && sess.LobbyID == lobby.ID {
			sess.LobbyID = ""
		}
	}
	delete(m.lobbies, lobby.ID)
}

// reachable reports whether id is a live session answering pings.
func (m *Manager) reachable(id session.ID) bool {
	sess, err := m.sessions.Get(id)
	return err == nil && sess.Connected()
}

func (m *Manager) name(id session.ID) string {
	sess, err := m.sessions.Get(id)
	if err != nil {
		return id.String()
	}
	return sess.Name()
}

func (m *Manager) newLobbyID() string {
	buf := make([]byte, lobbyIDLength)
	for {
		for i := range buf {
			buf[i] = lobbyIDAlphabet[m.rng.IntN(len(lobbyIDAlphabet))]
		}
		if _, taken := m.lobbies[string(buf)]; !taken {
			return string(buf)
		}
	}
}

func copyBoard(b *board.Board) *board.Board {
	c := *b
	return &c
}
