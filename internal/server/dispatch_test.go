package server

import (
	"context"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KDT2006/seabattle/internal/config"
	"github.com/KDT2006/seabattle/internal/game"
	"github.com/KDT2006/seabattle/internal/protocol"
	"github.com/KDT2006/seabattle/internal/session"
)

var (
	epA = netip.MustParseAddrPort("127.0.0.1:41001")
	epB = netip.MustParseAddrPort("127.0.0.1:41002")
	epC = netip.MustParseAddrPort("127.0.0.1:41003")
	epD = netip.MustParseAddrPort("127.0.0.1:41004")
)

// fleetRows places the fleet on rows 5, 7 and 9, leaving the top half of
// the board empty.
func fleetRows() [][]int {
	rows := make([][]int, 10)
	for y := range rows {
		rows[y] = make([]int, 10)
	}
	fill := func(y, x0, x1 int) {
		for x := x0; x <= x1; x++ {
			rows[y][x] = 1
		}
	}
	fill(5, 0, 3)
	fill(5, 5, 7)
	fill(7, 0, 2)
	fill(7, 4, 5)
	fill(7, 7, 8)
	fill(9, 0, 1)
	fill(9, 3, 3)
	fill(9, 5, 5)
	fill(9, 7, 7)
	fill(9, 9, 9)
	return rows
}

type sent struct {
	to  netip.AddrPort
	msg protocol.Outbound
}

// recorder captures outbound datagrams in place of the socket.
type recorder struct {
	sent []sent
}

func (r *recorder) WriteToUDPAddrPort(b []byte, addr netip.AddrPort) (int, error) {
	msg, err := protocol.DecodeOutbound(b)
	if err != nil {
		return 0, err
	}
	r.sent = append(r.sent, sent{to: addr, msg: msg})
	return len(b), nil
}

func (r *recorder) to(addr netip.AddrPort) []protocol.Outbound {
	var msgs []protocol.Outbound
	for _, s := range r.sent {
		if s.to == addr {
			msgs = append(msgs, s.msg)
		}
	}
	return msgs
}

func (r *recorder) typesTo(addr netip.AddrPort) []protocol.MessageType {
	var kinds []protocol.MessageType
	for _, msg := range r.to(addr) {
		kinds = append(kinds, msg.Type())
	}
	return kinds
}

func (r *recorder) reset() {
	r.sent = nil
}

type harness struct {
	t   *testing.T
	s   *Server
	rec *recorder
	now time.Time
}

func newHarness(t *testing.T) *harness {
	rec := &recorder{}
	s := New(config.Default())
	s.out = rec
	return &harness{t: t, s: s, rec: rec, now: time.Unix(1_700_000_000, 0)}
}

func (h *harness) raw(from netip.AddrPort, data string) {
	h.s.handle(context.Background(), datagram{from: from, data: []byte(data), at: h.now})
}

func (h *harness) send(from netip.AddrPort, msg protocol.Inbound) {
	h.t.Helper()
	data, err := protocol.EncodeInbound(msg)
	require.NoError(h.t, err)
	h.s.handle(context.Background(), datagram{from: from, data: data, at: h.now})
}

func (h *harness) shoot(from netip.AddrPort, x, y int) {
	h.send(from, &protocol.Shot{X: &x, Y: &y})
}

func (h *harness) session(ep netip.AddrPort) *session.Session {
	h.t.Helper()
	sess, ok := h.s.sessions.ByEndpoint(ep)
	require.True(h.t, ok)
	return sess
}

// prepare logs a client in and stages the fleet.
func (h *harness) prepare(ep netip.AddrPort, name string) {
	h.send(ep, &protocol.Login{Username: name})
	h.send(ep, &protocol.SubmitBoard{Board: fleetRows()})
}

// startGame runs two clients through matchmaking into an active game.
func (h *harness) startGame(a, b netip.AddrPort, nameA, nameB string) {
	h.t.Helper()
	h.prepare(a, nameA)
	h.prepare(b, nameB)
	h.send(a, &protocol.FindGame{})
	h.send(b, &protocol.FindGame{})
	h.send(a, &protocol.Ready{})
	h.send(b, &protocol.Ready{})
	require.Contains(h.t, h.rec.typesTo(a), protocol.GameStartMsg)
	h.rec.reset()
}

func TestEndToEnd(t *testing.T) {
	h := newHarness(t)

	h.send(epA, &protocol.Login{Username: "alice"})
	sessA := h.session(epA)
	assert.Equal(t, []protocol.Outbound{
		&protocol.LoginResponse{Success: true, SessionID: sessA.ID.String()},
	}, h.rec.to(epA))
	h.send(epA, &protocol.SubmitBoard{Board: fleetRows()})
	h.prepare(epB, "bob")
	h.rec.reset()

	h.send(epA, &protocol.FindGame{})
	lobbyID := h.session(epA).LobbyID
	assert.Equal(t, []protocol.Outbound{
		&protocol.LobbyCreated{LobbyID: lobbyID},
		&protocol.Waiting{},
	}, h.rec.to(epA))

	h.send(epB, &protocol.FindGame{})
	assert.Equal(t, &protocol.GameFound{LobbyID: lobbyID, Opponent: "alice"}, h.rec.to(epB)[0])
	h.rec.reset()

	h.send(epA, &protocol.Ready{})
	h.send(epB, &protocol.Ready{})
	assert.Equal(t, []protocol.Outbound{
		&protocol.PlayerReady{Username: "bob"},
		&protocol.GameStart{LobbyID: lobbyID, Opponent: "bob", YourTurn: true},
	}, h.rec.to(epA))
	assert.Equal(t, []protocol.Outbound{
		&protocol.PlayerReady{Username: "alice"},
		&protocol.GameStart{LobbyID: lobbyID, Opponent: "alice", YourTurn: false},
	}, h.rec.to(epB))
	h.rec.reset()

	h.shoot(epA, 0, 0)
	assert.Equal(t, []protocol.Outbound{
		&protocol.ShotResult{X: 0, Y: 0, Hit: false},
		&protocol.TurnChanged{YourTurn: false},
	}, h.rec.to(epA))
	assert.Equal(t, []protocol.Outbound{
		&protocol.ShotReceived{X: 0, Y: 0},
		&protocol.TurnChanged{YourTurn: true},
	}, h.rec.to(epB))

	lobby, ok := h.s.games.Lobby(lobbyID)
	require.True(t, ok)
	assert.False(t, lobby.Player1Turn)
}

func TestReadyWithBoard(t *testing.T) {
	h := newHarness(t)
	h.send(epA, &protocol.Login{Username: "alice"})
	h.send(epB, &protocol.Login{Username: "bob"})
	h.rec.reset()

	h.send(epA, &protocol.Ready{Board: fleetRows()})
	assert.Equal(t, []protocol.MessageType{protocol.BoardAcceptedMsg, protocol.LobbyCreatedMsg, protocol.WaitingMsg}, h.rec.typesTo(epA))
	h.send(epB, &protocol.Ready{Board: fleetRows()})
	assert.Equal(t, []protocol.MessageType{protocol.BoardAcceptedMsg, protocol.GameFoundMsg, protocol.GameStartMsg}, h.rec.typesTo(epB))
}

func TestProtocolErrorsAreDropped(t *testing.T) {
	h := newHarness(t)
	for _, raw := range []string{`garbage`, `{"x":1}`, `[]`, `{"type":"teleport"}`} {
		h.raw(epA, raw)
	}
	assert.Empty(t, h.rec.sent)
	assert.Equal(t, 0, h.s.sessions.Len())
}

func TestValidationErrorsAreReported(t *testing.T) {
	h := newHarness(t)

	h.raw(epA, `{"type":"shot","x":1}`)
	assert.Equal(t, []protocol.Outbound{&protocol.Error{Message: "invalid shot message: y is required"}}, h.rec.to(epA))
	h.rec.reset()

	h.raw(epA, `{"type":"login","username":""}`)
	assert.Equal(t, []protocol.Outbound{&protocol.LoginResponse{Success: false, Message: "username is required"}}, h.rec.to(epA))
	h.rec.reset()

	bad := fleetRows()
	bad[0][0] = 1
	h.send(epA, &protocol.SubmitBoard{Board: bad})
	msgs := h.rec.to(epA)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].(*protocol.Error).Message, "invalid fleet placement")
	assert.Nil(t, h.session(epA).Staged)
}

func TestLoginNameTaken(t *testing.T) {
	h := newHarness(t)
	h.send(epA, &protocol.Login{Username: "alice"})
	h.send(epB, &protocol.Login{Username: "alice"})
	assert.Equal(t, []protocol.Outbound{
		&protocol.LoginResponse{Success: false, Message: session.ErrUsernameTaken.Error()},
	}, h.rec.to(epB))
}

func TestPingPong(t *testing.T) {
	h := newHarness(t)
	h.send(epA, &protocol.Ping{})
	assert.Equal(t, []protocol.Outbound{&protocol.ServerPong{}}, h.rec.to(epA))
	h.rec.reset()

	h.send(epA, &protocol.Pong{})
	assert.Empty(t, h.rec.sent)
}

func TestStateErrorsOnlyReachOffender(t *testing.T) {
	h := newHarness(t)
	h.startGame(epA, epB, "alice", "bob")

	h.shoot(epB, 0, 0)
	assert.Equal(t, []protocol.Outbound{&protocol.Error{Message: game.ErrNotYourTurn.Error()}}, h.rec.to(epB))
	assert.Empty(t, h.rec.to(epA))
	h.rec.reset()

	h.shoot(epA, 0, 5)
	h.rec.reset()
	h.shoot(epA, 0, 5)
	assert.Equal(t, []protocol.Outbound{&protocol.Error{Message: "cell already shot"}}, h.rec.to(epA))
	assert.Empty(t, h.rec.to(epB))
	h.rec.reset()

	h.send(epC, &protocol.Chat{Message: "hello?"})
	assert.Equal(t, []protocol.Outbound{&protocol.Error{Message: game.ErrNotInLobby.Error()}}, h.rec.to(epC))
}

func TestChatRelay(t *testing.T) {
	h := newHarness(t)
	h.startGame(epA, epB, "alice", "bob")

	h.send(epB, &protocol.Chat{Message: "good luck"})
	want := []protocol.Outbound{&protocol.ChatMessage{Sender: "bob", Message: "good luck"}}
	assert.Equal(t, want, h.rec.to(epA))
	assert.Equal(t, want, h.rec.to(epB))
}

func TestDisconnect(t *testing.T) {
	h := newHarness(t)
	h.startGame(epA, epB, "alice", "bob")
	lobbyID := h.session(epA).LobbyID

	h.send(epA, &protocol.Disconnect{})
	assert.Equal(t, []protocol.Outbound{&protocol.OpponentDisconnected{}}, h.rec.to(epB))
	assert.Empty(t, h.rec.to(epA))
	_, ok := h.s.sessions.ByEndpoint(epA)
	assert.False(t, ok)
	_, ok = h.s.games.Lobby(lobbyID)
	assert.False(t, ok)
	assert.Empty(t, h.session(epB).LobbyID)
}

func TestReconnect(t *testing.T) {
	h := newHarness(t)
	h.startGame(epA, epB, "alice", "bob")
	old := h.session(epA)
	oldID := old.ID
	lobbyID := old.LobbyID

	epA2 := netip.MustParseAddrPort("192.168.1.20:50000")
	h.send(epA2, &protocol.Reconnect{SessionID: oldID.String()})
	fresh := h.session(epA2)

	msgs := h.rec.to(epA2)
	require.Len(t, msgs, 2)
	assert.Equal(t, &protocol.ReconnectResponse{Success: true, SessionID: fresh.ID.String()}, msgs[0])
	assert.Equal(t, &protocol.GameState{
		LobbyID:  lobbyID,
		State:    "ACTIVE",
		Opponent: "bob",
		YourTurn: true,
		Board:    fleetRows(),
	}, msgs[1])
	assert.Equal(t, []protocol.Outbound{&protocol.OpponentReconnected{}}, h.rec.to(epB))

	assert.Equal(t, "alice", fresh.Username)
	_, ok := h.s.sessions.ByEndpoint(epA)
	assert.False(t, ok)
	h.rec.reset()

	h.shoot(epA2, 0, 0)
	assert.Equal(t, []protocol.MessageType{protocol.ShotResultMsg, protocol.TurnChangedMsg}, h.rec.typesTo(epA2))
	assert.Equal(t, []protocol.MessageType{protocol.ShotReceivedMsg, protocol.TurnChangedMsg}, h.rec.typesTo(epB))
}

func TestReconnectUnknownSession(t *testing.T) {
	h := newHarness(t)
	h.send(epA, &protocol.Reconnect{SessionID: "7d444840-9dc0-11d1-b245-5ffdce74fad2"})
	assert.Equal(t, []protocol.Outbound{&protocol.ReconnectResponse{Success: false}}, h.rec.to(epA))
}

func TestReconnectWaitingHostIsPaired(t *testing.T) {
	h := newHarness(t)
	h.prepare(epA, "alice")
	h.send(epA, &protocol.FindGame{})
	oldID := h.session(epA).ID
	lobbyID := h.session(epA).LobbyID
	h.rec.reset()

	epA2 := netip.MustParseAddrPort("192.168.1.20:50000")
	h.send(epA2, &protocol.Reconnect{SessionID: oldID.String()})
	assert.Equal(t, lobbyID, h.session(epA2).LobbyID)
	assert.Equal(t, []protocol.MessageType{protocol.ReconnectResponseMsg, protocol.GameStateMsg}, h.rec.typesTo(epA2))
	h.rec.reset()

	h.prepare(epB, "bob")
	h.send(epB, &protocol.FindGame{})
	assert.Contains(t, h.rec.to(epA2), protocol.Outbound(&protocol.GameFound{LobbyID: lobbyID, Opponent: "bob"}))
	assert.Equal(t, lobbyID, h.session(epB).LobbyID)
}

func TestPrivateLobbyByID(t *testing.T) {
	h := newHarness(t)
	h.prepare(epA, "alice")
	h.prepare(epB, "bob")
	h.prepare(epC, "carol")
	h.rec.reset()

	h.send(epA, &protocol.NewGame{})
	lobbyID := h.session(epA).LobbyID
	assert.Equal(t, []protocol.Outbound{&protocol.LobbyCreated{LobbyID: lobbyID}, &protocol.Waiting{}}, h.rec.to(epA))

	h.send(epB, &protocol.FindGame{})
	assert.NotEqual(t, lobbyID, h.session(epB).LobbyID)
	h.rec.reset()

	h.send(epC, &protocol.JoinGame{LobbyID: lobbyID})
	assert.Equal(t, []protocol.Outbound{&protocol.GameFound{LobbyID: lobbyID, Opponent: "carol"}}, h.rec.to(epA))
	assert.Equal(t, []protocol.Outbound{&protocol.GameFound{LobbyID: lobbyID, Opponent: "alice"}}, h.rec.to(epC))

	h.rec.reset()
	h.send(epD, &protocol.SubmitBoard{Board: fleetRows()})
	h.send(epD, &protocol.JoinGame{LobbyID: lobbyID})
	assert.Equal(t, []protocol.Outbound{&protocol.BoardAccepted{}, &protocol.Error{Message: "lobby is full"}}, h.rec.to(epD))
	h.rec.reset()
	h.send(epD, &protocol.JoinGame{LobbyID: "ZZZZZZ"})
	assert.Equal(t, []protocol.Outbound{&protocol.Error{Message: "lobby not found"}}, h.rec.to(epD))
}

func TestSilentHostIsSkipped(t *testing.T) {
	h := newHarness(t)
	h.prepare(epA, "alice")
	h.send(epA, &protocol.FindGame{})
	stale := h.session(epA).LobbyID

	for range 3 {
		h.s.ping(context.Background())
	}
	h.prepare(epB, "bob")
	h.send(epB, &protocol.FindGame{})
	assert.NotEqual(t, stale, h.session(epB).LobbyID)
	assert.Equal(t, []protocol.MessageType{protocol.LoginResponseMsg, protocol.BoardAcceptedMsg, protocol.LobbyCreatedMsg, protocol.WaitingMsg}, h.rec.typesTo(epB))
}
