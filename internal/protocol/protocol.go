// Package protocol defines the JSON datagrams exchanged between clients and
// the game server. Every datagram is one JSON object carrying a "type" field.
package protocol

import "github.com/KDT2006/seabattle/internal/board"

type MessageType string

const (
	// Client -> Server
	LoginMsg      MessageType = "login"
	BoardMsg      MessageType = "board"
	FindGameMsg   MessageType = "find_game"
	NewGameMsg    MessageType = "new_game"
	JoinGameMsg   MessageType = "join_game"
	ReadyMsg      MessageType = "ready"
	ShotMsg       MessageType = "shot"
	ChatMsg       MessageType = "chat"
	PingMsg       MessageType = "ping"
	PongMsg       MessageType = "pong"
	ReconnectMsg  MessageType = "reconnect"
	DisconnectMsg MessageType = "disconnect"

	// Server -> Client
	LoginResponseMsg       MessageType = "login_response"
	BoardAcceptedMsg       MessageType = "board_accepted"
	LobbyCreatedMsg        MessageType = "lobby_created"
	WaitingMsg             MessageType = "waiting"
	GameFoundMsg           MessageType = "game_found"
	PlayerReadyMsg         MessageType = "player_ready"
	GameStartMsg           MessageType = "game_start"
	ShotResultMsg          MessageType = "shot_result"
	ShotReceivedMsg        MessageType = "shot_received"
	ShipSunkMsg            MessageType = "ship_sunk"
	TurnChangedMsg         MessageType = "turn_changed"
	GameOverMsg            MessageType = "game_over"
	OpponentDisconnectMsg  MessageType = "opponent_disconnected"
	OpponentReconnectedMsg MessageType = "opponent_reconnected"
	GameTimeoutMsg         MessageType = "game_timeout"
	ReconnectResponseMsg   MessageType = "reconnect_response"
	GameStateMsg           MessageType = "game_state"
	ErrorMsg               MessageType = "error"
)

// Game results carried by GameOver.
const (
	ResultWin  = "win"
	ResultLose = "lose"
)

// Inbound is a decoded client message. The set of implementations is closed.
type Inbound interface {
	Type() MessageType
	inbound()
}

// Outbound is a message the server sends to a client.
type Outbound interface {
	Type() MessageType
}

// Client -> Server payloads.

type Login struct {
	Username string `json:"username" validate:"required,max=32"`
}

// SubmitBoard carries a 10x10 placement using 0 for empty and 1 for ship.
type SubmitBoard struct {
	Board [][]int `json:"board" validate:"required"`
}

type FindGame struct{}

// NewGame opens a private lobby that only JoinGame can fill.
type NewGame struct{}

type JoinGame struct {
	LobbyID string `json:"lobby_id" validate:"required,len=6,alphanum"`
}

// Ready confirms readiness. A board may be attached, in which case it is
// submitted before the ready flag is set.
type Ready struct {
	Board [][]int `json:"board,omitempty"`
}

type Shot struct {
	X *int `json:"x" validate:"required"`
	Y *int `json:"y" validate:"required"`
}

// Point returns the targeted cell.
func (m *Shot) Point() board.Point {
	return board.Point{X: *m.X, Y: *m.Y}
}

type Chat struct {
	Message string `json:"message" validate:"required,max=512"`
}

type Ping struct{}

type Pong struct{}

// Reconnect asks the server to move a previous session onto the sending endpoint.
type Reconnect struct {
	SessionID string `json:"session_id" validate:"required,uuid"`
}

type Disconnect struct{}

func (*Login) Type() MessageType       { return LoginMsg }
func (*SubmitBoard) Type() MessageType { return BoardMsg }
func (*FindGame) Type() MessageType    { return FindGameMsg }
func (*NewGame) Type() MessageType     { return NewGameMsg }
func (*JoinGame) Type() MessageType    { return JoinGameMsg }
func (*Ready) Type() MessageType       { return ReadyMsg }
func (*Shot) Type() MessageType        { return ShotMsg }
func (*Chat) Type() MessageType        { return ChatMsg }
func (*Ping) Type() MessageType        { return PingMsg }
func (*Pong) Type() MessageType        { return PongMsg }
func (*Reconnect) Type() MessageType   { return ReconnectMsg }
func (*Disconnect) Type() MessageType  { return DisconnectMsg }

func (*Login) inbound()       {}
func (*SubmitBoard) inbound() {}
func (*FindGame) inbound()    {}
func (*NewGame) inbound()     {}
func (*JoinGame) inbound()    {}
func (*Ready) inbound()       {}
func (*Shot) inbound()        {}
func (*Chat) inbound()        {}
func (*Ping) inbound()        {}
func (*Pong) inbound()        {}
func (*Reconnect) inbound()   {}
func (*Disconnect) inbound()  {}

// Server -> Client payloads.

type LoginResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

type BoardAccepted struct{}

type LobbyCreated struct {
	LobbyID string `json:"lobby_id"`
}

type Waiting struct{}

// GameFound tells both players they were paired.
type GameFound struct {
	LobbyID  string `json:"lobby_id"`
	Opponent string `json:"opponent"`
}

type PlayerReady struct {
	Username string `json:"username"`
}

type GameStart struct {
	LobbyID  string `json:"lobby_id"`
	Opponent string `json:"opponent"`
	YourTurn bool   `json:"your_turn"`
}

// ShotResult goes to the shooter.
type ShotResult struct {
	X   int  `json:"x"`
	Y   int  `json:"y"`
	Hit bool `json:"hit"`
}

// ShotReceived goes to the defender.
type ShotReceived struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type ShipSunk struct {
	X     int           `json:"x"`
	Y     int           `json:"y"`
	Cells []board.Point `json:"cells"`
}

type TurnChanged struct {
	YourTurn bool `json:"your_turn"`
}

type GameOver struct {
	Result   string  `json:"result"`
	Shots    int     `json:"shots"`
	Hits     int     `json:"hits"`
	Accuracy float64 `json:"accuracy"`
}

type OpponentDisconnected struct{}

type OpponentReconnected struct{}

type GameTimeout struct{}

type ChatMessage struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

type ServerPing struct{}

type ServerPong struct{}

type ReconnectResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
}

// GameState replays the lobby to a reconnecting client. Board is the
// client's own grid only.
type GameState struct {
	LobbyID  string  `json:"lobby_id"`
	State    string  `json:"state"`
	Opponent string  `json:"opponent,omitempty"`
	YourTurn bool    `json:"your_turn"`
	Board    [][]int `json:"board,omitempty"`
}

type Error struct {
	Message string `json:"message"`
}

func (LoginResponse) Type() MessageType        { return LoginResponseMsg }
func (BoardAccepted) Type() MessageType        { return BoardAcceptedMsg }
func (LobbyCreated) Type() MessageType         { return LobbyCreatedMsg }
func (Waiting) Type() MessageType              { return WaitingMsg }
func (GameFound) Type() MessageType            { return GameFoundMsg }
func (PlayerReady) Type() MessageType          { return PlayerReadyMsg }
func (GameStart) Type() MessageType            { return GameStartMsg }
func (ShotResult) Type() MessageType           { return ShotResultMsg }
func (ShotReceived) Type() MessageType         { return ShotReceivedMsg }
func (ShipSunk) Type() MessageType             { return ShipSunkMsg }
func (TurnChanged) Type() MessageType          { return TurnChangedMsg }
func (GameOver) Type() MessageType             { return GameOverMsg }
func (OpponentDisconnected) Type() MessageType { return OpponentDisconnectMsg }
func (OpponentReconnected) Type() MessageType  { return OpponentReconnectedMsg }
func (GameTimeout) Type() MessageType          { return GameTimeoutMsg }
func (ChatMessage) Type() MessageType          { return ChatMsg }
func (ServerPing) Type() MessageType           { return PingMsg }
func (ServerPong) Type() MessageType           { return PongMsg }
func (ReconnectResponse) Type() MessageType    { return ReconnectResponseMsg }
func (GameState) Type() MessageType            { return GameStateMsg }
func (Error) Type() MessageType                { return ErrorMsg }
