package session

import (
	"net/netip"
	"time"

	"github.com/google/uuid"

	"github.com/KDT2006/seabattle/internal/board"
)

// MaxMissedPings is the number of unanswered pings after which a session
// is reported as disconnected. Expiry itself is driven by the session
// timeout.
const MaxMissedPings = 3

// ID identifies a session for the lifetime of the registry.
type ID = uuid.UUID

// Session is the server's identity for one client endpoint.
type Session struct {
	ID         ID
	Endpoint   netip.AddrPort
	Username   string
	LastActive time.Time
	LobbyID    string

	// Staged holds the last accepted board, kept until the session joins a
	// lobby and across reconnects.
	Staged *board.Board

	missedPings int
	seq         uint64
}

// Connected reports whether the client has answered recent pings.
func (s *Session) Connected() bool {
	return s.missedPings < MaxMissedPings
}

// MissedPings returns the number of pings sent since the last inbound message.
func (s *Session) MissedPings() int {
	return s.missedPings
}

// InLobby reports whether the session is attached to a lobby.
func (s *Session) InLobby() bool {
	return s.LobbyID != ""
}

// Name returns the username, or the session id when the client never logged in.
func (s *Session) Name() string {
	if s.Username != "" {
		return s.Username
	}
	return s.ID.String()
}
