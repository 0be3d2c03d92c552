package server

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/KDT2006/seabattle/internal/protocol"
)

// sweepSessions expires sessions that stayed silent past the session
// timeout and abandons the lobbies they held.
func (s *Server) sweepSessions(ctx context.Context, now time.Time) {
	for _, id := range s.sessions.Idle(now, s.cfg.SessionTimeout) {
		gone, err := s.sessions.Expire(id)
		if err != nil {
			continue
		}
		logger.WithFields(logrus.Fields{
			"session": id.String(),
			"remote":  gone.Endpoint.String(),
			"idle":    now.Sub(gone.LastActive).String(),
		}).Info("session timed out")
		if gone.LobbyID != "" {
			s.deliver(ctx, s.games.Abandon(gone.LobbyID, id))
		}
	}
}

// sweepLobbies force-finishes lobbies without a shot or ready confirmation
// for longer than the game timeout.
func (s *Server) sweepLobbies(ctx context.Context, now time.Time) {
	for _, id := range s.games.Idle(now, s.cfg.GameTimeout) {
		s.deliver(ctx, s.games.Expire(id))
	}
}

// ping sends a keep-alive to every session. Clients that answer are
// refreshed by the dispatcher like any other traffic.
func (s *Server) ping(ctx context.Context) {
	for _, sess := range s.sessions.All() {
		s.send(ctx, sess, protocol.ServerPing{})
	}
	s.sessions.MarkPinged()
}
