package server

import (
	"context"
	"net/netip"

	"github.com/sirupsen/logrus"

	"github.com/KDT2006/seabattle/internal/game"
	"github.com/KDT2006/seabattle/internal/log"
	"github.com/KDT2006/seabattle/internal/protocol"
	"github.com/KDT2006/seabattle/internal/session"
)

// writer is the outbound half of the UDP socket.
type writer interface {
	WriteToUDPAddrPort(b []byte, addr netip.AddrPort) (int, error)
}

// deliver sends every notice to its addressee. Notices for sessions that
// are already gone are dropped.
func (s *Server) deliver(ctx context.Context, notices []game.Notice) {
	for _, n := range notices {
		sess, err := s.sessions.Get(n.To)
		if err != nil {
			logger.WithFields(logrus.Fields{"session": n.To.String(), "type": n.Msg.Type()}).Debug("dropping notice for unknown session")
			continue
		}
		s.send(ctx, sess, n.Msg)
	}
}

// send writes one message to the session's current endpoint.
func (s *Server) send(_ context.Context, sess *session.Session, msg protocol.Outbound) {
	data, err := protocol.Encode(msg)
	if err != nil {
		logger.WithFields(log.MessageFields(sess, msg.Type())).WithError(err).Error("failed to encode message")
		return
	}
	if _, err := s.out.WriteToUDPAddrPort(data, sess.Endpoint); err != nil {
		logger.WithFields(log.MessageFields(sess, msg.Type())).WithError(err).Warn("failed to write datagram")
		return
	}
	logger.WithFields(log.MessageFields(sess, msg.Type())).Trace("sent message")
}

// fail tells the session why its request was rejected.
func (s *Server) fail(ctx context.Context, sess *session.Session, err error) {
	logger.WithFields(log.SessionFields(sess)).WithError(err).Debug("request rejected")
	s.send(ctx, sess, protocol.Error{Message: err.Error()})
}
