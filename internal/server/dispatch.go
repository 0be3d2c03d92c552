package server

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/KDT2006/seabattle/internal/game"
	"github.com/KDT2006/seabattle/internal/log"
	"github.com/KDT2006/seabattle/internal/protocol"
	"github.com/KDT2006/seabattle/internal/session"
)

// handle processes one inbound datagram to completion. Everything it
// produces is written before it returns.
func (s *Server) handle(ctx context.Context, dg datagram) {
	msg, err := protocol.Decode(dg.data)
	var verr *protocol.ValidationError
	if err != nil && !errors.As(err, &verr) {
		logger.WithField("remote", dg.from.String()).WithError(err).Debug("dropping datagram")
		return
	}

	sess, created := s.sessions.ResolveOrCreate(dg.from, dg.at)
	if created {
		logger.WithFields(log.SessionFields(sess)).Info("new session")
	}
	if err := s.sessions.Touch(sess.ID, dg.at); err != nil {
		logger.WithFields(log.SessionFields(sess)).WithError(err).Error("failed to touch session")
		return
	}

	if verr != nil {
		logger.WithFields(log.MessageFields(sess, verr.Type)).Debug(verr.Reason)
		if verr.Type == protocol.LoginMsg {
			s.send(ctx, sess, protocol.LoginResponse{Success: false, Message: verr.Reason})
			return
		}
		s.fail(ctx, sess, verr)
		return
	}

	ctx, span := tracer.Start(ctx, "seabattle."+string(msg.Type()), trace.WithAttributes(
		attribute.String("seabattle.session", sess.ID.String()),
		attribute.String("seabattle.message", string(msg.Type())),
	))
	defer span.End()
	logger.WithFields(log.MessageFields(sess, msg.Type())).Debug("received message")

	notices, err := s.route(ctx, sess, msg, dg.at)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.fail(ctx, sess, err)
		return
	}
	s.deliver(ctx, notices)
}

// route dispatches a decoded message to the component that owns it.
func (s *Server) route(ctx context.Context, sess *session.Session, msg protocol.Inbound, now time.Time) ([]game.Notice, error) {
	switch m := msg.(type) {
	case *protocol.Login:
		return s.login(sess, m), nil
	case *protocol.SubmitBoard:
		return s.games.SubmitBoard(sess.ID, m.Board, now)
	case *protocol.FindGame:
		return s.games.RequestMatch(sess.ID, false, now)
	case *protocol.NewGame:
		return s.games.NewLobby(sess.ID, now)
	case *protocol.JoinGame:
		return s.games.JoinLobby(sess.ID, m.LobbyID, now)
	case *protocol.Ready:
		var notices []game.Notice
		if m.Board != nil {
			accepted, err := s.games.SubmitBoard(sess.ID, m.Board, now)
			if err != nil {
				return nil, err
			}
			notices = accepted
		}
		matched, err := s.games.RequestMatch(sess.ID, true, now)
		if err != nil {
			return nil, err
		}
		return append(notices, matched...), nil
	case *protocol.Shot:
		return s.games.Fire(sess.ID, m.Point(), now)
	case *protocol.Chat:
		return s.games.Chat(sess.ID, m.Message)
	case *protocol.Ping:
		return []game.Notice{{To: sess.ID, Msg: protocol.ServerPong{}}}, nil
	case *protocol.Pong:
		return nil, nil
	case *protocol.Reconnect:
		return s.reconnect(ctx, sess, m)
	case *protocol.Disconnect:
		s.disconnect(ctx, sess)
		return nil, nil
	}
	logger.WithFields(log.MessageFields(sess, msg.Type())).Warn("unhandled message type")
	return nil, nil
}

func (s *Server) login(sess *session.Session, m *protocol.Login) []game.Notice {
	if err := s.sessions.SetUsername(sess.ID, m.Username); err != nil {
		return []game.Notice{{To: sess.ID, Msg: protocol.LoginResponse{Success: false, Message: err.Error()}}}
	}
	logger.WithFields(log.SessionFields(sess)).Info("logged in")
	return []game.Notice{{To: sess.ID, Msg: protocol.LoginResponse{Success: true, SessionID: sess.ID.String()}}}
}

// reconnect moves a previous identity onto the sending endpoint.
func (s *Server) reconnect(ctx context.Context, sess *session.Session, m *protocol.Reconnect) ([]game.Notice, error) {
	oldID, err := uuid.Parse(m.SessionID)
	if err != nil {
		return nil, errors.Wrap(err, "parse session id")
	}
	if oldID == sess.ID {
		return []game.Notice{{To: sess.ID, Msg: protocol.ReconnectResponse{Success: true, SessionID: sess.ID.String()}}}, nil
	}
	if _, err := s.sessions.Get(oldID); err != nil {
		return []game.Notice{{To: sess.ID, Msg: protocol.ReconnectResponse{Success: false}}}, nil
	}

	// the new endpoint gives up whatever it had joined on its own
	if sess.InLobby() {
		s.deliver(ctx, s.games.Abandon(sess.LobbyID, sess.ID))
	}
	if _, err := s.sessions.Transplant(oldID, sess.ID); err != nil {
		return nil, err
	}
	logger.WithFields(log.SessionFields(sess)).WithField("previous", oldID.String()).Info("session reconnected")

	notices := []game.Notice{{To: sess.ID, Msg: protocol.ReconnectResponse{Success: true, SessionID: sess.ID.String()}}}
	replay, err := s.games.Reattach(oldID, sess.ID)
	if err != nil {
		logger.WithFields(log.SessionFields(sess)).WithError(err).Warn("lobby not restored")
		return notices, nil
	}
	return append(notices, replay...), nil
}

// disconnect is an explicit leave. The opponent is told and the session is
// forgotten.
func (s *Server) disconnect(ctx context.Context, sess *session.Session) {
	if sess.InLobby() {
		s.deliver(ctx, s.games.Abandon(sess.LobbyID, sess.ID))
	}
	if _, err := s.sessions.Expire(sess.ID); err != nil {
		logger.WithFields(log.SessionFields(sess)).WithError(err).Error("failed to expire session")
		return
	}
	logger.WithFields(logrus.Fields{"session": sess.ID.String(), "remote": sess.Endpoint.String()}).Info("session disconnected")
}
