// Package server runs the UDP game service. One goroutine reads datagrams
// and one dispatch goroutine owns all session and lobby state, handling
// messages and timeout sweeps strictly one at a time.
package server

import (
	"context"
	"net"
	"net/netip"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/KDT2006/seabattle/internal/config"
	"github.com/KDT2006/seabattle/internal/game"
	"github.com/KDT2006/seabattle/internal/session"
)

var (
	logger logrus.FieldLogger = logrus.StandardLogger()
	tracer                    = otel.Tracer("github.com/KDT2006/seabattle/internal/server")
)

type Server struct {
	cfg      *config.Config
	sessions *session.Registry
	games    *game.Manager
	conn     *net.UDPConn
	out      writer
}

func New(cfg *config.Config) *Server {
	sessions := session.NewRegistry()
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		games:    game.NewManager(sessions),
	}
}

// Listen binds the UDP socket.
func (s *Server) Listen() error {
	addr, err := net.ResolveUDPAddr("udp", s.cfg.ListenAddr)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", s.cfg.ListenAddr)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return errors.Wrap(err, "failed to start server")
	}
	s.conn = conn
	s.out = conn
	logger.WithField("address", conn.LocalAddr().String()).Info("server is listening")
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Run listens if needed and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s.conn == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	inbound := make(chan datagram, s.cfg.QueueSize)

	g.Go(func() error {
		return s.readLoop(ctx, inbound)
	})
	g.Go(func() error {
		return s.dispatchLoop(ctx, inbound)
	})
	g.Go(func() error {
		<-ctx.Done()
		// unblocks the read loop
		return s.conn.Close()
	})

	err := g.Wait()
	logger.Info("server shutdown complete")
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (s *Server) readLoop(ctx context.Context, inbound chan<- datagram) error {
	buf := make([]byte, s.cfg.MaxDatagramSize+1)
	for {
		n, from, err := s.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				logger.Info("read loop shutting down")
				return nil
			}
			logger.WithError(err).Warn("error reading datagram")
			continue
		}
		from = netip.AddrPortFrom(from.Addr().Unmap(), from.Port())
		if n > s.cfg.MaxDatagramSize {
			logger.WithFields(logrus.Fields{"remote": from.String(), "size": n}).Debug("dropping oversized datagram")
			continue
		}

		dg := datagram{
			from: from,
			data: append([]byte(nil), buf[:n]...),
			at:   time.Now(),
		}
		select {
		case inbound <- dg:
		case <-ctx.Done():
			return nil
		default:
			logger.WithField("remote", from.String()).Warn("inbound queue full, dropping datagram")
		}
	}
}

func (s *Server) dispatchLoop(ctx context.Context, inbound <-chan datagram) error {
	sessionSweep := time.NewTicker(s.cfg.SessionSweepInterval)
	defer sessionSweep.Stop()
	lobbySweep := time.NewTicker(s.cfg.LobbySweepInterval)
	defer lobbySweep.Stop()
	ping := time.NewTicker(s.cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("dispatcher shutting down")
			return nil
		case dg := <-inbound:
			s.handle(ctx, dg)
		case now := <-sessionSweep.C:
			s.sweepSessions(ctx, now)
		case now := <-lobbySweep.C:
			s.sweepLobbies(ctx, now)
		case <-ping.C:
			s.ping(ctx)
		}
	}
}
