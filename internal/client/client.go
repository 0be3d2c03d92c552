// Package client is a small UDP client for the game server, used by the
// command-line player and by integration tests.
package client

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/KDT2006/seabattle/internal/protocol"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

const maxDatagramSize = 8192

type Client struct {
	ServerAddr string
	conn       *net.UDPConn
	buf        []byte
}

func New(serverAddr string) *Client {
	return &Client{
		ServerAddr: serverAddr,
		buf:        make([]byte, maxDatagramSize),
	}
}

// Connect binds a local socket aimed at the server. No packet is sent.
func (c *Client) Connect() error {
	addr, err := net.ResolveUDPAddr("udp", c.ServerAddr)
	if err != nil {
		return errors.Wrapf(err, "resolve %s", c.ServerAddr)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return errors.Wrap(err, "failed to connect to server")
	}
	c.conn = conn
	logger.WithFields(logrus.Fields{"server": c.ServerAddr, "local": conn.LocalAddr().String()}).Debug("connected")
	return nil
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Send writes one message to the server.
func (c *Client) Send(msg protocol.Inbound) error {
	data, err := protocol.EncodeInbound(msg)
	if err != nil {
		return err
	}
	if _, err := c.conn.Write(data); err != nil {
		return errors.Wrapf(err, "send %s", msg.Type())
	}
	return nil
}

// Recv waits for the next server message, honouring the ctx deadline.
// Server pings are answered and skipped, as are datagrams that do not decode.
func (c *Client) Recv(ctx context.Context) (protocol.Outbound, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, errors.Wrap(err, "set read deadline")
	}
	for {
		n, err := c.conn.Read(c.buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return nil, context.DeadlineExceeded
			}
			return nil, errors.Wrap(err, "receive")
		}
		msg, err := protocol.DecodeOutbound(c.buf[:n])
		if err != nil {
			logger.WithError(err).Debug("dropping server datagram")
			continue
		}
		if _, ok := msg.(*protocol.ServerPing); ok {
			if err := c.Send(&protocol.Pong{}); err != nil {
				return nil, err
			}
			continue
		}
		return msg, nil
	}
}

// Expect reads until a message of the given type arrives and returns it.
// Messages of other types are discarded.
func (c *Client) Expect(ctx context.Context, kind protocol.MessageType) (protocol.Outbound, error) {
	for {
		msg, err := c.Recv(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "waiting for %s", kind)
		}
		if msg.Type() == kind {
			return msg, nil
		}
		logger.WithField("type", msg.Type()).Debug("skipping message")
	}
}
