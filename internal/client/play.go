package client

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/KDT2006/seabattle/internal/board"
	"github.com/KDT2006/seabattle/internal/protocol"
)

const help = `commands:
  login NAME        pick a username
  board             place a random fleet and submit it
  find              look for an opponent
  new               open a private lobby
  join ID           join a lobby by id
  ready             confirm readiness
  shot X Y          fire at column X, row Y
  chat TEXT         talk to your opponent
  reconnect ID      resume a previous session
  ping              check the server is there
  quit              leave the game`

var errQuit = errors.New("quit")

// Play reads commands from in and prints server events to out until the
// input ends or the user quits.
func (c *Client) Play(ctx context.Context, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "Connected to server at %s\n%s\n", c.ServerAddr, help)

	done := make(chan error, 1)
	go func() {
		done <- c.readLoop(ctx, out)
	}()

	err := c.writeLoop(in, out)
	if sendErr := c.Send(&protocol.Disconnect{}); sendErr != nil && err == nil {
		err = sendErr
	}
	c.Close()
	<-done
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

func (c *Client) readLoop(ctx context.Context, out io.Writer) error {
	for {
		msg, err := c.Recv(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, describe(msg))
	}
}

func (c *Client) writeLoop(in io.Reader, out io.Writer) error {
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		msg, err := ParseCommand(line, rng)
		if err != nil {
			if errors.Is(err, errQuit) {
				return err
			}
			fmt.Fprintf(out, "! %v\n", err)
			continue
		}
		if err := c.Send(msg); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ParseCommand turns one input line into a message for the server.
func ParseCommand(line string, rng *rand.Rand) (protocol.Inbound, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.New("empty command")
	}
	args := fields[1:]
	switch strings.ToLower(fields[0]) {
	case "login":
		if len(args) != 1 {
			return nil, errors.New("usage: login NAME")
		}
		return &protocol.Login{Username: args[0]}, nil
	case "board":
		b, err := board.Random(rng)
		if err != nil {
			return nil, err
		}
		return &protocol.SubmitBoard{Board: b.Rows()}, nil
	case "find":
		return &protocol.FindGame{}, nil
	case "new":
		return &protocol.NewGame{}, nil
	case "join":
		if len(args) != 1 {
			return nil, errors.New("usage: join ID")
		}
		return &protocol.JoinGame{LobbyID: strings.ToUpper(args[0])}, nil
	case "ready":
		return &protocol.Ready{}, nil
	case "shot", "fire":
		if len(args) != 2 {
			return nil, errors.New("usage: shot X Y")
		}
		x, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, errors.Wrap(err, "bad column")
		}
		y, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, errors.Wrap(err, "bad row")
		}
		return &protocol.Shot{X: &x, Y: &y}, nil
	case "chat":
		text := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		if text == "" {
			return nil, errors.New("usage: chat TEXT")
		}
		return &protocol.Chat{Message: text}, nil
	case "reconnect":
		if len(args) != 1 {
			return nil, errors.New("usage: reconnect ID")
		}
		return &protocol.Reconnect{SessionID: args[0]}, nil
	case "ping":
		return &protocol.Ping{}, nil
	case "quit", "exit", "disconnect":
		return nil, errQuit
	}
	return nil, errors.Errorf("unknown command %q, try one of:\n%s", fields[0], help)
}

// describe renders a server event for the terminal.
func describe(msg protocol.Outbound) string {
	switch m := msg.(type) {
	case *protocol.GameState:
		return fmt.Sprintf("< game_state lobby=%s state=%s opponent=%s your_turn=%t\n%s",
			m.LobbyID, m.State, m.Opponent, m.YourTurn, render(m.Board))
	case *protocol.ChatMessage:
		return fmt.Sprintf("< [%s] %s", m.Sender, m.Message)
	}
	data, err := protocol.Encode(msg)
	if err != nil {
		return fmt.Sprintf("< %s", msg.Type())
	}
	return fmt.Sprintf("< %s", data)
}

var glyphs = map[board.Cell]byte{
	board.Empty: '.',
	board.Ship:  '#',
	board.Hit:   'X',
	board.Miss:  'o',
	board.Sunk:  '*',
}

func render(rows [][]int) string {
	var sb strings.Builder
	sb.WriteString("  0123456789\n")
	for y, row := range rows {
		sb.WriteString(strconv.Itoa(y))
		sb.WriteByte(' ')
		for _, v := range row {
			g, ok := glyphs[board.Cell(v)]
			if !ok {
				g = '?'
			}
			sb.WriteByte(g)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
