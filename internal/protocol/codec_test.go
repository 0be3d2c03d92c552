package protocol

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/KDT2006/seabattle/internal/board"
)

func TestDecode(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"login","username":"alice"}`))
	require.NoError(t, err)
	assert.Equal(t, &Login{Username: "alice"}, msg)

	msg, err = Decode([]byte(`{"type":"shot","x":0,"y":9}`))
	require.NoError(t, err)
	shot, ok := msg.(*Shot)
	require.True(t, ok)
	assert.Equal(t, board.Point{X: 0, Y: 9}, shot.Point())

	msg, err = Decode([]byte(`{"type":"reconnect","session_id":"7d444840-9dc0-11d1-b245-5ffdce74fad2"}`))
	require.NoError(t, err)
	assert.Equal(t, "7d444840-9dc0-11d1-b245-5ffdce74fad2", msg.(*Reconnect).SessionID)

	msg, err = Decode([]byte(`{"type":"ready"}`))
	require.NoError(t, err)
	assert.Nil(t, msg.(*Ready).Board)

	msg, err = Decode([]byte(`{"type":"join_game","lobby_id":"K7Q2ZX"}`))
	require.NoError(t, err)
	assert.Equal(t, &JoinGame{LobbyID: "K7Q2ZX"}, msg)

	msg, err = Decode([]byte(`{"type":"disconnect","extra":true}`))
	require.NoError(t, err)
	assert.Equal(t, DisconnectMsg, msg.Type())
}

func TestDecodeDropsGarbage(t *testing.T) {
	for _, raw := range []string{
		``,
		`not json`,
		`{"type":`,
		`[1,2,3]`,
		`"shot"`,
		`{"x":1}`,
		`{"type":7}`,
	} {
		_, err := Decode([]byte(raw))
		assert.True(t, errors.Is(err, ErrMalformed), "%q: %v", raw, err)
	}

	_, err := Decode([]byte(`{"type":"teleport"}`))
	assert.True(t, errors.Is(err, ErrUnknownType))
	_, err = Decode([]byte(`{"type":"game_over"}`))
	assert.True(t, errors.Is(err, ErrUnknownType), "server-only types are unknown inbound")
}

func TestDecodeValidation(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		reason string
	}{
		{"missing x", `{"type":"shot","y":1}`, "x is required"},
		{"string coordinate", `{"type":"shot","x":"a","y":1}`, "field x has the wrong type"},
		{"empty username", `{"type":"login","username":""}`, "username is required"},
		{"long username", `{"type":"login","username":"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}`, "username is longer than 32"},
		{"empty chat", `{"type":"chat"}`, "message is required"},
		{"bad session id", `{"type":"reconnect","session_id":"nope"}`, "session_id failed uuid"},
		{"board not array", `{"type":"board","board":"x"}`, "field board has the wrong type"},
		{"missing lobby id", `{"type":"join_game"}`, "lobby_id is required"},
		{"short lobby id", `{"type":"join_game","lobby_id":"AB1"}`, "lobby_id must be 6 characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.reason, verr.Reason)
		})
	}
}

func TestEncodeStampsType(t *testing.T) {
	data, err := Encode(ShotResult{X: 3, Y: 4, Hit: true})
	require.NoError(t, err)
	assert.Equal(t, "shot_result", gjson.GetBytes(data, "type").String())
	assert.Equal(t, int64(3), gjson.GetBytes(data, "x").Int())
	assert.True(t, gjson.GetBytes(data, "hit").Bool())

	data, err = Encode(Waiting{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"waiting"}`, string(data))

	data, err = Encode(ShipSunk{X: 2, Y: 4, Cells: []board.Point{{X: 2, Y: 4}, {X: 3, Y: 4}}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ship_sunk","x":2,"y":4,"cells":[{"x":2,"y":4},{"x":3,"y":4}]}`, string(data))
}

func TestClientSideCodec(t *testing.T) {
	x, y := 5, 6
	data, err := EncodeInbound(&Shot{X: &x, Y: &y})
	require.NoError(t, err)
	in, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, board.Point{X: 5, Y: 6}, in.(*Shot).Point())

	data, err = Encode(GameOver{Result: ResultWin, Shots: 40, Hits: 20, Accuracy: 50})
	require.NoError(t, err)
	out, err := DecodeOutbound(data)
	require.NoError(t, err)
	assert.Equal(t, &GameOver{Result: ResultWin, Shots: 40, Hits: 20, Accuracy: 50}, out)

	out, err = DecodeOutbound([]byte(`{"type":"ping"}`))
	require.NoError(t, err)
	assert.IsType(t, &ServerPing{}, out)
}
