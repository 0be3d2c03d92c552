package protocol

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var inboundTypes = map[MessageType]func() Inbound{
	LoginMsg:      func() Inbound { return &Login{} },
	BoardMsg:      func() Inbound { return &SubmitBoard{} },
	FindGameMsg:   func() Inbound { return &FindGame{} },
	NewGameMsg:    func() Inbound { return &NewGame{} },
	JoinGameMsg:   func() Inbound { return &JoinGame{} },
	ReadyMsg:      func() Inbound { return &Ready{} },
	ShotMsg:       func() Inbound { return &Shot{} },
	ChatMsg:       func() Inbound { return &Chat{} },
	PingMsg:       func() Inbound { return &Ping{} },
	PongMsg:       func() Inbound { return &Pong{} },
	ReconnectMsg:  func() Inbound { return &Reconnect{} },
	DisconnectMsg: func() Inbound { return &Disconnect{} },
}

var outboundTypes = map[MessageType]func() Outbound{
	LoginResponseMsg:       func() Outbound { return &LoginResponse{} },
	BoardAcceptedMsg:       func() Outbound { return &BoardAccepted{} },
	LobbyCreatedMsg:        func() Outbound { return &LobbyCreated{} },
	WaitingMsg:             func() Outbound { return &Waiting{} },
	GameFoundMsg:           func() Outbound { return &GameFound{} },
	PlayerReadyMsg:         func() Outbound { return &PlayerReady{} },
	GameStartMsg:           func() Outbound { return &GameStart{} },
	ShotResultMsg:          func() Outbound { return &ShotResult{} },
	ShotReceivedMsg:        func() Outbound { return &ShotReceived{} },
	ShipSunkMsg:            func() Outbound { return &ShipSunk{} },
	TurnChangedMsg:         func() Outbound { return &TurnChanged{} },
	GameOverMsg:            func() Outbound { return &GameOver{} },
	OpponentDisconnectMsg:  func() Outbound { return &OpponentDisconnected{} },
	OpponentReconnectedMsg: func() Outbound { return &OpponentReconnected{} },
	GameTimeoutMsg:         func() Outbound { return &GameTimeout{} },
	ChatMsg:                func() Outbound { return &ChatMessage{} },
	PingMsg:                func() Outbound { return &ServerPing{} },
	PongMsg:                func() Outbound { return &ServerPong{} },
	ReconnectResponseMsg:   func() Outbound { return &ReconnectResponse{} },
	GameStateMsg:           func() Outbound { return &GameState{} },
	ErrorMsg:               func() Outbound { return &Error{} },
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names instead of Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode parses one client datagram.
//
// Datagrams that are not a JSON object with a string "type" yield
// ErrMalformed, unrecognised types yield ErrUnknownType. Both are meant to be
// dropped silently. Known types with bad fields yield a *ValidationError.
func Decode(data []byte) (Inbound, error) {
	kind, err := peekType(data)
	if err != nil {
		return nil, err
	}
	newMsg, ok := inboundTypes[kind]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownType, "%q", kind)
	}
	msg := newMsg()
	if err := unmarshal(kind, data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// DecodeOutbound parses one server datagram. Clients use it.
func DecodeOutbound(data []byte) (Outbound, error) {
	kind, err := peekType(data)
	if err != nil {
		return nil, err
	}
	newMsg, ok := outboundTypes[kind]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownType, "%q", kind)
	}
	msg := newMsg()
	if err := unmarshal(kind, data, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Encode serialises msg and stamps its "type" field.
func Encode(msg Outbound) ([]byte, error) {
	return encode(msg.Type(), msg)
}

// EncodeInbound serialises a client message. Clients use it.
func EncodeInbound(msg Inbound) ([]byte, error) {
	return encode(msg.Type(), msg)
}

func encode(kind MessageType, msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", kind)
	}
	data, err = sjson.SetBytes(data, "type", string(kind))
	if err != nil {
		return nil, errors.Wrapf(err, "stamp %s", kind)
	}
	return data, nil
}

func peekType(data []byte) (MessageType, error) {
	if !gjson.ValidBytes(data) {
		return "", ErrMalformed
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return "", errors.Wrap(ErrMalformed, "not an object")
	}
	kind := root.Get("type")
	if kind.Type != gjson.String {
		return "", errors.Wrap(ErrMalformed, "missing type")
	}
	return MessageType(kind.String()), nil
}

func unmarshal(kind MessageType, data []byte, msg any) error {
	if err := json.Unmarshal(data, msg); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return &ValidationError{Type: kind, Reason: fmt.Sprintf("field %s has the wrong type", typeErr.Field)}
		}
		return errors.Wrap(ErrMalformed, err.Error())
	}
	if err := validate.Struct(msg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ValidationError{Type: kind, Reason: describe(fe)}
		}
		return errors.Wrapf(err, "validate %s", kind)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fmt.Sprintf("%s is longer than %s", fe.Field(), fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
