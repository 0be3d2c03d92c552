package session

import "github.com/pkg/errors"

var ErrSessionNotFound = errors.New("session not found")
var ErrUsernameTaken = errors.New("username already taken")
var ErrSameSession = errors.New("cannot reconnect to the current session")
