package game

import "github.com/pkg/errors"

var ErrLobbyNotFound = errors.New("lobby not found")
var ErrNotInLobby = errors.New("not in a lobby")
var ErrAlreadyInLobby = errors.New("already in a lobby")
var ErrLobbyFull = errors.New("lobby is full")
var ErrNoBoard = errors.New("submit a board first")
var ErrGameInProgress = errors.New("game already in progress")
var ErrGameNotActive = errors.New("game is not active")
var ErrNotYourTurn = errors.New("not your turn")
