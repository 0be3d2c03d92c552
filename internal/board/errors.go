package board

import "github.com/pkg/errors"

// ErrWrongDimensions is returned when a board is not Size x Size.
var ErrWrongDimensions = errors.New("board must be 10x10")

// ErrInvalidCell is returned when a submitted board holds a value other than empty or ship.
var ErrInvalidCell = errors.New("board may only contain empty and ship cells")

// ErrInvalidFleet is returned when the ships do not form the required fleet.
var ErrInvalidFleet = errors.New("invalid fleet placement")

// ErrOutOfRange is returned for shots outside the board.
var ErrOutOfRange = errors.New("coordinates out of range")

// ErrAlreadyShot is returned for shots at a cell that was already attacked.
var ErrAlreadyShot = errors.New("cell already shot")
