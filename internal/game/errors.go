package game

import "errors"

// Game errors
var (
	ErrNotYourTurn   = errors.New("not your turn")
	ErrGameOver      = errors.New("game is over")
	ErrUnitNotFound  = errors.New("unit not found")
	ErrNotYourUnit   = errors.New("unit belongs to the other side")
	ErrUnitExhausted = errors.New("unit has already moved this turn")
	ErrCannotReach   = errors.New("unit cannot reach destination")
)
