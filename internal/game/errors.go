package game

import (
	"errors"
	"fmt"
)

var ErrIllegalMove = errors.New("illegal move")

// IllegalMoveError reports a round in which at least one player produced a
// value outside {Cooperate, Defect}. It indicates a broken strategy.
type IllegalMoveError struct {
	X     Move
	Y     Move
	Round int
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal plays in round %d: (%d,%d)", e.Round, int(e.X), int(e.Y))
}

func (e *IllegalMoveError) Is(target error) bool {
	return target == ErrIllegalMove
}

// IsIllegalMove reports whether err carries an IllegalMoveError.
func IsIllegalMove(err error) bool {
	var illegal *IllegalMoveError
	return errors.As(err, &illegal)
}
