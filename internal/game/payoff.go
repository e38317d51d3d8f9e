package game

import (
	"errors"
	"fmt"
)

var ErrInvalidPayoff = errors.New("payoff matrix must satisfy T > R > P > S")

// Payoff holds the temptation, reward, punishment and sucker payoffs.
type Payoff struct {
	T float64 `json:"t" yaml:"t"`
	R float64 `json:"r" yaml:"r"`
	P float64 `json:"p" yaml:"p"`
	S float64 `json:"s" yaml:"s"`
}

func StandardPayoff() Payoff {
	return Payoff{T: 1.5, R: 1.0, P: 0.5, S: 0.0}
}

func (p Payoff) Validate() error {
	if p.T > p.R && p.R > p.P && p.P > p.S {
		return nil
	}
	return fmt.Errorf("%w: got T=%g R=%g P=%g S=%g", ErrInvalidPayoff, p.T, p.R, p.P, p.S)
}

// Score returns the payoffs of one round for the row player x and the column
// player y.
func (p Payoff) Score(x, y Move) (float64, float64, error) {
	if !x.Valid() || !y.Valid() {
		return 0, 0, &IllegalMoveError{X: x, Y: y}
	}
	switch {
	case x == Cooperate && y == Cooperate:
		return p.R, p.R, nil
	case x == Cooperate && y == Defect:
		return p.S, p.T, nil
	case x == Defect && y == Cooperate:
		return p.T, p.S, nil
	default:
		return p.P, p.P, nil
	}
}
