package game

import "strconv"

// Move is one player's action in a round. Only Cooperate and Defect are legal
// plays; None seeds the first round of a match.
type Move int

const (
	Defect    Move = -1
	None      Move = 0
	Cooperate Move = 1
)

// Valid reports whether m is a legal play.
func (m Move) Valid() bool {
	return m == Cooperate || m == Defect
}

func (m Move) String() string {
	switch m {
	case Cooperate:
		return "C"
	case Defect:
		return "D"
	case None:
		return "-"
	default:
		return "Move(" + strconv.Itoa(int(m)) + ")"
	}
}

// Player is the part of a strategy the engine drives during one match.
type Player interface {
	Reset()
	Play(opponentLast Move) Move
}
