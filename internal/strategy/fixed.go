package strategy

import (
	"math/rand"

	"ipdevo/internal/game"
)

const (
	KindAlwaysCooperate = "always-cooperate"
	KindAlwaysDefect    = "always-defect"
	KindTitForTat       = "tit-for-tat"
	KindGrudger         = "grudger"
)

// Always plays the same move every round.
type Always struct {
	Move game.Move
}

func AlwaysCooperate() Always { return Always{Move: game.Cooperate} }

func AlwaysDefect() Always { return Always{Move: game.Defect} }

func (Always) Reset() {}

func (a Always) Play(game.Move) game.Move { return a.Move }

func (a Always) Mutate(*rand.Rand) Strategy { return a }

func (a Always) Clone() Strategy { return a }

func (a Always) Kind() string {
	if a.Move == game.Defect {
		return KindAlwaysDefect
	}
	return KindAlwaysCooperate
}

func (Always) Params() map[string]float64 { return nil }

func (a Always) String() string { return a.Kind() }

// TitForTat cooperates first, then repeats the opponent's previous move.
type TitForTat struct{}

func (TitForTat) Reset() {}

func (TitForTat) Play(opponentLast game.Move) game.Move {
	if opponentLast == game.Defect {
		return game.Defect
	}
	return game.Cooperate
}

func (t TitForTat) Mutate(*rand.Rand) Strategy { return t }

func (t TitForTat) Clone() Strategy { return t }

func (TitForTat) Kind() string { return KindTitForTat }

func (TitForTat) Params() map[string]float64 { return nil }

func (TitForTat) String() string { return KindTitForTat }

// Grudger cooperates until the opponent defects once, then defects for the
// rest of the match.
type Grudger struct {
	betrayed bool
}

func (g *Grudger) Reset() { g.betrayed = false }

func (g *Grudger) Play(opponentLast game.Move) game.Move {
	if opponentLast == game.Defect {
		g.betrayed = true
	}
	if g.betrayed {
		return game.Defect
	}
	return game.Cooperate
}

func (g *Grudger) Mutate(*rand.Rand) Strategy { return &Grudger{} }

func (g *Grudger) Clone() Strategy { return &Grudger{} }

func (*Grudger) Kind() string { return KindGrudger }

func (*Grudger) Params() map[string]float64 { return nil }

func (*Grudger) String() string { return KindGrudger }
