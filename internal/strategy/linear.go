package strategy

import (
	"fmt"
	"math/rand"

	"ipdevo/internal/game"
)

const (
	KindLinear           = "linear"
	DefaultMutationScale = 0.2
)

// Linear is a reactive strategy: it cooperates when A*x + B >= 0, where x is
// the opponent's previous move (+1 cooperate, -1 defect, 0 on the first round).
type Linear struct {
	A     float64
	B     float64
	Scale float64
}

func NewLinear(a, b float64) Linear {
	return Linear{A: a, B: b, Scale: DefaultMutationScale}
}

func (Linear) Reset() {}

func (l Linear) Play(opponentLast game.Move) game.Move {
	if l.A*float64(opponentLast)+l.B >= 0 {
		return game.Cooperate
	}
	return game.Defect
}

// Mutate perturbs both coefficients with independent Gaussian noise scaled
// by Scale. A zero Scale still consumes two draws and yields an exact copy.
func (l Linear) Mutate(rng *rand.Rand) Strategy {
	return Linear{
		A:     l.A + rng.NormFloat64()*l.Scale,
		B:     l.B + rng.NormFloat64()*l.Scale,
		Scale: l.Scale,
	}
}

func (l Linear) Clone() Strategy {
	return l
}

// Cross picks each coefficient from one of the two parents.
func (l Linear) Cross(rng *rand.Rand, other Strategy) (Strategy, error) {
	mate, ok := other.(Linear)
	if !ok {
		return nil, fmt.Errorf("cannot cross linear with %T", other)
	}
	child := l
	if rng.Intn(2) == 1 {
		child.A = mate.A
	}
	if rng.Intn(2) == 1 {
		child.B = mate.B
	}
	return child, nil
}

func (Linear) Kind() string { return KindLinear }

func (l Linear) Params() map[string]float64 {
	return map[string]float64{"a": l.A, "b": l.B, "scale": l.Scale}
}

func (l Linear) String() string {
	return fmt.Sprintf("Linear(a=%1.02f,b=%1.02f) %s", l.A, l.B, Classify(l))
}
