package strategy

import (
	"math/rand"

	"ipdevo/internal/game"
)

// Strategy is an evolvable IPD player. Play may keep private state between
// calls within one match; Reset restores the starting behavior. Mutate never
// modifies the receiver.
type Strategy interface {
	Reset()
	Play(opponentLast game.Move) game.Move
	Mutate(rng *rand.Rand) Strategy
}

// Cloner is implemented by strategies that can produce an independent copy
// with fresh match state. Concurrent evaluation plays on clones.
type Cloner interface {
	Clone() Strategy
}

// Crosser is the optional recombination capability. Selection never needs it.
type Crosser interface {
	Cross(rng *rand.Rand, other Strategy) (Strategy, error)
}

// Recordable strategies can be persisted through the kind registry.
type Recordable interface {
	Kind() string
	Params() map[string]float64
}

// CloneAll reports whether every strategy in population implements Cloner.
func CloneAll(population []Strategy) bool {
	for _, s := range population {
		if _, ok := s.(Cloner); !ok {
			return false
		}
	}
	return true
}
