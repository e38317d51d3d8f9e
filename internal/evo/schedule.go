package evo

import (
	"errors"
	"fmt"
	"math/rand"
)

// PairingMode selects how opponents are paired each generation.
type PairingMode string

const (
	ModeFull       PairingMode = "full"
	ModeRandomDual PairingMode = "random-dual"
)

var ErrUnsupportedMode = errors.New("unsupported pairing mode")

type UnsupportedModeError struct {
	Mode string
}

func (e *UnsupportedModeError) Error() string {
	return fmt.Sprintf("unknown mode '%s'", e.Mode)
}

func (e *UnsupportedModeError) Is(target error) bool {
	return target == ErrUnsupportedMode
}

func ParsePairingMode(s string) (PairingMode, error) {
	switch PairingMode(s) {
	case ModeFull, ModeRandomDual:
		return PairingMode(s), nil
	default:
		return "", &UnsupportedModeError{Mode: s}
	}
}

func PairingModes() []PairingMode {
	return []PairingMode{ModeFull, ModeRandomDual}
}

// Pair is one scheduled match between population indices X and Y, X != Y.
type Pair struct {
	X int
	Y int
}

// Schedule builds the pairs played in one generation of a population of size k.
//
// full yields every ordered pair in row-major order. random-dual yields one
// pair per index i, with the opponent drawn uniformly from the other k-1
// indices.
func Schedule(mode PairingMode, k int, rng *rand.Rand) ([]Pair, error) {
	switch mode {
	case ModeFull:
		if k < 2 {
			return nil, nil
		}
		pairs := make([]Pair, 0, k*(k-1))
		for x := 0; x < k; x++ {
			for y := 0; y < k; y++ {
				if x != y {
					pairs = append(pairs, Pair{X: x, Y: y})
				}
			}
		}
		return pairs, nil
	case ModeRandomDual:
		if k < 2 {
			return nil, nil
		}
		if rng == nil {
			return nil, fmt.Errorf("random source is required")
		}
		pairs := make([]Pair, 0, k)
		for x := 0; x < k; x++ {
			y := rng.Intn(k - 1)
			if y >= x {
				y++
			}
			pairs = append(pairs, Pair{X: x, Y: y})
		}
		return pairs, nil
	default:
		return nil, &UnsupportedModeError{Mode: string(mode)}
	}
}
