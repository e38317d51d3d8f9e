package game

import "fmt"

const DefaultRounds = 100

// BattleFunc plays one match and returns the cumulative payoffs of x and y.
type BattleFunc func(x, y Player) (float64, float64, error)

// Engine plays fixed-length matches under a payoff matrix.
type Engine struct {
	Payoff Payoff
	Rounds int
}

func NewEngine(payoff Payoff, rounds int) (*Engine, error) {
	if err := payoff.Validate(); err != nil {
		return nil, err
	}
	if rounds <= 0 {
		return nil, fmt.Errorf("rounds must be > 0")
	}
	return &Engine{Payoff: payoff, Rounds: rounds}, nil
}

// Standard returns the engine with the standard matrix and 100 rounds.
func Standard() *Engine {
	return &Engine{Payoff: StandardPayoff(), Rounds: DefaultRounds}
}

// Battle resets both players and plays Rounds simultaneous rounds. Each player
// sees the other's previous move, None on the first round.
func (e *Engine) Battle(x, y Player) (float64, float64, error) {
	return e.play(x, y, nil)
}

// play runs one match, calling onRound after every scored round when set.
func (e *Engine) play(x, y Player, onRound func(RoundTrace)) (float64, float64, error) {
	x.Reset()
	y.Reset()

	var scoreX, scoreY float64
	prevX, prevY := None, None
	for round := 0; round < e.Rounds; round++ {
		moveX := x.Play(prevY)
		moveY := y.Play(prevX)
		rx, ry, err := e.Payoff.Score(moveX, moveY)
		if err != nil {
			return 0, 0, &IllegalMoveError{X: moveX, Y: moveY, Round: round}
		}
		scoreX += rx
		scoreY += ry
		if onRound != nil {
			onRound(RoundTrace{Round: round, X: moveX, Y: moveY, ScoreX: scoreX, ScoreY: scoreY})
		}
		prevX, prevY = moveX, moveY
	}
	return scoreX, scoreY, nil
}

// Func adapts the engine to a BattleFunc.
func (e *Engine) Func() BattleFunc {
	return e.Battle
}

// RoundTrace is one scored round of a replayed match.
type RoundTrace struct {
	Round  int     `json:"round"`
	X      Move    `json:"x"`
	Y      Move    `json:"y"`
	ScoreX float64 `json:"score_x"`
	ScoreY float64 `json:"score_y"`
}

// MatchTrace records every round of a match with running totals.
type MatchTrace struct {
	Rounds []RoundTrace `json:"rounds"`
	TotalX float64      `json:"total_x"`
	TotalY float64      `json:"total_y"`
}

// Replay plays the same match as Battle but keeps each round.
func (e *Engine) Replay(x, y Player) (MatchTrace, error) {
	trace := MatchTrace{Rounds: make([]RoundTrace, 0, e.Rounds)}
	totalX, totalY, err := e.play(x, y, func(r RoundTrace) {
		trace.Rounds = append(trace.Rounds, r)
	})
	if err != nil {
		return MatchTrace{}, err
	}
	trace.TotalX, trace.TotalY = totalX, totalY
	return trace, nil
}
