package game

import (
	"errors"
	"testing"
)

type constPlayer struct {
	move   Move
	resets int
}

func (p *constPlayer) Reset() { p.resets++ }

func (p *constPlayer) Play(Move) Move { return p.move }

// mirrorPlayer copies the opponent and opens with a cooperate.
type mirrorPlayer struct {
	seen []Move
}

func (p *mirrorPlayer) Reset() { p.seen = p.seen[:0] }

func (p *mirrorPlayer) Play(last Move) Move {
	p.seen = append(p.seen, last)
	if last == None {
		return Cooperate
	}
	return last
}

// grudgePlayer defects forever once it has seen a defection in this match.
type grudgePlayer struct {
	betrayed bool
}

func (p *grudgePlayer) Reset() { p.betrayed = false }

func (p *grudgePlayer) Play(last Move) Move {
	if last == Defect {
		p.betrayed = true
	}
	if p.betrayed {
		return Defect
	}
	return Cooperate
}

func TestBattleMutualCooperation(t *testing.T) {
	x, y := &constPlayer{move: Cooperate}, &constPlayer{move: Cooperate}
	sx, sy, err := Standard().Battle(x, y)
	if err != nil {
		t.Fatalf("battle: %v", err)
	}
	if sx != 100.0 || sy != 100.0 {
		t.Fatalf("unexpected scores: (%v,%v)", sx, sy)
	}
	if x.resets != 1 || y.resets != 1 {
		t.Fatalf("expected one reset per player, got x=%d y=%d", x.resets, y.resets)
	}
}

func TestBattleCooperatorAgainstDefector(t *testing.T) {
	sx, sy, err := Standard().Battle(&constPlayer{move: Cooperate}, &constPlayer{move: Defect})
	if err != nil {
		t.Fatalf("battle: %v", err)
	}
	if sx != 0.0 || sy != 150.0 {
		t.Fatalf("unexpected scores: (%v,%v)", sx, sy)
	}
}

func TestBattleMutualDefection(t *testing.T) {
	sx, sy, err := Standard().Battle(&constPlayer{move: Defect}, &constPlayer{move: Defect})
	if err != nil {
		t.Fatalf("battle: %v", err)
	}
	if sx != 50.0 || sy != 50.0 {
		t.Fatalf("unexpected scores: (%v,%v)", sx, sy)
	}
}

func TestBattleFirstRoundSeesNone(t *testing.T) {
	mirror := &mirrorPlayer{}
	if _, _, err := Standard().Battle(mirror, &constPlayer{move: Defect}); err != nil {
		t.Fatalf("battle: %v", err)
	}
	if len(mirror.seen) != DefaultRounds {
		t.Fatalf("expected %d observations, got %d", DefaultRounds, len(mirror.seen))
	}
	if mirror.seen[0] != None {
		t.Fatalf("expected None on first round, got %v", mirror.seen[0])
	}
	for i := 1; i < len(mirror.seen); i++ {
		if mirror.seen[i] != Defect {
			t.Fatalf("round %d: expected opponent's previous defect, got %v", i, mirror.seen[i])
		}
	}
}

func TestBattleMirrorAgainstDefectorLosesOnlyFirstRound(t *testing.T) {
	sx, sy, err := Standard().Battle(&mirrorPlayer{}, &constPlayer{move: Defect})
	if err != nil {
		t.Fatalf("battle: %v", err)
	}
	// Sucker once, then 99 rounds of mutual defection.
	if sx != 49.5 || sy != 1.5+49.5 {
		t.Fatalf("unexpected scores: (%v,%v)", sx, sy)
	}
}

func TestBattleIllegalMove(t *testing.T) {
	_, _, err := Standard().Battle(&constPlayer{move: Cooperate}, &constPlayer{move: Move(7)})
	if err == nil {
		t.Fatal("expected illegal move error")
	}
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	var illegal *IllegalMoveError
	if !errors.As(err, &illegal) {
		t.Fatalf("expected *IllegalMoveError, got %T", err)
	}
	if illegal.X != Cooperate || illegal.Y != Move(7) || illegal.Round != 0 {
		t.Fatalf("unexpected error payload: %+v", illegal)
	}
}

func TestBattleNoneIsNotALegalPlay(t *testing.T) {
	_, _, err := Standard().Battle(&constPlayer{move: None}, &constPlayer{move: Cooperate})
	if !IsIllegalMove(err) {
		t.Fatalf("expected illegal move, got %v", err)
	}
}

func TestBattleIsRepeatableAcrossResets(t *testing.T) {
	engine := Standard()
	x, y := &grudgePlayer{}, &mirrorPlayer{}
	defector := &constPlayer{move: Defect}

	first1, first2, err := engine.Battle(x, y)
	if err != nil {
		t.Fatalf("first battle: %v", err)
	}
	// Leave x holding a grudge; the next match must start clean.
	if _, _, err := engine.Battle(x, defector); err != nil {
		t.Fatalf("poison battle: %v", err)
	}
	second1, second2, err := engine.Battle(x, y)
	if err != nil {
		t.Fatalf("second battle: %v", err)
	}
	if first1 != second1 || first2 != second2 {
		t.Fatalf("expected identical scores, got (%v,%v) then (%v,%v)", first1, first2, second1, second2)
	}
}

func TestNewEngineValidatesInputs(t *testing.T) {
	if _, err := NewEngine(Payoff{T: 1, R: 1, P: 0.5, S: 0}, 10); !errors.Is(err, ErrInvalidPayoff) {
		t.Fatalf("expected ErrInvalidPayoff, got %v", err)
	}
	if _, err := NewEngine(StandardPayoff(), 0); err == nil {
		t.Fatal("expected rounds validation error")
	}
	engine, err := NewEngine(Payoff{T: 5, R: 3, P: 1, S: 0}, 10)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	sx, sy, err := engine.Battle(&constPlayer{move: Defect}, &constPlayer{move: Cooperate})
	if err != nil {
		t.Fatalf("battle: %v", err)
	}
	if sx != 50 || sy != 0 {
		t.Fatalf("unexpected scores: (%v,%v)", sx, sy)
	}
}

func TestReplayMatchesBattle(t *testing.T) {
	engine := Standard()
	sx, sy, err := engine.Battle(&grudgePlayer{}, &mirrorPlayer{})
	if err != nil {
		t.Fatalf("battle: %v", err)
	}
	trace, err := engine.Replay(&grudgePlayer{}, &mirrorPlayer{})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(trace.Rounds) != engine.Rounds {
		t.Fatalf("expected %d rounds, got %d", engine.Rounds, len(trace.Rounds))
	}
	if trace.TotalX != sx || trace.TotalY != sy {
		t.Fatalf("replay totals (%v,%v) differ from battle (%v,%v)", trace.TotalX, trace.TotalY, sx, sy)
	}
	last := trace.Rounds[len(trace.Rounds)-1]
	if last.ScoreX != sx || last.ScoreY != sy {
		t.Fatalf("running totals not carried: %+v", last)
	}
}

// lateIllegalPlayer cooperates until round n, then plays an illegal move.
type lateIllegalPlayer struct {
	n, round int
}

func (p *lateIllegalPlayer) Reset() { p.round = 0 }

func (p *lateIllegalPlayer) Play(Move) Move {
	p.round++
	if p.round > p.n {
		return Move(5)
	}
	return Cooperate
}

func TestReplayMatchesBattleUnderCustomPayoff(t *testing.T) {
	engine, err := NewEngine(Payoff{T: 0.7, R: 0.3, P: 0.1, S: 0}, 37)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	sx, sy, err := engine.Battle(&grudgePlayer{}, &constPlayer{move: Defect})
	if err != nil {
		t.Fatalf("battle: %v", err)
	}
	trace, err := engine.Replay(&grudgePlayer{}, &constPlayer{move: Defect})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if trace.TotalX != sx || trace.TotalY != sy {
		t.Fatalf("replay totals (%v,%v) differ from battle (%v,%v)", trace.TotalX, trace.TotalY, sx, sy)
	}
	for i, r := range trace.Rounds {
		if r.Round != i {
			t.Fatalf("round %d recorded as %d", i, r.Round)
		}
	}
}

func TestReplayAndBattleReportSameIllegalRound(t *testing.T) {
	engine := Standard()
	_, _, battleErr := engine.Battle(&constPlayer{move: Defect}, &lateIllegalPlayer{n: 3})
	trace, replayErr := engine.Replay(&constPlayer{move: Defect}, &lateIllegalPlayer{n: 3})

	var fromBattle, fromReplay *IllegalMoveError
	if !errors.As(battleErr, &fromBattle) || !errors.As(replayErr, &fromReplay) {
		t.Fatalf("expected illegal move errors, got %v and %v", battleErr, replayErr)
	}
	if fromBattle.Round != 3 || *fromBattle != *fromReplay {
		t.Fatalf("unexpected illegal rounds: battle %+v replay %+v", fromBattle, fromReplay)
	}
	if len(trace.Rounds) != 0 {
		t.Fatalf("expected empty trace on failure, got %d rounds", len(trace.Rounds))
	}
}

func TestScoreRejectsInvalidMoves(t *testing.T) {
	p := StandardPayoff()
	for _, pair := range [][2]Move{{None, Cooperate}, {Defect, None}, {Move(2), Defect}, {Cooperate, Move(-3)}} {
		if _, _, err := p.Score(pair[0], pair[1]); !IsIllegalMove(err) {
			t.Fatalf("moves %v: expected illegal move, got %v", pair, err)
		}
	}
	if x, y, err := p.Score(Defect, Defect); err != nil || x != p.P || y != p.P {
		t.Fatalf("mutual defection: (%v,%v,%v)", x, y, err)
	}
}

func TestMoveString(t *testing.T) {
	cases := map[Move]string{Cooperate: "C", Defect: "D", None: "-", Move(3): "Move(3)"}
	for move, want := range cases {
		if got := move.String(); got != want {
			t.Fatalf("move %d: got %q want %q", int(move), got, want)
		}
	}
}
