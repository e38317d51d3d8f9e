package strategy

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"ipdevo/internal/game"
	"ipdevo/internal/model"
)

var (
	ErrKindExists    = errors.New("strategy kind already registered")
	ErrKindNotFound  = errors.New("strategy kind not found")
	ErrNotRecordable = errors.New("strategy is not recordable")
)

// DecodeFn rebuilds a strategy from persisted parameters.
type DecodeFn func(params map[string]float64) (Strategy, error)

var kindRegistry = struct {
	mu sync.RWMutex
	m  map[string]DecodeFn
}{
	m: map[string]DecodeFn{
		KindLinear: func(params map[string]float64) (Strategy, error) {
			a, okA := params["a"]
			b, okB := params["b"]
			if !okA || !okB {
				return nil, fmt.Errorf("linear strategy requires a and b params")
			}
			scale, ok := params["scale"]
			if !ok {
				scale = DefaultMutationScale
			}
			return Linear{A: a, B: b, Scale: scale}, nil
		},
		KindAlwaysCooperate: func(map[string]float64) (Strategy, error) {
			return Always{Move: game.Cooperate}, nil
		},
		KindAlwaysDefect: func(map[string]float64) (Strategy, error) {
			return Always{Move: game.Defect}, nil
		},
		KindTitForTat: func(map[string]float64) (Strategy, error) {
			return TitForTat{}, nil
		},
		KindGrudger: func(map[string]float64) (Strategy, error) {
			return &Grudger{}, nil
		},
	},
}

// Register adds a decoder for a strategy kind defined outside this package.
func Register(kind string, decode DecodeFn) error {
	if kind == "" {
		return errors.New("strategy kind is required")
	}
	if decode == nil {
		return errors.New("decoder is required")
	}

	kindRegistry.mu.Lock()
	defer kindRegistry.mu.Unlock()

	if _, exists := kindRegistry.m[kind]; exists {
		return fmt.Errorf("%w: %s", ErrKindExists, kind)
	}
	kindRegistry.m[kind] = decode
	return nil
}

func ListKinds() []string {
	kindRegistry.mu.RLock()
	defer kindRegistry.mu.RUnlock()

	kinds := make([]string, 0, len(kindRegistry.m))
	for kind := range kindRegistry.m {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func ToRecord(s Strategy) (model.StrategyRecord, error) {
	recordable, ok := s.(Recordable)
	if !ok {
		return model.StrategyRecord{}, fmt.Errorf("%w: %T", ErrNotRecordable, s)
	}
	return model.StrategyRecord{Kind: recordable.Kind(), Params: recordable.Params()}, nil
}

func FromRecord(record model.StrategyRecord) (Strategy, error) {
	kindRegistry.mu.RLock()
	decode, ok := kindRegistry.m[record.Kind]
	kindRegistry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKindNotFound, record.Kind)
	}
	s, err := decode(record.Params)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", record.Kind, err)
	}
	return s, nil
}

// ToRecords converts a whole population, preserving order.
func ToRecords(population []Strategy) ([]model.StrategyRecord, error) {
	out := make([]model.StrategyRecord, 0, len(population))
	for i, s := range population {
		record, err := ToRecord(s)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out = append(out, record)
	}
	return out, nil
}

func FromRecords(records []model.StrategyRecord) ([]Strategy, error) {
	out := make([]Strategy, 0, len(records))
	for i, record := range records {
		s, err := FromRecord(record)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func unregisterKindForTests(kind string) {
	kindRegistry.mu.Lock()
	defer kindRegistry.mu.Unlock()
	delete(kindRegistry.m, kind)
}
