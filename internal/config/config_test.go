package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipdevo/internal/evo"
	"ipdevo/internal/game"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 100, cfg.Evolution.PopulationSize)
	assert.Equal(t, 1000, cfg.Evolution.Generations)
	assert.Equal(t, string(evo.ModeRandomDual), cfg.Evolution.Mode)
	assert.Equal(t, 0.1, cfg.Evolution.SelectionNoise)
	assert.Equal(t, 100, cfg.Game.Rounds)
	assert.Equal(t, game.StandardPayoff(), cfg.Payoff())
	assert.Equal(t, 0.2, cfg.Strategy.MutationScale)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ipdevo.yaml")
	content := `
evolution:
  population_size: 12
  generations: 40
  mode: full
  workers: 4
game:
  rounds: 50
  temptation: 5
  reward: 3
  punishment: 1
  sucker: 0
strategy:
  seed: mixed
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.Evolution.PopulationSize)
	assert.Equal(t, 40, cfg.Evolution.Generations)
	assert.Equal(t, "full", cfg.Evolution.Mode)
	assert.Equal(t, 4, cfg.Evolution.Workers)
	assert.Equal(t, 50, cfg.Game.Rounds)
	assert.Equal(t, game.Payoff{T: 5, R: 3, P: 1, S: 0}, cfg.Payoff())
	assert.Equal(t, "mixed", cfg.Strategy.Seed)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Unset keys keep their defaults.
	assert.Equal(t, 0.2, cfg.Strategy.MutationScale)
	assert.Equal(t, 0.1, cfg.Evolution.SelectionNoise)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("evolution: [unclosed"), 0o644))
	_, err := LoadFromFile(path)
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("IPDEVO_EVOLUTION_POPULATION_SIZE", "30")
	t.Setenv("IPDEVO_EVOLUTION_MODE", "full")
	t.Setenv("IPDEVO_EVOLUTION_SEED", "77")
	t.Setenv("IPDEVO_GAME_ROUNDS", "20")
	t.Setenv("IPDEVO_STRATEGY_MUTATION_SCALE", "0.5")
	t.Setenv("IPDEVO_LOG_LEVEL", "warn")
	t.Setenv("IPDEVO_METRICS_TEXTFILE_PATH", "/tmp/ipdevo.prom")

	cfg := Default()
	require.NoError(t, ApplyEnv(cfg))

	assert.Equal(t, 30, cfg.Evolution.PopulationSize)
	assert.Equal(t, "full", cfg.Evolution.Mode)
	assert.Equal(t, int64(77), cfg.Evolution.Seed)
	assert.Equal(t, 20, cfg.Game.Rounds)
	assert.Equal(t, 0.5, cfg.Strategy.MutationScale)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "/tmp/ipdevo.prom", cfg.Metrics.TextfilePath)
	// Unset variables leave values alone.
	assert.Equal(t, 1000, cfg.Evolution.Generations)
}

func TestApplyEnvInvalidValue(t *testing.T) {
	t.Setenv("IPDEVO_EVOLUTION_GENERATIONS", "many")
	require.Error(t, ApplyEnv(Default()))
}

func TestLoadLayersFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ipdevo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("evolution:\n  generations: 5\n  population_size: 8\n"), 0o644))
	t.Setenv("IPDEVO_EVOLUTION_GENERATIONS", "9")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Evolution.Generations)
	assert.Equal(t, 8, cfg.Evolution.PopulationSize)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Evolution.Generations)
	assert.Equal(t, 100, cfg.Evolution.PopulationSize)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"population":  func(c *Config) { c.Evolution.PopulationSize = 1 },
		"generations": func(c *Config) { c.Evolution.Generations = 0 },
		"noise":       func(c *Config) { c.Evolution.SelectionNoise = -0.1 },
		"workers":     func(c *Config) { c.Evolution.Workers = 0 },
		"rounds":      func(c *Config) { c.Game.Rounds = 0 },
		"mutation":    func(c *Config) { c.Strategy.MutationScale = -1 },
		"seed kind":   func(c *Config) { c.Strategy.Seed = "neural" },
		"store":       func(c *Config) { c.Storage.Kind = "postgres" },
		"log level":   func(c *Config) { c.Logging.Level = "trace" },
		"log format":  func(c *Config) { c.Logging.Format = "xml" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateUnknownModeAndPayoff(t *testing.T) {
	cfg := Default()
	cfg.Evolution.Mode = "unknown"
	cfg.Game.Temptation = 0.9
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, evo.ErrUnsupportedMode))
	assert.True(t, errors.Is(err, game.ErrInvalidPayoff))
}
