// Package config loads ipdevo settings from YAML files and IPDEVO_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"ipdevo/internal/evo"
	"ipdevo/internal/game"
	"ipdevo/internal/logging"
	"ipdevo/internal/storage"
	"ipdevo/internal/strategy"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "IPDEVO_"

type Config struct {
	Evolution EvolutionConfig `json:"evolution" yaml:"evolution" envPrefix:"EVOLUTION_"`
	Game      GameConfig      `json:"game" yaml:"game" envPrefix:"GAME_"`
	Strategy  StrategyConfig  `json:"strategy" yaml:"strategy" envPrefix:"STRATEGY_"`
	Storage   StorageConfig   `json:"storage" yaml:"storage" envPrefix:"STORAGE_"`
	Artifacts ArtifactsConfig `json:"artifacts" yaml:"artifacts" envPrefix:"ARTIFACTS_"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging" envPrefix:"LOG_"`
	Metrics   MetricsConfig   `json:"metrics" yaml:"metrics" envPrefix:"METRICS_"`
}

type EvolutionConfig struct {
	PopulationSize int    `json:"population_size" yaml:"population_size" env:"POPULATION_SIZE"`
	Generations    int    `json:"generations" yaml:"generations" env:"GENERATIONS"`
	Mode           string `json:"mode" yaml:"mode" env:"MODE"`
	// SelectionNoise is the standard deviation of the Gaussian noise added to
	// fitness before median selection.
	SelectionNoise float64 `json:"selection_noise" yaml:"selection_noise" env:"SELECTION_NOISE"`
	Workers        int     `json:"workers" yaml:"workers" env:"WORKERS"`
	Seed           int64   `json:"seed" yaml:"seed" env:"SEED"`
}

type GameConfig struct {
	Rounds     int     `json:"rounds" yaml:"rounds" env:"ROUNDS"`
	Temptation float64 `json:"temptation" yaml:"temptation" env:"TEMPTATION"`
	Reward     float64 `json:"reward" yaml:"reward" env:"REWARD"`
	Punishment float64 `json:"punishment" yaml:"punishment" env:"PUNISHMENT"`
	Sucker     float64 `json:"sucker" yaml:"sucker" env:"SUCKER"`
}

type StrategyConfig struct {
	// Seed names the initial population kind: linear, cooperate, defect,
	// tit-for-tat or mixed.
	Seed          string  `json:"seed" yaml:"seed" env:"SEED"`
	MutationScale float64 `json:"mutation_scale" yaml:"mutation_scale" env:"MUTATION_SCALE"`
}

type StorageConfig struct {
	Kind   string `json:"kind" yaml:"kind" env:"KIND"`
	DBPath string `json:"db_path" yaml:"db_path" env:"DB_PATH"`
}

type ArtifactsConfig struct {
	BenchmarksDir string `json:"benchmarks_dir" yaml:"benchmarks_dir" env:"BENCHMARKS_DIR"`
	ExportsDir    string `json:"exports_dir" yaml:"exports_dir" env:"EXPORTS_DIR"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" env:"LEVEL"`
	Format string `json:"format" yaml:"format" env:"FORMAT"`
}

type MetricsConfig struct {
	// TextfilePath, when set, receives the run metrics in node-exporter
	// textfile format after each run.
	TextfilePath string `json:"textfile_path" yaml:"textfile_path" env:"TEXTFILE_PATH"`
}

// Default returns the settings of the classic experiment: 100 linear players
// paired random-dual for 1000 generations.
func Default() *Config {
	payoff := game.StandardPayoff()
	return &Config{
		Evolution: EvolutionConfig{
			PopulationSize: 100,
			Generations:    1000,
			Mode:           string(evo.ModeRandomDual),
			SelectionNoise: evo.DefaultSelectionNoise,
			Workers:        1,
			Seed:           1,
		},
		Game: GameConfig{
			Rounds:     game.DefaultRounds,
			Temptation: payoff.T,
			Reward:     payoff.R,
			Punishment: payoff.P,
			Sucker:     payoff.S,
		},
		Strategy: StrategyConfig{
			Seed:          strategy.SeedLinear,
			MutationScale: strategy.DefaultMutationScale,
		},
		Storage: StorageConfig{
			Kind:   storage.DefaultStoreKind(),
			DBPath: "ipdevo.db",
		},
		Artifacts: ArtifactsConfig{
			BenchmarksDir: "benchmarks",
			ExportsDir:    "exports",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Payoff returns the payoff matrix described by the game section.
func (c *Config) Payoff() game.Payoff {
	return game.Payoff{T: c.Game.Temptation, R: c.Game.Reward, P: c.Game.Punishment, S: c.Game.Sucker}
}

// Load builds a configuration from defaults, the optional YAML file at path,
// then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with any IPDEVO_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks that the configuration describes a runnable experiment.
func (c *Config) Validate() error {
	var errs []error
	if c.Evolution.PopulationSize < 2 {
		errs = append(errs, fmt.Errorf("population_size must be >= 2, got %d", c.Evolution.PopulationSize))
	}
	if c.Evolution.Generations < 1 {
		errs = append(errs, fmt.Errorf("generations must be >= 1, got %d", c.Evolution.Generations))
	}
	if _, err := evo.ParsePairingMode(c.Evolution.Mode); err != nil {
		errs = append(errs, err)
	}
	if c.Evolution.SelectionNoise < 0 {
		errs = append(errs, fmt.Errorf("selection_noise must be non-negative, got %f", c.Evolution.SelectionNoise))
	}
	if c.Evolution.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be >= 1, got %d", c.Evolution.Workers))
	}
	if c.Game.Rounds < 1 {
		errs = append(errs, fmt.Errorf("rounds must be >= 1, got %d", c.Game.Rounds))
	}
	if err := c.Payoff().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Strategy.MutationScale < 0 {
		errs = append(errs, fmt.Errorf("mutation_scale must be non-negative, got %f", c.Strategy.MutationScale))
	}
	if !validSeedKind(c.Strategy.Seed) {
		errs = append(errs, fmt.Errorf("invalid seed kind: %s (valid: %v)", c.Strategy.Seed, strategy.SeedKinds()))
	}
	switch c.Storage.Kind {
	case "", storage.KindMemory, storage.KindSQLite:
	default:
		errs = append(errs, fmt.Errorf("invalid store: %s (valid: memory, sqlite)", c.Storage.Kind))
	}
	if !logging.ValidLevel(c.Logging.Level) {
		errs = append(errs, fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format: %s (valid: text, json)", c.Logging.Format))
	}
	return errors.Join(errs...)
}

func validSeedKind(kind string) bool {
	for _, k := range strategy.SeedKinds() {
		if k == kind {
			return true
		}
	}
	return false
}
