package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hpchess/engine"
	"hpchess/oracle"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Addr             string   `json:"addr"`
	AllowedOrigins   []string `json:"allowed_origins"`
	Difficulty       int      `json:"difficulty"`
	EngineColor      string   `json:"engine_color"`
	ThinkDelayMs     int      `json:"think_delay_ms"`
	RandomMoveChance float64  `json:"random_move_chance"`
	LogLevel         string   `json:"log_level"`
	Development      bool     `json:"development"`
}

func DefaultConfig() Config {
	return Config{
		Addr:           ":3000",
		AllowedOrigins: []string{"http://localhost:5173"},
		Difficulty:     int(engine.Medium),

		// The engine plays black against a human white by default.
		EngineColor: "black",

		ThinkDelayMs:     500,
		RandomMoveChance: engine.DefaultRandomMoveChance,
		LogLevel:         "info",
		Development:      false,
	}
}

// Load reads a JSON config file over the defaults. Fields missing from the
// file keep their default value. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if !engine.Difficulty(c.Difficulty).Valid() {
		return fmt.Errorf("%w: difficulty %d not in 1..3", ErrInvalidConfig, c.Difficulty)
	}
	if _, err := oracle.ParseColor(c.EngineColor); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.ThinkDelayMs < 0 {
		return fmt.Errorf("%w: negative think_delay_ms", ErrInvalidConfig)
	}
	if c.RandomMoveChance < 0 || c.RandomMoveChance > 1 {
		return fmt.Errorf("%w: random_move_chance %v not in [0, 1]", ErrInvalidConfig, c.RandomMoveChance)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) ThinkDelay() time.Duration {
	return time.Duration(c.ThinkDelayMs) * time.Millisecond
}

func (c Config) EngineSide() oracle.Color {
	color, err := oracle.ParseColor(c.EngineColor)
	if err != nil {
		return oracle.Black
	}
	return color
}

// NewLogger builds the process logger: console encoding in development,
// JSON otherwise.
func (c Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	zc := zap.NewProductionConfig()
	if c.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// Store guards a Config shared between request handlers.
type Store struct {
	mu     sync.RWMutex
	config Config
}

func NewStore(cfg Config) *Store {
	return &Store{config: cfg}
}

func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.config
	cfg.AllowedOrigins = append([]string(nil), s.config.AllowedOrigins...)
	return cfg
}

func (s *Store) Update(fn func(*Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.config
	fn(&next)
	if err := next.Validate(); err != nil {
		return err
	}
	s.config = next
	return nil
}
