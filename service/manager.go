package service

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hpchess/engine"
	"hpchess/game"
	"hpchess/oracle"
)

var ErrSessionNotFound = errors.New("game not found")

// CreateOptions are the per-game overrides accepted when a game is created.
// Zero values fall back to the manager defaults.
type CreateOptions struct {
	Difficulty  int    `json:"difficulty"`
	EngineColor string `json:"engineColor"`
	FEN         string `json:"fen"`
}

type Defaults struct {
	Difficulty       engine.Difficulty
	EngineColor      oracle.Color
	RandomMoveChance float64
}

// Manager owns every running game, keyed by a uuid.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
	defaults Defaults
	log      *zap.Logger
}

func NewManager(defaults Defaults, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*game.Session),
		defaults: defaults,
		log:      log,
	}
}

func (m *Manager) Create(opts CreateOptions) (string, *game.Session, error) {
	difficulty := m.defaults.Difficulty
	if opts.Difficulty != 0 {
		difficulty = engine.Difficulty(opts.Difficulty)
	}
	color := m.defaults.EngineColor
	if opts.EngineColor != "" {
		c, err := oracle.ParseColor(opts.EngineColor)
		if err != nil {
			return "", nil, err
		}
		color = c
	}

	id := uuid.New().String()
	sessionOpts := []game.Option{
		game.WithDifficulty(difficulty),
		game.WithEngineColor(color),
		game.WithRandomMoveChance(m.defaults.RandomMoveChance),
		game.WithLogger(m.log.With(zap.String("game_id", id))),
	}
	if opts.FEN != "" {
		sessionOpts = append(sessionOpts, game.WithFEN(opts.FEN))
	}
	s, err := game.NewSession(sessionOpts...)
	if err != nil {
		return "", nil, fmt.Errorf("create game: %w", err)
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	m.log.Info("game created", zap.String("game_id", id), zap.Stringer("engine", color), zap.Stringer("difficulty", difficulty))
	return id, s, nil
}

func (m *Manager) Get(id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	m.log.Info("game deleted", zap.String("game_id", id))
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
