package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"hpchess/combat"
	"hpchess/engine"
	"hpchess/oracle"
)

// Outcome reports what happened to a submitted move.
type Outcome struct {
	Move     oracle.Move
	ByEngine bool
	// Resolved is false when a capture only drained hit points; the board
	// then shows the position from before the attack with the turn passed.
	Resolved bool
	Pending  *PendingCapture
	State    State
}

// Session owns one game: the rules oracle, the hit point ledger, the pending
// capture record and the engine settings. All mutation goes through its
// methods, which serialise on mu. thinking is raised for the length of an
// engine search so that concurrent submissions fail fast instead of queueing.
type Session struct {
	mu       sync.Mutex
	board    *oracle.Board
	ledger   *combat.Ledger
	searcher *engine.Searcher
	pending  *PendingCapture
	state    State

	startFEN    string
	engineColor oracle.Color
	difficulty  atomic.Int32
	thinking    atomic.Bool
	status      atomic.Pointer[Status]

	log *zap.Logger
}

type Option func(*sessionOptions)

type sessionOptions struct {
	log              *zap.Logger
	difficulty       engine.Difficulty
	engineColor      oracle.Color
	fen              string
	hp               combat.HPTable
	rng              *rand.Rand
	randomMoveChance float64
}

func WithLogger(log *zap.Logger) Option {
	return func(o *sessionOptions) { o.log = log }
}

func WithDifficulty(d engine.Difficulty) Option {
	return func(o *sessionOptions) { o.difficulty = d }
}

func WithEngineColor(c oracle.Color) Option {
	return func(o *sessionOptions) { o.engineColor = c }
}

// WithFEN starts the session (and every NewGame) from fen instead of the
// standard position.
func WithFEN(fen string) Option {
	return func(o *sessionOptions) { o.fen = fen }
}

func WithHPTable(table combat.HPTable) Option {
	return func(o *sessionOptions) { o.hp = table }
}

func WithRand(rng *rand.Rand) Option {
	return func(o *sessionOptions) { o.rng = rng }
}

func WithRandomMoveChance(p float64) Option {
	return func(o *sessionOptions) { o.randomMoveChance = p }
}

func NewSession(opts ...Option) (*Session, error) {
	o := sessionOptions{
		log:              zap.NewNop(),
		difficulty:       engine.Medium,
		engineColor:      oracle.Black,
		fen:              oracle.StartFEN,
		hp:               combat.DefaultHP,
		randomMoveChance: engine.DefaultRandomMoveChance,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.difficulty.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDifficulty, o.difficulty)
	}

	board, err := oracle.FromFEN(o.fen)
	if err != nil {
		return nil, err
	}
	s := &Session{
		board:       board,
		ledger:      combat.NewLedger(o.hp),
		searcher:    engine.NewSearcher(o.rng),
		startFEN:    o.fen,
		engineColor: o.engineColor,
		log:         o.log,
	}
	s.searcher.RandomMoveChance = o.randomMoveChance
	s.searcher.RootFilter = s.playable
	s.difficulty.Store(int32(o.difficulty))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) EngineColor() oracle.Color { return s.engineColor }

func (s *Session) Difficulty() engine.Difficulty {
	return engine.Difficulty(s.difficulty.Load())
}

// SetDifficulty changes the search depth used by the next EngineMove. A search
// already running keeps the depth it started with.
func (s *Session) SetDifficulty(d engine.Difficulty) error {
	if !d.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidDifficulty, d)
	}
	s.difficulty.Store(int32(d))
	s.log.Info("difficulty changed", zap.Stringer("difficulty", d))
	return nil
}

// Status returns the last published status. It never waits for a search.
func (s *Session) Status() Status {
	st := *s.status.Load()
	st.Thinking = s.thinking.Load()
	st.Difficulty = int(s.Difficulty())
	return st
}

// HP returns the current hit points on sq, 0 for an empty square.
func (s *Session) HP(sq oracle.Square) int {
	return s.Status().HPAt(sq)
}

// LegalMoves lists the moves starting on from that SubmitMove would accept.
func (s *Session) LegalMoves(from oracle.Square) ([]oracle.Move, error) {
	if s.thinking.Load() {
		return nil, ErrEngineBusy
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateGameOver {
		return nil, nil
	}
	var moves []oracle.Move
	for _, m := range s.board.LegalMovesFrom(from) {
		if s.playable(m) {
			moves = append(moves, m)
		}
	}
	return moves, nil
}

// SubmitMove plays a player's move. An ErrIllegalMove leaves the game as it
// was; the caller should revert any optimistic display of the move.
func (s *Session) SubmitMove(from, to oracle.Square, promotion oracle.Kind) (Outcome, error) {
	if s.thinking.Load() {
		return Outcome{}, ErrEngineBusy
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.play(oracle.Move{From: from, To: to, Promotion: promotion}, false)
}

// EngineMove searches for the side to move and plays the result. The search
// cannot be interrupted once started; ctx is only checked before it begins.
func (s *Session) EngineMove(ctx context.Context) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	if !s.thinking.CompareAndSwap(false, true) {
		return Outcome{}, ErrEngineBusy
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		s.thinking.Store(false)
		s.publish()
	}()

	if s.state == StateGameOver {
		return Outcome{}, ErrGameOver
	}
	depth := s.Difficulty().Depth()
	move, ok := s.searcher.FindBestMove(s.board, depth)
	s.log.Debug("search finished",
		zap.Int("depth", depth),
		zap.Int("nodes", s.searcher.Nodes),
		zap.Bool("found", ok),
	)
	if !ok {
		if s.gameOver() {
			s.state = StateGameOver
			s.log.Info("game over", zap.String("fen", s.board.FEN()))
		}
		return Outcome{}, ErrNoLegalMoves
	}
	return s.play(move, true)
}

// Undo takes back two plies (one per side), or one when only one exists, and
// rebuilds the ledger from the resulting position. Hit point damage inflicted
// in earlier plies is not recoverable and resets to full.
func (s *Session) Undo() error {
	if s.thinking.Load() {
		return ErrEngineBusy
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	steps := min(2, s.board.Plies())
	for i := 0; i < steps; i++ {
		s.board.Undo()
	}
	s.log.Info("undo", zap.Int("plies", steps), zap.String("fen", s.board.FEN()))
	return s.rebuild()
}

// NewGame restarts from the session's starting position.
func (s *Session) NewGame() error {
	return s.NewGameFromFEN(s.startFEN)
}

// NewGameFromFEN restarts from fen, which also becomes the position later
// NewGame calls return to.
func (s *Session) NewGameFromFEN(fen string) error {
	if s.thinking.Load() {
		return ErrEngineBusy
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.board.Reset(fen); err != nil {
		return err
	}
	s.startFEN = fen
	s.log.Info("new game", zap.String("fen", fen))
	return s.rebuild()
}

// playable rejects an attack that would leave its target standing while the
// attacker's king is in check: the attacker stays home, so the check would
// remain on the board with the turn passed.
func (s *Session) playable(m oracle.Move) bool {
	return !s.board.InCheck() || s.ledger.Resolves(m)
}

// stranded reports a side in check whose only evasions are attacks that would
// leave the checking piece standing. It has no playable move and loses as if
// mated.
func (s *Session) stranded() bool {
	if !s.board.InCheck() {
		return false
	}
	moves := s.board.LegalMoves()
	if len(moves) == 0 {
		return false
	}
	for _, m := range moves {
		if s.ledger.Resolves(m) {
			return false
		}
	}
	return true
}

// mated covers both a checkmate on the board and a stranded side.
func (s *Session) mated() bool {
	return s.board.IsCheckmate() || s.stranded()
}

func (s *Session) gameOver() bool {
	return s.board.IsGameOver() || s.stranded()
}

// play runs one move through the oracle and the ledger. Callers hold mu.
func (s *Session) play(req oracle.Move, byEngine bool) (Outcome, error) {
	if s.state == StateGameOver {
		return Outcome{}, ErrGameOver
	}
	move, err := s.board.Find(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	if !s.playable(move) {
		return Outcome{}, fmt.Errorf("%w: %s does not finish the %s and the king is in check", ErrIllegalMove, move, move.Captured)
	}
	if _, err := s.board.Apply(move); err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}

	resolved := s.ledger.Settle(move)
	s.pending = nil
	s.state = StateAwaitingMove
	if !resolved {
		// The attack stays off the canonical board: take it back and pass the turn.
		s.board.Undo()
		if err := s.board.PassTurn(); err != nil {
			s.log.Error("pass after unresolved capture failed", zap.Error(err))
			return Outcome{}, s.desync(err)
		}
		s.pending = &PendingCapture{
			Target:   move.CapturedSquare,
			Attacker: move.From,
			Kind:     move.Captured,
			Color:    move.Color.Other(),
		}
		s.state = StatePendingCapture
	}
	if s.gameOver() {
		s.state = StateGameOver
	}

	if err := s.ledger.Verify(s.board.Squares()); err != nil {
		s.log.Error("ledger desync", zap.Error(err))
		return Outcome{}, s.desync(err)
	}

	s.log.Info("move",
		zap.String("move", move.String()),
		zap.Stringer("color", move.Color),
		zap.Bool("engine", byEngine),
		zap.Bool("capture", move.IsCapture()),
		zap.Bool("resolved", resolved),
		zap.Stringer("state", s.state),
	)
	s.publish()

	out := Outcome{Move: move, ByEngine: byEngine, Resolved: resolved, State: s.state}
	if s.pending != nil {
		p := *s.pending
		out.Pending = &p
	}
	return out, nil
}

// desync rebuilds the ledger from the oracle and reports the original fault.
func (s *Session) desync(cause error) error {
	if err := s.rebuild(); err != nil {
		return errors.Join(cause, err)
	}
	if errors.Is(cause, ErrLedgerDesync) {
		return cause
	}
	return fmt.Errorf("%w: %v", ErrLedgerDesync, cause)
}

// rebuild resets the pending capture and state and reseeds the ledger from the
// oracle. Callers hold mu.
func (s *Session) rebuild() error {
	s.pending = nil
	err := s.ledger.InitializeFromPosition(s.board.Snapshot())
	s.state = StateAwaitingMove
	if s.gameOver() {
		s.state = StateGameOver
	}
	s.publish()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerDesync, err)
	}
	return nil
}

// publish stores a fresh status. Callers hold mu.
func (s *Session) publish() {
	toMove := s.board.SideToMove()
	mated := s.mated()
	st := &Status{
		Turn:        toMove.String(),
		State:       s.state,
		InCheck:     s.board.InCheck(),
		Checkmate:   mated,
		Stalemate:   s.board.IsStalemate(),
		Draw:        s.board.IsDraw(),
		GameOver:    mated || s.board.IsGameOver(),
		Thinking:    s.thinking.Load(),
		Difficulty:  int(s.Difficulty()),
		EngineColor: s.engineColor.String(),
		Plies:       s.board.Plies(),
		FEN:         s.board.FEN(),
		HP:          make(map[string]int, s.ledger.Len()),
	}
	if m, ok := s.board.LastMove(); ok {
		st.LastMove = m.String()
	}
	for _, sq := range s.ledger.Squares() {
		st.HP[sq.String()] = s.ledger.HP(sq)
	}
	if p := s.pending; p != nil {
		st.Pending = &PendingView{
			Target:   p.Target.String(),
			Attacker: p.Attacker.String(),
			Piece:    p.Kind.String(),
			Color:    p.Color.String(),
			HP:       s.ledger.HP(p.Target),
		}
	}
	st.Description = describe(st, toMove)
	s.status.Store(st)
}
