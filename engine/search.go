package engine

import (
	"math/rand"

	"hpchess/oracle"
)

// =============================================================================
// SCORE CONSTANTS
// =============================================================================
const (
	MaxScore  int32 = 32500
	Checkmate int32 = 20000
	DrawScore int32 = 0
)

// DefaultRandomMoveChance is how often the easiest tier plays a random move
// instead of searching.
const DefaultRandomMoveChance = 0.3

// Position is the part of the rules oracle the search needs. Push plays a
// generated move and returns its undo.
type Position interface {
	LegalMoves() []oracle.Move
	Push(m oracle.Move) func()
	IsGameOver() bool
	IsDraw() bool
	Squares() oracle.Squares
	SideToMove() oracle.Color
}

// Searcher runs depth-limited minimax with alpha-beta pruning. It keeps no
// state between calls apart from its random source and the node counter of
// the last search.
type Searcher struct {
	RandomMoveChance float64

	// RootFilter, when set, removes root moves the caller cannot play. The
	// tree below the root is not filtered.
	RootFilter func(oracle.Move) bool

	// Nodes is the number of positions visited by the last FindBestMove.
	Nodes int

	rng *rand.Rand
}

func NewSearcher(rng *rand.Rand) *Searcher {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Searcher{RandomMoveChance: DefaultRandomMoveChance, rng: rng}
}

// FindBestMove returns the best move for the side to move, searching depth
// plies. ok is false when there is no legal move. The position is left exactly
// as it was found.
func (s *Searcher) FindBestMove(pos Position, depth int) (best oracle.Move, ok bool) {
	s.Nodes = 0
	moves := s.rootMoves(pos)
	if len(moves) == 0 {
		return oracle.Move{}, false
	}

	if depth <= Easy.Depth() && s.rng.Float64() < Clamp(s.RandomMoveChance, 0, 1) {
		return moves[s.rng.Intn(len(moves))], true
	}
	depth = Max(depth, 1)

	// Leaves are scored for the side to move at the root.
	perspective := int32(1)
	if pos.SideToMove() == oracle.Black {
		perspective = -1
	}

	alpha := -MaxScore
	bestValue := -MaxScore
	for i, m := range orderMoves(moves) {
		value := s.child(pos, m, depth-1, alpha, MaxScore, false, perspective)
		if i == 0 || value > bestValue {
			best, bestValue = m, value
		}
		alpha = Max(alpha, value)
	}
	return best, true
}

func (s *Searcher) rootMoves(pos Position) []oracle.Move {
	moves := pos.LegalMoves()
	if s.RootFilter == nil {
		return moves
	}
	kept := moves[:0]
	for _, m := range moves {
		if s.RootFilter(m) {
			kept = append(kept, m)
		}
	}
	return kept
}

// child plays m, searches the resulting position and takes the move back on
// every exit path.
func (s *Searcher) child(pos Position, m oracle.Move, depth int, alpha, beta int32, maximizing bool, perspective int32) int32 {
	undo := pos.Push(m)
	defer undo()
	return s.minimax(pos, depth, alpha, beta, maximizing, perspective)
}

// minimax returns the value of pos for the root side. maximizing is true when
// the root side is the one to move in pos.
func (s *Searcher) minimax(pos Position, depth int, alpha, beta int32, maximizing bool, perspective int32) int32 {
	s.Nodes++

	if depth == 0 {
		board := pos.Squares()
		return perspective * Evaluate(&board)
	}

	if pos.IsGameOver() {
		if pos.IsDraw() {
			return DrawScore
		}
		// The side to move is mated.
		if maximizing {
			return -Checkmate
		}
		return Checkmate
	}

	moves := orderMoves(pos.LegalMoves())

	if maximizing {
		bestValue := -MaxScore
		for _, m := range moves {
			bestValue = Max(bestValue, s.child(pos, m, depth-1, alpha, beta, false, perspective))
			alpha = Max(alpha, bestValue)
			if beta <= alpha {
				break
			}
		}
		return bestValue
	}

	bestValue := MaxScore
	for _, m := range moves {
		bestValue = Min(bestValue, s.child(pos, m, depth-1, alpha, beta, true, perspective))
		beta = Min(beta, bestValue)
		if beta <= alpha {
			break
		}
	}
	return bestValue
}
