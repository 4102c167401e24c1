package oracle

import (
	"math/bits"
)

const (
	lightSquares uint64 = 0x55aa55aa55aa55aa
	darkSquares  uint64 = ^lightSquares
)

func (b *Board) InCheck() bool { return b.pos.OurKingInCheck() }

func (b *Board) hasLegalMoves() bool { return len(b.pos.GenerateLegalMoves()) > 0 }

// IsCheckmate reports whether the side to move is checkmated.
func (b *Board) IsCheckmate() bool {
	return b.InCheck() && !b.hasLegalMoves()
}

// IsStalemate reports whether the side to move has no legal move and is not in check.
func (b *Board) IsStalemate() bool {
	return !b.InCheck() && !b.hasLegalMoves()
}

// IsFiftyMoveDraw reports a 50-move rule draw (the clock counts half-moves).
func (b *Board) IsFiftyMoveDraw() bool {
	return b.pos.Halfmoveclock >= 100
}

// IsThreefoldRepetition counts occurrences of the current position's hash in
// the history, the current position included.
func (b *Board) IsThreefoldRepetition() bool {
	target := b.pos.Hash()
	matches := 0
	for _, h := range b.hashes {
		if h == target {
			matches++
			if matches >= 3 {
				return true
			}
		}
	}
	return false
}

// IsInsufficientMaterial covers king versus king, a single minor piece, and
// any number of bishops that all stand on squares of one color.
func (b *Board) IsInsufficientMaterial() bool {
	w, k := &b.pos.White, &b.pos.Black
	if w.Pawns|k.Pawns|w.Rooks|k.Rooks|w.Queens|k.Queens != 0 {
		return false
	}
	knights := w.Knights | k.Knights
	bishops := w.Bishops | k.Bishops
	minors := bits.OnesCount64(knights | bishops)
	if minors <= 1 {
		return true
	}
	if knights != 0 {
		return false
	}
	return bishops&lightSquares == 0 || bishops&darkSquares == 0
}

// IsDraw covers stalemate, the 50-move rule, insufficient material and
// threefold repetition.
func (b *Board) IsDraw() bool {
	return b.IsFiftyMoveDraw() || b.IsInsufficientMaterial() || b.IsThreefoldRepetition() || b.IsStalemate()
}

func (b *Board) IsGameOver() bool {
	return !b.hasLegalMoves() || b.IsFiftyMoveDraw() || b.IsInsufficientMaterial() || b.IsThreefoldRepetition()
}
