package oracle

import (
	"github.com/dylhunn/dragontoothmg"
)

// Move describes a legal move in the position it was generated for. Capture
// information is explicit: Captured is NoKind for quiet moves, and
// CapturedSquare differs from To only for en passant.
type Move struct {
	From      Square
	To        Square
	Piece     Kind
	Color     Color
	Promotion Kind

	Captured       Kind
	CapturedSquare Square

	// Castling moves also relocate a rook.
	RookFrom Square
	RookTo   Square

	raw dragontoothmg.Move
}

func (m Move) IsCapture() bool { return m.Captured != NoKind }

func (m Move) IsCastle() bool { return m.RookFrom.Valid() && m.RookFrom != m.RookTo }

func (m Move) IsPromotion() bool { return m.Promotion != NoKind }

// String renders the move in long algebraic notation ("e2e4", "e7e8q").
func (m Move) String() string {
	s := m.From.String() + m.To.String()
	if m.Promotion != NoKind {
		s += string(m.Promotion.Letter())
	}
	return s
}

// ParseMove reads long algebraic notation. Only From, To and Promotion are
// filled; the rest is resolved against a position by Board.Find.
func ParseMove(text string) (Move, error) {
	if len(text) < 4 || len(text) > 5 {
		return Move{}, ErrBadMoveText
	}
	from, err := ParseSquare(text[0:2])
	if err != nil {
		return Move{}, ErrBadMoveText
	}
	to, err := ParseSquare(text[2:4])
	if err != nil {
		return Move{}, ErrBadMoveText
	}
	var promo Kind
	if len(text) == 5 {
		promo, err = ParseKind(text[4:])
		if err != nil || promo == Pawn || promo == King {
			return Move{}, ErrBadMoveText
		}
	}
	return Move{From: from, To: to, Promotion: promo, CapturedSquare: NoSquare, RookFrom: NoSquare, RookTo: NoSquare}, nil
}

// matches reports whether a requested move (from, to, promotion) selects this
// legal move. An unspecified promotion selects the queen.
func (m Move) matches(req Move) bool {
	if m.From != req.From || m.To != req.To {
		return false
	}
	if !m.IsPromotion() {
		return req.Promotion == NoKind
	}
	if req.Promotion == NoKind {
		return m.Promotion == Queen
	}
	return m.Promotion == req.Promotion
}

func kindOf(p dragontoothmg.Piece) Kind {
	switch p {
	case dragontoothmg.Pawn:
		return Pawn
	case dragontoothmg.Knight:
		return Knight
	case dragontoothmg.Bishop:
		return Bishop
	case dragontoothmg.Rook:
		return Rook
	case dragontoothmg.Queen:
		return Queen
	case dragontoothmg.King:
		return King
	}
	return NoKind
}

// kindAt reports which piece kind, if any, occupies sq in one side's bitboards.
func kindAt(sq Square, bitboards *dragontoothmg.Bitboards) (Kind, bool) {
	mask := uint64(1) << sq
	switch {
	case bitboards.Pawns&mask != 0:
		return Pawn, true
	case bitboards.Knights&mask != 0:
		return Knight, true
	case bitboards.Bishops&mask != 0:
		return Bishop, true
	case bitboards.Rooks&mask != 0:
		return Rook, true
	case bitboards.Queens&mask != 0:
		return Queen, true
	case bitboards.Kings&mask != 0:
		return King, true
	}
	return NoKind, false
}

// castleRook returns the rook relocation that accompanies a king move of two files.
func castleRook(from, to Square) (Square, Square) {
	rank := from.Rank()
	if to.File() > from.File() {
		return SquareAt(7, rank), SquareAt(5, rank)
	}
	return SquareAt(0, rank), SquareAt(3, rank)
}
