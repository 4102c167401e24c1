package oracle

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/dylhunn/dragontoothmg"
)

const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrBadFEN      = errors.New("invalid FEN")
	ErrBadMoveText = errors.New("invalid move text")
	ErrCannotPass  = errors.New("side to move is in check and cannot pass")
)

// ply is one entry of the undo stack. Regular moves keep the closure returned
// by dragontoothmg; passes keep a full copy of the previous position.
type ply struct {
	move    Move
	pass    bool
	unapply func()
	prev    dragontoothmg.Board
}

// Board is the rules oracle: a dragontoothmg position plus the move history
// needed for undo and repetition detection.
type Board struct {
	pos     dragontoothmg.Board
	history []ply
	hashes  []uint64
}

// New returns a board at the standard starting position.
func New() *Board {
	b, err := FromFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return b
}

func FromFEN(fen string) (*Board, error) {
	b := &Board{}
	if err := b.Reset(fen); err != nil {
		return nil, err
	}
	return b, nil
}

// Reset discards the history and loads fen.
func (b *Board) Reset(fen string) error {
	pos, err := parseFEN(fen)
	if err != nil {
		return err
	}
	b.pos = pos
	b.history = b.history[:0]
	b.hashes = append(b.hashes[:0], pos.Hash())
	return nil
}

// Position returns a copy of the underlying dragontoothmg board.
func (b *Board) Position() dragontoothmg.Board { return b.pos }

func (b *Board) Hash() uint64 { return b.pos.Hash() }

func (b *Board) FEN() string { return b.pos.ToFen() }

func (b *Board) SideToMove() Color {
	if b.pos.Wtomove {
		return White
	}
	return Black
}

// Plies returns the number of entries on the undo stack, passes included.
func (b *Board) Plies() int { return len(b.history) }

// LastMove returns the most recent move; ok is false when the stack is empty
// or the last entry is a pass.
func (b *Board) LastMove() (Move, bool) {
	if len(b.history) == 0 {
		return Move{}, false
	}
	last := b.history[len(b.history)-1]
	return last.move, !last.pass
}

func (b *Board) sides() (own, opp *dragontoothmg.Bitboards) {
	if b.pos.Wtomove {
		return &b.pos.White, &b.pos.Black
	}
	return &b.pos.Black, &b.pos.White
}

// describe converts a generated move into a Move for the current position.
func (b *Board) describe(raw dragontoothmg.Move) Move {
	own, opp := b.sides()
	from, to := Square(raw.From()), Square(raw.To())
	piece, _ := kindAt(from, own)

	m := Move{
		From:           from,
		To:             to,
		Piece:          piece,
		Color:          b.SideToMove(),
		Promotion:      kindOf(raw.Promote()),
		CapturedSquare: NoSquare,
		RookFrom:       NoSquare,
		RookTo:         NoSquare,
		raw:            raw,
	}
	if victim, ok := kindAt(to, opp); ok {
		m.Captured, m.CapturedSquare = victim, to
	} else if piece == Pawn && from.File() != to.File() {
		m.Captured, m.CapturedSquare = Pawn, SquareAt(to.File(), from.Rank())
	}
	if piece == King && (from.File()-to.File() == 2 || to.File()-from.File() == 2) {
		m.RookFrom, m.RookTo = castleRook(from, to)
	}
	return m
}

func (b *Board) LegalMoves() []Move {
	raw := b.pos.GenerateLegalMoves()
	moves := make([]Move, 0, len(raw))
	for _, m := range raw {
		moves = append(moves, b.describe(m))
	}
	return moves
}

// LegalMovesFrom filters the legal moves to those starting on from.
func (b *Board) LegalMovesFrom(from Square) []Move {
	var moves []Move
	for _, m := range b.pos.GenerateLegalMoves() {
		if Square(m.From()) == from {
			moves = append(moves, b.describe(m))
		}
	}
	return moves
}

// Find resolves a requested move (from, to, promotion) against the legal moves
// of the current position without applying it.
func (b *Board) Find(req Move) (Move, error) {
	for _, raw := range b.pos.GenerateLegalMoves() {
		if Square(raw.From()) != req.From || Square(raw.To()) != req.To {
			continue
		}
		if m := b.describe(raw); m.matches(req) {
			return m, nil
		}
	}
	return Move{}, fmt.Errorf("%w: %s", ErrIllegalMove, req)
}

// Apply plays req if it is legal and returns the full description of the
// move that was played.
func (b *Board) Apply(req Move) (Move, error) {
	m, err := b.Find(req)
	if err != nil {
		return Move{}, err
	}
	b.push(m)
	return m, nil
}

// Push plays a move previously returned by LegalMoves for the current position
// without re-validating it, and returns the matching undo. Undos must run in
// the reverse order of their pushes.
func (b *Board) Push(m Move) func() {
	b.push(m)
	depth := len(b.history)
	return func() {
		if len(b.history) != depth {
			panic("oracle: undo out of order")
		}
		b.Undo()
	}
}

func (b *Board) push(m Move) {
	unapply := b.pos.Apply(m.raw)
	b.history = append(b.history, ply{move: m, unapply: unapply})
	b.hashes = append(b.hashes, b.pos.Hash())
}

// Undo takes back the last ply. It returns false when there is nothing to undo.
func (b *Board) Undo() bool {
	n := len(b.history)
	if n == 0 {
		return false
	}
	last := b.history[n-1]
	b.history = b.history[:n-1]
	b.hashes = b.hashes[:len(b.hashes)-1]
	if last.pass {
		b.pos = last.prev
	} else {
		last.unapply()
	}
	return true
}

// PassTurn hands the move to the opponent without moving a piece. The en
// passant square is cleared and the move counters advance as for a quiet move.
// Passing while in check is refused.
func (b *Board) PassTurn() error {
	if b.pos.OurKingInCheck() {
		return ErrCannotPass
	}
	fields := strings.Fields(b.pos.ToFen())
	for len(fields) < 6 {
		fields = append(fields, "0")
	}
	halfmove, _ := strconv.Atoi(fields[4])
	fullmove, _ := strconv.Atoi(fields[5])
	if fullmove < 1 {
		fullmove = 1
	}
	if b.pos.Wtomove {
		fields[1] = "b"
	} else {
		fields[1] = "w"
		fullmove++
	}
	fields[3] = "-"
	fields[4] = strconv.Itoa(halfmove + 1)
	fields[5] = strconv.Itoa(fullmove)

	next, err := parseFEN(strings.Join(fields, " "))
	if err != nil {
		return err
	}
	prev := b.pos
	b.pos = next
	b.history = append(b.history, ply{pass: true, prev: prev})
	b.hashes = append(b.hashes, b.pos.Hash())
	return nil
}

// Squares builds the piece-per-square view of the position.
func (b *Board) Squares() Squares {
	var out Squares
	fillSquares(&out, &b.pos.White, White)
	fillSquares(&out, &b.pos.Black, Black)
	return out
}

func (b *Board) Snapshot() Snapshot {
	return Snapshot{Board: b.Squares(), FEN: b.FEN(), ToMove: b.SideToMove()}
}

func fillSquares(out *Squares, bb *dragontoothmg.Bitboards, c Color) {
	sets := [...]struct {
		bits uint64
		kind Kind
	}{
		{bb.Pawns, Pawn}, {bb.Knights, Knight}, {bb.Bishops, Bishop},
		{bb.Rooks, Rook}, {bb.Queens, Queen}, {bb.Kings, King},
	}
	for _, set := range sets {
		for x := set.bits; x != 0; x &= x - 1 {
			out[bits.TrailingZeros64(x)] = Piece{Kind: set.kind, Color: c}
		}
	}
}

// parseFEN validates the placement and side fields before handing the string to
// dragontoothmg, which does not report errors of its own.
func parseFEN(fen string) (pos dragontoothmg.Board, err error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 || len(fields) > 6 {
		return pos, fmt.Errorf("%w: expected 4 to 6 fields, got %d", ErrBadFEN, len(fields))
	}
	if fields[1] != "w" && fields[1] != "b" {
		return pos, fmt.Errorf("%w: side to move %q", ErrBadFEN, fields[1])
	}
	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return pos, fmt.Errorf("%w: expected 8 ranks, got %d", ErrBadFEN, len(ranks))
	}
	kings := map[rune]int{}
	for i, rank := range ranks {
		width := 0
		for _, r := range rank {
			switch {
			case r >= '1' && r <= '8':
				width += int(r - '0')
			case strings.ContainsRune("pnbrqkPNBRQK", r):
				width++
				if r == 'k' || r == 'K' {
					kings[r]++
				}
			default:
				return pos, fmt.Errorf("%w: unexpected %q in rank %d", ErrBadFEN, r, 8-i)
			}
		}
		if width != 8 {
			return pos, fmt.Errorf("%w: rank %d has %d squares", ErrBadFEN, 8-i, width)
		}
	}
	if kings['K'] != 1 || kings['k'] != 1 {
		return pos, fmt.Errorf("%w: each side needs exactly one king", ErrBadFEN)
	}
	if len(fields) == 4 {
		fields = append(fields, "0", "1")
	} else if len(fields) == 5 {
		fields = append(fields, "1")
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrBadFEN, r)
		}
	}()
	return dragontoothmg.ParseFen(strings.Join(fields, " ")), nil
}
