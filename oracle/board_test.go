package oracle

import (
	"errors"
	"testing"
)

func mustMove(t *testing.T, b *Board, text string) Move {
	t.Helper()
	req, err := ParseMove(text)
	if err != nil {
		t.Fatalf("parse move %s: %v", text, err)
	}
	m, err := b.Apply(req)
	if err != nil {
		t.Fatalf("apply %s: %v", text, err)
	}
	return m
}

func TestPerftInitialPosition(t *testing.T) {
	b := New()
	if got := Perft(b, 1); got != 20 {
		t.Fatalf("perft depth1: got %d want %d", got, 20)
	}
	if got := Perft(b, 2); got != 400 {
		t.Fatalf("perft depth2: got %d want %d", got, 400)
	}
	if got := Perft(b, 3); got != 8902 {
		t.Fatalf("perft depth3: got %d want %d", got, 8902)
	}
	if b.Plies() != 0 || b.FEN() != New().FEN() {
		t.Fatalf("perft left the board changed: %s (%d plies)", b.FEN(), b.Plies())
	}
}

func TestPerftKiwipete(t *testing.T) {
	b, err := FromFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("FromFEN failed for Kiwipete position: %v", err)
	}
	if got := Perft(b, 1); got != 48 {
		t.Fatalf("Kiwipete depth1: got %d want %d", got, 48)
	}
	if got := Perft(b, 2); got != 2039 {
		t.Fatalf("Kiwipete depth2: got %d want %d", got, 2039)
	}
}

func TestSquareRoundTrip(t *testing.T) {
	for sq := Square(0); sq < 64; sq++ {
		parsed, err := ParseSquare(sq.String())
		if err != nil || parsed != sq {
			t.Fatalf("square %d: parsed %d err %v", sq, parsed, err)
		}
	}
	if _, err := ParseSquare("i9"); err == nil {
		t.Fatalf("expected error for i9")
	}
}

func TestStartingSnapshot(t *testing.T) {
	snap := New().Snapshot()
	if snap.Board.Count() != 32 {
		t.Fatalf("expected 32 pieces, got %d", snap.Board.Count())
	}
	checks := map[string]Piece{
		"e1": {King, White}, "d8": {Queen, Black}, "a1": {Rook, White},
		"g8": {Knight, Black}, "c1": {Bishop, White}, "h7": {Pawn, Black},
	}
	for coord, want := range checks {
		sq, _ := ParseSquare(coord)
		if got := snap.Board[sq]; got != want {
			t.Fatalf("%s: got %+v want %+v", coord, got, want)
		}
	}
	if snap.ToMove != White || snap.FEN == "" {
		t.Fatalf("unexpected snapshot header: %+v", snap.ToMove)
	}
}

func TestMoveDescriptors(t *testing.T) {
	// White: Ke1 Ra1 Rh1, pawn e5; black pawn d7 just moved to d5.
	b, err := FromFEN("r3k3/8/8/3pP3/8/8/8/R3K2R w KQq d6 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	var ep, castle Move
	for _, m := range b.LegalMoves() {
		switch m.String() {
		case "e5d6":
			ep = m
		case "e1g1":
			castle = m
		}
	}
	if !ep.IsCapture() || ep.Captured != Pawn || ep.CapturedSquare.String() != "d5" {
		t.Fatalf("en passant descriptor wrong: %+v", ep)
	}
	if !castle.IsCastle() || castle.RookFrom.String() != "h1" || castle.RookTo.String() != "f1" {
		t.Fatalf("castle descriptor wrong: %+v", castle)
	}
	capture := mustMove(t, b, "a1a8")
	if capture.Captured != Rook || capture.CapturedSquare.String() != "a8" || capture.Piece != Rook {
		t.Fatalf("rook capture descriptor wrong: %+v", capture)
	}
}

func TestApplyRejectsIllegalMove(t *testing.T) {
	b := New()
	before := b.Position()
	req, _ := ParseMove("e2e5")
	if _, err := b.Apply(req); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if b.Position() != before || b.Plies() != 0 {
		t.Fatalf("illegal move changed the board")
	}
}

func TestUndoRestoresPosition(t *testing.T) {
	b := New()
	start := b.Position()
	mustMove(t, b, "e2e4")
	mustMove(t, b, "d7d5")
	mustMove(t, b, "e4d5")
	if b.Plies() != 3 {
		t.Fatalf("expected 3 plies, got %d", b.Plies())
	}
	for b.Undo() {
	}
	if b.Position() != start {
		t.Fatalf("undo did not restore the start position: %s", b.FEN())
	}
	if b.Undo() {
		t.Fatalf("undo on an empty stack should report false")
	}
}

func TestPromotionDefaultsToQueen(t *testing.T) {
	b, err := FromFEN("8/4P3/8/8/8/8/k7/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	m := mustMove(t, b, "e7e8")
	if m.Promotion != Queen {
		t.Fatalf("expected queen promotion, got %v", m.Promotion)
	}
	b.Undo()
	m = mustMove(t, b, "e7e8n")
	if m.Promotion != Knight {
		t.Fatalf("expected knight promotion, got %v", m.Promotion)
	}
}

func TestPassTurn(t *testing.T) {
	b := New()
	mustMove(t, b, "e2e4")
	before := b.Position()
	if err := b.PassTurn(); err != nil {
		t.Fatalf("PassTurn: %v", err)
	}
	if b.SideToMove() != White {
		t.Fatalf("expected white to move after black passed")
	}
	if b.Plies() != 2 {
		t.Fatalf("pass should occupy a ply, got %d", b.Plies())
	}
	if _, ok := b.LastMove(); ok {
		t.Fatalf("last entry should be a pass")
	}
	b.Undo()
	if b.Position() != before {
		t.Fatalf("undoing a pass did not restore the position")
	}
}

func TestPassTurnRefusedInCheck(t *testing.T) {
	b, err := FromFEN("4k3/8/8/8/8/8/4r3/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	if err := b.PassTurn(); !errors.Is(err, ErrCannotPass) {
		t.Fatalf("expected ErrCannotPass, got %v", err)
	}
}

func TestFromFENRejectsGarbage(t *testing.T) {
	for _, fen := range []string{
		"",
		"8/8/8/8/8/8/8/8 w - - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
	} {
		if _, err := FromFEN(fen); !errors.Is(err, ErrBadFEN) {
			t.Fatalf("expected ErrBadFEN for %q, got %v", fen, err)
		}
	}
}
