package combat

import (
	"errors"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"hpchess/oracle"
)

var (
	// ErrLedgerDesync means the ledger no longer mirrors the board occupancy.
	// The only remedy is a full InitializeFromPosition.
	ErrLedgerDesync = errors.New("hp ledger out of sync with board")

	ErrCorruptSnapshot = errors.New("snapshot cannot seed the hp ledger")
)

// HPTable holds the maximum hit points per piece kind.
type HPTable [7]int

var DefaultHP = HPTable{
	oracle.Pawn:   1,
	oracle.Knight: 2,
	oracle.Bishop: 2,
	oracle.Rook:   2,
	oracle.Queen:  3,
	oracle.King:   1,
}

type Entry struct {
	Kind  oracle.Kind  `json:"kind"`
	Color oracle.Color `json:"color"`
	HP    int          `json:"hp"`
}

// Ledger maps every occupied square to the hit points of the piece on it.
type Ledger struct {
	table   HPTable
	entries map[oracle.Square]Entry
}

func NewLedger(table HPTable) *Ledger {
	return &Ledger{table: table, entries: make(map[oracle.Square]Entry, 32)}
}

func (l *Ledger) MaxHP(kind oracle.Kind) int {
	if int(kind) >= len(l.table) {
		return 0
	}
	return l.table[kind]
}

// InitializeFromPosition clears the ledger and gives every piece on the
// snapshot full hit points.
func (l *Ledger) InitializeFromPosition(snap oracle.Snapshot) error {
	kings := [2]int{}
	for _, p := range snap.Board {
		if p.Kind == oracle.King {
			kings[p.Color]++
		}
	}
	if snap.FEN == "" || kings[oracle.White] != 1 || kings[oracle.Black] != 1 {
		return fmt.Errorf("%w: %d white and %d black kings", ErrCorruptSnapshot, kings[oracle.White], kings[oracle.Black])
	}

	clear(l.entries)
	for sq, p := range snap.Board {
		if p.Empty() {
			continue
		}
		l.entries[oracle.Square(sq)] = Entry{Kind: p.Kind, Color: p.Color, HP: l.MaxHP(p.Kind)}
	}
	return nil
}

// Settle books a move the oracle has just applied. Quiet moves relocate the
// mover's entry and always resolve. A capture costs the target one hit point;
// it resolves only when the target reaches zero, in which case the target's
// entry is removed and the attacker takes its square. An unresolved capture
// leaves the attacker's entry where it started.
func (l *Ledger) Settle(m oracle.Move) (resolved bool) {
	if !m.IsCapture() {
		l.relocate(m)
		return true
	}

	target, ok := l.entries[m.CapturedSquare]
	if !ok {
		l.relocate(m)
		return true
	}
	target.HP--
	if target.HP > 0 {
		l.entries[m.CapturedSquare] = target
		return false
	}
	delete(l.entries, m.CapturedSquare)
	l.relocate(m)
	return true
}

// Resolves reports, without changing anything, whether Settle would resolve m.
func (l *Ledger) Resolves(m oracle.Move) bool {
	if !m.IsCapture() {
		return true
	}
	target, ok := l.entries[m.CapturedSquare]
	return !ok || target.HP <= 1
}

func (l *Ledger) relocate(m oracle.Move) {
	if e, ok := l.entries[m.From]; ok {
		delete(l.entries, m.From)
		if m.IsPromotion() {
			e.Kind = m.Promotion
			e.HP = min(e.HP, l.MaxHP(e.Kind))
		}
		l.entries[m.To] = e
	}
	if m.IsCastle() {
		if rook, ok := l.entries[m.RookFrom]; ok {
			delete(l.entries, m.RookFrom)
			l.entries[m.RookTo] = rook
		}
	}
}

// HP returns the hit points on sq, 0 when the square is untracked.
func (l *Ledger) HP(sq oracle.Square) int {
	return l.entries[sq].HP
}

func (l *Ledger) Entry(sq oracle.Square) (Entry, bool) {
	e, ok := l.entries[sq]
	return e, ok
}

func (l *Ledger) Len() int { return len(l.entries) }

// Squares lists the tracked squares in ascending order.
func (l *Ledger) Squares() []oracle.Square {
	squares := maps.Keys(l.entries)
	slices.Sort(squares)
	return squares
}

// Entries returns a copy of the ledger contents.
func (l *Ledger) Entries() map[oracle.Square]Entry {
	return maps.Clone(l.entries)
}

// Verify checks that the ledger tracks exactly the occupied squares of board,
// with matching kinds and colors and hit points within [1, max].
func (l *Ledger) Verify(board oracle.Squares) error {
	for sq, p := range board {
		e, ok := l.entries[oracle.Square(sq)]
		switch {
		case p.Empty() && ok:
			return fmt.Errorf("%w: %s tracked but empty", ErrLedgerDesync, oracle.Square(sq))
		case p.Empty():
			continue
		case !ok:
			return fmt.Errorf("%w: %s %s untracked", ErrLedgerDesync, oracle.Square(sq), p.Kind)
		case e.Kind != p.Kind || e.Color != p.Color:
			return fmt.Errorf("%w: %s holds %s %s, ledger says %s %s", ErrLedgerDesync, oracle.Square(sq), p.Color, p.Kind, e.Color, e.Kind)
		case e.HP < 1 || e.HP > l.MaxHP(e.Kind):
			return fmt.Errorf("%w: %s has %d hp", ErrLedgerDesync, oracle.Square(sq), e.HP)
		}
	}
	return nil
}
