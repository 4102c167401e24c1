package game

import (
	"fmt"
	"strings"

	"hpchess/oracle"
)

type State int

const (
	StateAwaitingMove State = iota
	StatePendingCapture
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateAwaitingMove:
		return "awaiting_move"
	case StatePendingCapture:
		return "pending_capture"
	case StateGameOver:
		return "game_over"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{StateAwaitingMove, StatePendingCapture, StateGameOver} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown game state %q", text)
}

// PendingCapture records an attack that drained hit points without removing
// the target. Attacker is the square the attacking piece moved from.
type PendingCapture struct {
	Target   oracle.Square
	Attacker oracle.Square
	Kind     oracle.Kind
	Color    oracle.Color
}

// PendingView is the display form of a pending capture.
type PendingView struct {
	Target   string `json:"target"`
	Attacker string `json:"attacker"`
	Piece    string `json:"piece"`
	Color    string `json:"color"`
	HP       int    `json:"hp"`
}

// Status is the outward status surface of a session. Published values are
// never modified; callers get their own copy.
type Status struct {
	Turn        string         `json:"turn"`
	State       State          `json:"state"`
	InCheck     bool           `json:"inCheck"`
	Checkmate   bool           `json:"checkmate"`
	Stalemate   bool           `json:"stalemate"`
	Draw        bool           `json:"draw"`
	GameOver    bool           `json:"gameOver"`
	Thinking    bool           `json:"thinking"`
	Difficulty  int            `json:"difficulty"`
	EngineColor string         `json:"engineColor"`
	Plies       int            `json:"plies"`
	FEN         string         `json:"fen"`
	LastMove    string         `json:"lastMove,omitempty"`
	Pending     *PendingView   `json:"pending,omitempty"`
	HP          map[string]int `json:"hp"`
	Description string         `json:"description"`
}

// HPAt reads the published hit points of a square.
func (st Status) HPAt(sq oracle.Square) int {
	return st.HP[sq.String()]
}

func colorName(c oracle.Color) string {
	name := c.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// describe renders the one-line status text shown to players.
func describe(st *Status, toMove oracle.Color) string {
	switch {
	case st.Checkmate:
		return fmt.Sprintf("Game over, %s is in checkmate.", colorName(toMove))
	case st.Draw:
		return "Game over, drawn position."
	case st.Pending != nil:
		return fmt.Sprintf("%s attacking %s (HP: %d)", colorName(toMove.Other()), st.Pending.Piece, st.Pending.HP)
	case st.InCheck:
		return fmt.Sprintf("%s to move, %s is in check.", colorName(toMove), colorName(toMove))
	}
	return fmt.Sprintf("%s to move", colorName(toMove))
}
