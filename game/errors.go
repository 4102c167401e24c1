package game

import (
	"errors"

	"hpchess/combat"
)

var (
	ErrIllegalMove       = errors.New("illegal move")
	ErrNoLegalMoves      = errors.New("no legal moves")
	ErrLedgerDesync      = combat.ErrLedgerDesync
	ErrEngineBusy        = errors.New("engine is thinking")
	ErrGameOver          = errors.New("game is over")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
)
