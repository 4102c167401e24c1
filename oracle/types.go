package oracle

import (
	"fmt"
	"strings"
)

// Square indexes the board little-endian: 0 = a1, 7 = h1, 56 = a8, 63 = h8.
// This matches dragontoothmg's own numbering.
type Square uint8

const NoSquare Square = 64

func SquareAt(file, rank int) Square {
	return Square(rank*8 + file)
}

func (s Square) File() int { return int(s % 8) }
func (s Square) Rank() int { return int(s / 8) }

func (s Square) Valid() bool { return s < 64 }

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{'a' + byte(s%8), '1' + byte(s/8)})
}

// ParseSquare reads an algebraic coordinate such as "e4".
func ParseSquare(coord string) (Square, error) {
	coord = strings.ToLower(strings.TrimSpace(coord))
	if len(coord) != 2 || coord[0] < 'a' || coord[0] > 'h' || coord[1] < '1' || coord[1] > '8' {
		return NoSquare, fmt.Errorf("invalid square %q", coord)
	}
	return SquareAt(int(coord[0]-'a'), int(coord[1]-'1')), nil
}

type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// ParseColor accepts "white"/"black" and the FEN letters "w"/"b".
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "white":
		return White, nil
	case "b", "black":
		return Black, nil
	}
	return White, fmt.Errorf("invalid color %q", s)
}

// Kind is the piece type. The numbering follows dragontoothmg (Pawn = 1 ... King = 6)
// so per-kind tables can be indexed directly.
type Kind uint8

const (
	NoKind Kind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var kindNames = [7]string{"none", "pawn", "knight", "bishop", "rook", "queen", "king"}
var kindLetters = [7]byte{'-', 'p', 'n', 'b', 'r', 'q', 'k'}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[k]
}

// Letter is the lowercase FEN letter of the kind.
func (k Kind) Letter() byte {
	if int(k) >= len(kindLetters) {
		return '?'
	}
	return kindLetters[k]
}

// ParseKind accepts a FEN letter (either case) or a full kind name.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return NoKind, nil
	}
	for k := Pawn; k <= King; k++ {
		if s == kindNames[k] || (len(s) == 1 && s[0] == kindLetters[k]) {
			return k, nil
		}
	}
	return NoKind, fmt.Errorf("invalid piece kind %q", s)
}

type Piece struct {
	Kind  Kind
	Color Color
}

func (p Piece) Empty() bool { return p.Kind == NoKind }

// Letter returns the FEN letter: uppercase for White, lowercase for Black, '.' when empty.
func (p Piece) Letter() byte {
	if p.Empty() {
		return '.'
	}
	l := p.Kind.Letter()
	if p.Color == White {
		return l - ('a' - 'A')
	}
	return l
}

// Squares is a full board snapshot indexed by Square.
type Squares [64]Piece

// Count returns the number of occupied squares.
func (b *Squares) Count() int {
	n := 0
	for _, p := range b {
		if !p.Empty() {
			n++
		}
	}
	return n
}

// Snapshot is the exported view of a position: the board and its FEN.
type Snapshot struct {
	Board  Squares
	FEN    string
	ToMove Color
}
