package bughouse

import (
	"fmt"
	"strings"
)

// Side is a player color.
type Side uint8

const (
	White Side = iota
	Black
)

func (s Side) Flip() Side {
	if s == White {
		return Black
	}
	return White
}

func (s Side) String() string {
	if s == White {
		return "white"
	}
	return "black"
}

// ParseSide accepts "w", "white", "b", "black" (case-insensitive).
func ParseSide(v string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "w", "white":
		return White, nil
	case "b", "black":
		return Black, nil
	}
	return White, fmt.Errorf("%w: side %q", ErrMalformedUpdate, v)
}

// PieceKind is a piece type without color. NoKind marks an empty square
// or an absent promotion.
type PieceKind uint8

const (
	NoKind PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// HandKinds lists the kinds that can sit in a hand, in display order.
var HandKinds = [...]PieceKind{Pawn, Knight, Bishop, Rook, Queen}

const kindLetters = " pnbrqk"

// Letter returns the lower-case letter for the kind.
func (k PieceKind) Letter() byte {
	if k > King {
		return ' '
	}
	return kindLetters[k]
}

func (k PieceKind) String() string {
	switch k {
	case Pawn:
		return "pawn"
	case Knight:
		return "knight"
	case Bishop:
		return "bishop"
	case Rook:
		return "rook"
	case Queen:
		return "queen"
	case King:
		return "king"
	}
	return "none"
}

// KindFromLetter maps a piece letter of either case to its kind.
func KindFromLetter(c byte) (PieceKind, bool) {
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	i := strings.IndexByte(kindLetters, c)
	if i <= 0 {
		return NoKind, false
	}
	return PieceKind(i), true
}

// Piece is a colored piece. The zero value is an empty square.
type Piece struct {
	Side Side
	Kind PieceKind
}

var NoPiece = Piece{}

func (p Piece) Empty() bool { return p.Kind == NoKind }

// Letter returns the FEN letter: upper-case for white, lower-case for black.
func (p Piece) Letter() byte {
	c := p.Kind.Letter()
	if p.Side == White && c != ' ' {
		c -= 'a' - 'A'
	}
	return c
}

// PieceFromLetter maps a FEN letter to a piece, using case for color.
func PieceFromLetter(c byte) (Piece, bool) {
	k, ok := KindFromLetter(c)
	if !ok {
		return NoPiece, false
	}
	side := Black
	if c >= 'A' && c <= 'Z' {
		side = White
	}
	return Piece{Side: side, Kind: k}, true
}

// Square indexes the board from a1 = 0 to h8 = 63.
type Square int8

const NoSquare Square = -1

func NewSquare(file, rank int) Square { return Square(rank*8 + file) }

func (s Square) File() int   { return int(s) & 7 }
func (s Square) Rank() int   { return int(s) >> 3 }
func (s Square) Valid() bool { return s >= 0 && s < 64 }

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// ParseSquare parses algebraic coordinates such as "e4".
func ParseSquare(v string) (Square, error) {
	if len(v) != 2 {
		return NoSquare, fmt.Errorf("%w: square %q", ErrMalformedMove, v)
	}
	f := v[0] | 0x20
	r := v[1]
	if f < 'a' || f > 'h' || r < '1' || r > '8' {
		return NoSquare, fmt.Errorf("%w: square %q", ErrMalformedMove, v)
	}
	return NewSquare(int(f-'a'), int(r-'1')), nil
}

// BackRank reports whether the square is on rank 1 or 8.
func (s Square) BackRank() bool {
	r := s.Rank()
	return r == 0 || r == 7
}
