package bughouse

import (
	"fmt"
	"strings"
)

// Move is either a board move (From/To, optional Promotion) or a drop
// (Drop set, Piece placed on To).
type Move struct {
	Drop      bool
	Piece     PieceKind
	From      Square
	To        Square
	Promotion PieceKind
}

// NormalMove builds a board move.
func NormalMove(from, to Square, promo PieceKind) Move {
	return Move{From: from, To: to, Promotion: promo}
}

// DropMove builds a drop.
func DropMove(kind PieceKind, to Square) Move {
	return Move{Drop: true, Piece: kind, From: NoSquare, To: to}
}

// ParseMove parses "e2e4", "e7e8q" or "N@e4". Letters are case-insensitive.
func ParseMove(tok string) (Move, error) {
	tok = strings.TrimSpace(tok)
	if len(tok) == 4 && tok[1] == '@' {
		k, ok := KindFromLetter(tok[0])
		if !ok || k == King {
			return Move{}, fmt.Errorf("%w: %q", ErrMalformedMove, tok)
		}
		to, err := ParseSquare(tok[2:])
		if err != nil {
			return Move{}, err
		}
		return DropMove(k, to), nil
	}
	if len(tok) != 4 && len(tok) != 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrMalformedMove, tok)
	}
	from, err := ParseSquare(tok[0:2])
	if err != nil {
		return Move{}, err
	}
	to, err := ParseSquare(tok[2:4])
	if err != nil {
		return Move{}, err
	}
	m := NormalMove(from, to, NoKind)
	if len(tok) == 5 {
		k, ok := KindFromLetter(tok[4])
		if !ok || k == Pawn || k == King {
			return Move{}, fmt.Errorf("%w: promotion in %q", ErrMalformedMove, tok)
		}
		m.Promotion = k
	}
	return m, nil
}

// MustParseMove is ParseMove for literals; it panics on error.
func MustParseMove(tok string) Move {
	m, err := ParseMove(tok)
	if err != nil {
		panic(err)
	}
	return m
}

// String returns the canonical token: "e2e4", "e7e8q", "N@e4".
func (m Move) String() string {
	if m.Drop {
		c := m.Piece.Letter() - ('a' - 'A')
		return string(c) + "@" + m.To.String()
	}
	s := m.From.String() + m.To.String()
	if m.Promotion != NoKind {
		s += string(m.Promotion.Letter())
	}
	return s
}

// Wire is the lower-case form sent to the server.
func (m Move) Wire() string { return strings.ToLower(m.String()) }

// Squares returns the squares a highlight should cover.
func (m Move) Squares() []Square {
	if m.Drop {
		return []Square{m.To}
	}
	return []Square{m.From, m.To}
}
