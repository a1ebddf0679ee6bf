package bughouse

// Castling is a bitmask of castling rights.
type Castling uint8

const (
	CastleWhiteKing Castling = 1 << iota
	CastleWhiteQueen
	CastleBlackKing
	CastleBlackQueen
)

// Has reports whether side still has the right on the given wing.
func (c Castling) Has(side Side, kingside bool) bool {
	return c&castleBit(side, kingside) != 0
}

func castleBit(side Side, kingside bool) Castling {
	switch {
	case side == White && kingside:
		return CastleWhiteKing
	case side == White:
		return CastleWhiteQueen
	case kingside:
		return CastleBlackKing
	default:
		return CastleBlackQueen
	}
}

// Position is a plain board snapshot. It is a value type; assignment copies it.
type Position struct {
	Board     [64]Piece
	Turn      Side
	Castling  Castling
	EnPassant Square
	HalfMove  int
	FullMove  int
}

// EmptyPosition returns a board with no pieces, white to move.
func EmptyPosition() Position {
	return Position{EnPassant: NoSquare, FullMove: 1}
}

func (p *Position) At(sq Square) Piece { return p.Board[sq] }

func (p *Position) Put(sq Square, pc Piece) { p.Board[sq] = pc }

func (p *Position) Clear(sq Square) { p.Board[sq] = NoPiece }

// Occupied returns a bitboard of all occupied squares.
func (p *Position) Occupied() uint64 {
	var bb uint64
	for i, pc := range p.Board {
		if !pc.Empty() {
			bb |= 1 << uint(i)
		}
	}
	return bb
}

// KingSquare returns the square of side's king, or NoSquare.
func (p *Position) KingSquare(side Side) Square {
	for i, pc := range p.Board {
		if pc.Kind == King && pc.Side == side {
			return Square(i)
		}
	}
	return NoSquare
}

// applyBoardMove moves a piece for acting. It handles castling rook relocation,
// en-passant removal, promotion and castling-right bookkeeping. The source must
// hold one of acting's pieces.
func (p *Position) applyBoardMove(m Move, acting Side) error {
	if !m.From.Valid() || !m.To.Valid() || m.From == m.To {
		return ErrMalformedMove
	}
	pc := p.Board[m.From]
	if pc.Empty() || pc.Side != acting {
		return ErrInconsistentMove
	}
	captured := p.Board[m.To]
	resetClock := pc.Kind == Pawn || !captured.Empty()

	if pc.Kind == Pawn && m.From.File() != m.To.File() && captured.Empty() && m.To == p.EnPassant {
		victim := NewSquare(m.To.File(), m.From.Rank())
		if v := p.Board[victim]; v.Kind == Pawn && v.Side != acting {
			p.Board[victim] = NoPiece
		}
	}
	if pc.Kind == King && abs(m.To.File()-m.From.File()) == 2 {
		rank := m.From.Rank()
		rookFrom, rookTo := NewSquare(7, rank), NewSquare(5, rank)
		if m.To.File() < m.From.File() {
			rookFrom, rookTo = NewSquare(0, rank), NewSquare(3, rank)
		}
		if r := p.Board[rookFrom]; r.Kind == Rook && r.Side == acting {
			p.Board[rookTo] = r
			p.Board[rookFrom] = NoPiece
		}
	}

	p.Board[m.From] = NoPiece
	if m.Promotion != NoKind {
		pc = Piece{Side: acting, Kind: m.Promotion}
	}
	p.Board[m.To] = pc

	if pc.Kind == King {
		p.Castling &^= castleBit(acting, true) | castleBit(acting, false)
	}
	p.Castling &^= rookCornerRight(m.From) | rookCornerRight(m.To)

	p.EnPassant = NoSquare
	if pc.Kind == Pawn && abs(m.To.Rank()-m.From.Rank()) == 2 {
		p.EnPassant = NewSquare(m.From.File(), (m.From.Rank()+m.To.Rank())/2)
	}
	if resetClock {
		p.HalfMove = 0
	} else {
		p.HalfMove++
	}
	return nil
}

func rookCornerRight(sq Square) Castling {
	switch sq {
	case NewSquare(0, 0):
		return CastleWhiteQueen
	case NewSquare(7, 0):
		return CastleWhiteKing
	case NewSquare(0, 7):
		return CastleBlackQueen
	case NewSquare(7, 7):
		return CastleBlackKing
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
