package bughouse

import "fmt"

// MoveType selects how DoMove touches the hand ledger and the side to move.
type MoveType uint8

const (
	// Normal is a confirmed legal move: hand -1 on a drop, turn passes.
	Normal MoveType = iota
	// Premove is a speculative move queued by the user: offset -1 on a drop, turn restored.
	Premove
	// ExecutedPremove is a queued move committed during reconcile: hand -1 and
	// offset +1 on a drop, turn passes.
	ExecutedPremove
	// ReplayedPremove re-projects a still-queued move: no ledger change, turn restored.
	ReplayedPremove
)

func (t MoveType) String() string {
	switch t {
	case Normal:
		return "normal"
	case Premove:
		return "premove"
	case ExecutedPremove:
		return "executed_premove"
	case ReplayedPremove:
		return "replayed_premove"
	}
	return "unknown"
}

// GameState is one board's position plus both hands.
type GameState struct {
	Position Position
	Hands    HandLedger

	rules Rules
}

func NewGameState(r Rules) *GameState {
	g := &GameState{rules: r}
	g.Reset()
	return g
}

// Rules returns the geometry collaborator the state was built with.
func (g *GameState) Rules() Rules { return g.rules }

// Reset restores the standard start position and empties both hands.
func (g *GameState) Reset() {
	g.Position = StartPosition()
	g.Hands.Reset(White)
	g.Hands.Reset(Black)
}

// LoadFEN replaces the position. Hands are untouched.
func (g *GameState) LoadFEN(fen string) error {
	p, err := g.rules.ParseFEN(fen)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedUpdate, err)
	}
	g.Position = p
	return nil
}

// FEN serializes the current position.
func (g *GameState) FEN() string { return g.rules.FEN(g.Position) }

// DoMove applies m on behalf of acting. On error nothing is mutated.
func (g *GameState) DoMove(m Move, t MoveType, acting Side) error {
	original := g.Position.Turn
	if m.Drop {
		if !m.To.Valid() || m.Piece == NoKind || m.Piece == King {
			return fmt.Errorf("%w: %s", ErrMalformedMove, m)
		}
		switch t {
		case Normal:
			g.Hands.SubtractHand(acting, m.Piece)
		case Premove:
			g.Hands.SubtractOffset(acting, m.Piece)
		case ExecutedPremove:
			g.Hands.SubtractHand(acting, m.Piece)
			g.Hands.AddOffset(acting, m.Piece)
		}
		g.Position.Board[m.To] = Piece{Side: acting, Kind: m.Piece}
		g.Position.EnPassant = NoSquare
		g.Position.HalfMove = 0
	} else {
		next := g.Position
		if err := next.applyBoardMove(m, acting); err != nil {
			return fmt.Errorf("%s %s: %w", t, m, err)
		}
		g.Position = next
	}

	switch t {
	case Normal, ExecutedPremove:
		g.Position.Turn = acting.Flip()
		if acting == Black {
			g.Position.FullMove++
		}
	default:
		g.Position.Turn = original
	}
	return nil
}

var startRank = [8]PieceKind{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// StartPosition returns the standard initial array.
func StartPosition() Position {
	p := EmptyPosition()
	for f := 0; f < 8; f++ {
		p.Board[NewSquare(f, 0)] = Piece{Side: White, Kind: startRank[f]}
		p.Board[NewSquare(f, 1)] = Piece{Side: White, Kind: Pawn}
		p.Board[NewSquare(f, 6)] = Piece{Side: Black, Kind: Pawn}
		p.Board[NewSquare(f, 7)] = Piece{Side: Black, Kind: startRank[f]}
	}
	p.Castling = CastleWhiteKing | CastleWhiteQueen | CastleBlackKing | CastleBlackQueen
	return p
}
