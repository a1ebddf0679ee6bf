package bughouse

// Classifier decides whether a move is legal now, plausible as a premove, or a predrop.
type Classifier struct {
	rules Rules
}

func NewClassifier(r Rules) *Classifier { return &Classifier{rules: r} }

// IsLegal checks m for the side to move in g.
func (c *Classifier) IsLegal(g *GameState, m Move) bool {
	p := g.Position
	side := p.Turn
	if m.Drop {
		if g.Hands.Count(side, m.Piece) <= 0 {
			return false
		}
		if !p.At(m.To).Empty() {
			return false
		}
		if m.Piece == Pawn && m.To.BackRank() {
			return false
		}
		p.Put(m.To, Piece{Side: side, Kind: m.Piece})
		return !c.rules.InCheck(p, side)
	}
	tok := m.String()
	for _, lm := range c.rules.LegalMoves(p) {
		if lm.String() == tok {
			return c.rules.ConfirmLegal(p, m)
		}
	}
	return false
}

// IsValidPremove checks whether m could become legal for side later, ignoring
// blockers and whose turn it is. Drops only reject pawns on the back ranks.
func (c *Classifier) IsValidPremove(g *GameState, m Move, side Side) bool {
	if m.Drop {
		return m.To.Valid() && !(m.Piece == Pawn && m.To.BackRank())
	}
	if !m.From.Valid() || !m.To.Valid() || m.From == m.To {
		return false
	}
	p := &g.Position
	pc := p.At(m.From)
	if pc.Empty() || pc.Side != side {
		return false
	}
	if m.Promotion != NoKind && (pc.Kind != Pawn || !m.To.BackRank()) {
		return false
	}
	if pc.Kind == King && isCastlePattern(m, side) {
		return p.Castling.Has(side, m.To.File() == 6)
	}
	var reach uint64
	switch pc.Kind {
	case Pawn:
		reach = c.rules.Attacks(Pawn, side, m.From, 0) | c.rules.PawnPushes(side, m.From)
	case Knight, King:
		reach = c.rules.Attacks(pc.Kind, side, m.From, ^uint64(0))
	default:
		reach = c.rules.Attacks(pc.Kind, side, m.From, 0)
	}
	return reach&(1<<uint(m.To)) != 0
}

// IsPredrop reports whether m drops a piece side does not hold yet.
func (c *Classifier) IsPredrop(g *GameState, m Move, side Side) bool {
	return m.Drop && g.Hands.Count(side, m.Piece) <= 0
}

func isCastlePattern(m Move, side Side) bool {
	rank := 0
	if side == Black {
		rank = 7
	}
	if m.From != NewSquare(4, rank) || m.To.Rank() != rank {
		return false
	}
	return m.To.File() == 6 || m.To.File() == 2
}
