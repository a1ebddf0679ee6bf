package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/dylhunn/dragontoothmg"

	"github.com/park285/debughouse/internal/bughouse"
)

var ErrInvalidFEN = errors.New("invalid fen")

// Engine implements bughouse.Rules. FEN handling, full legality confirmation and SAN
// go through corentings/chess; move enumeration, check probes and slider rays
// through dragontoothmg.
type Engine struct{}

func New() *Engine { return &Engine{} }

var _ bughouse.Rules = (*Engine)(nil)

// NormalizeFEN strips crazyhouse holdings ("[Qn]" or a ninth rank segment) and
// promoted-piece markers, and pads missing trailing fields.
func NormalizeFEN(fen string) (string, error) {
	fields := strings.Fields(strings.TrimSpace(fen))
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: empty", ErrInvalidFEN)
	}
	board := fields[0]
	if i := strings.IndexByte(board, '['); i >= 0 {
		board = board[:i]
	}
	if ranks := strings.Split(board, "/"); len(ranks) == 9 {
		board = strings.Join(ranks[:8], "/")
	}
	board = strings.ReplaceAll(board, "~", "")
	if strings.Count(board, "/") != 7 {
		return "", fmt.Errorf("%w: %q", ErrInvalidFEN, fen)
	}
	defaults := []string{board, "w", "-", "-", "0", "1"}
	for i := 1; i < len(fields) && i < len(defaults); i++ {
		defaults[i] = fields[i]
	}
	return strings.Join(defaults, " "), nil
}

func (e *Engine) ParseFEN(fen string) (bughouse.Position, error) {
	norm, err := NormalizeFEN(fen)
	if err != nil {
		return bughouse.Position{}, err
	}
	opt, err := nchess.FEN(norm)
	if err != nil {
		return bughouse.Position{}, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	game := nchess.NewGame(opt)
	pos := game.Position()
	board := pos.Board()

	p := bughouse.EmptyPosition()
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			pc := board.Piece(nchess.NewSquare(nchess.File(f), nchess.Rank(r)))
			if pc == nchess.NoPiece {
				continue
			}
			p.Put(bughouse.NewSquare(f, r), fromLibPiece(pc))
		}
	}
	if pos.Turn() == nchess.Black {
		p.Turn = bughouse.Black
	}

	fields := strings.Fields(norm)
	for _, c := range fields[2] {
		switch c {
		case 'K':
			p.Castling |= bughouse.CastleWhiteKing
		case 'Q':
			p.Castling |= bughouse.CastleWhiteQueen
		case 'k':
			p.Castling |= bughouse.CastleBlackKing
		case 'q':
			p.Castling |= bughouse.CastleBlackQueen
		}
	}
	if fields[3] != "-" {
		sq, err := bughouse.ParseSquare(fields[3])
		if err != nil {
			return bughouse.Position{}, fmt.Errorf("%w: en passant %q", ErrInvalidFEN, fields[3])
		}
		p.EnPassant = sq
	}
	if n, err := strconv.Atoi(fields[4]); err == nil {
		p.HalfMove = n
	}
	if n, err := strconv.Atoi(fields[5]); err == nil && n > 0 {
		p.FullMove = n
	}
	return p, nil
}

func (e *Engine) FEN(p bughouse.Position) string {
	m := make(map[nchess.Square]nchess.Piece)
	for i, pc := range p.Board {
		if pc.Empty() {
			continue
		}
		sq := bughouse.Square(i)
		m[nchess.NewSquare(nchess.File(sq.File()), nchess.Rank(sq.Rank()))] = toLibPiece(pc)
	}
	board := nchess.NewBoard(m).String()

	turn := "w"
	if p.Turn == bughouse.Black {
		turn = "b"
	}
	var castle strings.Builder
	if p.Castling.Has(bughouse.White, true) {
		castle.WriteByte('K')
	}
	if p.Castling.Has(bughouse.White, false) {
		castle.WriteByte('Q')
	}
	if p.Castling.Has(bughouse.Black, true) {
		castle.WriteByte('k')
	}
	if p.Castling.Has(bughouse.Black, false) {
		castle.WriteByte('q')
	}
	cr := castle.String()
	if cr == "" {
		cr = "-"
	}
	full := p.FullMove
	if full < 1 {
		full = 1
	}
	return fmt.Sprintf("%s %s %s %s %d %d", board, turn, cr, p.EnPassant, p.HalfMove, full)
}

// LegalMoves returns nothing when either king is missing.
func (e *Engine) LegalMoves(p bughouse.Position) []bughouse.Move {
	if !hasKings(p) {
		return nil
	}
	b := dragontoothmg.ParseFen(e.FEN(p))
	gen := b.GenerateLegalMoves()
	out := make([]bughouse.Move, 0, len(gen))
	for _, mv := range gen {
		out = append(out, bughouse.NormalMove(
			bughouse.Square(mv.From()),
			bughouse.Square(mv.To()),
			fromToothPiece(mv.Promote()),
		))
	}
	return out
}

func (e *Engine) ConfirmLegal(p bughouse.Position, m bughouse.Move) bool {
	if m.Drop {
		return false
	}
	opt, err := nchess.FEN(e.FEN(p))
	if err != nil {
		return false
	}
	game := nchess.NewGame(opt)
	return game.PushNotationMove(m.Wire(), nchess.UCINotation{}, nil) == nil
}

// InCheck reports whether side's king is attacked. A side without a king is never in check.
func (e *Engine) InCheck(p bughouse.Position, side bughouse.Side) bool {
	if p.KingSquare(side) == bughouse.NoSquare {
		return false
	}
	p.Turn = side
	p.EnPassant = bughouse.NoSquare
	p.Castling = 0
	b := dragontoothmg.ParseFen(e.FEN(p))
	return b.OurKingInCheck()
}

func (e *Engine) Attacks(kind bughouse.PieceKind, side bughouse.Side, from bughouse.Square, occupied uint64) uint64 {
	if !from.Valid() {
		return 0
	}
	sq := uint8(from)
	switch kind {
	case bughouse.Pawn:
		return pawnAttacks[side][sq]
	case bughouse.Knight:
		return knightAttacks[sq]
	case bughouse.King:
		return kingAttacks[sq]
	case bughouse.Bishop:
		return dragontoothmg.CalculateBishopMoveBitboard(sq, occupied)
	case bughouse.Rook:
		return dragontoothmg.CalculateRookMoveBitboard(sq, occupied)
	case bughouse.Queen:
		return dragontoothmg.CalculateBishopMoveBitboard(sq, occupied) |
			dragontoothmg.CalculateRookMoveBitboard(sq, occupied)
	}
	return 0
}

func (e *Engine) PawnPushes(side bughouse.Side, from bughouse.Square) uint64 {
	if !from.Valid() {
		return 0
	}
	return pawnPushes[side][from]
}

// SAN renders m in standard algebraic notation. Drops keep their "N@e4" form.
func (e *Engine) SAN(p bughouse.Position, m bughouse.Move) (string, error) {
	if m.Drop {
		return m.String(), nil
	}
	opt, err := nchess.FEN(e.FEN(p))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	pos := nchess.NewGame(opt).Position()
	mv, err := nchess.UCINotation{}.Decode(pos, m.Wire())
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", m, err)
	}
	return nchess.AlgebraicNotation{}.Encode(pos, mv), nil
}

func hasKings(p bughouse.Position) bool {
	return p.KingSquare(bughouse.White) != bughouse.NoSquare && p.KingSquare(bughouse.Black) != bughouse.NoSquare
}
