package rules

import (
	nchess "github.com/corentings/chess/v2"
	"github.com/dylhunn/dragontoothmg"

	"github.com/park285/debughouse/internal/bughouse"
)

var libPieces = [2][bughouse.King + 1]nchess.Piece{
	{nchess.NoPiece, nchess.WhitePawn, nchess.WhiteKnight, nchess.WhiteBishop, nchess.WhiteRook, nchess.WhiteQueen, nchess.WhiteKing},
	{nchess.NoPiece, nchess.BlackPawn, nchess.BlackKnight, nchess.BlackBishop, nchess.BlackRook, nchess.BlackQueen, nchess.BlackKing},
}

func toLibPiece(p bughouse.Piece) nchess.Piece {
	return libPieces[p.Side][p.Kind]
}

func fromLibPiece(pc nchess.Piece) bughouse.Piece {
	side := bughouse.White
	if pc.Color() == nchess.Black {
		side = bughouse.Black
	}
	var kind bughouse.PieceKind
	switch pc.Type() {
	case nchess.Pawn:
		kind = bughouse.Pawn
	case nchess.Knight:
		kind = bughouse.Knight
	case nchess.Bishop:
		kind = bughouse.Bishop
	case nchess.Rook:
		kind = bughouse.Rook
	case nchess.Queen:
		kind = bughouse.Queen
	case nchess.King:
		kind = bughouse.King
	}
	return bughouse.Piece{Side: side, Kind: kind}
}

func fromToothPiece(p dragontoothmg.Piece) bughouse.PieceKind {
	switch p {
	case dragontoothmg.Knight:
		return bughouse.Knight
	case dragontoothmg.Bishop:
		return bughouse.Bishop
	case dragontoothmg.Rook:
		return bughouse.Rook
	case dragontoothmg.Queen:
		return bughouse.Queen
	}
	return bughouse.NoKind
}
