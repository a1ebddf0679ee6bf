package bughouse

// Rules is the chess geometry the reconciliation engine relies on: FEN
// conversion, move enumeration, check detection, attack patterns and SAN.
type Rules interface {
	ParseFEN(fen string) (Position, error)
	FEN(p Position) string
	// LegalMoves enumerates board moves for the side to move.
	LegalMoves(p Position) []Move
	// ConfirmLegal performs a full legality check of a board move for the side to move.
	ConfirmLegal(p Position, m Move) bool
	InCheck(p Position, side Side) bool
	// Attacks returns the squares a piece of kind on from attacks given occupied.
	Attacks(kind PieceKind, side Side, from Square, occupied uint64) uint64
	// PawnPushes returns single and double push targets on an empty board.
	PawnPushes(side Side, from Square) uint64
	SAN(p Position, m Move) (string, error)
}
