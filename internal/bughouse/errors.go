package bughouse

import "errors"

var (
	// ErrMalformedMove is returned for a token that is not a board move or a drop.
	ErrMalformedMove = errors.New("malformed move token")
	// ErrMalformedUpdate is returned for an authoritative FEN or hand string that does not parse.
	ErrMalformedUpdate = errors.New("malformed authoritative update")
	// ErrInconsistentMove is returned when a move cannot be applied to the current position,
	// e.g. a replayed premove whose source square no longer holds the mover's piece.
	ErrInconsistentMove = errors.New("move inconsistent with position")
)
