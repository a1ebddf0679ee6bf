package bughouse

import (
	"fmt"
	"strings"
)

// Counts is a per-kind count indexed by PieceKind. Only hand kinds are used.
type Counts [King + 1]int

// Get returns the count for kind.
func (c Counts) Get(k PieceKind) int { return c[k] }

// Total sums every hand kind.
func (c Counts) Total() int {
	n := 0
	for _, k := range HandKinds {
		n += c[k]
	}
	return n
}

// HandLedger tracks, per side, the authoritative hand reported by the server and
// a signed speculative offset. The displayed hand is hand + offset; the offset is
// negative while a predrop is queued and returns to zero on reconcile or cancel.
type HandLedger struct {
	hand   [2]Counts
	offset [2]Counts
}

// Reset clears hand and offset for side.
func (l *HandLedger) Reset(side Side) {
	l.hand[side] = Counts{}
	l.offset[side] = Counts{}
}

// Set replaces the authoritative hand for side. Offsets are kept.
func (l *HandLedger) Set(side Side, c Counts) { l.hand[side] = c }

// SetString parses a server hand string such as "PNNq". Letter case is ignored;
// "" and "-" mean an empty hand.
func (l *HandLedger) SetString(side Side, pieces string) error {
	c, err := ParseCounts(pieces)
	if err != nil {
		return err
	}
	l.hand[side] = c
	return nil
}

// ParseCounts parses a hand string into counts.
func ParseCounts(pieces string) (Counts, error) {
	var c Counts
	pieces = strings.TrimSpace(pieces)
	if pieces == "-" {
		return c, nil
	}
	for i := 0; i < len(pieces); i++ {
		k, ok := KindFromLetter(pieces[i])
		if !ok || k == King {
			return Counts{}, fmt.Errorf("%w: hand %q", ErrMalformedUpdate, pieces)
		}
		c[k]++
	}
	return c, nil
}

// Hand returns the authoritative counts for side.
func (l *HandLedger) Hand(side Side) Counts { return l.hand[side] }

// Offset returns the speculative offsets for side.
func (l *HandLedger) Offset(side Side) Counts { return l.offset[side] }

// Count is the authoritative count of one kind.
func (l *HandLedger) Count(side Side, k PieceKind) int { return l.hand[side][k] }

// Displayed returns hand + offset for every kind. Values may be negative.
func (l *HandLedger) Displayed(side Side) Counts {
	var out Counts
	for _, k := range HandKinds {
		out[k] = l.hand[side][k] + l.offset[side][k]
	}
	return out
}

func (l *HandLedger) AddOffset(side Side, k PieceKind)      { l.offset[side][k]++ }
func (l *HandLedger) SubtractOffset(side Side, k PieceKind) { l.offset[side][k]-- }

// SubtractHand decrements the authoritative count. Server updates overwrite it.
func (l *HandLedger) SubtractHand(side Side, k PieceKind) { l.hand[side][k]-- }

// ResetOffsets zeroes both sides' offsets.
func (l *HandLedger) ResetOffsets() {
	l.offset[White] = Counts{}
	l.offset[Black] = Counts{}
}

// OffsetsZero reports whether no speculative offset is outstanding.
func (l *HandLedger) OffsetsZero() bool {
	return l.offset[White] == Counts{} && l.offset[Black] == Counts{}
}

// Format renders counts the way the server sends them, white letters upper-case.
func (c Counts) Format(side Side) string {
	var b strings.Builder
	for _, k := range HandKinds {
		p := Piece{Side: side, Kind: k}
		for i := 0; i < c[k]; i++ {
			b.WriteByte(p.Letter())
		}
	}
	return b.String()
}
