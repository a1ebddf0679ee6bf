package premove

import (
	"fmt"

	"github.com/park285/debughouse/internal/bughouse"
)

// Entry is one queued speculative move. Predrop records whether the piece was
// missing from the hand when the move was queued.
type Entry struct {
	Move    bughouse.Move
	Predrop bool
}

// Queue is the FIFO of speculative moves for the user board. Moves and predrop
// flags are stored as pairs so their views always have equal length.
type Queue struct {
	entries []Entry
}

func (q *Queue) Len() int { return len(q.entries) }

func (q *Queue) Push(m bughouse.Move, predrop bool) {
	q.entries = append(q.entries, Entry{Move: m, Predrop: predrop})
}

func (q *Queue) Clear() { q.entries = nil }

// Entries returns a copy of the queue.
func (q *Queue) Entries() []Entry {
	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

func (q *Queue) Moves() []bughouse.Move {
	out := make([]bughouse.Move, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.Move
	}
	return out
}

func (q *Queue) Predrops() []bool {
	out := make([]bool, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.Predrop
	}
	return out
}

// Outcome describes what one reconcile pass did.
type Outcome struct {
	Executed  bool
	Move      bughouse.Move
	FEN       string // position right after Move, before replays; set when Executed
	Discarded []Entry
	Replayed  []bughouse.Move
}

// plan is the decision of a reconcile pass, computed before anything is mutated.
// The first cut entries leave the queue; exec indexes the entry that is
// committed, or -1.
type plan struct {
	exec int
	cut  int
}

func (q *Queue) plan(g *bughouse.GameState, c *bughouse.Classifier, user bughouse.Side) plan {
	if len(q.entries) == 0 || g.Position.Turn != user {
		return plan{exec: -1}
	}
	if q.entries[0].Predrop {
		// a queued predrop blocks everything behind it until some predrop resolves
		for i, e := range q.entries {
			if e.Predrop && c.IsLegal(g, e.Move) {
				return plan{exec: i, cut: i + 1}
			}
		}
		return plan{exec: -1}
	}
	for i, e := range q.entries {
		if c.IsLegal(g, e.Move) {
			return plan{exec: i, cut: i + 1}
		}
		if e.Predrop {
			return plan{exec: -1, cut: i}
		}
	}
	return plan{exec: -1, cut: len(q.entries)}
}

// Reconcile runs against a freshly loaded authoritative position. When it is the
// user's turn it commits the first queued move that became legal and discards
// the stale ones in front of it; then it replays every remaining entry onto g for
// the projected display. Hand offsets reserved by discarded drops are released.
// A replay that no longer fits the position returns an error; the caller is
// expected to cancel the queue.
func (q *Queue) Reconcile(g *bughouse.GameState, c *bughouse.Classifier, user bughouse.Side) (Outcome, error) {
	var out Outcome
	p := q.plan(g, c, user)

	for i := 0; i < p.cut; i++ {
		e := q.entries[i]
		if i == p.exec {
			if err := g.DoMove(e.Move, bughouse.ExecutedPremove, user); err != nil {
				return out, fmt.Errorf("execute premove: %w", err)
			}
			out.Executed = true
			out.Move = e.Move
			continue
		}
		if e.Move.Drop {
			g.Hands.AddOffset(user, e.Move.Piece)
		}
		out.Discarded = append(out.Discarded, e)
	}
	q.entries = q.entries[p.cut:]
	if out.Executed {
		out.FEN = g.FEN()
	}

	for _, e := range q.entries {
		if err := g.DoMove(e.Move, bughouse.ReplayedPremove, user); err != nil {
			return out, fmt.Errorf("replay premove: %w", err)
		}
		out.Replayed = append(out.Replayed, e.Move)
	}
	return out, nil
}
