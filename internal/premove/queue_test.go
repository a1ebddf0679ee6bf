package premove

import (
	"strings"
	"testing"

	"github.com/park285/debughouse/internal/bughouse"
	"github.com/park285/debughouse/internal/rules"
)

func TestReconcileStopsAtBlockingPredrop(t *testing.T) {
	r := rules.New()
	g := bughouse.NewGameState(r)
	if err := g.LoadFEN("4k3/8/8/8/8/4n3/4P3/4K3 w - - 0 1"); err != nil {
		t.Fatalf("LoadFEN: %v", err)
	}
	var q Queue
	q.Push(bughouse.MustParseMove("e2e4"), false)
	q.Push(bughouse.MustParseMove("N@d4"), true)
	q.Push(bughouse.MustParseMove("e1f1"), false)

	out, err := q.Reconcile(g, bughouse.NewClassifier(r), bughouse.White)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if out.Executed {
		t.Fatalf("nothing should execute behind a blocking predrop")
	}
	if len(out.Discarded) != 1 || out.Discarded[0].Move.String() != "e2e4" {
		t.Fatalf("discarded = %+v", out.Discarded)
	}
	if len(out.Replayed) != 2 || q.Len() != 2 || !q.Predrops()[0] {
		t.Fatalf("replayed=%d queue=%+v", len(out.Replayed), q.Entries())
	}
	if g.Position.Turn != bughouse.White {
		t.Fatalf("replays must restore the side to move")
	}
}

func TestReconcileNoopWhenQueueEmpty(t *testing.T) {
	r := rules.New()
	g := bughouse.NewGameState(r)
	before := g.Position
	var q Queue
	out, err := q.Reconcile(g, bughouse.NewClassifier(r), bughouse.White)
	if err != nil || out.Executed || len(out.Replayed) != 0 || g.Position != before {
		t.Fatalf("unexpected outcome %+v err=%v", out, err)
	}
}

func TestReconcileReleasesDiscardedDropOffset(t *testing.T) {
	r := rules.New()
	g := bughouse.NewGameState(r)
	if err := g.LoadFEN("4k3/8/8/8/8/8/8/4K3 w - - 0 1"); err != nil {
		t.Fatalf("LoadFEN: %v", err)
	}
	g.Hands.Set(bughouse.White, bughouse.Counts{bughouse.Knight: 1})
	var q Queue
	// queued while the knight was in hand, offset reserved
	g.Hands.SubtractOffset(bughouse.White, bughouse.Knight)
	q.Push(bughouse.MustParseMove("N@e8"), false)
	q.Push(bughouse.MustParseMove("e1d1"), false)

	out, err := q.Reconcile(g, bughouse.NewClassifier(r), bughouse.White)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !out.Executed || out.Move.String() != "e1d1" {
		t.Fatalf("outcome = %+v", out)
	}
	if got := g.Hands.Displayed(bughouse.White).Get(bughouse.Knight); got != 1 {
		t.Fatalf("displayed knights = %d, want 1", got)
	}
}

func TestReconcileLaterPredropSupersedesHead(t *testing.T) {
	r := rules.New()
	g := bughouse.NewGameState(r)
	if err := g.LoadFEN("rnbqkbnr/pppp1ppp/8/4p3/8/5N2/PPPPPPPP/RNBQKB1R w KQkq e6 0 2"); err != nil {
		t.Fatalf("LoadFEN: %v", err)
	}
	// both predrops reserved an offset when queued; only the knight has arrived
	g.Hands.SubtractOffset(bughouse.White, bughouse.Bishop)
	g.Hands.SubtractOffset(bughouse.White, bughouse.Knight)
	g.Hands.Set(bughouse.White, bughouse.Counts{bughouse.Knight: 1})

	var q Queue
	q.Push(bughouse.MustParseMove("B@c4"), true)
	q.Push(bughouse.MustParseMove("d2d4"), false)
	q.Push(bughouse.MustParseMove("N@e4"), true)
	q.Push(bughouse.MustParseMove("g2g3"), false)

	out, err := q.Reconcile(g, bughouse.NewClassifier(r), bughouse.White)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !out.Executed || out.Move.String() != "N@e4" {
		t.Fatalf("outcome = %+v", out)
	}
	if len(out.Discarded) != 2 || out.Discarded[0].Move.String() != "B@c4" || out.Discarded[1].Move.String() != "d2d4" {
		t.Fatalf("discarded = %+v", out.Discarded)
	}
	if e := q.Entries(); len(e) != 1 || e[0].Move.String() != "g2g3" || e[0].Predrop {
		t.Fatalf("queue = %+v", e)
	}
	if !strings.Contains(out.FEN, " b ") || !strings.Contains(out.FEN, "/4N3/") || !strings.Contains(out.FEN, "/PPPPPPPP/") {
		t.Fatalf("FEN should be taken after the drop and before the replay: %q", out.FEN)
	}

	hand, off, shown := g.Hands.Hand(bughouse.White), g.Hands.Offset(bughouse.White), g.Hands.Displayed(bughouse.White)
	for _, k := range bughouse.HandKinds {
		if off.Get(k) != 0 {
			t.Fatalf("offset %v = %d, want 0", k, off.Get(k))
		}
		if shown.Get(k) != hand.Get(k)+off.Get(k) {
			t.Fatalf("displayed %v = %d, hand %d offset %d", k, shown.Get(k), hand.Get(k), off.Get(k))
		}
	}
	if hand.Get(bughouse.Knight) != 0 {
		t.Fatalf("knight still in hand after the drop")
	}
}
