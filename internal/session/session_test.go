package session

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/park285/debughouse/internal/msgcat"
	"github.com/park285/debughouse/internal/premove"
	"github.com/park285/debughouse/internal/rules"
	"github.com/park285/debughouse/pkg/bughousedto"
)

const (
	startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	afterE4  = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
)

type wire struct {
	sent []string
	chat []string
}

func (w *wire) Move(tok string) { w.sent = append(w.sent, "move "+tok) }
func (w *wire) Premove(tok string, predrop bool) {
	w.sent = append(w.sent, fmt.Sprintf("premove %s %t", tok, predrop))
}
func (w *wire) Cancel()         { w.sent = append(w.sent, "cancel") }
func (w *wire) Say(text string) { w.chat = append(w.chat, text) }

type fakeJournal struct {
	id       string
	side     string
	events   []string
	finished int
}

func (j *fakeJournal) StartGame(userSide string) string {
	j.id, j.side = "game-1", userSide
	return j.id
}

func (j *fakeJournal) Record(board int, kind, payload string) {
	if j.id == "" {
		return
	}
	j.events = append(j.events, fmt.Sprintf("%d:%s:%s", board, kind, payload))
}

func (j *fakeJournal) FinishGame() {
	j.id = ""
	j.finished++
}

func (j *fakeJournal) GameID() string { return j.id }

type harness struct {
	s       *Session
	wire    *wire
	journal *fakeJournal
}

func start(t *testing.T) *harness {
	t.Helper()
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat: %v", err)
	}
	w := &wire{}
	j := &fakeJournal{}
	s := New(Config{Rules: rules.New(), Transport: w, Chat: w, Messages: cat, Journal: j})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errc
	})
	return &harness{s: s, wire: w, journal: j}
}

func (h *harness) post(t *testing.T, frames ...string) bughousedto.SessionSnapshot {
	t.Helper()
	for _, f := range frames {
		h.s.Post(f)
	}
	snap, err := h.s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return snap
}

func TestUserSideOrientsBothBoards(t *testing.T) {
	h := start(t)
	snap := h.post(t, "connected", "userside black")
	if !snap.Connected || snap.UserSide != "black" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if snap.Boards[0].UserSide != "black" || snap.Boards[1].UserSide != "white" {
		t.Fatalf("boards not oriented: %s %s", snap.Boards[0].UserSide, snap.Boards[1].UserSide)
	}
}

func TestSubmitNormalMoveOnUserBoard(t *testing.T) {
	h := start(t)
	h.post(t, "userside white", "started", "fen1 "+startFEN)
	if err := h.s.Submit(context.Background(), UserBoard, "e2e4"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(h.wire.sent) != 1 || h.wire.sent[0] != "move e2e4" {
		t.Fatalf("sent = %v", h.wire.sent)
	}
	if h.journal.side != "white" {
		t.Fatalf("journal side = %q", h.journal.side)
	}
}

func TestPremoveExecutesOnServerUpdate(t *testing.T) {
	h := start(t)
	h.post(t, "userside black", "started", "fen1 "+startFEN)
	if err := h.s.Submit(context.Background(), UserBoard, "e7e5"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(h.wire.sent) != 1 || h.wire.sent[0] != "premove e7e5 false" {
		t.Fatalf("sent = %v", h.wire.sent)
	}
	snap := h.post(t, "move1 e2e4", "fen1 "+afterE4)
	b := snap.Boards[0]
	if len(b.Premoves) != 0 {
		t.Fatalf("premove still queued: %+v", b.Premoves)
	}
	if b.LastMove != "e7e5" || b.Turn != "white" {
		t.Fatalf("premove not executed: last=%q turn=%s", b.LastMove, b.Turn)
	}
	if len(h.journal.events) != 3 || h.journal.events[1] != "1:move:e2e4" {
		t.Fatalf("journal events = %v", h.journal.events)
	}
}

func TestPartnerBoardSuggests(t *testing.T) {
	h := start(t)
	h.post(t, "userside black", "started", "fen2 "+startFEN)
	if err := h.s.Submit(context.Background(), PartnerBoard, "g1f3"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(h.wire.chat) != 1 || h.wire.chat[0] != "Nf3" {
		t.Fatalf("chat = %v", h.wire.chat)
	}
	if len(h.wire.sent) != 0 {
		t.Fatalf("partner board sent moves: %v", h.wire.sent)
	}
}

func TestRejectedAndUnknownBoard(t *testing.T) {
	h := start(t)
	h.post(t, "userside white", "started", "fen1 "+startFEN)
	if err := h.s.Submit(context.Background(), UserBoard, "e2e5"); !errors.Is(err, premove.ErrMoveRejected) {
		t.Fatalf("expected ErrMoveRejected, got %v", err)
	}
	if err := h.s.Submit(context.Background(), 3, "e2e4"); !errors.Is(err, ErrUnknownBoard) {
		t.Fatalf("expected ErrUnknownBoard, got %v", err)
	}
	if len(h.wire.sent) != 0 {
		t.Fatalf("rejected moves were sent: %v", h.wire.sent)
	}
}

func TestSignals(t *testing.T) {
	h := start(t)
	if err := h.s.Signal(context.Background(), "bq"); err != nil {
		t.Fatalf("Signal: %v", err)
	}
	if err := h.s.Signal(context.Background(), "nope"); !errors.Is(err, ErrUnknownSignal) {
		t.Fatalf("expected ErrUnknownSignal, got %v", err)
	}
	h.post(t)
	if len(h.wire.chat) != 1 || h.wire.chat[0] != ":bughouse-bq" {
		t.Fatalf("chat = %v", h.wire.chat)
	}
	names := h.s.Signals()
	if len(names) != 15 {
		t.Fatalf("expected 15 signals, got %d: %v", len(names), names)
	}
}

func TestMalformedFENEndsBoard(t *testing.T) {
	h := start(t)
	snap := h.post(t, "userside white", "started", "fen1 "+startFEN, "fen1 not-a-fen")
	if snap.Boards[0].Playing {
		t.Fatalf("board still playing after malformed update")
	}
	if !snap.Boards[1].Playing {
		t.Fatalf("partner board should keep playing")
	}
	if snap.Boards[0].AuthoritativeFEN != startFEN {
		t.Fatalf("authoritative fen changed: %q", snap.Boards[0].AuthoritativeFEN)
	}
}

func TestFinishedCancelsAndClosesJournal(t *testing.T) {
	h := start(t)
	h.post(t, "userside black", "started", "fen1 "+startFEN)
	if err := h.s.Submit(context.Background(), UserBoard, "e7e5"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	snap := h.post(t, "finished")
	for _, b := range snap.Boards {
		if b.Playing || len(b.Premoves) != 0 || len(b.History) != 0 {
			t.Fatalf("board %d not reset: %+v", b.Board, b)
		}
	}
	if h.journal.finished != 1 || snap.GameID != "" {
		t.Fatalf("journal not finished: %d %q", h.journal.finished, snap.GameID)
	}
	if h.wire.sent[len(h.wire.sent)-1] != "cancel" {
		t.Fatalf("expected cancel, sent = %v", h.wire.sent)
	}
}

func TestClosedSession(t *testing.T) {
	s := New(Config{Rules: rules.New()})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx) }()
	cancel()
	select {
	case <-errc:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return")
	}
	if err := s.Submit(context.Background(), UserBoard, "e2e4"); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestSnapshotAbandonedWhileQueued(t *testing.T) {
	s := New(Config{Rules: rules.New()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// the loop is not running yet, so the request stays queued past its deadline
	if _, err := s.Snapshot(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	runCtx, stop := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(runCtx) }()
	defer func() {
		stop()
		<-errc
	}()

	snap, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Boards) != 2 {
		t.Fatalf("boards = %d", len(snap.Boards))
	}
}
