package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/debughouse/internal/domain"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreWithClient(rdb, time.Hour)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"redis":  newRedisStore(t),
		"memory": NewMemoryStore(),
	}
}

func TestStoreLifecycle(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := s.Begin(ctx, &domain.GameRecord{ID: "g1"}); err != nil {
				t.Fatalf("begin: %v", err)
			}

			events := []domain.JournalEvent{
				{Kind: "userside", Payload: "white"},
				{Board: 1, Kind: "players", Payload: "alice, bob"},
				{Board: 2, Kind: "ratings", Payload: "1500,1620"},
				{Board: 1, Kind: "move", Payload: "e2e4"},
				{Board: 2, Kind: "move", Payload: "d7d5"},
				{Board: 1, Kind: "move", Payload: "e7e5"},
			}
			for i, ev := range events {
				seq, err := s.Append(ctx, "g1", ev)
				if err != nil {
					t.Fatalf("append %d: %v", i, err)
				}
				if seq != int64(i+1) {
					t.Fatalf("append %d: seq=%d", i, seq)
				}
			}

			rec, err := s.Load(ctx, "g1")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if rec.UserSide != "white" || rec.Events != 6 || rec.Status != domain.GameActive {
				t.Fatalf("unexpected record: %+v", rec)
			}
			if rec.Players[0] != [2]string{"alice", "bob"} || rec.Ratings[1] != [2]string{"1500", "1620"} {
				t.Fatalf("players/ratings not folded: %+v %+v", rec.Players, rec.Ratings)
			}
			if len(rec.Moves[0]) != 2 || rec.Moves[0][1] != "e7e5" || len(rec.Moves[1]) != 1 {
				t.Fatalf("moves not folded: %+v", rec.Moves)
			}

			got, err := s.Events(ctx, "g1")
			if err != nil {
				t.Fatalf("events: %v", err)
			}
			if len(got) != len(events) || got[3].Seq != 4 || got[3].Payload != "e2e4" {
				t.Fatalf("unexpected events: %+v", got)
			}

			active, err := s.Active(ctx)
			if err != nil || len(active) != 1 || active[0] != "g1" {
				t.Fatalf("active: %v %v", active, err)
			}

			end := time.Now()
			fin, err := s.Finish(ctx, "g1", end)
			if err != nil {
				t.Fatalf("finish: %v", err)
			}
			if fin.Status != domain.GameFinished || fin.EndedAt.IsZero() {
				t.Fatalf("unexpected finished record: %+v", fin)
			}
			if _, err := s.Finish(ctx, "g1", end); !errors.Is(err, ErrGameFinished) {
				t.Fatalf("second finish: %v", err)
			}
			if _, err := s.Append(ctx, "g1", domain.JournalEvent{Kind: "move"}); !errors.Is(err, ErrGameFinished) {
				t.Fatalf("append after finish: %v", err)
			}
			active, _ = s.Active(ctx)
			if len(active) != 0 {
				t.Fatalf("expected no active games, got %v", active)
			}
		})
	}
}

func TestStoreUnknownGame(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := s.Load(ctx, "missing"); !errors.Is(err, ErrGameNotFound) {
				t.Fatalf("load: %v", err)
			}
			if _, err := s.Append(ctx, "missing", domain.JournalEvent{Kind: "move"}); !errors.Is(err, ErrGameNotFound) {
				t.Fatalf("append: %v", err)
			}
		})
	}
}

func TestParseRedisURL(t *testing.T) {
	opts, err := parseRedisURL("redis://:secret@localhost:6380/3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 3 {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if _, err := parseRedisURL("http://localhost"); err == nil {
		t.Fatalf("expected scheme error")
	}
}

type fakeArchive struct {
	mu     sync.Mutex
	saved  []*domain.GameRecord
	events [][]domain.JournalEvent
	done   chan struct{}
}

func (f *fakeArchive) SaveGame(_ context.Context, rec *domain.GameRecord, events []domain.JournalEvent) error {
	f.mu.Lock()
	f.saved = append(f.saved, rec)
	f.events = append(f.events, events)
	f.mu.Unlock()
	close(f.done)
	return nil
}

func TestRecorderArchivesFinishedGame(t *testing.T) {
	store := NewMemoryStore()
	archive := &fakeArchive{done: make(chan struct{})}
	r := NewRecorder(store, archive, 16, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	r.Record(1, "move", "e2e4")
	id := r.StartGame("black")
	if id == "" || r.GameID() != id {
		t.Fatalf("unexpected game id %q", id)
	}
	r.Record(1, "move", "e2e4")
	r.Record(2, "move", "g1f3")
	r.FinishGame()
	if r.GameID() != "" {
		t.Fatalf("game id not cleared")
	}

	select {
	case <-archive.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("archive not called")
	}

	archive.mu.Lock()
	defer archive.mu.Unlock()
	rec := archive.saved[0]
	if rec.ID != id || rec.UserSide != "black" || rec.Status != domain.GameFinished {
		t.Fatalf("unexpected archived record: %+v", rec)
	}
	if len(archive.events[0]) != 2 {
		t.Fatalf("expected 2 events, got %d", len(archive.events[0]))
	}
}

func TestSaveArgs(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rec := &domain.GameRecord{ID: "g", StartedAt: start, EndedAt: start.Add(90 * time.Second), Events: 3}
	args, err := saveArgs(rec, nil)
	if err != nil {
		t.Fatalf("saveArgs: %v", err)
	}
	if len(args) != 11 {
		t.Fatalf("expected 11 args, got %d", len(args))
	}
	if args[4] != "[]" || args[6] != "[]" {
		t.Fatalf("expected empty json arrays, got %v %v", args[4], args[6])
	}
	if args[10] != int64(90000) {
		t.Fatalf("duration=%v", args[10])
	}
}

func TestNilArchiveSave(t *testing.T) {
	var a *Archive
	if err := a.SaveGame(context.Background(), &domain.GameRecord{ID: "g"}, nil); err != nil {
		t.Fatalf("nil archive: %v", err)
	}
}
