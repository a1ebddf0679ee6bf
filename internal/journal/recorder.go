package journal

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/debughouse/internal/domain"
)

// GameArchive persists finished games. *Archive implements it.
type GameArchive interface {
	SaveGame(ctx context.Context, rec *domain.GameRecord, events []domain.JournalEvent) error
}

type opKind int

const (
	opBegin opKind = iota
	opAppend
	opFinish
)

type op struct {
	kind   opKind
	gameID string
	rec    *domain.GameRecord
	ev     domain.JournalEvent
	at     time.Time
}

// Recorder serializes journal writes on its own goroutine so callers never block
// on storage. Post-style methods drop the write with a warning when the buffer is full.
type Recorder struct {
	store   Store
	archive GameArchive
	ops     chan op
	logger  *zap.Logger

	mu     sync.Mutex
	gameID string
}

func NewRecorder(store Store, archive GameArchive, buffer int, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 256
	}
	return &Recorder{store: store, archive: archive, ops: make(chan op, buffer), logger: logger}
}

// GameID returns the id of the game being recorded, or "".
func (r *Recorder) GameID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gameID
}

// StartGame allocates a new game id and queues its record.
func (r *Recorder) StartGame(userSide string) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.gameID = id
	r.mu.Unlock()
	now := time.Now()
	r.enqueue(op{kind: opBegin, gameID: id, rec: &domain.GameRecord{ID: id, UserSide: userSide, StartedAt: now}})
	return id
}

// Record queues an event for the current game. Events outside a game are ignored.
func (r *Recorder) Record(board int, kind, payload string) {
	id := r.GameID()
	if id == "" {
		return
	}
	r.enqueue(op{kind: opAppend, gameID: id, ev: domain.JournalEvent{Board: board, Kind: kind, Payload: payload, At: time.Now()}})
}

// FinishGame closes the current game and archives it.
func (r *Recorder) FinishGame() {
	r.mu.Lock()
	id := r.gameID
	r.gameID = ""
	r.mu.Unlock()
	if id == "" {
		return
	}
	r.enqueue(op{kind: opFinish, gameID: id, at: time.Now()})
}

func (r *Recorder) enqueue(o op) {
	select {
	case r.ops <- o:
	default:
		r.logger.Warn("journal_dropped", zap.String("game_id", o.gameID), zap.Int("op", int(o.kind)))
	}
}

// Run drains queued writes until ctx is done, then flushes what is left.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.flush()
			return nil
		case o := <-r.ops:
			r.handle(ctx, o)
		}
	}
}

func (r *Recorder) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case o := <-r.ops:
			r.handle(ctx, o)
		default:
			return
		}
	}
}

func (r *Recorder) handle(ctx context.Context, o op) {
	switch o.kind {
	case opBegin:
		if err := r.store.Begin(ctx, o.rec); err != nil {
			r.logger.Error("journal_begin_error", zap.String("game_id", o.gameID), zap.Error(err))
		}
	case opAppend:
		if _, err := r.store.Append(ctx, o.gameID, o.ev); err != nil {
			r.logger.Error("journal_append_error", zap.String("game_id", o.gameID), zap.String("kind", o.ev.Kind), zap.Error(err))
		}
	case opFinish:
		rec, err := r.store.Finish(ctx, o.gameID, o.at)
		if err != nil {
			if !errors.Is(err, ErrGameFinished) {
				r.logger.Error("journal_finish_error", zap.String("game_id", o.gameID), zap.Error(err))
			}
			return
		}
		if r.archive == nil {
			return
		}
		events, err := r.store.Events(ctx, o.gameID)
		if err != nil {
			r.logger.Error("journal_events_error", zap.String("game_id", o.gameID), zap.Error(err))
			return
		}
		if err := r.archive.SaveGame(ctx, rec, events); err != nil {
			r.logger.Error("journal_archive_error", zap.String("game_id", o.gameID), zap.Error(err))
			return
		}
		r.logger.Info("journal_archived", zap.String("game_id", o.gameID), zap.Int64("events", rec.Events))
	}
}
