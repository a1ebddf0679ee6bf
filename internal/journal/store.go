// Package journal keeps an append-only log of the authoritative server events
// of each game, plus a summary record, so a session can be inspected or archived
// after the fact.
package journal

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/park285/debughouse/internal/domain"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrGameFinished = errors.New("game already finished")
)

type Store interface {
	Begin(ctx context.Context, rec *domain.GameRecord) error
	Append(ctx context.Context, gameID string, ev domain.JournalEvent) (int64, error)
	Load(ctx context.Context, gameID string) (*domain.GameRecord, error)
	Events(ctx context.Context, gameID string) ([]domain.JournalEvent, error)
	Finish(ctx context.Context, gameID string, at time.Time) (*domain.GameRecord, error)
	Active(ctx context.Context) ([]string, error)
	Close() error
}

// apply folds ev into rec and assigns its sequence number.
func apply(rec *domain.GameRecord, ev *domain.JournalEvent) {
	rec.Events++
	ev.Seq = rec.Events
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	rec.UpdatedAt = ev.At

	idx := ev.Board - 1
	payload := strings.TrimSpace(ev.Payload)
	switch ev.Kind {
	case "userside":
		rec.UserSide = payload
	case "move":
		if idx >= 0 && idx < 2 && payload != "" {
			rec.Moves[idx] = append(rec.Moves[idx], payload)
		}
	case "players", "ratings":
		if idx < 0 || idx > 1 {
			return
		}
		parts := strings.SplitN(payload, ",", 2)
		if len(parts) != 2 {
			return
		}
		pair := [2]string{strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])}
		if ev.Kind == "players" {
			rec.Players[idx] = pair
		} else {
			rec.Ratings[idx] = pair
		}
	}
}
