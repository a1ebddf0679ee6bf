package journal

import (
    "context"
    "database/sql"
    "encoding/json"
    "fmt"
    "strings"
    "time"

    _ "github.com/lib/pq"

    "github.com/park285/debughouse/internal/domain"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS bughouse_games (
    game_id      TEXT PRIMARY KEY,
    user_side    TEXT NOT NULL DEFAULT '',
    players      JSONB NOT NULL,
    ratings      JSONB NOT NULL,
    moves_board1 JSONB NOT NULL,
    moves_board2 JSONB NOT NULL,
    events       JSONB NOT NULL,
    event_count  BIGINT NOT NULL DEFAULT 0,
    started_at   TIMESTAMPTZ NOT NULL,
    ended_at     TIMESTAMPTZ NOT NULL,
    duration_ms  BIGINT NOT NULL DEFAULT 0
)`

// Archive stores finished games in Postgres.
type Archive struct {
    db *sql.DB
}

func NewArchive(databaseURL string) (*Archive, error) {
    if strings.TrimSpace(databaseURL) == "" {
        return nil, fmt.Errorf("DATABASE_URL is required")
    }
    db, err := sql.Open("postgres", databaseURL)
    if err != nil {
        return nil, err
    }
    db.SetMaxOpenConns(4)
    db.SetMaxIdleConns(2)
    db.SetConnMaxLifetime(30 * time.Minute)
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    if err := db.PingContext(ctx); err != nil {
        _ = db.Close()
        return nil, err
    }
    a := &Archive{db: db}
    if err := a.ensureSchema(ctx); err != nil {
        _ = db.Close()
        return nil, fmt.Errorf("ensure schema: %w", err)
    }
    return a, nil
}

func (a *Archive) ensureSchema(ctx context.Context) error {
    _, err := a.db.ExecContext(ctx, schemaSQL)
    return err
}

func (a *Archive) Close() error {
    if a == nil || a.db == nil { return nil }
    return a.db.Close()
}

// SaveGame upserts a finished game with its full event log.
func (a *Archive) SaveGame(ctx context.Context, rec *domain.GameRecord, events []domain.JournalEvent) error {
    if a == nil || a.db == nil || rec == nil {
        return nil
    }
    args, err := saveArgs(rec, events)
    if err != nil { return err }

    q := `INSERT INTO bughouse_games (
        game_id, user_side, players, ratings, moves_board1, moves_board2,
        events, event_count, started_at, ended_at, duration_ms
      ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
      ON CONFLICT (game_id) DO UPDATE SET
        user_side=EXCLUDED.user_side,
        players=EXCLUDED.players,
        ratings=EXCLUDED.ratings,
        moves_board1=EXCLUDED.moves_board1,
        moves_board2=EXCLUDED.moves_board2,
        events=EXCLUDED.events,
        event_count=EXCLUDED.event_count,
        started_at=EXCLUDED.started_at,
        ended_at=EXCLUDED.ended_at,
        duration_ms=EXCLUDED.duration_ms`

    _, err = a.db.ExecContext(ctx, q, args...)
    return err
}

func saveArgs(rec *domain.GameRecord, events []domain.JournalEvent) ([]any, error) {
    players, err := json.Marshal(rec.Players)
    if err != nil { return nil, err }
    ratings, err := json.Marshal(rec.Ratings)
    if err != nil { return nil, err }
    m1, err := json.Marshal(nonNil(rec.Moves[0]))
    if err != nil { return nil, err }
    m2, err := json.Marshal(nonNil(rec.Moves[1]))
    if err != nil { return nil, err }
    if events == nil { events = []domain.JournalEvent{} }
    evs, err := json.Marshal(events)
    if err != nil { return nil, err }

    ended := rec.EndedAt
    if ended.IsZero() { ended = time.Now() }
    duration := ended.Sub(rec.StartedAt).Milliseconds()
    if duration < 0 { duration = 0 }

    return []any{
        rec.ID, rec.UserSide, string(players), string(ratings), string(m1), string(m2),
        string(evs), rec.Events, rec.StartedAt, ended, duration,
    }, nil
}

func nonNil(s []string) []string {
    if s == nil { return []string{} }
    return s
}
