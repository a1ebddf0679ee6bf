package journal

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "net/url"
    "strconv"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"

    "github.com/park285/debughouse/internal/domain"
)

const defaultTTL = 24 * time.Hour

// RedisStore keeps the game record as JSON under bh:game:<id> and the events as
// a list under bh:game:<id>:events. Both keys expire after ttl.
type RedisStore struct {
    rdb *redis.Client
    ttl time.Duration
}

func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
    if strings.TrimSpace(redisURL) == "" {
        return nil, fmt.Errorf("REDIS_URL required for redis journal")
    }
    opts, err := parseRedisURL(redisURL)
    if err != nil { return nil, err }
    rdb := redis.NewClient(opts)
    if err := rdb.Ping(context.Background()).Err(); err != nil {
        return nil, fmt.Errorf("redis ping: %w", err)
    }
    return NewRedisStoreWithClient(rdb, ttl), nil
}

func NewRedisStoreWithClient(rdb *redis.Client, ttl time.Duration) *RedisStore {
    if ttl <= 0 { ttl = defaultTTL }
    return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Close() error {
    if s == nil || s.rdb == nil { return nil }
    return s.rdb.Close()
}

func (s *RedisStore) keyGame(id string) string   { return "bh:game:" + strings.TrimSpace(id) }
func (s *RedisStore) keyEvents(id string) string { return s.keyGame(id) + ":events" }
func (s *RedisStore) keyActive() string          { return "bh:games:active" }

func (s *RedisStore) Begin(ctx context.Context, rec *domain.GameRecord) error {
    if rec == nil || strings.TrimSpace(rec.ID) == "" { return fmt.Errorf("game id required") }
    if rec.Status == "" { rec.Status = domain.GameActive }
    if rec.StartedAt.IsZero() { rec.StartedAt = time.Now() }
    rec.UpdatedAt = rec.StartedAt
    raw, err := json.Marshal(rec)
    if err != nil { return err }
    pipe := s.rdb.TxPipeline()
    pipe.Set(ctx, s.keyGame(rec.ID), raw, s.ttl)
    pipe.SAdd(ctx, s.keyActive(), rec.ID)
    pipe.Expire(ctx, s.keyActive(), s.ttl)
    _, err = pipe.Exec(ctx)
    return err
}

func (s *RedisStore) Append(ctx context.Context, gameID string, ev domain.JournalEvent) (int64, error) {
    key := s.keyGame(gameID)
    var seq int64
    err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
        rec, err := s.loadTx(ctx, tx, key)
        if err != nil { return err }
        if rec.Status == domain.GameFinished { return ErrGameFinished }
        apply(rec, &ev)
        recRaw, err := json.Marshal(rec)
        if err != nil { return err }
        evRaw, err := json.Marshal(&ev)
        if err != nil { return err }

        pipe := tx.TxPipeline()
        pipe.Set(ctx, key, recRaw, s.ttl)
        pipe.RPush(ctx, s.keyEvents(gameID), evRaw)
        pipe.Expire(ctx, s.keyEvents(gameID), s.ttl)
        if _, err := pipe.Exec(ctx); err != nil { return err }
        seq = ev.Seq
        return nil
    }, key)
    if err != nil { return 0, err }
    return seq, nil
}

func (s *RedisStore) Load(ctx context.Context, gameID string) (*domain.GameRecord, error) {
    raw, err := s.rdb.Get(ctx, s.keyGame(gameID)).Bytes()
    if errors.Is(err, redis.Nil) { return nil, ErrGameNotFound }
    if err != nil { return nil, err }
    var rec domain.GameRecord
    if err := json.Unmarshal(raw, &rec); err != nil { return nil, err }
    return &rec, nil
}

func (s *RedisStore) loadTx(ctx context.Context, tx *redis.Tx, key string) (*domain.GameRecord, error) {
    raw, err := tx.Get(ctx, key).Bytes()
    if errors.Is(err, redis.Nil) { return nil, ErrGameNotFound }
    if err != nil { return nil, err }
    var rec domain.GameRecord
    if err := json.Unmarshal(raw, &rec); err != nil { return nil, err }
    return &rec, nil
}

func (s *RedisStore) Events(ctx context.Context, gameID string) ([]domain.JournalEvent, error) {
    items, err := s.rdb.LRange(ctx, s.keyEvents(gameID), 0, -1).Result()
    if err != nil { return nil, err }
    out := make([]domain.JournalEvent, 0, len(items))
    for _, it := range items {
        var ev domain.JournalEvent
        if err := json.Unmarshal([]byte(it), &ev); err != nil { return nil, fmt.Errorf("decode event: %w", err) }
        out = append(out, ev)
    }
    return out, nil
}

func (s *RedisStore) Finish(ctx context.Context, gameID string, at time.Time) (*domain.GameRecord, error) {
    key := s.keyGame(gameID)
    var out *domain.GameRecord
    err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
        rec, err := s.loadTx(ctx, tx, key)
        if err != nil { return err }
        if rec.Status == domain.GameFinished { return ErrGameFinished }
        rec.Status = domain.GameFinished
        rec.EndedAt = at
        rec.UpdatedAt = at
        raw, err := json.Marshal(rec)
        if err != nil { return err }
        pipe := tx.TxPipeline()
        pipe.Set(ctx, key, raw, s.ttl)
        pipe.SRem(ctx, s.keyActive(), gameID)
        if _, err := pipe.Exec(ctx); err != nil { return err }
        out = rec
        return nil
    }, key)
    if err != nil { return nil, err }
    return out, nil
}

func (s *RedisStore) Active(ctx context.Context) ([]string, error) {
    return s.rdb.SMembers(ctx, s.keyActive()).Result()
}

func parseRedisURL(raw string) (*redis.Options, error) {
    u, err := url.Parse(raw)
    if err != nil { return nil, err }
    if u.Scheme != "redis" && u.Scheme != "rediss" { return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme) }
    db := 0
    if p := strings.TrimPrefix(u.Path, "/"); p != "" { if n, err := strconv.Atoi(p); err == nil { db = n } }
    pass, _ := u.User.Password()
    return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
