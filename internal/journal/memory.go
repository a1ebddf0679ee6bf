package journal

import (
    "context"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/park285/debughouse/internal/domain"
)

// MemoryStore is the journal used when no Redis is configured. Nothing survives a restart.
type MemoryStore struct {
    mu     sync.RWMutex
    games  map[string]*domain.GameRecord
    events map[string][]domain.JournalEvent
}

func NewMemoryStore() *MemoryStore {
    return &MemoryStore{
        games:  make(map[string]*domain.GameRecord),
        events: make(map[string][]domain.JournalEvent),
    }
}

func (m *MemoryStore) Begin(ctx context.Context, rec *domain.GameRecord) error {
    if rec == nil || strings.TrimSpace(rec.ID) == "" { return ErrGameNotFound }
    m.mu.Lock()
    defer m.mu.Unlock()
    cp := *rec
    if cp.Status == "" { cp.Status = domain.GameActive }
    if cp.StartedAt.IsZero() { cp.StartedAt = time.Now() }
    cp.UpdatedAt = cp.StartedAt
    m.games[cp.ID] = &cp
    return nil
}

func (m *MemoryStore) Append(ctx context.Context, gameID string, ev domain.JournalEvent) (int64, error) {
    m.mu.Lock()
    defer m.mu.Unlock()
    rec, ok := m.games[gameID]
    if !ok { return 0, ErrGameNotFound }
    if rec.Status == domain.GameFinished { return 0, ErrGameFinished }
    apply(rec, &ev)
    m.events[gameID] = append(m.events[gameID], ev)
    return ev.Seq, nil
}

func (m *MemoryStore) Load(ctx context.Context, gameID string) (*domain.GameRecord, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    rec, ok := m.games[gameID]
    if !ok { return nil, ErrGameNotFound }
    cp := *rec
    for i := range cp.Moves {
        cp.Moves[i] = append([]string(nil), rec.Moves[i]...)
    }
    return &cp, nil
}

func (m *MemoryStore) Events(ctx context.Context, gameID string) ([]domain.JournalEvent, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    return append([]domain.JournalEvent(nil), m.events[gameID]...), nil
}

func (m *MemoryStore) Finish(ctx context.Context, gameID string, at time.Time) (*domain.GameRecord, error) {
    m.mu.Lock()
    rec, ok := m.games[gameID]
    if !ok {
        m.mu.Unlock()
        return nil, ErrGameNotFound
    }
    if rec.Status == domain.GameFinished {
        m.mu.Unlock()
        return nil, ErrGameFinished
    }
    rec.Status = domain.GameFinished
    rec.EndedAt = at
    rec.UpdatedAt = at
    m.mu.Unlock()
    return m.Load(ctx, gameID)
}

func (m *MemoryStore) Active(ctx context.Context) ([]string, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    var out []string
    for id, g := range m.games {
        if g.Status == domain.GameActive { out = append(out, id) }
    }
    sort.Strings(out)
    return out, nil
}

func (m *MemoryStore) Close() error { return nil }
