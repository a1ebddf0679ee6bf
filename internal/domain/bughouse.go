package domain

import "time"

const (
	GameActive   = "active"
	GameFinished = "finished"
)

// GameRecord summarizes one bughouse game as seen from this client.
type GameRecord struct {
	ID        string
	UserSide  string
	Status    string
	Players   [2][2]string // [board-1][white, black]
	Ratings   [2][2]string
	Moves     [2][]string // [board-1] authoritative move tokens
	Events    int64
	StartedAt time.Time
	UpdatedAt time.Time
	EndedAt   time.Time
}

// JournalEvent is one authoritative server event, in arrival order.
type JournalEvent struct {
	Seq     int64
	Board   int
	Kind    string
	Payload string
	At      time.Time
}
