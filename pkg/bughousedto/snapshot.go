package bughousedto

// HandCounts is a displayed hand, hand plus speculative offset, by piece letter.
type HandCounts struct {
	P int `json:"p"`
	N int `json:"n"`
	B int `json:"b"`
	R int `json:"r"`
	Q int `json:"q"`
}

type ClockState struct {
	WhiteDS int    `json:"white_ds"`
	BlackDS int    `json:"black_ds"`
	Running string `json:"running,omitempty"`
	LowTime bool   `json:"low_time"`
}

type PremoveEntry struct {
	Move    string `json:"move"`
	Predrop bool   `json:"predrop"`
}

// BoardSnapshot is a read-only view of one board.
type BoardSnapshot struct {
	Board            int            `json:"board"`
	UserBoard        bool           `json:"user_board"`
	UserSide         string         `json:"user_side"`
	Playing          bool           `json:"playing"`
	Turn             string         `json:"turn"`
	FEN              string         `json:"fen"`
	AuthoritativeFEN string         `json:"authoritative_fen"`
	WhiteHand        HandCounts     `json:"white_hand"`
	BlackHand        HandCounts     `json:"black_hand"`
	Premoves         []PremoveEntry `json:"premoves"`
	LastMove         string         `json:"last_move,omitempty"`
	History          []string       `json:"history"`
	LastMoveSquares  []string       `json:"last_move_squares"`
	PremoveSquares   []string       `json:"premove_squares"`
	Clock            ClockState     `json:"clock"`
	WhitePlayer      string         `json:"white_player,omitempty"`
	BlackPlayer      string         `json:"black_player,omitempty"`
	WhiteRating      string         `json:"white_rating,omitempty"`
	BlackRating      string         `json:"black_rating,omitempty"`
}

// SessionSnapshot covers both boards of a bughouse game.
type SessionSnapshot struct {
	GameID    string          `json:"game_id,omitempty"`
	Connected bool            `json:"connected"`
	UserSide  string          `json:"user_side"`
	Boards    []BoardSnapshot `json:"boards"`
}
