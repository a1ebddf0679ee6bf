package premove

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/debughouse/internal/bughouse"
	"github.com/park285/debughouse/pkg/bughousedto"
)

var (
	// ErrMoveRejected means the submission was neither legal nor a plausible
	// premove. Nothing was mutated and nothing was sent.
	ErrMoveRejected = errors.New("move rejected")
	ErrNotPlaying   = errors.New("no game in progress")
)

// Transport carries user actions to the server. Calls must not block.
type Transport interface {
	Move(token string)
	Premove(token string, predrop bool)
	Cancel()
}

// Chat posts a line to the shared game chat.
type Chat interface {
	Say(text string)
}

// Renderer renders a message template by key.
type Renderer interface {
	Render(key string, data any) (string, error)
}

type BoardConfig struct {
	ID        int
	UserBoard bool
	Rules     bughouse.Rules
	Transport Transport
	Chat      Chat
	Messages  Renderer
	Logger    *zap.Logger
}

// Board is one of the two bughouse boards. The user board queues premoves and
// sends moves; the partner board only relays suggestions to chat.
// Board is not safe for concurrent use.
type Board struct {
	id        int
	userBoard bool

	state *bughouse.GameState
	cls   *bughouse.Classifier
	queue Queue

	userSide     bughouse.Side
	playing      bool
	underPromote bool
	fen          string

	history        []bughouse.Move
	echo           []string // executed premoves the server has not reported back yet
	lastMove       *bughouse.Move
	lastSquares    []bughouse.Square
	premoveSquares []bughouse.Square

	clock   Clock
	now     func() time.Time
	players [2]string
	ratings [2]string

	transport Transport
	chat      Chat
	msgs      Renderer
	logger    *zap.Logger
}

func NewBoard(cfg BoardConfig) *Board {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tr := cfg.Transport
	if tr == nil {
		tr = nopTransport{}
	}
	chat := cfg.Chat
	if chat == nil {
		chat = nopChat{}
	}
	return &Board{
		id:        cfg.ID,
		userBoard: cfg.UserBoard,
		state:     bughouse.NewGameState(cfg.Rules),
		cls:       bughouse.NewClassifier(cfg.Rules),
		transport: tr,
		chat:      chat,
		msgs:      cfg.Messages,
		logger:    logger.With(zap.Int("board", cfg.ID)),
		now:       time.Now,
	}
}

func (b *Board) ID() int                     { return b.id }
func (b *Board) IsUserBoard() bool           { return b.userBoard }
func (b *Board) UserSide() bughouse.Side     { return b.userSide }
func (b *Board) SetUserSide(s bughouse.Side) { b.userSide = s }
func (b *Board) Playing() bool               { return b.playing }
func (b *Board) SetUnderPromote(v bool)      { b.underPromote = v }
func (b *Board) State() *bughouse.GameState  { return b.state }
func (b *Board) Queue() []Entry              { return b.queue.Entries() }
func (b *Board) AuthoritativeFEN() string    { return b.fen }
func (b *Board) Clock() Clock                { return b.clock }
func (b *Board) PremoveSquares() []bughouse.Square {
	return append([]bughouse.Square(nil), b.premoveSquares...)
}

func (b *Board) SetPlaying(v bool) {
	b.playing = v
	if v {
		b.clock.Start(b.state.Position.Turn, b.now())
	}
}

// LastMove returns the most recent move known on this board, if any.
func (b *Board) LastMove() (bughouse.Move, bool) {
	if b.lastMove == nil {
		return bughouse.Move{}, false
	}
	return *b.lastMove, true
}

func (b *Board) History() []bughouse.Move {
	return append([]bughouse.Move(nil), b.history...)
}

// ApplyAuthoritativePosition loads a server FEN and reconciles the premove queue
// against it. A FEN that does not parse leaves the board untouched and returns
// an error wrapping bughouse.ErrMalformedUpdate.
func (b *Board) ApplyAuthoritativePosition(fen string) error {
	if err := b.state.LoadFEN(fen); err != nil {
		return err
	}
	b.fen = fen
	b.premoveSquares = nil
	b.reconcile()
	if b.playing {
		b.clock.Start(b.state.Position.Turn, b.now())
	}
	return nil
}

// ApplyHand replaces side's hand from a server string and re-runs the last
// authoritative position so the queue sees the new counts.
func (b *Board) ApplyHand(side bughouse.Side, pieces string) error {
	if err := b.state.Hands.SetString(side, pieces); err != nil {
		return err
	}
	if b.fen == "" {
		return nil
	}
	return b.ApplyAuthoritativePosition(b.fen)
}

func (b *Board) reconcile() {
	out, err := b.queue.Reconcile(b.state, b.cls, b.userSide)
	if err != nil {
		b.logger.Warn("premove_reconcile_failed", zap.Error(err))
		b.CancelPremoves()
		return
	}
	if out.Executed {
		m := out.Move
		b.lastMove = &m
		b.history = append(b.history, m)
		b.echo = append(b.echo, m.String())
		b.fen = out.FEN
		b.logger.Info("premove_executed", zap.String("move", m.String()))
	}
	for _, e := range out.Discarded {
		b.logger.Debug("premove_discarded", zap.String("move", e.Move.String()), zap.Bool("predrop", e.Predrop))
	}
	b.highlightLastMove()
	for _, m := range out.Replayed {
		b.premoveSquares = append(b.premoveSquares, m.Squares()...)
	}
}

// PushMove records a move reported by the server.
func (b *Board) PushMove(tok string) error {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return nil
	}
	m, err := bughouse.ParseMove(tok)
	if err != nil {
		return fmt.Errorf("%w: %v", bughouse.ErrMalformedUpdate, err)
	}
	if len(b.echo) > 0 && b.echo[0] == m.String() {
		b.echo = b.echo[1:]
		return nil
	}
	b.echo = nil
	b.history = append(b.history, m)
	b.lastMove = &m
	b.highlightLastMove()
	return nil
}

// SetTimes applies a "white,black" deciseconds pair.
func (b *Board) SetTimes(v string) error {
	t, err := ParseTimes(v)
	if err != nil {
		return err
	}
	b.clock.Set(t, b.now())
	return nil
}

func (b *Board) SetPlayers(v string) error {
	p, err := splitPair(v)
	if err != nil {
		return err
	}
	b.players = p
	return nil
}

func (b *Board) SetRatings(v string) error {
	r, err := splitPair(v)
	if err != nil {
		return err
	}
	b.ratings = r
	return nil
}

func splitPair(v string) ([2]string, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return [2]string{}, fmt.Errorf("%w: pair %q", bughouse.ErrMalformedUpdate, v)
	}
	return [2]string{strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])}, nil
}

// Submit dispatches a user move token. On the user board it is queued as a
// premove, played, or rejected; on the partner board it becomes a chat suggestion.
func (b *Board) Submit(tok string) error {
	if !b.playing {
		return ErrNotPlaying
	}
	m, err := bughouse.ParseMove(tok)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMoveRejected, err)
	}
	m = b.autoPromote(m)

	predrop := b.cls.IsPredrop(b.state, m, b.userSide)
	speculative := b.queue.Len() > 0 ||
		(b.state.Position.Turn != b.userSide && b.cls.IsValidPremove(b.state, m, b.userSide)) ||
		predrop

	switch {
	case speculative && !b.userBoard:
		return b.suggest(m, true)
	case speculative:
		return b.queuePremove(m, predrop)
	case b.cls.IsLegal(b.state, m) && !b.userBoard:
		return b.suggest(m, false)
	case b.cls.IsLegal(b.state, m):
		return b.playMove(m)
	}
	b.logger.Debug("move_rejected", zap.String("move", m.String()))
	return ErrMoveRejected
}

// SubmitMove plays m immediately. It must be legal for the side to move.
func (b *Board) SubmitMove(tok string) error {
	if !b.playing {
		return ErrNotPlaying
	}
	m, err := bughouse.ParseMove(tok)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMoveRejected, err)
	}
	m = b.autoPromote(m)
	if !b.userBoard || b.queue.Len() > 0 || !b.cls.IsLegal(b.state, m) {
		return ErrMoveRejected
	}
	return b.playMove(m)
}

// SubmitPremove queues m regardless of whose turn it is, provided it is a
// plausible premove or a predrop.
func (b *Board) SubmitPremove(tok string) error {
	if !b.playing {
		return ErrNotPlaying
	}
	m, err := bughouse.ParseMove(tok)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMoveRejected, err)
	}
	m = b.autoPromote(m)
	predrop := b.cls.IsPredrop(b.state, m, b.userSide)
	if !b.userBoard || (!predrop && !b.cls.IsValidPremove(b.state, m, b.userSide)) {
		return ErrMoveRejected
	}
	return b.queuePremove(m, predrop)
}

func (b *Board) autoPromote(m bughouse.Move) bughouse.Move {
	if m.Drop || m.Promotion != bughouse.NoKind || !m.From.Valid() || !m.To.Valid() {
		return m
	}
	if b.state.Position.At(m.From).Kind != bughouse.Pawn || !m.To.BackRank() {
		return m
	}
	m.Promotion = bughouse.Queen
	if b.underPromote {
		m.Promotion = bughouse.Knight
	}
	return m
}

func (b *Board) playMove(m bughouse.Move) error {
	if err := b.state.DoMove(m, bughouse.Normal, b.userSide); err != nil {
		return fmt.Errorf("%w: %v", ErrMoveRejected, err)
	}
	b.transport.Move(m.Wire())
	b.fen = b.state.FEN()
	b.lastMove = &m
	b.premoveSquares = nil
	b.highlightLastMove()
	b.clock.Start(b.state.Position.Turn, b.now())
	b.logger.Info("move_sent", zap.String("move", m.String()))
	return nil
}

func (b *Board) queuePremove(m bughouse.Move, predrop bool) error {
	if err := b.state.DoMove(m, bughouse.Premove, b.userSide); err != nil {
		return fmt.Errorf("%w: %v", ErrMoveRejected, err)
	}
	b.transport.Premove(m.Wire(), predrop)
	b.queue.Push(m, predrop)
	b.premoveSquares = append(b.premoveSquares, m.Squares()...)
	b.logger.Info("premove_queued", zap.String("move", m.String()), zap.Bool("predrop", predrop), zap.Int("queued", b.queue.Len()))
	return nil
}

func (b *Board) suggest(m bughouse.Move, premove bool) error {
	p := b.state.Position
	p.Turn = b.userSide
	san, err := b.state.Rules().SAN(p, m)
	if err != nil {
		san = m.String()
	}
	key, fallback := "suggest.move", san
	if premove {
		key, fallback = "suggest.premove", "premove "+san
	}
	text := fallback
	if b.msgs != nil {
		if s, err := b.msgs.Render(key, map[string]any{"SAN": san}); err == nil {
			text = s
		}
	}
	b.chat.Say(text)
	return nil
}

// CancelPremoves drops every queued premove, releases reserved hand pieces and
// restores the last authoritative position. The partner board has nothing to cancel.
func (b *Board) CancelPremoves() {
	if !b.userBoard {
		return
	}
	b.transport.Cancel()
	n := b.queue.Len()
	b.state.Hands.ResetOffsets()
	if b.fen != "" {
		if err := b.state.LoadFEN(b.fen); err != nil {
			b.logger.Warn("premove_cancel_reload_failed", zap.Error(err))
		}
	} else {
		b.state.Position = bughouse.StartPosition()
	}
	b.queue.Clear()
	b.premoveSquares = nil
	b.highlightLastMove()
	b.logger.Info("premove_cancelled", zap.Int("dropped", n))
}

// Finish ends the game on this board: premoves are cancelled, history cleared and
// clocks stopped. The final position stays on display.
func (b *Board) Finish() {
	b.playing = false
	b.CancelPremoves()
	b.history = nil
	b.echo = nil
	b.lastMove = nil
	b.lastSquares = nil
	b.clock.Stop(b.now())
}

func (b *Board) highlightLastMove() {
	b.lastSquares = nil
	if b.lastMove != nil {
		b.lastSquares = b.lastMove.Squares()
	}
}

// Snapshot returns a read-only view of the board.
func (b *Board) Snapshot() bughousedto.BoardSnapshot {
	now := b.now()
	left := b.clock.At(now)
	s := bughousedto.BoardSnapshot{
		Board:            b.id,
		UserBoard:        b.userBoard,
		UserSide:         b.userSide.String(),
		Playing:          b.playing,
		Turn:             b.state.Position.Turn.String(),
		FEN:              b.state.FEN(),
		AuthoritativeFEN: b.fen,
		WhiteHand:        handCounts(b.state.Hands.Displayed(bughouse.White)),
		BlackHand:        handCounts(b.state.Hands.Displayed(bughouse.Black)),
		Premoves:         []bughousedto.PremoveEntry{},
		History:          []string{},
		LastMoveSquares:  squareNames(b.lastSquares),
		PremoveSquares:   squareNames(b.premoveSquares),
		Clock: bughousedto.ClockState{
			WhiteDS: left[bughouse.White],
			BlackDS: left[bughouse.Black],
			LowTime: b.clock.Low(b.userSide, now),
		},
		WhitePlayer: b.players[bughouse.White],
		BlackPlayer: b.players[bughouse.Black],
		WhiteRating: b.ratings[bughouse.White],
		BlackRating: b.ratings[bughouse.Black],
	}
	if b.clock.Active {
		s.Clock.Running = b.clock.Running.String()
	}
	for _, e := range b.queue.entries {
		s.Premoves = append(s.Premoves, bughousedto.PremoveEntry{Move: e.Move.String(), Predrop: e.Predrop})
	}
	for _, m := range b.history {
		s.History = append(s.History, m.String())
	}
	if b.lastMove != nil {
		s.LastMove = b.lastMove.String()
	}
	return s
}

func handCounts(c bughouse.Counts) bughousedto.HandCounts {
	return bughousedto.HandCounts{
		P: c.Get(bughouse.Pawn),
		N: c.Get(bughouse.Knight),
		B: c.Get(bughouse.Bishop),
		R: c.Get(bughouse.Rook),
		Q: c.Get(bughouse.Queen),
	}
}

func squareNames(sq []bughouse.Square) []string {
	out := make([]string, 0, len(sq))
	for _, s := range sq {
		out = append(out, s.String())
	}
	return out
}

type nopTransport struct{}

func (nopTransport) Move(string)          {}
func (nopTransport) Premove(string, bool) {}
func (nopTransport) Cancel()              {}

type nopChat struct{}

func (nopChat) Say(string) {}
