// Package session owns the two bughouse boards of a connection and serializes
// every mutation on a single event loop goroutine. Server frames and UI
// commands are both posted onto the loop in arrival order.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/park285/debughouse/internal/bughouse"
	"github.com/park285/debughouse/internal/premove"
	"github.com/park285/debughouse/internal/protocol"
	"github.com/park285/debughouse/pkg/bughousedto"
)

var (
	ErrClosed        = errors.New("session closed")
	ErrUnknownBoard  = errors.New("unknown board")
	ErrUnknownSignal = errors.New("unknown signal")
)

const (
	UserBoard    = 1
	PartnerBoard = 2
)

// Journal records authoritative events per game. *journal.Recorder implements it.
type Journal interface {
	StartGame(userSide string) string
	Record(board int, kind, payload string)
	FinishGame()
	GameID() string
}

// Messages renders outbound chat texts by key.
type Messages interface {
	Render(key string, data any) (string, error)
	Keys(prefix string) []string
}

type Config struct {
	Rules        bughouse.Rules
	Transport    premove.Transport
	Chat         premove.Chat
	Messages     Messages
	Journal      Journal
	UnderPromote bool
	Buffer       int
	Logger       *zap.Logger
}

type Session struct {
	boards  [2]*premove.Board
	chat    premove.Chat
	msgs    Messages
	journal Journal
	logger  *zap.Logger

	inbox chan func()
	done  chan struct{}

	connected bool
	userSide  bughouse.Side
}

func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	buf := cfg.Buffer
	if buf <= 0 {
		buf = 256
	}
	s := &Session{
		chat:    cfg.Chat,
		msgs:    cfg.Messages,
		journal: cfg.Journal,
		logger:  logger,
		inbox:   make(chan func(), buf),
		done:    make(chan struct{}),
	}
	var renderer premove.Renderer
	if cfg.Messages != nil {
		renderer = cfg.Messages
	}
	for i := range s.boards {
		s.boards[i] = premove.NewBoard(premove.BoardConfig{
			ID:        i + 1,
			UserBoard: i == 0,
			Rules:     cfg.Rules,
			Transport: cfg.Transport,
			Chat:      cfg.Chat,
			Messages:  renderer,
			Logger:    logger,
		})
		s.boards[i].SetUnderPromote(cfg.UnderPromote)
	}
	s.boards[1].SetUserSide(bughouse.Black)
	return s
}

// Run executes posted work until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-s.inbox:
			fn()
		}
	}
}

// Post queues a raw server frame. It blocks while the inbox is full so frames
// are never reordered or dropped.
func (s *Session) Post(frame string) {
	s.enqueue(func() { s.handleFrame(frame) })
}

// Do runs fn on the event loop and waits for it to return.
func (s *Session) Do(ctx context.Context, fn func() error) error {
	res := make(chan error, 1)
	if !s.enqueue(func() { res <- fn() }) {
		return ErrClosed
	}
	select {
	case err := <-res:
		return err
	case <-s.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) enqueue(fn func()) bool {
	select {
	case s.inbox <- fn:
		return true
	case <-s.done:
		return false
	}
}

func (s *Session) board(n int) (*premove.Board, error) {
	if n < 1 || n > len(s.boards) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBoard, n)
	}
	return s.boards[n-1], nil
}

func (s *Session) handleFrame(frame string) {
	ev, err := protocol.Parse(frame)
	if err != nil {
		if !errors.Is(err, protocol.ErrEmptyFrame) {
			s.logger.Debug("frame_ignored", zap.String("frame", frame), zap.Error(err))
		}
		return
	}
	s.handle(ev)
}

func (s *Session) handle(ev protocol.Event) {
	if ev.Board > 0 {
		s.handleBoard(ev)
		return
	}
	switch ev.Kind {
	case protocol.KindConnected:
		s.connected = true
		s.logger.Info("session_connected")
	case protocol.KindMessage:
		s.logger.Info("chat_message", zap.String("text", ev.Payload))
	case protocol.KindStarted:
		for _, b := range s.boards {
			b.SetPlaying(true)
		}
		if s.journal != nil {
			id := s.journal.StartGame(s.userSide.String())
			s.logger.Info("game_started", zap.String("game_id", id))
		}
	case protocol.KindFinished:
		for _, b := range s.boards {
			b.Finish()
		}
		if s.journal != nil {
			s.journal.FinishGame()
		}
		s.logger.Info("game_finished")
	case protocol.KindUserSide:
		side, err := bughouse.ParseSide(ev.Payload)
		if err != nil {
			s.logger.Error("userside_malformed", zap.String("payload", ev.Payload), zap.Error(err))
			return
		}
		s.userSide = side
		s.boards[0].SetUserSide(side)
		s.boards[1].SetUserSide(side.Flip())
		s.record(0, ev)
	case protocol.KindPong:
	}
}

func (s *Session) handleBoard(ev protocol.Event) {
	b, err := s.board(ev.Board)
	if err != nil {
		return
	}
	switch ev.Kind {
	case protocol.KindFEN:
		b.SetPlaying(true)
		err = b.ApplyAuthoritativePosition(ev.Payload)
	case protocol.KindMove:
		err = b.PushMove(ev.Payload)
	case protocol.KindWhiteHand:
		err = b.ApplyHand(bughouse.White, ev.Payload)
	case protocol.KindBlackHand:
		err = b.ApplyHand(bughouse.Black, ev.Payload)
	case protocol.KindTimes:
		err = b.SetTimes(ev.Payload)
	case protocol.KindPlayers:
		err = b.SetPlayers(ev.Payload)
	case protocol.KindRatings:
		err = b.SetRatings(ev.Payload)
	}
	if err != nil {
		s.logger.Error("update_malformed", zap.Int("board", ev.Board), zap.String("kind", string(ev.Kind)),
			zap.String("payload", ev.Payload), zap.Error(err))
		if errors.Is(err, bughouse.ErrMalformedUpdate) && ev.Kind == protocol.KindFEN {
			b.Finish()
		}
		return
	}
	s.record(ev.Board, ev)
}

func (s *Session) record(board int, ev protocol.Event) {
	if s.journal == nil {
		return
	}
	s.journal.Record(board, string(ev.Kind), ev.Payload)
}

// Submit dispatches a move token to a board.
func (s *Session) Submit(ctx context.Context, board int, tok string) error {
	return s.Do(ctx, func() error {
		b, err := s.board(board)
		if err != nil {
			return err
		}
		return b.Submit(tok)
	})
}

// Cancel drops every queued premove on the user board.
func (s *Session) Cancel(ctx context.Context) error {
	return s.Do(ctx, func() error {
		s.boards[0].CancelPremoves()
		return nil
	})
}

// Chat sends a line to the game chat. A leading slash sends a raw command.
func (s *Session) Chat(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return s.Do(ctx, func() error {
		if s.chat != nil {
			s.chat.Say(text)
		}
		return nil
	})
}

// Signal sends a partner signal macro such as "bq" or "no_trade".
func (s *Session) Signal(ctx context.Context, name string) error {
	if s.msgs == nil {
		return fmt.Errorf("%w: %s", ErrUnknownSignal, name)
	}
	text, err := s.msgs.Render("signal."+strings.TrimSpace(name), nil)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnknownSignal, name)
	}
	return s.Chat(ctx, text)
}

// Signals lists the signal names Signal accepts.
func (s *Session) Signals() []string {
	if s.msgs == nil {
		return nil
	}
	keys := s.msgs.Keys("signal.")
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, "signal."))
	}
	return out
}

// SetUnderPromote switches auto-promotion between queen and knight on both boards.
func (s *Session) SetUnderPromote(ctx context.Context, v bool) error {
	return s.Do(ctx, func() error {
		for _, b := range s.boards {
			b.SetUnderPromote(v)
		}
		return nil
	})
}

// Snapshot returns a copy of the session state taken on the event loop.
func (s *Session) Snapshot(ctx context.Context) (bughousedto.SessionSnapshot, error) {
	res := make(chan bughousedto.SessionSnapshot, 1)
	if err := s.Do(ctx, func() error {
		res <- s.snapshot()
		return nil
	}); err != nil {
		return bughousedto.SessionSnapshot{}, err
	}
	return <-res, nil
}

func (s *Session) snapshot() bughousedto.SessionSnapshot {
	snap := bughousedto.SessionSnapshot{
		Connected: s.connected,
		UserSide:  s.userSide.String(),
	}
	if s.journal != nil {
		snap.GameID = s.journal.GameID()
	}
	for _, b := range s.boards {
		snap.Boards = append(snap.Boards, b.Snapshot())
	}
	return snap
}

// SetConnected is called from the transport's state callback.
func (s *Session) SetConnected(v bool) {
	s.enqueue(func() { s.connected = v })
}
