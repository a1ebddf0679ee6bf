// Package statusz serves a read-only JSON view of the running session.
package statusz

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/debughouse/pkg/bughousedto"
)

// SnapshotFunc returns the current session state.
type SnapshotFunc func(ctx context.Context) (bughousedto.SessionSnapshot, error)

type Server struct {
	addr     string
	snapshot SnapshotFunc
	signals  func() []string
	srv      *fasthttp.Server
	logger   *zap.Logger
	started  time.Time
}

type Option func(*Server)

// WithSignals exposes the partner signal names under /signals.
func WithSignals(fn func() []string) Option {
	return func(s *Server) { s.signals = fn }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(addr string, snapshot SnapshotFunc, opts ...Option) *Server {
	s := &Server{addr: addr, snapshot: snapshot, logger: zap.NewNop(), started: time.Now()}
	for _, opt := range opts {
		opt(s)
	}
	s.srv = &fasthttp.Server{
		Handler:      s.Handle,
		Name:         "debughouse",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return s
}

// Handle routes a single request.
func (s *Server) Handle(ctx *fasthttp.RequestCtx) {
	if !ctx.IsGet() && !ctx.IsHead() {
		s.writeError(ctx, fasthttp.StatusMethodNotAllowed, bughousedto.DomainError{Code: "method_not_allowed", Message: "only GET is supported"})
		return
	}
	switch string(ctx.Path()) {
	case "/healthz":
		s.writeJSON(ctx, fasthttp.StatusOK, map[string]any{
			"status":     "ok",
			"uptime_sec": int64(time.Since(s.started).Seconds()),
		})
	case "/boards":
		s.handleBoards(ctx)
	case "/signals":
		var names []string
		if s.signals != nil {
			names = s.signals()
		}
		if names == nil {
			names = []string{}
		}
		s.writeJSON(ctx, fasthttp.StatusOK, map[string]any{"signals": names})
	default:
		s.writeError(ctx, fasthttp.StatusNotFound, bughousedto.DomainError{Code: "not_found", Message: "no such endpoint"})
	}
}

func (s *Server) handleBoards(ctx *fasthttp.RequestCtx) {
	if s.snapshot == nil {
		s.writeError(ctx, fasthttp.StatusServiceUnavailable, bughousedto.DomainError{Code: "unavailable", Message: "no session", Retryable: true})
		return
	}
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := s.snapshot(c)
	if err != nil {
		s.logger.Warn("statusz_snapshot_error", zap.Error(err))
		s.writeError(ctx, fasthttp.StatusServiceUnavailable, bughousedto.DomainError{
			Code:      "unavailable",
			Message:   err.Error(),
			Retryable: errors.Is(err, context.DeadlineExceeded),
		})
		return
	}
	board := ctx.QueryArgs().GetUintOrZero("board")
	if board == 0 {
		s.writeJSON(ctx, fasthttp.StatusOK, snap)
		return
	}
	for _, b := range snap.Boards {
		if b.Board == board {
			s.writeJSON(ctx, fasthttp.StatusOK, b)
			return
		}
	}
	s.writeError(ctx, fasthttp.StatusNotFound, bughousedto.DomainError{Code: "unknown_board", Message: "board must be 1 or 2"})
}

func (s *Server) writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("statusz_encode_error", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func (s *Server) writeError(ctx *fasthttp.RequestCtx, status int, e bughousedto.DomainError) {
	s.writeJSON(ctx, status, map[string]any{"error": e})
}

// Serve blocks serving ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

// Run listens on the configured address and shuts down when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.logger.Info("statusz_listening", zap.String("addr", ln.Addr().String()))
	errc := make(chan error, 1)
	go func() { errc <- s.srv.Serve(ln) }()
	select {
	case <-ctx.Done():
		return s.srv.Shutdown()
	case err := <-errc:
		return err
	}
}

func (s *Server) Shutdown() error {
	return s.srv.Shutdown()
}
