package bhws

import (
	"go.uber.org/zap"

	"github.com/park285/debughouse/internal/protocol"
)

// Sender accepts outbound frames without blocking.
type Sender interface {
	Send(frame string) bool
}

// Egress formats board actions and chat lines as protocol frames. It satisfies
// premove.Transport and premove.Chat. In dry-run mode frames are only logged.
type Egress struct {
	s      Sender
	dryrun bool
	logger *zap.Logger
}

func NewEgress(s Sender, dryrun bool, logger *zap.Logger) *Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Egress{s: s, dryrun: dryrun, logger: logger}
}

func (e *Egress) Move(tok string) { e.send(protocol.MoveCommand(tok)) }

func (e *Egress) Premove(tok string, predrop bool) {
	e.send(protocol.PremoveCommand(tok, predrop))
}

func (e *Egress) Cancel() { e.send(protocol.CancelCommand) }

func (e *Egress) Say(text string) { e.send(protocol.ChatCommand(text)) }

func (e *Egress) send(frame string) {
	if e.dryrun || e.s == nil {
		e.logger.Info("ws_egress_dryrun", zap.String("frame", frame))
		return
	}
	e.s.Send(frame)
}
