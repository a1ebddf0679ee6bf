// Package protocol parses server frames and formats client commands for the
// line-oriented bughouse server protocol. Every frame is "<kind> <payload>".
package protocol

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyFrame   = errors.New("empty frame")
	ErrUnknownEvent = errors.New("unknown event")
)

type Kind string

const (
	KindConnected Kind = "connected"
	KindMessage   Kind = "message"
	KindStarted   Kind = "started"
	KindFinished  Kind = "finished"
	KindUserSide  Kind = "userside"
	KindPong      Kind = "pong"

	// per-board events carry a trailing board number on the wire: fen1, fen2, ...
	KindFEN       Kind = "fen"
	KindMove      Kind = "move"
	KindWhiteHand Kind = "whitehand"
	KindBlackHand Kind = "blackhand"
	KindTimes     Kind = "times"
	KindPlayers   Kind = "players"
	KindRatings   Kind = "ratings"
)

var globalKinds = map[Kind]bool{
	KindConnected: true,
	KindMessage:   true,
	KindStarted:   true,
	KindFinished:  true,
	KindUserSide:  true,
	KindPong:      true,
}

var boardKinds = map[Kind]bool{
	KindFEN:       true,
	KindMove:      true,
	KindWhiteHand: true,
	KindBlackHand: true,
	KindTimes:     true,
	KindPlayers:   true,
	KindRatings:   true,
}

// Event is one inbound frame. Board is 1 for the user's board, 2 for the
// partner's, and 0 for events that are not tied to a board.
type Event struct {
	Kind    Kind
	Board   int
	Payload string
}

func (e Event) String() string {
	if e.Board > 0 {
		return fmt.Sprintf("%s%d %s", e.Kind, e.Board, e.Payload)
	}
	if e.Payload == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + " " + e.Payload
}

// Parse splits a frame into its event. The payload keeps internal spaces.
func Parse(frame string) (Event, error) {
	frame = strings.TrimRight(frame, "\r\n")
	if strings.TrimSpace(frame) == "" {
		return Event{}, ErrEmptyFrame
	}
	name, payload, _ := strings.Cut(frame, " ")
	name = strings.ToLower(name)

	if globalKinds[Kind(name)] {
		return Event{Kind: Kind(name), Payload: payload}, nil
	}
	if n := len(name); n > 1 {
		switch name[n-1] {
		case '1', '2':
			k := Kind(name[:n-1])
			if boardKinds[k] {
				return Event{Kind: k, Board: int(name[n-1] - '0'), Payload: strings.TrimSpace(payload)}, nil
			}
		}
	}
	return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

const CancelCommand = "cancel"

func MoveCommand(tok string) string { return "move " + strings.ToLower(tok) }

func PremoveCommand(tok string, predrop bool) string {
	return fmt.Sprintf("premove %s %t", strings.ToLower(tok), predrop)
}

// ChatCommand turns a chat line into a frame. A leading slash sends the rest
// as a raw server command ("/seek 5" -> "seek 5").
func ChatCommand(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "/") {
		return strings.TrimSpace(text[1:])
	}
	return "message " + text
}
