package protocol

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		frame string
		want  Event
	}{
		{"connected", Event{Kind: KindConnected}},
		{"message hello there", Event{Kind: KindMessage, Payload: "hello there"}},
		{"userside white", Event{Kind: KindUserSide, Payload: "white"}},
		{"fen1 rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1", Event{Kind: KindFEN, Board: 1, Payload: "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"}},
		{"move2 e2e4", Event{Kind: KindMove, Board: 2, Payload: "e2e4"}},
		{"move1 ", Event{Kind: KindMove, Board: 1}},
		{"whitehand1 PNq", Event{Kind: KindWhiteHand, Board: 1, Payload: "PNq"}},
		{"times2 1200,1180", Event{Kind: KindTimes, Board: 2, Payload: "1200,1180"}},
		{"finished\r\n", Event{Kind: KindFinished}},
	}
	for _, c := range cases {
		got, err := Parse(c.frame)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.frame, err)
		}
		if got != c.want {
			t.Fatalf("Parse(%q) = %+v, want %+v", c.frame, got, c.want)
		}
	}

	if _, err := Parse("   "); !errors.Is(err, ErrEmptyFrame) {
		t.Fatalf("blank frame err = %v", err)
	}
	for _, bad := range []string{"fen3 x", "bogus", "fen x", "started1"} {
		if _, err := Parse(bad); !errors.Is(err, ErrUnknownEvent) {
			t.Fatalf("Parse(%q) err = %v, want ErrUnknownEvent", bad, err)
		}
	}
}

func TestCommands(t *testing.T) {
	if got := MoveCommand("N@E4"); got != "move n@e4" {
		t.Fatalf("MoveCommand = %q", got)
	}
	if got := PremoveCommand("e2e4", false); got != "premove e2e4 false" {
		t.Fatalf("PremoveCommand = %q", got)
	}
	if got := ChatCommand("/seek 5"); got != "seek 5" {
		t.Fatalf("ChatCommand slash = %q", got)
	}
	if got := ChatCommand("need knight"); got != "message need knight" {
		t.Fatalf("ChatCommand = %q", got)
	}
}
