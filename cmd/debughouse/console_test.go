package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/park285/debughouse/internal/premove"
	"github.com/park285/debughouse/pkg/bughousedto"
)

type fakeController struct {
	calls  []string
	reject bool
}

func (f *fakeController) Submit(_ context.Context, board int, tok string) error {
	f.calls = append(f.calls, "submit "+string(rune('0'+board))+" "+tok)
	if f.reject {
		return premove.ErrMoveRejected
	}
	return nil
}

func (f *fakeController) Cancel(context.Context) error {
	f.calls = append(f.calls, "cancel")
	return nil
}

func (f *fakeController) Chat(_ context.Context, text string) error {
	f.calls = append(f.calls, "chat "+text)
	return nil
}

func (f *fakeController) Signal(_ context.Context, name string) error {
	f.calls = append(f.calls, "signal "+name)
	return nil
}

func (f *fakeController) Signals() []string { return []string{"bq", "sit"} }

func (f *fakeController) SetUnderPromote(_ context.Context, v bool) error {
	if v {
		f.calls = append(f.calls, "underpromote on")
	} else {
		f.calls = append(f.calls, "underpromote off")
	}
	return nil
}

func (f *fakeController) Snapshot(context.Context) (bughousedto.SessionSnapshot, error) {
	return bughousedto.SessionSnapshot{GameID: "g1"}, nil
}

func TestConsoleDispatch(t *testing.T) {
	f := &fakeController{}
	var out bytes.Buffer
	c := newConsole(f, &out)
	input := strings.Join([]string{
		"e2e4",
		"m N@f3",
		"p g1f3",
		"cancel",
		"say good luck",
		"/seek 5",
		"sig bq",
		"underpromote on",
		"status",
		"quit",
		"e7e5",
	}, "\n")
	if err := c.Run(context.Background(), strings.NewReader(input)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{
		"submit 1 e2e4",
		"submit 1 N@f3",
		"submit 2 g1f3",
		"cancel",
		"chat good luck",
		"chat /seek 5",
		"signal bq",
		"underpromote on",
	}
	if strings.Join(f.calls, "|") != strings.Join(want, "|") {
		t.Fatalf("calls = %v", f.calls)
	}
	if !strings.Contains(out.String(), `"game_id": "g1"`) {
		t.Fatalf("status not printed: %s", out.String())
	}
}

func TestConsoleErrors(t *testing.T) {
	f := &fakeController{reject: true}
	var out bytes.Buffer
	c := newConsole(f, &out)
	if err := c.exec(context.Background(), "e2e5"); err != nil {
		t.Fatalf("rejection should be reported, not returned: %v", err)
	}
	if !strings.Contains(out.String(), "rejected: e2e5") {
		t.Fatalf("out = %q", out.String())
	}
	if err := c.exec(context.Background(), "frobnicate now"); err == nil {
		t.Fatalf("expected unknown command error")
	}
	if err := c.exec(context.Background(), "underpromote maybe"); err == nil {
		t.Fatalf("expected usage error")
	}
	if err := c.exec(context.Background(), "sig"); err == nil || !strings.Contains(err.Error(), "bq|sit") {
		t.Fatalf("expected signal usage, got %v", err)
	}
}
