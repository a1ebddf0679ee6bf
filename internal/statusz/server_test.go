package statusz

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/park285/debughouse/pkg/bughousedto"
)

func serve(t *testing.T, s *Server) *fasthttp.Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	go func() { _ = s.Serve(ln) }()
	t.Cleanup(func() {
		_ = s.Shutdown()
		_ = ln.Close()
	})
	return &fasthttp.Client{
		Dial: func(string) (net.Conn, error) { return ln.Dial() },
	}
}

func get(t *testing.T, c *fasthttp.Client, uri string) (int, []byte) {
	t.Helper()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()
	req.SetRequestURI("http://statusz" + uri)
	if err := c.Do(req, resp); err != nil {
		t.Fatalf("GET %s: %v", uri, err)
	}
	return resp.StatusCode(), append([]byte(nil), resp.Body()...)
}

func fixedSnapshot(context.Context) (bughousedto.SessionSnapshot, error) {
	return bughousedto.SessionSnapshot{
		GameID:    "g1",
		Connected: true,
		UserSide:  "white",
		Boards: []bughousedto.BoardSnapshot{
			{Board: 1, UserBoard: true, UserSide: "white"},
			{Board: 2, UserSide: "black"},
		},
	}, nil
}

func TestHealthz(t *testing.T) {
	c := serve(t, New("", fixedSnapshot))
	code, body := get(t, c, "/healthz")
	if code != fasthttp.StatusOK {
		t.Fatalf("status=%d body=%s", code, body)
	}
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil || out["status"] != "ok" {
		t.Fatalf("unexpected body %s (%v)", body, err)
	}
}

func TestBoards(t *testing.T) {
	c := serve(t, New("", fixedSnapshot))

	code, body := get(t, c, "/boards")
	if code != fasthttp.StatusOK {
		t.Fatalf("status=%d", code)
	}
	var snap bughousedto.SessionSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.GameID != "g1" || len(snap.Boards) != 2 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	code, body = get(t, c, "/boards?board=2")
	var b bughousedto.BoardSnapshot
	if code != fasthttp.StatusOK || json.Unmarshal(body, &b) != nil || b.UserSide != "black" {
		t.Fatalf("board 2: status=%d body=%s", code, body)
	}

	if code, _ = get(t, c, "/boards?board=7"); code != fasthttp.StatusNotFound {
		t.Fatalf("board 7: status=%d", code)
	}
}

func TestSnapshotError(t *testing.T) {
	failing := func(context.Context) (bughousedto.SessionSnapshot, error) {
		return bughousedto.SessionSnapshot{}, errors.New("session closed")
	}
	c := serve(t, New("", failing))
	code, body := get(t, c, "/boards")
	if code != fasthttp.StatusServiceUnavailable {
		t.Fatalf("status=%d", code)
	}
	var out struct {
		Error bughousedto.DomainError `json:"error"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.Error.Code != "unavailable" {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestSignalsAndNotFound(t *testing.T) {
	c := serve(t, New("", nil, WithSignals(func() []string { return []string{"bq", "sit"} })))
	code, body := get(t, c, "/signals")
	var out struct {
		Signals []string `json:"signals"`
	}
	if code != fasthttp.StatusOK || json.Unmarshal(body, &out) != nil || len(out.Signals) != 2 {
		t.Fatalf("signals: status=%d body=%s", code, body)
	}
	if code, _ = get(t, c, "/nope"); code != fasthttp.StatusNotFound {
		t.Fatalf("status=%d", code)
	}
	if code, _ = get(t, c, "/boards"); code != fasthttp.StatusServiceUnavailable {
		t.Fatalf("nil snapshot status=%d", code)
	}
}
