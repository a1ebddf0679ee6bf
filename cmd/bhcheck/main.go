package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/park285/debughouse/internal/bhws"
	"github.com/park285/debughouse/internal/protocol"
)

// bhcheck connects to the bughouse server, optionally sends one command and
// prints every frame it receives for a short window.
func main() {
	wsURL := os.Getenv("BUGHOUSE_WS_URL")
	username := os.Getenv("BUGHOUSE_USERNAME")
	password := os.Getenv("BUGHOUSE_PASSWORD")

	if wsURL == "" {
		log.Fatal("BUGHOUSE_WS_URL is required")
	}
	dialURL, err := bhws.DialURL(wsURL, username, password)
	if err != nil {
		log.Fatalf("bad BUGHOUSE_WS_URL: %v", err)
	}

    ws := bhws.New(dialURL, 0, time.Second, 8, nil)
    ws.OnStateChange(func(state bhws.State) {
        log.Printf("WS state: %s", state)
    })
	ws.OnMessage(func(frame string) {
		ev, err := protocol.Parse(frame)
		if err != nil {
			fmt.Printf("WS raw %q (%v)\n", frame, err)
			return
		}
		fmt.Printf("WS %-10s board=%d payload=%q\n", ev.Kind, ev.Board, ev.Payload)
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := ws.Connect(cctx); err != nil {
		log.Printf("WS connect error: %v", err)
		return
	}

	if cmd := strings.TrimSpace(strings.Join(os.Args[1:], " ")); cmd != "" {
		frame := protocol.ChatCommand(cmd)
		log.Printf("sending %q", frame)
		ws.Send(frame)
	}

	// Observe for a short window
	t := time.NewTimer(10 * time.Second)
	<-t.C

	_ = ws.Close(context.Background())
}
