package xmppc

import (
	"testing"
	"time"

	"github.com/0ad/lobby-bots/internal/muc"
)

func TestEmitDeliversWhileOpen(t *testing.T) {
	c := &Client{events: make(chan muc.Event, 1), done: make(chan struct{})}

	if !c.emit(muc.Message{Room: "arena", Nick: "bob", Body: "hi"}) {
		t.Fatal("emit reported failure on an open client")
	}
	if got := <-c.events; got.(muc.Message).Nick != "bob" {
		t.Fatalf("event = %+v", got)
	}
}

func TestEmitUnblocksAfterClose(t *testing.T) {
	c := &Client{events: make(chan muc.Event, 1), done: make(chan struct{})}

	// Fill the buffer so the next send would block forever without the
	// done channel.
	c.emit(muc.Presence{Room: "arena", Nick: "bob"})
	close(c.done)

	result := make(chan bool, 1)
	go func() {
		result <- c.emit(muc.Presence{Room: "arena", Nick: "alice"})
	}()

	select {
	case delivered := <-result:
		if delivered {
			t.Fatal("emit reported delivery on a closed client with a full buffer")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("emit blocked after close")
	}
}
