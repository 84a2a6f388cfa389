package debugout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/wippyai/adae-bridge/async"
)

func get(t *testing.T, c *Channel) string {
	t.Helper()
	f := c.GetFuture(async.Direct)
	if !f.Settled() {
		t.Fatal("expected an immediate message")
	}
	msg, err := f.Await(context.Background())
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	return msg
}

func TestChannel_FIFO(t *testing.T) {
	c := New(nil)
	c.Output("a")
	c.Output("b")
	c.Output("c")

	for _, want := range []string{"a", "b", "c"} {
		if got := get(t, c); got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0", c.Len())
	}
}

func TestChannel_Overflow(t *testing.T) {
	c := New(nil)
	for i := 0; i < 101; i++ {
		c.Output(fmt.Sprintf("m%d", i))
	}

	if c.Len() != DefaultCapacity {
		t.Fatalf("Len = %d, want %d", c.Len(), DefaultCapacity)
	}
	if got := get(t, c); got != Overflow {
		t.Fatalf("first = %q, want overflow marker", got)
	}
	if got := get(t, c); got != "m2" {
		t.Fatalf("second = %q, want m2", got)
	}

	var last string
	for c.Len() > 0 {
		last = get(t, c)
	}
	if last != "m100" {
		t.Fatalf("last = %q, want m100", last)
	}
}

func TestChannel_RepeatedOverflowKeepsOneMarker(t *testing.T) {
	c := NewWithCapacity(nil, 3)
	for i := 0; i < 10; i++ {
		c.Output(fmt.Sprintf("m%d", i))
	}

	want := []string{Overflow, "m8", "m9"}
	for _, w := range want {
		if got := get(t, c); got != w {
			t.Fatalf("got %q, want %q", got, w)
		}
	}
}

func TestChannel_Waiter(t *testing.T) {
	c := New(nil)
	f := c.GetFuture(async.Direct)
	if f.Settled() {
		t.Fatal("empty channel should not settle immediately")
	}
	if !c.Waiting() {
		t.Fatal("expected a pending waiter")
	}

	c.Output("hello")
	if c.Len() != 0 || c.Waiting() {
		t.Fatalf("backlog and waiter must both be empty: Len=%d Waiting=%v", c.Len(), c.Waiting())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := f.Await(ctx)
	if err != nil || msg != "hello" {
		t.Fatalf("Await = %q, %v", msg, err)
	}
}

func TestChannel_SecondWaiterWins(t *testing.T) {
	c := New(nil)
	first := c.GetFuture(async.Direct)
	second := c.GetFuture(async.Direct)

	c.Output("x")

	if !second.Settled() {
		t.Fatal("latest waiter should receive the message")
	}
	if first.Settled() {
		t.Fatal("replaced waiter should be abandoned")
	}
}

func TestChannel_ClosedChannelDropsMessage(t *testing.T) {
	c := New(nil)
	closed := async.ChannelFunc(func(func()) error { return async.ErrChannelClosed })
	f := async.NewFuture[string]()
	c.Get(closed, f)

	c.Output("lost")

	if f.Settled() {
		t.Fatal("future should not settle through a closed channel")
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0", c.Len())
	}
}

func TestChannel_Queue(t *testing.T) {
	q := async.NewQueue(nil)
	defer q.Close()

	c := New(nil)
	f := c.GetFuture(q)
	c.Sink()("via queue")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, err := f.Await(ctx)
	if err != nil || msg != "via queue" {
		t.Fatalf("Await = %q, %v", msg, err)
	}
}
