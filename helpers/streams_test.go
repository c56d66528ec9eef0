package helpers

import (
	"context"
	"testing"
	"time"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for value")
	}
	panic("unreachable")
}

func TestMap(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	in := make(chan int)
	out := Map(ctx, in, func(v int) string { return string(rune('a' + v)) })

	go func() { in <- 2 }()
	if got := receive(t, out); got != "c" {
		t.Errorf("Map() = %q, want c", got)
	}

	close(in)
	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected output to close with input")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("output not closed")
	}
}

func TestCombineLatestWaitsForBoth(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	as := make(chan int)
	bs := make(chan string)
	out := CombineLatest(ctx, as, bs, func(a int, b string) string {
		return b + string(rune('0'+a))
	})

	as <- 1
	select {
	case v := <-out:
		t.Fatalf("emitted %q before both inputs had a value", v)
	case <-time.After(50 * time.Millisecond):
	}

	bs <- "x"
	if got := receive(t, out); got != "x1" {
		t.Errorf("got %q, want x1", got)
	}

	as <- 2
	if got := receive(t, out); got != "x2" {
		t.Errorf("got %q, want x2", got)
	}
}

func TestCombineLatestClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	out := CombineLatest(ctx, make(chan int), make(chan int), func(a, b int) int { return a + b })
	cancel()

	select {
	case _, ok := <-out:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("output not closed after cancel")
	}
}

func TestFirst(t *testing.T) {
	ch := make(chan int, 1)
	ch <- 7
	if v, ok := First(context.Background(), ch); !ok || v != 7 {
		t.Errorf("First() = %d, %v", v, ok)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := First(ctx, make(chan int)); ok {
		t.Error("First() on cancelled context reported a value")
	}
}
