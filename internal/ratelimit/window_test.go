package ratelimit

import (
	"sync"
	"testing"
	"time"
)

func TestAdmitUpToLimit(t *testing.T) {
	l := New(100, time.Hour)

	for i := 0; i < 100; i++ {
		if !l.Admit("caller") {
			t.Fatalf("call %d rejected, want all %d admitted", i+1, 100)
		}
	}
	if l.Admit("caller") {
		t.Error("call 101 admitted, want rejected")
	}
}

func TestIdentifiersIndependent(t *testing.T) {
	l := New(5, time.Hour)

	for i := 0; i < 5; i++ {
		if !l.Admit("a") {
			t.Fatalf("a call %d rejected", i+1)
		}
	}
	if l.Admit("a") {
		t.Error("a admitted over limit")
	}
	// Exhausting a must not affect b.
	if !l.Admit("b") {
		t.Error("b's first call rejected after a was exhausted")
	}
}

func TestWindowSlides(t *testing.T) {
	l := New(3, time.Minute)
	base := time.Now()
	l.now = func() time.Time { return base }

	for i := 0; i < 3; i++ {
		if !l.Admit("x") {
			t.Fatalf("call %d rejected", i+1)
		}
	}
	if l.Admit("x") {
		t.Fatal("admitted at capacity")
	}

	// Just before the oldest entry leaves the window: still full.
	l.now = func() time.Time { return base.Add(59 * time.Second) }
	if l.Admit("x") {
		t.Error("admitted before window slid")
	}

	// The first three entries age out; capacity frees up.
	l.now = func() time.Time { return base.Add(61 * time.Second) }
	if !l.Admit("x") {
		t.Error("rejected after stale entries left the window")
	}
}

func TestRejectedAttemptNotRecorded(t *testing.T) {
	l := New(2, time.Minute)
	base := time.Now()
	l.now = func() time.Time { return base }

	l.Admit("y")
	l.Admit("y")

	// Hammer rejections; they must not extend the window or count.
	for i := 0; i < 10; i++ {
		if l.Admit("y") {
			t.Fatal("admitted over limit")
		}
	}

	l.now = func() time.Time { return base.Add(61 * time.Second) }
	if !l.Admit("y") {
		t.Error("rejected attempts were recorded and blocked a fresh window")
	}
}

func TestRemaining(t *testing.T) {
	l := New(4, time.Hour)

	if got := l.Remaining("fresh"); got != 4 {
		t.Errorf("Remaining(fresh) = %d, want 4", got)
	}

	l.Admit("fresh")
	l.Admit("fresh")
	if got := l.Remaining("fresh"); got != 2 {
		t.Errorf("Remaining = %d, want 2", got)
	}
	// Remaining does not consume.
	if got := l.Remaining("fresh"); got != 2 {
		t.Errorf("Remaining consumed a slot: got %d, want 2", got)
	}
}

func TestAdmitConcurrentSameIdentifier(t *testing.T) {
	l := New(50, time.Hour)

	var wg sync.WaitGroup
	admitted := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			admitted <- l.Admit("hot")
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for ok := range admitted {
		if ok {
			count++
		}
	}
	if count != 50 {
		t.Errorf("admitted %d concurrent calls, want exactly 50", count)
	}
}

func TestAdmitConcurrentDistinctIdentifiers(t *testing.T) {
	l := New(1, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%26))
			l.Admit(id)
		}(i)
	}
	wg.Wait()

	// Every identifier got exactly one slot; at least one of them is spent.
	if l.Remaining("a") != 0 {
		t.Error("expected identifier a to be at capacity")
	}
}
