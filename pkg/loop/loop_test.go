package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/refetch-dev/refetch/pkg/resource"
)

func TestDispatchRunsSerially(t *testing.T) {
	l := New()
	l.Start()
	defer l.Stop()

	var mu sync.Mutex
	order := []int{}
	done := make(chan struct{})

	for i := 0; i < 100; i++ {
		i := i
		l.Dispatch(func() {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			if i == 99 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Timeout waiting for dispatches")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, v := range order {
		if v != i {
			t.Fatalf("Dispatch order broken at %d: got %d", i, v)
		}
	}
}

func TestStopDrainsQueue(t *testing.T) {
	l := New()
	l.Start()

	ran := 0
	var mu sync.Mutex
	for i := 0; i < 10; i++ {
		l.Dispatch(func() {
			mu.Lock()
			ran++
			mu.Unlock()
		})
	}

	l.Stop()
	mu.Lock()
	if ran != 10 {
		t.Errorf("Expected 10 dispatches to drain, got %d", ran)
	}
	mu.Unlock()

	// Dispatch after Stop is discarded, not blocked.
	l.Dispatch(func() { t.Error("Dispatch after Stop must not run") })
	time.Sleep(10 * time.Millisecond)
}

func TestDispatchRecoversPanic(t *testing.T) {
	l := New()
	l.Start()
	defer l.Stop()

	l.Dispatch(func() { panic("kaboom") })

	done := make(chan struct{})
	l.Dispatch(func() { close(done) })
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Loop died after a panicking dispatch")
	}
}

func TestResourceCommitsOnLoop(t *testing.T) {
	l := New()
	l.Start()
	defer l.Stop()

	r := resource.New(func(ctx context.Context) (string, error) {
		return "data", nil
	}, resource.WithCtx(l), resource.Deferred())
	defer r.Close()

	h := r.Revalidate()
	if _, err := h.Await(context.Background()); err != nil {
		t.Fatalf("Revalidate failed: %v", err)
	}

	// Read the snapshot on the loop itself, where commits are ordered.
	snap := make(chan resource.Snapshot[string], 1)
	deadline := time.After(time.Second)
	for {
		got := make(chan resource.Snapshot[string], 1)
		l.Dispatch(func() { got <- r.Snapshot() })
		select {
		case s := <-got:
			if s.State == resource.Ready {
				snap <- s
			}
		case <-deadline:
			t.Fatal("Timeout waiting for commit on loop")
		}
		select {
		case s := <-snap:
			if s.Data != "data" {
				t.Errorf("Snapshot data = %q, want 'data'", s.Data)
			}
			return
		default:
		}
	}
}

func TestBudgetLimitsFetches(t *testing.T) {
	b := NewBudget(2, time.Minute)

	if err := b.CheckFetch(); err != nil {
		t.Fatalf("First fetch rejected: %v", err)
	}
	if err := b.CheckFetch(); err != nil {
		t.Fatalf("Second fetch rejected: %v", err)
	}
	if err := b.CheckFetch(); err != resource.ErrBudgetExceeded {
		t.Fatalf("Expected ErrBudgetExceeded, got %v", err)
	}
	if b.InWindow() != 2 {
		t.Errorf("InWindow() = %d, want 2", b.InWindow())
	}
}

func TestBudgetZeroMeansUnlimited(t *testing.T) {
	b := NewBudget(0, time.Second)
	for i := 0; i < 100; i++ {
		if err := b.CheckFetch(); err != nil {
			t.Fatalf("Unlimited budget rejected fetch %d: %v", i, err)
		}
	}
}

func TestBudgetWindowExpires(t *testing.T) {
	b := NewBudget(1, 20*time.Millisecond)

	if err := b.CheckFetch(); err != nil {
		t.Fatalf("First fetch rejected: %v", err)
	}
	if err := b.CheckFetch(); err == nil {
		t.Fatal("Expected rejection inside window")
	}

	time.Sleep(30 * time.Millisecond)
	if err := b.CheckFetch(); err != nil {
		t.Fatalf("Expected window to expire, got %v", err)
	}
}

func TestLoopBudgetWiring(t *testing.T) {
	l := New(WithBudget(NewBudget(1, time.Minute)))
	l.Start()
	defer l.Stop()

	r := resource.New(func(ctx context.Context) (string, error) {
		return "data", nil
	}, resource.WithCtx(l), resource.Deferred())
	defer r.Close()

	h1 := r.Revalidate()
	if _, err := h1.Await(context.Background()); err != nil {
		t.Fatalf("First revalidate rejected: %v", err)
	}

	h2 := r.Revalidate()
	if _, err := h2.Await(context.Background()); err != resource.ErrBudgetExceeded {
		t.Fatalf("Expected ErrBudgetExceeded, got %v", err)
	}
}
