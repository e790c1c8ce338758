package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsJobsWithinCapacity(t *testing.T) {
	pool, err := New(2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var (
		running int32
		peak    int32
		done    int32
		mu      sync.Mutex
	)
	for i := 0; i < 8; i++ {
		err := pool.Submit(context.Background(), func(context.Context) {
			n := atomic.AddInt32(&running, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			atomic.AddInt32(&done, 1)
		})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
	}
	pool.Release()

	if got := atomic.LoadInt32(&done); got != 8 {
		t.Fatalf("expected 8 finished jobs, got %d", got)
	}
	if peak > 2 {
		t.Fatalf("expected at most 2 concurrent jobs, saw %d", peak)
	}
}

func TestPoolPassesContextAndSurvivesPanics(t *testing.T) {
	pool, err := New(1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "doc-1")

	if err := pool.Submit(ctx, func(context.Context) { panic("boom") }); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	got := make(chan any, 1)
	if err := pool.Submit(ctx, func(jobCtx context.Context) { got <- jobCtx.Value(key{}) }); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	select {
	case v := <-got:
		if v != "doc-1" {
			t.Fatalf("expected job context value doc-1, got %v", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job after panic never ran")
	}
	pool.Release()
}

func TestPoolRejectsAfterRelease(t *testing.T) {
	pool, err := New(1)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	pool.Release()

	err = pool.Submit(context.Background(), func(context.Context) {})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
