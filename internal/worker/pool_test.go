package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPool_OutcomesInSubmissionOrder(t *testing.T) {
	pool := NewPool(context.Background(), 3)

	for i := 0; i < 10; i++ {
		delay := time.Duration(10-i) * time.Millisecond
		fail := i%4 == 0
		pool.Submit(fmt.Sprintf("task-%d", i), func(ctx context.Context) error {
			time.Sleep(delay)
			if fail {
				return errors.New("boom")
			}
			return nil
		})
	}

	outcomes := pool.Wait()
	if len(outcomes) != 10 {
		t.Fatalf("expected 10 outcomes, got %d", len(outcomes))
	}
	for i, o := range outcomes {
		if o.Name != fmt.Sprintf("task-%d", i) {
			t.Errorf("outcome %d: expected task-%d, got %s", i, i, o.Name)
		}
		if (o.Err != nil) != (i%4 == 0) {
			t.Errorf("outcome %d: unexpected error %v", i, o.Err)
		}
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const workers = 3
	pool := NewPool(context.Background(), workers)

	var running, peak atomic.Int32
	for i := 0; i < 20; i++ {
		pool.Submit("task", func(ctx context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return nil
		})
	}
	pool.Wait()

	if peak.Load() > workers {
		t.Errorf("expected at most %d concurrent tasks, saw %d", workers, peak.Load())
	}
}

func TestPool_NonPositiveWorkers(t *testing.T) {
	pool := NewPool(context.Background(), 0)
	var ran atomic.Bool
	pool.Submit("only", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	pool.Wait()
	if !ran.Load() {
		t.Errorf("expected a pool with 0 workers to fall back to 1")
	}
}

func TestPool_CancelledTasksReportContextError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)

	started := make(chan struct{})
	pool.Submit("blocking", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	pool.Submit("queued", func(ctx context.Context) error {
		t.Errorf("queued task should not run after cancellation")
		return nil
	})

	<-started
	cancel()

	outcomes := pool.Wait()
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	for _, o := range outcomes {
		if !errors.Is(o.Err, context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", o.Name, o.Err)
		}
	}
}

func TestPool_SubmitAfterWait(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	if got := pool.Wait(); len(got) != 0 {
		t.Errorf("expected no outcomes, got %d", len(got))
	}
	if pool.Submit("late", func(ctx context.Context) error { return nil }) {
		t.Errorf("expected submit after wait to be rejected")
	}
	// Wait is idempotent
	pool.Wait()
}

func TestPool_ManyTasksDoNotDeadlock(t *testing.T) {
	pool := NewPool(context.Background(), 2)

	done := make(chan []Outcome)
	go func() {
		for i := 0; i < 200; i++ {
			pool.Submit("task", func(ctx context.Context) error { return nil })
		}
		done <- pool.Wait()
	}()

	select {
	case outcomes := <-done:
		if len(outcomes) != 200 {
			t.Errorf("expected 200 outcomes, got %d", len(outcomes))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pool deadlocked")
	}
}
