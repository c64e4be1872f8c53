package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrTimeout matches every TimeoutError.
var ErrTimeout = errors.New("could not acquire DB write lock")

// TimeoutError is returned when the gate could not be acquired under the
// requested wait policy.
type TimeoutError struct {
	Waited      time.Duration
	NonBlocking bool
}

func (e *TimeoutError) Error() string {
	if e.NonBlocking {
		return ErrTimeout.Error() + " (non-blocking)"
	}
	return fmt.Sprintf("%s after %s", ErrTimeout.Error(), e.Waited)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// Timeout reports true, mirroring net.Error.
func (e *TimeoutError) Timeout() bool { return true }

// Policy controls how long Acquire waits.
// Wait=false or Timeout==0 tries once; Timeout<0 blocks until the context is done.
type Policy struct {
	Wait    bool
	Timeout time.Duration
}

// Forever blocks until the gate is free.
var Forever = Policy{Wait: true, Timeout: -1}

// Gate is a single exclusive lock with bounded, non-blocking and
// context-aware acquisition. Waiters are served in FIFO order.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate creates an unlocked gate.
func NewGate() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// Acquire takes the gate according to p.
// Returns *TimeoutError if the gate is still held when the policy gives up,
// or ctx.Err() if ctx ends first.
func (g *Gate) Acquire(ctx context.Context, p Policy) error {
	if !p.Wait || p.Timeout == 0 {
		if g.sem.TryAcquire(1) {
			return nil
		}
		return &TimeoutError{NonBlocking: true}
	}

	if p.Timeout < 0 {
		return g.sem.Acquire(ctx, 1)
	}

	start := time.Now()
	waitCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	err := g.sem.Acquire(waitCtx, 1)
	if err == nil {
		return nil
	}
	// Parent cancellation wins over our own deadline.
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &TimeoutError{Waited: time.Since(start)}
}

// Release frees the gate. It panics if the gate is not held.
func (g *Gate) Release() {
	g.sem.Release(1)
}

// Held reports whether the gate is currently taken.
func (g *Gate) Held() bool {
	if g.sem.TryAcquire(1) {
		g.sem.Release(1)
		return false
	}
	return true
}
