// Package retry runs an operation under a bounded attempt policy with
// linear backoff. A run moves through three states: Attempting(n),
// Succeeded and Failed. Succeeded and Failed are terminal.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// State is a retry run state
type State int

const (
	StateAttempting State = iota
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Transition describes one state change of a run.
// Attempt is the attempt number the transition leaves (1-based).
type Transition struct {
	From    State
	To      State
	Attempt int
	Delay   time.Duration // backoff slept before the next attempt
	Err     error         // failure that caused the transition, if any
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-time SleepFunc
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Policy configures a retry run
type Policy struct {
	// MaxAttempts is the total number of attempts (not retries)
	MaxAttempts int

	// BackoffBase scales the linear backoff: after attempt n fails the
	// run sleeps n*BackoffBase before attempt n+1
	BackoffBase time.Duration

	// AttemptTimeout bounds each attempt; zero means no per-attempt bound.
	// A timed-out attempt is a recoverable failure.
	AttemptTimeout time.Duration

	// Sleep performs the backoff wait (nil uses Sleep)
	Sleep SleepFunc

	// OnTransition observes every state change (optional)
	OnTransition func(Transition)
}

// DefaultPolicy is three attempts with 2s linear backoff
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BackoffBase: 2 * time.Second,
	}
}

// Backoff returns the delay slept after attempt n fails
func (p Policy) Backoff(n int) time.Duration {
	return time.Duration(n) * p.BackoffBase
}

func (p Policy) notify(t Transition) {
	if p.OnTransition != nil {
		p.OnTransition(t)
	}
}

// ExhaustedError is returned when every attempt failed
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as non-retryable: the run fails immediately
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs op until it succeeds, fails permanently, the parent context is
// done, or MaxAttempts attempts have failed.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T

	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	for attempt := 1; ; attempt++ {
		value, err := runAttempt(ctx, p.AttemptTimeout, attempt, op)
		if err == nil {
			p.notify(Transition{From: StateAttempting, To: StateSucceeded, Attempt: attempt})
			return value, nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			p.notify(Transition{From: StateAttempting, To: StateFailed, Attempt: attempt, Err: perm.err})
			return zero, perm.err
		}

		// Parent cancellation is not an attempt failure
		if ctxErr := ctx.Err(); ctxErr != nil {
			p.notify(Transition{From: StateAttempting, To: StateFailed, Attempt: attempt, Err: ctxErr})
			return zero, ctxErr
		}

		if attempt >= maxAttempts {
			p.notify(Transition{From: StateAttempting, To: StateFailed, Attempt: attempt, Err: err})
			return zero, &ExhaustedError{Attempts: attempt, Last: err}
		}

		delay := p.Backoff(attempt)
		p.notify(Transition{From: StateAttempting, To: StateAttempting, Attempt: attempt, Delay: delay, Err: err})

		if err := sleep(ctx, delay); err != nil {
			p.notify(Transition{From: StateAttempting, To: StateFailed, Attempt: attempt, Err: err})
			return zero, err
		}
	}
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, attempt int, op func(ctx context.Context, attempt int) (T, error)) (T, error) {
	if timeout <= 0 {
		return op(ctx, attempt)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(attemptCtx, attempt)
}
