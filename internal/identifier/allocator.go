package identifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sjperalta/techlog-api/pkg/logger"
)

// ErrConflict is returned by a CommitFunc when the chosen identifier is already taken.
// The allocator retries with a fresh snapshot.
var ErrConflict = errors.New("identifier already allocated")

// ErrExhausted is returned when every attempt hit a conflict
var ErrExhausted = errors.New("identifier allocation retries exhausted")

// ListFunc returns the identifiers currently in use for a prefix
type ListFunc func(ctx context.Context) ([]string, error)

// CommitFunc persists a record under the chosen identifier
type CommitFunc func(ctx context.Context, id string) error

// Allocator hands out sequential identifiers, assuming a single writer per prefix.
// Two callers reading the same snapshot can still pick the same value; the loser's
// commit is expected to fail on the unique index and is retried with a fresh read.
type Allocator struct {
	maxAttempts int
	newBackOff  func() backoff.BackOff
}

// NewAllocator creates an allocator that tries at most maxAttempts times
func NewAllocator(maxAttempts int) *Allocator {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Allocator{
		maxAttempts: maxAttempts,
		newBackOff: func() backoff.BackOff {
			bo := backoff.NewExponentialBackOff()
			bo.InitialInterval = 20 * time.Millisecond
			bo.MaxInterval = 500 * time.Millisecond
			return bo
		},
	}
}

// WithBackOff replaces the retry policy. BackOff values are stateful, so a fresh one is built per call.
func (a *Allocator) WithBackOff(fn func() backoff.BackOff) *Allocator {
	a.newBackOff = fn
	return a
}

// Allocate reads the in-use identifiers, derives the next one and commits it.
// The snapshot is read again on every attempt, never reused.
func (a *Allocator) Allocate(ctx context.Context, prefix string, list ListFunc, commit CommitFunc) (string, error) {
	var allocated string
	attempt := 0

	op := func() error {
		attempt++
		existing, err := list(ctx)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to list %s identifiers: %w", prefix, err))
		}

		candidate := Next(prefix, existing)
		if err := commit(ctx, candidate); err != nil {
			if errors.Is(err, ErrConflict) {
				return err
			}
			return backoff.Permanent(err)
		}
		allocated = candidate
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(a.newBackOff(), uint64(a.maxAttempts-1)), ctx)
	err := backoff.RetryNotify(op, bo, func(err error, wait time.Duration) {
		logger.Warn("Identifier conflict, retrying", "prefix", prefix, "attempt", attempt, "wait", wait)
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return "", fmt.Errorf("%w: %s after %d attempts", ErrExhausted, prefix, attempt)
		}
		return "", err
	}
	return allocated, nil
}
