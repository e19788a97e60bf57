// Package poll implements bounded-attempt predicate waiting.
//
// Every readiness check in the pipeline (order table rendered, carrier
// form fields present, address suggestions shown) is the same shape:
// try a predicate up to N times with a fixed delay between attempts.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrExhausted is returned when the predicate never succeeded within
// the attempt budget.
var ErrExhausted = errors.New("poll: attempts exhausted")

// Wait calls pred up to attempts times, sleeping delay between calls.
// It returns nil as soon as pred reports true. A predicate error stops
// the loop immediately. Context cancellation is honored between attempts.
func Wait(ctx context.Context, attempts int, delay time.Duration, pred func() (bool, error)) error {
	if attempts <= 0 {
		attempts = 1
	}

	for i := 0; i < attempts; i++ {
		ok, err := pred()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		if i == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return ErrExhausted
}
