package utils

import (
	"context"
	"time"
)

// WaitOutcome is the result of a bounded readiness wait.
type WaitOutcome int

const (
	// WaitReady indicates the predicate became true within the bound.
	WaitReady WaitOutcome = iota

	// WaitTimedOut indicates the attempts were exhausted (or the context
	// was cancelled) before the predicate became true.
	WaitTimedOut
)

// WaitUntil polls predicate at the given interval until it returns true,
// the attempt budget is exhausted, or the context is cancelled.
//
// The predicate is checked once per attempt, before sleeping, so a
// condition that already holds returns WaitReady without waiting. External
// resources that initialize asynchronously (the chart widget's global
// handle, page anchor elements) have no readiness signal to subscribe to;
// bounded polling with an explicit timeout outcome is the integration
// contract for them.
func WaitUntil(ctx context.Context, predicate func() bool, interval time.Duration, maxAttempts int) WaitOutcome {
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if predicate() {
			return WaitReady
		}

		timer.Reset(interval)
		select {
		case <-ctx.Done():
			return WaitTimedOut
		case <-timer.C:
		}
	}

	if predicate() {
		return WaitReady
	}

	return WaitTimedOut
}
