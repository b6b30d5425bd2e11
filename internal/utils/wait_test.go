package utils

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Test_WaitUntil_ImmediatelyReady tests that an already-true predicate
// returns without sleeping
func Test_WaitUntil_ImmediatelyReady(t *testing.T) {
	start := time.Now()

	outcome := WaitUntil(context.Background(), func() bool { return true }, 50*time.Millisecond, 100)

	assert.Equal(t, WaitReady, outcome, "Should report ready")
	assert.Less(t, time.Since(start), 50*time.Millisecond, "Should not wait a full interval")
}

// Test_WaitUntil_BecomesReady tests that the predicate is re-polled until
// it turns true
func Test_WaitUntil_BecomesReady(t *testing.T) {
	var calls atomic.Int32

	outcome := WaitUntil(context.Background(), func() bool {
		return calls.Add(1) >= 3
	}, time.Millisecond, 100)

	assert.Equal(t, WaitReady, outcome, "Should report ready once the predicate turns true")
	assert.Equal(t, int32(3), calls.Load(), "Should stop polling after readiness")
}

// Test_WaitUntil_TimedOut tests attempt exhaustion
func Test_WaitUntil_TimedOut(t *testing.T) {
	var calls atomic.Int32

	outcome := WaitUntil(context.Background(), func() bool {
		calls.Add(1)
		return false
	}, time.Millisecond, 5)

	assert.Equal(t, WaitTimedOut, outcome, "Should report timeout after exhausting attempts")
	assert.Equal(t, int32(6), calls.Load(), "Should poll once per attempt plus a final check")
}

// Test_WaitUntil_ContextCancelled tests cancellation during the wait
func Test_WaitUntil_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome := WaitUntil(ctx, func() bool { return false }, time.Hour, 100)

	assert.Equal(t, WaitTimedOut, outcome, "Cancellation should surface as a timeout outcome")
}
