package waiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fenwickbrowser/corebrowser/internal/waiter"
)

func TestUntilSucceedsImmediately(t *testing.T) {
	calls := 0
	res := waiter.Until(context.Background(), func(ctx context.Context) waiter.PredicateResult {
		calls++
		return waiter.PredicateResult{Success: true}
	}, 100*time.Millisecond, 10*time.Millisecond)

	assert.True(t, res.Success)
	assert.Equal(t, 1, calls)
}

func TestUntilSucceedsAfterPolling(t *testing.T) {
	calls := 0
	res := waiter.Until(context.Background(), func(ctx context.Context) waiter.PredicateResult {
		calls++
		return waiter.PredicateResult{Success: calls >= 3}
	}, 500*time.Millisecond, 10*time.Millisecond)

	assert.True(t, res.Success)
	assert.GreaterOrEqual(t, calls, 3)
}

func TestUntilReturnsLastFailureAtTimeout(t *testing.T) {
	start := time.Now()
	res := waiter.Until(context.Background(), func(ctx context.Context) waiter.PredicateResult {
		return waiter.PredicateResult{Success: false, Error: "never ready"}
	}, 60*time.Millisecond, 10*time.Millisecond)
	elapsed := time.Since(start)

	assert.False(t, res.Success)
	assert.Equal(t, "never ready", res.Error)
	assert.Less(t, elapsed, 200*time.Millisecond, "must not overshoot the timeout by more than a poll interval or two")
}

func TestUntilRespectsParentContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := waiter.Until(ctx, func(ctx context.Context) waiter.PredicateResult {
		return waiter.PredicateResult{Success: false}
	}, time.Second, 10*time.Millisecond)

	assert.False(t, res.Success)
}

func TestUntilDefaultsApplied(t *testing.T) {
	calls := 0
	start := time.Now()
	res := waiter.Until(context.Background(), func(ctx context.Context) waiter.PredicateResult {
		calls++
		return waiter.PredicateResult{Success: false}
	}, 0, 0)
	elapsed := time.Since(start)

	assert.False(t, res.Success)
	assert.GreaterOrEqual(t, elapsed, waiter.DefaultTimeout-50*time.Millisecond)
	assert.Greater(t, calls, 1)
}
