package baselinker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/integration"
)

func TestLimiterSpacesConsecutiveCalls(t *testing.T) {
	limiter := NewLimiter(50*time.Millisecond, 8, 0, zap.NewNop())
	ctx := context.Background()

	var starts []time.Time
	for i := 0; i < 3; i++ {
		err := limiter.Schedule(ctx, "test", func(ctx context.Context) error {
			starts = append(starts, time.Now())
			return nil
		})
		require.NoError(t, err)
	}

	require.Len(t, starts, 3)
	for i := 1; i < len(starts); i++ {
		gap := starts[i].Sub(starts[i-1])
		assert.GreaterOrEqual(t, gap, 45*time.Millisecond, "calls %d and %d too close", i-1, i)
	}
}

func TestLimiterSerializesExecution(t *testing.T) {
	limiter := NewLimiter(0, 16, 0, zap.NewNop())
	ctx := context.Background()

	var inFlight, maxInFlight int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = limiter.Schedule(ctx, "test", func(ctx context.Context) error {
				current := atomic.AddInt32(&inFlight, 1)
				for {
					prev := atomic.LoadInt32(&maxInFlight)
					if current <= prev || atomic.CompareAndSwapInt32(&maxInFlight, prev, current) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
}

func TestLimiterRejectsWhenQueueFull(t *testing.T) {
	limiter := NewLimiter(0, 2, 0, zap.NewNop())
	ctx := context.Background()

	release := make(chan struct{})
	running := make(chan struct{})

	go func() {
		_ = limiter.Schedule(ctx, "slow", func(ctx context.Context) error {
			close(running)
			<-release
			return nil
		})
	}()
	<-running

	// Second caller occupies the last queue slot
	secondDone := make(chan error, 1)
	go func() {
		secondDone <- limiter.Schedule(ctx, "queued", func(ctx context.Context) error { return nil })
	}()

	// Give the second caller time to take its slot, then a third must be rejected
	var err error
	require.Eventually(t, func() bool {
		err = limiter.Schedule(ctx, "rejected", func(ctx context.Context) error { return nil })
		return errors.Is(err, integration.ErrRateLimitSaturated)
	}, time.Second, 5*time.Millisecond)

	close(release)
	require.NoError(t, <-secondDone)
}

func TestLimiterRetriesTransportErrors(t *testing.T) {
	limiter := NewLimiter(0, 4, 2, zap.NewNop())

	attempts := 0
	err := limiter.Schedule(context.Background(), "flaky", func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return &integration.TransportError{Op: "flaky", Err: errors.New("connection reset")}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestLimiterDoesNotRetryVendorErrors(t *testing.T) {
	limiter := NewLimiter(0, 4, 3, zap.NewNop())

	attempts := 0
	err := limiter.Schedule(context.Background(), "bad-token", func(ctx context.Context) error {
		attempts++
		return &integration.VendorError{Code: "ERROR_AUTH_TOKEN", Message: "invalid token"}
	})

	var vendorErr *integration.VendorError
	require.ErrorAs(t, err, &vendorErr)
	assert.Equal(t, 1, attempts)
}

func TestLimiterHonorsContextWhileWaiting(t *testing.T) {
	limiter := NewLimiter(time.Second, 4, 0, zap.NewNop())

	// First call stamps lastStart; second must wait a full interval
	require.NoError(t, limiter.Schedule(context.Background(), "first", func(ctx context.Context) error { return nil }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := limiter.Schedule(ctx, "second", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
