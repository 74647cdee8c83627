package baselinker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eempirepl/allegro-profit-analyzer/internal/domain/integration"
)

// Limiter serializes outbound vendor calls. At most one request is in
// flight, consecutive request starts are spaced by a minimum interval,
// and the number of callers allowed to wait is bounded. When the wait
// queue is full new work is rejected immediately with
// integration.ErrRateLimitSaturated rather than queued without bound.
type Limiter struct {
	minInterval time.Duration
	maxRetries  int
	logger      *zap.Logger

	// queue bounds how many callers may wait for the execution token
	queue chan struct{}
	// exec is the single execution token
	exec chan struct{}
	// lastStart is owned by the token holder
	lastStart time.Time
}

// NewLimiter creates a limiter with the given spacing, queue bound and
// retry budget for transient transport failures.
func NewLimiter(minInterval time.Duration, queueCapacity, maxRetries int, logger *zap.Logger) *Limiter {
	if queueCapacity < 1 {
		queueCapacity = 1
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	l := &Limiter{
		minInterval: minInterval,
		maxRetries:  maxRetries,
		logger:      logger.Named("limiter"),
		queue:       make(chan struct{}, queueCapacity),
		exec:        make(chan struct{}, 1),
	}
	l.exec <- struct{}{}
	return l
}

// Schedule runs job under the limiter's pacing rules. It blocks until the
// job has run (or retries are exhausted), the context is cancelled, or the
// wait queue is already full, in which case it fails fast.
func (l *Limiter) Schedule(ctx context.Context, op string, job func(ctx context.Context) error) error {
	select {
	case l.queue <- struct{}{}:
	default:
		l.logger.Warn("request rejected, wait queue full", zap.String("op", op))
		return integration.ErrRateLimitSaturated
	}
	defer func() { <-l.queue }()

	select {
	case <-l.exec:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { l.exec <- struct{}{} }()

	var err error
	for attempt := 0; ; attempt++ {
		if werr := l.waitForSlot(ctx); werr != nil {
			return werr
		}
		l.lastStart = time.Now()

		err = job(ctx)
		if err == nil {
			return nil
		}
		if !integration.IsRetryable(err) || attempt >= l.maxRetries {
			return err
		}
		l.logger.Warn("transport failure, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
}

// waitForSlot sleeps out the remainder of the spacing interval since the
// previous request start, honoring context cancellation.
func (l *Limiter) waitForSlot(ctx context.Context) error {
	if l.lastStart.IsZero() {
		return nil
	}
	wait := l.minInterval - time.Since(l.lastStart)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
