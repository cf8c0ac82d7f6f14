package ai

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"golang.org/x/time/rate"
)

// GuardedModel decorates a ChatModel with a local token-bucket rate
// limiter consulted before each call and a bounded exponential-backoff
// retry for transient failures. Permanent failures are returned on the
// first occurrence.
type GuardedModel struct {
	inner       ChatModel
	limiter     *rate.Limiter
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// GuardOption configures a GuardedModel.
type GuardOption func(*GuardedModel)

// WithRateLimit caps calls at qps with the given burst.
func WithRateLimit(qps float64, burst int) GuardOption {
	return func(g *GuardedModel) {
		g.limiter = rate.NewLimiter(rate.Limit(qps), burst)
	}
}

// WithMaxAttempts sets the retry attempt cap. Values below one are ignored.
func WithMaxAttempts(n int) GuardOption {
	return func(g *GuardedModel) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the base delay between retries; it doubles per attempt.
func WithBaseDelay(d time.Duration) GuardOption {
	return func(g *GuardedModel) {
		if d > 0 {
			g.baseDelay = d
		}
	}
}

// WithGuardLogger sets a custom logger. Default is slog.Default().
func WithGuardLogger(logger *slog.Logger) GuardOption {
	return func(g *GuardedModel) {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
	}
}

// NewGuardedModel wraps inner. Defaults: 5 calls/sec with burst 5,
// 3 attempts, 1s base delay.
func NewGuardedModel(inner ChatModel, opts ...GuardOption) (*GuardedModel, error) {
	if inner == nil {
		return nil, ErrChatModelRequired
	}
	g := &GuardedModel{
		inner:       inner,
		limiter:     rate.NewLimiter(rate.Limit(5), 5),
		maxAttempts: 3,
		baseDelay:   time.Second,
		logger:      slog.Default().With("component", "chat-guard"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Complete waits for rate-limiter admission, then calls the inner model,
// retrying transient failures with exponential backoff up to the attempt
// cap. The error from the last attempt is returned if all attempts fail.
func (g *GuardedModel) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := g.inner.Complete(ctx, req)
		if err == nil {
			if attempt > 1 {
				g.logger.Debug("completion succeeded after retry", "attempt", attempt)
			}
			return resp, nil
		}
		lastErr = err

		if !IsTransient(err) || attempt == g.maxAttempts {
			break
		}
		g.logger.Debug("completion failed, will retry",
			"attempt", attempt, "maxAttempts", g.maxAttempts, "err", err)

		delay := g.baseDelay << (attempt - 1)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, lastErr
}

// IsTransient reports whether a completion failure is worth retrying:
// rate-limit rejections, deadline expiry, and network timeouts.
func IsTransient(err error) bool {
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransient) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
