// Package retry provides backoff strategies and a context-aware retry loop.
//
// The content generator retries transient failures inside its stage budget,
// and the backoff controller uses ExponentialBackoff to escalate repeated
// rate-limit cooldowns.
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//		return call(ctx)
//	}, &retry.Config{
//		MaxAttempts: 3,
//		Backoff:     &retry.ExponentialBackoff{BaseDelay: 500 * time.Millisecond, Multiplier: 2},
//		Logger:      logger.GetLogger(),
//	})
//
// DefaultRetryIf never retries cancellation, deadline expiry or typed errors
// that the error taxonomy marks as non-retryable (auth, rate limit, config).
package retry
