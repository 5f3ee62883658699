package database

import (
	"context"
	"fmt"
	"time"

	"github.com/SmithE65/Containerizing/config"
	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds the retries applied to transient database faults.
type RetryPolicy struct {
	MaxRetryCount int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	// Transient classifies errors; nil means IsTransient.
	Transient func(error) bool
}

// RetryPolicyFromConfig 从配置构造重试策略
func RetryPolicyFromConfig(conf config.Config) RetryPolicy {
	return RetryPolicy{
		MaxRetryCount: conf.DBMaxRetryCount,
		BaseDelay:     conf.DBRetryBaseDelay,
		MaxDelay:      conf.DBRetryMaxDelay,
	}
}

func (p RetryPolicy) isTransient(err error) bool {
	if p.Transient != nil {
		return p.Transient(err)
	}
	return IsTransient(err)
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.MaxInterval = p.MaxDelay
	if b.MaxInterval < b.InitialInterval {
		b.MaxInterval = b.InitialInterval
	}
	// the attempt count is the only bound
	b.MaxElapsedTime = 0

	retries := p.MaxRetryCount
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// WithRetry runs op until it succeeds, fails with a non-transient error, or
// the policy's retry budget is spent. A transient failure on the last attempt
// is returned wrapped in ErrRetryLimitExceeded.
func WithRetry(ctx context.Context, policy RetryPolicy, op func(ctx context.Context) error) error {
	attempts := 0
	operation := func() error {
		attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !policy.isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		config.Logger.Warnw("数据库瞬时故障，准备重试",
			"error", err,
			"attempt", attempts,
			"maxRetryCount", policy.MaxRetryCount,
			"nextDelay", next.String(),
		)
	}

	err := backoff.RetryNotify(operation, policy.backOff(ctx), notify)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("retry aborted after %d attempts: %w", attempts, ctxErr)
	}
	if policy.isTransient(err) {
		return fmt.Errorf("%w after %d attempts: %w", ErrRetryLimitExceeded, attempts, err)
	}
	return err
}
