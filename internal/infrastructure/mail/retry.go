package mail

import (
	"context"
	"math/rand"
	"time"

	"github.com/futbolero/checkout-service/internal/application"
)

// RetrySender retries transient delivery failures with exponential backoff
// and jitter. The cap stays small: notification delivery is at-least-once and
// the caller logs the final failure instead of propagating it.
type RetrySender struct {
	inner      application.NotificationSender
	baseDelay  time.Duration
	maxRetries int
}

func NewRetrySender(inner application.NotificationSender, baseDelay time.Duration, maxRetries int) *RetrySender {
	return &RetrySender{
		inner:      inner,
		baseDelay:  baseDelay,
		maxRetries: maxRetries,
	}
}

func (r *RetrySender) Send(ctx context.Context, msg application.Message) error {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := r.inner.Send(ctx, msg); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt < r.maxRetries-1 {
			time.Sleep(r.backoff(attempt))
		}
	}

	return lastErr
}

func (r *RetrySender) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)
	jitter := time.Duration(rand.Intn(100)) * time.Millisecond
	return base + jitter
}
