package purchase

import (
	"context"
	"fmt"
	"time"

	"github.com/planmarket/planmarket/internal/logging"
	"golang.org/x/time/rate"
)

type PollOptions struct {
	Interval time.Duration
	Attempts int
}

func (o PollOptions) withDefaults() PollOptions {
	if o.Interval <= 0 {
		o.Interval = 3 * time.Second
	}
	if o.Attempts <= 0 {
		o.Attempts = 20
	}
	return o
}

// AwaitPayment polls Verify until the payment completes, fails, the
// attempts run out (ErrPaymentPending) or ctx is done. Backend errors stop
// the loop; retrying is left to the caller.
func (s *Service) AwaitPayment(ctx context.Context, reference string, opts PollOptions) (*VerifyResult, error) {
	opts = opts.withDefaults()
	logger := logging.NewLogger(ctx, s.client.Logger())
	limiter := rate.NewLimiter(rate.Every(opts.Interval), 1)

	var last *VerifyResult
	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return last, fmt.Errorf("waiting for payment %s: %w", reference, err)
		}

		res, err := s.Verify(ctx, reference)
		if err != nil {
			return last, err
		}
		last = res

		switch {
		case res.Completed():
			logger.LogInfof("await_payment", "payment %s confirmed after %d attempt(s)", reference, attempt)
			return res, nil
		case res.Failed():
			return res, fmt.Errorf("%w: %s", ErrPaymentFailed, res.Message)
		}
		logger.LogDebugf("await_payment", "payment %s still %s (attempt %d/%d)", reference, res.Status, attempt, opts.Attempts)
	}
	return last, ErrPaymentPending
}
