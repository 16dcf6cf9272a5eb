package summarizer

import (
	"context"

	"golang.org/x/time/rate"
)

// Throttled spaces out calls to the wrapped summarizer with a token bucket,
// keeping batch processing under the provider's rate limits.
type Throttled struct {
	inner   Summarizer
	limiter *rate.Limiter
}

func NewThrottled(inner Summarizer, rps float64, burst int) *Throttled {
	if rps <= 0 {
		rps = 2
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttled{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (t *Throttled) Summarize(ctx context.Context, text string) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return t.inner.Summarize(ctx, text)
}
