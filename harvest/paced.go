package harvest

import (
	"context"

	"golang.org/x/time/rate"
)

// pacedPanel waits on a token bucket before every load-more trigger.
type pacedPanel struct {
	Panel
	limiter *rate.Limiter
}

// Paced wraps p so that LoadMore fires no faster than the limiter allows.
// A nil limiter returns p unchanged.
func Paced(p Panel, limiter *rate.Limiter) Panel {
	if limiter == nil {
		return p
	}
	return &pacedPanel{Panel: p, limiter: limiter}
}

// NewLimiter builds the limiter used by Paced. rps <= 0 disables pacing.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func (p *pacedPanel) LoadMore(ctx context.Context) (bool, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return false, err
	}
	return p.Panel.LoadMore(ctx)
}
