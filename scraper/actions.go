package scraper

import (
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// scrollStepPause lets lazy-loaded sections react between scroll steps.
const scrollStepPause = 150 * time.Millisecond

// scrollViewports scrolls down n viewports. Review sections on both shops
// only start loading once they come close to the viewport.
func scrollViewports(p *rod.Page, n int) error {
	if n <= 0 {
		n = 1
	}

	res, err := p.Eval(`() => window.innerHeight`)
	if err != nil {
		return fmt.Errorf("failed to get viewport height: %w", err)
	}
	viewportHeight := res.Value.Int()

	for i := 0; i < n; i++ {
		if err := p.Mouse.Scroll(0, float64(viewportHeight), 0); err != nil {
			return fmt.Errorf("scroll step %d failed: %w", i, err)
		}
		select {
		case <-time.After(scrollStepPause):
		case <-p.GetContext().Done():
			return p.GetContext().Err()
		}
	}
	return nil
}

// clickControl brings the element into view and clicks it once.
func clickControl(el *rod.Element) error {
	if err := el.ScrollIntoView(); err != nil {
		return fmt.Errorf("scroll into view: %w", err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}
