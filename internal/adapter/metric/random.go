package metric

import (
	"context"
	"math/rand"
	"time"

	"github.com/retailpulse/storevisits/internal/domain"
)

// RandomMeter is a stand-in for real image analysis: it draws a random
// height and width, sleeps to mimic processing cost, and returns the
// perimeter of the drawn rectangle.
type RandomMeter struct {
	minDim   int
	maxDim   int
	minDelay time.Duration
	maxDelay time.Duration
}

var _ domain.ImageMeter = (*RandomMeter)(nil)

// New creates a meter drawing dimensions from [minDim, maxDim] and a
// processing delay from [minDelay, maxDelay).
func New(minDim, maxDim int, minDelay, maxDelay time.Duration) *RandomMeter {
	return &RandomMeter{
		minDim:   minDim,
		maxDim:   maxDim,
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

// Default returns a meter with the service's stock parameters:
// dimensions in [100, 599], delay in [100ms, 400ms).
func Default() *RandomMeter {
	return New(100, 599, 100*time.Millisecond, 400*time.Millisecond)
}

// Measure returns 2*(height+width) for freshly drawn dimensions after
// the simulated processing delay. The sleep ends early if ctx is done.
func (m *RandomMeter) Measure(ctx context.Context) int {
	height := m.minDim + rand.Intn(m.maxDim-m.minDim+1)
	width := m.minDim + rand.Intn(m.maxDim-m.minDim+1)

	delay := m.minDelay
	if m.maxDelay > m.minDelay {
		delay += time.Duration(rand.Int63n(int64(m.maxDelay - m.minDelay)))
	}
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}

	return 2 * (height + width)
}
