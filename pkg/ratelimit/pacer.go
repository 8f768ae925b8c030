package ratelimit

import (
	"context"
	"time"
)

// DefaultStepDelay is the pause between two acquisition steps.
const DefaultStepDelay = 100 * time.Millisecond

// Pacer spaces sequential steps by a fixed delay measured from the end of
// one step to the start of the next.
type Pacer struct {
	delay time.Duration
}

// NewPacer creates a pacer. A non-positive delay disables waiting.
func NewPacer(delay time.Duration) *Pacer {
	return &Pacer{delay: delay}
}

// Delay returns the configured pause.
func (p *Pacer) Delay() time.Duration {
	return p.delay
}

// Wait blocks for the configured delay or until ctx is done, whichever
// comes first. It returns ctx.Err() in the latter case.
func (p *Pacer) Wait(ctx context.Context) error {
	return sleep(ctx, p.delay)
}
