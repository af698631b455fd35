package decal

import (
	"context"
	"time"
)

// Sequencer runs projectors one at a time.
type Sequencer struct {
	slot chan struct{}
	tick time.Duration
}

// NewSequencer returns a sequencer whose projectors are stepped every tick.
func NewSequencer(tick time.Duration) *Sequencer {
	return &Sequencer{slot: make(chan struct{}, 1), tick: tick}
}

// Launch waits for the slot, runs p to completion and releases the slot.
func (s *Sequencer) Launch(ctx context.Context, p *Projector) (Result, error) {
	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return Result{State: p.State()}, ctx.Err()
	}
	defer func() { <-s.slot }()
	return p.Run(ctx, s.tick)
}

// Busy reports whether a projector currently holds the slot.
func (s *Sequencer) Busy() bool { return len(s.slot) > 0 }
