package marquee

import (
	"context"
	"errors"
	"time"

	"github.com/DrJosh9000/marquee/glyph"
	"github.com/DrJosh9000/marquee/st7066"
)

// Stats are the player's observability counters. The core does not log;
// callers sample these for telemetry.
type Stats struct {
	// Frames completed.
	Frames uint64
	// DeadlineMisses counts frames whose rendering exceeded the soft
	// deadline. Non-fatal, but a sign the content needs tuning.
	DeadlineMisses uint64
	// Evictions counts forced CGRAM rebinds.
	Evictions uint64
	// Approximations counts lossy glyph substitutions (including
	// merges under a non-zero MergeDistance).
	Approximations uint64
	// FrameErrors counts frames aborted by a bus error after retry.
	FrameErrors uint64
}

// PlayerOpts configures a Player.
type PlayerOpts struct {
	// FramePeriod is the time between frames. Default 200ms.
	FramePeriod time.Duration
	// Deadline is the soft per-frame rendering budget. Default 10ms.
	Deadline time.Duration
	// MergeDistance is the similarity cutoff under which an existing
	// glyph may stand in for a new bitmap even while CGRAM slots
	// remain. 0 (the default) merges exact matches only.
	MergeDistance int
}

// Player scrolls animation sequences on a display. It renders frames at
// FramePeriod, writing only the DDRAM cells and CGRAM slots that changed
// since the previous frame.
type Player struct {
	dev *st7066.Dev
	r   *renderer

	framePeriod time.Duration
	deadline    time.Duration

	shadow []byte // DDRAM codes last written, one per cell

	frames, misses, frameErrors uint64
}

// NewPlayer returns a Player driving dev, which must already be
// initialized.
func NewPlayer(dev *st7066.Dev, opts *PlayerOpts) *Player {
	if opts == nil {
		opts = &PlayerOpts{}
	}
	p := &Player{
		dev:         dev,
		framePeriod: opts.FramePeriod,
		deadline:    opts.Deadline,
	}
	if p.framePeriod == 0 {
		p.framePeriod = 200 * time.Millisecond
	}
	if p.deadline == 0 {
		p.deadline = 10 * time.Millisecond
	}
	p.r = newRenderer(retrySink{dev}, opts.MergeDistance)
	return p
}

// Stats returns a snapshot of the player's counters.
func (p *Player) Stats() Stats {
	return Stats{
		Frames:         p.frames,
		DeadlineMisses: p.misses,
		Evictions:      p.r.alloc.Evictions(),
		Approximations: p.r.approximations,
		FrameErrors:    p.frameErrors,
	}
}

// Play scrolls seq once across the display and returns when the strip
// has fully exited, ctx is cancelled, or the sequence fails. Bus errors
// abort at most the frame they occur in; content errors (no candidate
// glyph to approximate with) abort the sequence. Cancellation is only
// observed between frames: a started frame always runs to completion so
// CGRAM is never left half-updated.
//
// Play may be called again to restart the animation.
func (p *Player) Play(ctx context.Context, seq Sequence) error {
	cells := p.dev.Cells()
	if err := p.dev.ClearDisplay(); err != nil {
		return err
	}
	p.shadow = make([]byte, cells)
	for i := range p.shadow {
		p.shadow[i] = ' '
	}

	t := time.NewTicker(p.framePeriod)
	defer t.Stop()
	extent := seq.Extent(cells)
	for offset := 0; offset <= extent; offset += seq.step() {
		if err := p.renderFrame(seq, offset, cells); err != nil {
			if errors.Is(err, ErrNoCandidate) {
				return err
			}
			// Recoverable: drop this frame, keep scrolling.
			p.frameErrors++
		}
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// renderFrame composes, resolves and writes one frame. Glyph writes
// happen during resolution; cell writes are diffed against the DDRAM
// shadow so an unchanged cell costs no bus traffic.
func (p *Player) renderFrame(seq Sequence, offset, cells int) error {
	start := time.Now()

	bitmaps := Compose(seq, offset, cells)
	p.r.beginFrame()
	refs := make([]Ref, cells)
	for i, bm := range bitmaps {
		ref, err := p.r.resolve(bm)
		if err != nil {
			return err
		}
		refs[i] = ref
	}

	for i, ref := range refs {
		if p.shadow[i] == ref.Code {
			continue
		}
		if err := p.writeChar(i, ref.Code); err != nil {
			return err
		}
		p.shadow[i] = ref.Code
	}

	if time.Since(start) > p.deadline {
		p.misses++
	}
	p.frames++
	return nil
}

// writeChar writes one cell, retrying once on a busy timeout before
// giving the frame up. Each retry restarts the whole command, never a
// partial transfer.
func (p *Player) writeChar(pos int, code byte) error {
	err := p.dev.WriteChar(pos, code)
	if errors.Is(err, st7066.ErrBusyTimeout) {
		err = p.dev.WriteChar(pos, code)
	}
	return err
}

// retrySink applies the same one-retry policy to CGRAM glyph writes
// issued by the allocator.
type retrySink struct {
	dev *st7066.Dev
}

func (s retrySink) WriteGlyph(slot int, bm glyph.Bitmap) error {
	err := s.dev.WriteGlyph(slot, bm)
	if errors.Is(err, st7066.ErrBusyTimeout) {
		err = s.dev.WriteGlyph(slot, bm)
	}
	return err
}
