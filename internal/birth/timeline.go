package birth

import (
	"context"
	"time"
)

// Phase is a stage of the reveal sequence
type Phase int

const (
	PhaseDark Phase = iota
	PhaseCharging
	PhaseStrike
	PhaseReveal
	PhaseComplete
)

// String returns the phase name
func (p Phase) String() string {
	switch p {
	case PhaseDark:
		return "dark"
	case PhaseCharging:
		return "charging"
	case PhaseStrike:
		return "strike"
	case PhaseReveal:
		return "reveal"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Frame is the visual state after a cue fires
type Frame struct {
	Phase  Phase
	Sparks bool // flickering bolts around the logo
}

// Cue moves the sequence to Frame at offset At, measured in time units
// from the start.
type Cue struct {
	At    float64
	Frame Frame
}

// RevealCues is the birth reveal: dark, charging at 1, sparks at 1.5,
// strike at 3, reveal at 3.5, complete at 5.
var RevealCues = []Cue{
	{At: 1, Frame: Frame{Phase: PhaseCharging}},
	{At: 1.5, Frame: Frame{Phase: PhaseCharging, Sparks: true}},
	{At: 3, Frame: Frame{Phase: PhaseStrike, Sparks: true}},
	{At: 3.5, Frame: Frame{Phase: PhaseReveal, Sparks: true}},
	{At: 5, Frame: Frame{Phase: PhaseComplete, Sparks: true}},
}

// Timeline plays cues off a single timer. Cues must be sorted by At.
type Timeline struct {
	Unit time.Duration
	Cues []Cue
}

// NewRevealTimeline returns the reveal sequence with one unit per second
// when unit is zero.
func NewRevealTimeline(unit time.Duration) *Timeline {
	if unit <= 0 {
		unit = time.Second
	}
	return &Timeline{Unit: unit, Cues: RevealCues}
}

func (t *Timeline) offset(c Cue) time.Duration {
	return time.Duration(c.At * float64(t.Unit))
}

// Total returns the offset of the last cue
func (t *Timeline) Total() time.Duration {
	if len(t.Cues) == 0 {
		return 0
	}
	return t.offset(t.Cues[len(t.Cues)-1])
}

// FrameAt returns the frame in effect elapsed after the start
func (t *Timeline) FrameAt(elapsed time.Duration) Frame {
	frame := Frame{Phase: PhaseDark}
	for _, c := range t.Cues {
		if elapsed < t.offset(c) {
			break
		}
		frame = c.Frame
	}
	return frame
}

// Playback is one running timeline
type Playback struct {
	frames chan Frame
	cancel context.CancelFunc
	done   chan struct{}
}

// Start plays the timeline until the last cue fires, ctx is cancelled, or
// Stop is called. Frames are delivered on an unbuffered channel that is
// closed when playback ends.
func (t *Timeline) Start(ctx context.Context) *Playback {
	ctx, cancel := context.WithCancel(ctx)
	p := &Playback{
		frames: make(chan Frame),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go t.run(ctx, p)
	return p
}

func (t *Timeline) run(ctx context.Context, p *Playback) {
	defer close(p.done)
	defer close(p.frames)

	if len(t.Cues) == 0 {
		return
	}

	start := time.Now()
	timer := time.NewTimer(t.offset(t.Cues[0]))
	defer timer.Stop()

	for i, c := range t.Cues {
		if i > 0 {
			timer.Reset(max(t.offset(c)-time.Since(start), 0))
		}
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		select {
		case <-ctx.Done():
			return
		case p.frames <- c.Frame:
		}
	}
}

// Frames returns the frame channel
func (p *Playback) Frames() <-chan Frame {
	return p.frames
}

// Done is closed once playback has ended
func (p *Playback) Done() <-chan struct{} {
	return p.done
}

// Stop cancels playback and waits for it to end. No frame is delivered
// after Stop returns. Safe to call more than once.
func (p *Playback) Stop() {
	p.cancel()
	<-p.done
}
