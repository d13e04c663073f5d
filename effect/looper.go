package effect

import (
	"fmt"

	"github.com/pipelined/pedals/control"
	"github.com/pipelined/pedals/mutable"
	"github.com/pipelined/pedals/signal"
	"github.com/pipelined/pedals/unit"
)

// LooperConfig describes a looper with its MIDI bindings.
type LooperConfig struct {
	// MaxMs is the longest loop that can be recorded.
	MaxMs uint32
	// Toggle arms recording and playing, or stops playback.
	Toggle control.Note
	// Overdub arms overdub if set.
	Overdub *control.Note
	// ClockPeriod is the number of MIDI clock pulses in a measure.
	ClockPeriod int
}

// Looper is a loop mixed with the live input. Its transitions are
// quantized to measures counted from MIDI clock.
type Looper struct {
	looper  *unit.Looper
	split   *unit.Split
	events  *mutable.Sender[unit.LooperEvent]
	toggle  control.Note
	overdub *control.Note
	clock   *control.Clock
}

// NewLooper builds the looper for the stream.
func NewLooper(stream signal.StreamConfig, cfg LooperConfig) (*Looper, error) {
	l, events, err := unit.NewLooper(stream, cfg.MaxMs)
	if err != nil {
		return nil, fmt.Errorf("looper: %w", err)
	}
	split, err := unit.NewSplit(l, unit.Transparent{})
	if err != nil {
		return nil, err
	}
	return &Looper{
		looper:  l,
		split:   split,
		events:  events,
		toggle:  cfg.Toggle,
		overdub: cfg.Overdub,
		clock:   control.NewClock(cfg.ClockPeriod),
	}, nil
}

// State returns the state of the loop.
func (l *Looper) State() unit.LooperState {
	return l.looper.State()
}

// HandleEvents translates clock pulses and note bindings into looper
// events, preserving their order.
func (l *Looper) HandleEvents(events []control.Event) error {
	var errs sendErrors
	for _, e := range events {
		switch {
		case control.IsClock(e):
			if l.clock.Pulse() {
				errs = send(errs, l.events, unit.TickMeasure, "looper")
			}
		case l.toggle.Matches(e):
			errs = send(errs, l.events, unit.Toggle, "looper")
		case l.overdub != nil && l.overdub.Matches(e):
			errs = send(errs, l.events, unit.QueueOverdub, "looper")
		}
	}
	return errs.ret()
}

// Process mixes the loop with the input.
func (l *Looper) Process(input, output []float32) error {
	return l.split.Process(input, output)
}
