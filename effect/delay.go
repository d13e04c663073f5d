package effect

import (
	"errors"
	"fmt"
	"time"

	"github.com/pipelined/pedals/control"
	"github.com/pipelined/pedals/mutable"
	"github.com/pipelined/pedals/signal"
	"github.com/pipelined/pedals/unit"
)

// DelayConfig describes a multi-tap delay. All durations are in
// milliseconds.
type DelayConfig struct {
	// Taps is the number of delayed copies mixed with the dry signal.
	Taps uint32
	// Level is the gain of the first tap, tap i is attenuated by Level^i.
	Level float32
	// DelayMs is the initial delay between two consecutive taps.
	DelayMs uint32
	// MaxDelayMs is the upper bound of the delay between two taps.
	MaxDelayMs uint32
	// Slider maps the control value onto [0, MaxDelayMs].
	Slider *control.Slider
	// TapTempo sets delay to the tapped beat duration.
	TapTempo *control.Note
	// TapWindow is the longest gap between two taps.
	TapWindow time.Duration
}

// ErrNoTaps is returned when delay is configured without taps.
var ErrNoTaps = errors.New("delay must have at least one tap")

// Delay is the dry signal mixed with N delayed taps. Tap i is delayed by
// i times the base delay and attenuated by level^i.
type Delay struct {
	split  *unit.Split
	taps   []*mutable.Sender[uint32]
	base   uint32
	max    uint32
	slider *control.Slider
	tempo  *control.TapTempo
}

// NewDelay builds the delay for the stream.
func NewDelay(stream signal.StreamConfig, cfg DelayConfig) (*Delay, error) {
	if cfg.Taps == 0 {
		return nil, fmt.Errorf("%w: %w", unit.ErrConfiguration, ErrNoTaps)
	}
	if cfg.DelayMs > cfg.MaxDelayMs {
		return nil, fmt.Errorf("%w: delay must be <= %d ms, but was %d ms", unit.ErrConfiguration, cfg.MaxDelayMs, cfg.DelayMs)
	}

	units := make([]unit.Unit, 0, cfg.Taps+1)
	units = append(units, unit.Transparent{})
	taps := make([]*mutable.Sender[uint32], 0, cfg.Taps)
	level := float32(1)
	for i := uint32(1); i <= cfg.Taps; i++ {
		d, sender, err := unit.NewDelay(stream, cfg.DelayMs*i, cfg.MaxDelayMs*cfg.Taps)
		if err != nil {
			return nil, fmt.Errorf("delay tap %d: %w", i, err)
		}
		level *= cfg.Level
		tap, err := unit.NewPipeline(d, unit.Gain{Coefficient: level})
		if err != nil {
			return nil, fmt.Errorf("delay tap %d: %w", i, err)
		}
		units = append(units, tap)
		taps = append(taps, sender)
	}
	split, err := unit.NewSplit(units...)
	if err != nil {
		return nil, err
	}

	d := Delay{
		split:  split,
		taps:   taps,
		base:   cfg.DelayMs,
		max:    cfg.MaxDelayMs,
		slider: cfg.Slider,
	}
	if cfg.TapTempo != nil {
		d.tempo = control.NewTapTempo(*cfg.TapTempo, cfg.TapWindow)
	}
	return &d, nil
}

// Base returns the last requested delay between two taps.
func (d *Delay) Base() uint32 {
	return d.base
}

// HandleEvents derives the new base delay from the batch and sends the
// tap lengths. Tapped tempo wins over the slider.
func (d *Delay) HandleEvents(events []control.Event) error {
	base, ok := d.baseFrom(events)
	if !ok {
		return nil
	}
	d.base = base
	var errs sendErrors
	for i, tap := range d.taps {
		errs = send(errs, tap, base*uint32(i+1), "delay")
	}
	return errs.ret()
}

func (d *Delay) baseFrom(events []control.Event) (uint32, bool) {
	if d.tempo != nil {
		if t, ok := d.tempo.Handle(events); ok {
			return min(t.BeatMs(), d.max), true
		}
	}
	if d.slider != nil {
		if v, ok := control.LatestControlValue(*d.slider, events); ok {
			return control.Interpolate(0, d.max, v), true
		}
	}
	return 0, false
}

// Process mixes the dry input with all taps.
func (d *Delay) Process(input, output []float32) error {
	return d.split.Process(input, output)
}
