package config

import (
	"fmt"
	"time"

	"github.com/pipelined/pedals/control"
	"github.com/pipelined/pedals/effect"
	"github.com/pipelined/pedals/signal"
	"github.com/pipelined/pedals/unit"
)

// Build returns the effects of configuration connected serially.
func Build(c Config, stream signal.StreamConfig) (*unit.Pipeline, error) {
	units := make([]unit.Unit, 0, len(c.Effects))
	for i, e := range c.Effects {
		u, err := c.build(e, stream)
		if err != nil {
			return nil, fmt.Errorf("effect %d %s: %w", i, e.Type, err)
		}
		units = append(units, u)
	}
	return unit.NewPipeline(units...)
}

func (c *Config) build(e Effect, stream signal.StreamConfig) (unit.Unit, error) {
	switch e.Type {
	case TransparentType:
		return unit.Transparent{}, nil
	case FFTType:
		return &unit.FFT{}, nil
	case GainType:
		return unit.Gain{Coefficient: e.Gain.Level}, nil
	case DelayType:
		d, err := effect.NewDelay(stream, c.delay(*e.Delay))
		if err != nil {
			return nil, err
		}
		return d, nil
	case LooperType:
		l, err := effect.NewLooper(stream, c.looper(*e.Looper))
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEffect, e.Type)
}

func (c *Config) delay(d Delay) effect.DelayConfig {
	cfg := effect.DelayConfig{
		Taps:       d.Num,
		Level:      d.Level,
		DelayMs:    d.DelayMs,
		MaxDelayMs: d.MaxDelayMs,
		TapWindow:  time.Duration(d.TapWindowMs) * time.Millisecond,
	}
	if d.Slider != nil {
		cfg.Slider = &control.Slider{
			Channel:    c.bindingChannel(d.Slider.Channel),
			Controller: d.Slider.Controller,
		}
	}
	if d.TapTempo != nil {
		n := c.note(*d.TapTempo)
		cfg.TapTempo = &n
	}
	return cfg
}

func (c *Config) looper(l Looper) effect.LooperConfig {
	cfg := effect.LooperConfig{
		MaxMs:       l.MaxMs,
		Toggle:      c.note(l.Toggle),
		ClockPeriod: l.ClockPeriod,
	}
	if l.Overdub != nil {
		n := c.note(*l.Overdub)
		cfg.Overdub = &n
	}
	return cfg
}

func (c *Config) note(n NoteOn) control.Note {
	return control.Note{
		Channel: c.bindingChannel(n.Channel),
		Key:     n.Note,
	}
}

// bindingChannel returns zero-based channel of the binding.
func (c *Config) bindingChannel(channel uint8) uint8 {
	if channel == 0 {
		return c.channel()
	}
	return channel - 1
}
