// Package config reads pedal board configuration from YAML and builds
// the unit graph out of it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pipelined/pedals/unit"
)

// Defaults used when the value is omitted.
const (
	DefaultLatencyMs   = 50
	DefaultMidiChannel = 1
	DefaultMaxDelayMs  = 10000
	DefaultDelayLevel  = 0.5
	DefaultLooperMaxMs = 60000
	DefaultClockPeriod = 96
)

// Effect types.
const (
	TransparentType = "transparent"
	GainType        = "gain"
	FFTType         = "fft"
	DelayType       = "delay"
	LooperType      = "looper"
)

// ErrUnknownEffect is returned when effect type is not supported.
var ErrUnknownEffect = errors.New("unknown effect")

type (
	// Config is the complete pedal board.
	Config struct {
		Audio   Audio    `yaml:"audio"`
		Midi    *Midi    `yaml:"midi"`
		Effects []Effect `yaml:"effects"`
	}

	// Audio selects devices and the latency budget. Empty device names
	// select default devices, zero values select device defaults.
	Audio struct {
		LatencyMs       uint32 `yaml:"latency_ms"`
		Input           string `yaml:"input"`
		Output          string `yaml:"output"`
		Channels        int    `yaml:"channels"`
		FramesPerBuffer int    `yaml:"frames_per_buffer"`
	}

	// Midi selects the input port. Channel is one-based.
	Midi struct {
		Port    string `yaml:"port"`
		Channel uint8  `yaml:"channel"`
	}

	// NoteOn is a note binding. Zero channel means MIDI channel of the
	// configuration.
	NoteOn struct {
		Note    uint8 `yaml:"note"`
		Channel uint8 `yaml:"channel"`
	}

	// Slider is a control change binding. Zero channel means MIDI
	// channel of the configuration.
	Slider struct {
		Controller uint8 `yaml:"controller"`
		Channel    uint8 `yaml:"channel"`
	}

	// Effect is one of the supported effects, selected by its type.
	Effect struct {
		Type   string
		Gain   *Gain
		Delay  *Delay
		Looper *Looper
	}

	// Gain scales the signal.
	Gain struct {
		Level float32 `yaml:"level"`
	}

	// Delay is a multi-tap delay.
	Delay struct {
		Level       float32 `yaml:"level"`
		DelayMs     uint32  `yaml:"delay_ms"`
		Num         uint32  `yaml:"num"`
		MaxDelayMs  uint32  `yaml:"max_delay_ms"`
		Slider      *Slider `yaml:"delay_ms_slider"`
		TapTempo    *NoteOn `yaml:"tap_tempo"`
		TapWindowMs uint32  `yaml:"tap_window_ms"`
	}

	// Looper records and plays loops quantized to measures.
	Looper struct {
		MaxMs       uint32  `yaml:"max_ms"`
		Toggle      NoteOn  `yaml:"toggle"`
		Overdub     *NoteOn `yaml:"overdub"`
		ClockPeriod int     `yaml:"clock_period"`
	}
)

// Default returns configuration with default audio settings and no
// effects.
func Default() Config {
	return Config{
		Audio: Audio{
			LatencyMs: DefaultLatencyMs,
		},
	}
}

// Load reads configuration from the file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes configuration, applies defaults and validates it.
func Parse(data []byte) (Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if c.Midi != nil && c.Midi.Channel == 0 {
		c.Midi.Channel = DefaultMidiChannel
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks that the configuration can be built.
func (c *Config) Validate() error {
	if c.Audio.LatencyMs == 0 {
		return fmt.Errorf("%w: latency must be > 0 ms", unit.ErrConfiguration)
	}
	if c.Audio.Channels < 0 {
		return fmt.Errorf("%w: channels must be >= 0, but was %d", unit.ErrConfiguration, c.Audio.Channels)
	}
	if c.Midi != nil {
		if err := validChannel(c.Midi.Channel); err != nil {
			return err
		}
	}
	if len(c.Effects) == 0 {
		return fmt.Errorf("%w: no effects", unit.ErrConfiguration)
	}
	for i, e := range c.Effects {
		if err := e.validate(); err != nil {
			return fmt.Errorf("effect %d: %w", i, err)
		}
	}
	return nil
}

// channel returns zero-based channel of the MIDI configuration.
func (c *Config) channel() uint8 {
	if c.Midi == nil {
		return DefaultMidiChannel - 1
	}
	return c.Midi.Channel - 1
}

func validChannel(channel uint8) error {
	if channel < 1 || channel > 16 {
		return fmt.Errorf("%w: midi channel must be in [1, 16], but was %d", unit.ErrConfiguration, channel)
	}
	return nil
}

// UnmarshalYAML decodes the effect fields selected by its type.
func (e *Effect) UnmarshalYAML(node *yaml.Node) error {
	var tagged struct {
		Type string `yaml:"type"`
	}
	if err := node.Decode(&tagged); err != nil {
		return err
	}
	e.Type = strings.ToLower(tagged.Type)
	switch e.Type {
	case TransparentType, FFTType:
		return nil
	case GainType:
		e.Gain = &Gain{Level: 1}
		return node.Decode(e.Gain)
	case DelayType:
		e.Delay = &Delay{
			Level:      DefaultDelayLevel,
			Num:        1,
			MaxDelayMs: DefaultMaxDelayMs,
		}
		return node.Decode(e.Delay)
	case LooperType:
		e.Looper = &Looper{
			MaxMs:       DefaultLooperMaxMs,
			ClockPeriod: DefaultClockPeriod,
		}
		return node.Decode(e.Looper)
	}
	return fmt.Errorf("line %d: %w: %q", node.Line, ErrUnknownEffect, tagged.Type)
}

func (e Effect) validate() error {
	switch {
	case e.Delay != nil:
		if e.Delay.Num == 0 {
			return fmt.Errorf("%w: delay num must be > 0", unit.ErrConfiguration)
		}
		if e.Delay.DelayMs > e.Delay.MaxDelayMs {
			return fmt.Errorf("%w: delay_ms must be <= %d, but was %d", unit.ErrConfiguration, e.Delay.MaxDelayMs, e.Delay.DelayMs)
		}
		if err := bindingChannel(e.Delay.Slider); err != nil {
			return err
		}
		if e.Delay.TapTempo != nil {
			return optionalChannel(e.Delay.TapTempo.Channel)
		}
	case e.Looper != nil:
		if e.Looper.MaxMs == 0 {
			return fmt.Errorf("%w: looper max_ms must be > 0", unit.ErrConfiguration)
		}
		if err := optionalChannel(e.Looper.Toggle.Channel); err != nil {
			return err
		}
		if e.Looper.Overdub != nil {
			return optionalChannel(e.Looper.Overdub.Channel)
		}
	}
	return nil
}

func bindingChannel(s *Slider) error {
	if s == nil {
		return nil
	}
	return optionalChannel(s.Channel)
}

func optionalChannel(channel uint8) error {
	if channel == 0 {
		return nil
	}
	return validChannel(channel)
}
