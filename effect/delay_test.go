package effect_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"

	"github.com/pipelined/pedals/control"
	"github.com/pipelined/pedals/effect"
	"github.com/pipelined/pedals/mutable"
	"github.com/pipelined/pedals/signal"
	"github.com/pipelined/pedals/unit"
)

// with 1 kHz mono stream, one millisecond is exactly one sample.
var msStream = signal.StreamConfig{SampleRate: 1000, Channels: 1}

func impulse(n int) []float32 {
	frame := make([]float32, n)
	frame[0] = 1
	return frame
}

func process(t *testing.T, u unit.Unit, input []float32) []float32 {
	t.Helper()
	output := make([]float32, len(input))
	require.NoError(t, u.Process(input, output))
	return output
}

func TestDelayTaps(t *testing.T) {
	d, err := effect.NewDelay(msStream, effect.DelayConfig{
		Taps:       3,
		Level:      0.5,
		DelayMs:    2,
		MaxDelayMs: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0.5, 0, 0.25, 0, 0.125, 0}, process(t, d, impulse(8)))
}

func TestDelayControls(t *testing.T) {
	slider := control.Slider{Channel: 0, Controller: 1}
	tap := control.Note{Channel: 0, Key: 60}
	tests := []struct {
		description string
		events      []control.Event
		base        uint32
	}{
		{
			description: "no controls",
			events: []control.Event{
				{Message: midi.ControlChange(0, 7, 127)},
				{Message: midi.NoteOn(1, 60, 100)},
			},
			base: 2,
		},
		{
			description: "slider",
			events: []control.Event{
				{Message: midi.ControlChange(0, 1, 20)},
				{Message: midi.ControlChange(0, 1, 127)},
			},
			base: 10,
		},
		{
			description: "slider in the middle",
			events: []control.Event{
				{Message: midi.ControlChange(0, 1, 64)},
			},
			base: 5,
		},
		{
			description: "tap tempo",
			events: []control.Event{
				{Timestamp: 1000, Message: midi.NoteOn(0, 60, 100)},
				{Timestamp: 5000, Message: midi.NoteOn(0, 60, 100)},
			},
			base: 4,
		},
		{
			description: "tap tempo wins over slider",
			events: []control.Event{
				{Timestamp: 1000, Message: midi.NoteOn(0, 60, 100)},
				{Timestamp: 7000, Message: midi.ControlChange(0, 1, 127)},
				{Timestamp: 8000, Message: midi.NoteOn(0, 60, 100)},
			},
			base: 7,
		},
		{
			description: "tap tempo is limited",
			events: []control.Event{
				{Timestamp: 0, Message: midi.NoteOn(0, 60, 100)},
				{Timestamp: 1500000, Message: midi.NoteOn(0, 60, 100)},
			},
			base: 10,
		},
		{
			description: "single tap",
			events: []control.Event{
				{Timestamp: 0, Message: midi.NoteOn(0, 60, 100)},
			},
			base: 2,
		},
	}

	for _, test := range tests {
		d, err := effect.NewDelay(msStream, effect.DelayConfig{
			Taps:       3,
			Level:      0.5,
			DelayMs:    2,
			MaxDelayMs: 10,
			Slider:     &slider,
			TapTempo:   &tap,
		})
		require.NoError(t, err, test.description)
		require.NoError(t, d.HandleEvents(test.events), test.description)
		assert.Equal(t, test.base, d.Base(), test.description)

		b := int(test.base)
		expected := make([]float32, 3*b+1)
		expected[0] += 1
		expected[b] += 0.5
		expected[2*b] += 0.25
		expected[3*b] += 0.125
		assert.Equal(t, expected, process(t, d, impulse(len(expected))), test.description)
	}
}

func TestDelayConfiguration(t *testing.T) {
	_, err := effect.NewDelay(msStream, effect.DelayConfig{MaxDelayMs: 10})
	assert.True(t, errors.Is(err, unit.ErrConfiguration))
	assert.True(t, errors.Is(err, effect.ErrNoTaps))

	_, err = effect.NewDelay(msStream, effect.DelayConfig{Taps: 1, DelayMs: 11, MaxDelayMs: 10})
	assert.True(t, errors.Is(err, unit.ErrConfiguration))
}

func TestDelayCommandsDropped(t *testing.T) {
	slider := control.Slider{Channel: 0, Controller: 1}
	d, err := effect.NewDelay(msStream, effect.DelayConfig{
		Taps:       2,
		Level:      0.5,
		MaxDelayMs: 10,
		Slider:     &slider,
	})
	require.NoError(t, err)
	events := []control.Event{{Message: midi.ControlChange(0, 1, 127)}}
	for i := 0; i < unit.DelayCommands; i++ {
		require.NoError(t, d.HandleEvents(events))
	}
	err = d.HandleEvents(events)
	assert.True(t, errors.Is(err, mutable.ErrFull))

	// render call takes pending commands
	process(t, d, make([]float32, 4))
	assert.NoError(t, d.HandleEvents(events))
}
