package effect_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"

	"github.com/pipelined/pedals/control"
	"github.com/pipelined/pedals/effect"
	"github.com/pipelined/pedals/unit"
)

var (
	toggle  = control.Note{Channel: 0, Key: 36}
	overdub = control.Note{Channel: 0, Key: 38}
	clock   = control.Event{Message: midi.Message{0xF8}}
)

func newLooper(t *testing.T) *effect.Looper {
	t.Helper()
	l, err := effect.NewLooper(msStream, effect.LooperConfig{
		MaxMs:       4,
		Toggle:      toggle,
		Overdub:     &overdub,
		ClockPeriod: 2,
	})
	require.NoError(t, err)
	return l
}

func press(n control.Note) control.Event {
	return control.Event{Message: midi.NoteOn(n.Channel, n.Key, 100)}
}

func TestLooper(t *testing.T) {
	l := newLooper(t)

	require.NoError(t, l.HandleEvents([]control.Event{press(toggle), clock}))
	assert.Equal(t, []float32{1, 2}, process(t, l, []float32{1, 2}))
	assert.Equal(t, unit.QueueRecording, l.State().Mode)

	// second pulse completes the measure
	require.NoError(t, l.HandleEvents([]control.Event{clock}))
	assert.Equal(t, []float32{1, 2}, process(t, l, []float32{1, 2}))
	assert.Equal(t, []float32{3, 4}, process(t, l, []float32{3, 4}))
	assert.Equal(t, unit.LooperState{Mode: unit.Playing, Total: 4}, l.State())

	// loop is mixed with the input
	assert.Equal(t, []float32{11, 12, 13, 14}, process(t, l, []float32{10, 10, 10, 10}))

	require.NoError(t, l.HandleEvents([]control.Event{press(overdub)}))
	process(t, l, []float32{0, 0, 0, 0})
	assert.Equal(t, unit.Overdubbing, l.State().Mode)
	assert.Equal(t, []float32{2, 3, 4, 5}, process(t, l, []float32{1, 1, 1, 1}))
	assert.Equal(t, []float32{2, 3, 4, 5}, process(t, l, []float32{0, 0, 0, 0}))

	require.NoError(t, l.HandleEvents([]control.Event{press(toggle)}))
	assert.Equal(t, []float32{1, 1}, process(t, l, []float32{1, 1}))
	assert.Equal(t, unit.Off, l.State().Mode)
}

func TestLooperIgnoresOtherEvents(t *testing.T) {
	l := newLooper(t)
	require.NoError(t, l.HandleEvents([]control.Event{
		{Message: midi.NoteOn(1, toggle.Key, 100)},
		{Message: midi.NoteOff(0, toggle.Key)},
		{Message: midi.ControlChange(0, 1, 100)},
	}))
	process(t, l, []float32{1})
	assert.Equal(t, unit.Off, l.State().Mode)
}

func TestLooperConfiguration(t *testing.T) {
	_, err := effect.NewLooper(msStream, effect.LooperConfig{Toggle: toggle})
	assert.True(t, errors.Is(err, unit.ErrConfiguration))
}
