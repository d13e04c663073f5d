package unit_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"

	"github.com/pipelined/pedals/control"
	"github.com/pipelined/pedals/unit"
)

// offset is a unit that adds a constant and records the events it
// receives.
type offset struct {
	value  float32
	events []control.Event
	err    error
}

func (o *offset) Process(input, output []float32) error {
	for i := range output {
		output[i] = input[i] + o.value
	}
	return o.err
}

func (o *offset) HandleEvents(events []control.Event) error {
	o.events = append(o.events, events...)
	return nil
}

func TestEmptyComposition(t *testing.T) {
	_, err := unit.NewPipeline()
	assert.True(t, errors.Is(err, unit.ErrConfiguration))
	_, err = unit.NewSplit()
	assert.True(t, errors.Is(err, unit.ErrConfiguration))
}

func TestPipeline(t *testing.T) {
	tests := []struct {
		description string
		units       []unit.Unit
		input       []float32
		expected    []float32
	}{
		{
			description: "single unit",
			units:       []unit.Unit{unit.Gain{Coefficient: 2}},
			input:       []float32{1, 2, 3},
			expected:    []float32{2, 4, 6},
		},
		{
			description: "order matters: (x+1)*2",
			units:       []unit.Unit{&offset{value: 1}, unit.Gain{Coefficient: 2}},
			input:       []float32{1, 2, 3},
			expected:    []float32{4, 6, 8},
		},
		{
			description: "order matters: x*2+1",
			units:       []unit.Unit{unit.Gain{Coefficient: 2}, &offset{value: 1}},
			input:       []float32{1, 2, 3},
			expected:    []float32{3, 5, 7},
		},
		{
			description: "transparent chain",
			units:       []unit.Unit{unit.Transparent{}, unit.Transparent{}, unit.Transparent{}},
			input:       []float32{1, -1},
			expected:    []float32{1, -1},
		},
	}

	for _, test := range tests {
		p, err := unit.NewPipeline(test.units...)
		require.NoError(t, err, test.description)
		output := make([]float32, len(test.input))
		assert.NoError(t, p.Process(test.input, output), test.description)
		assert.Equal(t, test.expected, output, test.description)
	}
}

func TestSplit(t *testing.T) {
	s, err := unit.NewSplit(
		unit.Transparent{},
		unit.Gain{Coefficient: 0.5},
		&offset{value: 1},
	)
	require.NoError(t, err)

	output := []float32{100, 100, 100}
	assert.NoError(t, s.Process([]float32{2, 4, 6}, output))
	assert.Equal(t, []float32{2 + 1 + 3, 4 + 2 + 5, 6 + 3 + 7}, output)
}

func TestFaultsDontStopProcessing(t *testing.T) {
	fault := errors.New("fault")
	p, err := unit.NewPipeline(&offset{value: 1, err: fault}, unit.Gain{Coefficient: 2})
	require.NoError(t, err)

	output := make([]float32, 2)
	err = p.Process([]float32{1, 1}, output)
	assert.True(t, errors.Is(err, fault))
	assert.Equal(t, []float32{4, 4}, output)

	s, err := unit.NewSplit(&offset{err: fault}, unit.Transparent{})
	require.NoError(t, err)
	err = s.Process([]float32{1, 1}, output)
	assert.True(t, errors.Is(err, fault))
	assert.Equal(t, []float32{2, 2}, output)
}

func TestEventsForwarding(t *testing.T) {
	events := []control.Event{
		{Timestamp: 1, Message: midi.NoteOn(0, 1, 1)},
		{Timestamp: 2, Message: midi.ControlChange(0, 1, 64)},
	}
	a, b, c := &offset{}, &offset{}, &offset{}
	split, err := unit.NewSplit(b, unit.Transparent{}, c)
	require.NoError(t, err)
	p, err := unit.NewPipeline(a, unit.Gain{Coefficient: 1}, split)
	require.NoError(t, err)

	assert.NoError(t, p.HandleEvents(events))
	for _, o := range []*offset{a, b, c} {
		assert.Equal(t, events, o.events)
	}
}

func TestGain(t *testing.T) {
	output := make([]float32, 3)
	assert.NoError(t, unit.Gain{Coefficient: -0.5}.Process([]float32{2, 0, -4}, output))
	assert.Equal(t, []float32{-1, 0, 2}, output)
}

func TestFFT(t *testing.T) {
	var fft unit.FFT
	for _, length := range []int{256, 100, 1, 256} {
		input := make([]float32, length)
		for i := range input {
			input[i] = rand.Float32()*2 - 1
		}
		output := make([]float32, length)
		require.NoError(t, fft.Process(input, output))
		for i := range input {
			assert.InDelta(t, input[i], output[i], 1e-5, "length %d sample %d", length, i)
		}
	}
	assert.NoError(t, fft.Process(nil, nil))
}
