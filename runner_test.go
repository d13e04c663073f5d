package pedals_test

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"go.uber.org/goleak"

	"github.com/pipelined/pedals"
	"github.com/pipelined/pedals/control"
	"github.com/pipelined/pedals/metric"
	"github.com/pipelined/pedals/signal"
	"github.com/pipelined/pedals/unit"
)

var msStream = signal.StreamConfig{SampleRate: 1000, Channels: 1}

type recordingLogger struct {
	sync.Mutex
	warnings []string
}

func (l *recordingLogger) Debug(args ...interface{}) {}

func (l *recordingLogger) Info(args ...interface{}) {}

func (l *recordingLogger) Warn(args ...interface{}) {
	l.Lock()
	defer l.Unlock()
	l.warnings = append(l.warnings, fmt.Sprint(args...))
}

func (l *recordingLogger) contains(s string) bool {
	l.Lock()
	defer l.Unlock()
	for _, w := range l.warnings {
		if strings.Contains(w, s) {
			return true
		}
	}
	return false
}

// handler records event batches and optionally fails.
type handler struct {
	batches [][]control.Event
	err     error
}

func (h *handler) Process(input, output []float32) error {
	copy(output, input)
	return h.err
}

func (h *handler) HandleEvents(events []control.Event) error {
	h.batches = append(h.batches, append([]control.Event(nil), events...))
	return nil
}

func render(r *pedals.Runner, n int) []float32 {
	output := make([]float32, n)
	r.Render(output)
	return output
}

func TestNew(t *testing.T) {
	_, err := pedals.New(signal.StreamConfig{}, 10, unit.Transparent{})
	assert.True(t, errors.Is(err, unit.ErrConfiguration))
	_, err = pedals.New(msStream, 10, nil)
	assert.True(t, errors.Is(err, unit.ErrConfiguration))
	_, err = pedals.New(msStream, 0, unit.Transparent{})
	assert.True(t, errors.Is(err, unit.ErrConfiguration))

	r, err := pedals.New(signal.StreamConfig{SampleRate: 44100, Channels: 2}, 50, unit.Transparent{})
	require.NoError(t, err)
	assert.Equal(t, 2*2205, r.Latency())
	assert.NotEmpty(t, r.ID())
}

func TestLatency(t *testing.T) {
	logger := &recordingLogger{}
	r, err := pedals.New(msStream, 4, unit.Gain{Coefficient: 2}, pedals.WithLogger(logger))
	require.NoError(t, err)

	// first render happens before first capture
	assert.Equal(t, []float32{0, 0}, render(r, 2))
	r.Capture([]float32{1, 2, 3, 4})
	assert.Equal(t, []float32{0, 0, 2, 4}, render(r, 4))
	r.Capture([]float32{5, 6})
	assert.Equal(t, []float32{6, 8, 10, 12}, render(r, 4))
	assert.Empty(t, logger.warnings)
}

func TestTransportFaults(t *testing.T) {
	logger := &recordingLogger{}
	r, err := pedals.New(msStream, 4, unit.Transparent{}, pedals.WithLogger(logger), pedals.WithMetric())
	require.NoError(t, err)

	// capacity is 8 samples, 4 of them are prefilled
	r.Capture([]float32{1, 2, 3, 4, 5, 6})
	assert.True(t, logger.contains("overrun: 2 samples dropped"))

	assert.Equal(t, []float32{0, 0, 0, 0, 1, 2, 3, 4, 0, 0}, render(r, 10))
	assert.True(t, logger.contains("underrun: 2 samples zero-filled"))
	assert.True(t, logger.contains(r.ID()))

	values := metric.Get(r)
	assert.Equal(t, "1", values[metric.OverrunCounter])
	assert.Equal(t, "1", values[metric.UnderrunCounter])
	assert.Equal(t, "10", values[metric.SampleCounter])
}

func TestEvents(t *testing.T) {
	logger := &recordingLogger{}
	h := &handler{}
	r, err := pedals.New(msStream, 4, h, pedals.WithLogger(logger), pedals.WithEventsCapacity(2))
	require.NoError(t, err)

	events := []control.Event{
		{Timestamp: 1, Message: midi.NoteOn(0, 36, 100)},
		{Timestamp: 2, Message: midi.ControlChange(0, 1, 64)},
	}
	for _, e := range events {
		require.NoError(t, r.Events().Send(e))
	}
	assert.Error(t, r.Events().Send(events[0]))
	render(r, 1)
	render(r, 1)
	require.Len(t, h.batches, 2)
	assert.Equal(t, events, h.batches[0])
	assert.Empty(t, h.batches[1])

	r.Events().Close()
	render(r, 1)
	render(r, 1)
	assert.Len(t, h.batches, 4)
	assert.Len(t, logger.warnings, 1)
	assert.True(t, logger.contains("midi events"))
}

func TestUnitFault(t *testing.T) {
	logger := &recordingLogger{}
	h := &handler{err: errors.New("unit is broken")}
	r, err := pedals.New(msStream, 2, h, pedals.WithLogger(logger))
	require.NoError(t, err)

	r.Capture([]float32{1, 2})
	assert.Equal(t, []float32{0, 0, 1, 2}, render(r, 4))
	assert.True(t, logger.contains("unit is broken"))
}

func TestConcurrentCallbacks(t *testing.T) {
	defer goleak.VerifyNone(t)
	const (
		frameSize = 4
		frames    = 1000
	)
	logger := &recordingLogger{}
	// latency of two frames
	r, err := pedals.New(msStream, 2*frameSize, unit.Transparent{}, pedals.WithLogger(logger))
	require.NoError(t, err)

	input := make([]float32, frameSize*frames)
	for i := range input {
		input[i] = float32(i + 1)
	}
	output := make([]float32, len(input))

	captured := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer close(captured)
		for i := 0; i < frames; i++ {
			r.Capture(input[i*frameSize : (i+1)*frameSize])
			captured <- struct{}{}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < frames; i++ {
			<-captured
			r.Render(output[i*frameSize : (i+1)*frameSize])
		}
	}()
	wg.Wait()

	assert.Empty(t, logger.warnings)
	assert.Equal(t, make([]float32, 2*frameSize), output[:2*frameSize])
	assert.Equal(t, input[:len(input)-2*frameSize], output[2*frameSize:])
}
