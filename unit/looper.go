package unit

import (
	"errors"
	"fmt"

	"github.com/pipelined/pedals/mutable"
	"github.com/pipelined/pedals/signal"
)

// LooperCommands is the number of events that can be pending between two
// Process calls.
const LooperCommands = 64

// LooperEvent is an external event that drives the looper.
type LooperEvent int

const (
	// Toggle arms the next recording or playing transition, or stops
	// playback.
	Toggle LooperEvent = iota
	// QueueOverdub arms overdub at the next loop wraparound.
	QueueOverdub
	// TickMeasure commits armed transitions on a measure boundary.
	TickMeasure
)

// LooperMode enumerates looper states.
type LooperMode int

const (
	// Off outputs silence.
	Off LooperMode = iota
	// QueueRecording waits for the next measure to start recording.
	QueueRecording
	// Recording writes input into the loop.
	Recording
	// QueuePlaying keeps recording until the next measure.
	QueuePlaying
	// Playing plays the loop.
	Playing
	// PlayingAwaitingOverdub plays the loop until it wraps, then overdubs.
	PlayingAwaitingOverdub
	// Overdubbing plays the loop and layers input on top of it.
	Overdubbing
)

// LooperState is the looper state with its position and the total length
// of the loop in samples. Position is meaningful in all modes except Off
// and QueueRecording, total only in playing modes.
type LooperState struct {
	Mode     LooperMode
	Position int
	Total    int
}

// Looper records a loop into fixed-capacity storage and plays it back,
// optionally layering new input on top of the recorded one.
type Looper struct {
	buffer []float32
	state  LooperState
	events *mutable.Receiver[LooperEvent]
	batch  []LooperEvent
}

// NewLooper returns a looper that can hold loops up to max milliseconds.
// The sender is used to send events to the running looper.
func NewLooper(stream signal.StreamConfig, max uint32) (*Looper, *mutable.Sender[LooperEvent], error) {
	if err := stream.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: looper: %v", ErrConfiguration, err)
	}
	capacity := stream.Samples(max)
	if capacity == 0 {
		return nil, nil, fmt.Errorf("%w: looper length must be > 0 samples, but was %d ms", ErrConfiguration, max)
	}
	sender, receiver := mutable.New[LooperEvent](LooperCommands)
	return &Looper{
		buffer: make([]float32, capacity),
		events: receiver,
		batch:  make([]LooperEvent, 0, LooperCommands),
	}, sender, nil
}

// State returns current looper state.
func (l *Looper) State() LooperState {
	return l.state
}

// Process applies pending events in order and then processes the frame.
func (l *Looper) Process(input, output []float32) error {
	var err error
	l.batch, err = l.events.Drain(l.batch[:0])
	if errors.Is(err, mutable.ErrClosed) {
		err = fmt.Errorf("looper: events stopped: %w", err)
	}
	for _, e := range l.batch {
		l.state = l.state.next(e)
	}
	l.process(input, output)
	return err
}

// next returns the state after the event.
func (s LooperState) next(e LooperEvent) LooperState {
	switch e {
	case Toggle:
		switch s.Mode {
		case Off:
			return LooperState{Mode: QueueRecording}
		case QueueRecording:
			return LooperState{Mode: Off}
		case Recording:
			return LooperState{Mode: QueuePlaying, Position: s.Position}
		case Playing, PlayingAwaitingOverdub, Overdubbing:
			return LooperState{Mode: Off}
		}
	case QueueOverdub:
		if s.Mode == Playing {
			s.Mode = PlayingAwaitingOverdub
		}
	case TickMeasure:
		switch s.Mode {
		case QueueRecording:
			return LooperState{Mode: Recording}
		case QueuePlaying:
			if s.Position == 0 {
				return LooperState{Mode: Off}
			}
			return LooperState{Mode: Playing, Total: s.Position}
		}
	}
	return s
}

// process splits the frame at every buffer boundary and handles the
// pieces one by one, so state transitions never special-case wraparound.
func (l *Looper) process(input, output []float32) {
	for len(output) > 0 {
		n := l.step(input, output)
		input, output = input[n:], output[n:]
	}
}

// step processes the frame up to the nearest buffer boundary and returns
// the number of processed samples.
func (l *Looper) step(input, output []float32) int {
	switch l.state.Mode {
	case Recording, QueuePlaying:
		p := l.state.Position
		n := min(len(output), len(l.buffer)-p)
		copy(l.buffer[p:p+n], input[:n])
		signal.Zero(output[:n])
		if p+n == len(l.buffer) {
			// the loop can't be longer than the buffer
			l.state = LooperState{Mode: Playing, Total: p + n}
		} else {
			l.state.Position = p + n
		}
		return n
	case Playing, PlayingAwaitingOverdub, Overdubbing:
		p, total := l.state.Position, l.state.Total
		n := min(len(output), total-p)
		loop := l.buffer[p : p+n]
		copy(output[:n], loop)
		if l.state.Mode == Overdubbing {
			signal.Add(loop, input[:n])
		}
		l.state.Position = p + n
		if l.state.Position == total {
			l.state.Position = 0
			switch l.state.Mode {
			case PlayingAwaitingOverdub:
				l.state.Mode = Overdubbing
			case Overdubbing:
				l.state.Mode = Playing
			}
		}
		return n
	}
	signal.Zero(output)
	return len(output)
}

func (m LooperMode) String() string {
	switch m {
	case Off:
		return "off"
	case QueueRecording:
		return "queue recording"
	case Recording:
		return "recording"
	case QueuePlaying:
		return "queue playing"
	case Playing:
		return "playing"
	case PlayingAwaitingOverdub:
		return "playing awaiting overdub"
	case Overdubbing:
		return "overdubbing"
	}
	return "unknown"
}

func (e LooperEvent) String() string {
	switch e {
	case Toggle:
		return "toggle"
	case QueueOverdub:
		return "queue overdub"
	case TickMeasure:
		return "tick measure"
	}
	return "unknown"
}
