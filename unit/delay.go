package unit

import (
	"errors"
	"fmt"

	"github.com/pipelined/pedals/mutable"
	"github.com/pipelined/pedals/signal"
	"github.com/pipelined/pedals/transport"
)

// DelayCommands is the number of length changes that can be pending
// between two Process calls.
const DelayCommands = 64

// Delay is a variable-length delay line. Its length can be changed while
// running: the command is applied at the start of the next Process call.
type Delay struct {
	stream  signal.StreamConfig
	ring    *transport.Ring
	length  uint32
	max     uint32
	samples int
	lengths *mutable.Receiver[uint32]
}

// NewDelay returns a delay line with initial length and storage
// pre-allocated for max length, both in milliseconds. The sender is used
// to change the length while the delay runs.
func NewDelay(stream signal.StreamConfig, initial, max uint32) (*Delay, *mutable.Sender[uint32], error) {
	if err := stream.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: delay: %v", ErrConfiguration, err)
	}
	if initial > max {
		return nil, nil, fmt.Errorf("%w: delay length must be <= %d ms, but was %d ms", ErrConfiguration, max, initial)
	}
	ring, err := transport.New(stream.Samples(max))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: delay: %v", ErrConfiguration, err)
	}
	samples := stream.Samples(initial)
	ring.WriteSilence(samples)
	sender, receiver := mutable.New[uint32](DelayCommands)
	return &Delay{
		stream:  stream,
		ring:    ring,
		length:  initial,
		max:     max,
		samples: samples,
		lengths: receiver,
	}, sender, nil
}

// Length returns current delay length in milliseconds.
func (d *Delay) Length() uint32 {
	return d.length
}

// Process applies pending length change and delays the input.
func (d *Delay) Process(input, output []float32) error {
	err := d.applyLength()
	for len(input) > 0 {
		n := min(len(input), d.ring.Free())
		if n > 0 {
			d.ring.Write(input[:n])
			d.ring.Read(output[:n])
		} else if n = min(len(input), d.ring.Len()); n > 0 {
			// line is full: the oldest samples leave before new enter
			d.ring.Read(output[:n])
			d.ring.Write(input[:n])
		} else {
			// zero-length line without storage
			n = copy(output, input)
		}
		input, output = input[n:], output[n:]
	}
	return err
}

// applyLength takes all pending commands and applies only the last one.
func (d *Delay) applyLength() error {
	length, ok, err := d.lengths.Last()
	if errors.Is(err, mutable.ErrClosed) {
		err = fmt.Errorf("delay: length updates stopped: %w", err)
	}
	if !ok {
		return err
	}
	if length > d.max {
		return errors.Join(err, fmt.Errorf("delay length must be <= %d ms, but was %d ms", d.max, length))
	}

	samples := d.stream.Samples(length)
	if samples >= d.samples {
		// silence appears at the end of the line
		d.ring.WriteSilence(samples - d.samples)
	} else {
		d.ring.Discard(d.samples - samples)
	}
	d.length, d.samples = length, samples
	return err
}
