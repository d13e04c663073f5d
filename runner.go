package pedals

import (
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/pipelined/pedals/control"
	"github.com/pipelined/pedals/metric"
	"github.com/pipelined/pedals/mutable"
	"github.com/pipelined/pedals/signal"
	"github.com/pipelined/pedals/transport"
	"github.com/pipelined/pedals/unit"
)

// DefaultEventsCapacity is the number of MIDI events that can be pending
// between two render calls.
const DefaultEventsCapacity = 1024

// Logger is a global interface for pedals loggers.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
}

// Runner connects capture and render callbacks of the audio driver with
// the unit graph. Capture must only be called by the capture thread and
// Render only by the render thread.
type Runner struct {
	id             string
	stream         signal.StreamConfig
	latency        int
	transport      *transport.Ring
	graph          unit.Unit
	handler        unit.EventHandler
	eventsCapacity int
	sender         *mutable.Sender[control.Event]
	events         *mutable.Receiver[control.Event]
	batch          []control.Event
	frame          []float32
	log            Logger

	measure      metric.MeasureFunc
	overrun      metric.CountFunc
	underrun     metric.CountFunc
	channelFault metric.CountFunc
	unitFault    metric.CountFunc
}

// New returns a runner for the graph. Transport holds twice the latency
// and starts with latency of silence.
func New(stream signal.StreamConfig, latencyMs uint32, graph unit.Unit, options ...Option) (*Runner, error) {
	if err := stream.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", unit.ErrConfiguration, err)
	}
	if graph == nil {
		return nil, fmt.Errorf("%w: unit graph is not provided", unit.ErrConfiguration)
	}
	latency := stream.Samples(latencyMs)
	if latency == 0 {
		return nil, fmt.Errorf("%w: latency must be > 0 samples, but was %d ms", unit.ErrConfiguration, latencyMs)
	}
	ring, err := transport.Prefilled(latency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", unit.ErrConfiguration, err)
	}
	r := Runner{
		id:             xid.New().String(),
		stream:         stream,
		latency:        latency,
		transport:      ring,
		graph:          graph,
		eventsCapacity: DefaultEventsCapacity,
		log:            defaultLogger,
		measure:        func(int64) {},
		overrun:        noop,
		underrun:       noop,
		channelFault:   noop,
		unitFault:      noop,
	}
	for _, option := range options {
		option(&r)
	}
	r.handler, _ = graph.(unit.EventHandler)
	r.sender, r.events = mutable.New[control.Event](r.eventsCapacity)
	r.batch = make([]control.Event, 0, r.eventsCapacity)
	r.frame = make([]float32, 0, latency)
	r.log.Debug(fmt.Sprintf("runner %s: latency %d samples, %v", r.id, latency, stream.Duration(latency)))
	return &r, nil
}

// ID returns unique runner id.
func (r *Runner) ID() string {
	return r.id
}

// Stream returns stream configuration of the runner.
func (r *Runner) Stream() signal.StreamConfig {
	return r.stream
}

// Latency returns latency of the transport in samples.
func (r *Runner) Latency() int {
	return r.latency
}

// Events returns the sender that feeds MIDI events to the graph. It must
// be owned by a single goroutine.
func (r *Runner) Events() *mutable.Sender[control.Event] {
	return r.sender
}

// Capture writes the captured frame into the transport.
func (r *Runner) Capture(input []float32) {
	if _, err := r.transport.Write(input); err != nil {
		r.overrun()
		r.warn(err)
	}
}

// Render passes pending MIDI events to the graph, reads the frame from
// the transport and processes it into the output.
func (r *Runner) Render(output []float32) {
	var err error
	r.batch, err = r.events.Drain(r.batch[:0])
	if err != nil {
		r.channelFault()
		r.warn(fmt.Errorf("midi events: %w", err))
	}
	if r.handler != nil {
		if err := r.handler.HandleEvents(r.batch); err != nil {
			r.channelFault()
			r.warn(err)
		}
	}

	if cap(r.frame) < len(output) {
		r.frame = make([]float32, len(output))
	}
	frame := r.frame[:len(output)]
	if _, err := r.transport.Read(frame); err != nil {
		r.underrun()
		r.warn(err)
	}
	if err := r.graph.Process(frame, output); err != nil {
		if errors.Is(err, mutable.ErrClosed) || errors.Is(err, mutable.ErrFull) {
			r.channelFault()
		} else {
			r.unitFault()
		}
		r.warn(err)
	}
	r.measure(int64(len(output) / r.stream.Channels))
}

func (r *Runner) warn(err error) {
	r.log.Warn(fmt.Sprintf("runner %s: %v", r.id, err))
}

func noop() {}

type silentLogger struct{}

func (silentLogger) Debug(args ...interface{}) {}

func (silentLogger) Info(args ...interface{}) {}

func (silentLogger) Warn(args ...interface{}) {}

var defaultLogger silentLogger
