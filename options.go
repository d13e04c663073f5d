package pedals

import "github.com/pipelined/pedals/metric"

// Option provides a way to set functional parameters to the runner.
type Option func(r *Runner)

// WithLogger sets logger to the runner. If this option is not provided,
// silent logger is used.
func WithLogger(logger Logger) Option {
	return func(r *Runner) {
		r.log = logger
	}
}

// WithMetric enables expvar counters of the runner.
func WithMetric() Option {
	return func(r *Runner) {
		r.measure = metric.Meter(r, r.stream.SampleRate)()
		r.overrun = metric.Fault(r, metric.OverrunCounter)
		r.underrun = metric.Fault(r, metric.UnderrunCounter)
		r.channelFault = metric.Fault(r, metric.ChannelFaultCounter)
		r.unitFault = metric.Fault(r, metric.UnitFaultCounter)
	}
}

// WithEventsCapacity sets the number of MIDI events that can be pending
// between two render calls. DefaultEventsCapacity is used by default.
func WithEventsCapacity(capacity int) Option {
	return func(r *Runner) {
		r.eventsCapacity = capacity
	}
}
