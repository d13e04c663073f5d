// Package midiport listens to a MIDI input port and feeds timestamped
// events to the runner. It uses the MIDI driver registered by the
// command, eg. with import of gitlab.com/gomidi/midi/v2/drivers/rtmididrv.
package midiport

import (
	"errors"
	"fmt"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/pipelined/pedals/control"
	"github.com/pipelined/pedals/mutable"
)

// ErrPortNotFound is returned when there is no input port with provided
// name.
var ErrPortNotFound = errors.New("midi port not found")

// Listener delivers events of the input port until it's closed.
type Listener struct {
	in   drivers.In
	stop func()
}

// Ports returns names of available input ports.
func Ports() []string {
	ins := midi.GetInPorts()
	ports := make([]string, 0, len(ins))
	for _, in := range ins {
		ports = append(ports, in.String())
	}
	return ports
}

// Listen opens the port and starts sending its events. Events that can't
// be sent and listener failures are passed to onError.
func Listen(port string, events *mutable.Sender[control.Event], onError func(error)) (*Listener, error) {
	if onError == nil {
		onError = func(error) {}
	}
	in, err := midi.FindInPort(port)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrPortNotFound, port, err)
	}
	if err := in.Open(); err != nil {
		return nil, fmt.Errorf("open midi port %s: %w", in, err)
	}
	h := handler{
		start:   time.Now(),
		events:  events,
		onError: onError,
	}
	stop, err := midi.ListenTo(in, h.receive, midi.HandleError(onError))
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("listen midi port %s: %w", in, err)
	}
	return &Listener{
		in:   in,
		stop: stop,
	}, nil
}

// Port returns the name of listened port.
func (l *Listener) Port() string {
	return l.in.String()
}

// Close stops listening and closes the port.
func (l *Listener) Close() error {
	l.stop()
	return l.in.Close()
}

// handler timestamps received messages and sends them.
type handler struct {
	start   time.Time
	events  *mutable.Sender[control.Event]
	onError func(error)
}

// receive is called on the listener thread. Driver timestamps have
// millisecond resolution, so events are stamped with the receive time.
func (h *handler) receive(msg midi.Message, _ int32) {
	e := control.Event{
		Timestamp: uint64(time.Since(h.start).Microseconds()),
		Message:   msg,
	}
	if err := h.events.Send(e); err != nil {
		h.onError(fmt.Errorf("midi event %v dropped: %w", msg, err))
	}
}
