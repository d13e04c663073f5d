// Package unit defines composable real-time processing stages.
//
// Every unit processes one frame of interleaved samples per call and
// writes exactly len(output) samples. Units never block; those that can
// be controlled while running take queued commands at the start of the
// next Process call.
package unit

import (
	"errors"
	"strings"

	"github.com/pipelined/pedals/control"
)

// ErrConfiguration is returned if unit cannot be constructed with provided
// parameters.
var ErrConfiguration = errors.New("configuration error")

type (
	// Unit processes input frame into output frame of the same length.
	// Returned errors are faults: output is still valid.
	Unit interface {
		Process(input, output []float32) error
	}

	// EventHandler accepts the batch of MIDI events received since the
	// previous render call.
	EventHandler interface {
		HandleEvents(events []control.Event) error
	}
)

// unitErrors wraps faults that might occur when multiple units are
// failing in the same call.
type unitErrors []error

func (e unitErrors) Error() string {
	s := make([]string, 0, len(e))
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Unwrap allows errors.Is and errors.As to inspect every fault.
func (e unitErrors) Unwrap() []error {
	return e
}

// ret returns untyped nil if error list is empty.
func (e unitErrors) ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}

// handleEvents forwards events to every unit that accepts them.
func handleEvents(units []Unit, events []control.Event) error {
	var errs unitErrors
	for _, u := range units {
		if h, ok := u.(EventHandler); ok {
			if err := h.HandleEvents(events); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errs.ret()
}

// scratch returns buf resized to n samples. Memory is only allocated
// when the frame grows beyond the capacity.
func scratch(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}
