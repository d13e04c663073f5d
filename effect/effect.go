// Package effect assembles units into playable effects and drives them
// with MIDI controls. Effects are units themselves: they process frames
// and accept the batch of MIDI events before every render call.
package effect

import (
	"fmt"
	"strings"

	"github.com/pipelined/pedals/mutable"
)

// sendErrors wraps failed command sends of the same batch.
type sendErrors []error

func (e sendErrors) Error() string {
	s := make([]string, 0, len(e))
	for _, se := range e {
		s = append(s, se.Error())
	}
	return strings.Join(s, ",")
}

// Unwrap allows errors.Is to match mutable.ErrFull and mutable.ErrClosed.
func (e sendErrors) Unwrap() []error {
	return e
}

func (e sendErrors) ret() error {
	if len(e) > 0 {
		return e
	}
	return nil
}

// send pushes the command and records the failure if it was dropped.
func send[T any](errs sendErrors, s *mutable.Sender[T], v T, component string) sendErrors {
	if err := s.Send(v); err != nil {
		return append(errs, fmt.Errorf("%s: command %v dropped: %w", component, v, err))
	}
	return errs
}
