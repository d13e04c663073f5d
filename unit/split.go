package unit

import (
	"fmt"

	"github.com/pipelined/pedals/control"
	"github.com/pipelined/pedals/signal"
)

// Split is a parallel composition: every branch processes the same input
// and their outputs are summed.
type Split struct {
	units []Unit
	buf   []float32
}

// NewSplit returns a split of provided units. At least one unit is
// required.
func NewSplit(units ...Unit) (*Split, error) {
	if len(units) == 0 {
		return nil, fmt.Errorf("%w: split must have at least one unit", ErrConfiguration)
	}
	return &Split{units: units}, nil
}

// Process mixes outputs of all branches into output.
func (s *Split) Process(input, output []float32) error {
	var errs unitErrors
	signal.Zero(output)
	s.buf = scratch(s.buf, len(output))
	for _, u := range s.units {
		if err := u.Process(input, s.buf); err != nil {
			errs = append(errs, err)
		}
		signal.Add(output, s.buf)
	}
	return errs.ret()
}

// HandleEvents forwards events to every branch in order.
func (s *Split) HandleEvents(events []control.Event) error {
	return handleEvents(s.units, events)
}
