package unit

import (
	"fmt"

	"github.com/pipelined/pedals/control"
)

// Pipeline is a serial composition: output of each unit feeds the next.
type Pipeline struct {
	units []Unit
	buf   []float32
}

// NewPipeline returns a pipeline of provided units. At least one unit is
// required.
func NewPipeline(units ...Unit) (*Pipeline, error) {
	if len(units) == 0 {
		return nil, fmt.Errorf("%w: pipeline must have at least one unit", ErrConfiguration)
	}
	return &Pipeline{units: units}, nil
}

// Process feeds input into the first unit, then output of every unit
// becomes the input of the next one.
func (p *Pipeline) Process(input, output []float32) error {
	var errs unitErrors
	if err := p.units[0].Process(input, output); err != nil {
		errs = append(errs, err)
	}
	if len(p.units) == 1 {
		return errs.ret()
	}

	p.buf = scratch(p.buf, len(output))
	for _, u := range p.units[1:] {
		copy(p.buf, output)
		if err := u.Process(p.buf, output); err != nil {
			errs = append(errs, err)
		}
	}
	return errs.ret()
}

// HandleEvents forwards events to every unit in order.
func (p *Pipeline) HandleEvents(events []control.Event) error {
	return handleEvents(p.units, events)
}
